package adapters

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mbellot/parley/internal/core"
	"github.com/mbellot/parley/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

const writeWait = 5 * time.Second

// wsConn is a transport endpoint (WebSocket). It implements
// core.ClientConnection: non-blocking sends into a buffered channel, a write
// pump draining it to the network, and an idempotent Close.
//
// The send channel is never closed. Shutdown is a flag flip plus a socket
// close: fanout can keep calling TrySend concurrently with teardown and gets
// an error back instead of a send on a dead channel.
type wsConn struct {
	id     core.ConnID
	userID domain.UserID
	conn   *websocket.Conn
	send   chan core.Frame
	mu     sync.Mutex
	closed bool
}

func newWSConn(id core.ConnID, userID domain.UserID, conn *websocket.Conn, buffer int) *wsConn {
	return &wsConn{
		id:     id,
		userID: userID,
		conn:   conn,
		send:   make(chan core.Frame, buffer),
	}
}

func (c *wsConn) ID() core.ConnID       { return c.id }
func (c *wsConn) UserID() domain.UserID { return c.userID }

// TrySend never blocks; a full buffer means the frame is dropped and the
// caller learns about it. Fanout treats that as fire-and-forget.
func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	_ = c.conn.Close()
}

// startWriteLoop pumps frames to the network and keeps the connection alive
// with pings. On a write failure it only closes the socket, which unblocks
// the read pump; the read pump owns the ordered unregister-then-Close.
func (c *wsConn) startWriteLoop(ctx context.Context, pingPeriod time.Duration) {
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer func() {
			ticker.Stop()
			_ = c.conn.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-c.send:
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			case <-ticker.C:
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()
}
