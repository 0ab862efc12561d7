package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mbellot/parley/internal/app"
	"github.com/mbellot/parley/internal/auth"
	"github.com/mbellot/parley/internal/config"
	"github.com/mbellot/parley/internal/core"
	"github.com/mbellot/parley/internal/domain"
)

var upgrader = websocket.Upgrader{
	// TODO: restrict origins once the deployment domain is settled.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSController owns the websocket endpoint: handshake auth, connection
// lifecycle, and dispatch of client events into the router.
type WSController struct {
	Router *app.Router
	Issuer *auth.TokenIssuer
	Cfg    *config.Config
}

func NewWSController(router *app.Router, issuer *auth.TokenIssuer, cfg *config.Config) *WSController {
	return &WSController{Router: router, Issuer: issuer, Cfg: cfg}
}

// HandleWS validates the bearer credential, upgrades the connection and
// admits it to the registry. An invalid credential is rejected before the
// upgrade; nothing is registered.
func (ctl *WSController) HandleWS(ctx context.Context, c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credential"})
		return
	}
	claims, err := ctl.Issuer.Validate(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Msg("upgrade failed")
		return
	}

	conn := newWSConn(core.ConnID(uuid.NewString()), domain.UserID(claims.UserID), ws, ctl.Cfg.SendBuffer)
	log.Info().Str("module", "adapters.ws").Str("conn", string(conn.ID())).Str("user", claims.UserID).Msg("connection admitted")

	connCtx, cancel := context.WithCancel(ctx)
	ctl.Router.Connect(conn)
	conn.startWriteLoop(connCtx, ctl.Cfg.PingPeriod)
	go ctl.readPump(connCtx, cancel, conn)
}

func bearerToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func (ctl *WSController) readPump(ctx context.Context, cancel context.CancelFunc, c *wsConn) {
	defer func() {
		// terminal state: unregister and re-evaluate presence exactly once
		ctl.Router.Disconnect(c)
		c.Close()
		cancel()
		log.Info().Str("module", "adapters.ws").Str("conn", string(c.ID())).Msg("connection closed")
	}()

	pongWait := ctl.Cfg.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.handleFrame(c, data)
		}
	}
}

func (ctl *WSController) handleFrame(c *wsConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		ctl.sendError(c, "malformed event")
		return
	}

	switch env.Type {
	case domain.EvRoomJoin:
		var p roomPayload
		if err := json.Unmarshal(data, &p); err != nil {
			ctl.sendError(c, "bad room:join payload")
			return
		}
		ctl.Router.JoinRoom(c.ID(), p.RoomID)
	case domain.EvRoomLeave:
		var p roomPayload
		if err := json.Unmarshal(data, &p); err != nil {
			ctl.sendError(c, "bad room:leave payload")
			return
		}
		ctl.Router.LeaveRoom(c.ID(), p.RoomID)
	case domain.EvMessageSend:
		var p sendPayload
		if err := json.Unmarshal(data, &p); err != nil {
			ctl.sendError(c, "bad message:send payload")
			return
		}
		if _, err := ctl.Router.Send(c.UserID(), p.RoomID, p.Content, p.ReplyTo); err != nil {
			ctl.sendError(c, humanMsg(err))
		}
	case domain.EvMessageEdit:
		var p editPayload
		if err := json.Unmarshal(data, &p); err != nil {
			ctl.sendError(c, "bad message:edit payload")
			return
		}
		if err := ctl.Router.Edit(c.UserID(), p.MessageID, p.Content); err != nil {
			ctl.sendError(c, humanMsg(err))
		}
	case domain.EvMessageDelete:
		var p deletePayload
		if err := json.Unmarshal(data, &p); err != nil {
			ctl.sendError(c, "bad message:delete payload")
			return
		}
		if err := ctl.Router.Delete(c.UserID(), p.MessageID); err != nil {
			ctl.sendError(c, humanMsg(err))
		}
	case domain.EvTypingStart, domain.EvTypingStop:
		var p typingPayload
		if err := json.Unmarshal(data, &p); err != nil {
			ctl.sendError(c, "bad typing payload")
			return
		}
		if err := ctl.Router.Typing(c.UserID(), p.RoomID, env.Type == domain.EvTypingStart); err != nil {
			ctl.sendError(c, humanMsg(err))
		}
	case domain.EvMessagesRead:
		var p readPayload
		if err := json.Unmarshal(data, &p); err != nil {
			ctl.sendError(c, "bad messages:read payload")
			return
		}
		if err := ctl.Router.Read(c.UserID(), p.RoomID); err != nil {
			ctl.sendError(c, humanMsg(err))
		}
	default:
		ctl.sendError(c, "unknown event type")
	}
}

func (ctl *WSController) sendError(c *wsConn, msg string) {
	b, err := json.Marshal(errorPayload{Type: domain.EvError, Message: msg})
	if err != nil {
		return
	}
	_ = c.TrySend(core.Frame(b))
}

// humanMsg extracts the message for the generic error event. Taxonomy errors
// carry a presentable Msg; anything else falls back to Error().
func humanMsg(err error) string {
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce.Msg
	}
	return err.Error()
}
