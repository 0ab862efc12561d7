package app

import (
	"sync"

	"github.com/mbellot/parley/internal/core"
	"github.com/mbellot/parley/internal/domain"
)

// ChannelSet tracks which connections are subscribed to which room channel.
// This is soft membership: joining a channel is independent of persisted room
// participation, so a connection can watch any room it knows the id of.
// Authorization for message actions happens in the router against the room
// store, not here.
type ChannelSet struct {
	mu     sync.RWMutex
	byRoom map[domain.RoomID]map[core.ConnID]struct{}
	byConn map[core.ConnID]map[domain.RoomID]struct{}
}

func NewChannelSet() *ChannelSet {
	return &ChannelSet{
		byRoom: make(map[domain.RoomID]map[core.ConnID]struct{}),
		byConn: make(map[core.ConnID]map[domain.RoomID]struct{}),
	}
}

// Join is idempotent; joining a channel twice is a no-op.
func (c *ChannelSet) Join(roomID domain.RoomID, cid core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	room, ok := c.byRoom[roomID]
	if !ok {
		room = make(map[core.ConnID]struct{})
		c.byRoom[roomID] = room
	}
	room[cid] = struct{}{}
	joined, ok := c.byConn[cid]
	if !ok {
		joined = make(map[domain.RoomID]struct{})
		c.byConn[cid] = joined
	}
	joined[roomID] = struct{}{}
}

// Leave is idempotent; leaving a channel the connection never joined is a
// no-op. Empty channels are dropped.
func (c *ChannelSet) Leave(roomID domain.RoomID, cid core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveLocked(roomID, cid)
}

// LeaveAll detaches a connection from every channel it joined. Called on
// disconnect so a dead socket stops receiving registry-based routing.
func (c *ChannelSet) LeaveAll(cid core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for roomID := range c.byConn[cid] {
		c.leaveLocked(roomID, cid)
	}
}

func (c *ChannelSet) leaveLocked(roomID domain.RoomID, cid core.ConnID) {
	if room, ok := c.byRoom[roomID]; ok {
		delete(room, cid)
		if len(room) == 0 {
			delete(c.byRoom, roomID)
		}
	}
	if joined, ok := c.byConn[cid]; ok {
		delete(joined, roomID)
		if len(joined) == 0 {
			delete(c.byConn, cid)
		}
	}
}

// Members returns a snapshot of connection ids joined to the room channel.
func (c *ChannelSet) Members(roomID domain.RoomID) []core.ConnID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.ConnID, 0, len(c.byRoom[roomID]))
	for cid := range c.byRoom[roomID] {
		out = append(out, cid)
	}
	return out
}

// Joined reports whether the connection is subscribed to the room channel.
func (c *ChannelSet) Joined(roomID domain.RoomID, cid core.ConnID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byRoom[roomID][cid]
	return ok
}
