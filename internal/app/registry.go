package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mbellot/parley/internal/core"
	"github.com/mbellot/parley/internal/domain"
)

// Registry tracks live connections and aggregates them per user.
// A user is online while at least one connection is registered; the 0<->1
// edge is reported to the caller so presence events fire once per lifetime
// session, not once per tab.
//
// All operations are synchronous map work under one mutex. Nothing in here
// may call a collaborator; handlers that need the oracle or a store do that
// outside the registry so a connect/disconnect pair can never observe a torn
// intermediate state.
type Registry struct {
	mu     sync.RWMutex
	conns  map[core.ConnID]core.ClientConnection
	byUser map[domain.UserID]map[core.ConnID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[core.ConnID]core.ClientConnection),
		byUser: make(map[domain.UserID]map[core.ConnID]struct{}),
	}
}

// Register adds the connection under its user and reports whether the user
// just came online (first live connection). Re-registering a known
// connection id is a no-op.
func (r *Registry) Register(conn core.ClientConnection) (becameOnline bool) {
	cid, uid := conn.ID(), conn.UserID()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[cid]; ok {
		log.Warn().Str("module", "app.registry").Str("conn", string(cid)).Msg("duplicate register ignored")
		return false
	}
	r.conns[cid] = conn
	set, ok := r.byUser[uid]
	if !ok {
		set = make(map[core.ConnID]struct{})
		r.byUser[uid] = set
	}
	set[cid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("conn", string(cid)).Str("user", string(uid)).Int("devices", len(set)).Msg("connection registered")
	return len(set) == 1
}

// Unregister removes the connection and reports whether its user just went
// offline (last live connection), with the last-seen timestamp. The owner is
// derived from the registered connection itself, so a caller can never detach
// a connection from someone else's session. Unregistering a connection that
// is not present is a no-op; disconnect can race with process teardown, so
// double-unregister must not error or re-fire the edge.
func (r *Registry) Unregister(cid core.ConnID) (becameOffline bool, lastSeen time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[cid]
	if !ok {
		return false, time.Time{}
	}
	uid := conn.UserID()
	set := r.byUser[uid]
	delete(r.conns, cid)
	delete(set, cid)
	log.Info().Str("module", "app.registry").Str("conn", string(cid)).Str("user", string(uid)).Int("devices", len(set)).Msg("connection unregistered")
	if len(set) == 0 {
		delete(r.byUser, uid)
		return true, time.Now().UTC()
	}
	return false, time.Time{}
}

func (r *Registry) IsOnline(uid domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[uid]) > 0
}

// OnlineUserIDs returns a snapshot of users with at least one live
// connection. No ordering guarantee.
func (r *Registry) OnlineUserIDs() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.UserID, 0, len(r.byUser))
	for uid := range r.byUser {
		out = append(out, uid)
	}
	return out
}

// ConnectionsFor returns the user's live connections; empty slice if offline,
// never nil.
func (r *Registry) ConnectionsFor(uid domain.UserID) []core.ClientConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.ClientConnection, 0, len(r.byUser[uid]))
	for cid := range r.byUser[uid] {
		if conn, ok := r.conns[cid]; ok {
			out = append(out, conn)
		}
	}
	return out
}

func (r *Registry) Conn(cid core.ConnID) (core.ClientConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[cid]
	return conn, ok
}

// Connections returns a snapshot of every live connection.
func (r *Registry) Connections() []core.ClientConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.ClientConnection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}
