package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mbellot/parley/internal/core"
	"github.com/mbellot/parley/internal/domain"
)

// Presence turns registry edges into presence events. Broadcasts fire only
// on the 0<->1 connection-count transition: a user with three tabs produces
// exactly one user:online and one user:offline for the whole session.
type Presence struct {
	registry *Registry
	users    core.UserStore
}

func NewPresence(registry *Registry, users core.UserStore) *Presence {
	return &Presence{registry: registry, users: users}
}

// HandleConnect registers the connection, sends the online-users snapshot to
// it, and broadcasts user:online if this was the user's first connection.
// Status persistence is best-effort; a store failure is logged and the
// socket session proceeds.
func (p *Presence) HandleConnect(conn core.ClientConnection) {
	becameOnline := p.registry.Register(conn)

	if frame, err := encode(usersOnlinePayload{Type: domain.EvUsersOnline, UserIDs: p.registry.OnlineUserIDs()}); err == nil {
		_ = conn.TrySend(frame)
	}

	if !becameOnline {
		return
	}
	uid := conn.UserID()
	if err := p.users.SetStatus(uid, domain.StatusOnline, time.Time{}); err != nil {
		log.Warn().Err(err).Str("module", "app.presence").Str("user", string(uid)).Msg("failed to persist online status")
	}
	p.broadcastExcept(uid, userOnlinePayload{Type: domain.EvUserOnline, UserID: uid, Username: p.username(uid)})
}

// HandleDisconnect unregisters the connection and broadcasts user:offline if
// that was the user's last one. Idempotent: a second call for the same
// connection id is a no-op and fires no duplicate offline event.
func (p *Presence) HandleDisconnect(cid core.ConnID, uid domain.UserID) {
	becameOffline, lastSeen := p.registry.Unregister(cid)
	if !becameOffline {
		return
	}
	if err := p.users.SetStatus(uid, domain.StatusOffline, lastSeen); err != nil {
		log.Warn().Err(err).Str("module", "app.presence").Str("user", string(uid)).Msg("failed to persist offline status")
	}
	p.broadcastExcept(uid, userOfflinePayload{Type: domain.EvUserOffline, UserID: uid, LastSeen: lastSeen})
}

// broadcastExcept delivers a presence event to every connected session not
// belonging to the subject user. Fire-and-forget.
func (p *Presence) broadcastExcept(uid domain.UserID, payload any) {
	frame, err := encode(payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.presence").Msg("encode presence event")
		return
	}
	for _, conn := range p.registry.Connections() {
		if conn.UserID() == uid {
			continue
		}
		_ = conn.TrySend(frame)
	}
}

func (p *Presence) username(uid domain.UserID) string {
	u, err := p.users.GetByID(uid)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.presence").Str("user", string(uid)).Msg("username lookup failed")
		return ""
	}
	return u.Username
}
