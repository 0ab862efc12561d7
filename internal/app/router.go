package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/mbellot/parley/internal/core"
	"github.com/mbellot/parley/internal/domain"
)

// Router is the event-fanout engine. Every chat action arriving on the
// bidirectional channel goes through one of its methods: the method
// authorizes the actor against the room store, persists through the message
// collaborator, then fans the event out to room and private channels.
//
// Fanout is fire-and-forget: sends are non-blocking, a slow socket drops the
// frame, and nothing is retried. The persisted message row is the durability
// boundary, not delivery.
type Router struct {
	registry *Registry
	channels *ChannelSet
	presence *Presence
	users    core.UserStore
	rooms    core.RoomStore
	messages core.MessageStore
	limiter  *RateLimiter

	// dispatchMu is the single dispatch point: fanout sends for a room are
	// serialized through it, so events reach a room channel in the order the
	// engine accepted them. It is never held across a store call.
	dispatchMu sync.Mutex
}

func NewRouter(registry *Registry, channels *ChannelSet, presence *Presence,
	users core.UserStore, rooms core.RoomStore, messages core.MessageStore,
	limiter *RateLimiter) *Router {
	return &Router{
		registry: registry,
		channels: channels,
		presence: presence,
		users:    users,
		rooms:    rooms,
		messages: messages,
		limiter:  limiter,
	}
}

// Connect admits an authenticated connection: registry entry, online-users
// snapshot, presence broadcast on the offline->online edge.
func (r *Router) Connect(conn core.ClientConnection) {
	r.presence.HandleConnect(conn)
}

// Disconnect is the terminal state of a connection. It detaches the
// connection from every channel and re-evaluates presence. Safe to call
// twice; the second call is a no-op.
func (r *Router) Disconnect(conn core.ClientConnection) {
	r.channels.LeaveAll(conn.ID())
	r.presence.HandleDisconnect(conn.ID(), conn.UserID())
}

// JoinRoom subscribes the connection to a room channel. Deliberately not
// gated on persisted room membership: any authenticated connection may watch
// any room channel by id (soft binding). Message actions are still
// authorized per handler, but this is a known gap for passive listening.
func (r *Router) JoinRoom(cid core.ConnID, roomID domain.RoomID) {
	r.channels.Join(roomID, cid)
	log.Debug().Str("module", "app.router").Str("conn", string(cid)).Str("room", string(roomID)).Msg("joined room channel")
}

func (r *Router) LeaveRoom(cid core.ConnID, roomID domain.RoomID) {
	r.channels.Leave(roomID, cid)
	log.Debug().Str("module", "app.router").Str("conn", string(cid)).Str("room", string(roomID)).Msg("left room channel")
}

// Send persists a new message, publishes message:new to the room channel and
// notifies absent participants on their private channels. The notification
// leg is best-effort: its error branch is discarded here, on purpose, so a
// room deleted mid-flight can never fail an already-persisted message.
func (r *Router) Send(uid domain.UserID, roomID domain.RoomID, content string, replyTo *domain.MessageID) (*domain.Message, error) {
	if !r.limiter.Allow(uid) {
		return nil, core.Denied("message rate limit exceeded")
	}
	if err := r.requireParticipant(roomID, uid); err != nil {
		return nil, err
	}
	msg, err := domain.NewMessage(roomID, uid, content, replyTo)
	if err != nil {
		return nil, err
	}
	if err := r.messages.Create(msg); err != nil {
		return nil, err
	}
	r.publishToRoom(roomID, messagePayload{Type: domain.EvMessageNew, Message: msg})
	if err := r.notifyAbsentParticipants(msg); err != nil {
		log.Warn().Err(err).Str("module", "app.router").Str("room", string(roomID)).Msg("absent-participant notify skipped")
	}
	return msg, nil
}

// Edit mutates a message's content. Only the original author may edit, and
// only while the message is not deleted.
func (r *Router) Edit(uid domain.UserID, msgID domain.MessageID, content string) error {
	msg, err := r.messages.GetByID(msgID)
	if err != nil {
		return err
	}
	if msg.Deleted {
		return core.InvalidState("message %s already deleted", msgID)
	}
	if msg.SenderID != uid {
		return core.Denied("only the author can edit a message")
	}
	if len(content) == 0 {
		return domain.ErrContentEmpty
	}
	if len(content) > domain.MaxContentLen {
		return domain.ErrContentTooLong
	}
	now := time.Now().UTC()
	msg.Content = content
	msg.EditedAt = &now
	if err := r.messages.Update(msg); err != nil {
		return err
	}
	r.publishToRoom(msg.RoomID, messagePayload{Type: domain.EvMessageEdited, Message: msg})
	return nil
}

// Delete tombstones a message. Only the original author may delete.
func (r *Router) Delete(uid domain.UserID, msgID domain.MessageID) error {
	msg, err := r.messages.GetByID(msgID)
	if err != nil {
		return err
	}
	if msg.Deleted {
		return core.InvalidState("message %s already deleted", msgID)
	}
	if msg.SenderID != uid {
		return core.Denied("only the author can delete a message")
	}
	if err := r.messages.MarkDeleted(msgID); err != nil {
		return err
	}
	r.publishToRoom(msg.RoomID, messageDeletedPayload{Type: domain.EvMessageDeleted, MessageID: msgID, RoomID: msg.RoomID})
	return nil
}

// Typing relays a typing indicator to the room channel. Transient by nature;
// nothing is persisted.
func (r *Router) Typing(uid domain.UserID, roomID domain.RoomID, start bool) error {
	if err := r.requireParticipant(roomID, uid); err != nil {
		return err
	}
	kind := domain.EvTypingStop
	if start {
		kind = domain.EvTypingStart
	}
	username := ""
	if u, err := r.users.GetByID(uid); err == nil {
		username = u.Username
	}
	r.publishToRoom(roomID, typingPayload{Type: kind, RoomID: roomID, UserID: uid, Username: username})
	return nil
}

// Read records the actor's read cursor through the oracle and relays the
// receipt to the room channel.
func (r *Router) Read(uid domain.UserID, roomID domain.RoomID) error {
	if err := r.requireParticipant(roomID, uid); err != nil {
		return err
	}
	if err := r.rooms.MarkRead(roomID, uid); err != nil {
		return err
	}
	r.publishToRoom(roomID, readPayload{Type: domain.EvMessagesRead, RoomID: roomID, UserID: uid})
	return nil
}

func (r *Router) requireParticipant(roomID domain.RoomID, uid domain.UserID) error {
	parts, err := r.rooms.Participants(roomID)
	if err != nil {
		return err
	}
	ok := lo.SomeBy(parts, func(p domain.Participant) bool { return p.UserID == uid })
	if !ok {
		return core.Denied("user %s is not a participant of room %s", uid, roomID)
	}
	return nil
}

// publishToRoom delivers one event to every connection joined to the room
// channel. Connections that left the channel, or disconnected, get nothing.
func (r *Router) publishToRoom(roomID domain.RoomID, payload any) {
	frame, err := encode(payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Str("room", string(roomID)).Msg("encode room event")
		return
	}
	r.dispatchMu.Lock()
	defer r.dispatchMu.Unlock()
	sent := 0
	for _, cid := range r.channels.Members(roomID) {
		conn, ok := r.registry.Conn(cid)
		if !ok {
			continue
		}
		if err := conn.TrySend(frame); err == nil {
			sent++
		}
	}
	log.Debug().Str("module", "app.router").Str("room", string(roomID)).Int("sent_to", sent).Msg("room fanout")
}

// notifyAbsentParticipants emits notification:message on the private channel
// of every room participant who is neither the sender nor watching the room
// channel on any device. Offline participants are dropped silently; there is
// no queued delivery. A failed room lookup (room deleted mid-flight) returns
// a Transient error for the caller to discard.
func (r *Router) notifyAbsentParticipants(msg *domain.Message) error {
	parts, err := r.rooms.Participants(msg.RoomID)
	if err != nil {
		return core.Transient("room lookup during fanout", err)
	}
	frame, err := encode(notificationPayload{
		Type:   domain.EvNotificationMessage,
		RoomID: msg.RoomID,
		Message: notificationMessage{
			ID:        msg.ID,
			Content:   msg.Content,
			Sender:    msg.SenderID,
			CreatedAt: msg.CreatedAt,
		},
	})
	if err != nil {
		return core.Transient("encode notification", err)
	}

	r.dispatchMu.Lock()
	defer r.dispatchMu.Unlock()
	for _, p := range parts {
		if p.UserID == msg.SenderID {
			continue
		}
		conns := r.registry.ConnectionsFor(p.UserID)
		if len(conns) == 0 {
			continue
		}
		watching := lo.SomeBy(conns, func(c core.ClientConnection) bool {
			return r.channels.Joined(msg.RoomID, c.ID())
		})
		if watching {
			// already received message:new on the room channel
			continue
		}
		for _, c := range conns {
			_ = c.TrySend(frame)
		}
	}
	return nil
}
