package domain

// EventKind discriminates every event crossing the bidirectional channel.
// The set is closed; the protocol boundary switches over it exhaustively.
type EventKind string

// Client -> server.
const (
	EvRoomJoin      EventKind = "room:join"
	EvRoomLeave     EventKind = "room:leave"
	EvMessageSend   EventKind = "message:send"
	EvMessageEdit   EventKind = "message:edit"
	EvMessageDelete EventKind = "message:delete"
	EvTypingStart   EventKind = "typing:start"
	EvTypingStop    EventKind = "typing:stop"
	EvMessagesRead  EventKind = "messages:read"
)

// Server -> client.
const (
	EvMessageNew          EventKind = "message:new"
	EvMessageEdited       EventKind = "message:edited"
	EvMessageDeleted      EventKind = "message:deleted"
	EvUserOnline          EventKind = "user:online"
	EvUserOffline         EventKind = "user:offline"
	EvUsersOnline         EventKind = "users:online"
	EvNotificationMessage EventKind = "notification:message"
	EvError               EventKind = "error"
)
