package adapters

import (
	"github.com/mbellot/parley/internal/domain"
)

// Client->server payloads. Every frame is a JSON object with a type tag;
// the controller unmarshals the envelope first, then the typed payload.

type envelope struct {
	Type domain.EventKind `json:"type"`
}

type roomPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

type sendPayload struct {
	RoomID  domain.RoomID     `json:"chatRoomId"`
	Content string            `json:"content"`
	ReplyTo *domain.MessageID `json:"replyTo,omitempty"`
}

type editPayload struct {
	MessageID domain.MessageID `json:"messageId"`
	Content   string           `json:"content"`
}

type deletePayload struct {
	MessageID domain.MessageID `json:"messageId"`
}

type typingPayload struct {
	RoomID domain.RoomID `json:"chatRoomId"`
}

type readPayload struct {
	RoomID domain.RoomID `json:"chatRoomId"`
}

// errorPayload is the generic failure surface: a human-readable message, no
// structured code.
type errorPayload struct {
	Type    domain.EventKind `json:"type"`
	Message string           `json:"message"`
}
