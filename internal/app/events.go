package app

import (
	"encoding/json"
	"time"

	"github.com/mbellot/parley/internal/core"
	"github.com/mbellot/parley/internal/domain"
)

// Server->client payloads. Each carries its own type tag so a frame is
// self-describing; frames are marshaled once and fanned out as raw bytes.

type messagePayload struct {
	Type    domain.EventKind `json:"type"`
	Message *domain.Message  `json:"message"`
}

type messageDeletedPayload struct {
	Type      domain.EventKind `json:"type"`
	MessageID domain.MessageID `json:"messageId"`
	RoomID    domain.RoomID    `json:"chatRoomId"`
}

type typingPayload struct {
	Type     domain.EventKind `json:"type"`
	RoomID   domain.RoomID    `json:"chatRoomId"`
	UserID   domain.UserID    `json:"userId"`
	Username string           `json:"username"`
}

type readPayload struct {
	Type   domain.EventKind `json:"type"`
	RoomID domain.RoomID    `json:"chatRoomId"`
	UserID domain.UserID    `json:"userId"`
}

type userOnlinePayload struct {
	Type     domain.EventKind `json:"type"`
	UserID   domain.UserID    `json:"userId"`
	Username string           `json:"username"`
}

type userOfflinePayload struct {
	Type     domain.EventKind `json:"type"`
	UserID   domain.UserID    `json:"userId"`
	LastSeen time.Time        `json:"lastSeen"`
}

type usersOnlinePayload struct {
	Type    domain.EventKind `json:"type"`
	UserIDs []domain.UserID  `json:"userIds"`
}

// notificationMessage is the lightweight projection delivered on private
// channels; absent participants get enough to render a toast, not the full
// message record.
type notificationMessage struct {
	ID        domain.MessageID `json:"id"`
	Content   string           `json:"content"`
	Sender    domain.UserID    `json:"sender"`
	CreatedAt time.Time        `json:"createdAt"`
}

type notificationPayload struct {
	Type    domain.EventKind    `json:"type"`
	RoomID  domain.RoomID       `json:"chatRoomId"`
	Message notificationMessage `json:"message"`
}

func encode(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}
