package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const MaxContentLen = 4096

var (
	ErrContentEmpty   = errors.New("content empty")
	ErrContentTooLong = errors.New("content too long")
)

type MessageID string

type Message struct {
	ID        MessageID  `json:"id"`
	RoomID    RoomID     `json:"chatRoomId"`
	SenderID  UserID     `json:"senderId"`
	Content   string     `json:"content"`
	ReplyTo   *MessageID `json:"replyTo,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
	Deleted   bool       `json:"deleted"`
}

func NewMessage(roomID RoomID, senderID UserID, content string, replyTo *MessageID) (*Message, error) {
	if len(content) == 0 {
		return nil, ErrContentEmpty
	}
	if len(content) > MaxContentLen {
		return nil, ErrContentTooLong
	}
	return &Message{
		ID:        MessageID(uuid.NewString()),
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		ReplyTo:   replyTo,
		CreatedAt: time.Now().UTC(),
	}, nil
}
