package core

import (
	"time"

	"github.com/mbellot/parley/internal/domain"
)

// Frame is a marshaled wire payload ready for delivery.
type Frame []byte

type ConnID string

// ClientConnection abstracts a live transport endpoint (WebSocket).
// Owned by the adapter; the adapter must Close() it.
type ClientConnection interface {
	ID() ConnID
	UserID() domain.UserID
	TrySend(Frame) error
	Close()
}

// UserStore is the user collaborator. Lookups are read-only for the core;
// SetStatus is the presence persistence hook.
type UserStore interface {
	Create(u *domain.User) error
	GetByID(id domain.UserID) (*domain.User, error)
	GetByUsername(username string) (*domain.User, error)
	List() ([]*domain.User, error)
	SetStatus(id domain.UserID, status domain.Status, lastSeen time.Time) error
}

// RoomStore is the room membership oracle. The core only reads it to compute
// fanout targets, plus the single MarkRead mutation for read receipts.
type RoomStore interface {
	Create(r *domain.Room, creator domain.UserID) error
	GetByID(id domain.RoomID) (*domain.Room, error)
	List() ([]*domain.Room, error)
	AddParticipant(roomID domain.RoomID, userID domain.UserID, role domain.Role) error
	RemoveParticipant(roomID domain.RoomID, userID domain.UserID) error
	Participants(roomID domain.RoomID) ([]domain.Participant, error)
	MarkRead(roomID domain.RoomID, userID domain.UserID) error
}

// MessageStore persists the chat history. The fanout layer never reads
// history; it only needs Create/Update/MarkDeleted plus GetByID for
// ownership checks.
type MessageStore interface {
	Create(m *domain.Message) error
	GetByID(id domain.MessageID) (*domain.Message, error)
	Update(m *domain.Message) error
	MarkDeleted(id domain.MessageID) error
	ListByRoom(roomID domain.RoomID, cursor *string, limit int) ([]*domain.Message, *string, error)
}
