package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const MaxRoomNameLen = 64

var (
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
)

type RoomID string

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

type Room struct {
	ID        RoomID    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy UserID    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Participant is user's membership meta for a room.
// No transport or lifecycle logic here.
type Participant struct {
	UserID     UserID    `json:"userId"`
	Role       Role      `json:"role"`
	LastReadAt time.Time `json:"lastReadAt"`
}

func NewRoom(name string, createdBy UserID) (*Room, error) {
	if len(name) == 0 {
		return nil, ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		return nil, ErrRoomNameTooLong
	}
	return &Room{
		ID:        RoomID(uuid.NewString()),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}, nil
}
