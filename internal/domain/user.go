// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	MaxUsernameLen = 36
	MaxEmailLen    = 254
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
	ErrEmailEmpty      = errors.New("email empty")
	ErrEmailTooLong    = errors.New("email too long")
)

type UserID string

type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

type User struct {
	ID           UserID    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Status       Status    `json:"status"`
	LastSeen     time.Time `json:"lastSeen"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(username, email, passwordHash string) (*User, error) {
	if len(username) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	if len(email) == 0 {
		return nil, ErrEmailEmpty
	}
	if len(email) > MaxEmailLen {
		return nil, ErrEmailTooLong
	}
	return &User{
		ID:           UserID(uuid.NewString()),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       StatusOffline,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
