package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/mbellot/parley/internal/core"
	"github.com/mbellot/parley/internal/domain"
)

// diskUser is the at-rest representation. Unlike domain.User it serializes
// the password hash.
type diskUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Status       string    `json:"status"`
	LastSeen     time.Time `json:"lastSeen"`
	CreatedAt    time.Time `json:"createdAt"`
}

func fromUser(u *domain.User) diskUser {
	return diskUser{
		ID:           string(u.ID),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Status:       string(u.Status),
		LastSeen:     u.LastSeen,
		CreatedAt:    u.CreatedAt,
	}
}

func toUser(d diskUser) *domain.User {
	return &domain.User{
		ID:           domain.UserID(d.ID),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Status:       domain.Status(d.Status),
		LastSeen:     d.LastSeen,
		CreatedAt:    d.CreatedAt,
	}
}

type UserStore struct {
	db *badger.DB
}

func NewUserStore(db *badger.DB) *UserStore {
	return &UserStore{db: db}
}

func userKey(id domain.UserID) []byte { return []byte("user:" + id) }
func usernameKey(name string) []byte  { return []byte("username:" + name) }

// Create persists the user and a username index entry. A taken username is
// an InvalidState failure, surfaced to the registration endpoint as a
// conflict.
func (s *UserStore) Create(u *domain.User) error {
	data, err := json.Marshal(fromUser(u))
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(usernameKey(u.Username)); err == nil {
			return core.InvalidState("username %s already taken", u.Username)
		}
		if err := txn.Set(userKey(u.ID), data); err != nil {
			return err
		}
		return txn.Set(usernameKey(u.Username), []byte(u.ID))
	})
}

func (s *UserStore) GetByID(id domain.UserID) (*domain.User, error) {
	var d diskUser
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &d)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, core.NotFound("user %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return toUser(d), nil
}

func (s *UserStore) GetByUsername(username string) (*domain.User, error) {
	var id []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if err != nil {
			return err
		}
		id, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, core.NotFound("user %s not found", username)
	}
	if err != nil {
		return nil, err
	}
	return s.GetByID(domain.UserID(id))
}

func (s *UserStore) List() ([]*domain.User, error) {
	var disk []diskUser
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("user:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var d diskUser
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &d)
			})
			if err != nil {
				return err
			}
			disk = append(disk, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(disk, func(d diskUser, _ int) *domain.User { return toUser(d) }), nil
}

// SetStatus updates the presence fields in place. A zero lastSeen leaves the
// stored value untouched (going online does not reset last-seen).
func (s *UserStore) SetStatus(id domain.UserID, status domain.Status, lastSeen time.Time) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		var d diskUser
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &d) }); err != nil {
			return err
		}
		d.Status = string(status)
		if !lastSeen.IsZero() {
			d.LastSeen = lastSeen
		}
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return core.NotFound("user %s not found", id)
	}
	return err
}
