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

// diskRoom bundles the room record with its participant set. Membership is
// small per room, so a single document keeps the participant mutations
// transactional without a secondary index.
type diskRoom struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	CreatedBy    string            `json:"createdBy"`
	CreatedAt    time.Time         `json:"createdAt"`
	Participants []diskParticipant `json:"participants"`
}

type diskParticipant struct {
	UserID     string    `json:"userId"`
	Role       string    `json:"role"`
	LastReadAt time.Time `json:"lastReadAt"`
}

func toParticipant(d diskParticipant) domain.Participant {
	return domain.Participant{
		UserID:     domain.UserID(d.UserID),
		Role:       domain.Role(d.Role),
		LastReadAt: d.LastReadAt,
	}
}

// RoomStore is the room membership oracle, backed by badger.
type RoomStore struct {
	db *badger.DB
}

func NewRoomStore(db *badger.DB) *RoomStore {
	return &RoomStore{db: db}
}

func roomKey(id domain.RoomID) []byte { return []byte("room:" + id) }

// Create persists the room with its creator as the initial admin
// participant.
func (s *RoomStore) Create(r *domain.Room, creator domain.UserID) error {
	d := diskRoom{
		ID:        string(r.ID),
		Name:      r.Name,
		CreatedBy: string(r.CreatedBy),
		CreatedAt: r.CreatedAt,
		Participants: []diskParticipant{
			{UserID: string(creator), Role: string(domain.RoleAdmin)},
		},
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(r.ID), data)
	})
}

func (s *RoomStore) GetByID(id domain.RoomID) (*domain.Room, error) {
	d, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return &domain.Room{
		ID:        domain.RoomID(d.ID),
		Name:      d.Name,
		CreatedBy: domain.UserID(d.CreatedBy),
		CreatedAt: d.CreatedAt,
	}, nil
}

func (s *RoomStore) List() ([]*domain.Room, error) {
	var out []*domain.Room
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("room:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var d diskRoom
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &d)
			})
			if err != nil {
				return err
			}
			out = append(out, &domain.Room{
				ID:        domain.RoomID(d.ID),
				Name:      d.Name,
				CreatedBy: domain.UserID(d.CreatedBy),
				CreatedAt: d.CreatedAt,
			})
		}
		return nil
	})
	return out, err
}

// AddParticipant is idempotent; re-adding an existing participant only
// updates the role.
func (s *RoomStore) AddParticipant(roomID domain.RoomID, userID domain.UserID, role domain.Role) error {
	return s.update(roomID, func(d *diskRoom) error {
		for i := range d.Participants {
			if d.Participants[i].UserID == string(userID) {
				d.Participants[i].Role = string(role)
				return nil
			}
		}
		d.Participants = append(d.Participants, diskParticipant{UserID: string(userID), Role: string(role)})
		return nil
	})
}

func (s *RoomStore) RemoveParticipant(roomID domain.RoomID, userID domain.UserID) error {
	return s.update(roomID, func(d *diskRoom) error {
		d.Participants = lo.Reject(d.Participants, func(p diskParticipant, _ int) bool {
			return p.UserID == string(userID)
		})
		return nil
	})
}

// Participants returns the persisted membership of the room, NotFound if the
// room is absent. Order is not meaningful.
func (s *RoomStore) Participants(roomID domain.RoomID) ([]domain.Participant, error) {
	d, err := s.get(roomID)
	if err != nil {
		return nil, err
	}
	return lo.Map(d.Participants, func(p diskParticipant, _ int) domain.Participant {
		return toParticipant(p)
	}), nil
}

// MarkRead moves the participant's read cursor to now.
func (s *RoomStore) MarkRead(roomID domain.RoomID, userID domain.UserID) error {
	return s.update(roomID, func(d *diskRoom) error {
		for i := range d.Participants {
			if d.Participants[i].UserID == string(userID) {
				d.Participants[i].LastReadAt = time.Now().UTC()
				return nil
			}
		}
		return core.NotFound("user %s is not a participant of room %s", userID, roomID)
	})
}

func (s *RoomStore) get(id domain.RoomID) (*diskRoom, error) {
	var d diskRoom
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &d)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, core.NotFound("room %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *RoomStore) update(id domain.RoomID, mutate func(*diskRoom) error) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(id))
		if err != nil {
			return err
		}
		var d diskRoom
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &d) }); err != nil {
			return err
		}
		if err := mutate(&d); err != nil {
			return err
		}
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}
		return txn.Set(roomKey(id), data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return core.NotFound("room %s not found", id)
	}
	return err
}
