package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/mbellot/parley/internal/core"
	"github.com/mbellot/parley/internal/domain"
)

type diskMessage struct {
	ID        string     `json:"id"`
	RoomID    string     `json:"chatRoomId"`
	SenderID  string     `json:"senderId"`
	Content   string     `json:"content"`
	ReplyTo   *string    `json:"replyTo,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
	Deleted   bool       `json:"deleted"`
}

func fromMessage(m *domain.Message) diskMessage {
	d := diskMessage{
		ID:        string(m.ID),
		RoomID:    string(m.RoomID),
		SenderID:  string(m.SenderID),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		EditedAt:  m.EditedAt,
		Deleted:   m.Deleted,
	}
	if m.ReplyTo != nil {
		d.ReplyTo = lo.ToPtr(string(*m.ReplyTo))
	}
	return d
}

func toMessage(d diskMessage) *domain.Message {
	m := &domain.Message{
		ID:        domain.MessageID(d.ID),
		RoomID:    domain.RoomID(d.RoomID),
		SenderID:  domain.UserID(d.SenderID),
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
		EditedAt:  d.EditedAt,
		Deleted:   d.Deleted,
	}
	if d.ReplyTo != nil {
		m.ReplyTo = lo.ToPtr(domain.MessageID(*d.ReplyTo))
	}
	return m
}

type MessageStore struct {
	db    *badger.DB
	limit int
}

// NewMessageStore returns a badger message store. limit caps a history page;
// ListByRoom never returns more than that many messages per call.
func NewMessageStore(db *badger.DB, limit int) *MessageStore {
	return &MessageStore{db: db, limit: limit}
}

// msgKey orders history keys chronologically per room: the timestamp is zero
// padded to 19 digits so lexicographic order matches time order, and the
// uuid disambiguates two messages landing on the same nanosecond.
func msgKey(roomID domain.RoomID, at time.Time, id domain.MessageID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", roomID, at.UnixNano(), id))
}

func msgIndexKey(id domain.MessageID) []byte { return []byte("msgidx:" + id) }

// Create persists the message under its time-ordered key plus an id index
// entry for direct lookups (edit/delete arrive with only a message id).
func (s *MessageStore) Create(m *domain.Message) error {
	data, err := json.Marshal(fromMessage(m))
	if err != nil {
		return err
	}
	key := msgKey(m.RoomID, m.CreatedAt, m.ID)
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(msgIndexKey(m.ID), key)
	})
}

func (s *MessageStore) GetByID(id domain.MessageID) (*domain.Message, error) {
	var d diskMessage
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(msgIndexKey(id))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &d)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, core.NotFound("message %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return toMessage(d), nil
}

// Update rewrites the message value in place. The key is derived from room,
// creation time and id, none of which change on edit.
func (s *MessageStore) Update(m *domain.Message) error {
	data, err := json.Marshal(fromMessage(m))
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(msgKey(m.RoomID, m.CreatedAt, m.ID), data)
	})
}

// MarkDeleted tombstones the message; the row stays for history pagination.
func (s *MessageStore) MarkDeleted(id domain.MessageID) error {
	m, err := s.GetByID(id)
	if err != nil {
		return err
	}
	m.Deleted = true
	m.Content = ""
	return s.Update(m)
}

// ListByRoom pages the room history newest-first. The cursor is the key
// suffix of the last message of the previous page; nil starts from the
// newest message. Returns the next cursor, or nil when the page was short.
func (s *MessageStore) ListByRoom(roomID domain.RoomID, cursor *string, limit int) ([]*domain.Message, *string, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	var disk []diskMessage
	var lastKey string
	err := s.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", roomID)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// seek past the newest possible timestamp, then walk backwards
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(disk) == limit {
				return nil
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			var d diskMessage
			err := item.Value(func(val []byte) error {
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
		return nil, nil, err
	}

	messages := lo.Map(disk, func(d diskMessage, _ int) *domain.Message { return toMessage(d) })
	if len(messages) < limit {
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}
