package app

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/mbellot/parley/internal/core"
	"github.com/mbellot/parley/internal/domain"
)

// fakeConn records every frame it is handed.
type fakeConn struct {
	id  core.ConnID
	uid domain.UserID

	mu     sync.Mutex
	frames []core.Frame
}

func newFakeConn(id core.ConnID, uid domain.UserID) *fakeConn {
	return &fakeConn{id: id, uid: uid}
}

func (f *fakeConn) ID() core.ConnID       { return f.id }
func (f *fakeConn) UserID() domain.UserID { return f.uid }
func (f *fakeConn) Close()                {}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

// received counts frames of the given kind.
func (f *fakeConn) received(kind domain.EventKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, fr := range f.frames {
		var env struct {
			Type domain.EventKind `json:"type"`
		}
		if json.Unmarshal(fr, &env) == nil && env.Type == kind {
			n++
		}
	}
	return n
}

type statusChange struct {
	uid      domain.UserID
	status   domain.Status
	lastSeen time.Time
}

type fakeUserStore struct {
	mu       sync.Mutex
	users    map[domain.UserID]*domain.User
	statuses []statusChange
	failSet  bool
}

func newFakeUserStore(users ...*domain.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[domain.UserID]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) GetByID(id domain.UserID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, core.NotFound("user %s not found", id)
}

func (s *fakeUserStore) GetByUsername(username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, core.NotFound("user %s not found", username)
}

func (s *fakeUserStore) List() ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *fakeUserStore) SetStatus(id domain.UserID, status domain.Status, lastSeen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return core.Transient("store down", nil)
	}
	s.statuses = append(s.statuses, statusChange{uid: id, status: status, lastSeen: lastSeen})
	return nil
}

func (s *fakeUserStore) statusChanges() []statusChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]statusChange, len(s.statuses))
	copy(out, s.statuses)
	return out
}

type fakeRoomStore struct {
	mu           sync.Mutex
	participants map[domain.RoomID][]domain.Participant
	reads        []string
	// failAfter fails Participants lookups once the call count exceeds it;
	// <0 never fails
	failAfter int
	calls     int
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{
		participants: make(map[domain.RoomID][]domain.Participant),
		failAfter:    -1,
	}
}

func (s *fakeRoomStore) Create(r *domain.Room, creator domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[r.ID] = []domain.Participant{{UserID: creator, Role: domain.RoleAdmin}}
	return nil
}

func (s *fakeRoomStore) GetByID(id domain.RoomID) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[id]; ok {
		return &domain.Room{ID: id}, nil
	}
	return nil, core.NotFound("room %s not found", id)
}

func (s *fakeRoomStore) List() ([]*domain.Room, error) { return nil, nil }

func (s *fakeRoomStore) AddParticipant(roomID domain.RoomID, userID domain.UserID, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[roomID] = append(s.participants[roomID], domain.Participant{UserID: userID, Role: role})
	return nil
}

func (s *fakeRoomStore) RemoveParticipant(roomID domain.RoomID, userID domain.UserID) error {
	return nil
}

func (s *fakeRoomStore) Participants(roomID domain.RoomID) ([]domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failAfter >= 0 && s.calls > s.failAfter {
		return nil, core.NotFound("room %s not found", roomID)
	}
	parts, ok := s.participants[roomID]
	if !ok {
		return nil, core.NotFound("room %s not found", roomID)
	}
	return parts, nil
}

func (s *fakeRoomStore) MarkRead(roomID domain.RoomID, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, string(roomID)+"/"+string(userID))
	return nil
}

type fakeMessageStore struct {
	mu       sync.Mutex
	messages map[domain.MessageID]*domain.Message
	updates  int
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: make(map[domain.MessageID]*domain.Message)}
}

func (s *fakeMessageStore) Create(m *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *fakeMessageStore) GetByID(id domain.MessageID) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.messages[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, core.NotFound("message %s not found", id)
}

func (s *fakeMessageStore) Update(m *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages[m.ID] = &cp
	s.updates++
	return nil
}

func (s *fakeMessageStore) MarkDeleted(id domain.MessageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return core.NotFound("message %s not found", id)
	}
	m.Deleted = true
	m.Content = ""
	return nil
}

func (s *fakeMessageStore) ListByRoom(roomID domain.RoomID, cursor *string, limit int) ([]*domain.Message, *string, error) {
	return nil, nil, nil
}
