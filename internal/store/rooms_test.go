package store

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/mbellot/parley/internal/core"
	"github.com/mbellot/parley/internal/domain"
)

func Test_RoomStore_Create_Adds_Creator_As_Admin(t *testing.T) {
	req := require.New(t)
	s := NewRoomStore(testDB(t))

	r, err := domain.NewRoom("general", "alice")
	req.NoError(err)
	req.NoError(s.Create(r, "alice"))

	parts, err := s.Participants(r.ID)
	req.NoError(err)
	req.Len(parts, 1)
	req.Equal(domain.UserID("alice"), parts[0].UserID)
	req.Equal(domain.RoleAdmin, parts[0].Role)

	got, err := s.GetByID(r.ID)
	req.NoError(err)
	req.Equal("general", got.Name)
}

func Test_RoomStore_Participants_Missing_Room_NotFound(t *testing.T) {
	req := require.New(t)
	s := NewRoomStore(testDB(t))

	_, err := s.Participants("ghost")
	req.True(core.IsKind(err, core.KindNotFound))
	_, err = s.GetByID("ghost")
	req.True(core.IsKind(err, core.KindNotFound))
}

func Test_RoomStore_Add_Remove_Participant(t *testing.T) {
	req := require.New(t)
	s := NewRoomStore(testDB(t))

	r, _ := domain.NewRoom("general", "alice")
	req.NoError(s.Create(r, "alice"))

	req.NoError(s.AddParticipant(r.ID, "bob", domain.RoleMember))
	req.NoError(s.AddParticipant(r.ID, "bob", domain.RoleAdmin), "re-adding only updates the role")

	parts, err := s.Participants(r.ID)
	req.NoError(err)
	req.Len(parts, 2)
	bob, ok := lo.Find(parts, func(p domain.Participant) bool { return p.UserID == "bob" })
	req.True(ok)
	req.Equal(domain.RoleAdmin, bob.Role)

	req.NoError(s.RemoveParticipant(r.ID, "bob"))
	parts, err = s.Participants(r.ID)
	req.NoError(err)
	req.Len(parts, 1)
}

func Test_RoomStore_MarkRead(t *testing.T) {
	req := require.New(t)
	s := NewRoomStore(testDB(t))

	r, _ := domain.NewRoom("general", "alice")
	req.NoError(s.Create(r, "alice"))
	req.NoError(s.AddParticipant(r.ID, "bob", domain.RoleMember))

	req.NoError(s.MarkRead(r.ID, "bob"))

	parts, err := s.Participants(r.ID)
	req.NoError(err)
	bob, ok := lo.Find(parts, func(p domain.Participant) bool { return p.UserID == "bob" })
	req.True(ok)
	req.False(bob.LastReadAt.IsZero())

	err = s.MarkRead(r.ID, "stranger")
	req.True(core.IsKind(err, core.KindNotFound))
}

func Test_RoomStore_List(t *testing.T) {
	req := require.New(t)
	s := NewRoomStore(testDB(t))

	for _, name := range []string{"general", "random"} {
		r, _ := domain.NewRoom(name, "alice")
		req.NoError(s.Create(r, "alice"))
	}

	rooms, err := s.List()
	req.NoError(err)
	req.Len(rooms, 2)
}
