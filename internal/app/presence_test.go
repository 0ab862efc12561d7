package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mbellot/parley/internal/domain"
)

func presenceFixture() (*Presence, *Registry, *fakeUserStore) {
	users := newFakeUserStore(
		&domain.User{ID: "alice", Username: "alice"},
		&domain.User{ID: "bob", Username: "bob"},
	)
	reg := NewRegistry()
	return NewPresence(reg, users), reg, users
}

func Test_Presence_Two_Devices_One_Offline_Broadcast(t *testing.T) {
	req := require.New(t)
	p, reg, users := presenceFixture()

	observer := newFakeConn("obs", "bob")
	p.HandleConnect(observer)

	c1 := newFakeConn("a1", "alice")
	c2 := newFakeConn("a2", "alice")
	p.HandleConnect(c1)
	p.HandleConnect(c2)

	req.Equal(1, observer.received(domain.EvUserOnline), "multi-device connect must broadcast online once")

	p.HandleDisconnect("a1", "alice")
	req.True(reg.IsOnline("alice"))
	req.Equal(0, observer.received(domain.EvUserOffline))

	p.HandleDisconnect("a2", "alice")
	req.False(reg.IsOnline("alice"))
	req.Equal(1, observer.received(domain.EvUserOffline), "exactly one offline broadcast total")

	changes := users.statusChanges()
	req.Len(changes, 3) // bob online, alice online, alice offline
	last := changes[len(changes)-1]
	req.Equal(domain.UserID("alice"), last.uid)
	req.Equal(domain.StatusOffline, last.status)
	req.False(last.lastSeen.IsZero(), "offline persistence carries last-seen")
}

func Test_Presence_Snapshot_Sent_On_Connect(t *testing.T) {
	req := require.New(t)
	p, _, _ := presenceFixture()

	p.HandleConnect(newFakeConn("b1", "bob"))
	c := newFakeConn("a1", "alice")
	p.HandleConnect(c)

	req.Equal(1, c.received(domain.EvUsersOnline))
}

func Test_Presence_Broadcast_Skips_Subject_User(t *testing.T) {
	req := require.New(t)
	p, _, _ := presenceFixture()

	c1 := newFakeConn("a1", "alice")
	p.HandleConnect(c1)
	c2 := newFakeConn("a2", "alice")
	p.HandleConnect(c2)

	req.Equal(0, c1.received(domain.EvUserOnline), "a user's own tabs get no presence event about themselves")
}

func Test_Presence_Persistence_Failure_Does_Not_Stop_Session(t *testing.T) {
	req := require.New(t)
	p, reg, users := presenceFixture()
	users.failSet = true

	observer := newFakeConn("obs", "bob")
	p.HandleConnect(observer)

	p.HandleConnect(newFakeConn("a1", "alice"))
	req.True(reg.IsOnline("alice"))
	req.Equal(1, observer.received(domain.EvUserOnline), "broadcast still happens when persistence fails")
}

func Test_Presence_Double_Disconnect_No_Duplicate_Offline(t *testing.T) {
	req := require.New(t)
	p, _, _ := presenceFixture()

	observer := newFakeConn("obs", "bob")
	p.HandleConnect(observer)
	p.HandleConnect(newFakeConn("a1", "alice"))

	p.HandleDisconnect("a1", "alice")
	p.HandleDisconnect("a1", "alice")
	req.Equal(1, observer.received(domain.EvUserOffline))
}
