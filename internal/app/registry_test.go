package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mbellot/parley/internal/core"
	"github.com/mbellot/parley/internal/domain"
)

func Test_Registry_Online_Edge_Fires_On_First_And_Last_Connection(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	uid := domain.UserID("alice")

	c1 := newFakeConn("c1", uid)
	c2 := newFakeConn("c2", uid)
	c3 := newFakeConn("c3", uid)

	req.True(reg.Register(c1), "first connection must report became-online")
	req.False(reg.Register(c2))
	req.False(reg.Register(c3))
	req.True(reg.IsOnline(uid))
	req.Len(reg.ConnectionsFor(uid), 3)

	off, _ := reg.Unregister("c1")
	req.False(off)
	off, _ = reg.Unregister("c2")
	req.False(off)
	req.True(reg.IsOnline(uid), "user with one live connection left is still online")

	off, lastSeen := reg.Unregister("c3")
	req.True(off, "last connection must report became-offline")
	req.False(lastSeen.IsZero())
	req.False(reg.IsOnline(uid))
	req.Empty(reg.ConnectionsFor(uid))
}

func Test_Registry_Double_Unregister_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	uid := domain.UserID("alice")

	reg.Register(newFakeConn("c1", uid))
	off, _ := reg.Unregister("c1")
	req.True(off)

	off, _ = reg.Unregister("c1")
	req.False(off, "second unregister must not re-fire the offline edge")

	off, _ = reg.Unregister("never-registered")
	req.False(off)
}

func Test_Registry_Unregister_Detaches_Owner_Only(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	reg.Register(newFakeConn("a1", "alice"))
	reg.Register(newFakeConn("b1", "bob"))

	off, _ := reg.Unregister("b1")
	req.True(off, "bob's last connection must report became-offline")
	req.False(reg.IsOnline("bob"))
	req.Empty(reg.ConnectionsFor("bob"))

	req.True(reg.IsOnline("alice"))
	req.Len(reg.ConnectionsFor("alice"), 1)
	_, ok := reg.Conn("a1")
	req.True(ok)
}

func Test_Registry_Duplicate_Register_Ignored(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	uid := domain.UserID("alice")

	req.True(reg.Register(newFakeConn("c1", uid)))
	req.False(reg.Register(newFakeConn("c1", uid)))
	req.Len(reg.ConnectionsFor(uid), 1)
}

func Test_Registry_OnlineUserIDs_Lists_MultiDevice_User_Once(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	reg.Register(newFakeConn("a1", "alice"))
	reg.Register(newFakeConn("a2", "alice"))
	reg.Register(newFakeConn("b1", "bob"))

	online := reg.OnlineUserIDs()
	req.Len(online, 2)
	req.ElementsMatch([]domain.UserID{"alice", "bob"}, online)
}

func Test_Registry_ConnectionsFor_Offline_User_Is_Empty_Not_Nil(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	conns := reg.ConnectionsFor("ghost")
	req.NotNil(conns)
	req.Empty(conns)
}

func Test_Registry_Conn_Lookup(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	c := newFakeConn("c1", "alice")
	reg.Register(c)

	got, ok := reg.Conn("c1")
	req.True(ok)
	req.Equal(core.ConnID("c1"), got.ID())

	_, ok = reg.Conn("c2")
	req.False(ok)
}
