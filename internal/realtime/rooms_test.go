package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinPreservesInsertionOrder(t *testing.T) {
	reg := NewRegistry()

	members, changed := reg.Join("note-1", "anele")
	require.True(t, changed)
	require.Equal(t, []string{"anele"}, members)

	members, changed = reg.Join("note-1", "buhle")
	require.True(t, changed)
	require.Equal(t, []string{"anele", "buhle"}, members)

	members, changed = reg.Join("note-1", "cebo")
	require.True(t, changed)
	require.Equal(t, []string{"anele", "buhle", "cebo"}, members)
}

func TestJoinIsIdempotentForMembership(t *testing.T) {
	reg := NewRegistry()

	reg.Join("note-1", "anele")
	members, changed := reg.Join("note-1", "anele")

	require.False(t, changed)
	require.Equal(t, []string{"anele"}, members)
	require.Equal(t, 1, reg.Len())
}

func TestLeaveIsIdempotent(t *testing.T) {
	reg := NewRegistry()

	reg.Join("note-1", "anele")
	reg.Join("note-1", "buhle")

	members, changed := reg.Leave("note-1", "anele")
	require.True(t, changed)
	require.Equal(t, []string{"buhle"}, members)

	members, changed = reg.Leave("note-1", "anele")
	require.False(t, changed)
	require.Equal(t, []string{"buhle"}, members)

	// Leaving a room that does not exist is a no-op.
	members, changed = reg.Leave("note-404", "anele")
	require.False(t, changed)
	require.Empty(t, members)
}

func TestLastLeaveDropsTheRoom(t *testing.T) {
	reg := NewRegistry()

	reg.Join("note-1", "anele")
	require.Equal(t, 1, reg.Len())

	members, changed := reg.Leave("note-1", "anele")
	require.True(t, changed)
	require.Empty(t, members)
	require.Zero(t, reg.Len())
	require.Empty(t, reg.Members("note-1"))
}

func TestPresenceMatchesJoinLeaveHistory(t *testing.T) {
	reg := NewRegistry()

	// Arbitrary interleaving: the presence set must equal the handles with
	// more joins than matching leaves.
	reg.Join("note-1", "anele")
	reg.Join("note-1", "buhle")
	reg.Join("note-1", "anele") // duplicate
	reg.Leave("note-1", "buhle")
	reg.Join("note-1", "cebo")
	reg.Leave("note-1", "buhle") // already gone

	require.Equal(t, []string{"anele", "cebo"}, reg.Members("note-1"))
}

func TestSnapshotCountsRooms(t *testing.T) {
	reg := NewRegistry()

	reg.Join("note-1", "anele")
	reg.Join("note-1", "buhle")
	reg.Join("note-2", "cebo")

	snap := reg.Snapshot()
	require.Equal(t, map[string]int{"note-1": 2, "note-2": 1}, snap)
}
