package ws

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newBareClient() *Client {
	return &Client{
		id:     "test",
		send:   make(chan []byte, 8),
		logger: zerolog.Nop(),
	}
}

func TestJoinAndSubscribers(t *testing.T) {
	r := NewRegistry()
	a, b := newBareClient(), newBareClient()

	r.Join(a, "Oslo")
	r.Join(b, "Oslo")

	subs := r.Subscribers("Oslo")
	require.Len(t, subs, 2)
	require.ElementsMatch(t, []*Client{a, b}, subs)

	room, ok := r.Room(a)
	require.True(t, ok)
	require.Equal(t, "Oslo", room)
}

func TestJoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	a := newBareClient()

	r.Join(a, "Oslo")
	r.Join(a, "Oslo")
	require.Len(t, r.Subscribers("Oslo"), 1)
}

func TestJoinSwitchesRooms(t *testing.T) {
	r := NewRegistry()
	a := newBareClient()

	r.Join(a, "Oslo")
	r.Join(a, "Bergen")

	// Single-room policy: the old membership is gone.
	require.Empty(t, r.Subscribers("Oslo"))
	require.Len(t, r.Subscribers("Bergen"), 1)

	room, ok := r.Room(a)
	require.True(t, ok)
	require.Equal(t, "Bergen", room)
}

func TestLeaveWithoutSubscriptionIsNoop(t *testing.T) {
	r := NewRegistry()
	a := newBareClient()

	r.Leave(a)
	r.Join(a, "Oslo")
	r.Leave(a)
	r.Leave(a)

	require.Empty(t, r.Subscribers("Oslo"))
	_, ok := r.Room(a)
	require.False(t, ok)
}

func TestEmptyRoomEvictionIsInvisible(t *testing.T) {
	r := NewRegistry()
	a := newBareClient()

	r.Join(a, "Oslo")
	r.Leave(a)
	require.Empty(t, r.rooms, "empty room should be evicted")

	// Rejoining an evicted room behaves exactly like a fresh one.
	r.Join(a, "Oslo")
	require.Len(t, r.Subscribers("Oslo"), 1)
}

func TestSubscribersIsASnapshot(t *testing.T) {
	r := NewRegistry()
	a, b := newBareClient(), newBareClient()
	r.Join(a, "Oslo")
	r.Join(b, "Oslo")

	snapshot := r.Subscribers("Oslo")
	r.Leave(a)
	require.Len(t, snapshot, 2, "snapshot must not track later mutations")
	require.Len(t, r.Subscribers("Oslo"), 1)
}
