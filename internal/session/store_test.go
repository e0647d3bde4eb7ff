package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/team-builder/internal/game"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	state := &State{
		Decisions: []game.Decision{{Player: "Eve", Substitute: "Free"}},
		UpdatedAt: time.Now(),
	}
	require.NoError(t, store.Put(ctx, "a", state))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got.Decisions, 1)
	assert.Equal(t, "Eve", got.Decisions[0].Player)

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreIsolatesSessions(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", &State{
		Decisions: []game.Decision{{Player: "Eve", Ignore: true}},
	}))
	require.NoError(t, store.Put(ctx, "b", &State{
		Decisions: []game.Decision{{Player: "Mallory", Substitute: "Free"}},
	}))

	a, err := store.Get(ctx, "a")
	require.NoError(t, err)
	b, err := store.Get(ctx, "b")
	require.NoError(t, err)

	assert.Equal(t, "Eve", a.Decisions[0].Player)
	assert.Equal(t, "Mallory", b.Decisions[0].Player)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", &State{}))
	time.Sleep(25 * time.Millisecond)

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	// The sweep on the next write drops the expired entry
	require.NoError(t, store.Put(ctx, "b", &State{}))
	assert.Equal(t, 1, store.Len())
}

func TestUpsertDecision(t *testing.T) {
	state := &State{}

	state.UpsertDecision(game.Decision{Player: "Eve", Substitute: "Free"})
	state.UpsertDecision(game.Decision{Player: "Eve", GameKey: "bedwars", Substitute: "Other"})
	require.Len(t, state.Decisions, 2, "global and single-game decisions coexist")

	// Re-deciding the same scope replaces, not appends
	state.UpsertDecision(game.Decision{Player: "Eve", Ignore: true})
	require.Len(t, state.Decisions, 2)
	assert.True(t, state.Decisions[0].Ignore)
	assert.Empty(t, state.Decisions[0].Substitute)
}
