package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jstittsworth/team-builder/internal/game"
)

// ErrNotFound is returned when a session has no stored state
var ErrNotFound = errors.New("session not found")

// State is what a session accumulates between requests: the substitution
// decisions applied on every resolution pass until cleared or expired.
type State struct {
	Decisions []game.Decision `json:"decisions"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Touch stamps the state with the current time
func (s *State) Touch() {
	s.UpdatedAt = time.Now()
}

// UpsertDecision replaces an existing decision for the same (player, game)
// pair or appends a new one. A global decision and a single-game decision
// for the same player coexist; the resolver gives the single-game one
// precedence.
func (s *State) UpsertDecision(d game.Decision) {
	for i, existing := range s.Decisions {
		if existing.Player == d.Player && existing.GameKey == d.GameKey {
			s.Decisions[i] = d
			return
		}
	}
	s.Decisions = append(s.Decisions, d)
}

// Store keeps per-session state. Implementations must be safe for
// concurrent use; sessions never see each other's state.
type Store interface {
	Get(ctx context.Context, sessionID string) (*State, error)
	Put(ctx context.Context, sessionID string, state *State) error
	Delete(ctx context.Context, sessionID string) error
}

type memoryEntry struct {
	state   *State
	expires time.Time
}

// MemoryStore is the default single-process store: a mutex-guarded map
// with per-entry TTL. Expired entries are dropped on read and swept on
// write, so no background goroutine is needed.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	ttl     time.Duration
}

// NewMemoryStore creates an in-memory store whose entries expire after ttl
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
	}
}

// Get returns the session's state or ErrNotFound
func (m *MemoryStore) Get(_ context.Context, sessionID string) (*State, error) {
	m.mu.RLock()
	entry, ok := m.entries[sessionID]
	m.mu.RUnlock()

	if !ok || time.Now().After(entry.expires) {
		return nil, ErrNotFound
	}
	return entry.state, nil
}

// Put stores the session's state and refreshes its TTL
func (m *MemoryStore) Put(_ context.Context, sessionID string, state *State) error {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, entry := range m.entries {
		if now.After(entry.expires) {
			delete(m.entries, id)
		}
	}
	m.entries[sessionID] = &memoryEntry{
		state:   state,
		expires: now.Add(m.ttl),
	}
	return nil
}

// Delete removes the session's state; deleting an absent session is a no-op
func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}

// Len reports the number of live sessions, for diagnostics
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
