// internal/store/memory.go
//
// In-memory implementation of Store.
// Used by default and in tests; state is lost when the process restarts.
//
// Characteristics:
//   - Games are held by value, so callers only ever see copies.
//   - A single mutex makes Update a plain read-modify-write.
//   - Games idle for longer than the TTL are dropped lazily on access.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/robalobadob/hangman/internal/game"
)

type entry struct {
	g       game.Game
	touched time.Time
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu     sync.Mutex
	games  map[string]*entry // keyed by Game.ID
	owners map[int64]string  // user id -> game id
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryStore constructs an in-memory Store. ttl <= 0 keeps games forever.
func NewMemoryStore(ttl time.Duration) Store {
	return &memory{
		games:  make(map[string]*entry),
		owners: make(map[int64]string),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *memory) Create(_ context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.owners[g.UserID]; ok {
		delete(m.games, prev)
	}
	m.games[g.ID] = &entry{g: *g, touched: m.now()}
	m.owners[g.UserID] = g.ID
	return nil
}

func (m *memory) Get(_ context.Context, id string) (*game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	cp := e.g
	return &cp, nil
}

func (m *memory) Update(_ context.Context, id string, fn func(*game.Game) error) (*game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	cp := e.g
	if err := fn(&cp); err != nil {
		return nil, err
	}
	e.g = cp
	e.touched = m.now()
	return &cp, nil
}

func (m *memory) Active(_ context.Context, userID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.owners[userID]
	if !ok {
		return "", ErrNotFound
	}
	if _, ok := m.lookup(id); !ok {
		return "", ErrNotFound
	}
	return id, nil
}

func (m *memory) Discard(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.owners[userID]; ok {
		delete(m.games, id)
		delete(m.owners, userID)
	}
	return nil
}

// lookup must be called with mu held.
func (m *memory) lookup(id string) (*entry, bool) {
	e, ok := m.games[id]
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && m.now().Sub(e.touched) > m.ttl {
		delete(m.games, id)
		if m.owners[e.g.UserID] == id {
			delete(m.owners, e.g.UserID)
		}
		return nil, false
	}
	return e, true
}
