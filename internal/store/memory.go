// internal/store/memory.go
//
// In-memory registry of game tables.
//
// Characteristics:
//   - Stores *game.Table objects keyed by Table.ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Tables are lost when the process restarts; only finished-game stats are
//     persisted (see internal/storage/sqlite).

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/pheasant/internal/game"
)

// ErrNotFound is returned by Get for unknown table ids.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for game tables.
type Store interface {
	// Save adds or replaces a table.
	Save(ctx context.Context, t *game.Table) error

	// Get retrieves a table by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Table, error)

	// Delete removes a table. Unknown ids are ignored.
	Delete(ctx context.Context, id string) error

	// Len reports how many tables are held.
	Len() int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu     sync.RWMutex           // guards tables map
	tables map[string]*game.Table // keyed by Table.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{tables: make(map[string]*game.Table)}
}

func (m *memory) Save(ctx context.Context, t *game.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.ID] = t
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tables[id]; ok {
		return t, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, id)
	return nil
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables)
}
