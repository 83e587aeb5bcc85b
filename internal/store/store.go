// internal/store/store.go
//
// Key-value persistence gateway for per-player, per-day game state.
// This is the durable-storage abstraction the session layer writes
// through; keys are namespaced strings, values raw JSON text.
//
// Characteristics:
//   - Get reports presence explicitly; a missing key is not an error.
//   - Keys lists every stored key under a prefix, used by the stats
//     aggregator to scan finalized daily records.
//   - The in-memory implementation here is concurrency-safe via RWMutex
//     and is used for tests and ephemeral runs; sqlite.go provides the
//     durable implementation.

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Gateway defines the persistence interface for namespaced records.
// Implementations may be backed by memory (this file) or SQLite.
type Gateway interface {
	// Get retrieves the raw text stored under key.
	// ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores raw text under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys returns all stored keys beginning with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// memory is an in-memory map-based Gateway implementation.
type memory struct {
	mu   sync.RWMutex      // guards data map
	data map[string]string // keyed by full namespaced key
}

// NewMemory constructs a new in-memory Gateway.
func NewMemory() Gateway {
	return &memory{data: make(map[string]string)}
}

func (m *memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memory) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}
