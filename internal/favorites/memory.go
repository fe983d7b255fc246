package favorites

import (
	"context"
	"sync"
)

// Memory is an in-process Store with no persistence, used when the
// dashboard runs without a configured database and as a test double.
type Memory struct {
	mu  sync.Mutex
	ids []string
}

// NewMemory creates a Memory store seeded with the given ids.
func NewMemory(ids ...string) *Memory {
	m := &Memory{}
	m.ids = append(m.ids, ids...)
	return m
}

// Load implements Store.
func (m *Memory) Load(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.ids))
	copy(out, m.ids)
	return out, nil
}

// Replace implements Store.
func (m *Memory) Replace(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = make([]string, len(ids))
	copy(m.ids, ids)
	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}
