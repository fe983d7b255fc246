package favorites

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails Replace on demand while recording the last written set.
type flakyStore struct {
	mu       sync.Mutex
	ids      []string
	fail     bool
	replaces int
}

func (s *flakyStore) Load(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out, nil
}

func (s *flakyStore) Replace(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaces++
	if s.fail {
		return eris.New("disk full")
	}
	s.ids = make([]string, len(ids))
	copy(s.ids, ids)
	return nil
}

func (s *flakyStore) Close() error { return nil }

func TestTrackerLoadsOnce(t *testing.T) {
	ctx := context.Background()
	tr, err := NewTracker(ctx, NewMemory("s1", "s2"))
	require.NoError(t, err)

	assert.True(t, tr.IsFavorite("s1"))
	assert.True(t, tr.IsFavorite("s2"))
	assert.False(t, tr.IsFavorite("s3"))
	assert.Equal(t, 2, tr.Count())
}

func TestTrackerTogglePersistsWholeSet(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{ids: []string{"s1"}}
	tr, err := NewTracker(ctx, store)
	require.NoError(t, err)

	on, err := tr.Toggle(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"s1", "s2"}, store.ids)

	off, err := tr.Toggle(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, off)
	assert.Equal(t, []string{"s2"}, store.ids)
	assert.Equal(t, 2, store.replaces)
}

func TestTogglePersistFailureReverts(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{ids: []string{"s1"}}
	tr, err := NewTracker(ctx, store)
	require.NoError(t, err)

	store.fail = true
	on, err := tr.Toggle(ctx, "s2")
	require.Error(t, err)
	assert.False(t, on, "failed toggle reports the reverted state")
	assert.False(t, tr.IsFavorite("s2"), "memory reverts when the store rejects the write")
	assert.True(t, tr.IsFavorite("s1"))

	// The next toggle after recovery carries the correct set.
	store.fail = false
	on, err = tr.Toggle(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"s1", "s2"}, store.ids)
}

func TestTrackerAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	tr, err := NewTracker(ctx, NewMemory("s1"))
	require.NoError(t, err)

	all := tr.All()
	all["s9"] = true
	assert.False(t, tr.IsFavorite("s9"), "mutating the returned map does not leak into the tracker")
}
