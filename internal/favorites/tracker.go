package favorites

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Tracker owns the favorites set for the life of the process. It loads once
// from the store and from then on the in-memory set is the source of truth,
// pushed back wholesale on every toggle.
type Tracker struct {
	store Store

	mu  sync.Mutex
	ids map[string]bool
}

// NewTracker loads the persisted set and returns a ready Tracker.
func NewTracker(ctx context.Context, store Store) (*Tracker, error) {
	ids, err := store.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "favorites: load")
	}

	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	zap.L().Debug("favorites: loaded", zap.Int("count", len(set)))
	return &Tracker{store: store, ids: set}, nil
}

// IsFavorite reports whether the record is favorited.
func (t *Tracker) IsFavorite(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ids[id]
}

// All returns a copy of the favorited id set for the overlay builder.
func (t *Tracker) All() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]bool, len(t.ids))
	for id := range t.ids {
		out[id] = true
	}
	return out
}

// Count returns the number of favorited records.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}

// Toggle flips the record's favorite state and persists the full set.
// A persistence failure reverts the flip, so memory and store never
// disagree. Returns the record's state after the call.
func (t *Tracker) Toggle(ctx context.Context, id string) (bool, error) {
	t.mu.Lock()
	nowFavorite := !t.ids[id]
	if nowFavorite {
		t.ids[id] = true
	} else {
		delete(t.ids, id)
	}
	snapshot := make([]string, 0, len(t.ids))
	for fav := range t.ids {
		snapshot = append(snapshot, fav)
	}
	t.mu.Unlock()

	sort.Strings(snapshot)
	if err := t.store.Replace(ctx, snapshot); err != nil {
		t.mu.Lock()
		if nowFavorite {
			delete(t.ids, id)
		} else {
			t.ids[id] = true
		}
		t.mu.Unlock()
		return !nowFavorite, eris.Wrap(err, "favorites: persist")
	}
	return nowFavorite, nil
}
