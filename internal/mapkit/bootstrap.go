package mapkit

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LoadFunc produces a live Surface. Real adapters load the vendor SDK; the
// CLI supplies a Headless factory.
type LoadFunc func(ctx context.Context) (Surface, error)

// Bootstrapper memoizes the one-time SDK load. Concurrent requesters share
// a single in-flight load. Success is remembered for the life of the
// process; failure is not, so a later request retries after a transient
// outage instead of pinning the dashboard in the unavailable state.
type Bootstrapper struct {
	load  LoadFunc
	group singleflight.Group

	mu      sync.RWMutex
	surface Surface
}

// NewBootstrapper creates a Bootstrapper around the given loader.
func NewBootstrapper(load LoadFunc) *Bootstrapper {
	return &Bootstrapper{load: load}
}

// Surface returns the loaded SDK surface, loading it on first use. The
// load runs detached from the caller's context for the same reason
// boundary fetches do: the result is still usable by the next requester.
func (b *Bootstrapper) Surface(ctx context.Context) (Surface, error) {
	b.mu.RLock()
	s := b.surface
	b.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := b.group.Do("bootstrap", func() (any, error) {
		loaded, err := b.load(loadCtx)
		if err != nil {
			return nil, eris.Wrap(err, "mapkit: bootstrap")
		}
		b.mu.Lock()
		b.surface = loaded
		b.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		zap.L().Warn("mapkit: sdk bootstrap failed", zap.Error(err))
		return nil, err
	}
	return v.(Surface), nil
}

// Ready reports whether the SDK finished loading successfully.
func (b *Bootstrapper) Ready() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.surface != nil
}
