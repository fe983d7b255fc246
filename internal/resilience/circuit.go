// Package resilience guards calls to the external boundary service. A
// breaker that opens after repeated failures keeps a flaky upstream from
// stalling every drill-down interaction; rejections surface as ordinary
// fetch errors, so the rest of the dashboard keeps working without a
// choropleth layer.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// State is the breaker's position.
type State int

const (
	// StateClosed lets requests flow.
	StateClosed State = iota
	// StateOpen rejects requests until the reset timeout passes.
	StateOpen
	// StateHalfOpen admits a single probe to test recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when a call is rejected because the breaker is open.
var ErrOpen = eris.New("resilience: breaker open")

// BreakerConfig controls breaker behavior. Zero values take the defaults.
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// breaker. Default 5.
	FailureThreshold int
	// ResetTimeout is how long the breaker stays open before admitting a
	// probe. Default 30s.
	ResetTimeout time.Duration
	// OnStateChange, if set, is called on every transition.
	OnStateChange func(from, to State)
}

// Breaker implements a consecutive-failure circuit breaker for a single
// upstream.
type Breaker struct {
	cfg BreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time

	nowFunc func() time.Time
}

// NewBreaker creates a Breaker with the given config.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &Breaker{
		cfg:     cfg,
		state:   StateClosed,
		nowFunc: time.Now,
	}
}

// Execute runs fn through the breaker. It returns ErrOpen without calling
// fn when the breaker is open; otherwise fn's error is returned unchanged
// and recorded.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn(ctx)
	b.record(err)
	return err
}

// State returns the breaker's effective position, accounting for an open
// interval that has aged into half-open.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.nowFunc().Sub(b.lastFailure) >= b.cfg.ResetTimeout {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.state
	b.state = StateClosed
	b.failures = 0
	if old != StateClosed && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(old, StateClosed)
	}
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.nowFunc().Sub(b.lastFailure) >= b.cfg.ResetTimeout {
			b.transition(StateHalfOpen)
			return nil
		}
		return ErrOpen
	default:
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state != StateClosed {
			b.transition(StateClosed)
		}
		b.failures = 0
		return
	}

	b.failures++
	b.lastFailure = b.nowFunc()

	switch b.state {
	case StateClosed:
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		// A failed probe reopens immediately.
		b.transition(StateOpen)
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}
