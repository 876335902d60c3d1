package clients

import (
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	// StateClosed allows requests through (normal operation).
	StateClosed State = iota

	// StateOpen blocks requests to protect an unhealthy remote.
	StateOpen

	// StateHalfOpen lets a limited number of probes through.
	StateHalfOpen
)

// String returns a human-readable name for the state.
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

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the consecutive failures before the circuit opens.
	MaxFailures int

	// Timeout is the open-state duration before probing resumes.
	Timeout time.Duration

	// HalfOpenLimit is the consecutive half-open successes required to
	// close the circuit, and the half-open concurrency cap.
	HalfOpenLimit int
}

// Breaker shields the remote source from request storms while it is down.
//
// Transitions: closed→open after MaxFailures consecutive failures;
// open→half-open once Timeout elapses; half-open→closed after
// HalfOpenLimit consecutive successes; half-open→open on any failure.
type Breaker struct {
	mu          sync.RWMutex
	state       State
	failures    int
	successes   int
	inFlight    int // probes in flight while half-open
	lastFailure time.Time
	cfg         BreakerConfig

	onStateChange func(from, to State)

	// now is overridable for tests.
	now func() time.Time
}

// NewBreaker creates a circuit breaker in the closed state.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{
		state: StateClosed,
		cfg:   cfg,
		now:   time.Now,
	}
}

// OnStateChange registers a callback invoked on every state transition,
// useful for logging or metrics.
func (b *Breaker) OnStateChange(fn func(from, to State)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStateChange = fn
}

// Allow reports whether a request may proceed. May transition the breaker
// from open to half-open when the timeout has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true

	case StateOpen:
		if b.now().Sub(b.lastFailure) >= b.cfg.Timeout {
			b.transitionTo(StateHalfOpen)
			b.inFlight = 1

			return true
		}

		return false

	case StateHalfOpen:
		if b.inFlight >= b.cfg.HalfOpenLimit {
			return false
		}
		b.inFlight++

		return true

	default:
		return false
	}
}

// RecordSuccess records a successful request.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures = 0

	case StateHalfOpen:
		b.inFlight--
		b.successes++

		if b.successes >= b.cfg.HalfOpenLimit {
			b.transitionTo(StateClosed)
		}
	}
}

// RecordFailure records a failed request.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = b.now()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.MaxFailures {
			b.transitionTo(StateOpen)
		}

	case StateHalfOpen:
		// Any half-open failure immediately reopens.
		b.inFlight--
		b.transitionTo(StateOpen)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.state
}

// transitionTo changes state and resets counters. Caller holds the lock.
func (b *Breaker) transitionTo(next State) {
	if b.state == next {
		return
	}

	prev := b.state
	b.state = next
	b.failures = 0
	b.successes = 0

	if b.onStateChange != nil {
		// Run outside the lock path to avoid blocking callers.
		go b.onStateChange(prev, next)
	}
}
