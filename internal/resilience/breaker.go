// Package resilience implements cross-cutting resilience primitives: the
// LLM circuit breaker and the per-key token-bucket rate limiter.
package resilience

import (
	"sync"
	"time"
)

// BreakerState is the circuit breaker's state machine variant.
type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half_open"
)

// CircuitBreaker guards the LLM call only; structured commands keep working
// while it is open.
type CircuitBreaker struct {
	mu sync.Mutex

	name              string
	failureThreshold  int
	recoveryTimeout   time.Duration
	failureCount      int
	state             BreakerState
	lastFailureTime   time.Time
}

// NewCircuitBreaker builds a breaker that opens after failureThreshold
// consecutive failures and probes again after recoveryTimeout.
func NewCircuitBreaker(name string, failureThreshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            StateClosed,
	}
}

// IsOpen reports whether calls should currently be short-circuited. If the
// recovery timeout has elapsed since the last failure, the breaker moves to
// half-open and allows a single probe through.
func (b *CircuitBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return false
	}
	if time.Since(b.lastFailureTime) >= b.recoveryTimeout {
		b.state = StateHalfOpen
		return false
	}
	return true
}

// RecordSuccess closes the breaker and resets the failure count. A single
// success while half-open is sufficient to close it again.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	b.state = StateClosed
}

// RecordFailure increments the failure count and opens the breaker once the
// threshold is reached.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailureTime = time.Now()
	if b.state == StateHalfOpen || b.failureCount >= b.failureThreshold {
		b.state = StateOpen
	}
}

// State returns the current state, mainly for tests/metrics.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the breaker's identifying label.
func (b *CircuitBreaker) Name() string {
	return b.name
}
