// Package resilience provides reliability patterns for external service calls.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open and rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the externally visible breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Breaker implements a circuit breaker for protecting calls to the LLM and
// payment collaborators. Consecutive failures past the threshold open the
// circuit; after the cooldown one probe call is allowed through.
type Breaker struct {
	mu          sync.Mutex
	failures    int
	maxFailures int
	cooldown    time.Duration
	openedAt    time.Time
	open        bool
	now         func() time.Time // injectable for tests
}

// NewBreaker creates a breaker that opens after maxFailures consecutive
// failures and stays open for cooldown.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// State reports the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return StateClosed
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return StateOpen
}

// Execute runs fn unless the circuit is open. A success closes the circuit
// and resets the failure count; a failure during the half-open probe reopens
// it immediately.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	if b.open && b.now().Sub(b.openedAt) < b.cooldown {
		b.mu.Unlock()
		return ErrCircuitOpen
	}
	probing := b.open
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		if probing || b.failures >= b.maxFailures {
			b.open = true
			b.openedAt = b.now()
		}
		return err
	}

	b.failures = 0
	b.open = false
	return nil
}
