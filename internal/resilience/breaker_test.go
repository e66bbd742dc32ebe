package resilience

import (
	"errors"
	"testing"
	"time"
)

var errUnavailable = errors.New("service unavailable")

func TestBreakerClosedAllowsCalls(t *testing.T) {
	b := NewBreaker(3, time.Second)

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
	if got := b.State(); got != StateClosed {
		t.Fatalf("expected closed, got %s", got)
	}
}

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker(3, time.Second)

	for range 3 {
		_ = b.Execute(func() error { return errUnavailable })
	}

	err := b.Execute(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker(2, time.Second)
	b.now = func() time.Time { return now }

	for range 2 {
		_ = b.Execute(func() error { return errUnavailable })
	}
	if !errors.Is(b.Execute(func() error { return nil }), ErrCircuitOpen) {
		t.Fatal("expected circuit to stay open before cooldown")
	}

	now = now.Add(2 * time.Second)
	if got := b.State(); got != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", got)
	}

	// Successful probe closes the circuit.
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected probe to run, got %v", err)
	}
	if got := b.State(); got != StateClosed {
		t.Fatalf("expected closed after probe, got %s", got)
	}
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, time.Second)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errUnavailable })
	now = now.Add(2 * time.Second)

	_ = b.Execute(func() error { return errUnavailable })
	if !errors.Is(b.Execute(func() error { return nil }), ErrCircuitOpen) {
		t.Fatal("expected circuit to reopen after failed probe")
	}
}
