package extraction

import (
	"errors"
	"testing"
	"time"
)

func TestBreaker_HalfOpenTrial(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBreaker()
	b.now = func() time.Time { return now }

	for range cbFailureThreshold {
		b.recordFailure()
	}

	if err := b.allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}

	now = now.Add(cbCooldown)

	if err := b.allow(); err != nil {
		t.Fatalf("expected trial to be allowed after cooldown, got %v", err)
	}

	if err := b.allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second concurrent trial to be rejected, got %v", err)
	}

	b.recordFailure()

	if err := b.allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("failed trial should reopen the circuit, got %v", err)
	}

	now = now.Add(cbCooldown)

	if err := b.allow(); err != nil {
		t.Fatalf("expected trial, got %v", err)
	}

	b.recordSuccess()

	if err := b.allow(); err != nil {
		t.Fatalf("successful trial should close the circuit, got %v", err)
	}
}
