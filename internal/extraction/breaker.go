package extraction

import (
	"errors"
	"sync"
	"time"
)

// Circuit breaker configuration.
const (
	cbFailureThreshold = 5
	cbCooldown         = 30 * time.Second
)

// Circuit breaker states.
const (
	cbClosed   = iota // Normal operation.
	cbOpen            // Fail fast.
	cbHalfOpen        // Let one trial request through.
)

// ErrCircuitOpen is returned when the circuit breaker is open and requests
// are being rejected without calling the extraction service.
var ErrCircuitOpen = errors.New("extraction circuit breaker is open")

// breaker trips after cbFailureThreshold consecutive failed chat calls and
// lets a single trial request through once cbCooldown has passed.
type breaker struct {
	mu            sync.Mutex
	state         int
	failures      int
	lastFailureAt time.Time
	now           func() time.Time
}

func newBreaker() *breaker {
	return &breaker{state: cbClosed, now: time.Now}
}

// allow checks whether the breaker permits a request.
func (b *breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case cbOpen:
		if b.now().Sub(b.lastFailureAt) >= cbCooldown {
			b.state = cbHalfOpen

			return nil
		}

		return ErrCircuitOpen
	case cbHalfOpen:
		// Already probing.
		return ErrCircuitOpen
	default:
		return nil
	}
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = cbClosed
}

func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailureAt = b.now()

	if b.failures >= cbFailureThreshold || b.state == cbHalfOpen {
		b.state = cbOpen
	}
}
