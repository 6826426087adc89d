package circuitbreaker

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // Origin reachable
	StateOpen                  // Failing fast
	StateHalfOpen              // Single trial request in flight
)

// Breaker tracks consecutive transport failures for one origin.
type Breaker struct {
	mutex            sync.Mutex
	state            State
	failures         int
	openedAt         time.Time
	trialInFlight    bool
	failureThreshold int
	resetTimeout     time.Duration
	now              func() time.Time
}

func NewBreaker(threshold int, resetTimeout time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}

	return &Breaker{
		state:            StateClosed,
		failureThreshold: threshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}
}

// Allow reports whether a request to the origin may be attempted.
// After the reset timeout an open breaker lets exactly one trial through.
func (b *Breaker) Allow() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.resetTimeout {
			return false
		}
		b.state = StateHalfOpen
		b.trialInFlight = true
		return true
	case StateHalfOpen:
		if b.trialInFlight {
			return false
		}
		b.trialInFlight = true
		return true
	default:
		return true
	}
}

func (b *Breaker) RecordFailure() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.failures++
	b.trialInFlight = false

	if b.state == StateHalfOpen || b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

func (b *Breaker) RecordSuccess() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.failures = 0
	b.trialInFlight = false
	b.state = StateClosed
}

// Abort releases a half-open trial without recording an outcome.
func (b *Breaker) Abort() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.trialInFlight = false
}

func (b *Breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}
