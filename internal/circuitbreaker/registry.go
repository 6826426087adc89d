package circuitbreaker

import (
	"strings"
	"sync"
	"time"
)

// Registry lazily creates one Breaker per origin host.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*Breaker
	threshold int
	timeout   time.Duration
}

func NewRegistry(threshold int, timeout time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*Breaker),
		threshold: threshold,
		timeout:   timeout,
	}
}

// For returns the breaker guarding host, creating it on first use.
func (r *Registry) For(host string) *Breaker {
	host = strings.ToLower(host)

	r.mutex.RLock()
	b, ok := r.breakers[host]
	r.mutex.RUnlock()

	if ok {
		return b
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Another goroutine may have won the race.
	if b, ok = r.breakers[host]; ok {
		return b
	}

	b = NewBreaker(r.threshold, r.timeout)
	r.breakers[host] = b
	return b
}

// Stats returns the current state of every known origin.
func (r *Registry) Stats() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]State, len(r.breakers))
	for host, b := range r.breakers {
		stats[host] = b.State()
	}
	return stats
}
