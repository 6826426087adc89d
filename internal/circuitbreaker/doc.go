// Package circuitbreaker stops the fetcher from repeatedly waiting on
// origins that keep timing out or refusing connections.
//
// A breaker has three states:
//
//   - CLOSED: requests to the origin pass through
//   - OPEN: the origin failed too often, requests fail fast
//   - HALF-OPEN: one trial request is let through to test the origin
//
// Breakers are kept per origin host in a Registry:
//
//	registry := circuitbreaker.NewRegistry(5, 30*time.Second)
//	b := registry.For("example.com")
//	if !b.Allow() {
//	    return ErrCircuitOpen
//	}
//	resp, err := client.Do(req)
//	if err != nil {
//	    b.RecordFailure()
//	} else {
//	    b.RecordSuccess()
//	}
package circuitbreaker
