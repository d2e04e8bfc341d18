package provider

import "sync"

// breaker tracks consecutive transport failures against the adapter service.
// After failureThreshold consecutive failures the circuit opens and calls are
// short-circuited to verification_unavailable; successThreshold consecutive
// half-open successes close it again. Proof judgments (invalid_*) are not
// failures: only transport-level unavailability trips the breaker.
type breaker struct {
	mu               sync.Mutex
	open             bool
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
	probeInFlight    bool
}

func newBreaker() *breaker {
	return &breaker{
		failureThreshold: 5,
		successThreshold: 2,
	}
}

// Allow reports whether a call may proceed. When the circuit is open, a
// single probe request at a time is let through to test recovery.
func (b *breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	if b.probeInFlight {
		return false
	}
	b.probeInFlight = true
	return true
}

func (b *breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeInFlight = false
	if b.open {
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.open = false
			b.failureCount = 0
			b.successCount = 0
		}
		return
	}
	b.failureCount = 0
}

func (b *breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeInFlight = false
	b.successCount = 0
	b.failureCount++
	if b.failureCount >= b.failureThreshold {
		b.open = true
	}
}
