package logward

import (
	"sync"
	"time"
)

type breakerState uint8

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "CLOSED"
	case stateOpen:
		return "OPEN"
	case stateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// circuitBreaker guards the transport against being hammered while the
// backend is unhealthy. Transitions are deterministic in (current state,
// outcome, elapsed time): threshold consecutive failures open the circuit,
// an open circuit admits one probe after the reset timeout, and a single
// probe failure reopens it without counting to threshold again.
type circuitBreaker struct {
	mtx       sync.Mutex
	threshold int
	reset     time.Duration
	failures  int
	current   breakerState
	lastFail  time.Time
	now       func() time.Time // swappable for tests
}

func newCircuitBreaker(threshold int, reset time.Duration) *circuitBreaker {
	return &circuitBreaker{
		threshold: threshold,
		reset:     reset,
		current:   stateClosed,
		now:       time.Now,
	}
}

// canAttempt reports whether a delivery attempt may proceed. When the
// circuit is open and the reset timeout has elapsed since the last
// failure, the breaker moves to half-open and admits the probe.
func (cb *circuitBreaker) canAttempt() bool {
	cb.mtx.Lock()
	defer cb.mtx.Unlock()

	switch cb.current {
	case stateClosed:
		return true

	case stateOpen:
		if cb.now().Sub(cb.lastFail) >= cb.reset {
			cb.current = stateHalfOpen
			return true
		}
		return false

	case stateHalfOpen:
		return true

	default:
		return false
	}
}

// recordSuccess closes the circuit from any state and zeroes the failure
// count.
func (cb *circuitBreaker) recordSuccess() {
	cb.mtx.Lock()
	defer cb.mtx.Unlock()

	cb.failures = 0
	cb.current = stateClosed
}

// recordFailure counts a consecutive failure, opening the circuit at
// threshold. A failure during a half-open probe reopens immediately.
func (cb *circuitBreaker) recordFailure() {
	cb.mtx.Lock()
	defer cb.mtx.Unlock()

	cb.failures++

	if cb.current == stateHalfOpen || cb.failures >= cb.threshold {
		cb.current = stateOpen
		cb.lastFail = cb.now()
	}
}

// state returns the current breaker state.
func (cb *circuitBreaker) state() breakerState {
	cb.mtx.Lock()
	defer cb.mtx.Unlock()

	return cb.current
}
