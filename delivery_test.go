package logward

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
)

// fakeSender fails its first `fails` attempts and records the batches of
// the successful ones.
type fakeSender struct {
	mtx      sync.Mutex
	fails    int
	attempts int
	batches  [][]Entry
}

func (s *fakeSender) Send(ctx context.Context, batch []Entry) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.attempts++
	if s.attempts <= s.fails {
		return errors.New("backend unavailable")
	}

	cp := make([]Entry, len(batch))
	copy(cp, batch)
	s.batches = append(s.batches, cp)
	return nil
}

func (s *fakeSender) count() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.attempts
}

const alwaysFail = 1 << 30

func newTestEngine(s Sender, maxRetries, threshold int) (*deliveryEngine, *buffer, *metricsRecorder, *circuitBreaker) {
	m := newMetricsRecorder(true)
	b := newBuffer(1000, 1000, m)
	cb := newCircuitBreaker(threshold, 30*time.Second)
	e := &deliveryEngine{
		buf:        b,
		sender:     s,
		breaker:    cb,
		metrics:    m,
		maxRetries: maxRetries,
		retryDelay: time.Millisecond,
		log:        logr.Discard(),
	}
	return e, b, m, cb
}

func TestFlushEmptyIsNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := &fakeSender{}
	e, _, m, _ := newTestEngine(s, 3, 5)

	assertNoError(t, e.flush(ctx))
	assertEqual(t, s.count(), 0)
	assertEqual(t, m.snapshot(), Metrics{})
}

func TestFlushDeliversBatchInOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := &fakeSender{}
	e, b, m, _ := newTestEngine(s, 3, 5)

	for i := 0; i < 3; i++ {
		b.append(NewEntry("svc", LevelInfo, fmt.Sprintf("message %d", i)))
	}

	assertNoError(t, e.flush(ctx))

	assertEqual(t, s.count(), 1)
	assertEqual(t, len(s.batches), 1)
	for i := range s.batches[0] {
		assertEqual(t, s.batches[0][i].Message, fmt.Sprintf("message %d", i))
	}

	snap := m.snapshot()
	assertEqual(t, snap.LogsSent, int64(3))
	assertEqual(t, snap.Errors, int64(0))
	assertEqual(t, snap.Retries, int64(0))
	assertEqual(t, b.size(), 0)
}

func TestFlushExhaustsRetries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := &fakeSender{fails: alwaysFail}
	e, b, m, _ := newTestEngine(s, 2, 100)

	b.append(NewEntry("svc", LevelInfo, "doomed"))

	// Exhausted retries are silent: the batch is lost, not reported.
	assertNoError(t, e.flush(ctx))

	assertEqual(t, s.count(), 3) // maxRetries+1
	snap := m.snapshot()
	assertEqual(t, snap.Errors, int64(3))
	assertEqual(t, snap.LogsSent, int64(0))
	assertEqual(t, snap.Retries, int64(0))
	assertEqual(t, snap.CircuitBreakerTrips, int64(0)) // threshold not reached
	assertEqual(t, b.size(), 0)
}

func TestFlushRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := &fakeSender{fails: 2}
	e, b, m, _ := newTestEngine(s, 3, 100)

	b.append(NewEntry("svc", LevelInfo, "first"))
	b.append(NewEntry("svc", LevelInfo, "second"))

	assertNoError(t, e.flush(ctx))

	assertEqual(t, s.count(), 3) // two failures plus the success
	snap := m.snapshot()
	assertEqual(t, snap.LogsSent, int64(2))
	assertEqual(t, snap.Retries, int64(2))
	assertEqual(t, snap.Errors, int64(2))
}

func TestFlushCircuitOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := &fakeSender{fails: alwaysFail}
	e, b, m, cb := newTestEngine(s, 0, 1)

	b.append(NewEntry("svc", LevelInfo, "opens the circuit"))
	assertNoError(t, e.flush(ctx)) // single failed attempt, breaker opens
	assertEqual(t, cb.state(), stateOpen)
	assertEqual(t, m.snapshot().CircuitBreakerTrips, int64(1))

	b.append(NewEntry("svc", LevelInfo, "blocked at the gate"))
	assertErrorIs(t, e.flush(ctx), ErrCircuitOpen)

	assertEqual(t, s.count(), 1) // no attempt while blocked
	snap := m.snapshot()
	assertEqual(t, snap.Errors, int64(2)) // one send failure, one gate rejection
	assertEqual(t, b.size(), 0)           // the gated batch is lost
}

func TestFlushBackoffHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &fakeSender{fails: alwaysFail}
	e, b, _, _ := newTestEngine(s, 5, 100)
	e.retryDelay = time.Hour // the canceled context must cut this short

	b.append(NewEntry("svc", LevelInfo, "abandoned"))

	err := e.flush(ctx)
	assertErrorIs(t, err, context.Canceled)
	assertEqual(t, s.count(), 1)
	assertEqual(t, b.size(), 0)
}
