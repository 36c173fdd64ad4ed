package logward

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/logward-dev/logward-go/internal/logwardutil"
)

// deliveryEngine owns the flush protocol: drain, circuit breaker gate,
// and the retry-with-backoff transmission loop. Every flush operates on
// its own drained snapshot, so concurrent flushes retry in parallel
// without ever sharing entries, and backoff sleeps never block producers.
type deliveryEngine struct {
	buf        *buffer
	sender     Sender
	breaker    *circuitBreaker
	metrics    *metricsRecorder
	maxRetries int
	retryDelay time.Duration
	log        logr.Logger
}

// flush drains the buffer and attempts delivery. It returns ErrCircuitOpen
// when the breaker blocks the attempt, and the context error when canceled
// mid-backoff; in both cases the drained batch is discarded. Exhausted
// retries also lose the batch, but silently: observable only through the
// metrics counters and debug logging.
func (d *deliveryEngine) flush(ctx context.Context) error {
	if d.buf.size() == 0 {
		return nil
	}

	batch := d.buf.drainAll()
	if len(batch) == 0 {
		return nil
	}

	if !d.breaker.canAttempt() {
		d.metrics.incErrors()
		d.log.V(1).Info("flush blocked by breaker, batch lost", "entries", len(batch))
		return ErrCircuitOpen
	}

	for attempt := 0; ; attempt++ {
		began := time.Now()
		err := d.sender.Send(ctx, batch)
		if err == nil {
			d.breaker.recordSuccess()
			d.metrics.addSent(len(batch))
			d.metrics.addRetries(attempt)
			d.metrics.observeLatency(time.Since(began))
			d.log.V(1).Info("batch delivered", "entries", len(batch), "attempts", attempt+1, "took", logwardutil.HumanizeDuration(time.Since(began)))
			return nil
		}

		d.breaker.recordFailure()
		d.metrics.incErrors()
		d.log.V(1).Info("send failed", "attempt", attempt+1, "total", d.maxRetries+1, "err", err.Error())

		if attempt >= d.maxRetries {
			break
		}

		if err := contextSleep(ctx, d.retryDelay<<attempt); err != nil {
			d.log.V(1).Info("backoff interrupted, batch lost", "entries", len(batch), "err", err.Error())
			return err
		}
	}

	if d.breaker.state() == stateOpen {
		d.metrics.incTrips()
	}

	d.log.V(1).Info("retries exhausted, batch lost", "entries", len(batch))
	return nil
}

// contextSleep waits for the duration or the context, whichever finishes
// first.
func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
