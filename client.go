package logward

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

// closeTimeout bounds the final flush and the scheduler shutdown performed
// by Close.
const closeTimeout = 5 * time.Second

// Client is the public entry point of the SDK. It composes the buffer,
// circuit breaker, delivery engine, and metrics recorder behind simple
// logging methods, runs the periodic flush scheduler, and proxies the
// read-path operations to the transport.
//
// Logging methods return immediately: delivery happens out of band, and
// delivery failures are absorbed by retries and the breaker, surfaced only
// through Metrics and debug logging. Callers should defer Close so the
// final buffered entries are flushed on the way out.
type Client struct {
	cfg       Config
	transport Transport
	log       logr.Logger

	metrics *metricsRecorder
	buf     *buffer
	breaker *circuitBreaker
	engine  *deliveryEngine
	tap     *tapBroker

	stop context.CancelFunc
	done chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewClient validates the config, assembles the pipeline, and starts the
// periodic flush scheduler.
func NewClient(cfg Config, transport Transport) (*Client, error) {
	if transport == nil {
		return nil, &ValidationError{Field: "transport", Reason: "must not be nil"}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var (
		log     = cfg.logger().WithName("logward")
		metrics = newMetricsRecorder(cfg.EnableMetrics)
		buf     = newBuffer(cfg.MaxBufferSize, cfg.BatchSize, metrics)
		breaker = newCircuitBreaker(cfg.CircuitBreakerThreshold, cfg.CircuitBreakerReset)
	)

	c := &Client{
		cfg:       cfg,
		transport: transport,
		log:       log,
		metrics:   metrics,
		buf:       buf,
		breaker:   breaker,
		engine: &deliveryEngine{
			buf:        buf,
			sender:     transport,
			breaker:    breaker,
			metrics:    metrics,
			maxRetries: cfg.MaxRetries,
			retryDelay: cfg.RetryDelay,
			log:        log,
		},
		tap:  newTapBroker(),
		done: make(chan struct{}),
	}

	schedCtx, cancel := context.WithCancel(context.Background())
	c.stop = cancel
	go c.runScheduler(schedCtx)

	return c, nil
}

func (c *Client) runScheduler(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.backgroundFlush(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// backgroundFlush swallows flush errors: the periodic and batch-triggered
// paths surface failures through metrics and debug logging only.
func (c *Client) backgroundFlush(ctx context.Context) {
	if err := c.engine.flush(ctx); err != nil {
		c.log.V(1).Info("background flush", "err", err.Error())
	}
}

// Log enriches and buffers the entry: a missing timestamp is stamped,
// GlobalMetadata is merged under per-entry metadata, and a correlation id
// is resolved with explicit > context/ambient > AutoTraceID precedence.
// It returns ErrBufferFull when the entry was rejected at capacity and
// ErrClientClosed after Close; it never blocks on delivery.
func (c *Client) Log(ctx context.Context, e Entry) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	if strings.TrimSpace(e.Service) == "" {
		return &ValidationError{Field: "service", Reason: "must not be blank"}
	}

	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	e.Metadata = c.cfg.GlobalMetadata.merged(e.Metadata).normalized()

	if e.CorrelationID == "" {
		if id := Correlation(ctx); id != "" {
			e.CorrelationID = id
		} else if c.cfg.AutoTraceID {
			e.CorrelationID = NewCorrelationID()
		}
	}

	flush, err := c.buf.append(e)
	if err != nil {
		return err
	}

	c.tap.publish(e)

	if flush {
		go c.backgroundFlush(context.Background())
	}

	return nil
}

// Debug logs message at DEBUG level.
func (c *Client) Debug(ctx context.Context, service, message string, md Metadata) error {
	return c.logAt(ctx, LevelDebug, service, message, md)
}

// Info logs message at INFO level.
func (c *Client) Info(ctx context.Context, service, message string, md Metadata) error {
	return c.logAt(ctx, LevelInfo, service, message, md)
}

// Warn logs message at WARN level.
func (c *Client) Warn(ctx context.Context, service, message string, md Metadata) error {
	return c.logAt(ctx, LevelWarn, service, message, md)
}

// Error logs message at ERROR level.
func (c *Client) Error(ctx context.Context, service, message string, md Metadata) error {
	return c.logAt(ctx, LevelError, service, message, md)
}

// Critical logs message at CRITICAL level.
func (c *Client) Critical(ctx context.Context, service, message string, md Metadata) error {
	return c.logAt(ctx, LevelCritical, service, message, md)
}

// LogError logs message at ERROR level with err serialized into metadata:
// the concrete type name, the error message, and a stack trace of the
// call site.
func (c *Client) LogError(ctx context.Context, service, message string, err error) error {
	return c.logAt(ctx, LevelError, service, message, errorMetadata(err))
}

func (c *Client) logAt(ctx context.Context, level Level, service, message string, md Metadata) error {
	e := NewEntry(service, level, message)
	e.Metadata = md
	return c.Log(ctx, e)
}

// Flush synchronously drains and delivers the current buffer. This is the
// only path that reports ErrCircuitOpen; the periodic and batch-triggered
// flushes swallow it.
func (c *Client) Flush(ctx context.Context) error {
	return c.engine.flush(ctx)
}

// Query proxies a historical query to the transport.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	return c.transport.Query(ctx, req)
}

// Stream proxies a live subscription to the transport, sending matching
// entries on ch until the context is canceled.
func (c *Client) Stream(ctx context.Context, req StreamRequest, ch chan<- Entry) error {
	return c.transport.Stream(ctx, req, ch)
}

// Stats proxies an aggregated-stats query to the transport.
func (c *Client) Stats(ctx context.Context, req StatsRequest) (*StatsResponse, error) {
	return c.transport.Stats(ctx, req)
}

// Tap subscribes ch to entries accepted by this client, filtered locally.
// Delivery to ch never blocks: entries a full channel cannot take are
// dropped and counted. Tap blocks until the context is canceled, then
// returns the subscription's stats.
func (c *Client) Tap(ctx context.Context, f Filter, ch chan<- Entry) (TapStats, error) {
	return c.tap.subscribe(ctx, f.Match, ch)
}

// Metrics returns a snapshot of the delivery counters. It is all zeroes
// when EnableMetrics is off.
func (c *Client) Metrics() Metrics {
	return c.metrics.snapshot()
}

// ResetMetrics zeroes the counters and discards the latency window.
func (c *Client) ResetMetrics() {
	c.metrics.reset()
}

// Close performs one final flush, stops the periodic scheduler, and
// releases the transport. Both the flush and the scheduler shutdown are
// bounded by a grace timeout, so Close cannot hang. Repeated calls
// re-attempt the final flush but are otherwise idempotent no-ops.
// Logging methods fail with ErrClientClosed once Close has begun.
func (c *Client) Close() error {
	c.closed.Store(true)

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	flushErr := c.engine.flush(ctx)

	var closeErr error
	c.closeOnce.Do(func() {
		c.stop()
		select {
		case <-c.done:
		case <-ctx.Done():
		}
		closeErr = c.transport.Close()
	})

	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
