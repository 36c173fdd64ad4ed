package logward

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// Defaults for every Config tunable.
const (
	DefaultBatchSize               = 100
	DefaultFlushInterval           = 5 * time.Second
	DefaultMaxBufferSize           = 10000
	DefaultMaxRetries              = 3
	DefaultRetryDelay              = 1 * time.Second
	DefaultCircuitBreakerThreshold = 5
	DefaultCircuitBreakerReset     = 30 * time.Second
)

// Config collects every tunable of a client. Start from DefaultConfig,
// set APIURL and APIKey, and override what you need. NewClient validates
// strictly, so a zero Config is rejected rather than silently repaired.
type Config struct {
	// APIURL is the base URL of the Logward API, for example
	// "https://api.logward.dev". Required, non-blank.
	APIURL string

	// APIKey authenticates every request as a bearer token. Required,
	// non-blank.
	APIKey string

	// BatchSize is the buffered-entry count that triggers an asynchronous
	// flush. Must be positive.
	BatchSize int

	// FlushInterval is the period of the background flush scheduler. Must
	// be positive.
	FlushInterval time.Duration

	// MaxBufferSize bounds the number of pending entries. Appends beyond
	// it are rejected with ErrBufferFull and counted as dropped. Must be
	// positive.
	MaxBufferSize int

	// MaxRetries is the number of additional delivery attempts after the
	// first, so total attempts per batch = MaxRetries+1. Zero disables
	// retries. Must be non-negative.
	MaxRetries int

	// RetryDelay seeds the exponential backoff between attempts: the
	// sleep before attempt n+1 is RetryDelay * 2^n. Must be non-negative.
	RetryDelay time.Duration

	// CircuitBreakerThreshold is the consecutive-failure count that opens
	// the breaker. Must be positive.
	CircuitBreakerThreshold int

	// CircuitBreakerReset is how long an open breaker blocks delivery
	// before allowing a probe through. Must be positive.
	CircuitBreakerReset time.Duration

	// EnableMetrics turns the metrics recorder on. When false, Metrics
	// returns zeroes and recording is a no-op.
	EnableMetrics bool

	// Debug enables diagnostic logging of the delivery path. When no
	// Logger is set, Debug installs a basic stderr logger.
	Debug bool

	// GlobalMetadata is merged into every entry, with per-entry keys
	// winning on conflict.
	GlobalMetadata Metadata

	// AutoTraceID stamps a freshly generated correlation id onto entries
	// that have none, neither explicit nor ambient.
	AutoTraceID bool

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger logr.Logger
}

// DefaultConfig returns a config with every tunable at its default.
// Callers must still set APIURL and APIKey.
func DefaultConfig() Config {
	return Config{
		BatchSize:               DefaultBatchSize,
		FlushInterval:           DefaultFlushInterval,
		MaxBufferSize:           DefaultMaxBufferSize,
		MaxRetries:              DefaultMaxRetries,
		RetryDelay:              DefaultRetryDelay,
		CircuitBreakerThreshold: DefaultCircuitBreakerThreshold,
		CircuitBreakerReset:     DefaultCircuitBreakerReset,
		EnableMetrics:           true,
	}
}

func (cfg *Config) validate() error {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return &ValidationError{Field: "apiUrl", Reason: "must not be blank"}
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return &ValidationError{Field: "apiKey", Reason: "must not be blank"}
	}

	if cfg.BatchSize <= 0 {
		return &ValidationError{Field: "batchSize", Reason: "must be positive"}
	}

	if cfg.FlushInterval <= 0 {
		return &ValidationError{Field: "flushInterval", Reason: "must be positive"}
	}

	if cfg.MaxBufferSize <= 0 {
		return &ValidationError{Field: "maxBufferSize", Reason: "must be positive"}
	}

	if cfg.BatchSize > cfg.MaxBufferSize {
		return &ValidationError{Field: "batchSize", Reason: "must not exceed maxBufferSize"}
	}

	if cfg.MaxRetries < 0 {
		return &ValidationError{Field: "maxRetries", Reason: "must be non-negative"}
	}

	if cfg.RetryDelay < 0 {
		return &ValidationError{Field: "retryDelay", Reason: "must be non-negative"}
	}

	if cfg.CircuitBreakerThreshold <= 0 {
		return &ValidationError{Field: "circuitBreakerThreshold", Reason: "must be positive"}
	}

	if cfg.CircuitBreakerReset <= 0 {
		return &ValidationError{Field: "circuitBreakerReset", Reason: "must be positive"}
	}

	return nil
}

// logger resolves the effective diagnostic logger: the configured one if
// set, a stderr logger when Debug is on, and a no-op logger otherwise.
func (cfg *Config) logger() logr.Logger {
	if cfg.Logger.GetSink() != nil {
		return cfg.Logger
	}

	if cfg.Debug {
		return funcr.New(func(prefix, args string) {
			if prefix != "" {
				fmt.Fprintln(os.Stderr, prefix, args)
			} else {
				fmt.Fprintln(os.Stderr, args)
			}
		}, funcr.Options{Verbosity: 1})
	}

	return logr.Discard()
}
