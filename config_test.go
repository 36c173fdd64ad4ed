package logward

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assertEqual(t, cfg.BatchSize, 100)
	assertEqual(t, cfg.FlushInterval, 5*time.Second)
	assertEqual(t, cfg.MaxBufferSize, 10000)
	assertEqual(t, cfg.MaxRetries, 3)
	assertEqual(t, cfg.RetryDelay, time.Second)
	assertEqual(t, cfg.CircuitBreakerThreshold, 5)
	assertEqual(t, cfg.CircuitBreakerReset, 30*time.Second)
	assertEqual(t, cfg.EnableMetrics, true)
	assertEqual(t, cfg.Debug, false)
	assertEqual(t, cfg.AutoTraceID, false)
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		cfg := DefaultConfig()
		cfg.APIURL = "http://localhost:8080"
		cfg.APIKey = "key"
		return cfg
	}

	good := valid()
	assertNoError(t, good.validate())

	for _, tc := range []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"blank url", func(cfg *Config) { cfg.APIURL = "   " }, "apiUrl"},
		{"blank key", func(cfg *Config) { cfg.APIKey = "" }, "apiKey"},
		{"zero batch size", func(cfg *Config) { cfg.BatchSize = 0 }, "batchSize"},
		{"negative batch size", func(cfg *Config) { cfg.BatchSize = -1 }, "batchSize"},
		{"batch above buffer", func(cfg *Config) { cfg.BatchSize = 100; cfg.MaxBufferSize = 10 }, "batchSize"},
		{"zero flush interval", func(cfg *Config) { cfg.FlushInterval = 0 }, "flushInterval"},
		{"zero buffer size", func(cfg *Config) { cfg.MaxBufferSize = 0 }, "maxBufferSize"},
		{"negative retries", func(cfg *Config) { cfg.MaxRetries = -1 }, "maxRetries"},
		{"negative retry delay", func(cfg *Config) { cfg.RetryDelay = -time.Second }, "retryDelay"},
		{"zero breaker threshold", func(cfg *Config) { cfg.CircuitBreakerThreshold = 0 }, "circuitBreakerThreshold"},
		{"zero breaker reset", func(cfg *Config) { cfg.CircuitBreakerReset = 0 }, "circuitBreakerReset"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.modify(&cfg)

			var verr *ValidationError
			err := cfg.validate()
			if !errors.As(err, &verr) {
				t.Fatalf("want ValidationError, have %v", err)
			}
			assertEqual(t, verr.Field, tc.field)
		})
	}
}

func TestConfigZeroRetriesIsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.APIURL = "http://localhost:8080"
	cfg.APIKey = "key"
	cfg.MaxRetries = 0 // one attempt, no retries

	assertNoError(t, cfg.validate())
}
