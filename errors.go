package logward

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferFull is returned by logging methods when the entry was
	// rejected because the buffer is at capacity. The entry is counted
	// as dropped and not enqueued.
	ErrBufferFull = errors.New("buffer full")

	// ErrCircuitOpen is returned by Flush when the circuit breaker is
	// blocking delivery. The drained batch is discarded.
	ErrCircuitOpen = errors.New("circuit open")

	// ErrClientClosed is returned by logging methods after Close.
	ErrClientClosed = errors.New("client closed")
)

// ValidationError describes a configuration or entry field that failed
// validation. Constructors fail fast with it rather than repairing bad
// input.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("logward: invalid %s: %s", e.Field, e.Reason)
}
