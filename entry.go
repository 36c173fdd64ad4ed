package logward

import (
	"time"
)

// Entry is a single log record. Entries are value types: once constructed
// they are treated as immutable, copied into the buffer, and serialized
// as-is on the wire.
type Entry struct {
	Service       string   `json:"service"`
	Level         Level    `json:"level"`
	Message       string   `json:"message"`
	Timestamp     string   `json:"timestamp"`
	Metadata      Metadata `json:"metadata,omitempty"`
	CorrelationID string   `json:"correlationId,omitempty"`
}

// NewEntry constructs an entry for the given service, level, and message,
// stamped with the current UTC time. Metadata and correlation id can be
// assigned on the returned value before handing it to a client.
func NewEntry(service string, level Level, message string) Entry {
	return Entry{
		Service:   service,
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Time parses the entry timestamp. It returns the zero time when the
// timestamp is missing or malformed.
func (e Entry) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
