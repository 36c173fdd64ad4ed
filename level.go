package logward

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is the severity of a log entry.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "CRITICAL"}

// ParseLevel parses a level from its wire name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	for i := range levelNames {
		if strings.EqualFold(s, levelNames[i]) {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("invalid level %q", s)
}

// String returns the wire name of the level, e.g. "INFO".
func (l Level) String() string {
	if l < LevelDebug || l > LevelCritical {
		return fmt.Sprintf("LEVEL(%d)", int8(l))
	}
	return levelNames[l]
}

// MarshalJSON implements json.Marshaler, encoding the level as its quoted
// wire name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
