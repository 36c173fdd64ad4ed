package logwardutil

import (
	"strings"
	"time"
)

// durationSteps maps a magnitude floor to the precision durations of that
// magnitude are truncated at.
var durationSteps = []struct {
	floor time.Duration
	trunc time.Duration
}{
	{10 * 24 * time.Hour, 24 * time.Hour},
	{24 * time.Hour, time.Hour},
	{time.Hour, time.Minute},
	{time.Minute, time.Second},
	{time.Second, 100 * time.Millisecond},
	{10 * time.Millisecond, time.Millisecond},
	{time.Millisecond, 100 * time.Microsecond},
	{time.Microsecond, time.Microsecond},
}

// TruncateDuration reduces d to the precision appropriate for its
// magnitude, so a duration over a second keeps 100ms resolution, one over
// a minute keeps 1s resolution, and so on.
func TruncateDuration(d time.Duration) time.Duration {
	for _, step := range durationSteps {
		if d >= step.floor {
			return d.Truncate(step.trunc)
		}
	}
	return d
}

// HumanizeDuration renders d truncated, dropping the trailing zero-seconds
// component on hour-scale values.
func HumanizeDuration(d time.Duration) string {
	s := TruncateDuration(d).String()
	if d >= time.Hour && strings.HasSuffix(s, "0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	return s
}
