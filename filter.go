package logward

import (
	"fmt"
	"strings"
	"time"
)

// Filter is a set of rules that can be applied to an individual entry,
// which will either be matched (pass) or rejected (fail). The zero value
// matches everything. Filters are used in two places: encoded as query
// parameters for the remote query and stream endpoints, and evaluated
// locally against entries observed by a tap.
type Filter struct {
	Service string    `json:"service,omitempty"`
	Level   *Level    `json:"level,omitempty"`
	From    time.Time `json:"from,omitempty"`
	To      time.Time `json:"to,omitempty"`
	Query   string    `json:"q,omitempty"`
}

// Normalize must be called before the filter can be used.
func (f *Filter) Normalize() []error {
	var errs []error

	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		errs = append(errs, fmt.Errorf("time range: to (%s) is before from (%s)", f.To.Format(time.RFC3339), f.From.Format(time.RFC3339)))
	}

	return errs
}

// String returns an operator-readable representation of the filter.
func (f Filter) String() string {
	var elems []string

	if f.Service != "" {
		elems = append(elems, fmt.Sprintf("Service='%s'", f.Service))
	}

	if f.Level != nil {
		elems = append(elems, fmt.Sprintf("Level=%s", f.Level.String()))
	}

	if !f.From.IsZero() {
		elems = append(elems, fmt.Sprintf("From=%s", f.From.Format(time.RFC3339)))
	}

	if !f.To.IsZero() {
		elems = append(elems, fmt.Sprintf("To=%s", f.To.Format(time.RFC3339)))
	}

	if f.Query != "" {
		elems = append(elems, fmt.Sprintf("Query='%s'", f.Query))
	}

	if len(elems) <= 0 {
		return "(match all)"
	}

	return strings.Join(elems, " ")
}

// Match returns true if the provided entry satisfies all of the conditions
// in the filter. The time window is half-open: from inclusive, to
// exclusive.
func (f Filter) Match(e Entry) bool {
	if f.Service != "" {
		if e.Service != f.Service {
			return false
		}
	}

	if f.Level != nil {
		if e.Level != *f.Level {
			return false
		}
	}

	if !f.From.IsZero() || !f.To.IsZero() {
		t := e.Time()
		if t.IsZero() {
			return false // a time window requires a parseable timestamp
		}
		if !f.From.IsZero() && t.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && !t.Before(f.To) {
			return false
		}
	}

	if f.Query != "" {
		if !strings.Contains(strings.ToLower(e.Message), strings.ToLower(f.Query)) {
			return false
		}
	}

	return true
}
