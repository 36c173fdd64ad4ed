package logward

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Sender is the write half of the transport, and the only part the
// delivery path depends on. Send transmits the batch in order, returning
// an error on any non-2xx response or network failure.
type Sender interface {
	Send(ctx context.Context, batch []Entry) error
}

// Transport is the full collaborator consumed by the client: delivery plus
// the thin read-path proxy. logwardhttp.API is the standard implementation.
type Transport interface {
	Sender

	// Query runs a paged historical query.
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)

	// Stream subscribes to matching entries as the backend observes them,
	// sending each on ch. It blocks until the context is canceled (the
	// cancellation handle) or the connection fails.
	Stream(ctx context.Context, req StreamRequest, ch chan<- Entry) error

	// Stats fetches aggregated counts over a time range.
	Stats(ctx context.Context, req StatsRequest) (*StatsResponse, error)

	// Close releases any resources held by the transport.
	Close() error
}

//
//
//

// QueryRequest describes a complete historical query.
type QueryRequest struct {
	Filter Filter `json:"filter,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Normalize ensures the query request is valid, modifying it if necessary.
// It returns any errors encountered in the process.
func (req *QueryRequest) Normalize() []error {
	var errs []error

	for _, err := range req.Filter.Normalize() {
		errs = append(errs, fmt.Errorf("filter: %w", err))
	}

	switch {
	case req.Limit <= 0:
		req.Limit = QueryLimitDefault
	case req.Limit < QueryLimitMin:
		req.Limit = QueryLimitMin
	case req.Limit > QueryLimitMax:
		req.Limit = QueryLimitMax
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	return errs
}

// String implements fmt.Stringer.
func (req QueryRequest) String() string {
	var elems []string

	elems = append(elems, fmt.Sprintf("Filter:[%s]", req.Filter))
	elems = append(elems, fmt.Sprintf("Limit:%d", req.Limit))

	if req.Offset != 0 {
		elems = append(elems, fmt.Sprintf("Offset:%d", req.Offset))
	}

	return strings.Join(elems, " ")
}

const (
	// QueryLimitMin is the minimum query limit.
	QueryLimitMin = 1

	// QueryLimitDefault is the default query limit.
	QueryLimitDefault = 100

	// QueryLimitMax is the maximum query limit.
	QueryLimitMax = 1000
)

// QueryResponse is the result of a historical query: one page of matching
// entries plus paging information.
type QueryResponse struct {
	Logs   []Entry `json:"logs"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

//
//
//

// StreamRequest describes a live subscription.
type StreamRequest struct {
	Filter Filter `json:"filter,omitempty"`
}

//
//
//

// StatsRequest describes an aggregated-stats query. From and To are
// required; Interval defaults to one minute.
type StatsRequest struct {
	From     time.Time     `json:"from"`
	To       time.Time     `json:"to"`
	Interval time.Duration `json:"interval,omitempty"`
	Service  string        `json:"service,omitempty"`
}

// Normalize ensures the stats request is valid, modifying it if necessary.
// It returns any errors encountered in the process.
func (req *StatsRequest) Normalize() []error {
	var errs []error

	if req.From.IsZero() {
		errs = append(errs, fmt.Errorf("from: required"))
	}

	if req.To.IsZero() {
		errs = append(errs, fmt.Errorf("to: required"))
	}

	if !req.From.IsZero() && !req.To.IsZero() && req.To.Before(req.From) {
		errs = append(errs, fmt.Errorf("time range: to (%s) is before from (%s)", req.To.Format(time.RFC3339), req.From.Format(time.RFC3339)))
	}

	if req.Interval <= 0 {
		req.Interval = StatsIntervalDefault
	}

	return errs
}

// StatsIntervalDefault is the default stats bucketing interval.
const StatsIntervalDefault = time.Minute

// StatsBucket is one interval-aligned aggregation bucket.
type StatsBucket struct {
	Start   time.Time      `json:"start"`
	Count   int            `json:"count"`
	ByLevel map[string]int `json:"byLevel,omitempty"`
}

// StatsResponse is the result of an aggregated-stats query. The backend
// echoes the normalized range and interval it aggregated over.
type StatsResponse struct {
	From     time.Time     `json:"from"`
	To       time.Time     `json:"to"`
	Interval time.Duration `json:"interval"`
	Total    int           `json:"total"`
	Buckets  []StatsBucket `json:"buckets"`
}
