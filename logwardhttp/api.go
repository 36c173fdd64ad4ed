package logwardhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/peterbourgon/unixtransport"

	"github.com/logward-dev/logward-go"
	"github.com/logward-dev/logward-go/internal/logwardutil"
)

// API paths, relative to the configured base URL.
const (
	pathLogs   = "/v1/logs"
	pathStream = "/v1/logs/stream"
	pathStats  = "/v1/stats"
)

// HTTPClient models an [http.Client] and allows callers to provide their
// own implementation.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ HTTPClient = (*http.Client)(nil)

// API is the standard HTTP implementation of [logward.Transport]. It
// speaks to the Logward ingestion and query endpoints, authenticating
// every request with a bearer token.
type API struct {
	client HTTPClient
	base   *url.URL
	key    string

	// RetryInterval is the reconnect hint given to the SSE stream
	// connection. Default 3s, min 1s, max 60s.
	RetryInterval time.Duration
}

var _ logward.Transport = (*API)(nil)

// NewAPI returns an API talking to the given base URL with a default HTTP
// client. The client has unixtransport registered, so http+unix:// and
// https+unix:// URLs work out of the box.
func NewAPI(apiURL, apiKey string) (*API, error) {
	t := &http.Transport{}
	unixtransport.Register(t)
	return NewAPIWithClient(&http.Client{Transport: t}, apiURL, apiKey)
}

// NewAPIWithClient is like NewAPI with an injected HTTP client.
func NewAPIWithClient(client HTTPClient, apiURL, apiKey string) (*API, error) {
	if client == nil {
		return nil, &logward.ValidationError{Field: "client", Reason: "must not be nil"}
	}

	if strings.TrimSpace(apiURL) == "" {
		return nil, &logward.ValidationError{Field: "apiUrl", Reason: "must not be blank"}
	}

	if strings.TrimSpace(apiKey) == "" {
		return nil, &logward.ValidationError{Field: "apiKey", Reason: "must not be blank"}
	}

	if !strings.Contains(apiURL, "://") {
		apiURL = "http://" + apiURL
	}

	base, err := url.Parse(apiURL)
	if err != nil {
		return nil, &logward.ValidationError{Field: "apiUrl", Reason: err.Error()}
	}

	return &API{
		client: client,
		base:   base,
		key:    apiKey,
	}, nil
}

// Send transmits the batch as a single POST of `{"logs": [...]}`. Any
// non-2xx response is an *APIError.
func (a *API) Send(ctx context.Context, batch []logward.Entry) error {
	body, err := json.Marshal(map[string]any{"logs": batch})
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.endpoint(pathLogs, nil), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create HTTP request: %w", err)
	}

	req.Header.Set("content-type", "application/json; charset=utf-8")
	a.authorize(req)

	res, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute HTTP request: %w", err)
	}
	defer drainAndClose(res.Body)

	if err := checkStatus(res); err != nil {
		return err
	}

	return nil
}

// Query runs a paged historical query against the logs endpoint.
func (a *API) Query(ctx context.Context, req logward.QueryRequest) (*logward.QueryResponse, error) {
	if errs := req.Normalize(); len(errs) > 0 {
		return nil, fmt.Errorf("bad request: %s", joinErrors(errs))
	}

	query := encodeFilter(req.Filter)
	query.Set("limit", strconv.Itoa(req.Limit))
	if req.Offset > 0 {
		query.Set("offset", strconv.Itoa(req.Offset))
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", a.endpoint(pathLogs, query), nil)
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}

	a.authorize(httpReq)

	httpRes, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute HTTP request: %w", err)
	}
	defer drainAndClose(httpRes.Body)

	if err := checkStatus(httpRes); err != nil {
		return nil, err
	}

	var res logward.QueryResponse
	if err := json.NewDecoder(httpRes.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}

	return &res, nil
}

// Stats fetches aggregated counts over a time range.
func (a *API) Stats(ctx context.Context, req logward.StatsRequest) (*logward.StatsResponse, error) {
	if errs := req.Normalize(); len(errs) > 0 {
		return nil, fmt.Errorf("bad request: %s", joinErrors(errs))
	}

	query := url.Values{}
	query.Set("from", req.From.UTC().Format(time.RFC3339Nano))
	query.Set("to", req.To.UTC().Format(time.RFC3339Nano))
	query.Set("interval", req.Interval.String())
	if req.Service != "" {
		query.Set("service", req.Service)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", a.endpoint(pathStats, query), nil)
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}

	a.authorize(httpReq)

	httpRes, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute HTTP request: %w", err)
	}
	defer drainAndClose(httpRes.Body)

	if err := checkStatus(httpRes); err != nil {
		return nil, err
	}

	var res logward.StatsResponse
	if err := json.NewDecoder(httpRes.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode stats response: %w", err)
	}

	return &res, nil
}

// Close releases idle connections when the underlying client supports it.
func (a *API) Close() error {
	if c, ok := a.client.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
	return nil
}

func (a *API) endpoint(path string, query url.Values) string {
	u := *a.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (a *API) authorize(req *http.Request) {
	req.Header.Set("authorization", "Bearer "+a.key)
}

//
//
//

// APIError is a non-2xx response from the Logward API. It carries the
// status code and a prefix of the response body for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP response %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("HTTP response %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// maxErrorBodyBytes caps the response body kept in an APIError.
const maxErrorBodyBytes = 512

func checkStatus(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBodyBytes))

	return &APIError{
		StatusCode: res.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

//
//
//

func encodeFilter(f logward.Filter) url.Values {
	query := url.Values{}

	if f.Service != "" {
		query.Set("service", f.Service)
	}

	if f.Level != nil {
		query.Set("level", f.Level.String())
	}

	if !f.From.IsZero() {
		query.Set("from", f.From.UTC().Format(time.RFC3339Nano))
	}

	if !f.To.IsZero() {
		query.Set("to", f.To.UTC().Format(time.RFC3339Nano))
	}

	if f.Query != "" {
		query.Set("q", f.Query)
	}

	return query
}

func joinErrors(errs []error) string {
	return strings.Join(logwardutil.FlattenErrors(errs...), "; ")
}

func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}
