package logwardhttp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logward-dev/logward-go"
	"github.com/logward-dev/logward-go/logwardhttp"
)

// memTransport collects sent batches and stubs the read path.
type memTransport struct {
	mtx     sync.Mutex
	entries []logward.Entry
}

func (t *memTransport) Send(ctx context.Context, batch []logward.Entry) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.entries = append(t.entries, batch...)
	return nil
}

func (t *memTransport) Query(ctx context.Context, req logward.QueryRequest) (*logward.QueryResponse, error) {
	return &logward.QueryResponse{}, nil
}

func (t *memTransport) Stream(ctx context.Context, req logward.StreamRequest, ch chan<- logward.Entry) error {
	<-ctx.Done()
	return nil
}

func (t *memTransport) Stats(ctx context.Context, req logward.StatsRequest) (*logward.StatsResponse, error) {
	return &logward.StatsResponse{}, nil
}

func (t *memTransport) Close() error { return nil }

func (t *memTransport) sent() []logward.Entry {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return append([]logward.Entry(nil), t.entries...)
}

func newTestClient(t *testing.T) (*logward.Client, *memTransport) {
	t.Helper()

	transport := &memTransport{}
	cfg := logward.DefaultConfig()
	cfg.APIURL = "http://localhost:0"
	cfg.APIKey = "test"

	client, err := logward.NewClient(cfg, transport)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, transport
}

func TestMiddlewareLogsRequests(t *testing.T) {
	t.Parallel()

	client, transport := newTestClient(t)

	handler := logwardhttp.Middleware(client, "api")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))

	const correlationID = "0f8fad5b-d9cb-469f-a165-70867728950e"

	req := httptest.NewRequest("GET", "/orders/42", nil)
	req.Header.Set("X-Correlation-ID", correlationID)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NoError(t, client.Flush(context.Background()))

	entries := transport.sent()
	require.Len(t, entries, 2)

	received, completed := entries[0], entries[1]

	assert.Equal(t, logward.LevelDebug, received.Level)
	assert.Equal(t, "request received", received.Message)
	assert.Equal(t, "api", received.Service)
	assert.Equal(t, correlationID, received.CorrelationID)
	assert.Equal(t, "GET", received.Metadata["method"])
	assert.Equal(t, "/orders/42", received.Metadata["path"])
	assert.NotEmpty(t, received.Metadata["requestId"])

	assert.Equal(t, logward.LevelInfo, completed.Level)
	assert.Equal(t, "request completed", completed.Message)
	assert.Equal(t, correlationID, completed.CorrelationID)
	assert.Equal(t, 200, completed.Metadata["status"])
	assert.Equal(t, int64(5), completed.Metadata["bytes"])
	assert.Equal(t, received.Metadata["requestId"], completed.Metadata["requestId"])
}

func TestMiddlewareSanitizesCorrelation(t *testing.T) {
	t.Parallel()

	client, transport := newTestClient(t)

	handler := logwardhttp.Middleware(client, "api")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Correlation-ID", "definitely-not-a-uuid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NoError(t, client.Flush(context.Background()))

	entries := transport.sent()
	require.NotEmpty(t, entries)
	assert.NotEqual(t, "definitely-not-a-uuid", entries[0].CorrelationID)
	assert.True(t, logward.ValidCorrelationID(entries[0].CorrelationID))
}

func TestMiddlewareSkipList(t *testing.T) {
	t.Parallel()

	client, transport := newTestClient(t)

	handler := logwardhttp.Middleware(client, "api")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/healthz", "/health/live"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	require.NoError(t, client.Flush(context.Background()))
	assert.Empty(t, transport.sent())
}

func TestMiddlewareServerError(t *testing.T) {
	t.Parallel()

	client, transport := newTestClient(t)

	handler := logwardhttp.Middleware(client, "api")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/broken", nil))

	require.NoError(t, client.Flush(context.Background()))

	entries := transport.sent()
	require.Len(t, entries, 2)
	assert.Equal(t, logward.LevelError, entries[1].Level)
	assert.Equal(t, "request completed", entries[1].Message)
	assert.Equal(t, 500, entries[1].Metadata["status"])
}

func TestMiddlewarePanic(t *testing.T) {
	t.Parallel()

	client, transport := newTestClient(t)

	handler := logwardhttp.Middleware(client, "api")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	require.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/explode", nil))
	})

	require.NoError(t, client.Flush(context.Background()))

	entries := transport.sent()
	require.Len(t, entries, 2)
	assert.Equal(t, logward.LevelError, entries[1].Level)
	assert.Equal(t, "request failed", entries[1].Message)
	assert.Contains(t, entries[1].Metadata["error"], "kaboom")
}

func TestInterceptorCustomConfig(t *testing.T) {
	t.Parallel()

	client, transport := newTestClient(t)

	in := &logwardhttp.Interceptor{
		Client:            client,
		Service:           "gateway",
		SkipPrefixes:      []string{"/internal"},
		CorrelationHeader: "X-Request-Trace",
	}

	handler := in.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// The default skip list is replaced, so /healthz is logged now.
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/internal/debug", nil))

	const correlationID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	req := httptest.NewRequest("GET", "/v2/orders", nil)
	req.Header.Set("X-Request-Trace", correlationID)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NoError(t, client.Flush(context.Background()))

	entries := transport.sent()
	require.Len(t, entries, 4) // healthz pair + orders pair, /internal skipped

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Metadata["path"].(string))
	}
	assert.NotContains(t, paths, "/internal/debug")
	assert.Equal(t, correlationID, entries[3].CorrelationID)
}
