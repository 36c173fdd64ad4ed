package logwardhttp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/logward-dev/logward-go"
)

// Interceptor is the framework-agnostic half of the request-logging
// middleware: host frameworks translate their request/response objects
// into Start and End calls, and the interceptor logs request lifecycle
// entries through the client with correlation ids extracted from inbound
// headers. The net/http adapter is [Middleware].
type Interceptor struct {
	// Client receives the request entries. Required.
	Client *logward.Client

	// Service stamped on every entry. Required.
	Service string

	// SkipPrefixes is the list of path prefixes that bypass logging
	// entirely. Default: /health, /healthz.
	SkipPrefixes []string

	// CorrelationHeader is the inbound header carrying the caller's
	// correlation id. Default: X-Correlation-ID.
	CorrelationHeader string
}

// RequestInfo is what the interceptor needs to know about an inbound
// request, independent of the host framework.
type RequestInfo struct {
	Method        string
	Path          string
	RemoteAddr    string
	CorrelationID string
}

// RequestState carries per-request state from Start to End.
type RequestState struct {
	RequestID string
	Method    string
	Path      string
	Began     time.Time
}

func (in *Interceptor) skipPrefixes() []string {
	if in.SkipPrefixes == nil {
		return []string{"/health", "/healthz"}
	}
	return in.SkipPrefixes
}

func (in *Interceptor) correlationHeader() string {
	if in.CorrelationHeader == "" {
		return "X-Correlation-ID"
	}
	return in.CorrelationHeader
}

// Skip reports whether the path bypasses request logging.
func (in *Interceptor) Skip(path string) bool {
	for _, prefix := range in.skipPrefixes() {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Start begins the request scope: the inbound correlation id (sanitized,
// invalid ids are replaced) is installed in the returned context, a
// request id is generated, and a request-received entry is logged at
// DEBUG. Skip-listed paths return a nil state, and End of a nil state is
// a no-op.
func (in *Interceptor) Start(ctx context.Context, info RequestInfo) (context.Context, *RequestState) {
	if in.Skip(info.Path) {
		return ctx, nil
	}

	if info.CorrelationID != "" {
		ctx = logward.WithCorrelation(ctx, info.CorrelationID)
	}

	state := &RequestState{
		RequestID: ulid.Make().String(),
		Method:    info.Method,
		Path:      info.Path,
		Began:     time.Now(),
	}

	in.Client.Debug(ctx, in.Service, "request received", logward.Metadata{
		"method":    info.Method,
		"path":      info.Path,
		"remote":    info.RemoteAddr,
		"requestId": state.RequestID,
	})

	return ctx, state
}

// End completes the request scope, logging the outcome with the duration
// since Start. Successful requests log at INFO; an error or a status of
// 500 and above logs at ERROR with the error serialized into metadata.
// The correlation id ends with the request context, nothing to clear.
func (in *Interceptor) End(ctx context.Context, state *RequestState, status int, bytes int64, err error) {
	if state == nil {
		return
	}

	took := time.Since(state.Began)

	md := logward.Metadata{
		"method":     state.Method,
		"path":       state.Path,
		"status":     status,
		"durationMs": float64(took) / float64(time.Millisecond),
		"requestId":  state.RequestID,
		"bytes":      bytes,
	}

	switch {
	case err != nil:
		md["error"] = err.Error()
		in.Client.Error(ctx, in.Service, "request failed", md)
	case status >= 500:
		in.Client.Error(ctx, in.Service, "request completed", md)
	default:
		in.Client.Info(ctx, in.Service, "request completed", md)
	}
}

// Middleware adapts the interceptor to net/http, logging every request
// served by the wrapped handler. Panics are logged as failed requests and
// re-raised. Skip-listed paths pass through untouched.
func Middleware(client *logward.Client, service string) func(http.Handler) http.Handler {
	in := &Interceptor{Client: client, Service: service}
	return in.Middleware
}

// Middleware is the net/http adapter for a fully configured interceptor.
func (in *Interceptor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, state := in.Start(r.Context(), RequestInfo{
			Method:        r.Method,
			Path:          r.URL.Path,
			RemoteAddr:    r.RemoteAddr,
			CorrelationID: r.Header.Get(in.correlationHeader()),
		})
		if state == nil {
			next.ServeHTTP(w, r)
			return
		}

		iw := newInterceptWriter(w)

		defer func() {
			if p := recover(); p != nil {
				in.End(ctx, state, http.StatusInternalServerError, int64(iw.Written()), fmt.Errorf("panic: %v", p))
				panic(p)
			}
			in.End(ctx, state, iw.Code(), int64(iw.Written()), nil)
		}()

		next.ServeHTTP(iw, r.WithContext(ctx))
	})
}

//
//
//

type interceptWriter struct {
	http.ResponseWriter

	flush func()
	code  int
	n     int
}

func newInterceptWriter(w http.ResponseWriter) *interceptWriter {
	flush := func() {}
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	return &interceptWriter{ResponseWriter: w, flush: flush}
}

func (i *interceptWriter) WriteHeader(code int) {
	if i.code == 0 {
		i.code = code
	}
	i.ResponseWriter.WriteHeader(code)
}

func (i *interceptWriter) Write(p []byte) (int, error) {
	n, err := i.ResponseWriter.Write(p)
	i.n += n
	return n, err
}

func (i *interceptWriter) Code() int {
	if i.code == 0 {
		return http.StatusOK
	}
	return i.code
}

func (i *interceptWriter) Written() int {
	return i.n
}

func (i *interceptWriter) Flush() {
	i.flush()
}
