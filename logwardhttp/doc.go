// Package logwardhttp provides the HTTP transport for the Logward client
// SDK, and net/http middleware that logs requests through a client.
//
// [API] implements [logward.Transport] against the Logward HTTP API:
// batch ingestion as an authenticated POST, historical queries and
// aggregated stats as GETs, and live streaming over server-sent events.
//
// [Middleware] wraps an [net/http.Handler] so that every request is
// logged with its method, path, status, and duration, under a correlation
// id extracted from the inbound X-Correlation-ID header. The underlying
// [Interceptor] is framework-agnostic: adapters for other HTTP frameworks
// only need to translate their request/response objects into Start and
// End calls.
package logwardhttp
