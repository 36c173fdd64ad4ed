// Package logward is the client SDK for the Logward log-management
// service: applications call simple logging methods, and the SDK buffers,
// batches, and ships entries to the ingestion API in the background.
//
// The basic idea is that logging must never slow down or crash the host
// application. Logging methods validate, enrich, and buffer the entry,
// then return; a background scheduler flushes the buffer periodically, and
// crossing the configured batch size triggers an immediate asynchronous
// flush. Delivery failures are retried with exponential backoff behind a
// circuit breaker that stops hammering an unhealthy backend while still
// probing for recovery.
//
// The price of that design is best-effort delivery. A full buffer rejects
// new entries rather than growing without bound, and a batch that exhausts
// its retries, or is drained while the breaker is open, is lost. Both
// conditions are observable through [Client.Metrics] and, with debugging
// enabled, through diagnostic logging. Buffered entries are also lost on
// process crash; call [Client.Close] on the way out to flush what remains.
//
// Entries carry an optional correlation id linking logs that belong to one
// logical request, resolved from two sources: a context value set with
// [WithCorrelation] takes precedence, and a process-wide ambient slot set
// with [SetCorrelation] is the fallback for code running detached from any
// request context. Inbound ids that do not look like UUIDv4 are replaced,
// never propagated verbatim.
//
// The HTTP transport, and middleware that logs requests automatically with
// correlation ids extracted from inbound headers, live in
// [github.com/logward-dev/logward-go/logwardhttp].
package logward
