package logward

import (
	"context"
	"regexp"

	"github.com/google/uuid"

	"github.com/logward-dev/logward-go/internal/logwardutil"
)

type correlationContextKey struct{}

var correlationContextVal correlationContextKey

// ambientCorrelation is the process-wide fallback slot, read by code that
// runs detached from any request-scoped context. Last writer wins; the
// context tier is the isolated one.
var ambientCorrelation = logwardutil.NewAtomic("")

var correlationIDRegexp = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// NewCorrelationID returns a freshly generated UUIDv4 correlation id.
func NewCorrelationID() string {
	return uuid.NewString()
}

// ValidCorrelationID reports whether s has UUIDv4 shape.
func ValidCorrelationID(s string) bool {
	return correlationIDRegexp.MatchString(s)
}

// sanitizeCorrelationID returns s when it has UUIDv4 shape, and a fresh id
// otherwise. External ids are never propagated verbatim.
func sanitizeCorrelationID(s string) string {
	if ValidCorrelationID(s) {
		return s
	}
	return NewCorrelationID()
}

// WithCorrelation derives a context carrying the given correlation id.
// Ids without UUIDv4 shape are replaced with freshly generated ones.
// Contexts derived from the result inherit the id; mutations via further
// WithCorrelation calls never leak back to the parent context.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationContextVal, sanitizeCorrelationID(id))
}

// CorrelationFromContext returns the correlation id carried by the context,
// if any.
func CorrelationFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationContextVal).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Correlation resolves the effective correlation id: the context value
// takes precedence, then the ambient fallback. Empty when neither is set.
func Correlation(ctx context.Context) string {
	if id, ok := CorrelationFromContext(ctx); ok {
		return id
	}
	return ambientCorrelation.Get()
}

// SetCorrelation sets the ambient fallback correlation id. Ids without
// UUIDv4 shape are replaced with freshly generated ones.
func SetCorrelation(id string) {
	ambientCorrelation.Set(sanitizeCorrelationID(id))
}

// ClearCorrelation clears the ambient fallback correlation id.
func ClearCorrelation() {
	ambientCorrelation.Set("")
}

// AmbientCorrelation returns the ambient fallback correlation id, which
// is empty when unset.
func AmbientCorrelation() string {
	return ambientCorrelation.Get()
}

// WithCorrelationScope runs fn with the given id installed in both tiers,
// the derived context passed to fn and the ambient fallback slot. The
// previous ambient id is restored on every exit path, including panics.
func WithCorrelationScope(ctx context.Context, id string, fn func(context.Context) error) error {
	id = sanitizeCorrelationID(id)

	prev := ambientCorrelation.Swap(id)
	defer ambientCorrelation.Set(prev)

	return fn(context.WithValue(ctx, correlationContextVal, id))
}

// WithNewCorrelationScope generates a fresh id and delegates to
// WithCorrelationScope.
func WithNewCorrelationScope(ctx context.Context, fn func(context.Context) error) error {
	return WithCorrelationScope(ctx, NewCorrelationID(), fn)
}
