package logward

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
)

// Metadata is arbitrarily nested structured data attached to an entry.
// Values are expected to be JSON-representable: strings, numbers, bools,
// nil, []any, and map[string]any. Anything else is converted during
// normalization, falling back to its string form.
type Metadata map[string]any

// merged returns a shallow merge of m and overlay, with overlay keys
// winning. Neither input is modified. The result is nil when both inputs
// are empty.
func (m Metadata) merged(overlay Metadata) Metadata {
	if len(m) == 0 && len(overlay) == 0 {
		return nil
	}

	out := make(Metadata, len(m)+len(overlay))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// normalized rewrites every value into the closed set of JSON types,
// recursing through maps and slices.
func (m Metadata) normalized() Metadata {
	if len(m) == 0 {
		return nil
	}

	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return x

	case Metadata:
		return map[string]any(x.normalized())

	case map[string]any:
		return map[string]any(Metadata(x).normalized())

	case map[string]string:
		out := make(map[string]any, len(x))
		for k, v := range x {
			out[k] = v
		}
		return out

	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = normalizeValue(x[i])
		}
		return out

	case []string:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out

	case error:
		return x.Error()

	default:
		// Marshalable values pass through as-is. Everything else
		// (channels, funcs, etc.) degrades to its string form.
		if _, err := json.Marshal(x); err == nil {
			return x
		}
		return fmt.Sprintf("%v", x)
	}
}

// errorMetadata serializes err into structured metadata carrying the
// concrete type name, the message, and a stack trace of the call site.
func errorMetadata(err error) Metadata {
	if err == nil {
		return nil
	}
	return Metadata{
		"error": map[string]any{
			"kind":    fmt.Sprintf("%T", err),
			"message": err.Error(),
			"stack":   string(debug.Stack()),
		},
	}
}
