package audit

import (
	"encoding/json"
	"fmt"
)

const (
	maxStringLen    = 5000
	maxListItems    = 50
	truncationMark  = "...(truncated)"
	listTruncNotice = "...(truncated, %d more items)"
)

// sanitizeValue recursively bounds a tool response before it is stored:
// strings beyond maxStringLen are cut with a marker, lists beyond
// maxListItems are cut with a count notice, and maps recurse over their
// values. Other JSON-decoded scalar types pass through unchanged.
func sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		if len(val) > maxStringLen {
			return val[:maxStringLen] + truncationMark
		}
		return val
	case []any:
		if len(val) > maxListItems {
			out := make([]any, 0, maxListItems+1)
			for _, item := range val[:maxListItems] {
				out = append(out, sanitizeValue(item))
			}
			out = append(out, fmt.Sprintf(listTruncNotice, len(val)-maxListItems))
			return out
		}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = sanitizeValue(item)
		}
		return out
	default:
		return val
	}
}

// sanitizeResponse bounds and redacts a raw tool response before storage.
// Non-JSON responses are treated as a single string. A decode failure falls
// back to treating the raw bytes as a string rather than dropping data.
func sanitizeResponse(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return mustMarshal(redact(string(raw)))
	}

	if s, ok := decoded.(string); ok {
		return mustMarshal(redact(s))
	}

	sanitized := sanitizeValue(decoded)
	reencoded, err := json.Marshal(sanitized)
	if err != nil {
		return raw
	}
	return json.RawMessage(redact(string(reencoded)))
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`""`)
	}
	return b
}
