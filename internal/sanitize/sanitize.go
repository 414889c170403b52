package sanitize

import (
	"fmt"

	"github.com/streambeat/streambeat/internal/model"
)

// PlaceholderID replaces an id field whose value is not a plain string.
const PlaceholderID = "[object]"

// argKeys is the allow-list of sub-fields copied from a payload's args map.
var argKeys = []string{"app", "tcUrl", "type"}

// Sanitize converts an arbitrary, possibly attacker-influenced event payload
// into a flat SafeRecord. It extracts the id (placeholder when not a string),
// the streamPath, the allow-listed args sub-fields, and any remaining
// top-level scalar fields. Object-, array-, and function-valued fields are
// dropped silently. It never panics, regardless of input shape, and never
// recurses, so self-referential payloads terminate.
func Sanitize(event string, payload interface{}) model.SafeRecord {
	out := model.SafeRecord{}

	raw, ok := payload.(map[string]interface{})
	if !ok {
		return out
	}

	if v, present := raw["id"]; present {
		if s, ok := v.(string); ok {
			out["id"] = s
		} else {
			out["id"] = PlaceholderID
		}
	}

	if v, present := raw["streamPath"]; present {
		if s := scalarString(v); s != "" {
			out["streamPath"] = s
		}
	}

	if args, ok := raw["args"].(map[string]interface{}); ok {
		safe := make(map[string]string, len(argKeys))
		for _, key := range argKeys {
			v, present := args[key]
			if !present {
				continue
			}
			if s := scalarString(v); s != "" {
				safe[key] = s
			}
		}
		out["args"] = safe
	}

	for key, v := range raw {
		switch key {
		case "id", "streamPath", "args":
			continue
		}
		if sv, ok := scalarValue(v); ok {
			out[key] = sv
		}
	}

	return out
}

// scalarValue returns v unchanged when it is a scalar after JSON decoding
// or direct construction. Containers and anything else are rejected.
func scalarValue(v interface{}) (interface{}, bool) {
	switch v.(type) {
	case string, bool,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return v, true
	default:
		return nil, false
	}
}

// scalarString renders a scalar value as a string, or "" for non-scalars.
func scalarString(v interface{}) string {
	sv, ok := scalarValue(v)
	if !ok {
		return ""
	}
	if s, ok := sv.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", sv)
}
