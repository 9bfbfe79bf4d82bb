package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeArguments converts raw tool arguments into a JSON object.
// It accepts a JSON object or a JSON-encoded string containing one; empty
// and null arguments decode to an empty object. Anything else is an error.
func DecodeArguments(raw string) (map[string]any, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]any{}, nil
	}

	// Some providers return tool args as a JSON string. Unquote once first.
	if trimmed[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(trimmed, &unquoted); err != nil {
			return nil, err
		}
		trimmed = bytes.TrimSpace([]byte(unquoted))
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return map[string]any{}, nil
		}
	}

	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, err
	}
	args, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("arguments must be a JSON object, got %T", v)
	}
	return args, nil
}
