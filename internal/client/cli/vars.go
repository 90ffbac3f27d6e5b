package cli

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// ParseVars turns repeated key=value flags into GraphQL variables. Values are
// decoded as JSON when possible, so numbers, booleans, arrays and objects
// come through typed; anything that is not valid JSON stays a string.
func ParseVars(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q, expected key=value", pair)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		vars[key] = value
	}
	return vars, nil
}

// ParseHeaders turns repeated Key: Value flags into a header map.
func ParseHeaders(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Key: Value'", pair)
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers, nil
}
