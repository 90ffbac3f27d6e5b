package graphql

import (
	"strings"

	json "github.com/goccy/go-json"
)

// Error is a single GraphQL error returned by the server.
type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// ErrorList is the errors array of a GraphQL response.
type ErrorList []*Error

func (l ErrorList) Error() string {
	parts := make([]string, 0, len(l))
	for _, e := range l {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}

// Response is the uniform result shape of every request. Transport and HTTP
// failures are folded into Errors so callers handle exactly one shape.
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors ErrorList       `json:"errors,omitempty"`
}

// DecodeData unmarshals the data payload into v. If the response carries
// errors they are returned instead and v is left untouched.
func (r *Response) DecodeData(v any) error {
	if len(r.Errors) > 0 {
		return r.Errors
	}
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// errorResponse wraps a transport-level failure in the uniform result shape.
func errorResponse(message string) *Response {
	return &Response{Errors: ErrorList{{Message: message}}}
}

// errorMessageFromBody picks the most specific message out of a non-success
// HTTP body: a parsed "error" string, then "message", then a nested
// "error.message", then the raw status text. A body that is not JSON is
// captured whole under "error".
func errorMessageFromBody(body []byte, statusText string) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		payload = map[string]any{"error": strings.TrimSpace(string(body))}
	}
	if s, ok := payload["error"].(string); ok && s != "" {
		return s
	}
	if s, ok := payload["message"].(string); ok && s != "" {
		return s
	}
	if nested, ok := payload["error"].(map[string]any); ok {
		if s, ok := nested["message"].(string); ok && s != "" {
			return s
		}
	}
	return statusText
}
