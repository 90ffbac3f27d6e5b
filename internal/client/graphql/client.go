package graphql

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"gqlwire/internal/shared/upload"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// APIKeyHeader is the header carrying the API key. It is applied before the
// client's default headers, which are applied before per-call headers; each
// layer overrides keys from the previous one.
const APIKeyHeader = "X-Api-Key"

// Request describes a single GraphQL operation.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]any

	// Files are attached at variables.files.<i> in addition to any files
	// embedded inside Variables. Any file present switches the request to
	// the multipart path.
	Files []upload.File
}

// Client executes queries and mutations over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	headers  http.Header
	http     *http.Client
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAPIKey sets the API key sent on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHeader adds a default header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTimeout sets a timeout on the underlying HTTP client. The default is
// no timeout; a stalled request waits until its context is done.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient creates a client for the given GraphQL HTTP endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		headers:  http.Header{},
		http:     &http.Client{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestOption adjusts a single call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	headers http.Header
}

// WithRequestHeader adds a header for this call only, overriding any default
// header with the same key.
func WithRequestHeader(key, value string) RequestOption {
	return func(o *requestOptions) { o.headers.Set(key, value) }
}

// Do executes a GraphQL operation. Requests carrying files are sent as a
// GraphQL multipart request; everything else goes as plain JSON. Network
// failures and non-success statuses are normalized into the response's
// Errors; only local precondition violations return a Go error.
func (c *Client) Do(ctx context.Context, req Request, opts ...RequestOption) (*Response, error) {
	callOpts := requestOptions{headers: http.Header{}}
	for _, opt := range opts {
		opt(&callOpts)
	}

	var (
		body        io.Reader
		contentType string
	)
	if len(req.Files) > 0 || upload.HasFiles(variablesAsAny(req.Variables)) {
		buf, ct, err := upload.BuildBody(req.Query, req.Variables, req.Files)
		if err != nil {
			return nil, fmt.Errorf("build multipart body: %w", err)
		}
		body, contentType = buf, ct
	} else {
		payload, err := json.Marshal(struct {
			Query         string         `json:"query"`
			OperationName string         `json:"operationName,omitempty"`
			Variables     map[string]any `json:"variables,omitempty"`
		}{req.Query, req.OperationName, req.Variables})
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body, contentType = bytes.NewReader(payload), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, err
	}

	if c.apiKey != "" {
		httpReq.Header.Set(APIKeyHeader, c.apiKey)
	}
	for key := range c.headers {
		httpReq.Header.Set(key, c.headers.Get(key))
	}
	for key := range callOpts.headers {
		httpReq.Header.Set(key, callOpts.headers.Get(key))
	}
	// The multipart content type carries the generated boundary and must
	// win over any configured header.
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed", zap.Error(err))
		return errorResponse(err.Error()), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := errorMessageFromBody(raw, resp.Status)
		c.logger.Debug("non-success response",
			zap.Int("status", resp.StatusCode),
			zap.String("message", message),
		)
		return errorResponse(message), nil
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return errorResponse(fmt.Sprintf("decode response: %v", err)), nil
	}
	return &out, nil
}

// variablesAsAny keeps a nil variables map from becoming a non-nil interface.
func variablesAsAny(variables map[string]any) any {
	if variables == nil {
		return nil
	}
	return variables
}
