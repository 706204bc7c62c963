// Package platform is the HTTP client for the PIMIS backend API.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/pimis/internal/errors"
	"github.com/felixgeelhaar/pimis/internal/log"
	"github.com/felixgeelhaar/pimis/internal/metrics"
	"github.com/felixgeelhaar/pimis/internal/telemetry"
)

// DefaultBaseURL is the API root of a local backend.
const DefaultBaseURL = "http://localhost:5000/api/v1"

// Client is the backend API client. It holds no credentials; callers pass
// the bearer token per request so the session store stays the single owner.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	logger  *log.Logger
	metrics *metrics.Metrics
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTPClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request debug logs
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records backend calls
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a new backend API client
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// ErrorResponse represents an API error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

// doRequest performs an HTTP request, with bearer authentication when token is set
func (c *Client) doRequest(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.HTTPClient.Do(req)
}

// parseResponse decodes a 2xx body into target, or returns an *APIError
func parseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Method:     resp.Request.Method,
			Path:       resp.Request.URL.Path,
		}

		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil {
			switch {
			case errResp.Message != "":
				apiErr.Message = errResp.Message
			case errResp.Error != "":
				apiErr.Message = errResp.Error
			case errResp.Msg != "":
				apiErr.Message = errResp.Msg
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}

	if target == nil {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetworkOrServer, "failed to read response", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.Wrap(errors.ErrCodeNetworkOrServer, "failed to decode response", err)
	}
	return nil
}

// call wraps one request in a span, a metric and a debug log.
func (c *Client) call(ctx context.Context, method, path, token string, body, target any) error {
	ctx, span := telemetry.StartBackendSpan(ctx, method, path)
	defer span.End()

	start := time.Now()
	resp, err := c.doRequest(ctx, method, path, token, body)
	if err != nil {
		c.metrics.RecordBackend(path, 0)
		telemetry.RecordError(span, err)
		c.logger.WithContext(ctx).DebugContext(ctx, "backend request failed", "method", method, "path", path, "error", err.Error())
		return errors.Wrap(errors.ErrCodeNetworkOrServer, fmt.Sprintf("%s %s failed", method, path), err).
			WithSuggestion("Check that the API url in 'pimis config view' is reachable")
	}

	c.metrics.RecordBackend(path, resp.StatusCode)
	c.logger.WithContext(ctx).DebugContext(ctx, "backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if err := parseResponse(resp, target); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	telemetry.RecordSuccess(span, attribute.Int("http.response.status_code", resp.StatusCode))
	return nil
}

// Get performs an authenticated GET and returns the raw JSON body.
func (c *Client) Get(ctx context.Context, token, path string) (json.RawMessage, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Ping reports the status code of an unauthenticated profile request.
// Any response at all means the backend is reachable; a 401 is expected.
func (c *Client) Ping(ctx context.Context) (int, error) {
	ctx, span := telemetry.StartBackendSpan(ctx, http.MethodGet, "/users/me")
	defer span.End()

	resp, err := c.doRequest(ctx, http.MethodGet, "/users/me", "", nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, errors.Wrap(errors.ErrCodeNetworkOrServer, "backend unreachable", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	telemetry.RecordSuccess(span, attribute.Int("http.response.status_code", resp.StatusCode))
	return resp.StatusCode, nil
}
