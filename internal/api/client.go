package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is where a locally running backend serves its API
const DefaultBaseURL = "http://localhost:8088/api/v1"

// TokenStore persists the bearer token between runs
type TokenStore interface {
	Token() string
	SetToken(token string) error
	ClearToken() error
}

// Client issues requests against the backend and unwraps envelopes
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	logger     *zap.Logger

	mu             sync.RWMutex
	onUnauthorized func()
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUnauthorizedHandler sets the hook run after a 401 clears the token
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// NewClient creates a client for baseURL. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, tokens TokenStore, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API prefix requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tokens returns the token store backing the client
func (c *Client) Tokens() TokenStore {
	return c.tokens
}

// OnUnauthorized replaces the auth-failure hook. The router registers itself
// here once it exists.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// Do sends one request and decodes the envelope. A 401, as HTTP status or
// envelope code, ends the session; any other code is returned to the caller
// untouched.
func Do[T any](ctx context.Context, c *Client, method, endpoint string, body any) (*Envelope[T], error) {
	raw, status, err := c.send(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		c.handleUnauthorized()
		return nil, ErrUnauthorized
	}

	var env Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warn("failed to decode response", zap.String("method", method), zap.String("endpoint", endpoint), zap.Error(err))
		return nil, &TransportError{Method: method, Endpoint: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if env.Code == CodeUnauthorized {
		c.handleUnauthorized()
		return nil, ErrUnauthorized
	}

	return &env, nil
}

// Get issues a GET request
func Get[T any](ctx context.Context, c *Client, endpoint string) (*Envelope[T], error) {
	return Do[T](ctx, c, http.MethodGet, endpoint, nil)
}

// Post issues a POST request with a JSON body
func Post[T any](ctx context.Context, c *Client, endpoint string, body any) (*Envelope[T], error) {
	return Do[T](ctx, c, http.MethodPost, endpoint, body)
}

// Put issues a PUT request with a JSON body
func Put[T any](ctx context.Context, c *Client, endpoint string, body any) (*Envelope[T], error) {
	return Do[T](ctx, c, http.MethodPut, endpoint, body)
}

// Delete issues a DELETE request; body may be nil
func Delete[T any](ctx context.Context, c *Client, endpoint string, body any) (*Envelope[T], error) {
	return Do[T](ctx, c, http.MethodDelete, endpoint, body)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("method", method), zap.String("endpoint", endpoint), zap.Error(err))
		return nil, 0, &TransportError{Method: method, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &TransportError{Method: method, Endpoint: endpoint, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return raw, resp.StatusCode, nil
}

func (c *Client) handleUnauthorized() {
	if c.tokens != nil {
		if err := c.tokens.ClearToken(); err != nil {
			c.logger.Warn("failed to clear token", zap.Error(err))
		}
	}
	c.logger.Info("backend rejected session, redirecting to login")

	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
