// Package apiclient is a Go client for the Finora HTTP API.
//
// It speaks the server's response envelope, holds the CSRF secret cookie in
// a jar, and transparently attaches a CSRF token to every mutating request.
// The token is fetched once and cached; on a CSRF rejection the client
// refreshes it and retries the request a single time.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"
)

const (
	defaultTokenPath  = "/api/v1/auth/csrf"
	defaultHeaderName = "x-csrf-token"
)

// Error is a failure envelope decoded into a Go error. Code and Message come
// from the envelope's error body; Status is the HTTP status of the response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details json.RawMessage
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (%d): %s", e.Code, e.Status, e.Message)
}

// Client talks to one Finora server. Safe for concurrent use.
type Client struct {
	baseURL    string
	tokenPath  string
	headerName string
	httpc      *http.Client

	// onUnauthorized, when set, is invoked once per 401 response, after the
	// error is built but before it is returned. Typical use: drop local
	// session state or redirect to sign-in.
	onUnauthorized func()

	mu    sync.Mutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client. A cookie jar is
// installed on it if it has none, since the CSRF secret lives in a cookie.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithTokenPath overrides the CSRF token endpoint path.
func WithTokenPath(path string) Option {
	return func(c *Client) { c.tokenPath = path }
}

// WithUnauthorizedHook registers a callback invoked on every 401 response.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New builds a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokenPath:  defaultTokenPath,
		headerName: defaultHeaderName,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if c.httpc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("building cookie jar: %w", err)
		}
		c.httpc.Jar = jar
	}
	return c, nil
}

// envelope is the wire shape of every API response.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// Token returns the cached CSRF token, fetching one from the server when the
// cache is empty or forceRefresh is set. The fetch also primes the secret
// cookie, so a fresh client becomes CSRF-capable in one round trip.
func (c *Client) Token(ctx context.Context, forceRefresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && !forceRefresh {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.tokenPath, nil)
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching csrf token: %w", err)
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp)
	if err != nil {
		return "", err
	}

	var data struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", fmt.Errorf("decoding csrf token: %w", err)
	}
	if data.CSRFToken == "" {
		return "", fmt.Errorf("server returned an empty csrf token")
	}

	c.token = data.CSRFToken
	return c.token, nil
}

// Get performs a GET and returns the envelope's data payload.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST with a JSON body; a CSRF token is attached.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT with a JSON body; a CSRF token is attached.
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Patch performs a PATCH with a JSON body; a CSRF token is attached.
func (c *Client) Patch(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, path, body)
}

// Delete performs a DELETE; a CSRF token is attached.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// mutating reports whether a method needs a CSRF token attached.
func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// do sends one API request and returns the envelope's data payload.
// Mutating requests get a CSRF token; a CSRF rejection triggers one token
// refresh and one retry, then fails for good.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	data, err := c.send(ctx, method, path, body, false)
	if isCSRFReject(err) && mutating(method) {
		data, err = c.send(ctx, method, path, body, true)
	}
	return data, err
}

func isCSRFReject(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusForbidden && e.Code == "CSRF_INVALID"
}

func (c *Client) send(ctx context.Context, method, path string, body any, forceToken bool) (json.RawMessage, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if mutating(method) {
		token, err := c.Token(ctx, forceToken)
		if err != nil {
			return nil, err
		}
		req.Header.Set(c.headerName, token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		apiErr := &Error{Status: resp.StatusCode, Code: "INTERNAL_SERVER_ERROR"}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, apiErr
	}
	return env.Data, nil
}

func decodeEnvelope(resp *http.Response) (*envelope, error) {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	return &env, nil
}
