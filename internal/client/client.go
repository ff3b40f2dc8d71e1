// Package client talks to a running deckhand server over its HTTP API
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"deckhand/internal/constants"
	"deckhand/internal/errors"
	"deckhand/internal/logger"
	"deckhand/internal/xdg"
)

// Client is the HTTP client for a deckhand server
type Client struct {
	baseURL    string
	httpClient *http.Client
	password   string
	tokenStore *TokenStore

	mu    sync.Mutex
	token string
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenStore replaces the on-disk session token store
func WithTokenStore(ts *TokenStore) Option {
	return func(c *Client) { c.tokenStore = ts }
}

// New creates a client for serverURL. When password is set the client logs
// in on demand and again whenever the server reports the session expired.
func New(serverURL, password string, opts ...Option) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, errors.InvalidInput("server", "invalid server URL").WithCause(err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("http://" + serverURL)
		if err != nil {
			return nil, errors.InvalidInput("server", "invalid server URL").WithCause(err)
		}
	}

	c := &Client{
		baseURL:  strings.TrimRight(u.String(), "/"),
		password: password,
		httpClient: &http.Client{
			// Compose pulls can legitimately run for minutes
			Timeout: constants.DefaultServerWriteTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.tokenStore == nil {
		ts, err := NewTokenStore()
		if err != nil {
			logger.WithError(err).Debug("Session token store unavailable")
		}
		c.tokenStore = ts
	}
	if token, err := c.tokenStore.Load(c.baseURL); err == nil {
		c.token = token
	}

	return c, nil
}

// BaseURL returns the server URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// SetToken sets the session token and remembers it for later invocations
func (c *Client) SetToken(token string) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return c.tokenStore.Save(c.baseURL, token)
}

// ClearToken forgets the session token
func (c *Client) ClearToken() error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	return c.tokenStore.Save(c.baseURL, "")
}

// IsAuthenticated reports whether the client holds a session token
func (c *Client) IsAuthenticated() bool {
	return c.currentToken() != ""
}

// doRequest performs an HTTP request with the session token, logging in once
// more if the server rejects it
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInternal, "failed to marshal request body", err)
		}
		payload = data
	}

	if !c.IsAuthenticated() && c.password != "" && path != loginPath {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.password != "" && path != loginPath {
		resp.Body.Close()
		logger.WithContext(ctx).Debug("Session rejected, logging in again")
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
		return c.send(ctx, method, path, payload)
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "failed to create request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapWithDetails(errors.ErrServerUnreachable,
			"request to deckhand server failed", fmt.Sprintf("%s %s", method, path), err)
	}
	return resp, nil
}

// getJSON fetches path and decodes a 200 body into v
func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrInternal, "failed to decode response", err)
	}
	return nil
}

// apiResponse mirrors the server's action response body. Error is raw since
// the same field holds a string for failed actions and an object for
// rejected requests.
type apiResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message"`
	Error     json.RawMessage  `json:"error"`
	Output    string           `json:"output"`
	Code      errors.ErrorCode `json:"code"`
	Container string           `json:"container"`
	Completed []string         `json:"completed"`
	Data      json.RawMessage  `json:"data"`
}

// errorMessage returns the error text and code whichever shape it came in
func (r *apiResponse) errorMessage() (string, errors.ErrorCode, string) {
	if len(r.Error) == 0 {
		return "", r.Code, ""
	}

	var text string
	if err := json.Unmarshal(r.Error, &text); err == nil {
		return text, r.Code, ""
	}

	var info errors.ErrorInfo
	if err := json.Unmarshal(r.Error, &info); err == nil {
		return info.Message, info.Code, info.Details
	}
	return string(r.Error), r.Code, ""
}

// postAction posts to an action endpoint and decodes the body whatever the status
func (c *Client) postAction(ctx context.Context, path string, body interface{}) (*apiResponse, int, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, resp.StatusCode, errors.NewWithDetails(errors.ErrInternal,
			"unexpected response from deckhand server", resp.Status)
	}
	return &out, resp.StatusCode, nil
}

// toError rebuilds a structured error from a failed action body
func (r *apiResponse) toError(status int) error {
	message, code, details := r.errorMessage()
	if code == "" {
		code = codeForStatus(status)
	}
	if message == "" {
		message = http.StatusText(status)
	}
	de := errors.NewWithDetails(code, message, details)
	if r.Output != "" {
		de.WithOutput(r.Output)
	}
	if r.Container != "" {
		de.WithContext("container", r.Container)
	}
	return de
}

// decodeError converts a non-2xx response into a structured error
func decodeError(resp *http.Response) error {
	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return errors.NewWithDetails(codeForStatus(resp.StatusCode),
			"request failed", resp.Status)
	}
	return body.toError(resp.StatusCode)
}

func codeForStatus(status int) errors.ErrorCode {
	switch {
	case status == http.StatusUnauthorized:
		return errors.ErrUnauthorized
	case status == http.StatusNotFound:
		return errors.ErrNotFound
	case status >= http.StatusInternalServerError:
		return errors.ErrInternal
	default:
		return errors.ErrInvalidInput
	}
}

// Health checks the health of the server
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	resp, err := c.send(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var health map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "failed to decode response", err)
	}
	return health, nil
}

// TokenStore keeps session tokens per server URL on disk. A nil store keeps
// nothing.
type TokenStore struct {
	path string
	mu   sync.Mutex
}

// NewTokenStore creates a token store under the deckhand config directory
func NewTokenStore() (*TokenStore, error) {
	configDir, err := xdg.ConfigDir()
	if err != nil {
		return nil, err
	}
	return NewTokenStoreAt(filepath.Join(configDir, "sessions.json")), nil
}

// NewTokenStoreAt creates a token store backed by path
func NewTokenStoreAt(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load returns the token saved for server
func (ts *TokenStore) Load(server string) (string, error) {
	if ts == nil {
		return "", nil
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	tokens, err := ts.read()
	if err != nil {
		return "", err
	}
	return tokens[server], nil
}

// Save stores token for server; an empty token removes the entry
func (ts *TokenStore) Save(server, token string) error {
	if ts == nil {
		return nil
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	tokens, err := ts.read()
	if err != nil {
		tokens = map[string]string{}
	}
	if token == "" {
		delete(tokens, server)
	} else {
		tokens[server] = token
	}

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(ts.path), constants.DirPermissions); err != nil {
		return err
	}
	return os.WriteFile(ts.path, data, constants.SecureFilePermissions)
}

func (ts *TokenStore) read() (map[string]string, error) {
	tokens := map[string]string{}
	data, err := os.ReadFile(ts.path)
	if err != nil {
		if os.IsNotExist(err) {
			return tokens, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}
