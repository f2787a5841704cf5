// Package apiclient is the single request pipeline to the license API.
//
// Authenticated requests carry the stored bearer token. A 401 on an
// authenticated request clears the token and hands control to a Navigator
// before the error is returned to the caller.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/benedict-erwin/license-console/pkg/logger"
	"github.com/benedict-erwin/license-console/pkg/tokenstore"
)

// LoginPath is where a forced logout sends the user
const LoginPath = "/login"

const maxBodySize = 4 << 20

// Navigator performs the hard navigation to the login screen after a 401
type Navigator interface {
	Navigate(ctx context.Context, target string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(ctx context.Context, target string)

// Navigate calls f
func (f NavigatorFunc) Navigate(ctx context.Context, target string) {
	f(ctx, target)
}

// Client talks to the license API
type Client struct {
	base      *url.URL
	transport http.RoundTripper
	timeout   time.Duration
	store     tokenstore.Store
	navigator Navigator
	loginPath string

	authed *http.Client
	anon   *http.Client
	log    *logger.ScopedLogger
}

// Option customises a Client
type Option func(*Client)

// WithTransport sets the underlying round tripper (defaults to http.DefaultTransport)
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithTimeout bounds each request, 0 disables the bound
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithNavigator sets the callback run after a 401
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// WithLoginPath overrides the navigation target used after a 401
func WithLoginPath(p string) Option {
	return func(c *Client) { c.loginPath = p }
}

// New builds a client for baseURL that reads tokens from store
func New(baseURL string, store tokenstore.Store, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", baseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: missing host", baseURL)
	}

	c := &Client{
		base:      base,
		transport: http.DefaultTransport,
		store:     store,
		navigator: NavigatorFunc(func(context.Context, string) {}),
		loginPath: LoginPath,
		log:       logger.WithScope("apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.buildHTTPClients()
	return c, nil
}

func (c *Client) buildHTTPClients() {
	c.authed = &http.Client{
		Transport: &bearerTransport{next: c.transport, store: c.store},
		Timeout:   c.timeout,
	}
	c.anon = &http.Client{
		Transport: c.transport,
		Timeout:   c.timeout,
	}
}

// For returns a copy bound to another token store and navigator, sharing transport and base URL
func (c *Client) For(store tokenstore.Store, navigator Navigator) *Client {
	cp := *c
	cp.store = store
	if navigator != nil {
		cp.navigator = navigator
	}
	cp.buildHTTPClients()
	return &cp
}

// BaseURL returns the configured API endpoint
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Ping reports whether the API answers at all; any HTTP status counts as up
func (c *Client) Ping(ctx context.Context) error {
	err := c.DoAnonymous(ctx, http.MethodGet, "/", nil, nil)
	var apiErr *APIError
	if err == nil || errors.As(err, &apiErr) {
		return nil
	}
	return err
}

// Do sends an authenticated request. in is JSON encoded when non-nil, out is decoded when non-nil.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	return c.send(ctx, c.authed, true, method, path, in, out)
}

// DoAnonymous sends a request outside the interceptors: no bearer token, no 401 handling
func (c *Client) DoAnonymous(ctx context.Context, method, path string, in, out any) error {
	return c.send(ctx, c.anon, false, method, path, in, out)
}

// Get is Do with GET
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post is Do with POST
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

// Put is Do with PUT
func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPut, path, in, out)
}

// Delete is Do with DELETE
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) send(ctx context.Context, hc *http.Client, intercept bool, method, path string, in, out any) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("API request failed")
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("API request")

	if resp.StatusCode == http.StatusUnauthorized && intercept {
		return c.handleUnauthorized(ctx, newAPIError(method, path, resp.StatusCode, data))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(method, path, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	target := c.base.JoinPath(path)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// handleUnauthorized clears the session token, asks for navigation to login and returns the caller's error
func (c *Client) handleUnauthorized(ctx context.Context, apiErr *APIError) error {
	c.log.Warn().
		Str("method", apiErr.Method).
		Str("path", apiErr.Path).
		Msg("API rejected the session token, forcing login")

	c.store.Clear(ctx)
	c.navigator.Navigate(ctx, c.loginPath)
	return &UnauthorizedError{APIError: apiErr}
}

// bearerTransport attaches the stored token to every outgoing request
type bearerTransport struct {
	next  http.RoundTripper
	store tokenstore.Store
}

// RoundTrip implements http.RoundTripper
func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, ok := t.store.Get(req.Context())
	if !ok {
		return t.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return t.next.RoundTrip(r)
}
