package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

const defaultRenewTimeout = 10 * time.Second

// Client talks to the auth server. The renewal token lives in an
// HttpOnly cookie managed by the client's cookie jar, so it is never
// visible to callers.
type Client struct {
	baseURL string
	httpc   *http.Client
	session *Session
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is
// installed on it if it does not already have one.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithRenewTimeout bounds how long a renewal attempt may take. Callers
// blocked on the attempt fail together once it elapses.
func WithRenewTimeout(d time.Duration) Option {
	return func(c *Client) { c.session.coordinator.timeout = d }
}

// WithOnLogout registers a hook invoked synchronously whenever the
// session ends, either by an explicit Logout or a failed renewal.
func WithOnLogout(fn func()) Option {
	return func(c *Client) { c.session.onLogout = fn }
}

// New builds a Client for the auth server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("authsdk: base URL is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
	c.session = newSession(c)

	for _, opt := range opts {
		opt(c)
	}

	if c.httpc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("authsdk: create cookie jar: %w", err)
		}
		c.httpc.Jar = jar
	}
	return c, nil
}

// Session exposes the client's session state.
func (c *Client) Session() *Session { return c.session }

// send performs a single request with the given bearer token. It does
// not renew; do handles that.
func (c *Client) send(ctx context.Context, method, path string, body, out any, token string) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("authsdk: encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("authsdk: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("authsdk: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("authsdk: decode response: %w", err)
	}
	return nil
}

// do performs an authenticated request. On a 401 it coordinates a
// single renewal with any concurrent callers, then replays the request
// exactly once with the fresh token. A second 401 on the replay means
// the session is gone and the caller must log in again.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token := c.session.AccessToken()
	err := c.send(ctx, method, path, body, out, token)
	if !IsUnauthorized(err) {
		return err
	}
	// Renewal cannot recover a deactivated account; end the session
	// without attempting it.
	if isAccountInactive(err) {
		c.session.clear()
		return fmt.Errorf("%w: %v", ErrReauthRequired, err)
	}

	if err := c.session.coordinator.await(ctx, token); err != nil {
		return err
	}

	err = c.send(ctx, method, path, body, out, c.session.AccessToken())
	if IsUnauthorized(err) {
		return fmt.Errorf("%w: %v", ErrReauthRequired, err)
	}
	return err
}

// Me returns the account behind the current session. With no access
// token but a live renewal cookie it transparently restores the
// session first.
func (c *Client) Me(ctx context.Context) (UserPayload, error) {
	var resp MeResponse
	if err := c.do(ctx, http.MethodGet, "/v1/auth/me", nil, &resp); err != nil {
		return UserPayload{}, err
	}
	return resp.User, nil
}

// ListUsers returns every account. Requires the ADMIN role.
func (c *Client) ListUsers(ctx context.Context) ([]UserPayload, error) {
	var resp UsersResponse
	if err := c.do(ctx, http.MethodGet, "/v1/admin/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// CreateUser provisions a new account. Requires the ADMIN role.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (UserPayload, error) {
	var resp MeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/admin/users", req, &resp); err != nil {
		return UserPayload{}, err
	}
	return resp.User, nil
}
