package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Session holds the in-memory half of a login: the access token and
// the authenticated user. The renewal token stays in the HTTP cookie
// jar. All accessors are safe for concurrent use.
type Session struct {
	client *Client

	mu          sync.RWMutex
	accessToken string
	user        *UserPayload

	coordinator *renewCoordinator
	onLogout    func()
}

func newSession(c *Client) *Session {
	s := &Session{client: c}
	s.coordinator = &renewCoordinator{
		timeout: defaultRenewTimeout,
		renew:   s.renewOnce,
		current: s.AccessToken,
	}
	return s
}

// AccessToken returns the current access token, or "" when logged out.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// User returns the authenticated user, or nil when logged out.
func (s *Session) User() *UserPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated reports whether the session currently holds an access
// token.
func (s *Session) Authenticated() bool {
	return s.AccessToken() != ""
}

// Login exchanges credentials for a session. The server's Set-Cookie
// lands in the jar; the grant lands here.
func (s *Session) Login(ctx context.Context, email, password string) (UserPayload, error) {
	var resp SessionResponse
	req := LoginRequest{Email: email, Password: password}
	if err := s.client.send(ctx, http.MethodPost, "/v1/auth/login", req, &resp, ""); err != nil {
		return UserPayload{}, err
	}
	s.applyGrant(resp)
	s.coordinator.reset()
	return resp.User, nil
}

// Logout ends the session on both sides: local state first, so
// dependents see it synchronously, then the server call that clears
// the renewal cookie. It is idempotent.
func (s *Session) Logout(ctx context.Context) error {
	wasLive := s.Authenticated()
	s.clear()

	if !wasLive {
		return nil
	}
	if err := s.client.send(ctx, http.MethodPost, "/v1/auth/logout", nil, nil, ""); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			// The server already considers us logged out.
			return nil
		}
		return err
	}
	return nil
}

func (s *Session) applyGrant(resp SessionResponse) {
	s.mu.Lock()
	s.accessToken = resp.AccessToken
	user := resp.User
	s.user = &user
	s.mu.Unlock()
}

// clear wipes the session and fires the logout hook synchronously, so
// dependents observe the logged-out state before any further request
// is attempted.
func (s *Session) clear() {
	s.mu.Lock()
	wasLive := s.accessToken != "" || s.user != nil
	s.accessToken = ""
	s.user = nil
	hook := s.onLogout
	s.mu.Unlock()

	if wasLive && hook != nil {
		hook()
	}
}

// renewOnce performs a single renewal round trip. The renewal cookie
// rides along via the jar. Any failure ends the session.
func (s *Session) renewOnce(ctx context.Context) error {
	var resp SessionResponse
	err := s.client.send(ctx, http.MethodPost, "/v1/auth/renew", nil, &resp, "")
	if err != nil {
		s.clear()
		return fmt.Errorf("%w: %v", ErrReauthRequired, err)
	}
	s.applyGrant(resp)
	return nil
}
