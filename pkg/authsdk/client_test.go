package authsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testCookieName = "donorlens_renewal"
	testEmail      = "amelia@donorlens.org"
	testPassword   = "correct horse"
)

// fakeAuthServer mimics the auth server closely enough to exercise the
// client: bearer access tokens, an HttpOnly renewal cookie, and a
// renew endpoint with a failure switch.
type fakeAuthServer struct {
	mu          sync.Mutex
	accessSeq   int
	validAccess map[string]bool
	validRenew  map[string]bool

	renewCalls atomic.Int64
	renewFail  atomic.Bool
	rejectMe   atomic.Bool
	inactive   atomic.Bool
	renewDelay time.Duration

	srv *httptest.Server
}

func newFakeAuthServer(t *testing.T) *fakeAuthServer {
	t.Helper()

	f := &fakeAuthServer{
		validAccess: make(map[string]bool),
		validRenew:  make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/login", f.handleLogin)
	mux.HandleFunc("POST /v1/auth/renew", f.handleRenew)
	mux.HandleFunc("POST /v1/auth/logout", f.handleLogout)
	mux.HandleFunc("GET /v1/auth/me", f.handleMe)
	mux.HandleFunc("GET /v1/admin/users", f.handleAdmin)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAuthServer) grant(w http.ResponseWriter) {
	f.mu.Lock()
	f.accessSeq++
	access := "access-" + strconv.Itoa(f.accessSeq)
	f.validAccess[access] = true
	f.validRenew["renew-token"] = true
	f.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     testCookieName,
		Value:    "renew-token",
		Path:     "/v1/auth",
		HttpOnly: true,
	})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SessionResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   900,
		User:        UserPayload{ID: "u1", Email: testEmail, Role: "USER", Active: true},
	})
}

func writeAuthError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code})
}

func (f *fakeAuthServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email != testEmail || req.Password != testPassword {
		writeAuthError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	f.grant(w)
}

func (f *fakeAuthServer) handleRenew(w http.ResponseWriter, r *http.Request) {
	f.renewCalls.Add(1)
	if f.renewDelay > 0 {
		time.Sleep(f.renewDelay)
	}

	cookie, err := r.Cookie(testCookieName)
	f.mu.Lock()
	ok := err == nil && f.validRenew[cookie.Value]
	f.mu.Unlock()

	if f.renewFail.Load() || !ok {
		writeAuthError(w, http.StatusUnauthorized, "invalid_token")
		return
	}
	f.grant(w)
}

func (f *fakeAuthServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	clear(f.validAccess)
	clear(f.validRenew)
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MessageResponse{Message: "logged out"})
}

func (f *fakeAuthServer) authorized(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	if len(auth) < 8 || auth[:7] != "Bearer " {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validAccess[auth[7:]]
}

func (f *fakeAuthServer) handleMe(w http.ResponseWriter, r *http.Request) {
	if f.inactive.Load() {
		writeAuthError(w, http.StatusUnauthorized, "account_inactive")
		return
	}
	if f.rejectMe.Load() || !f.authorized(r) {
		writeAuthError(w, http.StatusUnauthorized, "invalid_token")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MeResponse{User: UserPayload{ID: "u1", Email: testEmail, Role: "USER", Active: true}})
}

func (f *fakeAuthServer) handleAdmin(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		writeAuthError(w, http.StatusUnauthorized, "invalid_token")
		return
	}
	writeAuthError(w, http.StatusForbidden, "insufficient_role")
}

// expireAccess invalidates every outstanding access token without
// touching the renewal token, forcing the next request to renew.
func (f *fakeAuthServer) expireAccess() {
	f.mu.Lock()
	clear(f.validAccess)
	f.mu.Unlock()
}

func newTestClient(t *testing.T, f *fakeAuthServer, opts ...Option) *Client {
	t.Helper()
	c, err := New(f.srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestSessionLogin(t *testing.T) {
	f := newFakeAuthServer(t)
	c := newTestClient(t, f)
	ctx := context.Background()

	require.False(t, c.Session().Authenticated())

	user, err := c.Session().Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, testEmail, user.Email)
	require.True(t, c.Session().Authenticated())
	require.NotEmpty(t, c.Session().AccessToken())
	require.Equal(t, "u1", c.Session().User().ID)
}

func TestSessionLoginBadPassword(t *testing.T) {
	f := newFakeAuthServer(t)
	c := newTestClient(t, f)

	_, err := c.Session().Login(context.Background(), testEmail, "wrong")
	require.True(t, IsUnauthorized(err))
	require.False(t, c.Session().Authenticated())
}

func TestExpiredAccessRenewsAndReplays(t *testing.T) {
	f := newFakeAuthServer(t)
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.Session().Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	stale := c.Session().AccessToken()

	f.expireAccess()

	user, err := c.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, testEmail, user.Email)
	require.EqualValues(t, 1, f.renewCalls.Load())
	require.NotEqual(t, stale, c.Session().AccessToken())
}

func TestConcurrentFailuresShareOneRenewal(t *testing.T) {
	f := newFakeAuthServer(t)
	f.renewDelay = 50 * time.Millisecond
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.Session().Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	f.expireAccess()

	const callers = 16
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Me(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, f.renewCalls.Load())
}

func TestForbiddenDoesNotRenew(t *testing.T) {
	f := newFakeAuthServer(t)
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.Session().Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	_, err = c.ListUsers(ctx)
	require.True(t, IsForbidden(err))
	require.EqualValues(t, 0, f.renewCalls.Load())
	require.True(t, c.Session().Authenticated())
}

func TestReplayFailureDoesNotRenewAgain(t *testing.T) {
	f := newFakeAuthServer(t)
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.Session().Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	// Renewal succeeds but the replayed request 401s anyway. One
	// renewal per original failure, then give up.
	f.rejectMe.Store(true)

	_, err = c.Me(ctx)
	require.ErrorIs(t, err, ErrReauthRequired)
	require.EqualValues(t, 1, f.renewCalls.Load())
}

func TestFailedRenewalEndsSession(t *testing.T) {
	f := newFakeAuthServer(t)
	var loggedOut atomic.Int64
	c := newTestClient(t, f, WithOnLogout(func() { loggedOut.Add(1) }))
	ctx := context.Background()

	_, err := c.Session().Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	f.expireAccess()
	f.renewFail.Store(true)

	_, err = c.Me(ctx)
	require.ErrorIs(t, err, ErrReauthRequired)
	require.False(t, c.Session().Authenticated())
	require.Nil(t, c.Session().User())
	require.EqualValues(t, 1, loggedOut.Load())
}

func TestConcurrentFailedRenewalUniformOutcome(t *testing.T) {
	f := newFakeAuthServer(t)
	f.renewDelay = 50 * time.Millisecond
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.Session().Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	f.expireAccess()
	f.renewFail.Store(true)

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Me(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.ErrorIs(t, err, ErrReauthRequired)
	}
	require.EqualValues(t, 1, f.renewCalls.Load())
}

func TestFailedRenewalDoesNotRetryAutomatically(t *testing.T) {
	f := newFakeAuthServer(t)
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.Session().Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	f.expireAccess()
	f.renewFail.Store(true)

	_, err = c.Me(ctx)
	require.ErrorIs(t, err, ErrReauthRequired)
	require.EqualValues(t, 1, f.renewCalls.Load())

	// Further requests fail fast without another renewal round trip.
	_, err = c.Me(ctx)
	require.ErrorIs(t, err, ErrReauthRequired)
	_, err = c.ListUsers(ctx)
	require.ErrorIs(t, err, ErrReauthRequired)
	require.EqualValues(t, 1, f.renewCalls.Load())

	// A fresh login arms renewal again.
	f.renewFail.Store(false)
	_, err = c.Session().Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	f.expireAccess()
	_, err = c.Me(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, f.renewCalls.Load())
}

func TestInactiveAccountSkipsRenewal(t *testing.T) {
	f := newFakeAuthServer(t)
	var loggedOut atomic.Int64
	c := newTestClient(t, f, WithOnLogout(func() { loggedOut.Add(1) }))
	ctx := context.Background()

	_, err := c.Session().Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	f.inactive.Store(true)

	_, err = c.Me(ctx)
	require.ErrorIs(t, err, ErrReauthRequired)
	require.EqualValues(t, 0, f.renewCalls.Load())
	require.False(t, c.Session().Authenticated())
	require.EqualValues(t, 1, loggedOut.Load())
}

func TestSessionRestoreFromCookie(t *testing.T) {
	f := newFakeAuthServer(t)
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.Session().Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	// Simulate a restart: the cookie jar survives, the in-memory
	// token does not.
	jar := c.httpc.Jar
	restarted := newTestClient(t, f, WithHTTPClient(&http.Client{Jar: jar}))

	user, err := restarted.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, testEmail, user.Email)
	require.True(t, restarted.Session().Authenticated())
}

func TestLogoutIdempotent(t *testing.T) {
	f := newFakeAuthServer(t)
	var loggedOut atomic.Int64
	c := newTestClient(t, f, WithOnLogout(func() { loggedOut.Add(1) }))
	ctx := context.Background()

	_, err := c.Session().Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	require.NoError(t, c.Session().Logout(ctx))
	require.NoError(t, c.Session().Logout(ctx))

	require.False(t, c.Session().Authenticated())
	require.EqualValues(t, 1, loggedOut.Load())
}

func TestWaiterContextCancellation(t *testing.T) {
	f := newFakeAuthServer(t)
	f.renewDelay = 200 * time.Millisecond
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.Session().Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	f.expireAccess()

	started := make(chan struct{})
	go func() {
		close(started)
		c.Me(ctx)
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	// A waiter that gives up early does not disturb the in-flight
	// renewal.
	wctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	err = c.session.coordinator.await(wctx, c.session.AccessToken())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
