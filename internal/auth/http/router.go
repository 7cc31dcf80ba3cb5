package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/donorlens/donorlens/internal/auth/domain"
	"github.com/donorlens/donorlens/internal/auth/service"
	"github.com/donorlens/donorlens/internal/auth/store"
	"github.com/donorlens/donorlens/pkg/authsdk"
	"github.com/donorlens/donorlens/pkg/httpx"
	"github.com/donorlens/donorlens/pkg/jwtx"
)

// Router wires the auth endpoints onto a mux. Everything it needs is
// injected so tests can stand up a full router against an in-memory
// store.
type Router struct {
	Sessions *service.SessionService
	Users    *service.UserService
	Codec    *jwtx.Codec
	Store    store.Store

	SecureCookies bool
	RenewalTTL    time.Duration
	Version       string
}

// ApplyRoutes registers every endpoint. Login and renew are rate
// limited by client IP; authenticated reads by subject.
func (router *Router) ApplyRoutes(mux *http.ServeMux) {
	authn := httpx.AuthnMiddleware(router.Codec, router.subjectActive)

	mux.Handle("POST /v1/auth/login", httpx.Chain(
		http.HandlerFunc(router.handleLogin),
		httpx.RateLimitByIP(httpx.StrictLimit),
	))
	mux.Handle("POST /v1/auth/renew", httpx.Chain(
		http.HandlerFunc(router.handleRenew),
		httpx.RateLimitByIP(httpx.ModerateLimit),
	))
	// Logout takes no credential: a client whose access token already
	// expired must still be able to clear its renewal cookie.
	mux.Handle("POST /v1/auth/logout", httpx.Chain(
		http.HandlerFunc(router.handleLogout),
		httpx.RateLimitByIP(httpx.ModerateLimit),
	))
	mux.Handle("GET /v1/auth/me", httpx.Chain(
		http.HandlerFunc(router.handleMe),
		authn,
		httpx.RateLimitBySubject(httpx.LenientLimit),
	))

	mux.Handle("GET /v1/admin/users", httpx.Chain(
		http.HandlerFunc(router.handleListUsers),
		authn,
		httpx.RequireRole(string(domain.RoleAdmin)),
	))
	mux.Handle("POST /v1/admin/users", httpx.Chain(
		http.HandlerFunc(router.handleCreateUser),
		authn,
		httpx.RequireRole(string(domain.RoleAdmin)),
	))

	mux.HandleFunc("GET /livez", router.handleLivez)
	mux.HandleFunc("GET /readyz", router.handleReadyz)
}

// subjectActive is the authn middleware's liveness check. A vanished
// subject is indistinguishable from a deactivated one.
func (router *Router) subjectActive(ctx context.Context, subjectID string) (bool, error) {
	user, err := router.Store.Users().GetUserByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.Active, nil
}

func userPayload(u domain.User) authsdk.UserPayload {
	p := authsdk.UserPayload{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.LastLoginAt != nil {
		p.LastLogin = u.LastLoginAt.UTC().Format(time.RFC3339)
	}
	return p
}

func sessionResponse(grant *domain.SessionGrant) authsdk.SessionResponse {
	return authsdk.SessionResponse{
		AccessToken: grant.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(grant.ExpiresIn / time.Second),
		User:        userPayload(grant.User),
	}
}
