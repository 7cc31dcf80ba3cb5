package http

import (
	"errors"
	"net/http"

	"github.com/donorlens/donorlens/internal/auth/service"
	"github.com/donorlens/donorlens/pkg/httpx"
	"github.com/donorlens/donorlens/pkg/slogx"
)

// handleRenew mints a fresh access token from the renewal cookie. Any
// rejection clears the cookie so the client stops presenting a
// credential that can never succeed.
func (router *Router) handleRenew(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	cookie, err := r.Cookie(RenewalCookieName)
	if err != nil || cookie.Value == "" {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorCodeNoCredential, "no renewal token")
		return
	}

	grant, err := router.Sessions.Renew(r.Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRenewalExpired),
			errors.Is(err, service.ErrInvalidRenewal):
			router.clearRenewalCookie(w)
			httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorCodeInvalidToken, "renewal token rejected")
		case errors.Is(err, service.ErrAccountInactive):
			router.clearRenewalCookie(w)
			httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorCodeAccountInactive, "account is deactivated")
		default:
			log.Error("renewal failed", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorCodeServerError, "")
		}
		return
	}

	// The renewal token is reused, not rotated, so the cookie that
	// carried it in stays untouched.
	log.Info("session renewed", "user_id", grant.User.ID)
	httpx.WriteJSON(w, http.StatusOK, sessionResponse(grant))
}
