package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/donorlens/donorlens/internal/auth/service"
	"github.com/donorlens/donorlens/pkg/authsdk"
	"github.com/donorlens/donorlens/pkg/httpx"
	"github.com/donorlens/donorlens/pkg/slogx"
)

// handleLogin exchanges credentials for a session grant. The access
// token goes in the body, the renewal token in an HttpOnly cookie.
// Every credential failure gets the same 401 so the response does not
// leak which accounts exist.
func (router *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorCodeInvalidRequest, "malformed JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorCodeInvalidRequest, "email and password are required")
		return
	}

	grant, err := router.Sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorCodeInvalidCredentials, "invalid email or password")
			return
		}
		log.Error("login failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorCodeServerError, "")
		return
	}

	log.Info("login", "user_id", grant.User.ID, "role", grant.User.Role)
	router.setRenewalCookie(w, grant.RenewalToken, router.RenewalTTL)
	httpx.WriteJSON(w, http.StatusOK, sessionResponse(grant))
}
