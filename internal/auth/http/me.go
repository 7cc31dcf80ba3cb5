package http

import (
	"errors"
	"net/http"

	"github.com/donorlens/donorlens/internal/auth/service"
	"github.com/donorlens/donorlens/pkg/authsdk"
	"github.com/donorlens/donorlens/pkg/httpx"
	"github.com/donorlens/donorlens/pkg/slogx"
)

// handleMe returns the account behind the presented access token.
func (router *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorCodeNoCredential, "")
		return
	}

	user, err := router.Users.CurrentUser(r.Context(), identity.SubjectID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrAccountInactive):
			httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorCodeAccountInactive, "account is deactivated")
		default:
			slogx.FromContext(r.Context()).Error("load current user", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorCodeServerError, "")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{User: userPayload(user)})
}
