package http

import (
	"net/http"

	"github.com/donorlens/donorlens/pkg/authsdk"
	"github.com/donorlens/donorlens/pkg/httpx"
	"github.com/donorlens/donorlens/pkg/slogx"
)

// handleLogout clears the renewal cookie. There is no server-side
// session record to delete; the outstanding access token simply runs
// out. Calling it with no session is still a success.
func (router *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(RenewalCookieName); err == nil {
		slogx.FromContext(r.Context()).Info("logout")
	}
	router.clearRenewalCookie(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "logged out"})
}
