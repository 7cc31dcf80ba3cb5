package http

import (
	"net/http"
	"time"
)

// RenewalCookieName carries the renewal token. HttpOnly keeps it out
// of reach of scripts; the path scope keeps it off every request that
// is not a renewal or logout.
const RenewalCookieName = "donorlens_renewal"

const renewalCookiePath = "/v1/auth"

func (router *Router) setRenewalCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RenewalCookieName,
		Value:    token,
		Path:     renewalCookiePath,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   router.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (router *Router) clearRenewalCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RenewalCookieName,
		Value:    "",
		Path:     renewalCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   router.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
