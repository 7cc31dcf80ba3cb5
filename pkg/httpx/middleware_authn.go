package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/donorlens/donorlens/pkg/jwtx"
	"github.com/donorlens/donorlens/pkg/slogx"
)

// AccessVerifier verifies an access token and returns its claims.
type AccessVerifier interface {
	VerifyAccess(token string) (jwtx.Claims, error)
}

// SubjectCheck reports whether the subject still exists and is active.
// A missing subject is (false, nil), not an error; errors are reserved
// for infrastructure failures.
type SubjectCheck func(ctx context.Context, subjectID string) (active bool, err error)

// AuthnMiddleware is the authorization gate: it extracts the bearer
// token, verifies it, re-checks the subject's active status, and attaches
// the identity to the request context. Every rejection is terminal; the
// server never attempts renewal on the client's behalf.
func AuthnMiddleware(v AccessVerifier, check SubjectCheck) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, ErrorCodeNoCredential, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.VerifyAccess(raw)
			if err != nil {
				// Expired and malformed collapse to the same outcome;
				// the split is only worth a log line.
				log.Warn("access token rejected", "err", err)
				writeBearerError(w, ErrorCodeInvalidToken, "token invalid or expired")
				return
			}

			active, err := check(ctx, claims.Subject)
			if err != nil {
				log.Error("subject status lookup failed", "err", err)
				WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
				return
			}
			if !active {
				writeBearerError(w, ErrorCodeAccountInactive, "account not found or deactivated")
				return
			}

			ctx = contextWithIdentity(ctx, Identity{
				SubjectID: claims.Subject,
				Role:      claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-style bearer rejection with a JSON body the SDK can parse.
func writeBearerError(w http.ResponseWriter, code, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, code, desc)
}
