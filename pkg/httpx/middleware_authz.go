package httpx

import "net/http"

// RequireRole enforces a role allow-list after AuthnMiddleware. The check
// is pure: no I/O, just the role the gate attached to the context. A role
// mismatch is 403, which clients must treat as final; renewing a token
// can never fix it.
func RequireRole(allowed ...string) Middleware {
	want := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		want[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := want[roleFromContext(r.Context())]; !ok {
				WriteError(w, http.StatusForbidden, ErrorCodeInsufficientRole,
					"access forbidden: insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
