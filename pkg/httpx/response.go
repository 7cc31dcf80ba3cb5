package httpx

import (
	"encoding/json"
	"net/http"
)

// Error codes shared between the server responses and the client SDK.
const (
	ErrorCodeNoCredential       = "no_credential"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeAccountInactive    = "account_inactive"
	ErrorCodeInsufficientRole   = "insufficient_role"
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeServerError        = "server_error"
)

// WriteJSON writes a JSON response with the given status code. Token and
// identity payloads must never be cached, so no-store is always set.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the wire error shape the SDK parses.
func WriteError(w http.ResponseWriter, status int, code, desc string) {
	WriteJSON(w, status, map[string]string{
		"error":             code,
		"error_description": desc,
	})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
