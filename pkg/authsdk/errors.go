package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrReauthRequired is returned once the session can no longer be
// renewed. The caller must log in again before retrying.
var ErrReauthRequired = errors.New("authsdk: reauthentication required")

// APIError is a non-2xx response from the auth server.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authsdk: %s (%d): %s", e.Code, e.StatusCode, e.Description)
	}
	return fmt.Sprintf("authsdk: %s (%d)", e.Code, e.StatusCode)
}

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsForbidden reports whether err is an APIError with status 403.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}

const codeAccountInactive = "account_inactive"

// isAccountInactive reports a 401 whose code marks the account as
// deactivated. Renewal cannot recover it.
func isAccountInactive(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == codeAccountInactive
}

// errorFromResponse drains resp and builds an APIError from its body.
// Bodies that are not the standard error shape still produce a usable
// error carrying the status code.
func errorFromResponse(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Code: "unknown_error"}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}

	var parsed ErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		apiErr.Code = parsed.Error
		apiErr.Description = parsed.ErrorDescription
	}
	return apiErr
}
