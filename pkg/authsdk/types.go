package authsdk

// LoginRequest is the payload for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserPayload is the public projection of a user account returned by
// the auth endpoints. Timestamps use RFC 3339.
type UserPayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
	LastLogin string `json:"last_login_at,omitempty"`
	CreatedAt string `json:"created_at"`
}

// SessionResponse is returned by login and renew. The renewal token
// travels separately in an HttpOnly cookie and never appears here.
type SessionResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        UserPayload `json:"user"`
}

// MeResponse is returned by GET /v1/auth/me.
type MeResponse struct {
	User UserPayload `json:"user"`
}

// UsersResponse is returned by GET /v1/admin/users.
type UsersResponse struct {
	Users []UserPayload `json:"users"`
}

// CreateUserRequest is the payload for POST /v1/admin/users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// MessageResponse is a generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse mirrors the error body written by the server.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
