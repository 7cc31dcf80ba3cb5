package domain

import "time"

// SessionGrant is what a successful login or renewal produces: a fresh
// access token, the renewal token that backs it, and the identity it was
// minted for. Renewal reuses the presented renewal token unchanged; only
// login mints a new one.
type SessionGrant struct {
	AccessToken  string
	RenewalToken string
	ExpiresIn    time.Duration // access token lifetime
	User         User
}
