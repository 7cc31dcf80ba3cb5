package jwtx

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Access tokens are deliberately short-lived so a
// leaked token has a small exposure window; the renewal token carries the
// long lifetime and is only ever presented to the renewal endpoint.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRenewalTTL = 14 * 24 * time.Hour
)

var (
	// ErrNoSigningSecret reports missing signing material. This is a
	// startup-time configuration failure, never a per-request one.
	ErrNoSigningSecret = errors.New("jwtx: signing secret not configured")

	// ErrBadTTL reports an invalid TTL configuration. The access TTL must
	// be strictly shorter than the renewal TTL.
	ErrBadTTL = errors.New("jwtx: invalid token ttl configuration")

	// ErrExpired and ErrMalformed are the only verification failures.
	// Callers treat both as "unauthenticated"; the split exists for
	// diagnostics only.
	ErrExpired   = errors.New("jwtx: token expired")
	ErrMalformed = errors.New("jwtx: malformed or tampered token")
)

// Token use markers embedded as a claim so an access token can never be
// replayed against the renewal path even if the secrets were misconfigured
// to the same value.
const (
	useAccess  = "access"
	useRenewal = "renewal"
)

// Claims is the verified content of a token.
type Claims struct {
	Subject   string
	Role      string // empty on renewal tokens
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Config configures a Codec. Secrets are independent: the access secret
// signs the short-lived token presented on every request, the renewal
// secret signs the long-lived token presented only to the renewal endpoint.
type Config struct {
	AccessSecret  []byte
	RenewalSecret []byte
	AccessTTL     time.Duration // defaults to DefaultAccessTTL
	RenewalTTL    time.Duration // defaults to DefaultRenewalTTL
	Issuer        string
	Now           func() time.Time // defaults to time.Now, injectable for tests
}

// Codec mints and verifies the signed, expiring session tokens. It is
// stateless; validity is fully determined by signature and expiry at
// verification time.
type Codec struct {
	accessSecret  []byte
	renewalSecret []byte
	accessTTL     time.Duration
	renewalTTL    time.Duration
	issuer        string
	now           func() time.Time
}

func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RenewalSecret) == 0 {
		return nil, ErrNoSigningSecret
	}
	if subtle.ConstantTimeCompare(cfg.AccessSecret, cfg.RenewalSecret) == 1 {
		// Shared secrets would let one token class stand in for the other.
		return nil, ErrNoSigningSecret
	}

	c := &Codec{
		accessSecret:  cfg.AccessSecret,
		renewalSecret: cfg.RenewalSecret,
		accessTTL:     cfg.AccessTTL,
		renewalTTL:    cfg.RenewalTTL,
		issuer:        cfg.Issuer,
		now:           cfg.Now,
	}
	if c.accessTTL == 0 {
		c.accessTTL = DefaultAccessTTL
	}
	if c.renewalTTL == 0 {
		c.renewalTTL = DefaultRenewalTTL
	}
	if c.accessTTL <= 0 || c.renewalTTL <= 0 || c.accessTTL >= c.renewalTTL {
		return nil, ErrBadTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RenewalTTL returns the configured renewal token lifetime.
func (c *Codec) RenewalTTL() time.Duration { return c.renewalTTL }

type tokenClaims struct {
	jwt.RegisteredClaims

	Role string `json:"role,omitempty"`
	Use  string `json:"use"`
}

// IssueAccess mints a short-lived access token carrying the subject and
// its role tag.
func (c *Codec) IssueAccess(subject, role string) (string, error) {
	return c.sign(c.accessSecret, subject, role, useAccess, c.accessTTL)
}

// IssueRenewal mints a long-lived renewal token. It carries no role: the
// role is re-read from the subject record at renewal time.
func (c *Codec) IssueRenewal(subject string) (string, error) {
	return c.sign(c.renewalSecret, subject, "", useRenewal, c.renewalTTL)
}

func (c *Codec) sign(secret []byte, subject, role, use string, ttl time.Duration) (string, error) {
	now := c.now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
		Use:  use,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyAccess validates an access token. It fails closed: any structural,
// signature, or expiry problem yields ErrMalformed or ErrExpired, never a
// partial result.
func (c *Codec) VerifyAccess(token string) (Claims, error) {
	return c.verify(c.accessSecret, token, useAccess)
}

// VerifyRenewal validates a renewal token.
func (c *Codec) VerifyRenewal(token string) (Claims, error) {
	return c.verify(c.renewalSecret, token, useRenewal)
}

func (c *Codec) verify(secret []byte, token, use string) (Claims, error) {
	parsed := tokenClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrMalformed
	}

	if parsed.Use != use || parsed.Subject == "" {
		return Claims{}, ErrMalformed
	}

	out := Claims{
		Subject: parsed.Subject,
		Role:    parsed.Role,
	}
	if parsed.IssuedAt != nil {
		out.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		out.ExpiresAt = parsed.ExpiresAt.Time
	}
	return out, nil
}
