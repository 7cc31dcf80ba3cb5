package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/donorlens/donorlens/internal/auth/domain"
	"github.com/donorlens/donorlens/internal/auth/store"
	"github.com/donorlens/donorlens/pkg/cryptox"
	"github.com/donorlens/donorlens/pkg/jwtx"
	"github.com/donorlens/donorlens/pkg/slogx"
)

var (
	// ErrInvalidCredentials is the single outcome for every login failure:
	// unknown email, wrong password, or deactivated account. Callers must
	// not be able to tell which, so accounts cannot be enumerated.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	ErrInvalidRenewal  = errors.New("invalid_renewal_token")
	ErrRenewalExpired  = errors.New("renewal_token_expired")
	ErrAccountInactive = errors.New("account_inactive")
)

// dummyHash is an argon2id hash of a random throwaway value. Login runs a
// password comparison against it when the email is unknown so the unknown
// and wrong-password paths take comparable time.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=2$" +
	"AAECAwQFBgcICQoLDA0ODw$ZGVmZ2hpamtsbW5vcHFyc3R1dnd4eXp7fH1+f4CBgoM"

// SessionService issues the paired access/renewal tokens on login and
// fresh access tokens on renewal. It never persists either token; the
// user store is its only state.
type SessionService struct {
	Codec *jwtx.Codec
	Store store.Store
	Now   func() time.Time // defaults to time.Now
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login validates primary credentials and mints a new token pair. Any
// failure collapses to ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.SessionGrant, error) {
	l := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn comparable work so response timing does not reveal
			// whether the account exists.
			_ = cryptox.VerifyPassword(password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login password mismatch", slog.String("user_id", user.ID))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active {
		l.Info("login attempt on deactivated account", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.Store.Users().RecordLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	access, err := s.Codec.IssueAccess(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	renewal, err := s.Codec.IssueRenewal(user.ID)
	if err != nil {
		return nil, err
	}

	return &domain.SessionGrant{
		AccessToken:  access,
		RenewalToken: renewal,
		ExpiresIn:    s.Codec.AccessTTL(),
		User:         user,
	}, nil
}

// Renew verifies a renewal token and mints a fresh access token bound to
// the subject's current role, not the role it held when the renewal token
// was issued. The renewal token itself is not rotated; it stays valid
// until its own expiry or logout.
func (s *SessionService) Renew(ctx context.Context, renewalToken string) (*domain.SessionGrant, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Codec.VerifyRenewal(renewalToken)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return nil, ErrRenewalExpired
		}
		return nil, ErrInvalidRenewal
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRenewal
		}
		return nil, err
	}

	if !user.Active {
		l.Info("renewal rejected for deactivated account", slog.String("user_id", user.ID))
		return nil, ErrAccountInactive
	}

	access, err := s.Codec.IssueAccess(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &domain.SessionGrant{
		AccessToken:  access,
		RenewalToken: renewalToken,
		ExpiresIn:    s.Codec.AccessTTL(),
		User:         user,
	}, nil
}
