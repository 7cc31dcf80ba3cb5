package service

import (
	"context"
	"errors"
	"strings"

	"github.com/donorlens/donorlens/internal/auth/domain"
	"github.com/donorlens/donorlens/internal/auth/store"
	"github.com/donorlens/donorlens/pkg/cryptox"
	"github.com/donorlens/donorlens/pkg/idx"
)

var (
	ErrUserNotFound = errors.New("user_not_found")
	ErrInvalidRole  = errors.New("invalid_role")
	ErrEmailTaken   = errors.New("email_taken")
)

// UserService covers the non-token user operations the auth surface
// needs: session restore, the admin listing, and account creation used by
// the bootstrap hook.
type UserService struct {
	Store store.Store
}

// CurrentUser loads the authenticated subject for session restore. The
// caller has already passed the authorization gate, so an inactive or
// deleted account here means it changed state since the token was minted.
func (s *UserService) CurrentUser(ctx context.Context, subjectID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	if !user.Active {
		return domain.User{}, ErrAccountInactive
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// CreateUser hashes the password and inserts a new account.
func (s *UserService) CreateUser(ctx context.Context, email, fullName, password string, role domain.Role) (domain.User, error) {
	if !role.Valid() {
		return domain.User{}, ErrInvalidRole
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	// Re-read so the caller sees the store-assigned timestamps.
	return s.Store.Users().GetUserByID(ctx, user.ID)
}
