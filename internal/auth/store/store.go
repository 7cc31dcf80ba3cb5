package store

import (
	"context"
	"errors"
	"time"

	"github.com/donorlens/donorlens/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface the auth service consumes.
// The token paths only ever read active-status and role from it; identity
// mutation lives behind the admin surface.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by id. Verification and renewal paths use
	// this to re-check active-status on every request.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login. Lookup is case-insensitive on
	// the stored lowercased email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// ListUsers returns all users ordered by creation date (newest first).
	ListUsers(ctx context.Context) ([]domain.User, error)

	// RecordLogin stamps last_login_at on successful primary authentication.
	RecordLogin(ctx context.Context, userID string, at time.Time) error

	// SetActive flips the account active flag.
	SetActive(ctx context.Context, userID string, active bool) error

	// UpdateRole changes a user's role. Access tokens minted before the
	// change keep the old role until they expire; renewal picks up the new one.
	UpdateRole(ctx context.Context, userID string, role domain.Role) error

	// IsEmpty returns true if there are no users (bootstrap check).
	IsEmpty(ctx context.Context) (bool, error)
}
