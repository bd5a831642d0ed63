// Package store persists user records and the lockout counters attached to
// them.
package store

import (
	"context"

	"github.com/yourusername/sig-gestion/internal/model"
)

// UserStore is the credential store consumed by the account service.
//
// Every method maps to a single statement against the database; the
// increment/read-back pair used by the lockout flow is intentionally two
// separate calls (see usuario.Service.Authenticate).
type UserStore interface {
	// FindByUsername returns the full record for an exact username match,
	// or model.ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*model.Usuario, error)

	// FindByID returns the full record, or model.ErrNotFound.
	FindByID(ctx context.Context, id int64) (*model.Usuario, error)

	// FindAll lists every user, newest first, without password hashes.
	FindAll(ctx context.Context) ([]model.Usuario, error)

	// Exists reports whether a username is already taken.
	Exists(ctx context.Context, username string) (bool, error)

	// Create inserts a self-registered user (active by default).
	// Returns model.ErrAlreadyExists on a username collision.
	Create(ctx context.Context, username, passwordHash string) (int64, error)

	// CreateInternal inserts a user from the admin panel with an explicit
	// active flag. Returns model.ErrAlreadyExists on a username collision.
	CreateInternal(ctx context.Context, username, passwordHash string, active bool) (int64, error)

	// UpdateUsername renames a user. Returns model.ErrAlreadyExists on a
	// collision.
	UpdateUsername(ctx context.Context, id int64, username string) error

	// UpdatePassword replaces the stored hash.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// Activate and Deactivate toggle the active flag. Both are idempotent
	// and leave the attempt counter and lock state untouched.
	Activate(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error

	// UpdateLastLogin stamps the last successful authentication.
	UpdateLastLogin(ctx context.Context, id int64) error

	// GetFailedAttempts returns the current failed-attempt counter, 0 for
	// unknown usernames.
	GetFailedAttempts(ctx context.Context, username string) (int, error)

	// IsLocked reports whether a lock is currently in effect.
	IsLocked(ctx context.Context, username string) (bool, error)

	// LockUntil locks the account for the given number of minutes from now.
	LockUntil(ctx context.Context, username string, minutes int) error

	// Unlock clears the lock and resets the attempt counter.
	Unlock(ctx context.Context, id int64) error

	// IncreaseFailedAttempts adds one to the attempt counter.
	IncreaseFailedAttempts(ctx context.Context, username string) error

	// ResetFailedAttempts sets the attempt counter back to zero.
	ResetFailedAttempts(ctx context.Context, id int64) error

	// Close releases the underlying database handle.
	Close() error
}
