// Package usuario implements the account service: authentication with
// brute-force lockout, registration and the admin panel operations.
package usuario

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/sig-gestion/internal/model"
	"github.com/yourusername/sig-gestion/internal/store"
)

const (
	// MaxFailedAttempts is the number of consecutive failed logins after
	// which the account is locked.
	MaxFailedAttempts = 5

	// LockMinutes is how long an account stays locked once the limit is
	// exceeded.
	LockMinutes = 10

	minUsernameLen = 3
	minPasswordLen = 6
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Service exposes account management on top of the credential store.
type Service struct {
	store      store.UserStore
	log        *zap.Logger
	bcryptCost int
}

// NewService constructs the account service. cost 0 selects the bcrypt
// default.
func NewService(st store.UserStore, log *zap.Logger, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: st, log: log, bcryptCost: cost}
}

// Authenticate verifies a username/password pair applying the lockout
// policy. Every failure path returns model.ErrInvalidCredentials so the
// caller cannot tell why the attempt was rejected; the specific reason only
// goes to the log.
//
// The failed-attempt counter is incremented and then read back in two
// statements. Two concurrent failures can both observe a pre-increment
// value and the lock may land one attempt early or late; that is accepted,
// an authentication bypass is not possible either way.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.Usuario, error) {
	username = strings.TrimSpace(username)

	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.log.Warn("login attempt for unknown user", zap.String("username", username))
			return nil, model.ErrInvalidCredentials
		}
		s.log.Error("user lookup failed", zap.String("username", username), zap.Error(err))
		return nil, model.ErrInvalidCredentials
	}

	if !user.Activo {
		s.log.Info("login attempt for inactive user", zap.String("username", username))
		return nil, model.ErrInvalidCredentials
	}

	locked, err := s.store.IsLocked(ctx, username)
	if err != nil {
		s.log.Error("lock check failed", zap.String("username", username), zap.Error(err))
		return nil, model.ErrInvalidCredentials
	}
	if locked {
		s.log.Warn("locked user attempted login", zap.String("username", username))
		return nil, model.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		if err := s.store.IncreaseFailedAttempts(ctx, username); err != nil {
			s.log.Error("increase attempts failed", zap.String("username", username), zap.Error(err))
			return nil, model.ErrInvalidCredentials
		}

		failed, err := s.store.GetFailedAttempts(ctx, username)
		if err != nil {
			s.log.Error("read attempts failed", zap.String("username", username), zap.Error(err))
			return nil, model.ErrInvalidCredentials
		}

		s.log.Warn("wrong password",
			zap.String("username", username),
			zap.Int("attempts", failed),
		)

		if failed >= MaxFailedAttempts {
			if err := s.store.LockUntil(ctx, username, LockMinutes); err != nil {
				s.log.Error("lock user failed", zap.String("username", username), zap.Error(err))
			} else {
				s.log.Error("user locked for brute force",
					zap.String("username", username),
					zap.Int("minutes", LockMinutes),
				)
			}
		}

		return nil, model.ErrInvalidCredentials
	}

	// Correct password: reset counters, clear the lock and stamp the login.
	if err := s.store.ResetFailedAttempts(ctx, user.ID); err != nil {
		s.log.Error("reset attempts failed", zap.String("username", username), zap.Error(err))
	}
	if err := s.store.Unlock(ctx, user.ID); err != nil {
		s.log.Error("unlock failed", zap.String("username", username), zap.Error(err))
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Error("stamp last login failed", zap.String("username", username), zap.Error(err))
	}

	s.log.Info("login ok", zap.String("username", username))

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// Register creates a self-service account.
func (s *Service) Register(ctx context.Context, username, password string) (int64, error) {
	return s.create(ctx, username, password, true, false)
}

// CreateInternal creates an account from the admin panel.
func (s *Service) CreateInternal(ctx context.Context, username, password string, active bool) (int64, error) {
	return s.create(ctx, username, password, active, true)
}

func (s *Service) create(ctx context.Context, username, password string, active, internal bool) (int64, error) {
	username = strings.TrimSpace(username)

	if err := validateUsername(username); err != nil {
		return 0, err
	}
	if password == "" {
		return 0, model.NewValidationError("password", "La contraseña es requerida.")
	}

	// Checked up front for a friendly message; the unique constraint is the
	// backstop for the race between two concurrent registrations.
	exists, err := s.store.Exists(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return 0, model.NewValidationError("username", "El nombre de usuario ya existe.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	var id int64
	if internal {
		id, err = s.store.CreateInternal(ctx, username, string(hash), active)
	} else {
		id, err = s.store.Create(ctx, username, string(hash))
	}
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return 0, model.NewValidationError("username", "El nombre de usuario ya existe.")
		}
		return 0, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user created", zap.String("username", username), zap.Int64("id", id))

	return id, nil
}

// Update renames a user.
func (s *Service) Update(ctx context.Context, id int64, username string) error {
	username = strings.TrimSpace(username)

	if err := validateUsername(username); err != nil {
		return err
	}

	existing, err := s.store.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.ID != id {
			return model.NewValidationError("username", "El nombre de usuario ya está en uso.")
		}
	case errors.Is(err, model.ErrNotFound):
		// free to take
	default:
		return fmt.Errorf("check username: %w", err)
	}

	if err := s.store.UpdateUsername(ctx, id, username); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return model.NewValidationError("username", "El nombre de usuario ya está en uso.")
		}
		return fmt.Errorf("update username: %w", err)
	}

	return nil
}

// ChangePassword rehashes and stores a new password. The old password is not
// required; the auth middleware upstream is the authorization boundary.
func (s *Service) ChangePassword(ctx context.Context, id int64, password string) error {
	if len(password) < minPasswordLen {
		return model.NewValidationError("password",
			fmt.Sprintf("La contraseña debe tener al menos %d caracteres.", minPasswordLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.UpdatePassword(ctx, id, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.log.Info("password changed", zap.Int64("id", id))

	return nil
}

// Activate marks a user active. Idempotent; lockout state is untouched.
func (s *Service) Activate(ctx context.Context, id int64) error {
	return s.store.Activate(ctx, id)
}

// Deactivate marks a user inactive (soft delete). Idempotent; lockout state
// is untouched.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.store.Deactivate(ctx, id)
}

// Find returns one user without the password hash, or model.ErrNotFound.
func (s *Service) Find(ctx context.Context, id int64) (*model.Usuario, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// All lists every user.
func (s *Service) All(ctx context.Context) ([]model.Usuario, error) {
	return s.store.FindAll(ctx)
}

func validateUsername(username string) error {
	if username == "" {
		return model.NewValidationError("username", "El nombre de usuario es requerido.")
	}
	if len(username) < minUsernameLen {
		return model.NewValidationError("username",
			fmt.Sprintf("El username debe tener al menos %d caracteres.", minUsernameLen))
	}
	if !usernameRe.MatchString(username) {
		return model.NewValidationError("username",
			"El username solo admite letras, números, guion y guion bajo.")
	}

	return nil
}
