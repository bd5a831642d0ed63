// Package model contains the account entity and the sentinel errors shared
// across layers.
package model

import "time"

// Usuario represents an account managed by the panel.
type Usuario struct {
	ID            int64      // Unique identifier
	Username      string     // Login username, unique and case-sensitive
	PasswordHash  string     // bcrypt hash, never exposed outside the store/service
	Activo        bool       // Soft-delete flag; inactive users cannot log in
	Intentos      int        // Consecutive failed login attempts
	LockUntil     *time.Time // Lock expiry; nil when the account is not locked
	FechaRegistro time.Time
	UltimoAcceso  *time.Time // Last successful authentication
}

// Sanitized returns a copy with the password hash removed, suitable for
// handing to callers outside the authentication path.
func (u Usuario) Sanitized() Usuario {
	u.PasswordHash = ""
	return u
}

// Locked reports whether the account lock is still in effect at now.
// A lock that has elapsed no longer counts as locked.
func (u Usuario) Locked(now time.Time) bool {
	return u.LockUntil != nil && now.Before(*u.LockUntil)
}
