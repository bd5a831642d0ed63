// Package session wraps the cookie-backed session with the application's
// login state, one-shot flash messages and the CSRF token slot.
package session

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

var maxSessionLifetime = 12 * time.Hour

// MaxAgeSeconds returns the cookie MaxAge in seconds.
func MaxAgeSeconds() int {
	return int(maxSessionLifetime.Seconds())
}

const (
	sessionKeyUserID   = "user_id"
	sessionKeyUsername = "username"
	sessionKeyCSRF     = "csrf_token"

	flashKeySuccess = "success"
	flashKeyError   = "error"
)

// ContextUserKey carries the logged-in username between middlewares and
// handlers.
const ContextUserKey = "session.user"

// CurrentUser returns the authenticated user's id and cached username, with
// ok=false when the session carries no login.
func CurrentUser(c *gin.Context) (id int64, username string, ok bool) {
	s := sessions.Default(c)

	id, ok = s.Get(sessionKeyUserID).(int64)
	if !ok || id == 0 {
		return 0, "", false
	}

	username, _ = s.Get(sessionKeyUsername).(string)
	return id, username, true
}

// Establish records a successful login. The session is cleared first and the
// CSRF token replaced: with a cookie-backed store that is the privilege
// transition that invalidates any pre-login cookie material.
func Establish(c *gin.Context, id int64, username string) error {
	s := sessions.Default(c)
	s.Clear()
	s.Set(sessionKeyUserID, id)
	s.Set(sessionKeyUsername, username)
	if err := regenerateToken(s); err != nil {
		return err
	}
	return s.Save()
}

// Logout wipes the session and issues a fresh CSRF token so the anonymous
// session does not inherit the authenticated one.
func Logout(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	if err := regenerateToken(s); err != nil {
		return err
	}
	return s.Save()
}

// Flash queues a one-shot message of the given kind ("success" or "error").
func Flash(c *gin.Context, kind, message string) {
	s := sessions.Default(c)
	s.AddFlash(message, kind)
	_ = s.Save()
}

// FlashSuccess queues a one-shot success message.
func FlashSuccess(c *gin.Context, message string) { Flash(c, flashKeySuccess, message) }

// FlashError queues a one-shot error message.
func FlashError(c *gin.Context, message string) { Flash(c, flashKeyError, message) }

// TakeFlashes drains and returns queued messages by kind.
func TakeFlashes(c *gin.Context) (success, errors []string) {
	s := sessions.Default(c)
	for _, f := range s.Flashes(flashKeySuccess) {
		if m, ok := f.(string); ok {
			success = append(success, m)
		}
	}
	for _, f := range s.Flashes(flashKeyError) {
		if m, ok := f.(string); ok {
			errors = append(errors, m)
		}
	}
	_ = s.Save()
	return success, errors
}
