package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// CSRFFieldName is the hidden form field carrying the token.
const CSRFFieldName = "_csrf"

// CSRFHeaderName is the request header alternative for AJAX clients.
const CSRFHeaderName = "x-csrf-token"

// Token returns the session's CSRF token, generating and storing one on
// first access.
func Token(c *gin.Context) string {
	s := sessions.Default(c)

	if token, ok := s.Get(sessionKeyCSRF).(string); ok && token != "" {
		return token
	}

	token, err := generateToken()
	if err != nil {
		// Without randomness there is no usable token; fail closed by
		// returning empty, which never validates.
		return ""
	}

	s.Set(sessionKeyCSRF, token)
	_ = s.Save()

	return token
}

// ValidateToken compares a submitted token against the session's in constant
// time. Missing values on either side fail closed.
func ValidateToken(c *gin.Context, submitted string) bool {
	s := sessions.Default(c)

	expected, ok := s.Get(sessionKeyCSRF).(string)
	if !ok || expected == "" || submitted == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1
}

// RegenerateToken unconditionally replaces the stored token. Called after
// login and logout so tokens issued at the previous privilege level stop
// validating.
func RegenerateToken(c *gin.Context) error {
	s := sessions.Default(c)
	if err := regenerateToken(s); err != nil {
		return err
	}
	return s.Save()
}

func regenerateToken(s sessions.Session) error {
	token, err := generateToken()
	if err != nil {
		return err
	}
	s.Set(sessionKeyCSRF, token)
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
