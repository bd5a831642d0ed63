package model

import (
	"errors"
	"strings"
)

// Sentinels shared by the store and service layers.
var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("usuario no encontrado")

	// ErrAlreadyExists indicates a username uniqueness violation.
	ErrAlreadyExists = errors.New("el nombre de usuario ya existe")

	// ErrInvalidCredentials is the generic authentication failure. It is
	// returned for every failed login regardless of cause (unknown user,
	// inactive, locked, wrong password) so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("usuario o contraseña incorrecta")
)

// ValidationError carries field-level messages for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, m := range e.Fields {
		msgs = append(msgs, m)
	}
	return strings.Join(msgs, " ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// AsValidation unwraps err into a ValidationError, or returns nil.
func AsValidation(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
