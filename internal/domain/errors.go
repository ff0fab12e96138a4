package domain

import (
	"errors"
	"fmt"
)

// Authentication errors. Unknown phone, wrong password and inactive account
// must all surface the same message so the response cannot be used to
// enumerate accounts.
var (
	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrUserExists         = errors.New("a user with this phone number already exists")
	ErrTwoFactorRequired  = errors.New("two-factor code required")
	ErrTwoFactorInvalid   = errors.New("invalid two-factor code")
)

// Authorization errors
var (
	ErrPermissionDenied = errors.New("you do not have permission to perform this action")
	ErrNotFound         = errors.New("resource not found")
)

// Moderation errors
var (
	ErrTerminalStatus = errors.New("listing is in a terminal status")
	ErrNotApproved    = errors.New("listing must be approved first")
)

// ValidationError describes rejected input. Field is empty for cross-field
// failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a validation failure
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RateLimitedError carries the wait hint for a denied request
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	minutes := e.RetryAfterSeconds / 60
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("too many attempts, please try again in %d minutes", minutes)
}
