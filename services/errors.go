// services/errors.go - Error taxonomy shared by all services
package services

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("not authorized")
	ErrAlreadyDeleted  = errors.New("already deleted")
	ErrConflict        = errors.New("conflict")
	ErrExpired         = errors.New("expired")
	ErrOTPExpired      = errors.New("otp expired or already used")
	ErrInvalidToken    = errors.New("invalid or expired invitation token")
	ErrAlreadyAccepted = errors.New("invitation already accepted")
)

// ValidationError is a field-level input failure. The handler surfaces the
// first one encountered; field errors always come before object-level errors.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError carries a caller-facing duplicate message and still matches
// errors.Is(err, ErrConflict).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func conflictErr(message string) error {
	return &ConflictError{Message: message}
}
