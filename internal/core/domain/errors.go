package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrItemNotFound       = errors.New("item not found")
	ErrOwnerNotFound      = errors.New("owner not found")
	ErrTooManyAttempts    = errors.New("too many login attempts")

	// ErrCorruptHash signals a stored password hash that cannot be parsed.
	// It is an internal failure, never a wrong-password result.
	ErrCorruptHash = errors.New("stored password hash is malformed")
)

// ValidationError carries a client-safe description of malformed input.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Msg string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
