package access

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the entity does not exist or is not visible to the actor.
	ErrNotFound = errors.New("not found")
	// ErrNotOwner indicates the entity is visible but the actor may not mutate it.
	ErrNotOwner = errors.New("not owner")
	// ErrInvalidInput indicates a malformed or oversized field or an unsupported media type.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateUsername indicates the requested username is already registered.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrDuplicateEmail indicates the requested email address is already registered.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrUnauthenticated indicates the operation requires a signed-in actor.
	ErrUnauthenticated = errors.New("authentication required")
)

// InvalidInput wraps ErrInvalidInput with a description of the offending field.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
