package watchlists

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName indicates the owner already has a watchlist with that name.
	ErrDuplicateName = errors.New("watchlist name already exists")
	// ErrNotFound indicates the named watchlist does not exist for the owner.
	ErrNotFound = errors.New("watchlist not found")
	// ErrUserNotFound indicates the owner has no watchlist record at all.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateMedia indicates the media reference is already in the watchlist.
	ErrDuplicateMedia = errors.New("already in watchlist")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
