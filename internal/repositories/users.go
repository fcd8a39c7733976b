package repositories

import (
	"context"
	"errors"

	"github.com/reelroom/backend/internal/models"
)

// Sentinel errors shared by every repository in this package.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)

// UserRepository stores accounts. Emails are unique; a second Create for the
// same address yields ErrConflict.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}
