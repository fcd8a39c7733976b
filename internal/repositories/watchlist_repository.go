package repositories

import (
	"context"

	"github.com/reelroom/backend/internal/models"
)

// MutateFunc edits a watchlist document in place. Returning an error aborts
// the write and is passed back to the caller unchanged.
type MutateFunc func(doc *models.WatchlistDocument) error

// WatchlistRepository stores one watchlist document per user. Update runs the
// read-modify-write atomically with respect to other updates of the same user.
type WatchlistRepository interface {
	Load(ctx context.Context, userID string) (models.WatchlistDocument, error)
	Update(ctx context.Context, userID string, createMissing bool, fn MutateFunc) (models.WatchlistDocument, error)
}
