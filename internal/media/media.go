// Package media resolves display metadata for catalog titles. The upstream
// catalog is treated as a read-only lookup keyed by media kind and id.
package media

import (
	"context"
	"errors"

	"github.com/reelroom/backend/internal/models"
)

var (
	// ErrLookupFailed wraps every upstream failure.
	ErrLookupFailed = errors.New("media lookup failed")
	// ErrNotFound indicates the catalog has no title with that id.
	ErrNotFound = errors.New("media not found")
	// ErrProviderUnavailable indicates no metadata provider is configured.
	ErrProviderUnavailable = errors.New("media metadata provider unavailable")
	// ErrCircuitOpen indicates lookups are being short-circuited after repeated failures.
	ErrCircuitOpen = errors.New("media provider circuit open")
)

// Details captures the subset of catalog data the watchlist views display.
type Details struct {
	ID          string
	Kind        models.MediaType
	Title       string
	PosterURL   string
	BackdropURL string
	Genres      []string
	ReleaseDate string
	Rating      float64
}

// Provider returns metadata for one catalog title.
type Provider interface {
	Lookup(ctx context.Context, kind models.MediaType, id string) (Details, error)
}

func cacheKey(kind models.MediaType, id string) string {
	return models.MediaRef{ID: id, Type: kind}.Key()
}
