package handlers

import (
	"context"
	"io"
	"time"

	"github.com/reelroom/backend/internal/media"
	"github.com/reelroom/backend/internal/models"
	"github.com/reelroom/backend/internal/presenter"
	"github.com/reelroom/backend/internal/watchlists"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// SessionManager issues, refreshes, resolves and revokes session tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
	Revoke(ctx context.Context, token string)
}

// WatchlistService is the watchlist store as seen by the HTTP layer.
type WatchlistService interface {
	Provision(ctx context.Context, uid string) error
	CreateWatchlist(ctx context.Context, uid, name, poster string) (models.Watchlist, error)
	ListWatchlists(ctx context.Context, uid string) ([]models.Watchlist, error)
	Timestamps(ctx context.Context, uid string) (map[string]time.Time, error)
	GetWatchlist(ctx context.Context, uid, name string) (models.Watchlist, error)
	RenameWatchlist(ctx context.Context, uid, oldName string, update watchlists.Update) (models.Watchlist, error)
	DeleteWatchlist(ctx context.Context, uid, name string) error
	AddMedia(ctx context.Context, uid, name string, ref models.MediaRef) (models.Watchlist, error)
	RemoveMedia(ctx context.Context, uid, name string, ref models.MediaRef) (watchlists.RemoveResult, error)
}

// WatchlistPresenter renders pages and derived views of a watchlist.
type WatchlistPresenter interface {
	RenderPage(ctx context.Context, view presenter.View) (presenter.Page, error)
	Overview(ctx context.Context, uid, name string) (presenter.Overview, error)
}

// PosterStorage persists uploaded poster images.
type PosterStorage interface {
	SavePoster(ctx context.Context, uid, contentType string, body io.Reader) (string, error)
}

// ChatService captures the chat log operations exposed over HTTP.
type ChatService interface {
	EnsureRoom(ctx context.Context, topic string) error
	Send(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error)
	History(ctx context.Context, topic string) ([]models.ChatMessage, error)
	Subscribe(ctx context.Context, topic string) (<-chan models.ChatMessage, func(), error)
}

// CatalogService browses and searches the upstream title catalog.
type CatalogService interface {
	Browse(ctx context.Context, kind models.MediaType, listing media.Listing, page int) (media.CatalogPage, error)
	Search(ctx context.Context, kind models.MediaType, query string, page int) (media.CatalogPage, error)
	Similar(ctx context.Context, kind models.MediaType, id string, page int) (media.CatalogPage, error)
	Credits(ctx context.Context, kind models.MediaType, id string) (media.Credits, error)
	Season(ctx context.Context, seriesID string, number int) (media.Season, error)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
