package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reelroom/backend/internal/auth"
	"github.com/reelroom/backend/internal/chat"
	"github.com/reelroom/backend/internal/config"
	"github.com/reelroom/backend/internal/db"
	"github.com/reelroom/backend/internal/handlers"
	"github.com/reelroom/backend/internal/media"
	"github.com/reelroom/backend/internal/middleware"
	"github.com/reelroom/backend/internal/presenter"
	"github.com/reelroom/backend/internal/repositories"
	"github.com/reelroom/backend/internal/storage"
	"github.com/reelroom/backend/internal/watchlists"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup releases resources held outside the pool.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	policy, err := watchlists.ParsePolicy(cfg.Watchlists.MediaIdentity, cfg.Watchlists.MissingUser)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}
	lists := watchlists.NewService(repositories.NewPostgresWatchlistRepository(pool), policy)

	if cfg.TMDB.Token == "" {
		logger.Warn("tmdb token not configured; media lookups will render placeholders")
	}
	tmdb := media.NewTMDBClient(cfg.TMDB.BaseURL, cfg.TMDB.ImageBaseURL, cfg.TMDB.Token, cfg.TMDB.Timeout)
	guarded := media.NewBreakerProvider(tmdb, media.BreakerSettings{
		Name:             "tmdb",
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
	})
	provider := media.NewCachingProvider(guarded, cfg.MetadataCacheTTL)

	sessions := auth.NewManager(cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, repositories.NewPostgresSessionStore(pool))

	deps := handlers.Dependencies{
		Users:          repositories.NewPostgresUserRepository(pool),
		Sessions:       sessions,
		Watchlists:     lists,
		Presenter:      presenter.New(lists, provider, cfg.PageSize, cfg.LookupConcurrency),
		Catalog:        provider,
		Chat:           chat.NewService(repositories.NewPostgresChatRepository(pool), chat.NewHub()),
		Limiter:        middleware.NewIPRateLimiter(cfg.RateLimit),
		Database:       pool,
		RequireOwner:   cfg.Auth.RequireOwner,
		AllowedOrigins: cfg.CORSOrigins,
	}

	if cfg.ObjectStore.Enabled() {
		posters, err := storage.NewS3PosterStore(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure poster storage: %w", err)
		}
		deps.Posters = posters
	} else {
		logger.Info("object store not configured; poster uploads disabled")
	}

	stopSweep := func() {}
	if cfg.Auth.SweepInterval > 0 {
		var sweepCtx context.Context
		sweepCtx, stopSweep = context.WithCancel(context.Background())
		go sessions.Sweep(sweepCtx, cfg.Auth.SweepInterval, logger)
	}

	cleanup := func(context.Context) error {
		stopSweep()
		tmdb.HTTP.CloseIdleConnections()
		return nil
	}
	return deps, cleanup, nil
}
