package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/reelroom/backend/internal/config"
	"github.com/reelroom/backend/internal/db"
	"github.com/reelroom/backend/internal/handlers"
	"github.com/reelroom/backend/internal/httpserver"
	"github.com/reelroom/backend/internal/logging"
	"github.com/reelroom/backend/internal/middleware"
)

// Run bootstraps the ReelRoom backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, cleanup, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(context.Background()); err != nil {
			logger.Warn("cleanup failed", slog.Any("error", err))
		}
	}()

	srv := httpserver.New(cfg.AppPort, newHandler(deps, cfg, logger))
	logger.Info("starting http server",
		slog.Int("port", cfg.AppPort),
		slog.Bool("require_owner", cfg.Auth.RequireOwner),
		slog.Bool("poster_uploads", deps.Posters != nil),
	)
	return httpserver.Run(ctx, srv, nil, cfg.ShutdownTimeout, logger)
}

// newHandler registers the routes and wraps them so request logging sees
// every response, including CORS preflights.
func newHandler(deps handlers.Dependencies, cfg config.Config, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)
	return middleware.Chain(mux,
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.CORSOrigins),
	)
}
