package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

// DefaultShutdownTimeout bounds the drain when no timeout is configured.
const DefaultShutdownTimeout = 10 * time.Second

// Run serves on ln (or the configured address when ln is nil) until ctx is
// cancelled, SIGINT or SIGTERM arrives, or the server fails. It then drains
// in-flight requests for at most timeout.
func Run(ctx context.Context, srv *Server, ln net.Listener, timeout time.Duration, logger *slog.Logger) error {
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srvErr := make(chan error, 1)
	go func() {
		if ln != nil {
			srvErr <- srv.Serve(ln)
			return
		}
		srvErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down http server", slog.Any("reason", context.Cause(ctx)))
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-srvErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
