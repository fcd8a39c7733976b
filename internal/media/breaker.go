package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/reelroom/backend/internal/metrics"
	"github.com/reelroom/backend/internal/models"
)

// BreakerSettings tunes the circuit breaker around the upstream provider.
type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
}

// BreakerProvider fails fast once the upstream provider keeps failing, so a
// catalog outage degrades page renders to placeholders without waiting on
// every request timeout.
type BreakerProvider struct {
	base Provider
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerProvider wraps base with a consecutive-failure circuit breaker.
func NewBreakerProvider(base Provider, settings BreakerSettings) *BreakerProvider {
	if settings.Name == "" {
		settings.Name = "media-provider"
	}
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 30 * time.Second
	}
	if settings.HalfOpenRequests == 0 {
		settings.HalfOpenRequests = 1
	}

	metrics.CircuitBreakerState.WithLabelValues(settings.Name).Set(0)

	threshold := settings.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.HalfOpenRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrInvalidQuery) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("media circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &BreakerProvider{base: base, cb: cb}
}

// Lookup delegates to the wrapped provider unless the circuit is open.
func (b *BreakerProvider) Lookup(ctx context.Context, kind models.MediaType, id string) (Details, error) {
	if b == nil || b.base == nil {
		return Details{}, ErrProviderUnavailable
	}
	return guarded(b, func() (Details, error) {
		return b.base.Lookup(ctx, kind, id)
	})
}

func (b *BreakerProvider) Browse(ctx context.Context, kind models.MediaType, listing Listing, page int) (CatalogPage, error) {
	catalog, err := b.catalog()
	if err != nil {
		return CatalogPage{}, err
	}
	return guarded(b, func() (CatalogPage, error) {
		return catalog.Browse(ctx, kind, listing, page)
	})
}

func (b *BreakerProvider) Search(ctx context.Context, kind models.MediaType, query string, page int) (CatalogPage, error) {
	catalog, err := b.catalog()
	if err != nil {
		return CatalogPage{}, err
	}
	return guarded(b, func() (CatalogPage, error) {
		return catalog.Search(ctx, kind, query, page)
	})
}

func (b *BreakerProvider) Similar(ctx context.Context, kind models.MediaType, id string, page int) (CatalogPage, error) {
	catalog, err := b.catalog()
	if err != nil {
		return CatalogPage{}, err
	}
	return guarded(b, func() (CatalogPage, error) {
		return catalog.Similar(ctx, kind, id, page)
	})
}

func (b *BreakerProvider) Credits(ctx context.Context, kind models.MediaType, id string) (Credits, error) {
	catalog, err := b.catalog()
	if err != nil {
		return Credits{}, err
	}
	return guarded(b, func() (Credits, error) {
		return catalog.Credits(ctx, kind, id)
	})
}

func (b *BreakerProvider) Season(ctx context.Context, seriesID string, number int) (Season, error) {
	catalog, err := b.catalog()
	if err != nil {
		return Season{}, err
	}
	return guarded(b, func() (Season, error) {
		return catalog.Season(ctx, seriesID, number)
	})
}

func (b *BreakerProvider) catalog() (Catalog, error) {
	if b == nil {
		return nil, ErrProviderUnavailable
	}
	catalog, ok := b.base.(Catalog)
	if !ok {
		return nil, ErrProviderUnavailable
	}
	return catalog, nil
}

// guarded runs fn through the shared breaker so detail lookups and catalog
// calls trip it together.
func guarded[T any](b *BreakerProvider, fn func() (T, error)) (T, error) {
	var zero T
	out, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%w: %w", ErrLookupFailed, ErrCircuitOpen)
	}
	if err != nil {
		return zero, err
	}
	value, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%w: unexpected result %T", ErrLookupFailed, out)
	}
	return value, nil
}

// State reports the breaker state for health output.
func (b *BreakerProvider) State() string {
	return b.cb.State().String()
}

var (
	_ Provider = (*BreakerProvider)(nil)
	_ Catalog  = (*BreakerProvider)(nil)
)

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
