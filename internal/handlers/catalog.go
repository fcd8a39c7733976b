package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/reelroom/backend/internal/logging"
	"github.com/reelroom/backend/internal/media"
	"github.com/reelroom/backend/internal/models"
)

// CatalogHandler serves browse and search over the upstream title catalog.
type CatalogHandler struct {
	Catalog CatalogService
	Limiter RateLimiter
}

// Browse handles GET /api/catalog/{listing}?type=movie|tv&page=N.
func (h CatalogHandler) Browse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w, r) {
		return
	}

	listing, ok := media.ParseListing(r.PathValue("listing"))
	if !ok {
		respondError(ctx, w, http.StatusNotFound, "unknown catalog listing")
		return
	}
	kind, ok := catalogKind(r, models.MediaTypeMovie)
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "type must be movie or tv")
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "page must be a number")
		return
	}

	result, err := h.Catalog.Browse(ctx, kind, listing, page)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, result)
}

// Search handles GET /api/catalog/search?q=...&type=movie|tv&page=N. Without
// a type both movies and series are searched.
func (h CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w, r) {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(ctx, w, http.StatusBadRequest, "q is required")
		return
	}
	kind, ok := catalogKind(r, "")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "type must be movie or tv")
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "page must be a number")
		return
	}

	result, err := h.Catalog.Search(ctx, kind, query, page)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, result)
}

// Similar handles GET /api/catalog/{type}/{id}/similar.
func (h CatalogHandler) Similar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w, r) {
		return
	}
	kind, ok := models.ParseMediaType(r.PathValue("type"))
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "type must be movie or tv")
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "page must be a number")
		return
	}

	result, err := h.Catalog.Similar(ctx, kind, r.PathValue("id"), page)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, result)
}

// Credits handles GET /api/catalog/{type}/{id}/credits.
func (h CatalogHandler) Credits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w, r) {
		return
	}
	kind, ok := models.ParseMediaType(r.PathValue("type"))
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "type must be movie or tv")
		return
	}

	credits, err := h.Catalog.Credits(ctx, kind, r.PathValue("id"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, credits)
}

// Season handles GET /api/catalog/tv/{id}/season/{number}.
func (h CatalogHandler) Season(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w, r) {
		return
	}
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 0 {
		respondError(ctx, w, http.StatusBadRequest, "season must be a non-negative number")
		return
	}

	season, err := h.Catalog.Season(ctx, r.PathValue("id"), number)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, season)
}

func (h CatalogHandler) ready(ctx context.Context, w http.ResponseWriter, r *http.Request) bool {
	if h.Catalog == nil {
		respondError(ctx, w, http.StatusServiceUnavailable, "catalog unavailable")
		return false
	}
	return checkRateLimit(ctx, w, r, h.Limiter, "catalog")
}

// catalogKind reads the type query parameter, falling back to def when absent.
func catalogKind(r *http.Request, def models.MediaType) (models.MediaType, bool) {
	value := strings.TrimSpace(r.URL.Query().Get("type"))
	if value == "" {
		return def, true
	}
	return models.ParseMediaType(value)
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, media.ErrInvalidQuery):
		respondError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, media.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "title not found")
	case errors.Is(err, media.ErrCircuitOpen), errors.Is(err, media.ErrProviderUnavailable):
		respondError(ctx, w, http.StatusServiceUnavailable, "catalog temporarily unavailable")
	case errors.Is(err, context.Canceled):
		logging.FromContext(ctx).Info("catalog request cancelled by client")
	default:
		logging.FromContext(ctx).Warn("catalog request failed", "error", err)
		respondError(ctx, w, http.StatusBadGateway, "catalog request failed")
	}
}
