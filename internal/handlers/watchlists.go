package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/reelroom/backend/internal/logging"
	"github.com/reelroom/backend/internal/models"
	"github.com/reelroom/backend/internal/presenter"
	"github.com/reelroom/backend/internal/repositories"
	"github.com/reelroom/backend/internal/storage"
	"github.com/reelroom/backend/internal/watchlists"
)

const maxPosterBytes = 5 << 20

// WatchlistHandler exposes the watchlist store and presenter over HTTP.
type WatchlistHandler struct {
	Watchlists WatchlistService
	Presenter  WatchlistPresenter
	Posters    PosterStorage
	Owner      OwnerGuard
	Limiter    RateLimiter
}

type createWatchlistRequest struct {
	UserID string `json:"uid" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Poster string `json:"poster"`
}

type updateWatchlistRequest struct {
	NewName string `json:"newName"`
	Poster  string `json:"poster"`
}

type mediaRequest struct {
	ID        string `json:"ID" validate:"required"`
	MediaType string `json:"mediaType" validate:"required"`
}

type watchlistResponse struct {
	Message   string           `json:"message"`
	Watchlist models.Watchlist `json:"watchlist"`
}

type removeResponse struct {
	Message          string `json:"message"`
	Removed          bool   `json:"removed"`
	WatchlistDeleted bool   `json:"watchlistDeleted"`
}

// Create handles POST /api/watchlist.
func (h WatchlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w) || !h.allow(ctx, w, r) {
		return
	}

	var req createWatchlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.Owner.Check(ctx, w, r, req.UserID) {
		return
	}

	list, err := h.Watchlists.CreateWatchlist(ctx, req.UserID, req.Name, req.Poster)
	if err != nil {
		writeWatchlistError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, watchlistResponse{Message: "Watchlist created successfully", Watchlist: list})
}

// List handles GET /api/watchlists/{uid}.
func (h WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := r.PathValue("uid")
	if !h.ready(ctx, w) || !h.Owner.Check(ctx, w, r, uid) {
		return
	}

	lists, err := h.Watchlists.ListWatchlists(ctx, uid)
	if err != nil {
		writeWatchlistError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, lists)
}

// Get handles GET /api/watchlist/{uid}/{name}.
func (h WatchlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, name := r.PathValue("uid"), r.PathValue("name")
	if !h.ready(ctx, w) || !h.Owner.Check(ctx, w, r, uid) {
		return
	}

	list, err := h.Watchlists.GetWatchlist(ctx, uid, name)
	if err != nil {
		writeWatchlistError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, list)
}

// Update handles PUT /api/watchlist/{uid}/{name}.
func (h WatchlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, name := r.PathValue("uid"), r.PathValue("name")
	if !h.ready(ctx, w) || !h.allow(ctx, w, r) || !h.Owner.Check(ctx, w, r, uid) {
		return
	}

	var req updateWatchlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.Watchlists.RenameWatchlist(ctx, uid, name, watchlists.Update{NewName: req.NewName, Poster: req.Poster})
	if err != nil {
		writeWatchlistError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, watchlistResponse{Message: "Watchlist updated successfully", Watchlist: list})
}

// Delete handles DELETE /api/watchlist/{uid}/{name}.
func (h WatchlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, name := r.PathValue("uid"), r.PathValue("name")
	if !h.ready(ctx, w) || !h.allow(ctx, w, r) || !h.Owner.Check(ctx, w, r, uid) {
		return
	}

	if err := h.Watchlists.DeleteWatchlist(ctx, uid, name); err != nil {
		writeWatchlistError(ctx, w, err)
		return
	}
	respondMessage(ctx, w, http.StatusOK, "Watchlist deleted successfully")
}

// AddMedia handles POST /api/watchlist/{uid}/{name}/add.
func (h WatchlistHandler) AddMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, name := r.PathValue("uid"), r.PathValue("name")
	if !h.ready(ctx, w) || !h.allow(ctx, w, r) || !h.Owner.Check(ctx, w, r, uid) {
		return
	}

	var req mediaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	ref := models.MediaRef{ID: req.ID, Type: models.MediaType(req.MediaType)}
	list, err := h.Watchlists.AddMedia(ctx, uid, name, ref)
	if err != nil {
		writeWatchlistError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, watchlistResponse{Message: "Media added to watchlist", Watchlist: list})
}

// RemoveMedia handles DELETE /api/watchlist/{uid}/{name}/remove.
func (h WatchlistHandler) RemoveMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, name := r.PathValue("uid"), r.PathValue("name")
	if !h.ready(ctx, w) || !h.allow(ctx, w, r) || !h.Owner.Check(ctx, w, r, uid) {
		return
	}

	var req mediaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	ref := models.MediaRef{ID: req.ID, Type: models.MediaType(req.MediaType)}
	result, err := h.Watchlists.RemoveMedia(ctx, uid, name, ref)
	if err != nil {
		writeWatchlistError(ctx, w, err)
		return
	}

	message := "Media removed from watchlist"
	if result.WatchlistDeleted {
		message = "Media removed; empty watchlist deleted"
	}
	respondJSON(ctx, w, http.StatusOK, removeResponse{
		Message:          message,
		Removed:          result.Removed,
		WatchlistDeleted: result.WatchlistDeleted,
	})
}

// Page handles GET /api/watchlist/{uid}/{name}/page?page=N&size=M.
func (h WatchlistHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, name := r.PathValue("uid"), r.PathValue("name")
	if h.Presenter == nil {
		respondError(ctx, w, http.StatusInternalServerError, "watchlist presenter unavailable")
		return
	}
	if !h.Owner.Check(ctx, w, r, uid) {
		return
	}

	pageNum, err := queryInt(r, "page")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "page must be a number")
		return
	}
	size, err := queryInt(r, "size")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "size must be a number")
		return
	}

	page, err := h.Presenter.RenderPage(ctx, presenter.View{UserID: uid, Watchlist: name, Page: pageNum, PageSize: size})
	if err != nil {
		writePresenterError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, page)
}

// Overview handles GET /api/watchlist/{uid}/{name}/overview.
func (h WatchlistHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, name := r.PathValue("uid"), r.PathValue("name")
	if h.Presenter == nil {
		respondError(ctx, w, http.StatusInternalServerError, "watchlist presenter unavailable")
		return
	}
	if !h.Owner.Check(ctx, w, r, uid) {
		return
	}

	overview, err := h.Presenter.Overview(ctx, uid, name)
	if err != nil {
		writePresenterError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, overview)
}

// UploadPoster handles PUT /api/watchlist/{uid}/{name}/poster. The body is
// the raw image.
func (h WatchlistHandler) UploadPoster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	uid, name := r.PathValue("uid"), r.PathValue("name")
	if !h.ready(ctx, w) {
		return
	}
	if h.Posters == nil {
		respondError(ctx, w, http.StatusServiceUnavailable, "poster uploads are not configured")
		return
	}
	if !h.allow(ctx, w, r) || !h.Owner.Check(ctx, w, r, uid) {
		return
	}

	contentType := strings.TrimSpace(strings.Split(r.Header.Get("Content-Type"), ";")[0])
	if !strings.HasPrefix(contentType, "image/") {
		respondError(ctx, w, http.StatusUnsupportedMediaType, "poster must be an image")
		return
	}

	if _, err := h.Watchlists.GetWatchlist(ctx, uid, name); err != nil {
		writeWatchlistError(ctx, w, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPosterBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(ctx, w, http.StatusRequestEntityTooLarge, "poster must be at most 5 MiB")
			return
		}
		respondError(ctx, w, http.StatusBadRequest, "unable to read poster")
		return
	}
	if len(data) == 0 {
		respondError(ctx, w, http.StatusBadRequest, "poster body is empty")
		return
	}

	location, err := h.Posters.SavePoster(ctx, uid, contentType, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			respondError(ctx, w, http.StatusServiceUnavailable, "poster uploads are not configured")
			return
		}
		logger.Error("poster upload failed", "error", err, "uid", uid)
		respondError(ctx, w, http.StatusBadGateway, "failed to store poster")
		return
	}

	list, err := h.Watchlists.RenameWatchlist(ctx, uid, name, watchlists.Update{Poster: location})
	if err != nil {
		writeWatchlistError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, watchlistResponse{Message: "Poster updated", Watchlist: list})
}

func (h WatchlistHandler) ready(ctx context.Context, w http.ResponseWriter) bool {
	if h.Watchlists == nil {
		logging.FromContext(ctx).Error("watchlist service unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "watchlist service unavailable")
		return false
	}
	return true
}

func (h WatchlistHandler) allow(ctx context.Context, w http.ResponseWriter, r *http.Request) bool {
	return checkRateLimit(ctx, w, r, h.Limiter, "watchlist")
}

func writeWatchlistError(ctx context.Context, w http.ResponseWriter, err error) {
	var validationErr *watchlists.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondError(ctx, w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, watchlists.ErrDuplicateName):
		respondError(ctx, w, http.StatusBadRequest, "Watchlist name already exists")
	case errors.Is(err, watchlists.ErrDuplicateMedia):
		respondError(ctx, w, http.StatusBadRequest, "Already in watchlist")
	case errors.Is(err, watchlists.ErrUserNotFound):
		respondError(ctx, w, http.StatusNotFound, "User not found")
	case errors.Is(err, watchlists.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "Watchlist not found")
	case errors.Is(err, repositories.ErrConflict):
		respondError(ctx, w, http.StatusConflict, "watchlist was modified concurrently, retry")
	case errors.Is(err, context.Canceled):
		logging.FromContext(ctx).Info("request cancelled by client")
	default:
		logging.FromContext(ctx).Error("watchlist operation failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
	}
}

func writePresenterError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, presenter.ErrInvalidPage), errors.Is(err, presenter.ErrPageOutOfRange):
		respondError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		logging.FromContext(ctx).Info("render cancelled by client")
	default:
		writeWatchlistError(ctx, w, err)
	}
}

func queryInt(r *http.Request, key string) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
