// Package watchlists owns every user's collection of named watchlists and
// enforces its invariants: names are unique per owner, a media reference
// appears at most once per list, a list emptied by a removal is dropped, and
// the creation-timestamp map always has exactly one key per existing list.
package watchlists

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/reelroom/backend/internal/logging"
	"github.com/reelroom/backend/internal/metrics"
	"github.com/reelroom/backend/internal/models"
	"github.com/reelroom/backend/internal/repositories"
)

const maxNameLength = 100

// Service is the watchlist store. Every operation is scoped to the owner id
// supplied by the caller.
type Service struct {
	repo    repositories.WatchlistRepository
	policy  Policy
	NowFunc func() time.Time
}

// NewService constructs a Service over the provided repository.
func NewService(repo repositories.WatchlistRepository, policy Policy) *Service {
	if repo == nil {
		panic("watchlists: repository must not be nil")
	}
	if policy.MediaIdentity == "" {
		policy.MediaIdentity = MatchIDAndType
	}
	if policy.MissingUser == "" {
		policy.MissingUser = MissingUserError
	}
	return &Service{repo: repo, policy: policy}
}

// Policy returns the policy the service was configured with.
func (s *Service) Policy() Policy {
	return s.policy
}

// Update carries the optional fields of a rename. Empty strings leave the
// current value untouched.
type Update struct {
	NewName string
	Poster  string
}

// RemoveResult describes the effect of RemoveMedia.
type RemoveResult struct {
	Removed          bool
	WatchlistDeleted bool
}

// Provision makes sure the owner has a (possibly empty) watchlist record.
func (s *Service) Provision(ctx context.Context, uid string) error {
	uid, err := cleanUID(uid)
	if err != nil {
		return err
	}
	_, err = s.repo.Update(ctx, uid, true, func(*models.WatchlistDocument) error { return nil })
	return err
}

// CreateWatchlist appends a new empty watchlist and records its creation time.
func (s *Service) CreateWatchlist(ctx context.Context, uid, name, poster string) (models.Watchlist, error) {
	ctx, span := logging.StartSpan(ctx, "watchlists.create")
	defer span.End()

	uid, err := cleanUID(uid)
	if err != nil {
		return models.Watchlist{}, err
	}
	name, err = cleanName("name", name)
	if err != nil {
		return models.Watchlist{}, err
	}

	created := models.Watchlist{Name: name, Poster: strings.TrimSpace(poster), Media: []models.MediaRef{}}
	_, err = s.repo.Update(ctx, uid, true, func(doc *models.WatchlistDocument) error {
		if doc.Index(name) >= 0 {
			return ErrDuplicateName
		}
		doc.Watchlists = append(doc.Watchlists, created)
		doc.Timestamps[name] = s.now()
		return nil
	})
	metrics.RecordMutation("create", err)
	if err != nil {
		return models.Watchlist{}, err
	}

	logging.FromContext(ctx).Info("watchlist created", slog.String("uid", uid), slog.String("watchlist", name))
	return created, nil
}

// ListWatchlists returns the owner's watchlists in creation order.
func (s *Service) ListWatchlists(ctx context.Context, uid string) ([]models.Watchlist, error) {
	doc, err := s.load(ctx, uid)
	if err != nil {
		return nil, err
	}
	return doc.Watchlists, nil
}

// Timestamps returns the creation time of every watchlist keyed by name.
func (s *Service) Timestamps(ctx context.Context, uid string) (map[string]time.Time, error) {
	doc, err := s.load(ctx, uid)
	if err != nil {
		return nil, err
	}
	return doc.Timestamps, nil
}

// GetWatchlist returns the named watchlist.
func (s *Service) GetWatchlist(ctx context.Context, uid, name string) (models.Watchlist, error) {
	doc, err := s.load(ctx, uid)
	if err != nil {
		return models.Watchlist{}, err
	}
	idx := doc.Index(name)
	if idx < 0 {
		return models.Watchlist{}, ErrNotFound
	}
	return doc.Watchlists[idx], nil
}

// RenameWatchlist changes the name and/or poster of an existing watchlist.
// Renaming onto another existing list's name is rejected so names stay unique.
func (s *Service) RenameWatchlist(ctx context.Context, uid, oldName string, update Update) (models.Watchlist, error) {
	ctx, span := logging.StartSpan(ctx, "watchlists.rename")
	defer span.End()

	uid, err := cleanUID(uid)
	if err != nil {
		return models.Watchlist{}, err
	}
	newName := strings.TrimSpace(update.NewName)
	if len(newName) > maxNameLength {
		return models.Watchlist{}, invalid("newName", "must be at most 100 characters")
	}
	poster := strings.TrimSpace(update.Poster)

	var renamed models.Watchlist
	err = s.mutate(ctx, "rename", uid, func(doc *models.WatchlistDocument) error {
		idx := doc.Index(oldName)
		if idx < 0 {
			return ErrNotFound
		}
		list := &doc.Watchlists[idx]

		if newName != "" && newName != list.Name {
			if doc.Index(newName) >= 0 {
				return ErrDuplicateName
			}
			if created, ok := doc.Timestamps[list.Name]; ok {
				delete(doc.Timestamps, list.Name)
				doc.Timestamps[newName] = created
			} else {
				doc.Timestamps[newName] = s.now()
			}
			list.Name = newName
		}
		if poster != "" {
			list.Poster = poster
		}
		renamed = *list
		return nil
	})
	if err != nil {
		return models.Watchlist{}, err
	}
	return renamed, nil
}

// DeleteWatchlist removes the watchlist and its timestamp entry.
func (s *Service) DeleteWatchlist(ctx context.Context, uid, name string) error {
	ctx, span := logging.StartSpan(ctx, "watchlists.delete")
	defer span.End()

	uid, err := cleanUID(uid)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "delete", uid, func(doc *models.WatchlistDocument) error {
		idx := doc.Index(name)
		if idx < 0 {
			return ErrNotFound
		}
		dropWatchlist(doc, idx)
		return nil
	})
}

// AddMedia appends ref to the watchlist unless an equal reference is present.
func (s *Service) AddMedia(ctx context.Context, uid, name string, ref models.MediaRef) (models.Watchlist, error) {
	ctx, span := logging.StartSpan(ctx, "watchlists.add_media")
	defer span.End()

	uid, err := cleanUID(uid)
	if err != nil {
		return models.Watchlist{}, err
	}
	ref, err = cleanRef(ref)
	if err != nil {
		return models.Watchlist{}, err
	}

	var updated models.Watchlist
	err = s.mutate(ctx, "add_media", uid, func(doc *models.WatchlistDocument) error {
		idx := doc.Index(name)
		if idx < 0 {
			return ErrNotFound
		}
		list := &doc.Watchlists[idx]
		for _, existing := range list.Media {
			if s.policy.sameMedia(existing, ref) {
				return ErrDuplicateMedia
			}
		}
		list.Media = append(list.Media, ref)
		updated = *list
		return nil
	})
	if err != nil {
		return models.Watchlist{}, err
	}
	return updated, nil
}

// RemoveMedia drops every entry matching (id, type). Removing an absent
// reference is not an error. If the list is empty afterwards it is deleted
// together with its timestamp, whether or not anything was removed.
func (s *Service) RemoveMedia(ctx context.Context, uid, name string, ref models.MediaRef) (RemoveResult, error) {
	ctx, span := logging.StartSpan(ctx, "watchlists.remove_media")
	defer span.End()

	uid, err := cleanUID(uid)
	if err != nil {
		return RemoveResult{}, err
	}
	ref, err = cleanRef(ref)
	if err != nil {
		return RemoveResult{}, err
	}

	var result RemoveResult
	err = s.mutate(ctx, "remove_media", uid, func(doc *models.WatchlistDocument) error {
		idx := doc.Index(name)
		if idx < 0 {
			return ErrNotFound
		}
		list := &doc.Watchlists[idx]

		kept := list.Media[:0]
		for _, existing := range list.Media {
			if existing.ID == ref.ID && existing.Type == ref.Type {
				result.Removed = true
				continue
			}
			kept = append(kept, existing)
		}
		list.Media = kept

		if len(list.Media) == 0 {
			dropWatchlist(doc, idx)
			result.WatchlistDeleted = true
		}
		return nil
	})
	if err != nil {
		return RemoveResult{}, err
	}

	if result.WatchlistDeleted {
		metrics.WatchlistCascadeDeletes.Inc()
		logging.FromContext(ctx).Info("empty watchlist dropped", slog.String("uid", uid), slog.String("watchlist", name))
	}
	return result, nil
}

func (s *Service) load(ctx context.Context, uid string) (models.WatchlistDocument, error) {
	uid, err := cleanUID(uid)
	if err != nil {
		return models.WatchlistDocument{}, err
	}
	doc, err := s.repo.Load(ctx, uid)
	if errors.Is(err, repositories.ErrNotFound) {
		if s.policy.MissingUser == MissingUserEmpty {
			return models.NewWatchlistDocument(uid), nil
		}
		return models.WatchlistDocument{}, ErrUserNotFound
	}
	if err != nil {
		return models.WatchlistDocument{}, err
	}
	return doc, nil
}

func (s *Service) mutate(ctx context.Context, op, uid string, fn repositories.MutateFunc) error {
	_, err := s.repo.Update(ctx, uid, false, fn)
	metrics.RecordMutation(op, err)
	if errors.Is(err, repositories.ErrNotFound) {
		if s.policy.MissingUser == MissingUserEmpty {
			return ErrNotFound
		}
		return ErrUserNotFound
	}
	return err
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}

func dropWatchlist(doc *models.WatchlistDocument, idx int) {
	delete(doc.Timestamps, doc.Watchlists[idx].Name)
	doc.Watchlists = append(doc.Watchlists[:idx], doc.Watchlists[idx+1:]...)
}

func cleanUID(uid string) (string, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", invalid("uid", "is required")
	}
	return uid, nil
}

func cleanName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid(field, "is required")
	}
	if len(name) > maxNameLength {
		return "", invalid(field, "must be at most 100 characters")
	}
	return name, nil
}

func cleanRef(ref models.MediaRef) (models.MediaRef, error) {
	ref.ID = strings.TrimSpace(ref.ID)
	if ref.ID == "" {
		return models.MediaRef{}, invalid("ID", "is required")
	}
	kind, ok := models.ParseMediaType(string(ref.Type))
	if !ok {
		return models.MediaRef{}, invalid("mediaType", "must be \"m\" or \"s\"")
	}
	ref.Type = kind
	return ref, nil
}
