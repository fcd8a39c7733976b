// Package presenter turns a stored watchlist into display-ready data: one
// page of items with resolved metadata, plus derived views computed over the
// whole list.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"github.com/reelroom/backend/internal/logging"
	"github.com/reelroom/backend/internal/media"
	"github.com/reelroom/backend/internal/metrics"
	"github.com/reelroom/backend/internal/models"
	"github.com/reelroom/backend/internal/watchlists"
)

const (
	DefaultPageSize = 6
	MaxPageSize     = 50

	DefaultPoster = "img/images/default-poster.jpg"
	Placeholder   = "N/A"

	defaultConcurrency = 8
	recentCount        = 2
)

var (
	// ErrInvalidPage indicates a page number or size below one or above the maximum.
	ErrInvalidPage = errors.New("invalid page request")
	// ErrPageOutOfRange indicates a page past the last one.
	ErrPageOutOfRange = errors.New("page out of range")
)

// WatchlistSource reads a single watchlist for an owner.
type WatchlistSource interface {
	GetWatchlist(ctx context.Context, uid, name string) (models.Watchlist, error)
}

// View identifies what is being rendered. It replaces any notion of a
// "current" user, list or page held between calls.
type View struct {
	UserID    string
	Watchlist string
	Page      int
	PageSize  int
}

// DisplayItem is the render-ready form of one media reference.
type DisplayItem struct {
	ID          string           `json:"id"`
	Type        models.MediaType `json:"type"`
	DetailsURL  string           `json:"detailsUrl"`
	Title       string           `json:"title"`
	PosterURL   string           `json:"posterUrl"`
	BackdropURL string           `json:"backdropUrl,omitempty"`
	ReleaseDate string           `json:"releaseDate"`
	ReleaseYear string           `json:"releaseYear"`
	Genres      []string         `json:"genres"`
	Rating      string           `json:"rating"`
	Missing     bool             `json:"missing"`
}

// Page is one rendered page of a watchlist.
type Page struct {
	Name       string        `json:"name"`
	Items      []DisplayItem `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
	TotalItems int           `json:"totalItems"`
	Empty      bool          `json:"empty"`
}

// GenreCount is one bucket of the genre histogram.
type GenreCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Overview holds the views derived from the full, unpaginated list.
type Overview struct {
	Name        string        `json:"name"`
	ItemCount   int           `json:"itemCount"`
	BackdropURL string        `json:"backdropUrl"`
	Genres      []GenreCount  `json:"genres"`
	Recent      []DisplayItem `json:"recent"`
}

// Presenter renders watchlists. It re-resolves metadata on every call; any
// caching belongs to the media.Provider it is given.
type Presenter struct {
	source      WatchlistSource
	provider    media.Provider
	pageSize    int
	concurrency int

	// Intn picks the backdrop item. Replaced in tests.
	Intn func(n int) int
}

// New constructs a Presenter. A pageSize below one selects DefaultPageSize.
func New(source WatchlistSource, provider media.Provider, pageSize, concurrency int) *Presenter {
	if source == nil {
		panic("presenter: watchlist source must not be nil")
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Presenter{
		source:      source,
		provider:    provider,
		pageSize:    pageSize,
		concurrency: concurrency,
		Intn:        rand.IntN,
	}
}

// TotalPages returns ceil(items / pageSize), zero for an empty list.
func TotalPages(items, pageSize int) int {
	if items <= 0 || pageSize <= 0 {
		return 0
	}
	return (items + pageSize - 1) / pageSize
}

// RenderPage resolves one page of the watchlist. Items whose lookup fails are
// rendered with placeholders; the page still completes. If ctx is cancelled
// before every lookup has joined, the partial results are discarded.
func (p *Presenter) RenderPage(ctx context.Context, view View) (Page, error) {
	ctx, span := logging.StartSpan(ctx, "presenter.render_page")
	defer span.End()

	if view.Page == 0 {
		view.Page = 1
	}
	if view.PageSize == 0 {
		view.PageSize = p.pageSize
	}
	if view.Page < 1 || view.PageSize < 1 || view.PageSize > MaxPageSize {
		return Page{}, ErrInvalidPage
	}

	list, err := p.watchlist(ctx, view)
	if err != nil {
		span.Fail(err)
		return Page{}, err
	}

	total := TotalPages(len(list.Media), view.PageSize)
	page := Page{
		Name:       view.Watchlist,
		Items:      []DisplayItem{},
		Page:       view.Page,
		PageSize:   view.PageSize,
		TotalPages: total,
		TotalItems: len(list.Media),
		Empty:      total == 0,
	}
	if page.Empty {
		if view.Page != 1 {
			return Page{}, ErrPageOutOfRange
		}
		return page, nil
	}
	if view.Page > total {
		return Page{}, ErrPageOutOfRange
	}

	start := (view.Page - 1) * view.PageSize
	end := min(start+view.PageSize, len(list.Media))

	items, err := p.resolve(ctx, list.Media[start:end])
	if err != nil {
		return Page{}, err
	}
	page.Items = items
	return page, nil
}

// Overview computes the backdrop, genre histogram and recent items from
// every item in the list, not just one page.
func (p *Presenter) Overview(ctx context.Context, uid, name string) (Overview, error) {
	ctx, span := logging.StartSpan(ctx, "presenter.overview")
	defer span.End()

	list, err := p.watchlist(ctx, View{UserID: uid, Watchlist: name})
	if err != nil {
		span.Fail(err)
		return Overview{}, err
	}

	overview := Overview{
		Name:      name,
		ItemCount: len(list.Media),
		Genres:    []GenreCount{},
		Recent:    []DisplayItem{},
	}
	if len(list.Media) == 0 {
		return overview, nil
	}

	items, err := p.resolve(ctx, list.Media)
	if err != nil {
		return Overview{}, err
	}

	overview.BackdropURL = items[p.pick(len(items))].BackdropURL
	overview.Genres = genreHistogram(items)
	for i := len(items) - 1; i >= 0 && len(overview.Recent) < recentCount; i-- {
		overview.Recent = append(overview.Recent, items[i])
	}
	return overview, nil
}

func (p *Presenter) watchlist(ctx context.Context, view View) (models.Watchlist, error) {
	list, err := p.source.GetWatchlist(ctx, view.UserID, view.Watchlist)
	switch {
	case err == nil:
		return list, nil
	case errors.Is(err, watchlists.ErrNotFound), errors.Is(err, watchlists.ErrUserNotFound):
		return models.Watchlist{Name: view.Watchlist, Media: []models.MediaRef{}}, nil
	default:
		return models.Watchlist{}, err
	}
}

// resolve looks every ref up concurrently and returns display items in the
// order of refs.
func (p *Presenter) resolve(ctx context.Context, refs []models.MediaRef) ([]DisplayItem, error) {
	mapper := iter.Mapper[models.MediaRef, DisplayItem]{MaxGoroutines: p.concurrency}
	items := mapper.Map(refs, func(ref *models.MediaRef) DisplayItem {
		details, err := p.lookup(ctx, *ref)
		if err != nil {
			logging.FromContext(ctx).Warn("media lookup failed",
				slog.String("media", ref.Key()),
				slog.Any("error", err),
			)
			metrics.PageRenderItems.WithLabelValues("missing").Inc()
			return Missing(*ref)
		}
		metrics.PageRenderItems.WithLabelValues("resolved").Inc()
		return ToDisplayItem(*ref, details)
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *Presenter) lookup(ctx context.Context, ref models.MediaRef) (media.Details, error) {
	if err := ctx.Err(); err != nil {
		return media.Details{}, err
	}
	if p.provider == nil {
		return media.Details{}, media.ErrProviderUnavailable
	}
	return p.provider.Lookup(ctx, ref.Type, ref.ID)
}

func (p *Presenter) pick(n int) int {
	if p.Intn == nil || n <= 1 {
		return 0
	}
	idx := p.Intn(n)
	if idx < 0 || idx >= n {
		return 0
	}
	return idx
}

// ToDisplayItem maps resolved details onto a display item. Blank fields fall
// back to placeholders.
func ToDisplayItem(ref models.MediaRef, details media.Details) DisplayItem {
	item := Missing(ref)
	item.Missing = false
	if details.Title != "" {
		item.Title = details.Title
	}
	if details.PosterURL != "" {
		item.PosterURL = details.PosterURL
	}
	item.BackdropURL = details.BackdropURL
	if details.ReleaseDate != "" {
		item.ReleaseDate = details.ReleaseDate
		item.ReleaseYear = releaseYear(details.ReleaseDate)
	}
	if len(details.Genres) > 0 {
		item.Genres = append([]string(nil), details.Genres...)
	}
	if details.Rating > 0 {
		item.Rating = fmt.Sprintf("%.1f/10", details.Rating)
	}
	return item
}

// Missing returns the placeholder item shown when metadata is unavailable.
func Missing(ref models.MediaRef) DisplayItem {
	return DisplayItem{
		ID:          ref.ID,
		Type:        ref.Type,
		DetailsURL:  DetailsURL(ref),
		Title:       Placeholder,
		PosterURL:   DefaultPoster,
		ReleaseDate: Placeholder,
		ReleaseYear: Placeholder,
		Genres:      []string{},
		Rating:      Placeholder,
		Missing:     true,
	}
}

// DetailsURL links to the title's detail page.
func DetailsURL(ref models.MediaRef) string {
	if ref.Type == models.MediaTypeSeries {
		return "series_details.html?id=" + ref.ID
	}
	return "movie-details.html?id=" + ref.ID
}

func releaseYear(date string) string {
	year, _, _ := strings.Cut(date, "-")
	if len(year) != 4 {
		return Placeholder
	}
	return year
}

func genreHistogram(items []DisplayItem) []GenreCount {
	counts := make(map[string]int)
	for _, item := range items {
		for _, genre := range item.Genres {
			counts[genre]++
		}
	}
	out := make([]GenreCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, GenreCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
