package presenter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/reelroom/backend/internal/media"
	"github.com/reelroom/backend/internal/models"
	"github.com/reelroom/backend/internal/watchlists"
)

type stubSource struct {
	list models.Watchlist
	err  error
}

func (s stubSource) GetWatchlist(context.Context, string, string) (models.Watchlist, error) {
	if s.err != nil {
		return models.Watchlist{}, s.err
	}
	return s.list, nil
}

type stubProvider struct {
	mu      sync.Mutex
	details map[string]media.Details
	fail    map[string]bool
	calls   int
	onCall  func()
}

func (s *stubProvider) Lookup(ctx context.Context, kind models.MediaType, id string) (media.Details, error) {
	s.mu.Lock()
	s.calls++
	onCall := s.onCall
	s.mu.Unlock()
	if onCall != nil {
		onCall()
	}
	if err := ctx.Err(); err != nil {
		return media.Details{}, err
	}
	key := models.MediaRef{ID: id, Type: kind}.Key()
	if s.fail[key] {
		return media.Details{}, media.ErrLookupFailed
	}
	if d, ok := s.details[key]; ok {
		return d, nil
	}
	return media.Details{Title: "Title " + id, ReleaseDate: "2001-01-01", Rating: 7.25}, nil
}

func listOf(n int) models.Watchlist {
	list := models.Watchlist{Name: "Later", Media: make([]models.MediaRef, 0, n)}
	for i := 1; i <= n; i++ {
		list.Media = append(list.Media, models.MediaRef{ID: fmt.Sprint(i), Type: models.MediaTypeMovie})
	}
	return list
}

func TestRenderPagePagination(t *testing.T) {
	p := New(stubSource{list: listOf(10)}, &stubProvider{}, 6, 4)
	ctx := context.Background()

	first, err := p.RenderPage(ctx, View{UserID: "u1", Watchlist: "Later", Page: 1})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(first.Items) != 6 || first.TotalPages != 2 || first.Empty {
		t.Fatalf("unexpected first page %+v", first)
	}
	for i, item := range first.Items {
		if item.ID != fmt.Sprint(i+1) {
			t.Fatalf("expected items in list order, got %s at %d", item.ID, i)
		}
	}

	second, err := p.RenderPage(ctx, View{UserID: "u1", Watchlist: "Later", Page: 2})
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(second.Items) != 4 || second.TotalPages != 2 {
		t.Fatalf("unexpected second page %+v", second)
	}
	if second.Items[0].ID != "7" || second.Items[3].ID != "10" {
		t.Fatalf("unexpected second page contents %+v", second.Items)
	}

	if _, err := p.RenderPage(ctx, View{UserID: "u1", Watchlist: "Later", Page: 3}); !errors.Is(err, ErrPageOutOfRange) {
		t.Fatalf("expected out of range got %v", err)
	}
	if _, err := p.RenderPage(ctx, View{UserID: "u1", Watchlist: "Later", Page: -1}); !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("expected invalid page got %v", err)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		items, size, want int
	}{
		{0, 6, 0},
		{1, 6, 1},
		{6, 6, 1},
		{7, 6, 2},
		{10, 6, 2},
		{13, 6, 3},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.items, tc.size); got != tc.want {
			t.Fatalf("TotalPages(%d, %d) = %d want %d", tc.items, tc.size, got, tc.want)
		}
	}
}

func TestRenderPageIsolatesLookupFailures(t *testing.T) {
	provider := &stubProvider{fail: map[string]bool{"m:2": true}}
	p := New(stubSource{list: listOf(3)}, provider, 6, 2)

	page, err := p.RenderPage(context.Background(), View{UserID: "u1", Watchlist: "Later", Page: 1})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected all items rendered got %d", len(page.Items))
	}

	failed := page.Items[1]
	if !failed.Missing || failed.PosterURL != DefaultPoster || failed.Title != Placeholder || failed.Rating != Placeholder {
		t.Fatalf("expected placeholder item got %+v", failed)
	}
	for _, idx := range []int{0, 2} {
		item := page.Items[idx]
		if item.Missing || item.Title != "Title "+item.ID {
			t.Fatalf("expected resolved item at %d got %+v", idx, item)
		}
	}
}

func TestRenderPageEmptyState(t *testing.T) {
	cases := []struct {
		name   string
		source stubSource
	}{
		{"emptyList", stubSource{list: models.Watchlist{Name: "Later", Media: []models.MediaRef{}}}},
		{"missingList", stubSource{err: watchlists.ErrNotFound}},
		{"missingUser", stubSource{err: watchlists.ErrUserNotFound}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &stubProvider{}
			p := New(tc.source, provider, 6, 2)
			page, err := p.RenderPage(context.Background(), View{UserID: "u1", Watchlist: "Later"})
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if !page.Empty || page.TotalPages != 0 || len(page.Items) != 0 {
				t.Fatalf("expected empty state got %+v", page)
			}
			if provider.calls != 0 {
				t.Fatalf("expected no lookups got %d", provider.calls)
			}
		})
	}
}

func TestRenderPageSourceError(t *testing.T) {
	boom := errors.New("boom")
	p := New(stubSource{err: boom}, &stubProvider{}, 6, 2)
	if _, err := p.RenderPage(context.Background(), View{UserID: "u1", Watchlist: "Later"}); !errors.Is(err, boom) {
		t.Fatalf("expected source error got %v", err)
	}
}

func TestRenderPageDiscardsResultsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &stubProvider{onCall: cancel}
	p := New(stubSource{list: listOf(4)}, provider, 6, 1)

	page, err := p.RenderPage(ctx, View{UserID: "u1", Watchlist: "Later"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation got %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected no items after cancellation got %d", len(page.Items))
	}
}

func TestOverviewUsesFullList(t *testing.T) {
	provider := &stubProvider{
		details: map[string]media.Details{
			"m:1": {Title: "One", Genres: []string{"Drama"}, BackdropURL: "back-1"},
			"m:2": {Title: "Two", Genres: []string{"Drama", "Comedy"}, BackdropURL: "back-2"},
			"m:7": {Title: "Seven", Genres: []string{"Horror"}, BackdropURL: "back-7"},
			"m:8": {Title: "Eight", Genres: []string{"Comedy", "Drama"}, BackdropURL: "back-8"},
		},
		fail: map[string]bool{"m:3": true},
	}
	p := New(stubSource{list: listOf(8)}, provider, 6, 3)
	p.Intn = func(n int) int {
		if n != 8 {
			t.Fatalf("expected backdrop to be picked from all 8 items got %d", n)
		}
		return 6
	}

	overview, err := p.Overview(context.Background(), "u1", "Later")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.ItemCount != 8 {
		t.Fatalf("expected 8 items got %d", overview.ItemCount)
	}
	if overview.BackdropURL != "back-7" {
		t.Fatalf("expected backdrop from picked item got %q", overview.BackdropURL)
	}

	want := []GenreCount{{"Drama", 3}, {"Comedy", 2}, {"Horror", 1}}
	if len(overview.Genres) != len(want) {
		t.Fatalf("unexpected histogram %+v", overview.Genres)
	}
	for i := range want {
		if overview.Genres[i] != want[i] {
			t.Fatalf("histogram[%d] = %+v want %+v", i, overview.Genres[i], want[i])
		}
	}

	if len(overview.Recent) != 2 || overview.Recent[0].ID != "8" || overview.Recent[1].ID != "7" {
		t.Fatalf("expected last two items newest first got %+v", overview.Recent)
	}
}

func TestOverviewEmpty(t *testing.T) {
	p := New(stubSource{err: watchlists.ErrNotFound}, &stubProvider{}, 6, 2)
	overview, err := p.Overview(context.Background(), "u1", "Gone")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.ItemCount != 0 || len(overview.Genres) != 0 || len(overview.Recent) != 0 || overview.BackdropURL != "" {
		t.Fatalf("expected empty overview got %+v", overview)
	}
}

func TestToDisplayItem(t *testing.T) {
	ref := models.MediaRef{ID: "1399", Type: models.MediaTypeSeries}
	item := ToDisplayItem(ref, media.Details{
		Title:       "Game of Thrones",
		PosterURL:   "https://img/w500/got.jpg",
		ReleaseDate: "2011-04-17",
		Genres:      []string{"Drama"},
		Rating:      8.456,
	})
	if item.DetailsURL != "series_details.html?id=1399" {
		t.Fatalf("unexpected details url %q", item.DetailsURL)
	}
	if item.ReleaseYear != "2011" || item.Rating != "8.5/10" || item.Missing {
		t.Fatalf("unexpected item %+v", item)
	}

	blank := ToDisplayItem(models.MediaRef{ID: "1", Type: models.MediaTypeMovie}, media.Details{})
	if blank.PosterURL != DefaultPoster || blank.ReleaseYear != Placeholder || blank.Rating != Placeholder {
		t.Fatalf("expected placeholders for blank fields got %+v", blank)
	}
	if blank.DetailsURL != "movie-details.html?id=1" {
		t.Fatalf("unexpected details url %q", blank.DetailsURL)
	}
}
