package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reelroom/backend/internal/models"
)

func newCatalogServer(t *testing.T, seen *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = append(*seen, r.URL.RequestURI())
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/trending/movie/week", "/movie/popular", "/movie/550/similar":
			_, _ = w.Write([]byte(`{"page":2,"total_pages":9,"total_results":180,"results":[{"id":550,"title":"Fight Club","poster_path":"/fc.jpg","release_date":"1999-10-15","vote_average":8.4,"overview":"Soap."}]}`))
		case "/tv/airing_today":
			_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"total_results":1,"results":[{"id":1399,"name":"Game of Thrones","first_air_date":"2011-04-17"}]}`))
		case "/search/multi":
			_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"total_results":3,"results":[
				{"id":603,"media_type":"movie","title":"The Matrix"},
				{"id":6384,"media_type":"person","name":"Keanu Reeves"},
				{"id":1399,"media_type":"tv","name":"Game of Thrones"}]}`))
		case "/search/tv":
			_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"total_results":1,"results":[{"id":1399,"name":"Game of Thrones"}]}`))
		case "/movie/550/credits":
			_, _ = w.Write([]byte(`{"cast":[{"name":"Edward Norton","character":"Narrator","profile_path":"/en.jpg","order":0}],"crew":[{"name":"David Fincher","job":"Director","department":"Directing"}]}`))
		case "/tv/1399/season/1":
			_, _ = w.Write([]byte(`{"season_number":1,"name":"Season 1","air_date":"2011-04-17","poster_path":"/s1.jpg","episodes":[{"episode_number":1,"name":"Winter Is Coming","vote_average":8.1}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTMDBClientBrowse(t *testing.T) {
	var seen []string
	srv := newCatalogServer(t, &seen)
	client := NewTMDBClient(srv.URL, "https://img.example/t/p", "secret", time.Second)
	ctx := context.Background()

	page, err := client.Browse(ctx, models.MediaTypeMovie, ListingTrending, 2)
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if page.Page != 2 || page.TotalPages != 9 || page.TotalResults != 180 || len(page.Results) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	got := page.Results[0]
	if got.ID != "550" || got.Kind != models.MediaTypeMovie || got.Title != "Fight Club" || got.PosterURL != "https://img.example/t/p/w500/fc.jpg" {
		t.Fatalf("unexpected summary %+v", got)
	}
	if seen[0] != "/trending/movie/week?page=2" {
		t.Fatalf("unexpected upstream request %q", seen[0])
	}

	series, err := client.Browse(ctx, models.MediaTypeSeries, ListingAiringToday, 0)
	if err != nil {
		t.Fatalf("browse series: %v", err)
	}
	if series.Results[0].Title != "Game of Thrones" || series.Results[0].ReleaseDate != "2011-04-17" || series.Results[0].Kind != models.MediaTypeSeries {
		t.Fatalf("expected series fields mapped, got %+v", series.Results[0])
	}
	if seen[1] != "/tv/airing_today?page=1" {
		t.Fatalf("expected page 0 to request the first page, got %q", seen[1])
	}
}

func TestTMDBClientBrowseRejectsInvalid(t *testing.T) {
	var seen []string
	srv := newCatalogServer(t, &seen)
	client := NewTMDBClient(srv.URL, "", "secret", time.Second)
	ctx := context.Background()

	tests := []struct {
		name    string
		kind    models.MediaType
		listing Listing
		page    int
	}{
		{name: "now playing series", kind: models.MediaTypeSeries, listing: ListingNowPlaying, page: 1},
		{name: "airing today movie", kind: models.MediaTypeMovie, listing: ListingAiringToday, page: 1},
		{name: "unknown listing", kind: models.MediaTypeMovie, listing: "upcoming-ish", page: 1},
		{name: "unknown kind", kind: "x", listing: ListingPopular, page: 1},
		{name: "page too large", kind: models.MediaTypeMovie, listing: ListingPopular, page: MaxCatalogPage + 1},
		{name: "negative page", kind: models.MediaTypeMovie, listing: ListingPopular, page: -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := client.Browse(ctx, tc.kind, tc.listing, tc.page); !errors.Is(err, ErrInvalidQuery) {
				t.Fatalf("expected invalid query got %v", err)
			}
		})
	}
	if len(seen) != 0 {
		t.Fatalf("invalid queries must not reach upstream, got %v", seen)
	}
}

func TestTMDBClientSearch(t *testing.T) {
	var seen []string
	srv := newCatalogServer(t, &seen)
	client := NewTMDBClient(srv.URL, "", "secret", time.Second)
	ctx := context.Background()

	page, err := client.Search(ctx, "", "matrix reloaded", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Results) != 2 {
		t.Fatalf("expected people to be dropped, got %+v", page.Results)
	}
	if page.Results[0].Kind != models.MediaTypeMovie || page.Results[1].Kind != models.MediaTypeSeries {
		t.Fatalf("unexpected kinds %+v", page.Results)
	}
	if seen[0] != "/search/multi?include_adult=false&page=1&query=matrix+reloaded" {
		t.Fatalf("unexpected upstream request %q", seen[0])
	}

	tv, err := client.Search(ctx, models.MediaTypeSeries, "thrones", 0)
	if err != nil {
		t.Fatalf("search tv: %v", err)
	}
	if len(tv.Results) != 1 || tv.Results[0].Kind != models.MediaTypeSeries {
		t.Fatalf("expected kind from request for typed search, got %+v", tv.Results)
	}

	if _, err := client.Search(ctx, "", "  ", 1); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected invalid query for blank search got %v", err)
	}
}

func TestTMDBClientDetailEndpoints(t *testing.T) {
	srv := newCatalogServer(t, nil)
	client := NewTMDBClient(srv.URL, "https://img.example/t/p/", "secret", time.Second)
	ctx := context.Background()

	similar, err := client.Similar(ctx, models.MediaTypeMovie, "550", 1)
	if err != nil || len(similar.Results) != 1 {
		t.Fatalf("similar: %+v %v", similar, err)
	}

	credits, err := client.Credits(ctx, models.MediaTypeMovie, "550")
	if err != nil {
		t.Fatalf("credits: %v", err)
	}
	if len(credits.Cast) != 1 || credits.Cast[0].ProfileURL != "https://img.example/t/p/w185/en.jpg" {
		t.Fatalf("unexpected cast %+v", credits.Cast)
	}
	if len(credits.Crew) != 1 || credits.Crew[0].Job != "Director" {
		t.Fatalf("unexpected crew %+v", credits.Crew)
	}

	season, err := client.Season(ctx, "1399", 1)
	if err != nil {
		t.Fatalf("season: %v", err)
	}
	if season.Number != 1 || len(season.Episodes) != 1 || season.Episodes[0].Name != "Winter Is Coming" {
		t.Fatalf("unexpected season %+v", season)
	}

	if _, err := client.Season(ctx, "1399", 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for missing season got %v", err)
	}
	if _, err := client.Credits(ctx, models.MediaTypeMovie, " "); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected invalid query for empty id got %v", err)
	}
}
