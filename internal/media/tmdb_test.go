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

func newTMDBServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/movie/550":
			_, _ = w.Write([]byte(`{"id":550,"title":"Fight Club","poster_path":"/poster.jpg","backdrop_path":"/back.jpg","release_date":"1999-10-15","vote_average":8.4,"genres":[{"id":18,"name":"Drama"},{"id":53,"name":"Thriller"}]}`))
		case "/tv/1399":
			_, _ = w.Write([]byte(`{"id":1399,"name":"Game of Thrones","poster_path":"/got.jpg","first_air_date":"2011-04-17","vote_average":8.5,"genres":[{"id":10765,"name":"Sci-Fi & Fantasy"}]}`))
		case "/movie/500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status_code":34}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTMDBClientLookupMovie(t *testing.T) {
	srv := newTMDBServer(t)
	client := NewTMDBClient(srv.URL, "https://img.example/t/p", "secret", time.Second)

	details, err := client.Lookup(context.Background(), models.MediaTypeMovie, "550")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if details.Title != "Fight Club" || details.ReleaseDate != "1999-10-15" || details.Rating != 8.4 {
		t.Fatalf("unexpected details %+v", details)
	}
	if details.PosterURL != "https://img.example/t/p/w500/poster.jpg" {
		t.Fatalf("unexpected poster url %q", details.PosterURL)
	}
	if details.BackdropURL != "https://img.example/t/p/original/back.jpg" {
		t.Fatalf("unexpected backdrop url %q", details.BackdropURL)
	}
	if len(details.Genres) != 2 || details.Genres[0] != "Drama" {
		t.Fatalf("unexpected genres %v", details.Genres)
	}
	if details.ID != "550" || details.Kind != models.MediaTypeMovie {
		t.Fatalf("expected ref to be echoed, got %+v", details)
	}
}

func TestTMDBClientLookupSeries(t *testing.T) {
	srv := newTMDBServer(t)
	client := NewTMDBClient(srv.URL, "", "secret", time.Second)

	details, err := client.Lookup(context.Background(), models.MediaTypeSeries, "1399")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if details.Title != "Game of Thrones" || details.ReleaseDate != "2011-04-17" {
		t.Fatalf("expected series fields to map onto title/release date, got %+v", details)
	}
	if details.BackdropURL != "" {
		t.Fatalf("expected empty backdrop url got %q", details.BackdropURL)
	}
}

func TestTMDBClientLookupErrors(t *testing.T) {
	srv := newTMDBServer(t)
	client := NewTMDBClient(srv.URL, "", "secret", time.Second)
	ctx := context.Background()

	_, err := client.Lookup(ctx, models.MediaTypeMovie, "404")
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, ErrLookupFailed) {
		t.Fatalf("expected wrapped not found got %v", err)
	}

	_, err = client.Lookup(ctx, models.MediaTypeMovie, "500")
	if !errors.Is(err, ErrLookupFailed) || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected lookup failure got %v", err)
	}

	if _, err := client.Lookup(ctx, "x", "1"); !errors.Is(err, ErrLookupFailed) {
		t.Fatalf("expected failure for unknown media type got %v", err)
	}

	var nilClient *TMDBClient
	if _, err := nilClient.Lookup(ctx, models.MediaTypeMovie, "1"); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable got %v", err)
	}
}
