package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reelroom/backend/internal/models"
)

// ErrInvalidQuery indicates a catalog request the upstream would reject.
var ErrInvalidQuery = errors.New("invalid catalog query")

// MaxCatalogPage is the last page TMDB serves for list and search endpoints.
const MaxCatalogPage = 500

// Listing names one of the curated catalog lists.
type Listing string

const (
	ListingTrending    Listing = "trending"
	ListingPopular     Listing = "popular"
	ListingTopRated    Listing = "top_rated"
	ListingNowPlaying  Listing = "now_playing"
	ListingAiringToday Listing = "airing_today"
	ListingOnTheAir    Listing = "on_the_air"
)

// ParseListing accepts snake or kebab case list names.
func ParseListing(value string) (Listing, bool) {
	listing := Listing(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_"))
	switch listing {
	case ListingTrending, ListingPopular, ListingTopRated, ListingNowPlaying, ListingAiringToday, ListingOnTheAir:
		return listing, true
	}
	return "", false
}

// Summary is one title in a catalog listing or search result.
type Summary struct {
	ID          string           `json:"id"`
	Kind        models.MediaType `json:"type"`
	Title       string           `json:"title"`
	Overview    string           `json:"overview,omitempty"`
	PosterURL   string           `json:"poster,omitempty"`
	BackdropURL string           `json:"backdrop,omitempty"`
	ReleaseDate string           `json:"releaseDate,omitempty"`
	Rating      float64          `json:"rating"`
}

// CatalogPage is one page of a paginated catalog response.
type CatalogPage struct {
	Page         int       `json:"page"`
	TotalPages   int       `json:"totalPages"`
	TotalResults int       `json:"totalResults"`
	Results      []Summary `json:"results"`
}

type CastMember struct {
	Name       string `json:"name"`
	Character  string `json:"character,omitempty"`
	ProfileURL string `json:"profile,omitempty"`
}

type CrewMember struct {
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department,omitempty"`
}

// Credits lists the cast in billing order and the crew of a title.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type Episode struct {
	Number   int     `json:"number"`
	Name     string  `json:"name"`
	Overview string  `json:"overview,omitempty"`
	AirDate  string  `json:"airDate,omitempty"`
	Rating   float64 `json:"rating"`
}

// Season describes one season of a series and its episodes.
type Season struct {
	Number    int       `json:"number"`
	Name      string    `json:"name"`
	Overview  string    `json:"overview,omitempty"`
	AirDate   string    `json:"airDate,omitempty"`
	PosterURL string    `json:"poster,omitempty"`
	Episodes  []Episode `json:"episodes"`
}

// Catalog browses and searches the upstream title database. A zero kind in
// Search means both movies and series.
type Catalog interface {
	Browse(ctx context.Context, kind models.MediaType, listing Listing, page int) (CatalogPage, error)
	Search(ctx context.Context, kind models.MediaType, query string, page int) (CatalogPage, error)
	Similar(ctx context.Context, kind models.MediaType, id string, page int) (CatalogPage, error)
	Credits(ctx context.Context, kind models.MediaType, id string) (Credits, error)
	Season(ctx context.Context, seriesID string, number int) (Season, error)
}

// browsePath maps a listing onto its TMDB endpoint. Some lists exist for
// only one kind.
func browsePath(kind models.MediaType, listing Listing) (string, error) {
	segment, err := kindSegment(kind)
	if err != nil {
		return "", err
	}
	switch listing {
	case ListingTrending:
		return "/trending/" + segment + "/week", nil
	case ListingPopular, ListingTopRated:
		return "/" + segment + "/" + string(listing), nil
	case ListingNowPlaying:
		if kind == models.MediaTypeMovie {
			return "/movie/now_playing", nil
		}
	case ListingAiringToday, ListingOnTheAir:
		if kind == models.MediaTypeSeries {
			return "/tv/" + string(listing), nil
		}
	default:
		return "", fmt.Errorf("%w: unknown listing %q", ErrInvalidQuery, listing)
	}
	return "", fmt.Errorf("%w: %s is not available for %s", ErrInvalidQuery, listing, segment)
}

func kindSegment(kind models.MediaType) (string, error) {
	switch kind {
	case models.MediaTypeMovie:
		return "movie", nil
	case models.MediaTypeSeries:
		return "tv", nil
	}
	return "", fmt.Errorf("%w: unknown media type %q", ErrInvalidQuery, kind)
}

// normalizePage maps 0 to the first page and rejects anything TMDB would refuse.
func normalizePage(page int) (int, error) {
	if page == 0 {
		return 1, nil
	}
	if page < 1 || page > MaxCatalogPage {
		return 0, fmt.Errorf("%w: page must be between 1 and %d", ErrInvalidQuery, MaxCatalogPage)
	}
	return page, nil
}
