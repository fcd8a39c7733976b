package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/reelroom/backend/internal/metrics"
	"github.com/reelroom/backend/internal/models"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/"

	posterSize   = "w500"
	backdropSize = "original"
)

// TMDBClient looks titles up in The Movie Database v3 API.
type TMDBClient struct {
	BaseURL      string
	ImageBaseURL string
	Token        string
	HTTP         *http.Client
}

// NewTMDBClient constructs a client authenticating with a v4 read access token.
func NewTMDBClient(baseURL, imageBaseURL, token string, timeout time.Duration) *TMDBClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(imageBaseURL) == "" {
		imageBaseURL = DefaultImageBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TMDBClient{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ImageBaseURL: strings.TrimRight(imageBaseURL, "/") + "/",
		Token:        token,
		HTTP:         &http.Client{Timeout: timeout},
	}
}

type tmdbDetails struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// Lookup fetches /movie/{id} or /tv/{id}.
func (c *TMDBClient) Lookup(ctx context.Context, kind models.MediaType, id string) (Details, error) {
	if c == nil {
		return Details{}, ErrProviderUnavailable
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Details{}, fmt.Errorf("%w: empty id", ErrLookupFailed)
	}

	var segment string
	switch kind {
	case models.MediaTypeMovie:
		segment = "movie"
	case models.MediaTypeSeries:
		segment = "tv"
	default:
		return Details{}, fmt.Errorf("%w: unknown media type %q", ErrLookupFailed, kind)
	}

	start := time.Now()
	details, err := c.fetch(ctx, segment, id)
	metrics.MediaLookupDuration.Observe(time.Since(start).Seconds())

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.MediaLookups.WithLabelValues(segment, outcome).Inc()

	if err != nil {
		return Details{}, err
	}
	details.ID = id
	details.Kind = kind
	return details, nil
}

func (c *TMDBClient) fetch(ctx context.Context, segment, id string) (Details, error) {
	var payload tmdbDetails
	if err := c.get(ctx, "/"+segment+"/"+url.PathEscape(id), nil, &payload); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Details{}, fmt.Errorf("%s %s: %w", segment, id, err)
		}
		return Details{}, err
	}

	details := Details{
		Title:       payload.Title,
		ReleaseDate: payload.ReleaseDate,
		Rating:      payload.VoteAverage,
		Genres:      make([]string, 0, len(payload.Genres)),
		PosterURL:   c.imageURL(posterSize, payload.PosterPath),
		BackdropURL: c.imageURL(backdropSize, payload.BackdropPath),
	}
	if details.Title == "" {
		details.Title = payload.Name
	}
	if details.ReleaseDate == "" {
		details.ReleaseDate = payload.FirstAirDate
	}
	for _, genre := range payload.Genres {
		if genre.Name != "" {
			details.Genres = append(details.Genres, genre.Name)
		}
	}
	return details, nil
}

// get issues an authenticated GET against path and decodes the JSON body
// into out. Every failure wraps ErrLookupFailed; a 404 also wraps ErrNotFound.
func (c *TMDBClient) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %w", ErrLookupFailed, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: upstream status %d", ErrLookupFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrLookupFailed, err)
	}
	return nil
}

func (c *TMDBClient) imageURL(size, path string) string {
	if path == "" {
		return ""
	}
	return c.ImageBaseURL + size + "/" + strings.TrimLeft(path, "/")
}
