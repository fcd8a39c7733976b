package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reelroom/backend/internal/metrics"
	"github.com/reelroom/backend/internal/models"
)

const profileSize = "w185"

type tmdbListItem struct {
	ID           int64   `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
}

type tmdbList struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
	Results      []tmdbListItem `json:"results"`
}

type tmdbCredits struct {
	Cast []struct {
		Name        string `json:"name"`
		Character   string `json:"character"`
		ProfilePath string `json:"profile_path"`
		Order       int    `json:"order"`
	} `json:"cast"`
	Crew []struct {
		Name       string `json:"name"`
		Job        string `json:"job"`
		Department string `json:"department"`
	} `json:"crew"`
}

type tmdbSeason struct {
	SeasonNumber int    `json:"season_number"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	AirDate      string `json:"air_date"`
	PosterPath   string `json:"poster_path"`
	Episodes     []struct {
		EpisodeNumber int     `json:"episode_number"`
		Name          string  `json:"name"`
		Overview      string  `json:"overview"`
		AirDate       string  `json:"air_date"`
		VoteAverage   float64 `json:"vote_average"`
	} `json:"episodes"`
}

// Browse fetches one page of a curated list such as trending or popular.
func (c *TMDBClient) Browse(ctx context.Context, kind models.MediaType, listing Listing, page int) (CatalogPage, error) {
	if c == nil {
		return CatalogPage{}, ErrProviderUnavailable
	}
	path, err := browsePath(kind, listing)
	if err != nil {
		return CatalogPage{}, err
	}
	page, err = normalizePage(page)
	if err != nil {
		return CatalogPage{}, err
	}
	return c.list(ctx, "browse_"+string(listing), path, url.Values{"page": {strconv.Itoa(page)}}, kind)
}

// Search runs a title search. Adult titles are always excluded.
func (c *TMDBClient) Search(ctx context.Context, kind models.MediaType, query string, page int) (CatalogPage, error) {
	if c == nil {
		return CatalogPage{}, ErrProviderUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return CatalogPage{}, fmt.Errorf("%w: search query is required", ErrInvalidQuery)
	}
	page, err := normalizePage(page)
	if err != nil {
		return CatalogPage{}, err
	}

	path := "/search/multi"
	if kind != "" {
		segment, err := kindSegment(kind)
		if err != nil {
			return CatalogPage{}, err
		}
		path = "/search/" + segment
	}
	params := url.Values{
		"query":         {query},
		"include_adult": {"false"},
		"page":          {strconv.Itoa(page)},
	}
	return c.list(ctx, "search", path, params, kind)
}

// Similar lists titles TMDB considers similar to kind/id.
func (c *TMDBClient) Similar(ctx context.Context, kind models.MediaType, id string, page int) (CatalogPage, error) {
	if c == nil {
		return CatalogPage{}, ErrProviderUnavailable
	}
	segment, err := kindSegment(kind)
	if err != nil {
		return CatalogPage{}, err
	}
	if id = strings.TrimSpace(id); id == "" {
		return CatalogPage{}, fmt.Errorf("%w: empty id", ErrInvalidQuery)
	}
	page, err = normalizePage(page)
	if err != nil {
		return CatalogPage{}, err
	}
	path := "/" + segment + "/" + url.PathEscape(id) + "/similar"
	return c.list(ctx, "similar", path, url.Values{"page": {strconv.Itoa(page)}}, kind)
}

// Credits fetches the cast and crew of kind/id.
func (c *TMDBClient) Credits(ctx context.Context, kind models.MediaType, id string) (Credits, error) {
	if c == nil {
		return Credits{}, ErrProviderUnavailable
	}
	segment, err := kindSegment(kind)
	if err != nil {
		return Credits{}, err
	}
	if id = strings.TrimSpace(id); id == "" {
		return Credits{}, fmt.Errorf("%w: empty id", ErrInvalidQuery)
	}

	var payload tmdbCredits
	err = c.observe(ctx, "credits", "/"+segment+"/"+url.PathEscape(id)+"/credits", nil, &payload)
	if err != nil {
		return Credits{}, err
	}

	credits := Credits{
		Cast: make([]CastMember, 0, len(payload.Cast)),
		Crew: make([]CrewMember, 0, len(payload.Crew)),
	}
	for _, member := range payload.Cast {
		credits.Cast = append(credits.Cast, CastMember{
			Name:       member.Name,
			Character:  member.Character,
			ProfileURL: c.imageURL(profileSize, member.ProfilePath),
		})
	}
	for _, member := range payload.Crew {
		credits.Crew = append(credits.Crew, CrewMember{Name: member.Name, Job: member.Job, Department: member.Department})
	}
	return credits, nil
}

// Season fetches one season of a series with its episodes.
func (c *TMDBClient) Season(ctx context.Context, seriesID string, number int) (Season, error) {
	if c == nil {
		return Season{}, ErrProviderUnavailable
	}
	if seriesID = strings.TrimSpace(seriesID); seriesID == "" {
		return Season{}, fmt.Errorf("%w: empty id", ErrInvalidQuery)
	}
	if number < 0 {
		return Season{}, fmt.Errorf("%w: season number must not be negative", ErrInvalidQuery)
	}

	var payload tmdbSeason
	path := "/tv/" + url.PathEscape(seriesID) + "/season/" + strconv.Itoa(number)
	if err := c.observe(ctx, "season", path, nil, &payload); err != nil {
		return Season{}, err
	}

	season := Season{
		Number:    payload.SeasonNumber,
		Name:      payload.Name,
		Overview:  payload.Overview,
		AirDate:   payload.AirDate,
		PosterURL: c.imageURL(posterSize, payload.PosterPath),
		Episodes:  make([]Episode, 0, len(payload.Episodes)),
	}
	for _, ep := range payload.Episodes {
		season.Episodes = append(season.Episodes, Episode{
			Number:   ep.EpisodeNumber,
			Name:     ep.Name,
			Overview: ep.Overview,
			AirDate:  ep.AirDate,
			Rating:   ep.VoteAverage,
		})
	}
	return season, nil
}

// list fetches a paginated listing. Items whose kind cannot be determined,
// such as people in a multi search, are dropped.
func (c *TMDBClient) list(ctx context.Context, endpoint, path string, query url.Values, kind models.MediaType) (CatalogPage, error) {
	var payload tmdbList
	if err := c.observe(ctx, endpoint, path, query, &payload); err != nil {
		return CatalogPage{}, err
	}

	page := CatalogPage{
		Page:         payload.Page,
		TotalPages:   payload.TotalPages,
		TotalResults: payload.TotalResults,
		Results:      make([]Summary, 0, len(payload.Results)),
	}
	for _, item := range payload.Results {
		itemKind := kind
		if item.MediaType != "" {
			parsed, ok := models.ParseMediaType(item.MediaType)
			if !ok {
				continue
			}
			itemKind = parsed
		}
		if itemKind == "" {
			continue
		}
		summary := Summary{
			ID:          strconv.FormatInt(item.ID, 10),
			Kind:        itemKind,
			Title:       item.Title,
			Overview:    item.Overview,
			PosterURL:   c.imageURL(posterSize, item.PosterPath),
			BackdropURL: c.imageURL(backdropSize, item.BackdropPath),
			ReleaseDate: item.ReleaseDate,
			Rating:      item.VoteAverage,
		}
		if summary.Title == "" {
			summary.Title = item.Name
		}
		if summary.ReleaseDate == "" {
			summary.ReleaseDate = item.FirstAirDate
		}
		page.Results = append(page.Results, summary)
	}
	return page, nil
}

func (c *TMDBClient) observe(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	start := time.Now()
	err := c.get(ctx, path, query, out)
	metrics.MediaLookupDuration.Observe(time.Since(start).Seconds())

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.CatalogRequests.WithLabelValues(endpoint, outcome).Inc()
	return err
}

var _ Catalog = (*TMDBClient)(nil)
