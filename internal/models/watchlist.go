package models

import (
	"strings"
	"time"
)

// MediaType distinguishes movies from series in the external catalog.
type MediaType string

const (
	MediaTypeMovie  MediaType = "m"
	MediaTypeSeries MediaType = "s"
)

// ParseMediaType accepts the short codes stored in watchlists as well as the
// catalog's long names ("movie", "tv", "series").
func ParseMediaType(value string) (MediaType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "m", "movie":
		return MediaTypeMovie, true
	case "s", "tv", "series":
		return MediaTypeSeries, true
	}
	return "", false
}

// MediaRef points at one title in the external catalog.
type MediaRef struct {
	ID   string    `json:"id"`
	Type MediaType `json:"type"`
}

// Key returns a stable identifier combining media type and ID.
func (m MediaRef) Key() string {
	return string(m.Type) + ":" + m.ID
}

// Watchlist is a named, user-owned ordered set of media references.
type Watchlist struct {
	Name   string     `json:"name"`
	Poster string     `json:"poster"`
	Media  []MediaRef `json:"media"`
}

// WatchlistDocument is the per-user record holding every watchlist the user
// owns together with the creation time of each list, keyed by list name.
type WatchlistDocument struct {
	UserID     string               `json:"uid"`
	Watchlists []Watchlist          `json:"watchlist"`
	Timestamps map[string]time.Time `json:"watchlistTimestamps"`
	Version    int64                `json:"version"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// NewWatchlistDocument returns an empty document for the user.
func NewWatchlistDocument(userID string) WatchlistDocument {
	return WatchlistDocument{
		UserID:     userID,
		Watchlists: []Watchlist{},
		Timestamps: make(map[string]time.Time),
	}
}

// Index returns the position of the named watchlist or -1.
func (d *WatchlistDocument) Index(name string) int {
	for i := range d.Watchlists {
		if d.Watchlists[i].Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (d WatchlistDocument) Clone() WatchlistDocument {
	out := d
	out.Watchlists = make([]Watchlist, len(d.Watchlists))
	for i, w := range d.Watchlists {
		w.Media = append([]MediaRef(nil), w.Media...)
		if w.Media == nil {
			w.Media = []MediaRef{}
		}
		out.Watchlists[i] = w
	}
	out.Timestamps = make(map[string]time.Time, len(d.Timestamps))
	for k, v := range d.Timestamps {
		out.Timestamps[k] = v
	}
	return out
}
