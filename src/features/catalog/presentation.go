package catalog

import (
	"strings"

	"github.com/contre95/vinylshelf/src/vinyl"
)

// Labels shown while a reference is still being resolved.
const (
	LoadingArtist = "Loading artist..."
	LoadingGenre  = "Loading genre..."
)

// Labels shown for missing record fields.
const (
	DateNotAvailable        = "Date not available"
	DescriptionNotAvailable = "Description not available."
)

// CardView is everything a record card renders.
type CardView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Genre       string `json:"genre"`
	Year        string `json:"year"`
	ReleaseDate string `json:"releaseDate"`
	Description string `json:"description"`
	CoverURL    string `json:"coverUrl,omitempty"`
	AppleMusic  string `json:"appleMusic,omitempty"`
	Spotify     string `json:"spotify,omitempty"`
	Liked       bool   `json:"liked"`
	Expanded    bool   `json:"expanded"`
	Loading     bool   `json:"-"`
}

// HasLinks reports whether the card has streaming links to show.
func (c CardView) HasLinks() bool { return c.AppleMusic != "" || c.Spotify != "" }

// Present maps the display list to cards, one per element, in order.
func Present(list []ResolvedRecord) []CardView {
	cards := make([]CardView, len(list))
	for i, r := range list {
		cards[i] = Card(r)
	}
	return cards
}

// Card maps one record to its card.
func Card(r ResolvedRecord) CardView {
	return CardView{
		ID:          r.ID,
		Name:        r.Name,
		Artist:      label(r.Artist, vinyl.KindArtist, LoadingArtist),
		Genre:       label(r.Genre, vinyl.KindGenre, LoadingGenre),
		Year:        orDefault(r.ReleaseDate.Year(), DateNotAvailable),
		ReleaseDate: orDefault(r.ReleaseDate.Display(), DateNotAvailable),
		Description: orDefault(strings.TrimSpace(r.Description), DescriptionNotAvailable),
		CoverURL:    r.CoverImageURL,
		AppleMusic:  r.AppleMusic,
		Spotify:     r.Spotify,
		Liked:       r.IsLiked,
		Expanded:    r.Expanded,
		Loading:     r.Loading,
	}
}

func label(res Resolution, kind vinyl.LookupKind, loading string) string {
	switch {
	case res.Found:
		return res.Name
	case res.Resolved:
		return kind.Unknown()
	default:
		return loading
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
