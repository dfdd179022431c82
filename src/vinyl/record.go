package vinyl

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Wire field names of a record document.
const (
	FieldName        = "name"
	FieldArtistID    = "artist-id"
	FieldGenreID     = "genre-id"
	FieldReleaseDate = "release-date"
	FieldDescription = "description"
	FieldCoverImage  = "coverImageUrl"
	FieldAppleMusic  = "apple-music"
	FieldSpotify     = "spotify"
	FieldIsLiked     = "isLiked"
)

// Record represents one vinyl release in the collection.
type Record struct {
	ID            string      `json:"-" yaml:"id"`
	Name          string      `json:"name" yaml:"name" validate:"required"`
	ArtistID      string      `json:"artist-id" yaml:"artist-id" validate:"required"`
	GenreID       string      `json:"genre-id" yaml:"genre-id" validate:"required"`
	ReleaseDate   ReleaseDate `json:"release-date" yaml:"release-date" validate:"omitempty,release_date"`
	Description   string      `json:"description" yaml:"description"`
	CoverImageURL string      `json:"coverImageUrl" yaml:"coverImageUrl" validate:"omitempty,url"`
	AppleMusic    string      `json:"apple-music,omitempty" yaml:"apple-music,omitempty" validate:"omitempty,url"`
	Spotify       string      `json:"spotify,omitempty" yaml:"spotify,omitempty" validate:"omitempty,url"`
	IsLiked       bool        `json:"isLiked,omitempty" yaml:"isLiked,omitempty"`
}

// DecodeRecord turns a raw document into a Record. Missing fields decode to
// their zero value; fields of the wrong type are an error.
func DecodeRecord(doc Document) (Record, error) {
	var r Record
	if doc.ID == "" {
		return r, fmt.Errorf("record document has no id")
	}
	if err := json.Unmarshal(doc.Data, &r); err != nil {
		return r, fmt.Errorf("decode record %s: %w", doc.ID, err)
	}
	r.ID = doc.ID
	return r, nil
}

// EncodeRecord renders a Record in its wire shape.
func EncodeRecord(r Record) (Document, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return Document{}, fmt.Errorf("encode record %s: %w", r.ID, err)
	}
	return Document{ID: r.ID, Data: data}, nil
}

// ReleaseDate is a release date stored as DD-MM-YYYY.
type ReleaseDate string

// Parts returns day, month and year. A missing or non-numeric component is 0.
func (d ReleaseDate) Parts() (day, month, year int) {
	parts := strings.Split(string(d), "-")
	num := func(i int) int {
		if i >= len(parts) {
			return 0
		}
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return 0
		}
		return n
	}
	return num(0), num(1), num(2)
}

// Valid reports whether the date has three numeric components.
func (d ReleaseDate) Valid() bool {
	parts := strings.Split(string(d), "-")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return true
}

// Display formats the date as DD/MM/YYYY, or returns "" when it does not
// have three components.
func (d ReleaseDate) Display() string {
	parts := strings.Split(string(d), "-")
	if d == "" || len(parts) != 3 {
		return ""
	}
	return strings.Join(parts, "/")
}

// Year returns the raw year component, "" when absent.
func (d ReleaseDate) Year() string {
	parts := strings.Split(string(d), "-")
	if d == "" || len(parts) < 3 {
		return ""
	}
	return parts[2]
}
