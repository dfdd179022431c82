package vinyl

import (
	"encoding/json"
	"fmt"
)

// LookupKind names a lookup entity set.
type LookupKind string

const (
	KindArtist LookupKind = "artist"
	KindGenre  LookupKind = "genre"
)

// Placeholders shown when a reference does not resolve.
const (
	UnknownArtist = "Unknown artist"
	UnknownGenre  = "Unknown genre"
)

// Unknown returns the placeholder label for the kind.
func (k LookupKind) Unknown() string {
	if k == KindGenre {
		return UnknownGenre
	}
	return UnknownArtist
}

// LookupEntity is an artist or a genre. It is managed outside this system.
type LookupEntity struct {
	ID   string `json:"-" yaml:"id" validate:"required"`
	Name string `json:"name" yaml:"name" validate:"required"`
}

// DecodeLookup turns a raw document into a LookupEntity.
func DecodeLookup(doc Document) (LookupEntity, error) {
	var e LookupEntity
	if err := json.Unmarshal(doc.Data, &e); err != nil {
		return e, fmt.Errorf("decode lookup %s: %w", doc.ID, err)
	}
	e.ID = doc.ID
	return e, nil
}

// EncodeLookup renders a LookupEntity in its wire shape.
func EncodeLookup(e LookupEntity) (Document, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return Document{}, fmt.Errorf("encode lookup %s: %w", e.ID, err)
	}
	return Document{ID: e.ID, Data: data}, nil
}

// Collections maps each entity set to its collection name in the store.
type Collections struct {
	Records string
	Artists string
	Genres  string
}

// For returns the collection holding lookups of the given kind.
func (c Collections) For(kind LookupKind) string {
	if kind == KindGenre {
		return c.Genres
	}
	return c.Artists
}
