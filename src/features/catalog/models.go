package catalog

import (
	"errors"

	"github.com/contre95/vinylshelf/src/vinyl"
)

var (
	// ErrNoEligibleRecord is returned by a random pick over an empty filtered list.
	ErrNoEligibleRecord = errors.New("no records match the active filters")
	// ErrSessionClosed is returned by operations on a torn down session.
	ErrSessionClosed = errors.New("catalog session closed")
	// ErrRecordNotLoaded is returned when an id is not in the session list.
	ErrRecordNotLoaded = errors.New("record not loaded in this session")
)

// SortKey selects the ordering of the catalog.
type SortKey string

const (
	SortByName   SortKey = "name"
	SortByArtist SortKey = "artist"
	SortByYear   SortKey = "year"
)

// ParseSortKey maps a control value onto a SortKey, defaulting to name.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortByArtist:
		return SortByArtist
	case SortByYear:
		return SortByYear
	default:
		return SortByName
	}
}

// SortOrder is the direction of the ordering.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ParseSortOrder maps a control value onto a SortOrder, defaulting to asc.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == Desc {
		return Desc
	}
	return Asc
}

// Query is the set of active catalog controls.
type Query struct {
	SearchTerm    string    `json:"search"`
	GenreID       string    `json:"genre"`
	FavoritesOnly bool      `json:"favorites"`
	SortKey       SortKey   `json:"sort"`
	SortOrder     SortOrder `json:"order"`
}

// DefaultQuery sorts by name ascending with no filters.
func DefaultQuery() Query {
	return Query{SortKey: SortByName, SortOrder: Asc}
}

// WithSort applies a sort control change: the active key flips the order,
// any other key becomes active in ascending order.
func (q Query) WithSort(key SortKey) Query {
	if q.SortKey == key {
		if q.SortOrder == Asc {
			q.SortOrder = Desc
		} else {
			q.SortOrder = Asc
		}
		return q
	}
	q.SortKey = key
	q.SortOrder = Asc
	return q
}

// Page is the result of one coordinator fetch.
type Page struct {
	Items      []vinyl.Record
	IsLastPage bool
}

// Resolution is the resolver's knowledge about one reference.
type Resolution struct {
	Name     string
	Resolved bool
	Found    bool
}

// MatchName is the name used for filtering and sorting: the resolved name,
// or "" while unresolved or when the entity does not exist.
func (r Resolution) MatchName() string {
	if r.Found {
		return r.Name
	}
	return ""
}

// NameIndex exposes resolved lookup names without triggering requests.
type NameIndex interface {
	Name(kind vinyl.LookupKind, id string) Resolution
}

// StaticNames is a fixed NameIndex. Every listed id is resolved and found.
type StaticNames map[vinyl.LookupKind]map[string]string

// Name implements NameIndex.
func (s StaticNames) Name(kind vinyl.LookupKind, id string) Resolution {
	name, ok := s[kind][id]
	return Resolution{Name: name, Resolved: ok, Found: ok}
}

// ResolvedRecord is a Record joined with its lookup names and transient
// view flags. It is rebuilt on every pass and never stored.
type ResolvedRecord struct {
	vinyl.Record
	Artist   Resolution
	Genre    Resolution
	Expanded bool
	Loading  bool
}

// ArtistName is the matchable artist name.
func (r ResolvedRecord) ArtistName() string { return r.Artist.MatchName() }

// Resolve joins a record with the names currently known to the index.
func Resolve(r vinyl.Record, names NameIndex) ResolvedRecord {
	rr := ResolvedRecord{Record: r}
	if names != nil {
		rr.Artist = names.Name(vinyl.KindArtist, r.ArtistID)
		rr.Genre = names.Name(vinyl.KindGenre, r.GenreID)
	}
	rr.Loading = !rr.Artist.Resolved || !rr.Genre.Resolved
	return rr
}
