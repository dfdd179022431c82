package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/contre95/vinylshelf/src/vinyl"
)

// Apply resolves, filters and sorts records for display. The input is left
// untouched and records with equal keys keep their input order.
func Apply(records []vinyl.Record, names NameIndex, q Query) []ResolvedRecord {
	out := Filter(records, names, q)
	Sort(out, q.SortKey, q.SortOrder)
	return out
}

// Filter resolves records and keeps those matching q, preserving order.
func Filter(records []vinyl.Record, names NameIndex, q Query) []ResolvedRecord {
	out := make([]ResolvedRecord, 0, len(records))
	for _, r := range records {
		rr := Resolve(r, names)
		if q.Matches(rr) {
			out = append(out, rr)
		}
	}
	return out
}

// Matches reports whether a record passes every active filter of q.
func (q Query) Matches(r ResolvedRecord) bool {
	if q.FavoritesOnly && !r.IsLiked {
		return false
	}
	if q.GenreID != "" && r.GenreID != q.GenreID {
		return false
	}
	if q.SearchTerm == "" {
		return true
	}
	term := strings.ToLower(q.SearchTerm)
	return strings.Contains(strings.ToLower(r.Name), term) ||
		strings.Contains(strings.ToLower(r.ArtistName()), term)
}

// Filtered reports whether any filter of q is active.
func (q Query) Filtered() bool {
	return q.SearchTerm != "" || q.GenreID != "" || q.FavoritesOnly
}

// Sort orders list in place. Descending negates the ascending comparator
// rather than reversing, so ties stay in input order either way.
func Sort(list []ResolvedRecord, key SortKey, order SortOrder) {
	compare := comparator(key)
	if order == Desc {
		asc := compare
		compare = func(a, b ResolvedRecord) int { return -asc(a, b) }
	}
	slices.SortStableFunc(list, compare)
}

func comparator(key SortKey) func(a, b ResolvedRecord) int {
	switch key {
	case SortByArtist:
		return func(a, b ResolvedRecord) int {
			return strings.Compare(strings.ToLower(a.ArtistName()), strings.ToLower(b.ArtistName()))
		}
	case SortByYear:
		return func(a, b ResolvedRecord) int {
			ad, am, ay := a.ReleaseDate.Parts()
			bd, bm, by := b.ReleaseDate.Parts()
			return cmp.Or(cmp.Compare(ay, by), cmp.Compare(am, bm), cmp.Compare(ad, bd))
		}
	default:
		return func(a, b ResolvedRecord) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	}
}
