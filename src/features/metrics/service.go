package metrics

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strconv"

	"github.com/contre95/vinylshelf/src/vinyl"
)

// Service computes collection statistics straight from the record source.
type Service struct {
	source      vinyl.RecordSource
	collections vinyl.Collections
}

// NewService creates a new metrics service.
func NewService(source vinyl.RecordSource, collections vinyl.Collections) *Service {
	return &Service{source: source, collections: collections}
}

// Metric represents a single metric data point.
type Metric struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

// Overview holds the collection statistics shown on the dashboard.
type Overview struct {
	TotalRecords int      `json:"total_records"`
	LikedRecords int      `json:"liked_records"`
	TotalGenres  int      `json:"total_genres"`
	GenreCounts  []Metric `json:"genre_counts"`
	DecadeCounts []Metric `json:"decade_counts"`
}

// GetOverview scans the records and genres collections. Records that fail to
// decode are left out of the counts.
func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	slog.Debug("GetOverview service called")
	docs, err := s.source.All(ctx, s.collections.Records)
	if err != nil {
		slog.Error("GetOverview failed to list records", "error", err)
		return nil, err
	}
	genreNames := map[string]string{}
	genreDocs, err := s.source.All(ctx, s.collections.Genres)
	if err != nil {
		slog.Warn("Failed to list genres for overview", "error", err)
	}
	for _, d := range genreDocs {
		if g, err := vinyl.DecodeLookup(d); err == nil {
			genreNames[g.ID] = g.Name
		}
	}

	overview := &Overview{TotalGenres: len(genreNames)}
	byGenre := map[string]int{}
	byDecade := map[string]int{}
	for _, d := range docs {
		r, err := vinyl.DecodeRecord(d)
		if err != nil {
			slog.Warn("Skipping undecodable record", "id", d.ID, "error", err)
			continue
		}
		overview.TotalRecords++
		if r.IsLiked {
			overview.LikedRecords++
		}
		genre, ok := genreNames[r.GenreID]
		if !ok {
			genre = vinyl.UnknownGenre
		}
		byGenre[genre]++
		if _, _, year := r.ReleaseDate.Parts(); year > 0 {
			byDecade[decade(year)]++
		}
	}
	overview.GenreCounts = sortedMetrics(byGenre, false)
	overview.DecadeCounts = sortedMetrics(byDecade, true)
	slog.Debug("GetOverview completed", "records", overview.TotalRecords)
	return overview, nil
}

func decade(year int) string {
	return strconv.Itoa(year/10*10) + "s"
}

// sortedMetrics orders by key when byKey is set, otherwise by count
// descending with key as tie-break.
func sortedMetrics(m map[string]int, byKey bool) []Metric {
	out := make([]Metric, 0, len(m))
	for k, v := range m {
		out = append(out, Metric{Key: k, Value: v})
	}
	slices.SortFunc(out, func(a, b Metric) int {
		if !byKey {
			if c := cmp.Compare(b.Value, a.Value); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}
