package importing

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/contre95/vinylshelf/src/vinyl"
)

// ImportStats counts the documents written by an import.
type ImportStats struct {
	Artists int `json:"artists"`
	Genres  int `json:"genres"`
	Records int `json:"records"`
}

// Service writes seed documents into a store.
type Service struct {
	writer      vinyl.DocumentWriter
	collections vinyl.Collections
	validate    *validator.Validate
}

// NewService creates a new importing service.
func NewService(writer vinyl.DocumentWriter, collections vinyl.Collections) *Service {
	return &Service{
		writer:      writer,
		collections: collections,
		validate:    newValidator(),
	}
}

// ImportFile imports the seed file at path.
func (s *Service) ImportFile(ctx context.Context, path string) (ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportStats{}, err
	}
	defer f.Close()
	seed, err := ParseSeed(f)
	if err != nil {
		return ImportStats{}, err
	}
	slog.Info("Importing seed file", "path", path)
	return s.Import(ctx, seed)
}

// ImportDemo imports the bundled demo collection.
func (s *Service) ImportDemo(ctx context.Context) (ImportStats, error) {
	seed, err := ParseSeed(bytes.NewReader(demoSeed))
	if err != nil {
		return ImportStats{}, err
	}
	return s.Import(ctx, seed)
}

// Import validates the whole seed and then writes it. Nothing is written when
// any entry is invalid. Records without an id get a generated one.
func (s *Service) Import(ctx context.Context, seed *Seed) (ImportStats, error) {
	for i := range seed.Records {
		if seed.Records[i].ID == "" {
			seed.Records[i].ID = uuid.NewString()
		}
	}
	if err := s.validate.Struct(seed); err != nil {
		return ImportStats{}, fmt.Errorf("invalid seed: %w", err)
	}
	s.warnDangling(seed)

	var stats ImportStats
	for _, a := range seed.Artists {
		if err := s.putLookup(ctx, s.collections.Artists, a); err != nil {
			return stats, err
		}
		stats.Artists++
	}
	for _, g := range seed.Genres {
		if err := s.putLookup(ctx, s.collections.Genres, g); err != nil {
			return stats, err
		}
		stats.Genres++
	}
	for _, r := range seed.Records {
		doc, err := vinyl.EncodeRecord(r)
		if err != nil {
			return stats, err
		}
		if err := s.writer.Put(ctx, s.collections.Records, doc); err != nil {
			return stats, fmt.Errorf("failed to write record %s: %w", r.ID, err)
		}
		stats.Records++
	}
	slog.Info("Seed imported", "artists", stats.Artists, "genres", stats.Genres, "records", stats.Records)
	return stats, nil
}

func (s *Service) putLookup(ctx context.Context, collection string, e vinyl.LookupEntity) error {
	doc, err := vinyl.EncodeLookup(e)
	if err != nil {
		return err
	}
	if err := s.writer.Put(ctx, collection, doc); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, e.ID, err)
	}
	return nil
}

// warnDangling logs record references to lookups the seed does not define.
// They may already exist in the store, so they are not rejected.
func (s *Service) warnDangling(seed *Seed) {
	artists := make(map[string]bool, len(seed.Artists))
	for _, a := range seed.Artists {
		artists[a.ID] = true
	}
	genres := make(map[string]bool, len(seed.Genres))
	for _, g := range seed.Genres {
		genres[g.ID] = true
	}
	for _, r := range seed.Records {
		if !artists[r.ArtistID] {
			slog.Warn("Record references an artist outside the seed", "record", r.ID, "artist", r.ArtistID)
		}
		if !genres[r.GenreID] {
			slog.Warn("Record references a genre outside the seed", "record", r.ID, "genre", r.GenreID)
		}
	}
}
