package importing

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/contre95/vinylshelf/src/vinyl"
)

//go:embed demo.yaml
var demoSeed []byte

// Seed is the YAML import format.
type Seed struct {
	Artists []vinyl.LookupEntity `yaml:"artists" validate:"dive"`
	Genres  []vinyl.LookupEntity `yaml:"genres" validate:"dive"`
	Records []vinyl.Record       `yaml:"records" validate:"dive"`
}

// ParseSeed decodes a seed document. Unknown fields are an error.
func ParseSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		if err == io.EOF {
			return &seed, nil
		}
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	return &seed, nil
}

// newValidator returns a validator that understands DD-MM-YYYY dates.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("release_date", func(fl validator.FieldLevel) bool {
		return vinyl.ReleaseDate(fl.Field().String()).Valid()
	})
	return v
}
