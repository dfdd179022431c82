package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/contre95/vinylshelf/src/vinyl"
)

// PickRandom returns one element of list chosen uniformly, or false when the
// list is empty.
func PickRandom(list []ResolvedRecord) (ResolvedRecord, bool) {
	if len(list) == 0 {
		return ResolvedRecord{}, false
	}
	return list[rand.IntN(len(list))], true
}

// lookupDirect fetches a lookup name without going through a resolver.
func lookupDirect(ctx context.Context, source vinyl.RecordSource, collections vinyl.Collections, kind vinyl.LookupKind, id string) (Resolution, error) {
	if id == "" {
		return Resolution{Name: kind.Unknown(), Resolved: true}, nil
	}
	doc, err := source.Get(ctx, collections.For(kind), id)
	if errors.Is(err, vinyl.ErrNotFound) {
		return Resolution{Name: kind.Unknown(), Resolved: true}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("lookup %s %s: %w", kind, id, err)
	}
	entity, err := vinyl.DecodeLookup(doc)
	if err != nil || entity.Name == "" {
		return Resolution{Name: kind.Unknown(), Resolved: true}, nil
	}
	return Resolution{Name: entity.Name, Resolved: true, Found: true}, nil
}
