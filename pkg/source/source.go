// Package source loads families from person stores.
//
// A family is the connected component (parents, children and spouses,
// transitively) around the person registered for a protocol key. Every
// backend expands it breadth-first, one batched lookup per level, up to
// [Options.MaxPeople] people.
package source

import (
	"context"

	errs "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

const (
	DefaultMaxPeople = 5000 // Default maximum people per family
	DefaultMaxDepth  = 100  // Default maximum BFS levels
)

// Options bounds family expansion.
type Options struct {
	MaxPeople int // Maximum people to load (default: 5000)
	MaxDepth  int // Maximum BFS levels from the root (default: 100)
}

// WithDefaults returns a copy of o with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.MaxPeople <= 0 {
		o.MaxPeople = DefaultMaxPeople
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

// Family is the result of a lookup.
type Family struct {
	ProtocolKey string          `json:"protocol_key,omitempty"`
	RootID      string          `json:"root_id,omitempty"`
	People      []family.Person `json:"people"`

	// Truncated is set when expansion stopped at a limit.
	Truncated bool `json:"truncated,omitempty"`
}

// Source loads families by protocol key.
type Source interface {
	// Name identifies the backend in cache keys and logs.
	Name() string

	// Family returns the family of the person registered for protocolKey.
	// It fails with FAMILY_NOT_FOUND when no person carries the key.
	Family(ctx context.Context, protocolKey string) (Family, error)

	// Limits returns the expansion limits in effect, defaults applied.
	Limits() Options

	// Close releases the backend.
	Close() error
}

// store is the lookup surface a backend provides to [expand].
type store interface {
	// root returns the first person registered for protocolKey.
	root(ctx context.Context, protocolKey string) (family.Person, bool, error)

	// related returns the people with an id in ids, plus everyone whose
	// father, mother or spouse list references one of ids.
	related(ctx context.Context, ids []string) ([]family.Person, error)
}

func expand(ctx context.Context, s store, protocolKey string, opts Options) (Family, error) {
	opts = opts.WithDefaults()
	if err := errs.ValidateProtocolKey(protocolKey); err != nil {
		return Family{}, err
	}

	root, ok, err := s.root(ctx, protocolKey)
	if err != nil {
		return Family{}, errs.Wrap(errs.ErrCodeSource, err, "look up protocol %s", protocolKey)
	}
	if !ok {
		return Family{}, errs.New(errs.ErrCodeFamilyNotFound, "no person registered for protocol %s", protocolKey)
	}

	fam := Family{ProtocolKey: protocolKey, RootID: root.ID}
	loaded := map[string]bool{}
	queued := map[string]bool{root.ID: true}
	frontier := []string{root.ID}

	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= opts.MaxDepth || len(fam.People) >= opts.MaxPeople {
			fam.Truncated = true
			break
		}
		if err := ctx.Err(); err != nil {
			return Family{}, errs.Wrap(errs.ErrCodeTimeout, err, "expand family %s", protocolKey)
		}

		found, err := s.related(ctx, frontier)
		if err != nil {
			return Family{}, errs.Wrap(errs.ErrCodeSource, err, "expand family %s", protocolKey)
		}

		current := make(map[string]bool, len(frontier))
		for _, id := range frontier {
			current[id] = true
		}
		var next []string
		for _, p := range found {
			if current[p.ID] && !loaded[p.ID] {
				if len(fam.People) >= opts.MaxPeople {
					fam.Truncated = true
					continue
				}
				loaded[p.ID] = true
				fam.People = append(fam.People, p)
			}
			for _, id := range neighbours(p) {
				if !queued[id] {
					queued[id] = true
					next = append(next, id)
				}
			}
		}
		frontier = next
	}
	return fam, nil
}

func neighbours(p family.Person) []string {
	ids := []string{p.ID}
	if p.FatherID != "" {
		ids = append(ids, p.FatherID)
	}
	if p.MotherID != "" {
		ids = append(ids, p.MotherID)
	}
	return append(ids, p.SpouseIDs...)
}
