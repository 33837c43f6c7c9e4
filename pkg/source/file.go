package source

import (
	"context"
	"slices"

	"github.com/matzehuels/kintree/pkg/family"
	kio "github.com/matzehuels/kintree/pkg/io"
)

// FileSource serves families from an imported family document held in
// memory.
type FileSource struct {
	name string
	opts Options
	mem  memStore
}

// NewFileSource imports the document at path.
func NewFileSource(path string, opts Options) (*FileSource, error) {
	doc, err := kio.ImportPersons(path)
	if err != nil {
		return nil, err
	}
	return NewMemorySource("file", doc.People, opts), nil
}

// NewMemorySource serves families from people.
func NewMemorySource(name string, people []family.Person, opts Options) *FileSource {
	return &FileSource{name: name, opts: opts, mem: memStore(people)}
}

func (s *FileSource) Name() string { return s.name }

func (s *FileSource) Limits() Options { return s.opts.WithDefaults() }

func (s *FileSource) Family(ctx context.Context, protocolKey string) (Family, error) {
	return expand(ctx, s.mem, protocolKey, s.opts)
}

// ProtocolKeys lists every protocol key in the document in first-seen order.
func (s *FileSource) ProtocolKeys() []string {
	var keys []string
	for _, p := range s.mem {
		if p.ProtocolKey != "" && !slices.Contains(keys, p.ProtocolKey) {
			keys = append(keys, p.ProtocolKey)
		}
	}
	return keys
}

func (s *FileSource) Close() error { return nil }

type memStore []family.Person

func (m memStore) root(_ context.Context, key string) (family.Person, bool, error) {
	for _, p := range m {
		if p.ProtocolKey == key && p.ID != "" {
			return p, true, nil
		}
	}
	return family.Person{}, false, nil
}

func (m memStore) related(_ context.Context, ids []string) ([]family.Person, error) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	var out []family.Person
	for _, p := range m {
		if set[p.ID] || set[p.FatherID] || set[p.MotherID] || slices.ContainsFunc(p.SpouseIDs, func(s string) bool { return set[s] }) {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ Source = (*FileSource)(nil)
