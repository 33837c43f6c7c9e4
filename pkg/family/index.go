package family

// Link is a directed parent → child relationship between two indexed people.
type Link struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// Index holds the lookup structures for one layout run. It is built once
// from the raw person list by [NewIndex] and is read-only afterwards.
//
// The zero value is an empty index. Index is safe for concurrent reads.
type Index struct {
	people   []*Person
	byID     map[string]*Person
	position map[string]int
	children map[string][]string
	skipped  int
}

// NewIndex normalizes the given people and indexes them by id.
//
// Entries without an id or a name are dropped. When an id occurs more than
// once, the first occurrence wins and later ones are counted in
// [Index.Skipped]. The input slice is not modified.
//
// Children are indexed under every parent that resolves: a person whose
// father and mother are both present appears under both. Construction is
// O(n) in the number of people plus the number of references.
func NewIndex(people []Person) *Index {
	idx := &Index{
		people:   make([]*Person, 0, len(people)),
		byID:     make(map[string]*Person, len(people)),
		position: make(map[string]int, len(people)),
		children: make(map[string][]string),
	}

	for _, raw := range people {
		p := Normalize(raw)
		if !p.Valid() {
			idx.skipped++
			continue
		}
		if _, dup := idx.byID[p.ID]; dup {
			idx.skipped++
			continue
		}
		idx.position[p.ID] = len(idx.people)
		idx.people = append(idx.people, &p)
		idx.byID[p.ID] = &p
	}

	for _, p := range idx.people {
		for _, parent := range idx.Parents(p.ID) {
			idx.children[parent] = append(idx.children[parent], p.ID)
		}
	}
	return idx
}

// Len returns the number of indexed people.
func (x *Index) Len() int { return len(x.people) }

// Skipped returns how many input entries were dropped because they were
// invalid or duplicated an earlier id.
func (x *Index) Skipped() int { return x.skipped }

// People returns the indexed people in input order. The returned slice must
// not be modified.
func (x *Index) People() []*Person { return x.people }

// Person returns the person with the given id.
func (x *Index) Person(id string) (*Person, bool) {
	p, ok := x.byID[id]
	return p, ok
}

// Has reports whether id is indexed.
func (x *Index) Has(id string) bool {
	_, ok := x.byID[id]
	return ok
}

// Position returns the input-order position of id, or -1 if it is not
// indexed. Positions are used as the final tie-breaker wherever the layout
// needs a stable order.
func (x *Index) Position(id string) int {
	if pos, ok := x.position[id]; ok {
		return pos
	}
	return -1
}

// Parents returns the ids of the father and mother of id that resolve to
// indexed people, father first. A person listed as their own parent, and a
// mother equal to the father, are ignored.
func (x *Index) Parents(id string) []string {
	p, ok := x.byID[id]
	if !ok {
		return nil
	}
	var parents []string
	if f := p.FatherID; f != "" && f != id && x.Has(f) {
		parents = append(parents, f)
	}
	if m := p.MotherID; m != "" && m != id && m != p.FatherID && x.Has(m) {
		parents = append(parents, m)
	}
	return parents
}

// Children returns the ids of people whose father or mother resolves to id,
// in input order. The returned slice must not be modified.
func (x *Index) Children(id string) []string { return x.children[id] }

// IsRoot reports whether id is indexed and has no resolvable parent.
func (x *Index) IsRoot(id string) bool {
	return x.Has(id) && len(x.Parents(id)) == 0
}

// Spouses returns the spouse ids of id that resolve to indexed people,
// regardless of whether the spouse lists id back.
func (x *Index) Spouses(id string) []string {
	p, ok := x.byID[id]
	if !ok {
		return nil
	}
	var out []string
	for _, s := range p.SpouseIDs {
		if x.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// MutualSpouses returns the spouses of id that are indexed and list id
// among their own spouses, in the order of id's SpouseIDs.
func (x *Index) MutualSpouses(id string) []string {
	var out []string
	for _, s := range x.Spouses(id) {
		if x.IsMutual(id, s) {
			out = append(out, s)
		}
	}
	return out
}

// IsMutual reports whether a and b are both indexed and list each other as
// spouses.
func (x *Index) IsMutual(a, b string) bool {
	pa, okA := x.byID[a]
	pb, okB := x.byID[b]
	if !okA || !okB || a == b {
		return false
	}
	return contains(pa.SpouseIDs, b) && contains(pb.SpouseIDs, a)
}

// Links returns every resolvable parent → child link in input order of the
// children.
func (x *Index) Links() []Link {
	var links []Link
	for _, p := range x.people {
		for _, parent := range x.Parents(p.ID) {
			links = append(links, Link{Parent: parent, Child: p.ID})
		}
	}
	return links
}

// Subset returns a new index restricted to the given ids. References to
// people outside the subset become dangling and are treated as absent.
func (x *Index) Subset(ids []string) *Index {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	people := make([]Person, 0, len(ids))
	for _, p := range x.people {
		if keep[p.ID] {
			people = append(people, *p)
		}
	}
	return NewIndex(people)
}

func contains(ids []string, id string) bool {
	for _, s := range ids {
		if s == id {
			return true
		}
	}
	return false
}
