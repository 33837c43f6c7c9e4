package generation

import (
	"maps"
	"slices"

	"github.com/matzehuels/kintree/pkg/family"
)

// Options configures [Assign].
type Options struct {
	// Focus, when set to an indexed id, seeds the first traversal alone.
	// It moves every generation by the same offset at most. An id that is
	// not indexed is ignored and reported via Result.FocusResolved.
	Focus string
}

// Result holds the generation of every indexed person plus the data-quality
// signals collected while computing it.
type Result struct {
	// Generations maps every indexed id to its normalized generation (≥ 0).
	Generations map[string]int

	// Converged is false when stabilization hit its pass limit. The last
	// computed state is used anyway.
	Converged bool

	// Passes is the number of stabilization passes performed.
	Passes int

	// Severed lists parent links ignored because they lie on a cycle.
	Severed []family.Link

	// Seeds lists the ids that started a traversal, in seeding order.
	Seeds []string

	// FocusResolved reports whether Options.Focus named an indexed person.
	// It is false when no focus was requested.
	FocusResolved bool
}

// Max returns the largest generation, or -1 for an empty result.
func (r Result) Max() int {
	m := -1
	for _, g := range r.Generations {
		m = max(m, g)
	}
	return m
}

// Assign computes a generation for every person in idx.
//
// # Seeding
//
// With a resolvable focus, the focus alone seeds generation 0. Otherwise
// every root (a person without a resolvable parent) seeds generation 0; if
// there is no root, the people with the earliest known birth year seed,
// and failing that the first person in index order. Each seeding starts a
// breadth-first traversal that gives a newly reached child the current
// generation + 1 and a newly reached mutual spouse the same generation.
// Parents are never walked to. People still unreached when the queue
// drains are seeded the same way until everyone has a generation, so
// disconnected people land on generation 0. A focus therefore changes
// only the normalization basis: every generation moves by one offset.
//
// # Stabilization
//
// Full passes over the index then apply two rules until nothing changes:
//
//  1. A child is raised to max(parent generations) + 1.
//  2. Mutual spouses are both raised to the larger of their generations.
//
// The loop is bounded by Len()+1 passes. Data in which a person is married
// to their own descendant cannot converge; Assign then returns
// Converged=false with the last state.
//
// # Cycles
//
// Parent links on a parentage cycle (see [Cycles]) are ignored by the
// traversal and by rule 1. For A whose father is B and B whose father is A,
// both end up on generation 0.
//
// # Normalization
//
// Finally every generation is shifted so the minimum is 0.
func Assign(idx *family.Index, opts Options) Result {
	res := Result{
		Generations: make(map[string]int, idx.Len()),
		Converged:   true,
	}
	if idx.Len() == 0 {
		return res
	}

	a := newAssigner(idx)
	res.Severed = a.severed

	if opts.Focus != "" && idx.Has(opts.Focus) {
		res.FocusResolved = true
		a.traverse([]string{opts.Focus})
	}
	for {
		seeds := a.nextSeeds()
		if len(seeds) == 0 {
			break
		}
		a.traverse(seeds)
	}
	res.Seeds = a.seeds

	res.Passes, res.Converged = a.stabilize()
	a.normalize()
	res.Generations = a.gen
	return res
}

type assigner struct {
	idx      *family.Index
	parents  map[string][]string
	children map[string][]string
	severed  []family.Link
	gen      map[string]int
	seeds    []string
}

func newAssigner(idx *family.Index) *assigner {
	a := &assigner{
		idx:      idx,
		parents:  make(map[string][]string, idx.Len()),
		children: make(map[string][]string, idx.Len()),
		severed:  Cycles(idx),
		gen:      make(map[string]int, idx.Len()),
	}

	cut := make(map[family.Link]bool, len(a.severed))
	for _, l := range a.severed {
		cut[l] = true
	}
	for _, l := range idx.Links() {
		if cut[l] {
			continue
		}
		a.parents[l.Child] = append(a.parents[l.Child], l.Parent)
		a.children[l.Parent] = append(a.children[l.Parent], l.Child)
	}
	return a
}

func (a *assigner) visited(id string) bool {
	_, ok := a.gen[id]
	return ok
}

// nextSeeds picks the seeds for the next traversal among unvisited people:
// roots first, then the earliest known birth year, then index order.
func (a *assigner) nextSeeds() []string {
	var roots, earliest []string
	var first string
	year := 0
	for _, p := range a.idx.People() {
		if a.visited(p.ID) {
			continue
		}
		if first == "" {
			first = p.ID
		}
		if a.idx.IsRoot(p.ID) {
			roots = append(roots, p.ID)
		}
		if b := p.BirthYear; b.Known {
			switch {
			case len(earliest) == 0 || b.Value < year:
				year = b.Value
				earliest = []string{p.ID}
			case b.Value == year:
				earliest = append(earliest, p.ID)
			}
		}
	}

	switch {
	case len(roots) > 0:
		return roots
	case len(earliest) > 0:
		return earliest
	case first != "":
		return []string{first}
	}
	return nil
}

func (a *assigner) traverse(seeds []string) {
	queue := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if a.visited(s) {
			continue
		}
		a.gen[s] = 0
		a.seeds = append(a.seeds, s)
		queue = append(queue, s)
	}

	reach := func(id string, g int) {
		if a.visited(id) {
			return
		}
		a.gen[id] = g
		queue = append(queue, id)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		g := a.gen[id]

		for _, c := range a.children[id] {
			reach(c, g+1)
		}
		for _, s := range a.idx.MutualSpouses(id) {
			reach(s, g)
		}
	}
}

func (a *assigner) stabilize() (passes int, converged bool) {
	limit := a.idx.Len() + 1
	for passes < limit {
		passes++
		changed := false
		for _, p := range a.idx.People() {
			id := p.ID
			for _, parent := range a.parents[id] {
				if want := a.gen[parent] + 1; a.gen[id] < want {
					a.gen[id] = want
					changed = true
				}
			}
			for _, s := range a.idx.MutualSpouses(id) {
				if m := max(a.gen[id], a.gen[s]); a.gen[id] != m || a.gen[s] != m {
					a.gen[id], a.gen[s] = m, m
					changed = true
				}
			}
		}
		if !changed {
			return passes, true
		}
	}
	return passes, false
}

func (a *assigner) normalize() {
	if len(a.gen) == 0 {
		return
	}
	lo := slices.Min(slices.Collect(maps.Values(a.gen)))
	for id := range a.gen {
		a.gen[id] -= lo
	}
}
