package family

import (
	"cmp"
	"slices"
)

// Groups partitions the indexed people into connected family groups. Two
// people are connected when one is a resolvable parent or spouse of the
// other (spouse links count in either direction).
//
// Groups are returned largest first; groups of equal size keep the input
// order of their first member. Members of a group are in input order.
func (x *Index) Groups() [][]string {
	adj := x.adjacency()
	seen := make(map[string]bool, len(x.people))
	var groups [][]string

	for _, p := range x.people {
		if seen[p.ID] {
			continue
		}
		group := x.walk(p.ID, adj, seen)
		slices.SortFunc(group, func(a, b string) int {
			return cmp.Compare(x.position[a], x.position[b])
		})
		groups = append(groups, group)
	}

	slices.SortStableFunc(groups, func(a, b []string) int {
		return cmp.Compare(len(b), len(a))
	})
	return groups
}

// Connected returns the family group containing id, in input order, or nil
// if id is not indexed.
func (x *Index) Connected(id string) []string {
	if !x.Has(id) {
		return nil
	}
	group := x.walk(id, x.adjacency(), make(map[string]bool))
	slices.SortFunc(group, func(a, b string) int {
		return cmp.Compare(x.position[a], x.position[b])
	})
	return group
}

func (x *Index) adjacency() map[string][]string {
	adj := make(map[string][]string, len(x.people))
	link := func(a, b string) {
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	for _, p := range x.people {
		for _, parent := range x.Parents(p.ID) {
			link(parent, p.ID)
		}
		for _, s := range x.Spouses(p.ID) {
			link(p.ID, s)
		}
	}
	return adj
}

func (x *Index) walk(start string, adj map[string][]string, seen map[string]bool) []string {
	var group []string
	stack := []string{start}
	seen[start] = true
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		group = append(group, id)
		for _, next := range adj[id] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return group
}

// SurnameGroup is the set of people sharing a surname.
type SurnameGroup struct {
	Surname string
	IDs     []string
}

// Surnames groups the indexed people by [Person.Surname]. Groups are sorted
// by size (largest first), then alphabetically. People without a usable
// surname are collected under "?".
func Surnames(x *Index) []SurnameGroup {
	byName := make(map[string][]string)
	for _, p := range x.People() {
		s := p.Surname()
		if s == "" {
			s = "?"
		}
		byName[s] = append(byName[s], p.ID)
	}

	groups := make([]SurnameGroup, 0, len(byName))
	for name, ids := range byName {
		groups = append(groups, SurnameGroup{Surname: name, IDs: ids})
	}
	slices.SortFunc(groups, func(a, b SurnameGroup) int {
		if c := cmp.Compare(len(b.IDs), len(a.IDs)); c != 0 {
			return c
		}
		return cmp.Compare(a.Surname, b.Surname)
	})
	return groups
}
