package generation

import "github.com/matzehuels/kintree/pkg/family"

// Cycles returns the parent → child links that lie on a parentage cycle.
//
// A link is on a cycle when its parent and child belong to the same strongly
// connected component of the parent → child graph. Such links cannot all be
// satisfied by a "child below parent" layering, so the assigner treats them
// as unresolvable. Links are returned in [family.Index.Links] order.
//
// Components are found with Tarjan's algorithm, visiting people in index
// order so the result is deterministic. Time complexity is O(V + E).
func Cycles(idx *family.Index) []family.Link {
	comp := components(idx)

	var cyclic []family.Link
	for _, l := range idx.Links() {
		if comp[l.Parent] == comp[l.Child] {
			cyclic = append(cyclic, l)
		}
	}
	return cyclic
}

func components(idx *family.Index) map[string]int {
	var (
		counter int
		ncomp   int
		stack   []string
		onStack = make(map[string]bool)
		index   = make(map[string]int, idx.Len())
		low     = make(map[string]int, idx.Len())
		comp    = make(map[string]int, idx.Len())
	)

	var strongconnect func(id string)
	strongconnect = func(id string) {
		index[id] = counter
		low[id] = counter
		counter++
		stack = append(stack, id)
		onStack[id] = true

		for _, child := range idx.Children(id) {
			if _, seen := index[child]; !seen {
				strongconnect(child)
				low[id] = min(low[id], low[child])
			} else if onStack[child] {
				low[id] = min(low[id], index[child])
			}
		}

		if low[id] != index[id] {
			return
		}
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			comp[top] = ncomp
			if top == id {
				break
			}
		}
		ncomp++
	}

	for _, p := range idx.People() {
		if _, seen := index[p.ID]; !seen {
			strongconnect(p.ID)
		}
	}
	return comp
}
