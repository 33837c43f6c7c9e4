package layout

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"

	"github.com/matzehuels/kintree/pkg/family"
)

// group is a single person or a marriage pair placed as one unit.
type group struct {
	ids []string
}

// ComposeRows positions every person that has a generation.
//
// Rows are processed in ascending generation. Within a row, mutual spouses
// of the same generation are paired: people are visited in input order and
// each takes the first spouse from their SpouseIDs that is also in the row
// and not yet paired. Everyone else is single. Singles are placed first,
// then pairs, each in row order (surname, natural id, input position;
// surnames use coll when it is non-nil). Pair members sit MarriageGap
// apart and groups HorizontalGap apart, starting at Margin.
//
// Box widths come from measure, clamped to Config.MinBoxWidth. The top of a
// row is Margin + generation × (BoxHeight + VerticalGap).
//
// Nodes are returned row by row, left to right. Paired nodes carry each
// other's id in PartnerID.
func ComposeRows(idx *family.Index, gens map[string]int, cfg Config, measure MeasureFunc, coll *collate.Collator) []Node {
	if measure == nil {
		measure = DefaultMeasure
	}
	order := rowOrder{idx: idx, coll: coll}

	rows := make(map[int][]string)
	for _, p := range idx.People() {
		if g, ok := gens[p.ID]; ok {
			rows[g] = append(rows[g], p.ID)
		}
	}

	nodes := make([]Node, 0, len(gens))
	for _, gen := range sortedKeys(rows) {
		ids := rows[gen]
		slices.SortFunc(ids, order.compare)

		y := cfg.Margin + float64(gen)*cfg.RowStep()
		x := cfg.Margin
		for i, g := range arrange(idx, ids, order) {
			if i > 0 {
				x += cfg.HorizontalGap
			}
			for j, id := range g.ids {
				if j > 0 {
					x += cfg.MarriageGap
				}
				p, _ := idx.Person(id)
				n := Node{
					PersonID:   id,
					Generation: gen,
					X:          x,
					Y:          y,
					BoxWidth:   cfg.BoxWidth(measure(p.Name)),
					BoxHeight:  cfg.BoxHeight,
					Person:     *p,
				}
				if len(g.ids) == 2 {
					n.PartnerID = g.ids[1-j]
				}
				nodes = append(nodes, n)
				x = n.Right()
			}
		}
	}
	return nodes
}

// arrange splits a sorted row into singles followed by marriage pairs.
func arrange(idx *family.Index, ids []string, order rowOrder) []group {
	inRow := make(map[string]bool, len(ids))
	for _, id := range ids {
		inRow[id] = true
	}

	byInput := slices.Clone(ids)
	slices.SortFunc(byInput, func(a, b string) int {
		return cmp.Compare(idx.Position(a), idx.Position(b))
	})

	paired := make(map[string]bool)
	var pairs []group
	for _, id := range byInput {
		if paired[id] {
			continue
		}
		for _, s := range idx.MutualSpouses(id) {
			if !inRow[s] || paired[s] {
				continue
			}
			paired[id], paired[s] = true, true
			left, right := id, s
			if order.compare(left, right) > 0 {
				left, right = right, left
			}
			pairs = append(pairs, group{ids: []string{left, right}})
			break
		}
	}

	groups := make([]group, 0, len(ids))
	for _, id := range ids {
		if !paired[id] {
			groups = append(groups, group{ids: []string{id}})
		}
	}
	slices.SortStableFunc(pairs, func(a, b group) int {
		return order.compare(a.ids[0], b.ids[0])
	})
	return append(groups, pairs...)
}

func sortedKeys(rows map[int][]string) []int {
	keys := make([]int, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
