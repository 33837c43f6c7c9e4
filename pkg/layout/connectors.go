package layout

import "github.com/matzehuels/kintree/pkg/family"

// Route computes connector geometry for positioned nodes.
//
// For every node, in node order, and each of its resolvable parents (father
// first) that is present in nodes on a smaller generation, Route emits a
// parent-child connector. It starts at the midpoint of the marriage gap when
// both parents are present and paired with each other, otherwise at the
// parent's bottom centre. The path drops to a horizontal channel halfway
// between the parent's bottom and the child's top, runs across to the
// child's centre and drops into the child's top centre.
//
// Every marriage pair yields a [Marriage] and a marriage connector running
// horizontally at mid-box height from the left node's right edge to the
// right node's left edge. Parents missing from nodes produce nothing.
//
// Parent-child connectors come first in the returned slice, followed by
// marriage connectors.
func Route(nodes []Node, idx *family.Index, cfg Config) ([]Connection, []Marriage) {
	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byID[n.PersonID] = n
	}

	conns := []Connection{}
	for _, child := range nodes {
		parents := idx.Parents(child.PersonID)
		for _, pid := range parents {
			parent, ok := byID[pid]
			if !ok || parent.Generation >= child.Generation {
				continue
			}
			src := parent.BottomCenter()
			if mid, ok := coupleMidpoint(parents, byID); ok {
				src = mid
			}
			conns = append(conns, parentChild(parent, child, src))
		}
	}

	marriages := []Marriage{}
	for _, n := range nodes {
		partner, ok := byID[n.PartnerID]
		if !ok || partner.X < n.X {
			continue
		}
		marriages = append(marriages, Marriage{Left: n, Right: partner})
		conns = append(conns, marriageLine(n, partner))
	}
	return conns, marriages
}

// coupleMidpoint returns the centre of the gap between two parents placed
// as a pair.
func coupleMidpoint(parents []string, byID map[string]Node) (Point, bool) {
	if len(parents) != 2 {
		return Point{}, false
	}
	a, okA := byID[parents[0]]
	b, okB := byID[parents[1]]
	if !okA || !okB || a.PartnerID != b.PersonID {
		return Point{}, false
	}
	if b.X < a.X {
		a, b = b, a
	}
	return Point{X: (a.Right() + b.X) / 2, Y: a.CenterY()}, true
}

func parentChild(parent, child Node, src Point) Connection {
	dst := child.TopCenter()
	midY := (parent.Bottom() + child.Y) / 2
	return Connection{
		Kind:   KindParentChild,
		Source: src,
		Target: dst,
		Path: []Point{
			src,
			{X: src.X, Y: midY},
			{X: dst.X, Y: midY},
			dst,
		},
		ParentID: parent.PersonID,
		ChildID:  child.PersonID,
	}
}

func marriageLine(left, right Node) Connection {
	src := Point{X: left.Right(), Y: left.CenterY()}
	dst := Point{X: right.X, Y: right.CenterY()}
	return Connection{
		Kind:    KindMarriage,
		Source:  src,
		Target:  dst,
		Path:    []Point{src, dst},
		LeftID:  left.PersonID,
		RightID: right.PersonID,
	}
}

// bounds returns the enclosing rectangle of nodes plus the margin.
func bounds(nodes []Node, cfg Config) Bounds {
	if len(nodes) == 0 {
		return Bounds{}
	}
	var b Bounds
	for _, n := range nodes {
		b.Width = max(b.Width, n.Right())
		b.Height = max(b.Height, n.Bottom())
	}
	b.Width += cfg.Margin
	b.Height += cfg.Margin
	return b
}
