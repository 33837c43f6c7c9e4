// Package nodelink renders a family as a Graphviz network diagram.
//
// # Overview
//
// Where the row layout of package layout places couples side by side with
// routed connectors, this package hands the same relationships to Graphviz
// and lets dot route them. Every generation becomes one rank, so the
// diagram still reads top to bottom from ancestors to descendants.
//
// # Usage
//
//	idx := family.NewIndex(people)
//	gens := generation.Assign(idx, generation.Options{}).Generations
//	dot := nodelink.ToDOT(idx, gens, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// Men are boxes and women ellipses, as in the network viewers the node/edge
// import format comes from. Parent-child links are arrows; marriages are
// dashed purple lines that do not constrain ranking.
//
// # Dependencies
//
// Rendering runs Graphviz in-process through [github.com/goccy/go-graphviz].
package nodelink
