// Package render groups the drawing back ends for computed layouts.
//
// # Tree Drawings
//
// The [sink] subpackage draws a [layout.Result] directly: boxes at their
// computed positions, marriage lines between spouses and orthogonal
// connectors from parents to children.
//
//	res := layout.Compute(people, layout.WithFocus("17"))
//	svg, err := sink.RenderSVG(res, sink.WithGenerationColors())
//	png, err := sink.RenderPNG(res, sink.WithScale(2))
//	doc, err := sink.RenderJSON(res)
//
// # Network Drawings
//
// The [nodelink] subpackage ignores computed coordinates and hands the
// family to Graphviz as a directed graph, ranked by generation.
//
//	dot := nodelink.ToDOT(idx, generations, nodelink.Options{Focus: "17"})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [sink]: github.com/matzehuels/kintree/pkg/render/sink
// [nodelink]: github.com/matzehuels/kintree/pkg/render/nodelink
// [layout.Result]: github.com/matzehuels/kintree/pkg/layout#Result
package render
