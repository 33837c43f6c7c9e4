// Package sink draws a computed family layout.
//
// [RenderSVG] builds the drawing as an SVG document, [RenderPNG]
// rasterizes the same drawing and [RenderJSON] exports the raw geometry
// for front ends that draw themselves.
//
// People are rounded boxes coloured by gender (or by generation with
// [WithGenerationColors]) showing the name, life years, generation number
// and house number. The focus person gets a thick amber outline.
// Parent-child connectors are dashed grey polylines; marriages are solid
// red lines between the spouses.
package sink
