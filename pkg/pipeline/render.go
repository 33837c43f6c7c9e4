package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/fonts"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/render/nodelink"
	"github.com/matzehuels/kintree/pkg/render/sink"
)

// Render generates output artifacts in the requested formats. people are
// the people the layout was computed from; the network view and the DOT
// format draw their links from them.
func Render(ctx context.Context, res layout.Result, people []family.Person, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	var dot string
	if opts.IsNetwork() || slices.Contains(opts.Formats, FormatDOT) {
		dot = toDOT(res, people, opts)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch {
		case format == FormatJSON:
			data, err = sink.RenderJSON(res, sink.WithJSONSource(opts.Label()))
		case format == FormatDOT:
			data = []byte(dot)
		case opts.IsNetwork() && format == FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case opts.IsNetwork() && format == FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot)
		case format == FormatSVG:
			data, err = sink.RenderSVG(res, svgOptions(opts)...)
		case format == FormatPNG:
			var pngOpts []sink.PNGOption
			if pngOpts, err = pngOptions(opts); err == nil {
				data, err = sink.RenderPNG(res, pngOpts...)
			}
		default:
			err = fmt.Errorf("unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// toDOT renders the people placed by res, keeping their generations so
// Graphviz ranks match the tree view.
func toDOT(res layout.Result, people []family.Person, opts Options) string {
	ids := make([]string, 0, len(res.Nodes))
	gens := make(map[string]int, len(res.Nodes))
	for _, n := range res.Nodes {
		ids = append(ids, n.PersonID)
		gens[n.PersonID] = n.Generation
	}
	idx := family.NewIndex(people).Subset(ids)
	return nodelink.ToDOT(idx, gens, nodelink.Options{Detailed: opts.Detailed, Focus: res.Focus})
}

func svgOptions(opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption
	if opts.GenerationColors {
		svgOpts = append(svgOpts, sink.WithGenerationColors())
	}
	if opts.LinkFormat != "" {
		svgOpts = append(svgOpts, sink.WithProtocolLinks(opts.LinkFormat))
	}
	return svgOpts
}

func pngOptions(opts Options) ([]sink.PNGOption, error) {
	pngOpts := []sink.PNGOption{sink.WithScale(opts.Scale)}
	if opts.GenerationColors {
		pngOpts = append(pngOpts, sink.WithPNGGenerationColors())
	}
	if opts.Font != "" && opts.Font != FontEmbedded {
		f, err := fonts.Load(opts.Font)
		if err != nil {
			return nil, err
		}
		pngOpts = append(pngOpts, sink.WithFonts(f, f))
	}
	return pngOpts, nil
}
