package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kintree/pkg/family"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds ids, life years and house numbers to labels.
	// When false, only the name is shown.
	Detailed bool

	// Focus highlights one person.
	Focus string
}

// marriageColor matches the colour network viewers use for marriage edges.
const marriageColor = "#9b59b6"

// ToDOT converts the people of idx to Graphviz DOT. People missing from
// gens are placed in generation 0.
func ToDOT(idx *family.Index, gens map[string]int, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph family {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=\"filled\", fontsize=14, fontname=\"Helvetica\", margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#666666\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	rows := map[int][]string{}
	for _, p := range idx.People() {
		rows[gens[p.ID]] = append(rows[gens[p.ID]], p.ID)
		fmt.Fprintf(&buf, "  %q [%s];\n", p.ID, strings.Join(fmtAttrs(*p, opts), ", "))
	}

	buf.WriteString("\n")
	for _, g := range slices.Sorted(maps.Keys(rows)) {
		fmt.Fprintf(&buf, "  { rank=same;")
		for _, id := range rows[g] {
			fmt.Fprintf(&buf, " %q;", id)
		}
		buf.WriteString(" }\n")
	}

	buf.WriteString("\n")
	for _, l := range idx.Links() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", l.Parent, l.Child)
	}
	for _, p := range idx.People() {
		for _, s := range idx.MutualSpouses(p.ID) {
			// Each couple once, from the earlier-listed spouse.
			if idx.Position(s) < idx.Position(p.ID) {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q [dir=none, style=dashed, color=%q, constraint=false];\n", p.ID, s, marriageColor)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(p family.Person, detailed bool) string {
	if !detailed {
		return p.Name
	}
	parts := []string{p.Name}
	if s := p.Lifespan(); s != "" {
		parts = append(parts, s)
	}
	if p.HouseNumber != "" {
		parts = append(parts, "Dom: "+p.HouseNumber)
	}
	parts = append(parts, "id: "+p.ID)
	return strings.Join(parts, "\n")
}

func fmtAttrs(p family.Person, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(p, opts.Detailed))}
	switch p.Gender {
	case family.GenderMale:
		attrs = append(attrs, "shape=box", `fillcolor="#e3f2fd"`, `color="#1976d2"`)
	case family.GenderFemale:
		attrs = append(attrs, "shape=ellipse", `fillcolor="#fce4ec"`, `color="#c2185b"`)
	default:
		attrs = append(attrs, "shape=box", `style="rounded,filled,dashed"`, "fillcolor=lightgrey")
	}
	if p.ID == opts.Focus {
		attrs = append(attrs, "penwidth=3", `color="#f59e0b"`)
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized root element with one
// whose width and height match the viewBox, so the diagram scales cleanly
// when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
