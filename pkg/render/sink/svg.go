package sink

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/matzehuels/kintree/pkg/fonts"
	"github.com/matzehuels/kintree/pkg/layout"
)

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	theme
	fontFamily string
	linkFormat string
	background bool
}

// WithGenerationColors fills boxes by generation instead of by gender.
func WithGenerationColors() SVGOption { return func(r *svgRenderer) { r.generationColors = true } }

// WithFontFamily overrides the CSS font-family of the document.
func WithFontFamily(f string) SVGOption { return func(r *svgRenderer) { r.fontFamily = f } }

// WithProtocolLinks wraps every person that has a protocol key in a link.
// format receives the key through a single %s verb, for example
// "/wlasciciele/protokol.html?ownerId=%s".
func WithProtocolLinks(format string) SVGOption {
	return func(r *svgRenderer) { r.linkFormat = format }
}

// WithoutBackground leaves the canvas transparent.
func WithoutBackground() SVGOption { return func(r *svgRenderer) { r.background = false } }

// RenderSVG draws res as a standalone SVG document.
func RenderSVG(res layout.Result, opts ...SVGOption) ([]byte, error) {
	r := svgRenderer{fontFamily: fonts.Family, background: true}
	for _, opt := range opts {
		opt(&r)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	svg := doc.CreateElement("svg")
	svg.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	w, h := num(res.Bounds.Width), num(res.Bounds.Height)
	svg.CreateAttr("viewBox", "0 0 "+w+" "+h)
	svg.CreateAttr("width", w)
	svg.CreateAttr("height", h)
	svg.CreateAttr("font-family", r.fontFamily)

	if r.background {
		bg := svg.CreateElement("rect")
		bg.CreateAttr("class", "background")
		bg.CreateAttr("width", w)
		bg.CreateAttr("height", h)
		bg.CreateAttr("fill", ColorBackground)
	}

	r.connectors(svg, res.Connections)
	r.marriages(svg, res.Connections)
	people := svg.CreateElement("g")
	people.CreateAttr("class", "people")
	for _, n := range res.Nodes {
		r.person(people, n)
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("write svg: %w", err)
	}
	return out, nil
}

func (r *svgRenderer) connectors(svg *etree.Element, conns []layout.Connection) {
	g := svg.CreateElement("g")
	g.CreateAttr("class", "connectors")
	g.CreateAttr("fill", "none")
	g.CreateAttr("stroke", ColorConnector)
	g.CreateAttr("stroke-width", num(connectorWidth))
	g.CreateAttr("stroke-dasharray", num(connectorDash[0])+","+num(connectorDash[1]))
	g.CreateAttr("opacity", "0.6")
	for _, c := range conns {
		if c.Kind != layout.KindParentChild {
			continue
		}
		p := g.CreateElement("path")
		p.CreateAttr("class", "parent-child-line")
		p.CreateAttr("d", pathData(c.Path))
		p.CreateAttr("data-parent", c.ParentID)
		p.CreateAttr("data-child", c.ChildID)
	}
}

func (r *svgRenderer) marriages(svg *etree.Element, conns []layout.Connection) {
	g := svg.CreateElement("g")
	g.CreateAttr("class", "marriages")
	for _, c := range conns {
		if c.Kind != layout.KindMarriage {
			continue
		}
		l := g.CreateElement("line")
		l.CreateAttr("class", "marriage-line")
		l.CreateAttr("x1", num(c.Source.X))
		l.CreateAttr("y1", num(c.Source.Y))
		l.CreateAttr("x2", num(c.Target.X))
		l.CreateAttr("y2", num(c.Target.Y))
		l.CreateAttr("stroke", ColorMarriage)
		l.CreateAttr("stroke-width", num(marriageWidth))

		sym := g.CreateElement("text")
		sym.CreateAttr("class", "marriage-symbol")
		sym.CreateAttr("x", num((c.Source.X+c.Target.X)/2))
		sym.CreateAttr("y", num(c.Source.Y-5))
		sym.CreateAttr("text-anchor", "middle")
		sym.CreateAttr("font-size", "14")
		sym.CreateAttr("fill", ColorMarriage)
		sym.SetText("⚭")
	}
}

func (r *svgRenderer) person(parent *etree.Element, n layout.Node) {
	if r.linkFormat != "" && n.Person.ProtocolKey != "" {
		a := parent.CreateElement("a")
		a.CreateAttr("href", fmt.Sprintf(r.linkFormat, n.Person.ProtocolKey))
		parent = a
	}

	g := parent.CreateElement("g")
	class := "person-node"
	if n.IsFocus {
		class += " focus"
	}
	g.CreateAttr("class", class)
	g.CreateAttr("id", "person-"+n.PersonID)
	g.CreateAttr("transform", "translate("+num(n.X)+", "+num(n.Y)+")")
	g.CreateAttr("data-generation", num(float64(n.Generation)))

	g.CreateElement("title").SetText(n.Person.Name)

	box := g.CreateElement("rect")
	box.CreateAttr("width", num(n.BoxWidth))
	box.CreateAttr("height", num(n.BoxHeight))
	box.CreateAttr("rx", num(boxRadius))
	box.CreateAttr("ry", num(boxRadius))
	box.CreateAttr("fill", r.fill(n))
	box.CreateAttr("stroke", r.stroke(n))
	box.CreateAttr("stroke-width", num(r.strokeWidth(n)))

	cx := num(n.BoxWidth / 2)
	for _, ln := range labelLines(n) {
		t := g.CreateElement("text")
		t.CreateAttr("x", cx)
		t.CreateAttr("y", num(ln.Y))
		t.CreateAttr("text-anchor", "middle")
		t.CreateAttr("font-size", num(ln.Size))
		if ln.Bold {
			t.CreateAttr("font-weight", "bold")
		}
		t.CreateAttr("fill", ln.Color)
		t.SetText(ln.Text)
	}

	if sym := genderSymbol(n.Person.Gender); sym != "" {
		t := g.CreateElement("text")
		t.CreateAttr("class", "gender")
		t.CreateAttr("x", num(n.BoxWidth-12))
		t.CreateAttr("y", "18")
		t.CreateAttr("text-anchor", "middle")
		t.CreateAttr("font-size", num(detailSize))
		t.CreateAttr("fill", colorsOf(n.Person.Gender).stroke)
		t.SetText(sym)
	}
}

func pathData(pts []layout.Point) string {
	var b strings.Builder
	for i, p := range pts {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(num(p.X) + " " + num(p.Y))
	}
	return b.String()
}
