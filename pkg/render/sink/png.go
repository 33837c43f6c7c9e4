package sink

import (
	"bytes"
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/matzehuels/kintree/pkg/fonts"
	"github.com/matzehuels/kintree/pkg/layout"
)

// PNGOption configures [RenderPNG].
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	theme
	scale         float64
	regular, bold *truetype.Font
	faces         map[faceKey]font.Face
}

type faceKey struct {
	size float64
	bold bool
}

// WithScale sets the pixel density (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption { return func(r *pngRenderer) { r.scale = s } }

// WithFonts draws labels with the given faces. A nil face keeps the
// embedded default.
func WithFonts(regular, bold *truetype.Font) PNGOption {
	return func(r *pngRenderer) {
		if regular != nil {
			r.regular = regular
		}
		if bold != nil {
			r.bold = bold
		}
	}
}

// WithPNGGenerationColors fills boxes by generation instead of by gender.
func WithPNGGenerationColors() PNGOption {
	return func(r *pngRenderer) { r.generationColors = true }
}

// RenderPNG rasterizes res with the same drawing as [RenderSVG].
func RenderPNG(res layout.Result, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 2.0, regular: fonts.Regular(), bold: fonts.Bold(), faces: map[faceKey]font.Face{}}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 {
		return nil, fmt.Errorf("invalid png scale %v", r.scale)
	}

	w := max(1, int(math.Ceil(res.Bounds.Width*r.scale)))
	h := max(1, int(math.Ceil(res.Bounds.Height*r.scale)))
	dc := gg.NewContext(w, h)
	dc.SetHexColor(ColorBackground)
	dc.Clear()

	r.connectors(dc, res.Connections)
	for _, n := range res.Nodes {
		r.person(dc, n)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *pngRenderer) s(v float64) float64 { return v * r.scale }

func (r *pngRenderer) connectors(dc *gg.Context, conns []layout.Connection) {
	dc.SetDash(r.s(connectorDash[0]), r.s(connectorDash[1]))
	dc.SetLineWidth(r.s(connectorWidth))
	dc.SetRGBA(0.4, 0.4, 0.4, 0.6)
	for _, c := range conns {
		if c.Kind != layout.KindParentChild || len(c.Path) == 0 {
			continue
		}
		dc.MoveTo(r.s(c.Path[0].X), r.s(c.Path[0].Y))
		for _, p := range c.Path[1:] {
			dc.LineTo(r.s(p.X), r.s(p.Y))
		}
		dc.Stroke()
	}

	dc.SetDash()
	dc.SetLineWidth(r.s(marriageWidth))
	dc.SetHexColor(ColorMarriage)
	for _, c := range conns {
		if c.Kind != layout.KindMarriage {
			continue
		}
		dc.DrawLine(r.s(c.Source.X), r.s(c.Source.Y), r.s(c.Target.X), r.s(c.Target.Y))
		dc.Stroke()
	}
}

func (r *pngRenderer) person(dc *gg.Context, n layout.Node) {
	dc.DrawRoundedRectangle(r.s(n.X), r.s(n.Y), r.s(n.BoxWidth), r.s(n.BoxHeight), r.s(boxRadius))
	dc.SetHexColor(r.fill(n))
	dc.FillPreserve()
	dc.SetHexColor(r.stroke(n))
	dc.SetLineWidth(r.s(r.strokeWidth(n)))
	dc.Stroke()

	cx := r.s(n.CenterX())
	for _, ln := range labelLines(n) {
		dc.SetFontFace(r.face(ln.Size, ln.Bold))
		dc.SetHexColor(ln.Color)
		dc.DrawStringAnchored(ln.Text, cx, r.s(n.Y+ln.Y), 0.5, 0)
	}
}

func (r *pngRenderer) face(size float64, bold bool) font.Face {
	k := faceKey{size, bold}
	if f, ok := r.faces[k]; ok {
		return f
	}
	ttf := r.regular
	if bold {
		ttf = r.bold
	}
	f := fonts.Face(ttf, r.s(size))
	r.faces[k] = f
	return f
}
