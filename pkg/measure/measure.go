// Package measure provides label-width functions for the layout engine.
//
// The engine never measures text itself; it calls an injected function
// returning the width of a label in layout units. [Fixed] gives a cheap,
// font-independent estimate and [Face] measures with real font metrics so
// that boxes fit the labels drawn by the PNG and SVG renderers.
package measure

import (
	"sync"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"

	"github.com/matzehuels/kintree/pkg/fonts"
)

// DefaultCharWidth is the per-rune width used by the default estimate. It
// matches a 12px sans-serif label closely enough for box sizing.
const DefaultCharWidth = 7.0

// DefaultFontSize is the point size labels are measured and drawn at.
const DefaultFontSize = 12.0

// Fixed returns a measure function that charges charWidth per rune.
func Fixed(charWidth float64) func(string) float64 {
	return func(label string) float64 {
		return charWidth * float64(utf8.RuneCountInString(label))
	}
}

// Face measures labels with the metrics of a TrueType font. It is safe for
// concurrent use.
type Face struct {
	mu   sync.Mutex
	dc   *gg.Context
	size float64
}

// NewFace returns a Face for f at size points. A nil f uses the embedded
// regular font; a non-positive size uses [DefaultFontSize].
func NewFace(f *truetype.Font, size float64) *Face {
	if size <= 0 {
		size = DefaultFontSize
	}
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(fonts.Face(f, size))
	return &Face{dc: dc, size: size}
}

// LoadFace loads the font at path and returns a Face for it. An empty path
// uses the embedded regular font.
func LoadFace(path string, size float64) (*Face, error) {
	if path == "" {
		return NewFace(nil, size), nil
	}
	f, err := fonts.Load(path)
	if err != nil {
		return nil, err
	}
	return NewFace(f, size), nil
}

// Size returns the point size of the face.
func (f *Face) Size() float64 { return f.size }

// Measure returns the advance width of label.
func (f *Face) Measure(label string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, _ := f.dc.MeasureString(label)
	return w
}
