// Package fonts provides the fonts used to measure and draw person labels.
//
// The default faces are the Go fonts shipped with golang.org/x/image, so
// label widths are identical on every machine without any system font
// lookup. A TrueType file can be loaded instead with [Load].
package fonts

import (
	"fmt"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Family is the CSS font-family written into SVG output. It names the
// embedded Go font first so viewers that have it match the measured widths.
const Family = "Go, 'Helvetica Neue', Arial, sans-serif"

// Parsed fonts are cached after first access.
var (
	regular, bold *truetype.Font
	parseOnce     sync.Once
)

func parse() {
	regular, _ = truetype.Parse(goregular.TTF)
	bold, _ = truetype.Parse(gobold.TTF)
}

// Regular returns the embedded regular face.
func Regular() *truetype.Font {
	parseOnce.Do(parse)
	return regular
}

// Bold returns the embedded bold face.
func Bold() *truetype.Font {
	parseOnce.Do(parse)
	return bold
}

// Load parses a TrueType font file.
func Load(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

// Face returns a face of f at the given point size. A nil f uses [Regular].
func Face(f *truetype.Font, size float64) font.Face {
	if f == nil {
		f = Regular()
	}
	return truetype.NewFace(f, &truetype.Options{Size: size})
}
