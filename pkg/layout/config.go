package layout

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/matzehuels/kintree/pkg/measure"
)

// Config holds the geometric constants of a layout run. All values are in
// layout units.
type Config struct {
	// BoxHeight is the height of every person box.
	BoxHeight float64 `json:"box_height" toml:"box_height" yaml:"box_height"`

	// HorizontalGap separates neighbouring groups (singles and pairs) in a row.
	HorizontalGap float64 `json:"horizontal_gap" toml:"horizontal_gap" yaml:"horizontal_gap"`

	// VerticalGap separates consecutive generation rows.
	VerticalGap float64 `json:"vertical_gap" toml:"vertical_gap" yaml:"vertical_gap"`

	// MarriageGap separates the two members of a marriage pair.
	MarriageGap float64 `json:"marriage_gap" toml:"marriage_gap" yaml:"marriage_gap"`

	// MinBoxWidth is the smallest box width regardless of label length.
	MinBoxWidth float64 `json:"min_box_width" toml:"min_box_width" yaml:"min_box_width"`

	// LabelPadding is added to the measured label width.
	LabelPadding float64 `json:"label_padding" toml:"label_padding" yaml:"label_padding"`

	// Margin surrounds the drawing on every side.
	Margin float64 `json:"margin" toml:"margin" yaml:"margin"`
}

// DefaultConfig returns the constants used by the family tree viewer.
func DefaultConfig() Config {
	return Config{
		BoxHeight:     80,
		HorizontalGap: 80,
		VerticalGap:   120,
		MarriageGap:   20,
		MinBoxWidth:   120,
		LabelPadding:  30,
		Margin:        80,
	}
}

// Validate reports every negative constant and a non-positive box height.
// The engine itself accepts any Config; Validate is for values read from
// files and requests.
func (c Config) Validate() error {
	var err error
	if c.BoxHeight <= 0 {
		err = multierr.Append(err, fmt.Errorf("box_height must be positive, got %v", c.BoxHeight))
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"horizontal_gap", c.HorizontalGap},
		{"vertical_gap", c.VerticalGap},
		{"marriage_gap", c.MarriageGap},
		{"min_box_width", c.MinBoxWidth},
		{"label_padding", c.LabelPadding},
		{"margin", c.Margin},
	} {
		if f.value < 0 {
			err = multierr.Append(err, fmt.Errorf("%s must not be negative, got %v", f.name, f.value))
		}
	}
	return err
}

// RowStep is the distance between the tops of two consecutive rows.
func (c Config) RowStep() float64 { return c.BoxHeight + c.VerticalGap }

// BoxWidth returns the box width for a label of the given measured width.
func (c Config) BoxWidth(labelWidth float64) float64 {
	return max(c.MinBoxWidth, labelWidth+c.LabelPadding)
}

// MeasureFunc returns the width of a label in layout units. It must be
// deterministic: the same label always measures the same.
type MeasureFunc func(label string) float64

// DefaultMeasure estimates label widths at [measure.DefaultCharWidth] per rune.
var DefaultMeasure MeasureFunc = measure.Fixed(measure.DefaultCharWidth)
