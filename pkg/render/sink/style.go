package sink

import (
	"strconv"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
)

// Colours of the family tree drawing.
const (
	ColorBackground = "#f5f3f0"
	ColorConnector  = "#666666"
	ColorMarriage   = "#e74c3c"
	ColorFocus      = "#f59e0b"
	ColorName       = "#333333"
	ColorDetail     = "#666666"
	ColorGeneration = "#999999"
)

type genderColors struct{ fill, stroke string }

var byGender = map[family.Gender]genderColors{
	family.GenderMale:    {"#e3f2fd", "#1976d2"},
	family.GenderFemale:  {"#fce4ec", "#c2185b"},
	family.GenderUnknown: {"#f5f5f5", "#757575"},
}

// generationFills cycle by generation when generation colouring is on.
var generationFills = []string{"#fff8e1", "#e8f5e9", "#e3f2fd", "#f3e5f5", "#fbe9e7", "#e0f7fa"}

// maxNameRunes is the longest name drawn in full. Longer names are cut to
// maxNameRunes-2 runes plus an ellipsis.
const maxNameRunes = 22

// Font sizes and stroke widths in layout units.
const (
	nameSize       = 13
	detailSize     = 11
	smallSize      = 10
	boxRadius      = 8
	boxStroke      = 2
	focusStroke    = 4
	connectorWidth = 2
	marriageWidth  = 3
)

// Dash pattern of parent-child connectors.
var connectorDash = []float64{5, 5}

// theme decides box colours.
type theme struct {
	generationColors bool
}

func (t theme) fill(n layout.Node) string {
	if t.generationColors {
		return generationFills[n.Generation%len(generationFills)]
	}
	return colorsOf(n.Person.Gender).fill
}

func (t theme) stroke(n layout.Node) string {
	if n.IsFocus {
		return ColorFocus
	}
	return colorsOf(n.Person.Gender).stroke
}

func (t theme) strokeWidth(n layout.Node) float64 {
	if n.IsFocus {
		return focusStroke
	}
	return boxStroke
}

func colorsOf(g family.Gender) genderColors {
	if c, ok := byGender[g]; ok {
		return c
	}
	return byGender[family.GenderUnknown]
}

// line is one row of text inside a person box. Y is the baseline offset
// from the top of the box.
type line struct {
	Text  string
	Y     float64
	Size  float64
	Bold  bool
	Color string
}

// labelLines lays out the text of a box. Baselines sit at fixed fractions
// of the box height.
func labelLines(n layout.Node) []line {
	h := n.BoxHeight
	lines := []line{{Text: displayName(n.Person.Name), Y: h * 0.3, Size: nameSize, Bold: true, Color: ColorName}}
	if s := n.Person.Lifespan(); s != "" {
		lines = append(lines, line{Text: s, Y: h * 0.5, Size: detailSize, Color: ColorDetail})
	}
	lines = append(lines, line{Text: "Generacja " + strconv.Itoa(n.Generation+1), Y: h * 0.7, Size: smallSize, Color: ColorGeneration})
	if n.Person.HouseNumber != "" {
		lines = append(lines, line{Text: "Dom: " + n.Person.HouseNumber, Y: h * 0.88, Size: smallSize, Color: ColorDetail})
	}
	return lines
}

func displayName(name string) string {
	r := []rune(name)
	if len(r) <= maxNameRunes {
		return name
	}
	return string(r[:maxNameRunes-2]) + "..."
}

func genderSymbol(g family.Gender) string {
	switch g {
	case family.GenderMale:
		return "♂"
	case family.GenderFemale:
		return "♀"
	}
	return ""
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
