package sink

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
)

func threeGenerations(opts ...layout.Option) layout.Result {
	people := []family.Person{
		{ID: "1", Name: "Jan Kowalski", Gender: family.GenderMale, BirthYear: family.YearOf(1850)},
		{ID: "2", Name: "Adam Kowalski", Gender: family.GenderMale, FatherID: "1", SpouseIDs: []string{"3"}, ProtocolKey: "P-2"},
		{ID: "3", Name: "Anna Nowak", Gender: family.GenderFemale, SpouseIDs: []string{"2"}, HouseNumber: "12"},
		{ID: "4", Name: "Ewa Kowalska", Gender: family.GenderFemale, FatherID: "2", MotherID: "3"},
	}
	opts = append(opts, layout.WithLogger(log.New(io.Discard)))
	return layout.Compute(people, opts...)
}

func parseSVG(t *testing.T, data []byte) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		t.Fatalf("invalid svg: %v", err)
	}
	root := doc.SelectElement("svg")
	if root == nil {
		t.Fatal("missing <svg> root")
	}
	return root
}

func TestRenderSVG(t *testing.T) {
	res := threeGenerations(layout.WithFocus("4"))
	data, err := RenderSVG(res)
	if err != nil {
		t.Fatal(err)
	}
	svg := parseSVG(t, data)

	if got := svg.SelectAttrValue("viewBox", ""); got != "0 0 421 640" {
		t.Errorf("viewBox = %q", got)
	}
	if got := len(svg.FindElements("//g[@class='person-node']")); got != 3 {
		t.Errorf("plain person nodes = %d, want 3", got)
	}
	focus := svg.FindElements("//g[@class='person-node focus']")
	if len(focus) != 1 || focus[0].SelectAttrValue("id", "") != "person-4" {
		t.Errorf("focus nodes = %d", len(focus))
	}
	if got := len(svg.FindElements("//path[@class='parent-child-line']")); got != 3 {
		t.Errorf("connectors = %d, want 3", got)
	}
	if got := len(svg.FindElements("//line[@class='marriage-line']")); got != 1 {
		t.Errorf("marriages = %d, want 1", got)
	}

	child := svg.FindElement("//path[@data-child='4'][@data-parent='2']")
	if child == nil {
		t.Fatal("missing connector 2 -> 4")
	}
	if got := child.SelectAttrValue("d", ""); got != "M 211 320 L 211 420 L 140 420 L 140 480" {
		t.Errorf("path = %q", got)
	}

	text := string(data)
	for _, want := range []string{"ur. 1850", "Dom: 12", "Generacja 3", ColorFocus} {
		if !strings.Contains(text, want) {
			t.Errorf("svg missing %q", want)
		}
	}
}

func TestRenderSVGOptions(t *testing.T) {
	res := threeGenerations()
	data, err := RenderSVG(res,
		WithProtocolLinks("/protokol.html?ownerId=%s"),
		WithGenerationColors(),
		WithFontFamily("serif"),
		WithoutBackground(),
	)
	if err != nil {
		t.Fatal(err)
	}
	svg := parseSVG(t, data)

	links := svg.FindElements("//a")
	if len(links) != 1 || links[0].SelectAttrValue("href", "") != "/protokol.html?ownerId=P-2" {
		t.Errorf("links = %d", len(links))
	}
	if svg.FindElement("//rect[@class='background']") != nil {
		t.Error("background drawn despite WithoutBackground")
	}
	if got := svg.SelectAttrValue("font-family", ""); got != "serif" {
		t.Errorf("font-family = %q", got)
	}
	if !strings.Contains(string(data), generationFills[0]) {
		t.Error("generation fill missing")
	}
}

func TestRenderSVGEmpty(t *testing.T) {
	data, err := RenderSVG(layout.Result{})
	if err != nil {
		t.Fatal(err)
	}
	svg := parseSVG(t, data)
	if len(svg.FindElements("//g[@class='person-node']")) != 0 {
		t.Error("empty result drew people")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Jan Kowalski", "Jan Kowalski"},
		{"Aleksandra Wiśniewska", "Aleksandra Wiśniewska"},
		{"Maria Magdalena Brzęczyszczykiewicz", "Maria Magdalena Brzę..."},
	}
	for _, tt := range tests {
		if got := displayName(tt.in); got != tt.want {
			t.Errorf("displayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderPNG(t *testing.T) {
	res := threeGenerations()
	tests := []struct {
		scale         float64
		width, height int
	}{
		{1, 421, 640},
		{2, 842, 1280},
		{0.5, 211, 320},
	}
	for _, tt := range tests {
		data, err := RenderPNG(res, WithScale(tt.scale))
		if err != nil {
			t.Fatalf("scale %v: %v", tt.scale, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("scale %v: decode: %v", tt.scale, err)
		}
		if b := img.Bounds(); b.Dx() != tt.width || b.Dy() != tt.height {
			t.Errorf("scale %v: size = %dx%d, want %dx%d", tt.scale, b.Dx(), b.Dy(), tt.width, tt.height)
		}
	}

	if _, err := RenderPNG(res, WithScale(-1)); err == nil {
		t.Error("negative scale accepted")
	}
	if _, err := RenderPNG(layout.Result{}); err != nil {
		t.Errorf("empty result: %v", err)
	}
}

func TestRenderJSON(t *testing.T) {
	res := threeGenerations(layout.WithFocus("2"))
	data, err := RenderJSON(res, WithJSONSource("P-2"))
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Source      string `json:"source"`
		Generations int    `json:"generations"`
		Focus       string `json:"focus"`
		Nodes       []struct {
			ID    string `json:"id"`
			Focus bool   `json:"focus"`
		} `json:"nodes"`
		Connections []json.RawMessage `json:"connections"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Source != "P-2" || out.Generations != 3 || out.Focus != "2" {
		t.Errorf("header = %+v", out)
	}
	if len(out.Nodes) != 4 || len(out.Connections) != 4 {
		t.Errorf("nodes = %d connections = %d", len(out.Nodes), len(out.Connections))
	}

	compact, err := RenderJSON(res, WithCompactJSON())
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(compact, []byte("\n  ")) {
		t.Error("compact output is indented")
	}
}
