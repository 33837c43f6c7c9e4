package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	errs "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	kio "github.com/matzehuels/kintree/pkg/io"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/source"
)

var quiet = log.New(io.Discard)

func threeGenerations() []family.Person {
	return []family.Person{
		{ID: "g", Name: "Jan Kowalski", Gender: family.GenderMale},
		{ID: "p", Name: "Adam Kowalski", Gender: family.GenderMale, FatherID: "g", SpouseIDs: []string{"o"}, ProtocolKey: "P-1"},
		{ID: "o", Name: "Anna Nowak", Gender: family.GenderFemale, SpouseIDs: []string{"p"}},
		{ID: "c", Name: "Ewa Kowalska", Gender: family.GenderFemale, FatherID: "p", MotherID: "o"},
		{ID: "x", Name: "Piotr Lis", ProtocolKey: "P-2"},
	}
}

func newTestRunner(t *testing.T) (*Runner, *cache.FileCache) {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	src := source.NewMemorySource("test", threeGenerations(), source.Options{})
	return NewRunner(src, c, nil, quiet), c
}

func TestValidateView(t *testing.T) {
	tests := []struct {
		view    string
		wantErr bool
	}{
		{"tree", false},
		{"network", false},
		{"nodelink", true},
		{"Tree", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateView(tt.view)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateView(%q) error = %v, wantErr %v", tt.view, err, tt.wantErr)
		}
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode errs.Code
	}{
		{"protocol key", Options{ProtocolKey: "P-1"}, ""},
		{"input", Options{Input: "family.json"}, ""},
		{"nothing to load", Options{}, errs.ErrCodeInvalidInput},
		{"bad protocol key", Options{ProtocolKey: "a/b"}, errs.ErrCodeInvalidInput},
		{"bad focus", Options{ProtocolKey: "P-1", Focus: "a\nb"}, errs.ErrCodeInvalidInput},
		{"bad scope", Options{ProtocolKey: "P-1", Scope: "world"}, errs.ErrCodeInvalidInput},
		{"bad locale", Options{ProtocolKey: "P-1", Locale: "not a locale!"}, errs.ErrCodeInvalidInput},
		{"bad layout", Options{ProtocolKey: "P-1", Layout: layout.Config{BoxHeight: -1}}, errs.ErrCodeInvalidInput},
		{"bad view", Options{ProtocolKey: "P-1", View: "tower"}, errs.ErrCodeInvalidInput},
		{"bad format", Options{ProtocolKey: "P-1", Formats: []string{"pdf"}}, errs.ErrCodeInvalidFormat},
		{"bad scale", Options{ProtocolKey: "P-1", Scale: -1}, errs.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("ValidateAndSetDefaults() = %v, want nil", err)
				}
				return
			}
			if !errs.Is(err, tt.wantCode) {
				t.Errorf("ValidateAndSetDefaults() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{ProtocolKey: "P-1", Focus: "  p  ", Font: FontEmbedded}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.View != ViewTree {
		t.Errorf("View = %q, want tree", opts.View)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", opts.Scale, DefaultScale)
	}
	if opts.Layout != layout.DefaultConfig() {
		t.Errorf("Layout = %+v, want defaults", opts.Layout)
	}
	if opts.FontSize != DefaultFontSize {
		t.Errorf("FontSize = %v, want %v", opts.FontSize, DefaultFontSize)
	}
	if opts.Focus != "p" {
		t.Errorf("Focus = %q, want trimmed", opts.Focus)
	}
	if opts.Logger == nil {
		t.Error("Logger not set")
	}
}

func TestOptionsFromJSON(t *testing.T) {
	var opts Options
	body := `{"protocol_key":"P-1","focus":"c","scope":"family","formats":["json","dot"],"layout":{"box_height":60}}`
	if err := json.Unmarshal([]byte(body), &opts); err != nil {
		t.Fatal(err)
	}
	if opts.ProtocolKey != "P-1" || opts.Focus != "c" || len(opts.Formats) != 2 {
		t.Errorf("decoded %+v", opts)
	}
	if opts.Layout.BoxHeight != 60 {
		t.Errorf("BoxHeight = %v, want 60", opts.Layout.BoxHeight)
	}
}

func TestLabel(t *testing.T) {
	if got := (&Options{ProtocolKey: "P-1", Input: "x.json"}).Label(); got != "P-1" {
		t.Errorf("Label() = %q, want P-1", got)
	}
	if got := (&Options{Input: "/data/rodzina.json"}).Label(); got != "rodzina" {
		t.Errorf("Label() = %q, want rodzina", got)
	}
}

func TestLayoutKeyOpts(t *testing.T) {
	a := Options{ProtocolKey: "P-1", Scope: "family"}
	b := Options{ProtocolKey: "P-1", Scope: "connected"}
	_ = a.ValidateAndSetDefaults()
	_ = b.ValidateAndSetDefaults()
	if a.LayoutKeyOpts() != b.LayoutKeyOpts() {
		t.Error("scope aliases should share a layout key")
	}

	c := b
	c.Layout.MarriageGap = 40
	if c.LayoutKeyOpts() == b.LayoutKeyOpts() {
		t.Error("layout constants must change the key")
	}
	if got := a.LayoutKeyOpts().BoxHeight; got != 80 {
		t.Errorf("BoxHeight = %v, want 80", got)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{ProtocolKey: "P-1", Formats: []string{"svg", "png", "dot"}, GenerationColors: true, Detailed: true}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	svg := opts.ArtifactKeyOpts(FormatSVG)
	if !svg.Colors || svg.Scale != 0 || svg.Detailed {
		t.Errorf("svg key = %+v", svg)
	}
	png := opts.ArtifactKeyOpts(FormatPNG)
	if png.Scale != DefaultScale || !png.Colors {
		t.Errorf("png key = %+v", png)
	}
	dot := opts.ArtifactKeyOpts(FormatDOT)
	if !dot.Detailed || dot.Colors || dot.Scale != 0 {
		t.Errorf("dot key = %+v", dot)
	}
	if svg == png || png == dot {
		t.Error("formats must not share keys")
	}
}

func TestComputeLayout(t *testing.T) {
	res, err := ComputeLayout(threeGenerations(), Options{Scope: "connected", Focus: "p", Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Nodes) != 4 {
		t.Errorf("nodes = %d, want 4 (Piotr Lis is out of scope)", len(res.Nodes))
	}
	if res.Focus != "p" {
		t.Errorf("Focus = %q, want p", res.Focus)
	}
	if n, _ := res.Node("p"); !n.IsFocus || n.Generation != 1 {
		t.Errorf("focus node = %+v, want focus in generation 1", n)
	}
}

func TestComputeLayoutEmbeddedFont(t *testing.T) {
	fixed, err := ComputeLayout(threeGenerations(), Options{Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	measured, err := ComputeLayout(threeGenerations(), Options{Font: FontEmbedded, FontSize: 12, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if len(fixed.Nodes) != len(measured.Nodes) {
		t.Fatalf("node counts differ: %d vs %d", len(fixed.Nodes), len(measured.Nodes))
	}
	for _, n := range measured.Nodes {
		if n.BoxWidth < 120 {
			t.Errorf("%s width = %v, below the minimum", n.PersonID, n.BoxWidth)
		}
	}
}

func TestComputeLayoutMissingFont(t *testing.T) {
	_, err := ComputeLayout(threeGenerations(), Options{Font: filepath.Join(t.TempDir(), "none.ttf"), Logger: quiet})
	if err == nil {
		t.Error("ComputeLayout() with a missing font = nil, want error")
	}
}

func TestRender(t *testing.T) {
	people := threeGenerations()
	opts := Options{ProtocolKey: "P-1", Formats: []string{"svg", "json", "dot"}, Logger: quiet}
	res, err := ComputeLayout(people, opts)
	if err != nil {
		t.Fatal(err)
	}

	artifacts, err := Render(context.Background(), res, people, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 3 {
		t.Fatalf("artifacts = %d, want 3", len(artifacts))
	}
	if !bytes.Contains(artifacts["svg"], []byte("<svg")) {
		t.Error("svg artifact is not an SVG document")
	}
	dot := string(artifacts["dot"])
	for _, want := range []string{`"g" -> "p";`, `"p" -> "c";`, `"o" -> "c";`, "rank=same"} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot missing %q:\n%s", want, dot)
		}
	}
	var doc struct {
		Source      string `json:"source"`
		Generations int    `json:"generations"`
	}
	if err := json.Unmarshal(artifacts["json"], &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Source != "P-1" || doc.Generations != 3 {
		t.Errorf("json = %+v, want source P-1 with 3 generations", doc)
	}
}

func TestRenderPNG(t *testing.T) {
	people := threeGenerations()
	opts := Options{Input: "x.json", Formats: []string{"png"}, Scale: 1, Logger: quiet}
	res, err := ComputeLayout(people, opts)
	if err != nil {
		t.Fatal(err)
	}
	artifacts, err := Render(context.Background(), res, people, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(artifacts["png"], []byte("\x89PNG")) {
		t.Error("png artifact has no PNG signature")
	}
}

func TestRunnerExecuteCaches(t *testing.T) {
	runner, _ := newTestRunner(t)
	ctx := context.Background()
	opts := Options{ProtocolKey: "P-1", Formats: []string{"json", "svg"}}

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo != (CacheInfo{}) {
		t.Errorf("first run CacheInfo = %+v, want all misses", first.CacheInfo)
	}
	if first.Stats.People != 4 || first.Stats.Generations != 3 || first.Stats.Connections != 4 {
		t.Errorf("Stats = %+v, want 4 people, 3 generations, 4 connections", first.Stats)
	}
	if first.Family.RootID != "p" {
		t.Errorf("RootID = %q, want p", first.Family.RootID)
	}
	if first.PeopleHash == "" {
		t.Error("PeopleHash not set")
	}

	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	want := CacheInfo{LoadHit: true, LayoutHit: true, RenderHit: true}
	if second.CacheInfo != want {
		t.Errorf("second run CacheInfo = %+v, want %+v", second.CacheInfo, want)
	}
	if !bytes.Equal(first.Artifacts["svg"], second.Artifacts["svg"]) {
		t.Error("cached svg differs from the rendered one")
	}

	opts.Refresh = true
	third, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LoadHit {
		t.Error("Refresh should bypass the family cache")
	}
	if !third.CacheInfo.LayoutHit {
		t.Error("unchanged people should still hit the layout cache")
	}
}

func TestRunnerFamilyCacheKeyedByLimits(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	opts := Options{ProtocolKey: "P-1"}

	full := NewRunner(source.NewMemorySource("test", threeGenerations(), source.Options{}), c, nil, quiet)
	fam, hit, err := full.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit || len(fam.People) != 4 || fam.Truncated {
		t.Fatalf("full load: hit=%v people=%d truncated=%v", hit, len(fam.People), fam.Truncated)
	}

	limited := NewRunner(source.NewMemorySource("test", threeGenerations(), source.Options{MaxPeople: 2}), c, nil, quiet)
	fam, hit, err = limited.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("limited load hit the unlimited cache entry")
	}
	if len(fam.People) != 2 || !fam.Truncated {
		t.Errorf("limited load: people=%d truncated=%v, want 2 truncated", len(fam.People), fam.Truncated)
	}

	if _, hit, _ = full.LoadWithCacheInfo(ctx, opts); !hit {
		t.Error("unlimited load missed its own cache entry")
	}
}

func TestRunnerNewFormatMissesRender(t *testing.T) {
	runner, _ := newTestRunner(t)
	ctx := context.Background()
	if _, err := runner.Execute(ctx, Options{ProtocolKey: "P-1", Formats: []string{"svg"}}); err != nil {
		t.Fatal(err)
	}
	res, err := runner.Execute(ctx, Options{ProtocolKey: "P-1", Formats: []string{"svg", "json"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.RenderHit {
		t.Error("RenderHit = true with an uncached format")
	}
	if len(res.Artifacts) != 2 {
		t.Errorf("artifacts = %d, want 2", len(res.Artifacts))
	}
}

func TestRunnerLoadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.json")
	if err := kio.ExportPersons(path, kio.Document{RootID: "g", People: threeGenerations()}); err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(nil, nil, nil, quiet)
	ctx := context.Background()

	fam, err := runner.Load(ctx, Options{Input: path})
	if err != nil {
		t.Fatal(err)
	}
	if len(fam.People) != 5 || fam.RootID != "g" {
		t.Errorf("loaded %d people with root %q, want 5 with root g", len(fam.People), fam.RootID)
	}

	fam, err = runner.Load(ctx, Options{Input: path, ProtocolKey: "P-2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(fam.People) != 1 || fam.RootID != "x" {
		t.Errorf("P-2 family = %+v, want only x", fam)
	}

	_, err = runner.Load(ctx, Options{Input: filepath.Join(t.TempDir(), "missing.json")})
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) = %v, want %s", err, errs.ErrCodeFileNotFound)
	}
}

func TestRunnerErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewRunner(nil, nil, nil, quiet).Load(ctx, Options{ProtocolKey: "P-1"})
	if !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("Load without source = %v, want %s", err, errs.ErrCodeInvalidConfig)
	}

	runner, _ := newTestRunner(t)
	_, err = runner.Execute(ctx, Options{ProtocolKey: "P-404"})
	if !errs.Is(err, errs.ErrCodeFamilyNotFound) {
		t.Errorf("Execute(unknown key) = %v, want %s", err, errs.ErrCodeFamilyNotFound)
	}

	_, err = runner.Execute(ctx, Options{ProtocolKey: "P-1", Formats: []string{"gif"}})
	if !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("Execute(gif) = %v, want %s", err, errs.ErrCodeInvalidFormat)
	}
}

func TestRunnerClose(t *testing.T) {
	runner, _ := newTestRunner(t)
	if err := runner.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
