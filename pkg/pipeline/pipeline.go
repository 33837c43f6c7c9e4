// Package pipeline runs the load → layout → render sequence shared by the
// CLI and the HTTP service.
//
// # Stages
//
//  1. Load: read people from a family document or from a [source.Source]
//     by protocol key
//  2. Layout: assign generations, compose rows and route connectors
//  3. Render: produce SVG, PNG, DOT or JSON documents
//
// Each stage can be run on its own. A [Runner] caches every stage under
// content-addressed keys so repeated requests skip the expensive parts.
//
// # Usage
//
//	runner := pipeline.NewRunner(src, c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ProtocolKey: "P-1887-12",
//	    Formats:     []string{"svg"},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/language"

	"github.com/matzehuels/kintree/pkg/cache"
	errs "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/measure"
	"github.com/matzehuels/kintree/pkg/source"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultScale is the PNG pixel density.
	DefaultScale = 2.0

	// DefaultFontSize is the point size labels are measured at when a font
	// is selected.
	DefaultFontSize = measure.DefaultFontSize

	// DefaultView is the default visualization.
	DefaultView = ViewTree
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// View constants select the drawing.
const (
	// ViewTree draws the generation layout computed by the engine.
	ViewTree = "tree"

	// ViewNetwork hands the family to Graphviz as a node-link graph.
	ViewNetwork = "network"
)

// FontEmbedded measures labels with the bundled Go font. Any other
// non-empty [Options.Font] is a path to a TrueType file.
const FontEmbedded = "go"

// ValidViews is the set of supported views.
var ValidViews = map[string]bool{
	ViewTree:    true,
	ViewNetwork: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run. It is decoded
// directly from API request bodies.
type Options struct {
	// Load options. Input is a family document; ProtocolKey selects one
	// family, either from Input or from the runner's source.
	Input       string `json:"-"`
	ProtocolKey string `json:"protocol_key,omitempty"`
	Refresh     bool   `json:"refresh,omitempty"`

	// Layout options
	Focus    string        `json:"focus,omitempty"`
	Scope    string        `json:"scope,omitempty"`
	Locale   string        `json:"locale,omitempty"`
	Font     string        `json:"-"`
	FontSize float64       `json:"font_size,omitempty"`
	Layout   layout.Config `json:"layout"`

	// Render options
	Formats          []string `json:"formats,omitempty"`
	View             string   `json:"view,omitempty"`
	Scale            float64  `json:"scale,omitempty"`
	GenerationColors bool     `json:"generation_colors,omitempty"`
	Detailed         bool     `json:"detailed,omitempty"`
	LinkFormat       string   `json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Family holds the loaded people.
	Family source.Family

	// PeopleHash is the content hash of Family.People.
	PeopleHash string

	// Layout is the computed tree.
	Layout layout.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	People      int
	Generations int
	Connections int
	LoadTime    time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Whether people came from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateView checks that view is one of [ValidViews].
func ValidateView(view string) error {
	if !ValidViews[view] {
		return errs.New(errs.ErrCodeInvalidInput, "invalid view %q (must be one of: tree, network)", view)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that there is something to load.
func (o *Options) ValidateForLoad() error {
	o.setLogger()
	if o.Input == "" && o.ProtocolKey == "" {
		return errs.New(errs.ErrCodeInvalidInput, "input file or protocol key is required")
	}
	if o.ProtocolKey != "" {
		return errs.ValidateProtocolKey(o.ProtocolKey)
	}
	return nil
}

// SetLayoutDefaults fills in zero layout options.
func (o *Options) SetLayoutDefaults() {
	o.setLogger()
	if o.Layout == (layout.Config{}) {
		o.Layout = layout.DefaultConfig()
	}
	if o.Font != "" && o.FontSize <= 0 {
		o.FontSize = DefaultFontSize
	}
	o.Focus = strings.TrimSpace(o.Focus)
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if o.Focus != "" {
		if err := errs.ValidatePersonID(o.Focus); err != nil {
			return err
		}
	}
	if _, err := layout.ParseScope(o.Scope); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid scope")
	}
	if _, err := o.locale(); err != nil {
		return err
	}
	if err := o.Layout.Validate(); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid layout constants")
	}
	return nil
}

// SetRenderDefaults fills in zero render options.
func (o *Options) SetRenderDefaults() {
	o.setLogger()
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.View == "" {
		o.View = DefaultView
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateView(o.View); err != nil {
		return err
	}
	if err := errs.ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "scale must be positive, got %v", o.Scale)
	}
	return nil
}

// IsNetwork reports whether the Graphviz view is selected.
func (o *Options) IsNetwork() bool { return o.View == ViewNetwork }

// Label names the loaded family in documents and file names.
func (o *Options) Label() string {
	if o.ProtocolKey != "" {
		return o.ProtocolKey
	}
	base := filepath.Base(o.Input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	scope, _ := layout.ParseScope(o.Scope)
	return cache.LayoutKeyOpts{
		Focus:         o.Focus,
		Scope:         scope.String(),
		Locale:        o.Locale,
		Font:          o.Font,
		FontSize:      o.FontSize,
		BoxHeight:     o.Layout.BoxHeight,
		HorizontalGap: o.Layout.HorizontalGap,
		VerticalGap:   o.Layout.VerticalGap,
		MarriageGap:   o.Layout.MarriageGap,
		MinBoxWidth:   o.Layout.MinBoxWidth,
		LabelPadding:  o.Layout.LabelPadding,
		Margin:        o.Layout.Margin,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, View: o.View}
	switch {
	case format == FormatDOT || o.IsNetwork():
		k.Detailed = o.Detailed
	case format == FormatSVG:
		k.Colors = o.GenerationColors
		k.Links = o.LinkFormat
	case format == FormatPNG:
		k.Colors = o.GenerationColors
		k.Font = o.Font
		k.Scale = o.Scale
	}
	return k
}

func (o *Options) locale() (language.Tag, error) {
	if o.Locale == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(o.Locale)
	if err != nil {
		return language.Und, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid locale %q", o.Locale)
	}
	return tag, nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

func orEmpty(people []family.Person) []family.Person {
	if people == nil {
		return []family.Person{}
	}
	return people
}
