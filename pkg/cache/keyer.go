package cache

import "strings"

// Keyer builds cache keys. Options that change the output are hashed into
// the key so that different settings never share an entry.
type Keyer interface {
	// FamilyKey identifies the people of a protocol's family in a source
	// expanded under the given limits.
	FamilyKey(source, protocolKey string, opts FamilyKeyOpts) string

	// LayoutKey identifies a layout of the people hashed as peopleHash.
	LayoutKey(peopleHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendering of the layout hashed as layoutHash.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// FamilyKeyOpts holds the expansion limits that change a loaded family.
type FamilyKeyOpts struct {
	MaxPeople int `json:"max_people"`
	MaxDepth  int `json:"max_depth"`
}

// LayoutKeyOpts holds every option that changes a layout.
type LayoutKeyOpts struct {
	Focus         string  `json:"focus,omitempty"`
	Scope         string  `json:"scope,omitempty"`
	Locale        string  `json:"locale,omitempty"`
	Font          string  `json:"font,omitempty"`
	FontSize      float64 `json:"font_size,omitempty"`
	BoxHeight     float64 `json:"box_height"`
	HorizontalGap float64 `json:"horizontal_gap"`
	VerticalGap   float64 `json:"vertical_gap"`
	MarriageGap   float64 `json:"marriage_gap"`
	MinBoxWidth   float64 `json:"min_box_width"`
	LabelPadding  float64 `json:"label_padding"`
	Margin        float64 `json:"margin"`
}

// ArtifactKeyOpts holds every option that changes a rendered document.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	View     string  `json:"view,omitempty"`
	Font     string  `json:"font,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Colors   bool    `json:"colors,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
	Links    string  `json:"links,omitempty"`
}

// DefaultKeyer produces keys of the form kind:sha256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// FamilyKey keeps the source and protocol key readable so entries can be
// inspected and invalidated by hand; the limits are hashed after them.
func (DefaultKeyer) FamilyKey(source, protocolKey string, opts FamilyKeyOpts) string {
	return hashKey("family:"+strings.ToLower(source)+":"+protocolKey, opts)
}

// LayoutKey hashes the people hash together with opts.
func (DefaultKeyer) LayoutKey(peopleHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", peopleHash, opts)
}

// ArtifactKey hashes the layout hash together with opts.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
