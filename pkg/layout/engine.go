package layout

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/family/generation"
)

// Scope selects which people take part in a run.
type Scope int

const (
	// ScopeAll lays out every valid person.
	ScopeAll Scope = iota
	// ScopeConnected lays out only the family group of the focus person, or
	// the largest family group when there is no focus.
	ScopeConnected
)

func (s Scope) String() string {
	if s == ScopeConnected {
		return "connected"
	}
	return "all"
}

// ParseScope parses "all" or "connected". An empty string is [ScopeAll].
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ScopeAll, nil
	case "connected", "family":
		return ScopeConnected, nil
	}
	return ScopeAll, fmt.Errorf("unknown scope %q (want all or connected)", s)
}

// Option configures [Compute].
type Option func(*engine)

type engine struct {
	cfg     Config
	measure MeasureFunc
	focus   string
	scope   Scope
	coll    *collate.Collator
	locale  *language.Tag
	logger  *log.Logger
}

// WithConfig sets the geometric constants. The default is [DefaultConfig].
func WithConfig(cfg Config) Option { return func(e *engine) { e.cfg = cfg } }

// WithMeasure sets the label-width function. The default is [DefaultMeasure].
func WithMeasure(m MeasureFunc) Option { return func(e *engine) { e.measure = m } }

// WithFocus seeds generation assignment from the given person.
func WithFocus(id string) Option { return func(e *engine) { e.focus = strings.TrimSpace(id) } }

// WithScope restricts the run to a subset of people.
func WithScope(s Scope) Option { return func(e *engine) { e.scope = s } }

// WithLocale compares surnames with a collator for tag, created per run.
func WithLocale(tag language.Tag) Option { return func(e *engine) { e.locale = &tag } }

// WithLogger sets the logger for data-quality warnings. The default is
// [log.Default].
func WithLogger(l *log.Logger) Option { return func(e *engine) { e.logger = l } }

func newEngine(opts ...Option) *engine {
	e := &engine{cfg: DefaultConfig(), measure: DefaultMeasure}
	for _, opt := range opts {
		opt(e)
	}
	if e.measure == nil {
		e.measure = DefaultMeasure
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.locale != nil {
		e.coll = collate.New(*e.locale)
	}
	return e
}

// Compute lays out people as a family tree.
//
// Compute never fails. Invalid records are dropped, dangling references are
// treated as absent and parentage cycles are cut; all of these are reported
// in [Result.Diagnostics] and logged as warnings. An empty or entirely
// invalid input yields an empty result.
//
// Compute is deterministic: the same people, options and measure function
// produce an identical result. It holds no state and is safe to call
// concurrently.
func Compute(people []family.Person, opts ...Option) Result {
	e := newEngine(opts...)
	return e.run(family.NewIndex(people))
}

func (e *engine) run(idx *family.Index) Result {
	res := Result{
		Nodes:       []Node{},
		Connections: []Connection{},
		Marriages:   []Marriage{},
		Diagnostics: Diagnostics{Converged: true, Skipped: idx.Skipped()},
	}
	if n := idx.Skipped(); n > 0 {
		e.logger.Warn("skipped invalid or duplicate records", "count", n)
	}

	focus := e.focus
	if focus != "" && !idx.Has(focus) {
		e.logger.Warn("focus person not found, using default roots", "focus", focus)
		res.Diagnostics.UnresolvedFocus = true
		focus = ""
	}

	if e.scope == ScopeConnected {
		idx = e.restrict(idx, focus)
	}
	if idx.Len() == 0 {
		return res
	}

	gens := generation.Assign(idx, generation.Options{Focus: focus})
	res.Focus = focus
	res.Diagnostics.Converged = gens.Converged
	res.Diagnostics.Passes = gens.Passes
	res.Diagnostics.Severed = gens.Severed
	res.Diagnostics.Seeds = gens.Seeds
	if len(gens.Severed) > 0 {
		e.logger.Warn("ignored parent links on a cycle", "links", len(gens.Severed))
	}
	if !gens.Converged {
		e.logger.Warn("generation assignment did not converge", "passes", gens.Passes)
	}

	nodes := ComposeRows(idx, gens.Generations, e.cfg, e.measure, e.coll)
	for i := range nodes {
		nodes[i].IsFocus = nodes[i].PersonID == focus
	}
	res.Nodes = nodes
	res.Connections, res.Marriages = Route(nodes, idx, e.cfg)
	res.Bounds = bounds(nodes, e.cfg)
	return res
}

func (e *engine) restrict(idx *family.Index, focus string) *family.Index {
	if focus != "" {
		return idx.Subset(idx.Connected(focus))
	}
	if groups := idx.Groups(); len(groups) > 0 {
		return idx.Subset(groups[0])
	}
	return idx
}
