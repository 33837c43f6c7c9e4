package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	errs "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	kio "github.com/matzehuels/kintree/pkg/io"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/source"
)

// Cache key types reported to [observability.CacheHooks].
const (
	keyTypeFamily   = "family"
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching behaves the same everywhere.
//
// The Runner holds no per-run state. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Source source.Source
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner.
// If src is nil, only family documents can be loaded.
// If c is nil, a NullCache is used (caching disabled).
// If keyer is nil, a DefaultKeyer is used.
func NewRunner(src source.Source, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Source: src,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	fam, loadHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Family = fam
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.People = len(fam.People)
	result.CacheInfo.LoadHit = loadHit
	if hash, err := cache.HashJSON(fam.People); err == nil {
		result.PeopleHash = hash
	}

	r.Logger.Info("loaded family",
		"people", len(fam.People),
		"truncated", fam.Truncated,
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	res, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, fam.People, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = res
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Generations = res.Generations()
	result.Stats.Connections = len(res.Connections)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"nodes", len(res.Nodes),
		"generations", res.Generations(),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, res, fam.People, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// =============================================================================
// Load
// =============================================================================

// LoadWithCacheInfo loads the people named by opts and reports whether they
// came from the cache. Families from the runner's source are cached for
// [cache.TTLFamily]; family documents are always read from disk.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (fam source.Family, hit bool, err error) {
	if err := opts.ValidateForLoad(); err != nil {
		return source.Family{}, false, err
	}

	name := "file"
	if opts.Input == "" && r.Source != nil {
		name = r.Source.Name()
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, name, opts.ProtocolKey)
	start := time.Now()
	defer func() {
		hooks.OnLoadComplete(ctx, name, opts.ProtocolKey, len(fam.People), time.Since(start), err)
	}()

	if opts.Input != "" {
		fam, err = loadDocument(ctx, opts)
		return fam, false, err
	}
	if r.Source == nil {
		return source.Family{}, false, errs.New(errs.ErrCodeInvalidConfig, "no family source configured")
	}

	lim := r.Source.Limits()
	key := r.Keyer.FamilyKey(r.Source.Name(), opts.ProtocolKey, cache.FamilyKeyOpts{
		MaxPeople: lim.MaxPeople,
		MaxDepth:  lim.MaxDepth,
	})
	if !opts.Refresh {
		if data, ok := r.cacheGet(ctx, keyTypeFamily, key); ok {
			var cached source.Family
			if err := json.Unmarshal(data, &cached); err == nil {
				cached.People = orEmpty(cached.People)
				return cached, true, nil
			}
			r.Logger.Debug("discarding undecodable cache entry", "key", key)
		}
	}

	fam, err = r.Source.Family(ctx, opts.ProtocolKey)
	if err != nil {
		return source.Family{}, false, err
	}
	r.cacheSet(ctx, keyTypeFamily, key, fam, cache.TTLFamily)
	return fam, false, nil
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (source.Family, error) {
	fam, _, err := r.LoadWithCacheInfo(ctx, opts)
	return fam, err
}

func loadDocument(ctx context.Context, opts Options) (source.Family, error) {
	doc, err := kio.ImportPersons(opts.Input)
	if err != nil {
		return source.Family{}, err
	}
	if opts.ProtocolKey == "" {
		return source.Family{RootID: doc.RootID, People: orEmpty(doc.People)}, nil
	}
	return source.NewMemorySource("file", doc.People, source.Options{}).Family(ctx, opts.ProtocolKey)
}

// =============================================================================
// Layout
// =============================================================================

// ComputeLayoutWithCacheInfo lays out people with caching and returns cache
// hit info. The key covers the people and every option that changes the
// result.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, people []family.Person, opts Options) (layout.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Result{}, false, err
	}

	peopleHash, err := cache.HashJSON(people)
	if err != nil {
		return layout.Result{}, false, fmt.Errorf("hash people: %w", err)
	}
	key := r.Keyer.LayoutKey(peopleHash, opts.LayoutKeyOpts())

	if data, ok := r.cacheGet(ctx, keyTypeLayout, key); ok {
		var cached layout.Result
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, true, nil
		}
		// Fall through to recompute.
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(people))
	start := time.Now()
	res, err := ComputeLayout(people, opts)
	if err != nil {
		return layout.Result{}, false, err
	}
	hooks.OnLayoutComplete(ctx, res.Generations(), res.Diagnostics.Converged, time.Since(start))

	r.cacheSet(ctx, keyTypeLayout, key, res, cache.TTLLayout)
	return res, false, nil
}

// ComputeLayout is a convenience wrapper that calls
// ComputeLayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, people []family.Person, opts Options) (layout.Result, error) {
	res, _, err := r.ComputeLayoutWithCacheInfo(ctx, people, opts)
	return res, err
}

// =============================================================================
// Render
// =============================================================================

// RenderWithCacheInfo generates artifacts with caching. The hit is true
// only when every requested format came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res layout.Result, people []family.Person, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	// DOT and network drawings depend on links the layout does not carry.
	layoutHash, err := cache.HashJSON(struct {
		Layout layout.Result   `json:"layout"`
		People []family.Person `json:"people,omitempty"`
	}{res, networkPeople(people, opts)})
	if err != nil {
		return nil, false, fmt.Errorf("hash layout: %w", err)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, ok := r.cacheGet(ctx, keyTypeArtifact, r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format)))
		if !ok {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, res, people, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Debug("cache write failed", "key", key, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, res layout.Result, people []family.Person, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, res, people, opts)
	return artifacts, err
}

func networkPeople(people []family.Person, opts Options) []family.Person {
	if opts.IsNetwork() || slices.Contains(opts.Formats, FormatDOT) {
		return people
	}
	return nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var err error
	if r.Source != nil {
		err = r.Source.Close()
	}
	if r.Cache != nil {
		if cerr := r.Cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// =============================================================================
// Cache access
// =============================================================================

func (r *Runner) cacheGet(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

// cacheSet stores v as JSON. Cache failures never fail a run.
func (r *Runner) cacheSet(ctx context.Context, keyType, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		r.Logger.Debug("cache encode failed", "key", key, "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
