package pipeline

import (
	"fmt"
	"sync"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/fonts"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/measure"
)

// =============================================================================
// Layout Generation
// =============================================================================

// ComputeLayout lays out people with opts. It does not use a cache; see
// [Runner.ComputeLayoutWithCacheInfo].
func ComputeLayout(people []family.Person, opts Options) (layout.Result, error) {
	engineOpts, err := EngineOptions(opts)
	if err != nil {
		return layout.Result{}, err
	}
	return layout.Compute(people, engineOpts...), nil
}

// EngineOptions translates opts into layout engine options. The
// [layout.Controller] used by the interactive picker is built from the
// same list.
func EngineOptions(opts Options) ([]layout.Option, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	scope, _ := layout.ParseScope(opts.Scope)
	m, err := measureFunc(opts.Font, opts.FontSize)
	if err != nil {
		return nil, err
	}

	engineOpts := []layout.Option{
		layout.WithConfig(opts.Layout),
		layout.WithMeasure(m),
		layout.WithFocus(opts.Focus),
		layout.WithScope(scope),
		layout.WithLogger(opts.Logger),
	}
	if opts.Locale != "" {
		tag, _ := opts.locale()
		engineOpts = append(engineOpts, layout.WithLocale(tag))
	}
	return engineOpts, nil
}

// faces caches loaded font faces by font and size. Parsing a TrueType file
// per request would dominate small layouts.
var faces sync.Map

type faceKey struct {
	font string
	size float64
}

func measureFunc(font string, size float64) (layout.MeasureFunc, error) {
	if font == "" {
		return layout.DefaultMeasure, nil
	}
	key := faceKey{font, size}
	if f, ok := faces.Load(key); ok {
		return f.(*measure.Face).Measure, nil
	}

	var face *measure.Face
	if font == FontEmbedded {
		face = measure.NewFace(fonts.Bold(), size)
	} else {
		var err error
		if face, err = measure.LoadFace(font, size); err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
	}
	f, _ := faces.LoadOrStore(key, face)
	return f.(*measure.Face).Measure, nil
}
