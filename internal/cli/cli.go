// Package cli implements the kintree command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/buildinfo"
	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/config"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "kintree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "kintree lays out family trees by generation",
		Long: `kintree lays out genealogical records as generation rows: ancestors above,
descendants below, spouses side by side, with orthogonal connectors between
parents and children.

People come from a family document (JSON with "persons" or vis-style
"nodes"/"edges") or from a configured source looked up by protocol key.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", os.Getenv("KINTREE_CONFIG"), "settings file (.toml, .yaml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.focusCommand())
	root.AddCommand(c.familiesCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	if c.configPath == "" {
		return nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("loaded config", "path", c.configPath)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. src may be nil when
// only family documents are read.
func (c *CLI) newRunner(ctx context.Context, noCache bool, src source.Source) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(src, ch, c.cfg.Keyer(), c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, c.cfg.Cache.RedisURL)
	}
	dir := c.cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			c.Logger.Debug("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// newSource opens the configured family source. It returns nil when no
// source is configured.
func (c *CLI) newSource(ctx context.Context) (source.Source, error) {
	opts := c.cfg.SourceOptions()
	switch c.cfg.Source.Backend {
	case config.SourceFile:
		return source.NewFileSource(c.cfg.Source.Path, opts)
	case config.SourceMongo:
		return source.NewMongoSource(ctx, c.cfg.Source.MongoURI, c.cfg.Source.MongoDatabase, c.cfg.Source.MongoCollection, opts)
	}
	return nil, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/kintree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// treeFlags are the layout and render flags shared by several commands.
// Only flags given on the command line override the settings file.
type treeFlags struct {
	formats          string
	view             string
	focus            string
	scope            string
	locale           string
	font             string
	fontSize         float64
	scale            float64
	generationColors bool
	detailed         bool
	linkFormat       string
}

func (f *treeFlags) register(cmd *cobra.Command, render bool) {
	fl := cmd.Flags()
	fl.StringVar(&f.focus, "focus", "", "person id to centre the tree on")
	fl.StringVar(&f.scope, "scope", "", "people to place: all (default), connected")
	fl.StringVar(&f.locale, "locale", "", "collation locale for name ordering (e.g. pl)")
	fl.StringVar(&f.font, "font", "", "measure labels with a TrueType file, or \"go\" for the bundled font")
	fl.Float64Var(&f.fontSize, "font-size", pipeline.DefaultFontSize, "label font size in points")
	if !render {
		return
	}
	fl.StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), png, json, dot (comma-separated)")
	fl.StringVar(&f.view, "view", "", "drawing: tree (default), network")
	fl.Float64Var(&f.scale, "scale", pipeline.DefaultScale, "PNG pixel density")
	fl.BoolVar(&f.generationColors, "generation-colors", false, "tint boxes by generation")
	fl.BoolVar(&f.detailed, "detailed", false, "add ids, years and house numbers to network labels")
	fl.StringVar(&f.linkFormat, "link-format", "", "wrap SVG boxes in links; %s receives the protocol key")
}

// apply copies the flags the user set onto opts.
func (f *treeFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	changed := cmd.Flags().Changed
	if changed("format") {
		opts.Formats = parseFormats(f.formats)
	}
	if changed("view") {
		opts.View = f.view
	}
	if changed("focus") {
		opts.Focus = f.focus
	}
	if changed("scope") {
		opts.Scope = f.scope
	}
	if changed("locale") {
		opts.Locale = f.locale
	}
	if changed("font") {
		opts.Font = f.font
	}
	if changed("font-size") {
		opts.FontSize = f.fontSize
	}
	if changed("scale") {
		opts.Scale = f.scale
	}
	if changed("generation-colors") {
		opts.GenerationColors = f.generationColors
	}
	if changed("detailed") {
		opts.Detailed = f.detailed
	}
	if changed("link-format") {
		opts.LinkFormat = f.linkFormat
	}
}

// options starts from the settings file and applies the flags.
func (c *CLI) options(cmd *cobra.Command, f *treeFlags) pipeline.Options {
	opts := c.cfg.PipelineOptions()
	f.apply(cmd, &opts)
	opts.Logger = c.Logger
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// requireSource errors when a command needs the configured source.
func requireSource(src source.Source) error {
	if src == nil {
		return fmt.Errorf("no family source configured: pass a family document or set [source] in --config")
	}
	return nil
}
