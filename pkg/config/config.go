// Package config loads kintree settings from TOML or YAML files.
//
// A file only needs the keys it changes; everything else keeps the value
// from [Default]. Command-line flags override file values.
//
//	[layout]
//	box_height = 80
//	vertical_gap = 120
//
//	[render]
//	formats = ["svg", "png"]
//	locale = "pl"
//
//	[server]
//	addr = ":8080"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/kintree/pkg/cache"
	errs "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/source"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Source backends.
const (
	SourceNone  = "none"
	SourceFile  = "file"
	SourceMongo = "mongo"
)

// Config is the complete settings file.
type Config struct {
	Layout layout.Config `toml:"layout" yaml:"layout" json:"layout"`
	Render RenderConfig  `toml:"render" yaml:"render" json:"render"`
	Server ServerConfig  `toml:"server" yaml:"server" json:"server"`
	Cache  CacheConfig   `toml:"cache" yaml:"cache" json:"cache"`
	Source SourceConfig  `toml:"source" yaml:"source" json:"source"`
}

// RenderConfig holds default render options.
type RenderConfig struct {
	Formats          []string `toml:"formats" yaml:"formats" json:"formats"`
	View             string   `toml:"view" yaml:"view" json:"view"`
	Scope            string   `toml:"scope" yaml:"scope" json:"scope"`
	Locale           string   `toml:"locale" yaml:"locale" json:"locale"`
	Font             string   `toml:"font" yaml:"font" json:"font"`
	FontSize         float64  `toml:"font_size" yaml:"font_size" json:"font_size"`
	Scale            float64  `toml:"scale" yaml:"scale" json:"scale"`
	GenerationColors bool     `toml:"generation_colors" yaml:"generation_colors" json:"generation_colors"`
	Detailed         bool     `toml:"detailed" yaml:"detailed" json:"detailed"`

	// LinkFormat wraps SVG person boxes in links; %s receives the
	// protocol key.
	LinkFormat string `toml:"link_format" yaml:"link_format" json:"link_format"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr           string        `toml:"addr" yaml:"addr" json:"addr"`
	ReadTimeout    time.Duration `toml:"read_timeout" yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout" yaml:"write_timeout" json:"write_timeout"`
	RequestTimeout time.Duration `toml:"request_timeout" yaml:"request_timeout" json:"request_timeout"`
	MaxBodyBytes   int64         `toml:"max_body_bytes" yaml:"max_body_bytes" json:"max_body_bytes"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend  string `toml:"backend" yaml:"backend" json:"backend"`
	Dir      string `toml:"dir" yaml:"dir" json:"dir"`
	RedisURL string `toml:"redis_url" yaml:"redis_url" json:"redis_url"`
}

// SourceConfig selects where families are loaded from by protocol key.
type SourceConfig struct {
	Backend         string `toml:"backend" yaml:"backend" json:"backend"`
	Path            string `toml:"path" yaml:"path" json:"path"`
	MongoURI        string `toml:"mongo_uri" yaml:"mongo_uri" json:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database" yaml:"mongo_database" json:"mongo_database"`
	MongoCollection string `toml:"mongo_collection" yaml:"mongo_collection" json:"mongo_collection"`
	MaxPeople       int    `toml:"max_people" yaml:"max_people" json:"max_people"`
	MaxDepth        int    `toml:"max_depth" yaml:"max_depth" json:"max_depth"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Layout: layout.DefaultConfig(),
		Render: RenderConfig{
			Formats: []string{pipeline.FormatSVG},
			View:    pipeline.DefaultView,
			Scale:   pipeline.DefaultScale,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
			RequestTimeout: 30 * time.Second,
			MaxBodyBytes:   10 << 20,
		},
		Cache: CacheConfig{Backend: CacheFile},
		Source: SourceConfig{
			Backend:         SourceNone,
			MongoDatabase:   "genealogia",
			MongoCollection: "persons",
			MaxPeople:       source.DefaultMaxPeople,
			MaxDepth:        source.DefaultMaxDepth,
		},
	}
}

// Load reads the file at path over [Default]. The format follows the
// extension: .toml, .yaml or .yml. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errs.Wrap(errs.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return cfg, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = decodeTOML(data, &cfg)
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	default:
		return cfg, errs.New(errs.ErrCodeInvalidConfig, "unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}
	if err != nil {
		return cfg, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var err error
	if lerr := c.Layout.Validate(); lerr != nil {
		err = multierr.Append(err, lerr)
	}

	if verr := errs.ValidateFormats(c.Render.Formats); verr != nil {
		err = multierr.Append(err, verr)
	}
	if verr := pipeline.ValidateView(c.Render.View); verr != nil {
		err = multierr.Append(err, verr)
	}
	if _, serr := layout.ParseScope(c.Render.Scope); serr != nil {
		err = multierr.Append(err, serr)
	}
	if c.Render.Scale <= 0 {
		err = multierr.Append(err, fmt.Errorf("render.scale must be positive, got %v", c.Render.Scale))
	}
	if c.Render.FontSize < 0 {
		err = multierr.Append(err, fmt.Errorf("render.font_size must not be negative, got %v", c.Render.FontSize))
	}

	if c.Server.Addr == "" {
		err = multierr.Append(err, fmt.Errorf("server.addr is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		err = multierr.Append(err, fmt.Errorf("server.max_body_bytes must be positive"))
	}

	switch c.Cache.Backend {
	case CacheNone, CacheFile:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			err = multierr.Append(err, fmt.Errorf("cache.redis_url is required for the redis backend"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown cache.backend %q (want none, file or redis)", c.Cache.Backend))
	}

	switch c.Source.Backend {
	case SourceNone:
	case SourceFile:
		if c.Source.Path == "" {
			err = multierr.Append(err, fmt.Errorf("source.path is required for the file backend"))
		}
	case SourceMongo:
		if c.Source.MongoURI == "" {
			err = multierr.Append(err, fmt.Errorf("source.mongo_uri is required for the mongo backend"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown source.backend %q (want none, file or mongo)", c.Source.Backend))
	}

	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid config")
	}
	return nil
}

// PipelineOptions returns pipeline options carrying the layout and render
// defaults of c.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Scope:            c.Render.Scope,
		Locale:           c.Render.Locale,
		Font:             c.Render.Font,
		FontSize:         c.Render.FontSize,
		Layout:           c.Layout,
		Formats:          append([]string(nil), c.Render.Formats...),
		View:             c.Render.View,
		Scale:            c.Render.Scale,
		GenerationColors: c.Render.GenerationColors,
		Detailed:         c.Render.Detailed,
		LinkFormat:       c.Render.LinkFormat,
	}
}

// SourceOptions returns the family expansion limits.
func (c Config) SourceOptions() source.Options {
	return source.Options{MaxPeople: c.Source.MaxPeople, MaxDepth: c.Source.MaxDepth}
}

// KeyPrefix namespaces cache keys per source backend so a shared Redis
// can serve several deployments.
func (c Config) KeyPrefix() string {
	if c.Source.Backend == SourceMongo {
		return "kintree:" + c.Source.MongoDatabase + ":"
	}
	return "kintree:"
}

// Keyer returns the cache keyer for c.
func (c Config) Keyer() cache.Keyer {
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.KeyPrefix())
}
