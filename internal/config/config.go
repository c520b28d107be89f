// Package config loads strata's TOML configuration file.
//
// The file lives at $XDG_CONFIG_HOME/strata/config.toml (falling back to
// ~/.config/strata/config.toml) and supplies defaults for the CLI and the
// HTTP service:
//
//	[layout]
//	pipeline = "layered"
//	rankdir = "LR"
//	timeout = "10s"
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//	timeout = "30s"
//
// A missing file is not an error. Command-line flags override the file, and
// a few STRATA_* environment variables override both the file and the
// built-in defaults for deployments where editing files is inconvenient.
package config

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/strata/pkg/cache"
	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/pipeline"
)

// AppName names the config and cache directories.
const AppName = "strata"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Backends lists every accepted [cache] backend value.
var Backends = []string{BackendFile, BackendRedis, BackendMongo, BackendNone}

// =============================================================================
// Types
// =============================================================================

// Config is the parsed configuration file.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// LayoutConfig holds default layout options. Zero values defer to the
// pipeline defaults.
type LayoutConfig struct {
	Pipeline  string   `toml:"pipeline"`
	Rankdir   string   `toml:"rankdir"`
	Nodesep   float64  `toml:"nodesep"`
	Ranksep   float64  `toml:"ranksep"`
	Edgesep   float64  `toml:"edgesep"`
	Marginx   float64  `toml:"marginx"`
	Marginy   float64  `toml:"marginy"`
	Ranker    string   `toml:"ranker"`
	Acyclicer string   `toml:"acyclicer"`
	Align     string   `toml:"align"`
	Timeout   Duration `toml:"timeout"`
}

// CacheConfig selects and configures the layout cache.
type CacheConfig struct {
	Backend string   `toml:"backend"`
	TTL     Duration `toml:"ttl"`

	// Dir is the file backend's directory. Empty selects the XDG cache dir.
	Dir string `toml:"dir"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`

	// Prefix scopes every key, so several deployments can share a backend.
	Prefix string `toml:"prefix"`
}

// ServerConfig configures `strata serve`.
type ServerConfig struct {
	Addr    string   `toml:"addr"`
	Timeout Duration `toml:"timeout"`
	// MaxBodyBytes limits request bodies.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// =============================================================================
// Defaults
// =============================================================================

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Backend:       BackendFile,
			TTL:           Duration{cache.TTLLayout},
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: AppName,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			Timeout:      Duration{pipeline.DefaultTimeout},
			MaxBodyBytes: 8 << 20,
		},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// CacheDir returns the file cache directory using the XDG standard
// (~/.cache/strata/).
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the config file at path on top of [Default]. An empty path
// selects [Path] and tolerates a missing file; an explicit path must exist.
// Unknown keys are rejected so typos do not pass silently.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return cfg, cfg.applyEnv()
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		if explicit {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
	case err != nil:
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return cfg, errors.New(errors.ErrCodeInvalidOption, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML text on top of [Default]. Environment overrides are not
// applied.
func Parse(text string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidOption, "unknown config key %s", undecoded[0])
	}
	return cfg, cfg.Validate()
}

// envOverrides maps environment variables onto config fields.
var envOverrides = []struct {
	name string
	set  func(*Config, string) error
}{
	{"STRATA_CACHE_BACKEND", func(c *Config, v string) error { c.Cache.Backend = v; return nil }},
	{"STRATA_REDIS_ADDR", func(c *Config, v string) error { c.Cache.RedisAddr = v; return nil }},
	{"STRATA_MONGO_URI", func(c *Config, v string) error { c.Cache.MongoURI = v; return nil }},
	{"STRATA_SERVER_ADDR", func(c *Config, v string) error { c.Server.Addr = v; return nil }},
	{"STRATA_SERVER_TIMEOUT", func(c *Config, v string) error { return c.Server.Timeout.UnmarshalText([]byte(v)) }},
}

func (c *Config) applyEnv() error {
	for _, o := range envOverrides {
		v, ok := os.LookupEnv(o.name)
		if !ok || v == "" {
			continue
		}
		if err := o.set(c, v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidOption, err, "%s", o.name)
		}
	}
	return nil
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	opts := c.Layout.Options()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	// An empty backend selects the file cache.
	if c.Cache.Backend != "" && errors.ValidateFormat(c.Cache.Backend, Backends...) != nil {
		return errors.New(errors.ErrCodeInvalidOption, "unknown cache backend %q (want one of %s)",
			c.Cache.Backend, strings.Join(Backends, ", "))
	}
	if c.Cache.TTL.Duration < 0 || c.Server.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "durations must not be negative")
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "max_body_bytes must not be negative")
	}
	return nil
}

// =============================================================================
// Conversions
// =============================================================================

// Options returns the layout section as pipeline options.
func (l LayoutConfig) Options() pipeline.Options {
	return pipeline.Options{
		Pipeline:  l.Pipeline,
		Rankdir:   l.Rankdir,
		Nodesep:   l.Nodesep,
		Ranksep:   l.Ranksep,
		Edgesep:   l.Edgesep,
		Marginx:   l.Marginx,
		Marginy:   l.Marginy,
		Ranker:    l.Ranker,
		Acyclicer: l.Acyclicer,
		Align:     l.Align,
		Timeout:   l.Timeout.Duration,
	}
}

// Open connects to the configured cache backend. The returned cache stores
// entries for the configured TTL.
func (c CacheConfig) Open(ctx context.Context) (cache.Cache, error) {
	var (
		backend cache.Cache
		err     error
	)
	switch c.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		backend, err = cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Prefix:   c.Prefix,
		})
	case BackendMongo:
		backend, err = cache.NewMongoCache(ctx, cache.MongoConfig{
			URI:        c.MongoURI,
			Database:   c.MongoDatabase,
			Collection: c.MongoCollection,
		})
	case BackendFile, "":
		dir := c.Dir
		if dir == "" {
			if dir, err = CacheDir(); err != nil {
				return nil, fmt.Errorf("resolve cache dir: %w", err)
			}
		}
		backend, err = cache.NewFileCache(dir)
	default:
		return nil, errors.New(errors.ErrCodeInvalidOption, "unknown cache backend %q", c.Backend)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCacheUnavailable, err, "open %s cache", c.Backend)
	}
	return cache.WithTTL(backend, c.TTL.Duration), nil
}

// Keyer returns the cache keyer for the configured prefix. Redis applies the
// prefix itself, so only the other backends scope their keys here.
func (c CacheConfig) Keyer() cache.Keyer {
	if c.Prefix == "" || c.Backend == BackendRedis {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Prefix)
}
