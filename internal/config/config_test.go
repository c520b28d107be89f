package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/strata/pkg/cache"
	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/pipeline"
)

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[layout]
pipeline = "minimal"
rankdir = "LR"
nodesep = 20
timeout = "5s"

[cache]
backend = "redis"
ttl = "1h"
redis_addr = "cache:6379"
prefix = "staging:"

[server]
addr = "127.0.0.1:9000"
`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	want := Default()
	want.Layout = LayoutConfig{Pipeline: "minimal", Rankdir: "LR", Nodesep: 20, Timeout: Duration{5 * time.Second}}
	want.Cache.Backend = BackendRedis
	want.Cache.TTL = Duration{time.Hour}
	want.Cache.RedisAddr = "cache:6379"
	want.Cache.Prefix = "staging:"
	want.Server.Addr = "127.0.0.1:9000"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		code errors.Code
	}{
		{"Syntax", "[layout\n", errors.ErrCodeInvalidFormat},
		{"UnknownKey", "[layout]\nrankdirr = \"LR\"\n", errors.ErrCodeInvalidOption},
		{"BadRankdir", "[layout]\nrankdir = \"XY\"\n", errors.ErrCodeInvalidOption},
		{"BadBackend", "[cache]\nbackend = \"memcached\"\n", errors.ErrCodeInvalidOption},
		{"NegativeTTL", "[cache]\nttl = \"-1h\"\n", errors.ErrCodeInvalidOption},
		{"BadDuration", "[server]\ntimeout = \"soon\"\n", errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if !errors.Is(err, tt.code) {
				t.Errorf("Parse() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadFromXDG(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	dir := filepath.Join(home, AppName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[cache]\nbackend = \"none\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Cache.Backend != BackendNone {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, BackendNone)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("STRATA_CACHE_BACKEND", "none")
	t.Setenv("STRATA_SERVER_ADDR", ":9999")
	t.Setenv("STRATA_SERVER_TIMEOUT", "2s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Cache.Backend != BackendNone || cfg.Server.Addr != ":9999" || cfg.Server.Timeout.Duration != 2*time.Second {
		t.Errorf("env overrides not applied: %+v", cfg)
	}

	t.Setenv("STRATA_SERVER_TIMEOUT", "later")
	if _, err := Load(""); !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("Load() error = %v, want INVALID_OPTION", err)
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_CACHE_HOME", "/cache")
	if p, _ := Path(); p != filepath.Join("/cfg", "strata", "config.toml") {
		t.Errorf("Path() = %q", p)
	}
	if d, _ := CacheDir(); d != filepath.Join("/cache", "strata") {
		t.Errorf("CacheDir() = %q", d)
	}

	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if d, _ := CacheDir(); d != filepath.Join(home, ".cache", "strata") {
		t.Errorf("CacheDir() = %q, want under %s/.cache", d, home)
	}
}

func TestLayoutOptions(t *testing.T) {
	l := LayoutConfig{Pipeline: "minimal", Rankdir: "BT", Ranksep: 10, Align: "UL", Timeout: Duration{time.Second}}
	want := pipeline.Options{Pipeline: "minimal", Rankdir: "BT", Ranksep: 10, Align: "UL", Timeout: time.Second}
	if diff := cmp.Diff(want, l.Options(), cmp.AllowUnexported(pipeline.Options{})); diff != "" {
		t.Errorf("Options() mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	c, err := CacheConfig{Backend: BackendNone}.Open(ctx)
	if err != nil {
		t.Fatalf("Open(none) error: %v", err)
	}
	if _, ok := c.(*cache.NullCache); !ok {
		t.Errorf("Open(none) = %T, want *cache.NullCache", c)
	}

	dir := t.TempDir()
	c, err = CacheConfig{Backend: BackendFile, Dir: dir, TTL: Duration{time.Hour}}.Open(ctx)
	if err != nil {
		t.Fatalf("Open(file) error: %v", err)
	}
	defer c.Close()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if data, hit, _ := c.Get(ctx, "k"); !hit || string(data) != "v" {
		t.Errorf("Get() = %q, %v, want v, true", data, hit)
	}

	if _, err := (CacheConfig{Backend: "tape"}).Open(ctx); !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("Open(tape) error = %v, want INVALID_OPTION", err)
	}
}

func TestKeyer(t *testing.T) {
	opts := cache.LayoutKeyOpts{Pipeline: "layered"}
	plain := cache.NewDefaultKeyer().LayoutKey("h", opts)

	if got := (CacheConfig{Backend: BackendMongo, Prefix: "p:"}).Keyer().LayoutKey("h", opts); got != "p:"+plain {
		t.Errorf("mongo Keyer().LayoutKey() = %q, want prefixed", got)
	}
	if got := (CacheConfig{Backend: BackendRedis, Prefix: "p:"}).Keyer().LayoutKey("h", opts); got != plain {
		t.Errorf("redis Keyer().LayoutKey() = %q, want unprefixed", got)
	}
}
