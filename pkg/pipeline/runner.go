package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/strata/pkg/cache"
	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/observability"
)

// Runner encapsulates layout and render execution with caching.
// Both CLI and HTTP service use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
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
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// LayoutWithCacheInfo lays out doc and reports whether the result came from
// the cache. The cache key covers the canonical document and every option
// that changes the result.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, doc *io.Document, opts Options) (io.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return io.Result{}, false, err
	}

	canonical, err := doc.Canonical()
	if err != nil {
		return io.Result{}, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "encode document")
	}
	key := r.Keyer.LayoutKey(cache.ContentHash(canonical), opts.LayoutKeyOpts())
	hooks := observability.Cache()

	if !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.Logger.Warn("cache lookup failed", "key_type", cache.KeyTypeLayout, "error", err)
		}
		if hit {
			if res, err := io.UnmarshalResult(data); err == nil {
				hooks.OnCacheHit(ctx, cache.KeyTypeLayout)
				r.Logger.Debug("layout cache hit", "key", key)
				return res, true, nil
			}
			// Undecodable entries are recomputed and overwritten.
		}
		hooks.OnCacheMiss(ctx, cache.KeyTypeLayout)
	}

	g, err := doc.Build()
	if err != nil {
		return io.Result{}, false, err
	}
	start := time.Now()
	if err := Run(ctx, g, opts); err != nil {
		return io.Result{}, false, err
	}
	res := io.FromGraph(g)
	r.Logger.Debug("computed layout",
		"pipeline", opts.Pipeline,
		"nodes", len(res.Nodes),
		"edges", len(res.Edges),
		"duration", time.Since(start))

	if data, err := io.MarshalResult(res); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("cache store failed", "key_type", cache.KeyTypeLayout, "error", err)
		} else {
			hooks.OnCacheSet(ctx, cache.KeyTypeLayout, len(data))
		}
	}
	return res, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, doc *io.Document, opts Options) (io.Result, error) {
	res, _, err := r.LayoutWithCacheInfo(ctx, doc, opts)
	return res, err
}

// RenderWithCacheInfo renders a finished layout in the given format and
// reports whether the artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res io.Result, format string) ([]byte, bool, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, false, err
	}

	data, err := io.MarshalResult(res)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	key := r.Keyer.RenderKey(cache.ContentHash(data), cache.RenderKeyOpts{Format: format})
	hooks := observability.Cache()

	if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		hooks.OnCacheHit(ctx, cache.KeyTypeRender)
		return cached, true, nil
	}
	hooks.OnCacheMiss(ctx, cache.KeyTypeRender)

	out, err := Render(ctx, res, format)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, out, cache.TTLRender); err != nil {
		r.Logger.Warn("cache store failed", "key_type", cache.KeyTypeRender, "error", err)
	} else {
		hooks.OnCacheSet(ctx, cache.KeyTypeRender, len(out))
	}
	return out, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, res io.Result, format string) ([]byte, error) {
	out, _, err := r.RenderWithCacheInfo(ctx, res, format)
	return out, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
