package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reconlayout/pkg/cache"
	rio "github.com/matzehuels/reconlayout/pkg/io"
	"github.com/matzehuels/reconlayout/pkg/layout"
	"github.com/matzehuels/reconlayout/pkg/observability"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner may serve concurrent runs on distinct scenarios.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means [cache.DefaultKeyer], and a nil logger means [log.Default].
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
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute lays out s and renders the requested formats.
func (r *Runner) Execute(ctx context.Context, s *rio.Scenario, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	raw, err := rio.MarshalScenario(s)
	if err != nil {
		return nil, fmt.Errorf("encode scenario: %w", err)
	}
	result := &Result{
		Scenario:     s,
		ScenarioHash: cache.Hash(raw),
	}
	result.Stats.HostNodes = s.Host.Len()
	result.Stats.GuestNodes = s.Guest.Len()

	layoutStart := time.Now()
	summary, full, hit, err := r.LayoutWithCacheInfo(ctx, s, result.ScenarioHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Summary = summary
	result.Layout = full
	result.CacheInfo.LayoutHit = hit
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Levels = len(summary.Levels)
	result.Stats.Rotated = len(summary.Rotated)
	result.Stats.RegCount = summary.RegCount
	result.Stats.OptCount = summary.OptCount

	r.Logger.Info("computed layout",
		"levels", result.Stats.Levels,
		"rotated", result.Stats.Rotated,
		"crossings", summary.OptCount,
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, s, result.ScenarioHash, summary, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo lays out s, or re-applies a cached result onto its
// trees. scenarioHash must be the hash of the canonical encoding of s. The
// full result is nil on a cache hit.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, s *rio.Scenario, scenarioHash string, opts Options) (rio.ResultFile, *layout.Result, bool, error) {
	r.applyLogger(&opts)
	opts.SetRenderDefaults()
	hooks := observability.Cache()
	key := r.Keyer.LayoutKey(scenarioHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			summary, err := rio.UnmarshalResult(data)
			if err == nil {
				err = rio.ApplyResult(summary, s)
			}
			if err == nil {
				hooks.OnCacheHit(ctx, "layout")
				return summary, nil, true, nil
			}
			r.Logger.Warn("discarding cached layout", "err", err)
		} else if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
	}
	hooks.OnCacheMiss(ctx, "layout")

	full, summary, err := RunLayout(ctx, s, opts)
	if err != nil {
		return rio.ResultFile{}, nil, false, err
	}
	if data, err := rio.MarshalResult(summary); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return summary, full, false, nil
}

// RenderWithCacheInfo renders the requested formats, serving each from the
// cache when every one of them is cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *rio.Scenario, scenarioHash string, summary rio.ResultFile, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	hooks := observability.Cache()

	data, err := rio.MarshalResult(summary)
	if err != nil {
		return nil, false, fmt.Errorf("serialize result for cache key: %w", err)
	}
	resultHash := cache.Hash([]byte(scenarioHash + cache.Hash(data)))

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(resultHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			hooks.OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
	}
	hooks.OnCacheMiss(ctx, "artifact")

	rendered, err := Render(ctx, s, summary, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(resultHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
			continue
		}
		hooks.OnCacheSet(ctx, "artifact", len(data))
	}
	return rendered, false, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
