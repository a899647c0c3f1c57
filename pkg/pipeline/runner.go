package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
	flowio "github.com/matzehuels/flowmap/pkg/io"
	"github.com/matzehuels/flowmap/pkg/layout"
	"github.com/matzehuels/flowmap/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// The CLI and the preview server both use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
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

// Execute runs the complete load → build → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	loadStart := time.Now()
	ds, err := Load(opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	loadTime := time.Since(loadStart)

	res, err := r.ExecuteDataset(ctx, ds, opts)
	if err != nil {
		return nil, err
	}
	res.Stats.LoadTime = loadTime
	return res, nil
}

// ExecuteDataset runs the pipeline on records that are already loaded.
func (r *Runner) ExecuteDataset(ctx context.Context, ds flowio.Dataset, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Build
	buildStart := time.Now()
	g, rec := BuildGraph(ctx, ds, opts)
	result.Graph = g
	result.GraphHash = layout.GraphHash(g)
	result.Diagnostics = dropped(rec)
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Stats.DroppedNodes = rec.DroppedNodes()
	result.Stats.DroppedEdges = rec.DroppedEdges()

	r.Logger.Info("built graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"dropped_edges", rec.DroppedEdges(),
		"dropped_nodes", rec.DroppedNodes(),
		"duration", result.Stats.BuildTime)

	// Stage 2: Layout (full view only)
	renderKey := result.GraphHash
	if !opts.IsSimple() {
		layoutStart := time.Now()
		v, hit, err := r.ActivateWithCacheInfo(ctx, g, opts)
		if err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
		result.View = v
		result.Stats.Frames = v.Frames()
		result.Stats.LayoutTime = time.Since(layoutStart)
		result.CacheInfo.LayoutHit = hit
		renderKey = viewHash(v, opts)

		r.Logger.Info("computed layout",
			"frames", v.Frames(),
			"cached", hit,
			"duration", result.Stats.LayoutTime)
	} else {
		renderKey = cache.Hash(fmt.Appendf(nil, "%s:%t", renderKey, opts.Render.EdgeLabels))
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, renderKey, result, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"view", opts.Render.View,
		"formats", opts.Render.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the dataset named by opts.
func (r *Runner) Load(ctx context.Context, opts Options) (flowio.Dataset, error) {
	return Load(opts)
}

// Build normalizes and filters ds.
func (r *Runner) Build(ctx context.Context, ds flowio.Dataset, opts Options) (apps.FilteredGraph, *apps.Recorder) {
	r.applyLogger(&opts)
	return BuildGraph(ctx, ds, opts)
}

// ActivateWithCacheInfo activates and settles a full view, solving through
// the runner's cache, and reports whether the positions were cached.
func (r *Runner) ActivateWithCacheInfo(ctx context.Context, g apps.FilteredGraph, opts Options) (*forcegraph.View, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	var inner layout.Solver = layout.FDP{}
	if opts.Solver != nil {
		inner = opts.Solver
	}
	var store cache.Cache = r.Cache
	if opts.Refresh {
		store = cache.NewNullCache()
	}
	solver := layout.NewCached(inner, store, r.Keyer, opts.Logger)
	return ActivateFull(ctx, g, solver, opts)
}

// Activate is a convenience wrapper that calls ActivateWithCacheInfo and discards the cache hit info.
func (r *Runner) Activate(ctx context.Context, g apps.FilteredGraph, opts Options) (*forcegraph.View, error) {
	v, _, err := r.ActivateWithCacheInfo(ctx, g, opts)
	return v, err
}

// RenderWithCacheInfo generates the artifacts of res with caching and
// returns cache hit info. key identifies the rendered content: the settled
// view for the full view, the graph for the simple view.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, key string, res *Result, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	start := time.Now()
	report := func(cached bool, err error) {
		observability.Pipeline().OnRendered(ctx, observability.Render{
			View:     opts.Render.View,
			Formats:  opts.Render.Formats,
			Cached:   cached,
			Duration: time.Since(start),
		}, err)
	}

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Render.Formats {
			cacheKey := r.Keyer.ArtifactKey(key, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Render.Formats) {
			observability.Cache().OnCache(ctx, observability.CacheEvent{Kind: "artifact", Op: observability.CacheHit})
			report(true, nil)
			return artifacts, true, nil // All artifacts from cache
		}
		observability.Cache().OnCache(ctx, observability.CacheEvent{Kind: "artifact", Op: observability.CacheMiss})
	}

	var rendered map[string][]byte
	var err error
	if opts.IsSimple() {
		rendered, err = RenderSimple(res.Graph, opts)
	} else if res.View == nil {
		err = errors.New(errors.ErrCodeInternal, "full view rendered before activation")
	} else {
		rendered, err = RenderFull(res.View, opts)
	}
	report(false, err)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeRenderFailed, err, "%s view", opts.Render.View)
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(key, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.ArtifactTTL); err == nil {
			observability.Cache().OnCache(ctx, observability.CacheEvent{Kind: "artifact", Op: observability.CacheSet, Size: len(data)})
		}
	}

	return rendered, false, nil // Cache miss
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

// viewHash identifies a settled view's rendered content: positions, graph
// and the options that change drawing but not the cache key.
func viewHash(v *forcegraph.View, opts Options) string {
	data, _ := json.Marshal(struct {
		Graph     apps.FilteredGraph
		Positions map[apps.NodeID]forcegraph.Point
		Icons     string
		EmbedFont bool
	}{v.Graph, v.Positions(), opts.Render.IconDir, opts.Render.EmbedFont})
	return cache.Hash(data)
}
