// Package pipeline provides the load → build → layout → render pipeline for
// flowmap.
//
// The CLI, the terminal explorer and the preview server all run graphs
// through this package, so every entry point filters, lays out and renders
// the same way.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Read the application and flow datasets
//  2. Build: Normalize identities and filter dangling references
//  3. Layout: Solve and animate the force simulation (full view only)
//  4. Render: Generate output in various formats (SVG, PNG, PDF, JSON, DOT)
//
// Each stage can be run on its own or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Dataset.Dir = "data"
//	opts.Render.Formats = []string{"svg", "png"}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	ds, err := runner.Load(ctx, opts)
//	g, rec := runner.Build(ctx, ds, opts)
//	view, hit, err := runner.Activate(ctx, g, opts)
//	artifacts, err := runner.RenderFull(ctx, view, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
	"github.com/matzehuels/flowmap/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default artifact width in pixels.
	DefaultWidth = 1200

	// DefaultHeight is the default artifact height in pixels.
	DefaultHeight = 800

	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 2.0

	// DefaultView is the view rendered when none is named.
	DefaultView = ViewFull

	// DefaultCacheBackend is the cache used when none is configured.
	DefaultCacheBackend = CacheFile

	// DefaultAddr is the preview server listen address.
	DefaultAddr = "127.0.0.1:8080"
)

// Views.
const (
	ViewFull   = "full"
	ViewSimple = "simple"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline. It is decoded from
// the TOML config file (see [LoadConfig]); each section maps to one struct.
type Options struct {
	Dataset    DatasetOptions    `toml:"dataset" json:"dataset"`
	Simulation SimulationOptions `toml:"simulation" json:"simulation"`
	Render     RenderOptions     `toml:"render" json:"render"`
	Cache      CacheOptions      `toml:"cache" json:"cache"`
	Server     ServerOptions     `toml:"server" json:"server"`

	// Runtime options (not serialized)
	Logger      *log.Logger            `toml:"-" json:"-"`
	Diagnostics apps.Diagnostics       `toml:"-" json:"-"`
	Icons       forcegraph.IconSource  `toml:"-" json:"-"`
	OnFrame     func(frame, total int) `toml:"-" json:"-"`
	Solver      layout.Solver          `toml:"-" json:"-"`
	Refresh     bool                   `toml:"-" json:"-"` // bypass caches

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// DatasetOptions locates the input records.
type DatasetOptions struct {
	// Dir holds application.json and flow.json.
	Dir string `toml:"dir" json:"dir,omitempty"`
	// Applications and Flows override the file paths inside Dir.
	Applications string `toml:"applications" json:"applications,omitempty"`
	Flows        string `toml:"flows" json:"flows,omitempty"`
	// Group is the group tag for applications without one.
	Group int `toml:"default_group" json:"default_group,omitempty"`
	// EdgeLabel replaces generated "<source> => <target>" labels.
	EdgeLabel string `toml:"edge_label" json:"edge_label,omitempty"`
}

// SimulationOptions tunes the force simulation.
type SimulationOptions struct {
	LinkDistance   float64 `toml:"link_distance" json:"link_distance,omitempty"`
	ChargeStrength float64 `toml:"charge_strength" json:"charge_strength,omitempty"`
	Seed           int     `toml:"seed" json:"seed,omitempty"`
	MaxIter        int     `toml:"max_iter" json:"max_iter,omitempty"`
	// Ticks is the number of frames until the simulation cools down.
	Ticks int `toml:"ticks" json:"ticks,omitempty"`
}

// RenderOptions selects and sizes the output.
type RenderOptions struct {
	View       string   `toml:"view" json:"view,omitempty"`
	Formats    []string `toml:"formats" json:"formats,omitempty"`
	Width      int      `toml:"width" json:"width,omitempty"`
	Height     int      `toml:"height" json:"height,omitempty"`
	Scale      float64  `toml:"scale" json:"scale,omitempty"`
	IconDir    string   `toml:"icons" json:"icons,omitempty"`
	EdgeLabels bool     `toml:"edge_labels" json:"edge_labels,omitempty"`
	EmbedFont  bool     `toml:"embed_font" json:"embed_font,omitempty"`
}

// CacheOptions selects the cache backend.
type CacheOptions struct {
	Backend  string `toml:"backend" json:"backend,omitempty"`
	Dir      string `toml:"dir" json:"dir,omitempty"`
	RedisURL string `toml:"redis_url" json:"redis_url,omitempty"`
	Prefix   string `toml:"prefix" json:"prefix,omitempty"`
}

// ServerOptions configures the preview server.
type ServerOptions struct {
	Addr      string `toml:"addr" json:"addr,omitempty"`
	Metrics   bool   `toml:"metrics" json:"metrics,omitempty"`
	MaxUpload int64  `toml:"max_upload" json:"max_upload,omitempty"` // bytes
}

// DefaultOptions returns options with every default applied.
func DefaultOptions() Options {
	var o Options
	o.setDefaults()
	return o
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the filtered application graph.
	Graph apps.FilteredGraph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// View is the settled full-view activation. Nil for the simple view.
	View *forcegraph.View

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Diagnostics holds the dropped-element events of the build.
	Diagnostics []apps.Event

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	DroppedNodes int
	DroppedEdges int
	Frames       int
	LoadTime     time.Duration
	BuildTime    time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether positions came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and fills in defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.setDefaults()

	if err := errors.ValidateView(o.Render.View); err != nil {
		return err
	}
	for _, f := range o.Render.Formats {
		if err := errors.ValidateFormat(o.Render.View, f); err != nil {
			return err
		}
	}
	if err := errors.ValidateDimensions(o.Render.Width, o.Render.Height); err != nil {
		return err
	}
	if o.Render.Scale <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "render scale must be positive, got %v", o.Render.Scale)
	}
	if err := o.ForceConfig().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "simulation")
	}
	switch o.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if o.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis needs redis_url")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (want file, redis or none)", o.Cache.Backend)
	}

	o.validated = true
	return nil
}

func (o *Options) setDefaults() {
	if o.Render.View == "" {
		o.Render.View = DefaultView
	}
	if len(o.Render.Formats) == 0 {
		o.Render.Formats = []string{FormatSVG}
	}
	if o.Render.Width == 0 {
		o.Render.Width = DefaultWidth
	}
	if o.Render.Height == 0 {
		o.Render.Height = DefaultHeight
	}
	if o.Render.Scale == 0 {
		o.Render.Scale = DefaultScale
	}
	if o.Simulation.LinkDistance == 0 {
		o.Simulation.LinkDistance = forcegraph.DefaultLinkDistance
	}
	if o.Simulation.ChargeStrength == 0 {
		o.Simulation.ChargeStrength = forcegraph.DefaultChargeStrength
	}
	if o.Simulation.Seed == 0 {
		o.Simulation.Seed = layout.DefaultSeed
	}
	if o.Simulation.MaxIter == 0 {
		o.Simulation.MaxIter = layout.DefaultMaxIter
	}
	if o.Simulation.Ticks == 0 {
		o.Simulation.Ticks = layout.DefaultTicks
	}
	if o.Cache.Backend == "" {
		o.Cache.Backend = DefaultCacheBackend
	}
	if o.Server.Addr == "" {
		o.Server.Addr = DefaultAddr
	}
	if o.Server.MaxUpload == 0 {
		o.Server.MaxUpload = 10 << 20
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// IsSimple reports whether the simple view is selected.
func (o *Options) IsSimple() bool { return o.Render.View == ViewSimple }

// ForceConfig returns the force tuning for the render driver.
func (o *Options) ForceConfig() forcegraph.Config {
	return forcegraph.Config{
		LinkDistance:   o.Simulation.LinkDistance,
		ChargeStrength: o.Simulation.ChargeStrength,
	}
}

// LayoutParams returns the solver parameters.
func (o *Options) LayoutParams() layout.Params {
	return layout.Params{
		LinkDistance:   o.Simulation.LinkDistance,
		ChargeStrength: o.Simulation.ChargeStrength,
		Seed:           o.Simulation.Seed,
		MaxIter:        o.Simulation.MaxIter,
	}.WithDefaults()
}

// BuildOptions returns the graph builder options.
func (o *Options) BuildOptions() apps.BuildOptions {
	return apps.BuildOptions{
		Group:       o.Dataset.Group,
		EdgeLabel:   o.Dataset.EdgeLabel,
		Diagnostics: o.Diagnostics,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		View:   o.Render.View,
		Format: format,
		Width:  o.Render.Width,
		Height: o.Render.Height,
		Scale:  o.Render.Scale,
	}
}
