package forcegraph

import (
	"context"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowmap/pkg/apps"
)

// View is one activation of the force-directed rendering.
type View struct {
	// ID identifies the activation, for logs and caches.
	ID    string
	Graph apps.FilteredGraph
	Nodes []*Node
	Links []*Link

	engine Engine
	frames int
	logger *log.Logger
}

// Option configures [Activate].
type Option func(*activateOptions)

type activateOptions struct {
	icons  IconSource
	logger *log.Logger
}

// WithIcons preloads node icons from src.
func WithIcons(src IconSource) Option {
	return func(o *activateOptions) { o.icons = src }
}

// WithLogger sets the logger for activation and frame diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *activateOptions) { o.logger = l }
}

// Activate builds fresh simulation elements for g, preloads their icons,
// applies cfg to the engine and starts it. Missing icons are not an error.
func Activate(ctx context.Context, g apps.FilteredGraph, engine Engine, cfg Config, opts ...Option) (*View, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	o := activateOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	nodes, links := Elements(g)
	if o.icons != nil {
		preloadIcons(nodes, o.icons, logger)
	}

	if err := Configure(engine, cfg); err != nil {
		return nil, err
	}
	if err := engine.Start(ctx, nodes, links); err != nil {
		return nil, err
	}

	v := &View{
		ID:     uuid.NewString(),
		Graph:  g,
		Nodes:  nodes,
		Links:  links,
		engine: engine,
		logger: logger,
	}
	logger.Debug("view activated", "view", v.ID, "nodes", len(nodes), "links", len(links),
		"link_distance", cfg.LinkDistance, "charge", cfg.ChargeStrength)
	return v, nil
}

func preloadIcons(nodes []*Node, src IconSource, logger *log.Logger) {
	cache := make(map[string]*Icon)
	for _, n := range nodes {
		ref := n.Icon
		if ref == "" {
			continue
		}
		icon, ok := cache[ref]
		if !ok {
			icon = src.Load(ref)
			cache[ref] = icon
			if icon == nil {
				logger.Warn("icon unavailable", "icon", ref)
			}
		}
		n.Image = icon
	}
}

// Tick advances the engine one frame and reports whether it is still running.
func (v *View) Tick() bool {
	v.frames++
	return v.engine.Tick()
}

// Frames returns the number of ticks so far.
func (v *View) Frames() int { return v.frames }

// DrawFrame paints the current state onto c: links first (default line and
// arrow, then the label), nodes on top. Node sizes use scale.
func (v *View) DrawFrame(c Canvas, scale float64) {
	for _, l := range v.Links {
		DrawDefaultLink(l, c, scale)
		DrawLink(l, c, scale)
	}
	for _, n := range v.Nodes {
		DrawNode(n, c, scale)
	}
}

// Run ticks the engine until it cools down, maxFrames ticks have run
// (0 means no limit) or ctx is done. onFrame, if set, is called after every
// tick; a non-nil error from it stops the loop and is returned.
func (v *View) Run(ctx context.Context, maxFrames int, onFrame func(frame int) error) error {
	for maxFrames <= 0 || v.frames < maxFrames {
		if err := ctx.Err(); err != nil {
			return err
		}
		running := v.Tick()
		if onFrame != nil {
			if err := onFrame(v.frames); err != nil {
				return err
			}
		}
		if !running {
			break
		}
	}
	v.logger.Debug("view settled", "view", v.ID, "frames", v.frames)
	return nil
}

// Positions returns the current position of every placed node.
func (v *View) Positions() map[apps.NodeID]Point {
	out := make(map[apps.NodeID]Point, len(v.Nodes))
	for _, n := range v.Nodes {
		if n.Placed() {
			out[n.ID] = n.Pos()
		}
	}
	return out
}

// =============================================================================
// Viewport
// =============================================================================

// Bounds is an axis-aligned box in graph coordinates.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether the box contains no point.
func (b Bounds) Empty() bool { return b.MinX > b.MaxX || b.MinY > b.MaxY }

// Bounds returns the box around every placed node. The result is empty when
// no node is placed.
func (v *View) Bounds() Bounds {
	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, n := range v.Nodes {
		if !n.Placed() {
			continue
		}
		b.MinX = math.Min(b.MinX, n.X)
		b.MinY = math.Min(b.MinY, n.Y)
		b.MaxX = math.Max(b.MaxX, n.X)
		b.MaxY = math.Max(b.MaxY, n.Y)
	}
	return b
}

// Transform maps graph coordinates onto a canvas: p' = (p - Center)*Zoom + Offset.
type Transform struct {
	Zoom    float64
	Center  Point
	OffsetX float64
	OffsetY float64
}

// Fit returns the transform that centers b in a width×height canvas with
// padding on every side. An empty or degenerate box gets zoom 1.
func Fit(b Bounds, width, height, padding float64) Transform {
	t := Transform{Zoom: 1, OffsetX: width / 2, OffsetY: height / 2}
	if b.Empty() {
		return t
	}
	t.Center = Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
	w, h := b.MaxX-b.MinX, b.MaxY-b.MinY
	availW, availH := width-2*padding, height-2*padding
	if w > 0 && h > 0 && availW > 0 && availH > 0 {
		t.Zoom = math.Min(availW/w, availH/h)
	} else if w > 0 && availW > 0 {
		t.Zoom = availW / w
	} else if h > 0 && availH > 0 {
		t.Zoom = availH / h
	}
	return t
}

// Apply sets t as the current transform of c.
func (t Transform) Apply(c Canvas) {
	c.Translate(t.OffsetX, t.OffsetY)
	c.Scale(t.Zoom)
	c.Translate(-t.Center.X, -t.Center.Y)
}
