package layout

import (
	"context"
	"math"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
)

const (
	// DefaultTicks is the number of frames until the simulation cools down.
	DefaultTicks = 300

	alphaMin = 0.001

	phyllotaxisRadius = 10.0
)

var phyllotaxisAngle = math.Pi * (3 - math.Sqrt(5))

// Simulation animates a solved layout as a cooling force simulation. It
// implements [forcegraph.Engine].
type Simulation struct {
	solver Solver
	params Params
	ticks  int
	cached bool

	nodes []*forcegraph.Node
	from  []forcegraph.Point
	to    []forcegraph.Point
	alpha float64
	decay float64
	tick  int
}

type cacheReporter interface {
	SolveWithCacheInfo(ctx context.Context, g apps.FilteredGraph, p Params) (Positions, bool, error)
}

// SimOption configures a [Simulation].
type SimOption func(*Simulation)

// WithTicks sets the number of frames until cool-down.
func WithTicks(n int) SimOption {
	return func(s *Simulation) {
		if n > 0 {
			s.ticks = n
		}
	}
}

// WithSeed sets the solver seed.
func WithSeed(seed int) SimOption {
	return func(s *Simulation) { s.params.Seed = seed }
}

// WithMaxIter sets the solver iteration budget.
func WithMaxIter(n int) SimOption {
	return func(s *Simulation) { s.params.MaxIter = n }
}

// NewSimulation creates an engine backed by solver.
func NewSimulation(solver Solver, opts ...SimOption) *Simulation {
	s := &Simulation{solver: solver, ticks: DefaultTicks}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulation) SetLinkDistance(d float64)   { s.params.LinkDistance = d }
func (s *Simulation) SetChargeStrength(c float64) { s.params.ChargeStrength = c }

// Params returns the parameters the next Start will solve with.
func (s *Simulation) Params() Params { return s.params.WithDefaults() }

// Start resolves links, solves the final layout and seeds the animation.
// Nodes stay unplaced until the first Tick.
func (s *Simulation) Start(ctx context.Context, nodes []*forcegraph.Node, links []*forcegraph.Link) error {
	forcegraph.ResolveLinks(nodes, links)

	g, p := graphOf(nodes, links), s.params.WithDefaults()
	var pos Positions
	var err error
	if cs, ok := s.solver.(cacheReporter); ok {
		pos, s.cached, err = cs.SolveWithCacheInfo(ctx, g, p)
	} else {
		s.cached = false
		pos, err = s.solver.Solve(ctx, g, p)
	}
	if err != nil {
		return err
	}

	s.nodes = nodes
	s.from = make([]forcegraph.Point, len(nodes))
	s.to = make([]forcegraph.Point, len(nodes))
	for i, n := range nodes {
		s.from[i] = phyllotaxis(i)
		if p, ok := pos[n.ID]; ok {
			s.to[i] = p
		} else {
			s.to[i] = s.from[i]
		}
	}
	s.alpha = 1
	s.tick = 0
	s.decay = 1 - math.Pow(alphaMin, 1/float64(s.ticks))
	return nil
}

// Tick cools the simulation one step and moves every node. It returns
// false once alpha drops below the minimum or the tick budget is spent,
// with nodes at their solved positions.
func (s *Simulation) Tick() bool {
	if len(s.nodes) == 0 {
		return false
	}
	s.tick++
	s.alpha -= s.alpha * s.decay
	running := s.alpha >= alphaMin && s.tick < s.ticks

	t := 1 - s.alpha
	for i, n := range s.nodes {
		a, b := s.from[i], s.to[i]
		if !running {
			n.Place(b.X, b.Y)
			continue
		}
		n.Place(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t)
	}
	return running
}

// LayoutCached reports whether the last Start took its solved positions
// from a cache.
func (s *Simulation) LayoutCached() bool { return s.cached }

// Alpha returns the current temperature, 1 at start.
func (s *Simulation) Alpha() float64 { return s.alpha }

func phyllotaxis(i int) forcegraph.Point {
	r := phyllotaxisRadius * math.Sqrt(0.5+float64(i))
	a := float64(i) * phyllotaxisAngle
	return forcegraph.Point{X: r * math.Cos(a), Y: r * math.Sin(a)}
}

func graphOf(nodes []*forcegraph.Node, links []*forcegraph.Link) apps.FilteredGraph {
	g := apps.FilteredGraph{
		Nodes: make([]apps.Node, len(nodes)),
		Edges: make([]apps.Edge, 0, len(links)),
	}
	for i, n := range nodes {
		g.Nodes[i] = n.Node
	}
	for _, l := range links {
		if l.Source == nil || l.Target == nil {
			continue
		}
		g.Edges = append(g.Edges, apps.Edge{Source: l.SourceID, Target: l.TargetID, Label: l.Label})
	}
	return g
}

var _ forcegraph.Engine = (*Simulation)(nil)
