package layout

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
)

// =============================================================================
// Parameters
// =============================================================================

const (
	pointsPerInch = 72.0

	// DefaultMaxIter is the fdp iteration budget.
	DefaultMaxIter = 600

	// DefaultSeed fixes the fdp start state so layouts are reproducible.
	DefaultSeed = 1

	// fdp's own default K, matched to a -30 charge (d3's default).
	baseK      = 0.3
	baseCharge = 30.0
)

// Positions maps node IDs to solved coordinates, centered on the origin.
type Positions map[apps.NodeID]forcegraph.Point

// Params tunes a solve.
type Params struct {
	LinkDistance   float64 `json:"link_distance"`
	ChargeStrength float64 `json:"charge_strength"`
	Seed           int     `json:"seed"`
	MaxIter        int     `json:"max_iter"`
}

// ParamsFrom converts force tuning into solver parameters.
func ParamsFrom(cfg forcegraph.Config) Params {
	return Params{
		LinkDistance:   cfg.LinkDistance,
		ChargeStrength: cfg.ChargeStrength,
	}.WithDefaults()
}

// WithDefaults fills zero fields.
func (p Params) WithDefaults() Params {
	if p.LinkDistance <= 0 {
		p.LinkDistance = forcegraph.DefaultLinkDistance
	}
	if p.ChargeStrength == 0 {
		p.ChargeStrength = forcegraph.DefaultChargeStrength
	}
	if p.Seed == 0 {
		p.Seed = DefaultSeed
	}
	if p.MaxIter <= 0 {
		p.MaxIter = DefaultMaxIter
	}
	return p
}

// K returns the fdp spring constant for the charge strength.
func (p Params) K() float64 {
	return baseK * math.Sqrt(math.Abs(p.ChargeStrength)/baseCharge)
}

// EdgeLen returns the fdp edge length in inches.
func (p Params) EdgeLen() float64 {
	return p.LinkDistance / pointsPerInch
}

// Solver computes positions for every node of g.
type Solver interface {
	Solve(ctx context.Context, g apps.FilteredGraph, p Params) (Positions, error)
}

// =============================================================================
// FDP
// =============================================================================

// FDP solves layouts with Graphviz fdp.
type FDP struct{}

// Solve lays out g. An empty graph yields empty positions.
func (FDP) Solve(ctx context.Context, g apps.FilteredGraph, p Params) (Positions, error) {
	if len(g.Nodes) == 0 {
		return Positions{}, nil
	}
	p = p.WithDefaults()

	plain, err := renderPlain(ctx, ToDOT(g, p))
	if err != nil {
		return nil, err
	}
	pos, err := parsePlain(plain)
	if err != nil {
		return nil, err
	}
	for _, n := range g.Nodes {
		if _, ok := pos[n.ID]; !ok {
			return nil, fmt.Errorf("fdp: node %q missing from layout", n.ID)
		}
	}
	return pos, nil
}

// ToDOT converts g into fdp input. Nodes are small fixed-size points so
// label sizes do not skew the spring lengths.
func ToDOT(g apps.FilteredGraph, p Params) string {
	p = p.WithDefaults()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=fdp;\n")
	fmt.Fprintf(&buf, "  K=%.4f;\n", p.K())
	fmt.Fprintf(&buf, "  maxiter=%d;\n", p.MaxIter)
	fmt.Fprintf(&buf, "  start=%d;\n", p.Seed)
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=point, width=0.14, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q;\n", string(n.ID))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [len=%.4f];\n", string(e.Source), string(e.Target), p.EdgeLen())
	}

	buf.WriteString("}\n")
	return buf.String()
}

func renderPlain(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.FDP)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.Format("plain"), &buf); err != nil {
		return nil, fmt.Errorf("fdp layout: %w", err)
	}
	return buf.Bytes(), nil
}
