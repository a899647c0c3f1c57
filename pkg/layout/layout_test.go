package layout

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
)

func sampleGraph() apps.FilteredGraph {
	return apps.FilteredGraph{
		Nodes: []apps.Node{
			{ID: "a1.0", Name: "A", Group: 1},
			{ID: "b2.0", Name: "B", Group: 1},
			{ID: "c", Name: "C", Group: 1},
		},
		Edges: []apps.Edge{
			{Source: "a1.0", Target: "b2.0", Label: "a => b"},
			{Source: "b2.0", Target: "c", Label: "b => c"},
		},
	}
}

// =============================================================================
// Parameters and DOT
// =============================================================================

func TestParamsFrom(t *testing.T) {
	p := ParamsFrom(forcegraph.DefaultConfig())
	if p.LinkDistance != 150 || p.ChargeStrength != -500 {
		t.Errorf("ParamsFrom = %+v", p)
	}
	if p.Seed != DefaultSeed || p.MaxIter != DefaultMaxIter {
		t.Errorf("defaults not applied: %+v", p)
	}
	if got := (Params{ChargeStrength: -30}).K(); math.Abs(got-baseK) > 1e-9 {
		t.Errorf("K(-30) = %v, want %v", got, baseK)
	}
	if got := (Params{LinkDistance: 144}).EdgeLen(); got != 2 {
		t.Errorf("EdgeLen(144) = %v, want 2", got)
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleGraph(), Params{LinkDistance: 72, ChargeStrength: -30, Seed: 7, MaxIter: 50})

	for _, want := range []string{
		"layout=fdp;",
		"K=0.3000;",
		"maxiter=50;",
		"start=7;",
		`"a1.0";`,
		`"a1.0" -> "b2.0" [len=1.0000];`,
		`"b2.0" -> "c" [len=1.0000];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT missing %q in:\n%s", want, dot)
		}
	}
}

// =============================================================================
// Plain Output
// =============================================================================

func TestParsePlain(t *testing.T) {
	plain := `graph 1 2 2
node "a1.0" 0 0 0.14 0.14 "" solid point black lightgrey
node b 2 1 0.14 0.14 "" solid point black lightgrey
edge "a1.0" b 4 0 0 1 1 1 1 2 1 solid black
stop
`
	pos, err := parsePlain([]byte(plain))
	if err != nil {
		t.Fatalf("parsePlain error: %v", err)
	}
	if len(pos) != 2 {
		t.Fatalf("positions = %d, want 2", len(pos))
	}
	// (0,0) and (144,-72) centered on (72,-36).
	if got := pos["a1.0"]; got != (forcegraph.Point{X: -72, Y: 36}) {
		t.Errorf("a1.0 = %+v, want (-72, 36)", got)
	}
	if got := pos["b"]; got != (forcegraph.Point{X: 72, Y: -36}) {
		t.Errorf("b = %+v, want (72, -36)", got)
	}
}

func TestParsePlainErrors(t *testing.T) {
	tests := []string{
		"node a x 0 1 1\n",
		"node a 0\n",
		"node \"a 0 0\n",
	}
	for _, in := range tests {
		if _, err := parsePlain([]byte(in)); err == nil {
			t.Errorf("parsePlain(%q) should fail", in)
		}
	}
}

func TestSplitPlain(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`node a 1 2`, []string{"node", "a", "1", "2"}},
		{`node "app a" 1 2`, []string{"node", "app a", "1", "2"}},
		{`node "say \"hi\"" 1`, []string{"node", `say "hi"`, "1"}},
		{`node "" 1`, []string{"node", "", "1"}},
		{``, nil},
	}
	for _, tt := range tests {
		got, err := splitPlain(tt.in)
		if err != nil {
			t.Errorf("splitPlain(%q) error: %v", tt.in, err)
			continue
		}
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("splitPlain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// FDP
// =============================================================================

func TestFDPSolve(t *testing.T) {
	ctx := context.Background()
	g := sampleGraph()
	p := ParamsFrom(forcegraph.DefaultConfig())

	pos, err := FDP{}.Solve(ctx, g, p)
	if err != nil {
		t.Fatalf("Solve error: %v", err)
	}
	if len(pos) != len(g.Nodes) {
		t.Fatalf("positions = %d, want %d", len(pos), len(g.Nodes))
	}
	for id, pt := range pos {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
			t.Errorf("%s has non-finite position %+v", id, pt)
		}
	}

	again, err := FDP{}.Solve(ctx, g, p)
	if err != nil {
		t.Fatal(err)
	}
	for id := range pos {
		if pos[id] != again[id] {
			t.Errorf("%s: %+v then %+v, want deterministic", id, pos[id], again[id])
		}
	}
}

func TestFDPSolveEmpty(t *testing.T) {
	pos, err := FDP{}.Solve(context.Background(), apps.FilteredGraph{}, Params{})
	if err != nil || len(pos) != 0 {
		t.Errorf("Solve(empty) = %v, %v; want empty, nil", pos, err)
	}
}

// =============================================================================
// Simulation
// =============================================================================

type fixedSolver struct {
	pos   Positions
	err   error
	calls int
	last  Params
}

func (s *fixedSolver) Solve(_ context.Context, g apps.FilteredGraph, p Params) (Positions, error) {
	s.calls++
	s.last = p
	return s.pos, s.err
}

func TestSimulationConverges(t *testing.T) {
	solver := &fixedSolver{pos: Positions{
		"a1.0": {X: -100, Y: 0},
		"b2.0": {X: 100, Y: 0},
	}}
	sim := NewSimulation(solver, WithTicks(50))

	v, err := forcegraph.Activate(context.Background(), sampleGraph(), sim, forcegraph.Config{LinkDistance: 80, ChargeStrength: -200})
	if err != nil {
		t.Fatalf("Activate error: %v", err)
	}
	if solver.last.LinkDistance != 80 || solver.last.ChargeStrength != -200 {
		t.Errorf("solver params = %+v, want configured tuning", solver.last)
	}
	if v.Nodes[0].Placed() {
		t.Error("node placed before first tick")
	}
	for _, l := range v.Links {
		if l.Source == nil || l.Target == nil {
			t.Errorf("link %s -> %s not resolved on start", l.SourceID, l.TargetID)
		}
	}

	if err := v.Run(context.Background(), 0, nil); err != nil {
		t.Fatal(err)
	}
	if v.Frames() < 45 || v.Frames() > 55 {
		t.Errorf("frames = %d, want about 50", v.Frames())
	}
	if got := v.Nodes[0].Pos(); got != (forcegraph.Point{X: -100, Y: 0}) {
		t.Errorf("a1.0 settled at %+v, want (-100, 0)", got)
	}
	// "c" is missing from the solve and stays at its seed position.
	if got := v.Nodes[2].Pos(); got != phyllotaxis(2) {
		t.Errorf("c settled at %+v, want seed %+v", got, phyllotaxis(2))
	}
	if sim.Alpha() >= 1 {
		t.Errorf("alpha = %v after cool-down, want below 1", sim.Alpha())
	}
	if sim.Tick() {
		t.Error("Tick after cool-down should report stopped")
	}
}

func TestSimulationErrors(t *testing.T) {
	boom := errors.New("boom")
	sim := NewSimulation(&fixedSolver{err: boom})
	_, err := forcegraph.Activate(context.Background(), sampleGraph(), sim, forcegraph.DefaultConfig())
	if !errors.Is(err, boom) {
		t.Errorf("Activate error = %v, want boom", err)
	}

	empty := NewSimulation(&fixedSolver{})
	if empty.Tick() {
		t.Error("Tick without nodes should report stopped")
	}
}

// =============================================================================
// Cached
// =============================================================================

func TestCachedSolver(t *testing.T) {
	ctx := context.Background()
	inner := &fixedSolver{pos: Positions{"a1.0": {X: 1, Y: 2}}}
	mem := cache.NewMemoryCache()
	c := NewCached(inner, mem, nil, nil)
	p := ParamsFrom(forcegraph.DefaultConfig())

	first, err := c.Solve(ctx, sampleGraph(), p)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Solve(ctx, sampleGraph(), p)
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if second["a1.0"] != first["a1.0"] {
		t.Errorf("cached = %+v, want %+v", second, first)
	}

	p.ChargeStrength = -100
	if _, err := c.Solve(ctx, sampleGraph(), p); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d after param change, want 2", inner.calls)
	}
	if mem.Len() != 2 {
		t.Errorf("cache entries = %d, want 2", mem.Len())
	}
}

func TestCachedSolverReportsHit(t *testing.T) {
	ctx := context.Background()
	c := NewCached(&fixedSolver{pos: Positions{}}, cache.NewMemoryCache(), nil, nil)
	p := ParamsFrom(forcegraph.DefaultConfig())

	if _, hit, _ := c.SolveWithCacheInfo(ctx, sampleGraph(), p); hit {
		t.Error("first solve reported a cache hit")
	}
	if _, hit, _ := c.SolveWithCacheInfo(ctx, sampleGraph(), p); !hit {
		t.Error("second solve reported a cache miss")
	}
}

func TestSimulationReportsLayoutCached(t *testing.T) {
	ctx := context.Background()
	inner := &fixedSolver{pos: Positions{"a1.0": {X: 1, Y: 2}}}
	c := NewCached(inner, cache.NewMemoryCache(), nil, nil)

	for i, want := range []bool{false, true} {
		sim := NewSimulation(c, WithTicks(5))
		if _, err := forcegraph.Activate(ctx, sampleGraph(), sim, forcegraph.DefaultConfig()); err != nil {
			t.Fatal(err)
		}
		if got := sim.LayoutCached(); got != want {
			t.Errorf("activation %d LayoutCached() = %v, want %v", i, got, want)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}

	sim := NewSimulation(c, WithTicks(5))
	if _, err := forcegraph.Activate(ctx, sampleGraph(), sim, forcegraph.Config{LinkDistance: 900, ChargeStrength: -5}); err != nil {
		t.Fatal(err)
	}
	if sim.LayoutCached() || inner.calls != 2 {
		t.Errorf("retuned activation cached = %v, inner calls = %d; want a fresh solve", sim.LayoutCached(), inner.calls)
	}
}

func TestStaticSolver(t *testing.T) {
	s := Static{"a1.0": {X: 3, Y: 4}, "zzz": {X: 9, Y: 9}}
	pos, err := s.Solve(context.Background(), sampleGraph(), Params{})
	if err != nil {
		t.Fatal(err)
	}
	if len(pos) != 1 || pos["a1.0"] != (forcegraph.Point{X: 3, Y: 4}) {
		t.Errorf("Solve() = %v, want only a1.0", pos)
	}
}

func TestGraphHash(t *testing.T) {
	a, b := sampleGraph(), sampleGraph()
	if GraphHash(a) != GraphHash(b) {
		t.Error("GraphHash should be deterministic")
	}
	b.Edges = b.Edges[:1]
	if GraphHash(a) == GraphHash(b) {
		t.Error("GraphHash should change with edges")
	}
}
