// Package layout computes force-directed node positions with Graphviz.
//
// # Overview
//
// [FDP] solves a graph with Graphviz's fdp engine (a spring-electrical
// model) through [github.com/goccy/go-graphviz], so no system Graphviz is
// needed. The force tuning of [forcegraph.Config] maps onto fdp attributes:
//
//   - link distance becomes the per-edge len (pixels / 72 inches)
//   - charge strength scales the spring constant K
//
// [Simulation] wraps a [Solver] as a [forcegraph.Engine]. It solves once on
// Start and then animates nodes from a phyllotaxis seed arrangement towards
// the solved positions, cooling like a d3 simulation (about 300 ticks).
//
// [Cached] memoizes a solver in a [cache.Cache], keyed by graph content and
// parameters.
//
// [forcegraph.Config]: github.com/matzehuels/flowmap/pkg/forcegraph.Config
// [forcegraph.Engine]: github.com/matzehuels/flowmap/pkg/forcegraph.Engine
// [cache.Cache]: github.com/matzehuels/flowmap/pkg/cache.Cache
package layout
