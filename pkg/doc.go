// Package pkg holds the libraries behind flowmap, which draws an application
// landscape as a dependency graph.
//
// # Overview
//
// flowmap reads two record lists, applications and the data flows between
// them, and turns them into a graph whose nodes are applications and whose
// links are flows. Flows naming an unknown application are dropped, then
// applications no remaining flow references are dropped. The graph is drawn
// in one of two views:
//
//   - full: a force-directed drawing. A fresh simulation is activated for
//     every rendering and settled before the frame is painted.
//   - simple: a static Graphviz drawing whose nodes link to #node-<id>.
//
// # Architecture
//
//	application.json + flow.json      (or a spreadsheet via [sheet])
//	         ↓
//	    [io] package (decode records)
//	         ↓
//	    [apps] package (normalize names, build, filter)
//	         ↓
//	    [forcegraph] + [layout] (activate and settle the simulation)
//	         ↓
//	    [canvas] / [render/nodelink] (draw)
//	         ↓
//	    SVG/PNG/PDF/JSON/DOT output
//
// [pipeline] runs these stages with caching and is shared by the CLI and
// the preview server.
//
// # Quick Start
//
//	ds, _ := io.LoadDir("examples/data")
//	g := apps.Process(ds.Applications, ds.Flows, apps.BuildOptions{})
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	var opts pipeline.Options
//	opts.Dataset.Dir = "examples/data"
//	res, _ := runner.Execute(ctx, opts)
//	os.WriteFile("landscape.svg", res.Artifacts["svg"], 0o644)
//
// # Packages
//
// [apps] - Identity normalization, graph building and the reference filter.
// Dropped flows and applications are reported through [apps.Diagnostics].
//
// [forcegraph] - The render driver: simulation elements, the engine
// interface, and the node and link draw callbacks.
//
// [layout] - The engine behind the full view. Graphviz fdp computes the
// settled positions; [layout.Simulation] eases nodes toward them frame by
// frame.
//
// [canvas] - Raster (PNG) and SVG canvases the draw callbacks paint on.
//
// [render] - SVG to PNG/PDF conversion; [render/nodelink] draws the simple
// view.
//
// [assets] - Embedded architecture icons, rasterized and cached.
//
// [sheet] - Spreadsheet to keyed JSON conversion.
//
// [cache] - File, memory, null and Redis caches for layouts, artifacts and
// icons.
//
// [errors] - Coded errors and input validation.
//
// [observability] - Pipeline, cache and HTTP hooks with no-op defaults.
//
// [apps]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/apps
// [forcegraph]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/forcegraph
// [layout]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/layout
// [layout.Simulation]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/layout#Simulation
// [canvas]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/canvas
// [render]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/render/nodelink
// [assets]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/assets
// [sheet]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/sheet
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/observability
// [io]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/pipeline
// [apps.Diagnostics]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/apps#Diagnostics
package pkg
