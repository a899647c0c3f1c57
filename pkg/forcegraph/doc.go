// Package forcegraph drives a force-directed rendering of a filtered
// application graph.
//
// # Overview
//
// The physics engine is external: it implements [Engine], owns the frame
// loop, and moves [Node] positions on every tick. This package only tunes the
// engine once per activation ([Configure]) and supplies the per-element draw
// callbacks that paint each frame onto a [Canvas]:
//
//   - [DrawNode] replaces the default node rendering with a filled circle,
//     the node's icon and its name below.
//   - [DrawDefaultLink] paints the link line and directional arrow.
//   - [DrawLink] runs after the default link drawing and adds a rotated,
//     background-padded label offset from the line.
//
// The callbacks are pure read-and-draw functions. They never mutate the
// graph, never block and never perform I/O.
//
// # Lifecycle
//
// [Activate] builds the simulation elements from an [apps.FilteredGraph],
// preloads icons, configures the engine and starts it. The returned [View]
// is then ticked and drawn until the engine cools down or the caller stops:
//
//	v, err := forcegraph.Activate(ctx, g, engine, forcegraph.DefaultConfig())
//	err = v.Run(ctx, 0, func(frame int) error {
//	    v.DrawFrame(c, scale)
//	    return nil
//	})
//
// Activating again rebuilds every element from scratch; a View is never
// reused across activations.
//
// # Unresolved Positions
//
// Until the engine has ticked at least once a node has no position, and a
// link may not yet point at its endpoint nodes. Both are normal transient
// states: the callbacks simply skip the affected element for that frame.
package forcegraph
