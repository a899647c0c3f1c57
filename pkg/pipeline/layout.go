package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
	"github.com/matzehuels/flowmap/pkg/layout"
	"github.com/matzehuels/flowmap/pkg/observability"
)

// =============================================================================
// Full View Activation
// =============================================================================

// ActivateFull activates a fresh view of g and runs it until the simulation
// cools down. The simulation solves through solver when it starts, using the
// force tuning the view configured, and animates toward the result.
//
// Every call builds new view elements, so activating again never reuses
// positions from an earlier view.
func ActivateFull(ctx context.Context, g apps.FilteredGraph, solver *layout.Cached, opts Options) (*forcegraph.View, bool, error) {
	start := time.Now()
	v, hit, err := activateFull(ctx, g, solver, opts)

	act := observability.Activation{
		Nodes:        g.NodeCount(),
		Links:        g.EdgeCount(),
		LayoutCached: hit,
		Duration:     time.Since(start),
	}
	if v != nil {
		act.ID, act.Frames = v.ID, v.Frames()
	}
	observability.Pipeline().OnViewSettled(ctx, act, err)
	return v, hit, err
}

func activateFull(ctx context.Context, g apps.FilteredGraph, solver *layout.Cached, opts Options) (*forcegraph.View, bool, error) {
	params := opts.LayoutParams()
	sim := layout.NewSimulation(solver,
		layout.WithTicks(opts.Simulation.Ticks),
		layout.WithSeed(params.Seed),
		layout.WithMaxIter(params.MaxIter),
	)

	activateOpts := []forcegraph.Option{forcegraph.WithLogger(opts.Logger)}
	if opts.Icons != nil {
		activateOpts = append(activateOpts, forcegraph.WithIcons(opts.Icons))
	}
	v, err := forcegraph.Activate(ctx, g, sim, opts.ForceConfig(), activateOpts...)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeLayoutFailed, err, "solve %d nodes", g.NodeCount())
	}
	hit := sim.LayoutCached()

	total := opts.Simulation.Ticks
	err = v.Run(ctx, total, func(frame int) error {
		if opts.OnFrame != nil {
			opts.OnFrame(frame, total)
		}
		return nil
	})
	if err != nil {
		return nil, hit, errors.Wrap(errors.ErrCodeTimeout, err, "simulation stopped at frame %d", v.Frames())
	}
	return v, hit, nil
}
