package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/matzehuels/flowmap/pkg/apps"
	flowio "github.com/matzehuels/flowmap/pkg/io"
	"github.com/matzehuels/flowmap/pkg/observability"
)

// Load reads the dataset named by opts.Dataset. Explicit file paths win over
// the file names inside Dir.
func Load(opts Options) (flowio.Dataset, error) {
	d := opts.Dataset
	appsPath, flowsPath := d.Applications, d.Flows
	if appsPath == "" {
		appsPath = filepath.Join(d.Dir, flowio.ApplicationsFile)
	}
	if flowsPath == "" {
		flowsPath = filepath.Join(d.Dir, flowio.FlowsFile)
	}
	return flowio.ImportDataset(appsPath, flowsPath)
}

// BuildGraph normalizes and filters ds. Dropped elements are recorded in the
// returned recorder and forwarded to opts.Diagnostics.
func BuildGraph(ctx context.Context, ds flowio.Dataset, opts Options) (apps.FilteredGraph, *apps.Recorder) {
	start := time.Now()
	rec := &apps.Recorder{}

	bo := opts.BuildOptions()
	bo.Diagnostics = apps.Tee(rec, opts.Diagnostics, apps.NewLogDiagnostics(opts.Logger))
	g := apps.Process(ds.Applications, ds.Flows, bo)

	observability.Pipeline().OnGraphBuilt(ctx, observability.GraphStats{
		Nodes:        g.NodeCount(),
		Edges:        g.EdgeCount(),
		DroppedNodes: rec.DroppedNodes(),
		DroppedEdges: rec.DroppedEdges(),
	}, time.Since(start))
	return g, rec
}

// dropped returns the events that removed an element.
func dropped(rec *apps.Recorder) []apps.Event {
	return append(rec.Of(apps.EventEdgeDropped), rec.Of(apps.EventNodeDropped)...)
}
