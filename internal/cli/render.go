package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/apps"
	flowio "github.com/matzehuels/flowmap/pkg/io"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// =============================================================================
// render / simple
// =============================================================================

// renderCommand creates the render command for the full or simple view.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      runFlags
		view       string
		formatsStr string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "render [dataset-dir]",
		Short: "Render the application graph to SVG, PNG, PDF, JSON or DOT",
		Long: `Render the application graph.

The full view (default) runs the force simulation until it cools down and
draws the settled frame: a circle and icon per application, an arrow per
flow and the flow label along the link. The simple view is a static
graphviz drawing whose nodes link to #node-<id> anchors.

Layouts and artifacts are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.dataset = datasetArg(args)
			opts, err := c.loadOptions(cmd, &flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("view") {
				opts.Render.View = view
			}
			if cmd.Flags().Changed("format") || len(opts.Render.Formats) == 0 {
				opts.Render.Formats = parseFormats(formatsStr)
			}
			return c.runRender(cmd.Context(), opts, output)
		},
	}

	cmd.Flags().StringVar(&view, "view", pipeline.DefaultView, "view: full, simple")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, json (full), dot (simple)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	flags.addDataset(cmd.Flags())
	flags.addSimulation(cmd.Flags())
	flags.addRender(cmd.Flags())
	flags.addCache(cmd.Flags())
	completeRenderFlags(cmd, "")

	return cmd
}

// simpleCommand is a shortcut for "render --view simple".
func (c *CLI) simpleCommand() *cobra.Command {
	var (
		flags      runFlags
		formatsStr string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "simple [dataset-dir]",
		Short: "Render the clickable simple view",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.dataset = datasetArg(args)
			opts, err := c.loadOptions(cmd, &flags)
			if err != nil {
				return err
			}
			opts.Render.View = pipeline.ViewSimple
			if cmd.Flags().Changed("format") || len(opts.Render.Formats) == 0 {
				opts.Render.Formats = parseFormats(formatsStr)
			}
			return c.runRender(cmd.Context(), opts, output)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	flags.addDataset(cmd.Flags())
	flags.addRender(cmd.Flags())
	flags.addCache(cmd.Flags())
	completeRenderFlags(cmd, pipeline.ViewSimple)

	return cmd
}

// runRender executes the pipeline and writes every artifact.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if !opts.IsSimple() {
		attachIcons(&opts, runner)
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s view...", opts.Render.View))
	opts.OnFrame = func(frame, total int) {
		spinner.SetMessage(fmt.Sprintf("Settling layout %d/%d", frame, total))
	}
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Rendered %s view", opts.Render.View))

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Render.Formats,
		base:      defaultBase(opts),
		output:    output,
	})
	if err != nil {
		return err
	}

	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)
	printDropped(result.Stats.DroppedEdges, result.Stats.DroppedNodes)
	return nil
}

// =============================================================================
// graph
// =============================================================================

// graphCommand writes the filtered graph as force-graph JSON.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		flags       runFlags
		output      string
		diagnostics bool
	)

	cmd := &cobra.Command{
		Use:   "graph [dataset-dir]",
		Short: "Build and filter the graph and write it as JSON",
		Long: `Build and filter the graph and write it as JSON.

The output has the {"nodes": [...], "links": [...]} shape every renderer
consumes. Flows whose source or target is not a known application are
dropped, then applications no flow references are dropped. Use
--diagnostics to list what was dropped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.dataset = datasetArg(args)
			opts, err := c.loadOptions(cmd, &flags)
			if err != nil {
				return err
			}
			return c.runGraph(cmd.Context(), opts, output, diagnostics)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "list dropped flows and applications")
	flags.addDataset(cmd.Flags())

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, opts pipeline.Options, output string, diagnostics bool) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	sw := startStopwatch(c.Logger)
	runner := pipeline.NewRunner(nil, nil, c.Logger)

	ds, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	g, rec := runner.Build(ctx, ds, opts)
	sw.lap("built graph", "applications", g.NodeCount(), "flows", g.EdgeCount())

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := flowio.WriteGraph(out, g); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}

	if output != "" {
		printSuccess("Graph written")
		printFile(output)
		printStats(g.NodeCount(), g.EdgeCount(), false)
	}
	if diagnostics {
		for _, ev := range rec.Of(apps.EventEdgeDropped) {
			printWarning("dropped flow %s -> %s (%s)", ev.Edge.Source, ev.Edge.Target, ev.Detail)
		}
		for _, ev := range rec.Of(apps.EventNodeDropped) {
			printWarning("dropped application %s (%s)", ev.Node.ID, ev.Detail)
		}
	}
	return nil
}

// =============================================================================
// Artifact Output
// =============================================================================

type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	base      string // used when output is empty
	output    string
}

// writeArtifacts writes each artifact to disk and returns the paths in
// format order. A single format is written to output verbatim; several
// formats share output as a base path with the format as extension.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	base := basePath(p.output, p.base)
	var paths []string
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if len(p.formats) == 1 && p.output != "" {
			path = p.output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// basePath strips a known format extension from output. An empty output
// yields fallback.
func basePath(output, fallback string) string {
	if output == "" {
		return fallback
	}
	ext := filepath.Ext(output)
	switch strings.TrimPrefix(ext, ".") {
	case pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatPDF, pipeline.FormatJSON, pipeline.FormatDOT:
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// defaultBase names output after the dataset directory and view, e.g.
// "data-full".
func defaultBase(opts pipeline.Options) string {
	name := filepath.Base(opts.Dataset.Dir)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = appName
	}
	return name + "-" + opts.Render.View
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens path for writing, or stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
