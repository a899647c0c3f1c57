package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/flowmap/pkg/assets"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// =============================================================================
// Shared Flags
// =============================================================================

// runFlags holds the flags shared by the commands that run the pipeline.
// Only flags the user set override the config file.
type runFlags struct {
	dataset      string
	applications string
	flows        string
	group        int
	edgeLabel    string

	linkDistance   float64
	chargeStrength float64
	seed           int
	ticks          int

	width      int
	height     int
	scale      float64
	icons      string
	edgeLabels bool
	embedFont  bool

	cache   string
	noCache bool
	refresh bool
}

func (f *runFlags) addDataset(fs *pflag.FlagSet) {
	fs.StringVar(&f.applications, "applications", "", "application records (default: <dir>/application.json)")
	fs.StringVar(&f.flows, "flows", "", "flow records (default: <dir>/flow.json)")
	fs.IntVar(&f.group, "group", 0, "group tag for applications without one")
	fs.StringVar(&f.edgeLabel, "edge-label", "", "label for flows without one (default: \"<source> => <target>\")")
}

func (f *runFlags) addSimulation(fs *pflag.FlagSet) {
	fs.Float64Var(&f.linkDistance, "link-distance", 0, "target link length in pixels (default 150)")
	fs.Float64Var(&f.chargeStrength, "charge", 0, "node repulsion, negative (default -500)")
	fs.IntVar(&f.seed, "seed", 0, "layout seed")
	fs.IntVar(&f.ticks, "ticks", 0, "frames until the simulation cools down (default 300)")
}

func (f *runFlags) addRender(fs *pflag.FlagSet) {
	fs.IntVar(&f.width, "width", 0, "artifact width in pixels (default 1200)")
	fs.IntVar(&f.height, "height", 0, "artifact height in pixels (default 800)")
	fs.Float64Var(&f.scale, "scale", 0, "PNG resolution multiplier (default 2)")
	fs.StringVar(&f.icons, "icons", "", "directory overriding the embedded icons")
	fs.BoolVar(&f.edgeLabels, "edge-labels", false, "label links in the simple view")
	fs.BoolVar(&f.embedFont, "embed-font", false, "embed the label font in SVG output")
}

func (f *runFlags) addCache(fs *pflag.FlagSet) {
	fs.StringVar(&f.cache, "cache", "", "cache backend: file (default), redis, none")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fs.BoolVar(&f.refresh, "refresh", false, "recompute instead of reading the cache")
}

// apply copies every flag the user set onto opts.
func (f *runFlags) apply(fs *pflag.FlagSet, opts *pipeline.Options) {
	set := func(name string, fn func()) {
		if fl := fs.Lookup(name); fl != nil && fl.Changed {
			fn()
		}
	}
	if f.dataset != "" {
		opts.Dataset.Dir = f.dataset
	}
	set("applications", func() { opts.Dataset.Applications = f.applications })
	set("flows", func() { opts.Dataset.Flows = f.flows })
	set("group", func() { opts.Dataset.Group = f.group })
	set("edge-label", func() { opts.Dataset.EdgeLabel = f.edgeLabel })

	set("link-distance", func() { opts.Simulation.LinkDistance = f.linkDistance })
	set("charge", func() { opts.Simulation.ChargeStrength = f.chargeStrength })
	set("seed", func() { opts.Simulation.Seed = f.seed })
	set("ticks", func() { opts.Simulation.Ticks = f.ticks })

	set("width", func() { opts.Render.Width = f.width })
	set("height", func() { opts.Render.Height = f.height })
	set("scale", func() { opts.Render.Scale = f.scale })
	set("icons", func() { opts.Render.IconDir = f.icons })
	set("edge-labels", func() { opts.Render.EdgeLabels = f.edgeLabels })
	set("embed-font", func() { opts.Render.EmbedFont = f.embedFont })

	set("cache", func() { opts.Cache.Backend = f.cache })
	if f.noCache {
		opts.Cache.Backend = pipeline.CacheNone
	}
	opts.Refresh = f.refresh
}

// =============================================================================
// Options Loading
// =============================================================================

// loadOptions reads the --config file, if any, and applies the flags of cmd
// on top of it.
func (c *CLI) loadOptions(cmd *cobra.Command, f *runFlags) (pipeline.Options, error) {
	var opts pipeline.Options
	if c.configPath != "" {
		var err error
		if opts, err = pipeline.LoadConfig(c.configPath); err != nil {
			return opts, err
		}
		c.Logger.Debug("loaded config", "path", c.configPath)
	}
	if f != nil {
		f.apply(cmd.Flags(), &opts)
	}
	opts.Logger = c.Logger
	return opts, nil
}

// attachIcons installs the icon loader for full-view rendering. The loader
// shares the runner's cache for rasterized icons.
func attachIcons(opts *pipeline.Options, r *pipeline.Runner) {
	opts.Icons = assets.New(
		assets.WithDir(opts.Render.IconDir),
		assets.WithCache(r.Cache, r.Keyer),
		assets.WithLogger(opts.Logger),
	)
}

// datasetArg returns the optional dataset directory argument.
func datasetArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
