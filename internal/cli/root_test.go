package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

func newTestCLI() *CLI {
	return &CLI{Logger: log.New(io.Discard)}
}

func TestRootCommandSubcommands(t *testing.T) {
	root := newTestCLI().RootCommand()
	want := []string{"render", "simple", "graph", "explore", "convert", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}

func TestRunFlagsApply(t *testing.T) {
	var f runFlags
	fresh := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.addDataset(fresh)
	f.addSimulation(fresh)
	f.addRender(fresh)
	f.addCache(fresh)
	if err := fresh.Parse([]string{
		"--flows", "f.json", "--group", "3",
		"--charge", "-80", "--ticks", "12",
		"--width", "640", "--edge-labels",
		"--no-cache", "--refresh",
	}); err != nil {
		t.Fatal(err)
	}
	f.dataset = "data"

	var opts pipeline.Options
	opts.Simulation.LinkDistance = 99
	opts.Render.Height = 300
	f.apply(fresh, &opts)

	if opts.Dataset.Dir != "data" || opts.Dataset.Flows != "f.json" || opts.Dataset.Group != 3 {
		t.Errorf("Dataset = %+v", opts.Dataset)
	}
	if opts.Simulation.ChargeStrength != -80 || opts.Simulation.Ticks != 12 {
		t.Errorf("Simulation = %+v", opts.Simulation)
	}
	if opts.Simulation.LinkDistance != 99 || opts.Render.Height != 300 {
		t.Errorf("unset flags overrode config: %+v %+v", opts.Simulation, opts.Render)
	}
	if opts.Render.Width != 640 || !opts.Render.EdgeLabels {
		t.Errorf("Render = %+v", opts.Render)
	}
	if opts.Cache.Backend != pipeline.CacheNone || !opts.Refresh {
		t.Errorf("Cache = %+v, Refresh = %v", opts.Cache, opts.Refresh)
	}
}

func TestLoadOptionsWithConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowmap.toml")
	config := `
[dataset]
dir = "inventory"

[simulation]
link_distance = 90
charge_strength = -300
`
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	c := newTestCLI()
	c.configPath = path
	var f runFlags
	cmd := &cobra.Command{Use: "test"}
	f.addSimulation(cmd.Flags())
	if err := cmd.ParseFlags([]string{"--charge", "-50"}); err != nil {
		t.Fatal(err)
	}
	opts, err := c.loadOptions(cmd, &f)
	if err != nil {
		t.Fatalf("loadOptions() error: %v", err)
	}
	if opts.Dataset.Dir != "inventory" || opts.Simulation.LinkDistance != 90 {
		t.Errorf("config not applied: %+v", opts)
	}
	if opts.Simulation.ChargeStrength != -50 {
		t.Errorf("ChargeStrength = %v, want flag value -50", opts.Simulation.ChargeStrength)
	}
	if opts.Logger != c.Logger {
		t.Error("logger not attached")
	}

	c.configPath = filepath.Join(dir, "missing.toml")
	if _, err := c.loadOptions(cmd, nil); err == nil {
		t.Error("loadOptions() with missing config should fail")
	}
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()

	c, err := newCache(ctx, pipeline.CacheOptions{Backend: pipeline.CacheNone})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.NullCache); !ok {
		t.Errorf("none backend = %T, want *cache.NullCache", c)
	}

	dir := t.TempDir()
	c, err = newCache(ctx, pipeline.CacheOptions{Backend: pipeline.CacheFile, Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if data, ok, _ := c.Get(ctx, "k"); !ok || string(data) != "v" {
		t.Errorf("Get() = %q, %v", data, ok)
	}
}

func TestCompletionCommand(t *testing.T) {
	root := newTestCLI().RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	if err := root.Execute(); err != nil {
		t.Fatalf("completion error: %v", err)
	}
	if !strings.Contains(out.String(), appName) {
		t.Errorf("bash completion does not mention %s", appName)
	}
}

func TestDisplayAddr(t *testing.T) {
	tests := map[string]string{
		":8080":          "localhost:8080",
		"127.0.0.1:9000": "127.0.0.1:9000",
		"":               "",
	}
	for in, want := range tests {
		if got := displayAddr(in); got != want {
			t.Errorf("displayAddr(%q) = %q, want %q", in, got, want)
		}
	}
}
