package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/internal/server"
)

// serveCommand runs the preview server with the view switcher page.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags   runFlags
		addr    string
		metrics bool
		envFile string
	)

	cmd := &cobra.Command{
		Use:   "serve [dataset-dir]",
		Short: "Serve the view switcher and render views on demand",
		Long: `Serve a page that toggles between the simple and the full view.

Every view request reloads the dataset, so edits show up on the next toggle.
Settings come from the config file, then FLOWMAP_* environment variables
(a .env file in the working directory is read first), then flags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && (cmd.Flags().Changed("env-file") || !os.IsNotExist(err)) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}

			opts, err := c.loadOptions(cmd, nil)
			if err != nil {
				return err
			}
			if err := opts.ApplyEnv(os.Getenv); err != nil {
				return err
			}
			flags.dataset = datasetArg(args)
			flags.apply(cmd.Flags(), &opts)
			if cmd.Flags().Changed("addr") {
				opts.Server.Addr = addr
			}
			if cmd.Flags().Changed("metrics") {
				opts.Server.Metrics = metrics
			}

			// Validate a copy: the server keeps the raw options and validates
			// one per request.
			check := opts
			if err := check.ValidateAndSetDefaults(); err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), check)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			var serverOpts []server.Option
			if check.Server.Metrics {
				serverOpts = append(serverOpts, server.WithMetrics(server.NewMetrics()))
			}
			srv, err := server.New(runner, opts, loggerFromContext(cmd.Context()), serverOpts...)
			if err != nil {
				return err
			}

			printKeyValue("Serving", "http://"+displayAddr(check.Server.Addr))
			printKeyValue("Dataset", orDot(check.Dataset.Dir))
			if check.Server.Metrics {
				printKeyValue("Metrics", "http://"+displayAddr(check.Server.Addr)+"/metrics")
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default 127.0.0.1:8080)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "expose Prometheus metrics at /metrics")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file with FLOWMAP_* settings")
	flags.addDataset(cmd.Flags())
	flags.addSimulation(cmd.Flags())
	flags.addRender(cmd.Flags())
	flags.addCache(cmd.Flags())

	return cmd
}

// displayAddr turns a listen address into something a browser can open.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func orDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
