package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/phasehull/internal/server"
	"github.com/matzehuels/phasehull/pkg/observability"
)

// serveCommand creates the serve command for the JSON HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		engine  engineFlags
		addr    string
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over a JSON HTTP API",
		Long: `Serve hull, sweep and chempot requests over HTTP.

Results are cached in the configured backend. Request options override the
engine flags, which override the config file. Prometheus metrics are
exposed at /metrics unless --metrics=false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.Config.Server.Addr
			}

			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			cfg := server.Config{
				Addr:     addr,
				Runner:   runner,
				Logger:   c.Logger,
				Defaults: c.options(engine),
			}
			if metrics {
				cfg.Metrics = observability.NewPrometheusHooks(appName, true)
				cfg.Metrics.Register()
				defer observability.Reset()
			}

			printKeyValue("Listening", addr)
			printKeyValue("Cache", c.Config.Cache.Backend)
			if metrics {
				printKeyValue("Metrics", "/metrics")
			}
			return server.New(cfg).ListenAndServe(ctx)
		},
	}

	engine.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&metrics, "metrics", true, "expose Prometheus metrics at /metrics")

	return cmd
}
