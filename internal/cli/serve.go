package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/strata/internal/server"
	"github.com/matzehuels/strata/pkg/observability"
)

// serveCommand creates the serve command for running the HTTP layout service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP layout service",
		Long: `Serve layouts over HTTP:

  POST /v1/layout   graph document in, layout JSON out
  POST /v1/render   graph document or layout in, drawing out
  GET  /healthz     liveness
  GET  /metrics     Prometheus metrics

Defaults for every request come from the [layout] section of the config
file; the [server] section sets the address, timeout and body limit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sc := c.Config.Server
			if addr != "" {
				sc.Addr = addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			hooks := observability.NewPrometheusHooks(reg)
			observability.SetPipelineHooks(hooks)
			observability.SetCacheHooks(hooks)
			observability.SetHTTPHooks(hooks)
			defer observability.Reset()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(server.Config{
				Addr:         sc.Addr,
				Runner:       runner,
				Defaults:     c.Config.Layout.Options(),
				Timeout:      sc.Timeout.Duration,
				MaxBodyBytes: sc.MaxBodyBytes,
				Gatherer:     reg,
				Logger:       c.Logger,
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
