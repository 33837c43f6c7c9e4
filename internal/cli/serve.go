package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/server"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts over HTTP",
		Long: `Serve layouts over HTTP.

  GET  /api/genealogia/{protocolKey}   family from the configured source
  POST /api/layout                     family document in the request body
  GET  /healthz

Layout routes take the query parameters focus, scope, view, locale and
format (json, svg, png, dot). Layout and render defaults, the source and
the cache come from the settings file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				c.cfg.Server.Addr = addr
			}

			src, err := c.newSource(ctx)
			if err != nil {
				return fmt.Errorf("open source: %w", err)
			}
			if src == nil {
				c.Logger.Warn("no family source configured; only POST /api/layout will succeed")
			}
			runner, err := c.newRunner(ctx, noCache, src)
			if err != nil {
				if src != nil {
					src.Close()
				}
				return err
			}
			defer runner.Close()

			observability.NewLogHooks(c.Logger).Install()
			defer observability.Reset()

			srv := server.New(runner,
				server.WithLogger(c.Logger),
				server.WithDefaults(c.cfg.PipelineOptions()),
				server.WithConfig(c.cfg.Server),
			)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from settings, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
