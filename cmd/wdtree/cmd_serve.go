package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/persistorai/wdtree/internal/config"
	"github.com/persistorai/wdtree/internal/viewer"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve written artifacts and metrics to a visualization page",
		Long: `Serve the tree, table and run files under the output directory at
/api/v1/roots/<root>/{tree,table,run}, with CORS for the configured origins
and Prometheus metrics at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := viewer.Serve(ctx, cfg.Addr(), &viewer.Deps{
				Log:         logger,
				Dir:         cfg.OutputDir,
				CORSOrigins: cfg.CORSOrigins,
				Version:     config.Version,
			})
			if err != nil {
				return fmt.Errorf("serve failed: %w", err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringP("out", "o", ".", "Directory holding run artifacts")
	f.String("listen-host", "127.0.0.1", "Listen address (loopback, or 0.0.0.0 in containers)")
	f.String("port", "3040", "Listen port")

	return cmd
}
