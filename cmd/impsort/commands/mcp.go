package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/impsort/internal/mcp"
	"github.com/Sumatoshi-tech/impsort/internal/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes import sorting as tools that AI agents can discover
and invoke:
  - impsort_check: Check whether a Java file's imports are in canonical order
  - impsort_sort: Rewrite a Java file's imports into canonical order`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadFileConfig(cobraCmd)
			if err != nil {
				return err
			}

			providers, err := initServeObservability(cfg, observability.ModeMCP, debug)
			if err != nil {
				return err
			}

			defer func() {
				shutdownErr := providers.Shutdown(context.Background())
				if shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			red, redErr := observability.NewREDMetrics(providers.Meter)
			if redErr != nil {
				return redErr
			}

			engineCfg, engineErr := cfg.EngineConfig()
			if engineErr != nil {
				return engineErr
			}

			deps := mcp.ServerDeps{
				Config:  &engineCfg,
				Logger:  providers.Logger,
				Metrics: red,
				Tracer:  providers.Tracer,
			}

			srv, srvErr := mcp.NewServer(deps)
			if srvErr != nil {
				return srvErr
			}

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}
