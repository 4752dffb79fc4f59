package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/impsort/internal/lsp"
	"github.com/Sumatoshi-tech/impsort/internal/observability"
)

// NewLSPCommand creates the language server command.
func NewLSPCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start language server for Java import diagnostics (LSP)",
		Long: `Start a Language Server Protocol (LSP) server on stdio transport.

The server publishes a diagnostic when a document's import declarations
fall out of canonical order and rewrites them through textDocument/formatting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadFileConfig(cobraCmd)
			if err != nil {
				return err
			}

			providers, err := initServeObservability(cfg, observability.ModeLSP, debug)
			if err != nil {
				return err
			}

			defer func() {
				shutdownErr := providers.Shutdown(context.Background())
				if shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			engineCfg, engineErr := cfg.EngineConfig()
			if engineErr != nil {
				return engineErr
			}

			srv, srvErr := lsp.NewServer(lsp.ServerDeps{
				Config: &engineCfg,
				Logger: providers.Logger,
			})
			if srvErr != nil {
				return srvErr
			}

			return srv.Run()
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}
