package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/impsort/internal/config"
)

// defaultConfigFile is the validation target when no path is given.
const defaultConfigFile = ".impsort.yaml"

// ErrConfigInvalid is returned when a config file fails schema validation.
var ErrConfigInvalid = errors.New("config file is not valid")

// NewConfigCommand creates the configuration inspection command.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate impsort configuration",
		Long:  "Inspect the effective configuration or validate a config file against the schema.",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigValidateCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long:  "Print the configuration after merging defaults, the config file, and environment variables.",
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadFileConfig(cobraCmd)
			if err != nil {
				return err
			}

			data, marshalErr := yaml.Marshal(configDocument(cfg))
			if marshalErr != nil {
				return fmt.Errorf("encode config: %w", marshalErr)
			}

			_, writeErr := cobraCmd.OutOrStdout().Write(data)

			return writeErr
		},
	}
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a config file against the schema",
		Long:  "Validate a YAML config file against the embedded JSON schema and report field-level violations.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			path := resolveConfigTarget(cobraCmd, args)

			violations, err := config.ValidateFile(path)
			if err != nil {
				return err
			}

			out := cobraCmd.OutOrStdout()

			if len(violations) == 0 {
				color.New(color.FgGreen).Fprintf(out, "config is valid (%s)\n", path)

				return nil
			}

			color.New(color.FgRed).Fprintf(out, "config validation failed (%s)\n", path)

			for _, violation := range violations {
				color.New(color.FgRed).Fprintf(out, "  - %s: %s\n", violation.Field, violation.Description)
			}

			return ErrConfigInvalid
		},
	}
}

// resolveConfigTarget picks the file to validate: the positional argument,
// then the persistent --config flag, then the default file name.
func resolveConfigTarget(cmd *cobra.Command, args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	if path, err := cmd.Flags().GetString("config"); err == nil && path != "" {
		return path
	}

	return defaultConfigFile
}

// loadFileConfig loads the configuration honoring the root --config flag.
// Commands constructed without the root command fall back to the default
// search paths.
func loadFileConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path = ""
	}

	return config.LoadConfig(path)
}

// configDocument renders the config into the same key layout the config
// file uses, so show output can be written back verbatim.
func configDocument(cfg *config.Config) map[string]any {
	return map[string]any{
		"encoding":    cfg.Encoding,
		"line_ending": cfg.LineEnding,
		"groups": map[string]any{
			"order":            cfg.Groups.Order,
			"static_order":     cfg.Groups.StaticOrder,
			"static_after":     cfg.Groups.StaticAfter,
			"join_static":      cfg.Groups.JoinStatic,
			"separate":         cfg.Groups.Separate,
			"first_match_wins": cfg.Groups.FirstMatchWins,
			"unmatched_first":  cfg.Groups.UnmatchedFirst,
			"breadth_first":    cfg.Groups.BreadthFirst,
		},
		"unused": map[string]any{
			"remove":             cfg.Unused.Remove,
			"treat_same_package": cfg.Unused.TreatSamePackage,
		},
		"run": map[string]any{
			"workers":          cfg.Run.Workers,
			"max_file_size":    cfg.Run.MaxFileSize,
			"include_vendored": cfg.Run.IncludeVendored,
		},
		"telemetry": map[string]any{
			"otlp_endpoint": cfg.Telemetry.OTLPEndpoint,
			"service_name":  cfg.Telemetry.ServiceName,
			"log_level":     cfg.Telemetry.LogLevel,
			"log_format":    cfg.Telemetry.LogFormat,
		},
	}
}
