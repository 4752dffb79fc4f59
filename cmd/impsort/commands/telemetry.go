package commands

import (
	"log/slog"
	"os"

	"github.com/Sumatoshi-tech/impsort/internal/config"
	"github.com/Sumatoshi-tech/impsort/internal/observability"
	"github.com/Sumatoshi-tech/impsort/pkg/version"
)

// telemetryConfig maps the file configuration onto observability settings.
// The standard OTEL_EXPORTER_OTLP_* variables act as a fallback for
// environments that configure the collector outside the config file.
func telemetryConfig(cfg *config.Config, mode observability.AppMode) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode

	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	if obsCfg.OTLPEndpoint == "" {
		obsCfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"

	if cfg.Telemetry.ServiceName != "" {
		obsCfg.ServiceName = cfg.Telemetry.ServiceName
	}

	if level, err := cfg.LogLevel(); err == nil {
		obsCfg.LogLevel = level
	}

	return obsCfg
}

// initServeObservability initializes telemetry for the stdio server modes.
// Logs go to stderr as JSON so they never corrupt the protocol stream on
// stdout.
func initServeObservability(cfg *config.Config, mode observability.AppMode, debug bool) (observability.Providers, error) {
	obsCfg := telemetryConfig(cfg, mode)
	obsCfg.LogJSON = true

	if debug {
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	}

	return observability.Init(obsCfg)
}
