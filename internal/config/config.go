package config

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
)

// Config is the top-level configuration struct for impsort.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Encoding   string          `mapstructure:"encoding"`
	LineEnding string          `mapstructure:"line_ending"`
	Groups     GroupsConfig    `mapstructure:"groups"`
	Unused     UnusedConfig    `mapstructure:"unused"`
	Run        RunConfig       `mapstructure:"run"`
	Telemetry  TelemetryConfig `mapstructure:"telemetry"`
}

// GroupsConfig holds import grouping and ordering settings.
type GroupsConfig struct {
	Order          string `mapstructure:"order"`
	StaticOrder    string `mapstructure:"static_order"`
	StaticAfter    bool   `mapstructure:"static_after"`
	JoinStatic     bool   `mapstructure:"join_static"`
	Separate       bool   `mapstructure:"separate"`
	FirstMatchWins bool   `mapstructure:"first_match_wins"`
	UnmatchedFirst bool   `mapstructure:"unmatched_first"`
	BreadthFirst   bool   `mapstructure:"breadth_first"`
}

// UnusedConfig holds unused-import removal settings.
type UnusedConfig struct {
	Remove           bool `mapstructure:"remove"`
	TreatSamePackage bool `mapstructure:"treat_same_package"`
}

// RunConfig holds file discovery and parallelism settings.
type RunConfig struct {
	Workers         int    `mapstructure:"workers"`
	MaxFileSize     string `mapstructure:"max_file_size"`
	IncludeVendored bool   `mapstructure:"include_vendored"`
}

// TelemetryConfig holds logging and export settings for the serve modes.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
}

// Default configuration values.
const (
	DefaultEncoding    = "utf-8"
	DefaultLineEnding  = "auto"
	DefaultGroupsOrder = "java.,javax.,org.,com."
	DefaultSeparate    = true
	DefaultWorkers     = 0
	DefaultMaxFileSize = "2MB"
	DefaultServiceName = "impsort"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("run.workers must be non-negative")
	// ErrInvalidMaxFileSize indicates the size limit cannot be parsed.
	ErrInvalidMaxFileSize = errors.New("run.max_file_size must be a byte size such as 2MB")
	// ErrInvalidLineEnding indicates an unknown line-ending policy name.
	ErrInvalidLineEnding = errors.New("line_ending must be one of auto, keep, lf, crlf, cr")
	// ErrInvalidLogLevel indicates an unknown log level name.
	ErrInvalidLogLevel = errors.New("telemetry.log_level must be one of debug, info, warn, error")
	// ErrInvalidLogFormat indicates an unknown log format name.
	ErrInvalidLogFormat = errors.New("telemetry.log_format must be text or json")
)

// knownLineEndings are the accepted line_ending spellings.
var knownLineEndings = map[string]struct{}{
	"": {}, "auto": {}, "keep": {}, "lf": {}, "crlf": {}, "cr": {},
}

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Run.Workers < 0 {
		return ErrInvalidWorkers
	}

	if _, err := c.MaxFileSizeBytes(); err != nil {
		return err
	}

	if _, ok := knownLineEndings[strings.ToLower(c.LineEnding)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLineEnding, c.LineEnding)
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}

	return c.validateLogFormat()
}

func (c *Config) validateLogFormat() error {
	switch strings.ToLower(c.Telemetry.LogFormat) {
	case "", "text", "json":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Telemetry.LogFormat)
	}
}

// WorkerCount resolves the worker pool size; zero means one worker per CPU.
func (c *Config) WorkerCount() int {
	if c.Run.Workers > 0 {
		return c.Run.Workers
	}

	return runtime.NumCPU()
}

// MaxFileSizeBytes parses the human-readable size limit. An empty value
// falls back to the default.
func (c *Config) MaxFileSizeBytes() (uint64, error) {
	value := c.Run.MaxFileSize
	if value == "" {
		value = DefaultMaxFileSize
	}

	size, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxFileSize, c.Run.MaxFileSize)
	}

	return size, nil
}

// LogLevel maps the configured level name to a slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Telemetry.LogLevel) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Telemetry.LogLevel)
	}
}
