package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".impsort"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for impsort settings.
const envPrefix = "IMPSORT"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("encoding", DefaultEncoding)
	viperCfg.SetDefault("line_ending", DefaultLineEnding)

	viperCfg.SetDefault("groups.order", DefaultGroupsOrder)
	viperCfg.SetDefault("groups.static_order", "")
	viperCfg.SetDefault("groups.static_after", false)
	viperCfg.SetDefault("groups.join_static", false)
	viperCfg.SetDefault("groups.separate", DefaultSeparate)
	viperCfg.SetDefault("groups.first_match_wins", false)
	viperCfg.SetDefault("groups.unmatched_first", false)
	viperCfg.SetDefault("groups.breadth_first", false)

	viperCfg.SetDefault("unused.remove", false)
	viperCfg.SetDefault("unused.treat_same_package", false)

	viperCfg.SetDefault("run.workers", DefaultWorkers)
	viperCfg.SetDefault("run.max_file_size", DefaultMaxFileSize)
	viperCfg.SetDefault("run.include_vendored", false)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.service_name", DefaultServiceName)
	viperCfg.SetDefault("telemetry.log_level", DefaultLogLevel)
	viperCfg.SetDefault("telemetry.log_format", DefaultLogFormat)
}
