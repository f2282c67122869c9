package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".prfang"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for prfang settings.
const envPrefix = "PRFANG"

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
	viperCfg.SetDefault("strategies.semantic_grouping.enabled", DefaultSemanticEnabled)
	viperCfg.SetDefault("strategies.semantic_grouping.temperature", DefaultSemanticTemperature)
	viperCfg.SetDefault("strategies.semantic_grouping.prompt_template", DefaultSemanticPromptTemplate)
	viperCfg.SetDefault("strategies.semantic_grouping.max_batch_files", DefaultSemanticMaxBatchFiles)

	viperCfg.SetDefault("strategies.directory_based.enabled", DefaultDirectoryEnabled)
	viperCfg.SetDefault("strategies.directory_based.max_depth", DefaultDirectoryMaxDepth)
	viperCfg.SetDefault("strategies.directory_based.min_files_per_dir", DefaultDirectoryMinFiles)

	viperCfg.SetDefault("strategies.dependency_analysis.enabled", DefaultDependencyEnabled)
	viperCfg.SetDefault("strategies.dependency_analysis.languages", []string{})

	viperCfg.SetDefault("validation_rules.size_check.max_files", DefaultSizeMaxFiles)
	viperCfg.SetDefault("validation_rules.size_check.max_size_mb", DefaultSizeMaxSizeMB)
	viperCfg.SetDefault("validation_rules.conflict_check.check_dependencies", DefaultConflictCheckDeps)
	viperCfg.SetDefault("validation_rules.test_coverage.require_tests", DefaultCoverageRequireTests)

	viperCfg.SetDefault("semantic_service.model", DefaultSemanticModel)
	viperCfg.SetDefault("semantic_service.max_attempts", DefaultSemanticMaxAttempts)
	viperCfg.SetDefault("semantic_service.call_timeout_sec", DefaultSemanticCallTimeoutSec)

	viperCfg.SetDefault("graph.proximity_depth", DefaultGraphProximityDepth)
}
