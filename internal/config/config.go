// Package config loads prfang configuration from file, environment, and
// defaults, and maps it onto the engine's per-package config values.
package config

import (
	"errors"

	"github.com/Sumatoshi-tech/prfang/pkg/changegraph"
	"github.com/Sumatoshi-tech/prfang/pkg/feasibility"
	"github.com/Sumatoshi-tech/prfang/pkg/recommend"
	"github.com/Sumatoshi-tech/prfang/pkg/strategy"
)

// Config is the top-level configuration for prfang.
type Config struct {
	Strategies      StrategiesConfig      `mapstructure:"strategies"`
	ValidationRules ValidationRulesConfig `mapstructure:"validation_rules"`
	Semantic        SemanticServiceConfig `mapstructure:"semantic_service"`
	Graph           GraphConfig           `mapstructure:"graph"`
}

// StrategiesConfig holds per-strategy toggles and knobs.
type StrategiesConfig struct {
	SemanticGrouping   SemanticGroupingConfig   `mapstructure:"semantic_grouping"`
	DirectoryBased     DirectoryBasedConfig     `mapstructure:"directory_based"`
	DependencyAnalysis DependencyAnalysisConfig `mapstructure:"dependency_analysis"`
	Weights            map[string]float64       `mapstructure:"weights"`
}

// SemanticGroupingConfig holds semantic strategy settings.
type SemanticGroupingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Temperature    float64 `mapstructure:"temperature"`
	PromptTemplate string  `mapstructure:"prompt_template"`
	MaxBatchFiles  int     `mapstructure:"max_batch_files"`
}

// DirectoryBasedConfig holds directory strategy settings.
type DirectoryBasedConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	MaxDepth       int  `mapstructure:"max_depth"`
	MinFilesPerDir int  `mapstructure:"min_files_per_dir"`
}

// DependencyAnalysisConfig holds dependency strategy settings.
type DependencyAnalysisConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Languages []string `mapstructure:"languages"`
}

// ValidationRulesConfig holds feasibility rule settings.
type ValidationRulesConfig struct {
	SizeCheck     SizeCheckConfig     `mapstructure:"size_check"`
	ConflictCheck ConflictCheckConfig `mapstructure:"conflict_check"`
	TestCoverage  TestCoverageConfig  `mapstructure:"test_coverage"`
}

// SizeCheckConfig bounds group size.
type SizeCheckConfig struct {
	MaxFiles  int     `mapstructure:"max_files"`
	MaxSizeMB float64 `mapstructure:"max_size_mb"`
}

// ConflictCheckConfig controls cross-group conflict detection.
type ConflictCheckConfig struct {
	CheckDependencies bool `mapstructure:"check_dependencies"`
}

// TestCoverageConfig controls the coverage rule.
type TestCoverageConfig struct {
	RequireTests bool `mapstructure:"require_tests"`
}

// SemanticServiceConfig holds external service credentials and limits.
type SemanticServiceConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	CallTimeoutSec int    `mapstructure:"call_timeout_sec"`
}

// GraphConfig holds change-graph construction settings.
type GraphConfig struct {
	ProximityDepth int `mapstructure:"proximity_depth"`
}

var (
	// ErrInvalidMaxDepth indicates directory max_depth is negative.
	ErrInvalidMaxDepth = errors.New("strategies.directory_based.max_depth must be non-negative")
	// ErrInvalidMinFiles indicates min_files_per_dir is negative.
	ErrInvalidMinFiles = errors.New("strategies.directory_based.min_files_per_dir must be non-negative")
	// ErrInvalidTemperature indicates the semantic temperature is out of range.
	ErrInvalidTemperature = errors.New("strategies.semantic_grouping.temperature must be between 0 and 2")
	// ErrInvalidMaxFiles indicates size_check.max_files is not positive.
	ErrInvalidMaxFiles = errors.New("validation_rules.size_check.max_files must be positive")
	// ErrInvalidMaxSize indicates size_check.max_size_mb is negative.
	ErrInvalidMaxSize = errors.New("validation_rules.size_check.max_size_mb must be non-negative")
	// ErrInvalidWeight indicates a strategy weight is negative.
	ErrInvalidWeight = errors.New("strategies.weights values must be non-negative")
	// ErrSemanticNeedsKey indicates the semantic strategy is enabled without
	// a service credential.
	ErrSemanticNeedsKey = errors.New("strategies.semantic_grouping.enabled requires semantic_service.api_key")
)

// semanticTemperatureMax is the upper bound accepted for the temperature.
const semanticTemperatureMax = 2.0

// Validate checks field-level and cross-field constraints.
func (c *Config) Validate() error {
	if c.Strategies.DirectoryBased.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.Strategies.DirectoryBased.MinFilesPerDir < 0 {
		return ErrInvalidMinFiles
	}

	temp := c.Strategies.SemanticGrouping.Temperature
	if temp < 0 || temp > semanticTemperatureMax {
		return ErrInvalidTemperature
	}

	if c.ValidationRules.SizeCheck.MaxFiles <= 0 {
		return ErrInvalidMaxFiles
	}

	if c.ValidationRules.SizeCheck.MaxSizeMB < 0 {
		return ErrInvalidMaxSize
	}

	for _, weight := range c.Strategies.Weights {
		if weight < 0 {
			return ErrInvalidWeight
		}
	}

	if c.Strategies.SemanticGrouping.Enabled && c.Semantic.APIKey == "" {
		return ErrSemanticNeedsKey
	}

	return nil
}

// EngineConfig maps the loaded configuration onto the pipeline config value
// threaded through every engine call.
func (c *Config) EngineConfig() recommend.Config {
	return recommend.Config{
		Graph: changegraph.Options{
			ProximityDepth: c.Graph.ProximityDepth,
		},
		Strategies: strategy.Config{
			Directory: strategy.DirectoryConfig{
				Enabled:        c.Strategies.DirectoryBased.Enabled,
				MaxDepth:       c.Strategies.DirectoryBased.MaxDepth,
				MinFilesPerDir: c.Strategies.DirectoryBased.MinFilesPerDir,
			},
			Dependency: strategy.DependencyConfig{
				Enabled:   c.Strategies.DependencyAnalysis.Enabled,
				Languages: c.Strategies.DependencyAnalysis.Languages,
			},
			Semantic: strategy.SemanticConfig{
				Enabled:        c.Strategies.SemanticGrouping.Enabled,
				Temperature:    c.Strategies.SemanticGrouping.Temperature,
				PromptTemplate: c.Strategies.SemanticGrouping.PromptTemplate,
				MaxBatchFiles:  c.Strategies.SemanticGrouping.MaxBatchFiles,
			},
			Fallback: strategy.FallbackConfig{
				MaxFiles: c.ValidationRules.SizeCheck.MaxFiles,
			},
			Weights: c.Strategies.Weights,
		},
		Rules: feasibility.Rules{
			SizeCheck: feasibility.SizeCheckConfig{
				MaxFiles:  c.ValidationRules.SizeCheck.MaxFiles,
				MaxSizeMB: c.ValidationRules.SizeCheck.MaxSizeMB,
			},
			ConflictCheck: feasibility.ConflictCheckConfig{
				CheckDependencies: c.ValidationRules.ConflictCheck.CheckDependencies,
			},
			TestCoverage: feasibility.TestCoverageConfig{
				RequireTests: c.ValidationRules.TestCoverage.RequireTests,
			},
		},
	}
}
