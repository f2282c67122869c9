package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/prfang/internal/config"
	"github.com/Sumatoshi-tech/prfang/pkg/strategy"
)

func validConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Strategies.DirectoryBased.MaxDepth = 2
	cfg.Strategies.DirectoryBased.MinFilesPerDir = 2
	cfg.Strategies.SemanticGrouping.Temperature = 0.2
	cfg.ValidationRules.SizeCheck.MaxFiles = 50
	cfg.ValidationRules.SizeCheck.MaxSizeMB = 5

	return cfg
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.False(t, cfg.Strategies.SemanticGrouping.Enabled)
	assert.InDelta(t, 0.2, cfg.Strategies.SemanticGrouping.Temperature, 1e-9)
	assert.Equal(t, 40, cfg.Strategies.SemanticGrouping.MaxBatchFiles)

	assert.True(t, cfg.Strategies.DirectoryBased.Enabled)
	assert.Equal(t, 2, cfg.Strategies.DirectoryBased.MaxDepth)
	assert.Equal(t, 2, cfg.Strategies.DirectoryBased.MinFilesPerDir)

	assert.True(t, cfg.Strategies.DependencyAnalysis.Enabled)

	assert.Equal(t, 50, cfg.ValidationRules.SizeCheck.MaxFiles)
	assert.InDelta(t, 5.0, cfg.ValidationRules.SizeCheck.MaxSizeMB, 1e-9)
	assert.True(t, cfg.ValidationRules.ConflictCheck.CheckDependencies)
	assert.False(t, cfg.ValidationRules.TestCoverage.RequireTests)

	assert.Equal(t, "gpt-4o-mini", cfg.Semantic.Model)
	assert.Equal(t, 3, cfg.Semantic.MaxAttempts)
	assert.Equal(t, 30, cfg.Semantic.CallTimeoutSec)

	assert.Equal(t, 3, cfg.Graph.ProximityDepth)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prfang.yaml")

	content := `
strategies:
  directory_based:
    max_depth: 4
  weights:
    directory_based: 0.5
validation_rules:
  size_check:
    max_files: 20
  test_coverage:
    require_tests: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Strategies.DirectoryBased.MaxDepth)
	assert.InDelta(t, 0.5, cfg.Strategies.Weights["directory_based"], 1e-9)
	assert.Equal(t, 20, cfg.ValidationRules.SizeCheck.MaxFiles)
	assert.True(t, cfg.ValidationRules.TestCoverage.RequireTests)

	// Untouched keys keep their defaults.
	assert.Equal(t, 2, cfg.Strategies.DirectoryBased.MinFilesPerDir)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PRFANG_VALIDATION_RULES_SIZE_CHECK_MAX_FILES", "12")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.ValidationRules.SizeCheck.MaxFiles)
}

func TestLoadConfigRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prfang.yaml")

	content := `
validation_rules:
  size_check:
    max_files: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidMaxFiles)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{
			name:   "valid",
			mutate: func(*config.Config) {},
		},
		{
			name:    "negative max depth",
			mutate:  func(c *config.Config) { c.Strategies.DirectoryBased.MaxDepth = -1 },
			wantErr: config.ErrInvalidMaxDepth,
		},
		{
			name:    "negative min files",
			mutate:  func(c *config.Config) { c.Strategies.DirectoryBased.MinFilesPerDir = -1 },
			wantErr: config.ErrInvalidMinFiles,
		},
		{
			name:    "temperature too high",
			mutate:  func(c *config.Config) { c.Strategies.SemanticGrouping.Temperature = 2.5 },
			wantErr: config.ErrInvalidTemperature,
		},
		{
			name:    "zero max files",
			mutate:  func(c *config.Config) { c.ValidationRules.SizeCheck.MaxFiles = 0 },
			wantErr: config.ErrInvalidMaxFiles,
		},
		{
			name:    "negative max size",
			mutate:  func(c *config.Config) { c.ValidationRules.SizeCheck.MaxSizeMB = -1 },
			wantErr: config.ErrInvalidMaxSize,
		},
		{
			name:    "negative weight",
			mutate:  func(c *config.Config) { c.Strategies.Weights = map[string]float64{"semantic_grouping": -0.1} },
			wantErr: config.ErrInvalidWeight,
		},
		{
			name:    "semantic without key",
			mutate:  func(c *config.Config) { c.Strategies.SemanticGrouping.Enabled = true },
			wantErr: config.ErrSemanticNeedsKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestEngineConfigMapping(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Strategies.DependencyAnalysis.Enabled = true
	cfg.Strategies.DependencyAnalysis.Languages = []string{"python"}
	cfg.Strategies.Weights = map[string]float64{"semantic_grouping": 0.8}
	cfg.ValidationRules.ConflictCheck.CheckDependencies = true
	cfg.Graph.ProximityDepth = 4

	engineCfg := cfg.EngineConfig()

	assert.Equal(t, 4, engineCfg.Graph.ProximityDepth)
	assert.Equal(t, []string{"python"}, engineCfg.Strategies.Dependency.Languages)
	assert.InDelta(t, 0.8, engineCfg.Strategies.Weight(strategy.NameSemantic), 1e-9)

	// The size bound feeds both the fallback chunking and the size rule.
	assert.Equal(t, 50, engineCfg.Strategies.Fallback.MaxFiles)
	assert.Equal(t, 50, engineCfg.Rules.SizeCheck.MaxFiles)
	assert.True(t, engineCfg.Rules.ConflictCheck.CheckDependencies)
}
