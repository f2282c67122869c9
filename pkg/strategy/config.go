package strategy

// Defaults for strategy configuration.
const (
	DefaultDirectoryMaxDepth      = 2
	DefaultDirectoryMinFiles      = 2
	DefaultSemanticMaxBatchFiles  = 40
	DefaultFallbackMaxFiles       = 50
	DefaultSemanticTemperature    = 0.2
)

// DirectoryConfig configures the directory-based strategy.
type DirectoryConfig struct {
	Enabled        bool
	MaxDepth       int
	MinFilesPerDir int
}

// DependencyConfig configures the dependency-analysis strategy.
type DependencyConfig struct {
	Enabled bool
	// Languages restricts the strategy to files of these languages.
	// Empty means all languages.
	Languages []string
}

// SemanticConfig configures the LLM-assisted strategy.
type SemanticConfig struct {
	Enabled        bool
	Temperature    float64
	PromptTemplate string
	// MaxBatchFiles bounds how many files go into one service call.
	MaxBatchFiles int
}

// FallbackConfig configures the size-based fallback.
type FallbackConfig struct {
	// MaxFiles bounds the size of each fallback group.
	MaxFiles int
}

// Config is the immutable strategy configuration threaded through every
// Propose call.
type Config struct {
	Directory  DirectoryConfig
	Dependency DependencyConfig
	Semantic   SemanticConfig
	Fallback   FallbackConfig

	// Weights maps strategy name to its score weight in the merger.
	// Missing entries use the per-strategy default.
	Weights map[string]float64
}

// DefaultConfig returns a Config with every deterministic strategy enabled
// and the semantic strategy disabled (it needs a service credential).
func DefaultConfig() Config {
	return Config{
		Directory: DirectoryConfig{
			Enabled:        true,
			MaxDepth:       DefaultDirectoryMaxDepth,
			MinFilesPerDir: DefaultDirectoryMinFiles,
		},
		Dependency: DependencyConfig{Enabled: true},
		Semantic: SemanticConfig{
			Enabled:       false,
			Temperature:   DefaultSemanticTemperature,
			MaxBatchFiles: DefaultSemanticMaxBatchFiles,
		},
		Fallback: FallbackConfig{MaxFiles: DefaultFallbackMaxFiles},
	}
}

// Weight returns the configured or default score weight for a strategy name.
func (c Config) Weight(name string) float64 {
	if w, ok := c.Weights[name]; ok {
		return w
	}

	switch name {
	case NameSemantic:
		return DefaultWeightSemantic
	case NameDependency:
		return DefaultWeightDependency
	case NameDirectory:
		return DefaultWeightDirectory
	case NameFallback:
		return DefaultWeightFallback
	default:
		return 0
	}
}
