package config

// Default values applied before file and environment overrides.
const (
	DefaultSemanticEnabled        = false
	DefaultSemanticTemperature    = 0.2
	DefaultSemanticPromptTemplate = ""
	DefaultSemanticMaxBatchFiles  = 40

	DefaultDirectoryEnabled  = true
	DefaultDirectoryMaxDepth = 2
	DefaultDirectoryMinFiles = 2

	DefaultDependencyEnabled = true

	DefaultSizeMaxFiles         = 50
	DefaultSizeMaxSizeMB        = 5.0
	DefaultConflictCheckDeps    = true
	DefaultCoverageRequireTests = false

	DefaultSemanticModel          = "gpt-4o-mini"
	DefaultSemanticMaxAttempts    = 3
	DefaultSemanticCallTimeoutSec = 30

	DefaultGraphProximityDepth = 3
)
