package recommend

import "github.com/Sumatoshi-tech/prfang/pkg/strategy"

// StrategyOption describes one grouping strategy for static introspection.
type StrategyOption struct {
	Name        string  `json:"name"`
	Enabled     bool    `json:"enabled"`
	Priority    int     `json:"priority"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// strategyDescriptions documents each strategy for callers listing options.
var strategyDescriptions = map[string]string{
	strategy.NameSemantic:   "LLM-assisted grouping by change intent; requires a configured service credential",
	strategy.NameDependency: "connected components of the import graph",
	strategy.NameDirectory:  "common path prefix up to the configured depth",
	strategy.NameFallback:   "size-bounded coverage guarantee for unclaimed files; always available",
}

// StrategyOptions returns the static description of every strategy under the
// given configuration, in priority order.
func StrategyOptions(cfg strategy.Config) []StrategyOption {
	return []StrategyOption{
		{
			Name:        strategy.NameSemantic,
			Enabled:     cfg.Semantic.Enabled,
			Priority:    strategy.PrioritySemantic,
			Weight:      cfg.Weight(strategy.NameSemantic),
			Description: strategyDescriptions[strategy.NameSemantic],
		},
		{
			Name:        strategy.NameDependency,
			Enabled:     cfg.Dependency.Enabled,
			Priority:    strategy.PriorityDependency,
			Weight:      cfg.Weight(strategy.NameDependency),
			Description: strategyDescriptions[strategy.NameDependency],
		},
		{
			Name:        strategy.NameDirectory,
			Enabled:     cfg.Directory.Enabled,
			Priority:    strategy.PriorityDirectory,
			Weight:      cfg.Weight(strategy.NameDirectory),
			Description: strategyDescriptions[strategy.NameDirectory],
		},
		{
			Name:        strategy.NameFallback,
			Enabled:     true,
			Priority:    strategy.PriorityFallback,
			Weight:      cfg.Weight(strategy.NameFallback),
			Description: strategyDescriptions[strategy.NameFallback],
		},
	}
}
