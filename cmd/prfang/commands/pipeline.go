package commands

import (
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/prfang/internal/config"
	"github.com/Sumatoshi-tech/prfang/pkg/llm"
	"github.com/Sumatoshi-tech/prfang/pkg/recommend"
	"github.com/Sumatoshi-tech/prfang/pkg/strategy"
)

// engineDeps bundles everything needed to assemble a pipeline from loaded
// configuration: the strategy set only varies with the semantic service
// wiring, so it is built once and shared across pipeline configs.
type engineDeps struct {
	engine  *strategy.Engine
	cache   *llm.ProposalCache
	factory func(recommend.Config) *recommend.Pipeline
}

// buildEngine assembles the strategy engine and pipeline factory from the
// loaded configuration. The semantic strategy is wired only when enabled:
// OpenAI proposer, retry decoration, then the shared proposal cache.
func buildEngine(
	cfg *config.Config,
	logger *slog.Logger,
	observer strategy.Observer,
	tracer trace.Tracer,
) (*engineDeps, error) {
	strategies := []strategy.Strategy{
		strategy.NewDependency(),
		strategy.NewDirectory(),
	}

	deps := &engineDeps{}

	if cfg.Strategies.SemanticGrouping.Enabled {
		proposer, err := llm.NewOpenAIProposer(llm.OpenAIConfig{
			APIKey:         cfg.Semantic.APIKey,
			Model:          cfg.Semantic.Model,
			Temperature:    float32(cfg.Strategies.SemanticGrouping.Temperature),
			PromptTemplate: cfg.Strategies.SemanticGrouping.PromptTemplate,
			Logger:         logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build semantic proposer: %w", err)
		}

		retried := llm.WithRetry(proposer, llm.RetryOptions{
			MaxAttempts: cfg.Semantic.MaxAttempts,
			CallTimeout: time.Duration(cfg.Semantic.CallTimeoutSec) * time.Second,
		})

		deps.cache = llm.NewProposalCache()
		strategies = append(strategies, strategy.NewSemantic(llm.WithCache(retried, deps.cache)))
	}

	engineOpts := []strategy.EngineOption{strategy.WithLogger(logger)}
	if observer != nil {
		engineOpts = append(engineOpts, strategy.WithObserver(observer))
	}

	deps.engine = strategy.NewEngine(strategies, engineOpts...)

	deps.factory = func(engineCfg recommend.Config) *recommend.Pipeline {
		opts := []recommend.Option{recommend.WithLogger(logger)}
		if tracer != nil {
			opts = append(opts, recommend.WithTracer(tracer))
		}

		return recommend.NewPipeline(deps.engine, engineCfg, opts...)
	}

	return deps, nil
}
