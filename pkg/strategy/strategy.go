// Package strategy runs the competing grouping strategies over a change
// graph. Each strategy is a pure function of the graph and immutable config;
// the engine fans them out concurrently and fans their candidates back in.
package strategy

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/prfang/pkg/changegraph"
)

// Strategy name tags. The tag on a CandidateGroup identifies its origin.
const (
	NameSemantic   = "semantic_grouping"
	NameDirectory  = "directory_based"
	NameDependency = "dependency_analysis"
	NameFallback   = "size_fallback"
)

// Strategy priorities for deterministic tie-breaking in the merger.
// Lower wins.
const (
	PrioritySemantic   = 0
	PriorityDependency = 1
	PriorityDirectory  = 2
	PriorityFallback   = 3
)

// Default per-strategy score weights.
const (
	DefaultWeightSemantic   = 1.0
	DefaultWeightDependency = 0.9
	DefaultWeightDirectory  = 0.7
	DefaultWeightFallback   = 0.3
)

// CandidateGroup is one strategy's proposed clustering of files into a
// prospective PR. Produced by exactly one strategy invocation and never
// mutated afterwards; superseded candidates are discarded, not edited.
type CandidateGroup struct {
	// Files is the sorted set of member paths.
	Files []string `json:"files"`
	// Strategy is the origin tag.
	Strategy string `json:"strategy"`
	// Priority is the origin strategy's tie-break priority.
	Priority int `json:"priority"`
	// Rationale explains why these files belong together.
	Rationale string `json:"rationale"`
	// Confidence is the strategy's own estimate in [0,1].
	Confidence float64 `json:"confidence"`
}

// newCandidate builds a CandidateGroup with sorted, deduplicated files.
func newCandidate(files []string, name string, priority int, rationale string, confidence float64) CandidateGroup {
	sorted := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))

	for _, f := range files {
		if _, dup := seen[f]; dup {
			continue
		}

		seen[f] = struct{}{}
		sorted = append(sorted, f)
	}

	sort.Strings(sorted)

	return CandidateGroup{
		Files:      sorted,
		Strategy:   name,
		Priority:   priority,
		Rationale:  rationale,
		Confidence: confidence,
	}
}

// Strategy proposes candidate groups for a change graph. Implementations
// must be side-effect-free with respect to the graph and config, and must
// honor context cancellation on any blocking work.
type Strategy interface {
	// Name returns the strategy's origin tag.
	Name() string
	// Priority returns the deterministic tie-break priority. Lower wins.
	Priority() int
	// Propose returns zero or more candidate groups.
	Propose(ctx context.Context, graph *changegraph.Graph, cfg Config) ([]CandidateGroup, error)
}

// Failure records a strategy that contributed nothing. Failures degrade the
// run; they never abort it.
type Failure struct {
	Strategy string `json:"strategy"`
	Reason   string `json:"reason"`
}

// Engine fans enabled strategies out concurrently and gathers candidates.
type Engine struct {
	strategies []Strategy
	logger     *slog.Logger
	observer   Observer
}

// Observer receives per-strategy timing callbacks. Nil methods are not
// called; a zero Engine observer is a no-op.
type Observer interface {
	StrategyDone(ctx context.Context, name string, candidates int, err error, elapsed time.Duration)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithObserver sets the per-strategy observer.
func WithObserver(obs Observer) EngineOption {
	return func(e *Engine) { e.observer = obs }
}

// NewEngine creates an engine over the given strategies. Order is preserved
// for reporting; execution is concurrent.
func NewEngine(strategies []Strategy, opts ...EngineOption) *Engine {
	e := &Engine{strategies: strategies, logger: slog.Default()}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Strategies returns the configured strategies in registration order.
func (e *Engine) Strategies() []Strategy {
	return e.strategies
}

// Propose runs every strategy concurrently against the graph and returns the
// unioned candidates plus the failures of strategies that yielded nothing.
// Strategies share no mutable state; each receives only the graph and the
// immutable config. A canceled context stops strategies early and returns
// whatever candidates were gathered — partial results are valid input for
// the merger.
func (e *Engine) Propose(ctx context.Context, graph *changegraph.Graph, cfg Config) ([]CandidateGroup, []Failure) {
	results := make([][]CandidateGroup, len(e.strategies))
	errs := make([]error, len(e.strategies))

	grp, grpCtx := errgroup.WithContext(ctx)

	for i, s := range e.strategies {
		grp.Go(func() error {
			start := time.Now()

			candidates, err := s.Propose(grpCtx, graph, cfg)

			if e.observer != nil {
				e.observer.StrategyDone(grpCtx, s.Name(), len(candidates), err, time.Since(start))
			}

			results[i] = candidates
			errs[i] = err

			// Strategy failures degrade, never abort.
			return nil
		})
	}

	// Error is structurally impossible: every goroutine returns nil.
	_ = grp.Wait()

	var (
		candidates []CandidateGroup
		failures   []Failure
	)

	for i, s := range e.strategies {
		if errs[i] != nil {
			e.logger.Warn("strategy yielded no candidates",
				"strategy", s.Name(), "error", errs[i])

			failures = append(failures, Failure{Strategy: s.Name(), Reason: errs[i].Error()})

			continue
		}

		candidates = append(candidates, results[i]...)
	}

	return candidates, failures
}
