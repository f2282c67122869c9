// Package recommend orchestrates the full grouping pipeline: changed files
// in, dependency-ordered PR recommendations out. Data flows one way through
// graph construction, strategy fan-out, merging, validation, and ordering;
// the whole run is a pure transformation over its inputs.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/prfang/pkg/changegraph"
	"github.com/Sumatoshi-tech/prfang/pkg/changeset"
	"github.com/Sumatoshi-tech/prfang/pkg/feasibility"
	"github.com/Sumatoshi-tech/prfang/pkg/mergeorder"
	"github.com/Sumatoshi-tech/prfang/pkg/partition"
	"github.com/Sumatoshi-tech/prfang/pkg/strategy"
)

// Status summarizes how a run went.
type Status string

const (
	// StatusOK means every enabled strategy contributed.
	StatusOK Status = "ok"
	// StatusDegraded means at least one strategy failed but the fallback
	// covered its files.
	StatusDegraded Status = "degraded"
	// StatusFailed means a fatal structural error aborted the run.
	StatusFailed Status = "failed"
)

// Config bundles the immutable per-run configuration threaded through every
// component call.
type Config struct {
	Graph      changegraph.Options
	Strategies strategy.Config
	Rules      feasibility.Rules
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Strategies: strategy.DefaultConfig(),
		Rules:      feasibility.DefaultRules(),
	}
}

// Result is the outcome of one grouping run. On a cycle failure the partial
// state gathered so far (graph, partition, validation) still accompanies the
// error so a caller can diagnose without re-running.
type Result struct {
	// Recommendations is the dependency-ordered output, empty on failure.
	Recommendations []mergeorder.PRRecommendation `json:"recommendations"`
	// Validation holds the per-group rule results for the final partition.
	Validation []feasibility.GroupResult `json:"validation"`
	// Partition is the merged partition the recommendations came from.
	Partition *partition.Partition `json:"partition,omitempty"`
	// Graph is the change graph built for the run.
	Graph *changegraph.Graph `json:"-"`
	// Status is ok, degraded, or failed.
	Status Status `json:"status"`
	// StrategyFailures lists strategies that contributed nothing.
	StrategyFailures []strategy.Failure `json:"strategy_failures,omitempty"`
}

// Pipeline runs the grouping engine. Construct once and reuse across runs;
// it holds no per-run state.
type Pipeline struct {
	engine   *strategy.Engine
	fallback *strategy.Fallback
	cfg      Config
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithTracer enables per-stage spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = tracer }
}

// NewPipeline creates a pipeline over the given strategy engine and config.
func NewPipeline(engine *strategy.Engine, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:   engine,
		fallback: strategy.NewFallback(),
		cfg:      cfg,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run executes the full pipeline over the changed files. Cancellation stops
// outstanding strategy work; candidates gathered before the cancel still
// feed the merger, and the fallback completes the partition regardless.
func (p *Pipeline) Run(ctx context.Context, files []changeset.ChangedFile) (*Result, error) {
	ctx, end := p.startSpan(ctx, "pipeline.run", len(files))
	defer end()

	if err := changeset.ValidateFiles(files); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	graph, err := changegraph.Build(files, p.cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	candidates, failures := p.engine.Propose(ctx, graph, p.cfg.Strategies)
	candidates = append(candidates, p.fallback.Complete(graph, candidates, p.cfg.Strategies.Fallback.MaxFiles)...)

	allFiles := graph.Paths()

	merged := partition.Merge(candidates, allFiles, p.cfg.Strategies)

	if checkErr := merged.Check(allFiles); checkErr != nil {
		// The merger guarantees both invariants unconditionally; a violation
		// here is a bug, not bad input.
		return nil, fmt.Errorf("merger invariant broken: %w", checkErr)
	}

	validation := feasibility.Validate(merged, graph, p.cfg.Rules)

	result := &Result{
		Validation:       validation,
		Partition:        merged,
		Graph:            graph,
		StrategyFailures: failures,
		Status:           StatusOK,
	}

	if len(failures) > 0 {
		result.Status = StatusDegraded
	}

	recs, orderErr := mergeorder.Order(merged, graph, validation)
	if orderErr != nil {
		result.Status = StatusFailed

		p.logger.Error("ordering failed", "error", orderErr)

		// The partial state accompanies the cycle error for diagnosis.
		return result, orderErr
	}

	result.Recommendations = recs

	p.logger.Info("grouping run complete",
		"files", len(files),
		"groups", merged.Len(),
		"recommendations", len(recs),
		"status", result.Status)

	return result, nil
}

// AnalyzeFeasibility runs only the validation engine against a
// caller-supplied partition of the changed files. The groups must satisfy
// the partition invariants; violations are invalid input, not rule failures.
func (p *Pipeline) AnalyzeFeasibility(files []changeset.ChangedFile, groups []partition.Group) ([]feasibility.GroupResult, error) {
	if err := changeset.ValidateFiles(files); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	graph, err := changegraph.Build(files, p.cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	part, err := partition.FromGroups(groups, graph.Paths())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	return feasibility.Validate(part, graph, p.cfg.Rules), nil
}

// ValidateRecommendations re-runs validation and ordering against a
// previously produced or caller-edited recommendation set, supporting
// iterative refinement without re-running the expensive strategies.
//
// Ranks are always recomputed from the import coupling, but the caller's
// stated order is audited first: a group importing a symbol whose only
// exporters the caller ranked later gets the atomicity violations attached
// to its recommendation in the output.
func (p *Pipeline) ValidateRecommendations(files []changeset.ChangedFile, recs []mergeorder.PRRecommendation) (*Result, error) {
	groups := make([]partition.Group, 0, len(recs))

	for _, rec := range recs {
		groups = append(groups, partition.Group{
			Files:     rec.Files,
			Origin:    "caller",
			Rationale: rec.Title,
		})
	}

	if err := changeset.ValidateFiles(files); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	graph, err := changegraph.Build(files, p.cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	part, err := partition.FromGroups(groups, graph.Paths())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	validation := feasibility.Validate(part, graph, p.cfg.Rules)

	result := &Result{
		Validation: validation,
		Partition:  part,
		Graph:      graph,
		Status:     StatusOK,
	}

	ordered, orderErr := mergeorder.Order(part, graph, validation)
	if orderErr != nil {
		result.Status = StatusFailed

		return result, orderErr
	}

	auditCallerOrder(ordered, part, graph, callerRanks(recs))

	result.Recommendations = ordered

	return result, nil
}

// callerRanks extracts the merge order the caller stated, keyed by
// recommendation id. When the Rank fields do not form a permutation of
// 0..n-1 the slice position stands in for the rank.
func callerRanks(recs []mergeorder.PRRecommendation) map[string]int {
	seen := make(map[int]bool, len(recs))
	permutation := true

	for _, rec := range recs {
		if rec.Rank < 0 || rec.Rank >= len(recs) || seen[rec.Rank] {
			permutation = false

			break
		}

		seen[rec.Rank] = true
	}

	ranks := make(map[string]int, len(recs))

	for i, rec := range recs {
		files := append([]string(nil), rec.Files...)
		sort.Strings(files)

		rank := i
		if permutation {
			rank = rec.Rank
		}

		ranks[mergeorder.RecommendationID(files)] = rank
	}

	return ranks
}

// auditCallerOrder re-checks atomicity against the caller's stated merge
// order and attaches the violations to the matching output recommendations.
// The recomputed ranks are kept; the caller's order is reported on, never
// silently trusted.
func auditCallerOrder(ordered []mergeorder.PRRecommendation, part *partition.Partition, graph *changegraph.Graph, stated map[string]int) {
	ranks := make([]int, len(part.Groups))

	for gi, g := range part.Groups {
		rank, ok := stated[mergeorder.RecommendationID(g.Files)]
		if !ok {
			return
		}

		ranks[gi] = rank
	}

	byID := make(map[string]int, len(ordered))
	for i, rec := range ordered {
		byID[rec.ID] = i
	}

	for gi, violations := range mergeorder.AuditRanks(part, graph, ranks) {
		if len(violations) == 0 {
			continue
		}

		if idx, ok := byID[mergeorder.RecommendationID(part.Groups[gi].Files)]; ok {
			ordered[idx].Atomicity = violations
		}
	}
}

// IsFatal reports whether an error from Run aborts the pipeline by design.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, mergeorder.ErrCyclicDependency)
}

func (p *Pipeline) startSpan(ctx context.Context, name string, fileCount int) (context.Context, func()) {
	if p.tracer == nil {
		return ctx, func() {}
	}

	ctx, span := p.tracer.Start(ctx, name,
		trace.WithAttributes(attribute.Int("changeset.files", fileCount)))

	return ctx, func() { span.End() }
}
