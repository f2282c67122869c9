package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal         = "prfang.pipeline.runs.total"
	metricGroupsTotal       = "prfang.pipeline.groups.total"
	metricGroupRisk         = "prfang.pipeline.group.risk"
	metricStrategyDuration  = "prfang.strategy.duration.seconds"
	metricStrategyProposals = "prfang.strategy.proposals.total"
	metricStrategyFailures  = "prfang.strategy.failures.total"
	metricCycleDetections   = "prfang.ordering.cycles.total"
	metricCacheHitsTotal    = "prfang.semantic.cache.hits.total"
	metricCacheMissesTotal  = "prfang.semantic.cache.misses.total"

	attrStrategy = "strategy"
)

// riskBucketBoundaries spans the 0-100 risk score scale.
var riskBucketBoundaries = []float64{0, 10, 25, 50, 75, 90, 100}

// PipelineMetrics holds OTel instruments for recommendation-pipeline metrics.
// It implements the strategy engine's Observer interface, so a single value
// wired at construction covers both per-strategy and per-run recording.
type PipelineMetrics struct {
	runsTotal         metric.Int64Counter
	groupsTotal       metric.Int64Counter
	groupRisk         metric.Float64Histogram
	strategyDuration  metric.Float64Histogram
	strategyProposals metric.Int64Counter
	strategyFailures  metric.Int64Counter
	cycleDetections   metric.Int64Counter
	cacheHits         metric.Int64Counter
	cacheMisses       metric.Int64Counter
}

// RunStats holds the statistics for a single completed pipeline run.
type RunStats struct {
	Groups            int
	GroupRisks        []int
	CycleDetected     bool
	SemanticCacheHits int64
	SemanticCacheMiss int64
	Status            string
}

// NewPipelineMetrics creates pipeline metric instruments from the given meter.
func NewPipelineMetrics(mt metric.Meter) (*PipelineMetrics, error) {
	b := newMetricBuilder(mt)

	pm := &PipelineMetrics{
		runsTotal:         b.counter(metricRunsTotal, "Total pipeline runs by status", "{run}"),
		groupsTotal:       b.counter(metricGroupsTotal, "Total recommendation groups produced", "{group}"),
		groupRisk:         b.histogram(metricGroupRisk, "Per-group risk score distribution", "1", riskBucketBoundaries...),
		strategyDuration:  b.histogram(metricStrategyDuration, "Per-strategy proposal duration in seconds", "s", durationBucketBoundaries...),
		strategyProposals: b.counter(metricStrategyProposals, "Candidate groups proposed by strategy", "{group}"),
		strategyFailures:  b.counter(metricStrategyFailures, "Strategy failures by strategy", "{failure}"),
		cycleDetections:   b.counter(metricCycleDetections, "Dependency cycles detected during ordering", "{cycle}"),
		cacheHits:         b.counter(metricCacheHitsTotal, "Semantic proposal cache hits", "{hit}"),
		cacheMisses:       b.counter(metricCacheMissesTotal, "Semantic proposal cache misses", "{miss}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return pm, nil
}

// StrategyDone records one strategy's outcome. It satisfies the strategy
// engine Observer interface. Safe to call on a nil receiver (no-op).
func (pm *PipelineMetrics) StrategyDone(
	ctx context.Context, name string, candidates int, err error, elapsed time.Duration,
) {
	if pm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStrategy, name))

	pm.strategyDuration.Record(ctx, elapsed.Seconds(), attrs)

	if err != nil {
		pm.strategyFailures.Add(ctx, 1, attrs)

		return
	}

	pm.strategyProposals.Add(ctx, int64(candidates), attrs)
}

// RecordRun records the statistics for a completed pipeline run.
// Safe to call on a nil receiver (no-op).
func (pm *PipelineMetrics) RecordRun(ctx context.Context, stats RunStats) {
	if pm == nil {
		return
	}

	pm.runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, stats.Status)))
	pm.groupsTotal.Add(ctx, int64(stats.Groups))

	for _, risk := range stats.GroupRisks {
		pm.groupRisk.Record(ctx, float64(risk))
	}

	if stats.CycleDetected {
		pm.cycleDetections.Add(ctx, 1)
	}

	pm.cacheHits.Add(ctx, stats.SemanticCacheHits)
	pm.cacheMisses.Add(ctx, stats.SemanticCacheMiss)
}
