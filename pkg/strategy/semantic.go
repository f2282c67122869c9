package strategy

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/prfang/pkg/changegraph"
	"github.com/Sumatoshi-tech/prfang/pkg/llm"
)

// Semantic asks a language-understanding service to partition the change
// set. The service is an injected llm.Proposer; on failure or malformed
// response the strategy returns an error and contributes nothing — it never
// fabricates a group.
type Semantic struct {
	proposer llm.Proposer
}

// NewSemantic creates the semantic strategy around an injected proposer.
// Callers typically wrap the proposer with llm.WithRetry and llm.WithCache.
func NewSemantic(proposer llm.Proposer) *Semantic {
	return &Semantic{proposer: proposer}
}

// Name implements Strategy.
func (*Semantic) Name() string { return NameSemantic }

// Priority implements Strategy.
func (*Semantic) Priority() int { return PrioritySemantic }

// Propose batches the change set within the configured size budget and
// requests one proposal per batch. A failed batch fails the whole strategy:
// a half-seen change set would bias the merger toward whichever batches
// happened to succeed.
func (s *Semantic) Propose(ctx context.Context, graph *changegraph.Graph, cfg Config) ([]CandidateGroup, error) {
	if !cfg.Semantic.Enabled {
		return nil, nil
	}

	if s.proposer == nil {
		return nil, fmt.Errorf("%w: no proposer configured", llm.ErrServiceUnavailable)
	}

	var candidates []CandidateGroup

	for _, batch := range SplitBatches(graph, cfg.Semantic.MaxBatchFiles) {
		proposal, err := s.proposer.ProposeGroups(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("semantic proposal: %w", err)
		}

		for _, g := range proposal.Groups {
			candidates = append(candidates,
				newCandidate(g.Files, NameSemantic, PrioritySemantic, g.Rationale, g.Confidence))
		}
	}

	return candidates, nil
}

// SplitBatches partitions the graph's files into service batches of at most
// maxFiles each, in sorted path order so batch boundaries are stable across
// runs and the proposal cache stays effective.
func SplitBatches(graph *changegraph.Graph, maxFiles int) []llm.Batch {
	if maxFiles <= 0 {
		maxFiles = DefaultSemanticMaxBatchFiles
	}

	paths := graph.Paths()

	var batches []llm.Batch

	for start := 0; start < len(paths); start += maxFiles {
		end := min(start+maxFiles, len(paths))

		batch := llm.Batch{Files: make([]llm.BatchFile, 0, end-start)}

		for _, path := range paths[start:end] {
			f, _ := graph.File(path)
			batch.Files = append(batch.Files, llm.BatchFile{
				Path:     f.Path,
				Kind:     string(f.Kind),
				Language: f.Language,
				Added:    f.Added,
				Removed:  f.Removed,
			})
		}

		batches = append(batches, batch)
	}

	return batches
}
