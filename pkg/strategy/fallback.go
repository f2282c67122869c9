package strategy

import (
	"fmt"

	"github.com/Sumatoshi-tech/prfang/pkg/changegraph"
)

// fallbackConfidence is deliberately low: the fallback claims files only to
// guarantee coverage, not because it understands them.
const fallbackConfidence = 0.1

// Fallback is the size-based coverage guarantee. It runs after the
// concurrent strategies have fanned in, claiming every file no gathered
// candidate covers into size-bounded groups. With every other strategy
// disabled or failed it alone still yields a complete, size-compliant
// partition.
type Fallback struct{}

// NewFallback creates the size-based fallback.
func NewFallback() *Fallback { return &Fallback{} }

// Name identifies fallback candidates in merger output.
func (*Fallback) Name() string { return NameFallback }

// Priority is the lowest of all strategies.
func (*Fallback) Priority() int { return PriorityFallback }

// Complete returns candidates covering every file of the graph that no
// gathered candidate claims, chunked into groups of at most maxFiles in
// sorted path order.
func (f *Fallback) Complete(graph *changegraph.Graph, gathered []CandidateGroup, maxFiles int) []CandidateGroup {
	if maxFiles <= 0 {
		maxFiles = DefaultFallbackMaxFiles
	}

	claimed := make(map[string]struct{})

	for _, c := range gathered {
		for _, path := range c.Files {
			claimed[path] = struct{}{}
		}
	}

	var unclaimed []string

	for _, path := range graph.Paths() {
		if _, ok := claimed[path]; !ok {
			unclaimed = append(unclaimed, path)
		}
	}

	if len(unclaimed) == 0 {
		return nil
	}

	total := (len(unclaimed) + maxFiles - 1) / maxFiles

	var candidates []CandidateGroup

	for start := 0; start < len(unclaimed); start += maxFiles {
		end := min(start+maxFiles, len(unclaimed))

		part := len(candidates) + 1
		rationale := fmt.Sprintf("size-bounded fallback group %d/%d for otherwise unclaimed files", part, total)

		candidates = append(candidates,
			newCandidate(unclaimed[start:end], NameFallback, PriorityFallback, rationale, fallbackConfidence))
	}

	return candidates
}
