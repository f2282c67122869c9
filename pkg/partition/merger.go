package partition

import (
	"sort"

	"github.com/Sumatoshi-tech/prfang/pkg/strategy"
)

// overlapPenaltyStep is the score penalty per other candidate sharing at
// least one file. Contested candidates sink in the processing order.
const overlapPenaltyStep = 0.05

// scored pairs a candidate with its merger score.
type scored struct {
	candidate strategy.CandidateGroup
	score     float64
}

// Merge reconciles the unioned candidates from all strategies into exactly
// one partition of allFiles.
//
// Candidates are scored by confidence x strategy weight minus an overlap
// penalty that grows with the number of other candidates sharing files. They
// are then processed in descending score order and committed greedily: a
// candidate enters the partition only if none of its files are already
// claimed (first claim wins). Ties break by strategy priority, then by the
// lexicographically smallest file path in the group, so the outcome is
// deterministic. Files left unclaimed afterwards become single-file groups
// of origin "uncovered", which makes totality and uniqueness hold
// unconditionally.
func Merge(candidates []strategy.CandidateGroup, allFiles []string, cfg strategy.Config) *Partition {
	ranked := scoreCandidates(candidates, cfg)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}

		if a.candidate.Priority != b.candidate.Priority {
			return a.candidate.Priority < b.candidate.Priority
		}

		return smallestFile(a.candidate) < smallestFile(b.candidate)
	})

	claimed := make(map[string]struct{}, len(allFiles))

	var groups []Group

	for _, r := range ranked {
		if conflicts(r.candidate, claimed) {
			continue
		}

		for _, f := range r.candidate.Files {
			claimed[f] = struct{}{}
		}

		groups = append(groups, Group{
			Files:      append([]string(nil), r.candidate.Files...),
			Origin:     r.candidate.Strategy,
			Rationale:  r.candidate.Rationale,
			Confidence: r.candidate.Confidence,
			Score:      r.score,
		})
	}

	// Totality: leftover files become uncovered singletons.
	leftovers := make([]string, 0)

	for _, f := range allFiles {
		if _, ok := claimed[f]; !ok {
			leftovers = append(leftovers, f)
		}
	}

	sort.Strings(leftovers)

	for _, f := range leftovers {
		groups = append(groups, Group{
			Files:     []string{f},
			Origin:    OriginUncovered,
			Rationale: "no strategy claimed this file",
		})
	}

	sortGroups(groups)

	return &Partition{Groups: groups}
}

// scoreCandidates computes confidence x weight - overlap penalty for each
// candidate. Candidates with no files are dropped.
func scoreCandidates(candidates []strategy.CandidateGroup, cfg strategy.Config) []scored {
	owners := make(map[string]int)

	for _, c := range candidates {
		for _, f := range c.Files {
			owners[f]++
		}
	}

	ranked := make([]scored, 0, len(candidates))

	for _, c := range candidates {
		if len(c.Files) == 0 {
			continue
		}

		contested := 0

		for _, f := range c.Files {
			if owners[f] > 1 {
				contested++
			}
		}

		penalty := overlapPenaltyStep * float64(contested)
		weight := cfg.Weight(c.Strategy)

		ranked = append(ranked, scored{
			candidate: c,
			score:     c.Confidence*weight - penalty,
		})
	}

	return ranked
}

func conflicts(c strategy.CandidateGroup, claimed map[string]struct{}) bool {
	for _, f := range c.Files {
		if _, taken := claimed[f]; taken {
			return true
		}
	}

	return false
}

func smallestFile(c strategy.CandidateGroup) string {
	// Candidate files are sorted at construction.
	return c.Files[0]
}
