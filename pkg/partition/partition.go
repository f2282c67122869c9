// Package partition reconciles the overlapping candidate groups gathered
// from all strategies into a single partition of the change set: every file
// in exactly one group.
package partition

import (
	"errors"
	"fmt"
	"sort"
)

// OriginUncovered tags single-file groups created for files no candidate
// claimed.
const OriginUncovered = "uncovered"

// Sentinel errors for partition invariant checks.
var (
	// ErrFileMissing indicates the partition does not cover a changed file.
	ErrFileMissing = errors.New("partition: file not covered by any group")
	// ErrFileDuplicated indicates a file appears in more than one group.
	ErrFileDuplicated = errors.New("partition: file covered by multiple groups")
	// ErrFileUnknown indicates a group contains a file outside the change set.
	ErrFileUnknown = errors.New("partition: group contains unknown file")
)

// Group is a committed candidate inside a partition.
type Group struct {
	// Files is the sorted member paths.
	Files []string `json:"files"`
	// Origin is the tag of the strategy that produced the group, or
	// OriginUncovered.
	Origin string `json:"origin"`
	// Rationale is carried over from the winning candidate.
	Rationale string `json:"rationale"`
	// Confidence is carried over from the winning candidate.
	Confidence float64 `json:"confidence"`
	// Score is the merger score the candidate won with.
	Score float64 `json:"score"`
}

// Partition is a set of groups covering every changed file exactly once.
type Partition struct {
	Groups []Group `json:"groups"`
}

// Check verifies the two partition invariants against the full file set:
// totality (every file covered) and uniqueness (no file covered twice).
func (p *Partition) Check(allFiles []string) error {
	covered := make(map[string]int)

	for _, g := range p.Groups {
		for _, f := range g.Files {
			covered[f]++
		}
	}

	for _, f := range allFiles {
		switch covered[f] {
		case 0:
			return fmt.Errorf("%w: %s", ErrFileMissing, f)
		case 1:
			// Exactly once: the invariant.
		default:
			return fmt.Errorf("%w: %s", ErrFileDuplicated, f)
		}
	}

	known := make(map[string]struct{}, len(allFiles))
	for _, f := range allFiles {
		known[f] = struct{}{}
	}

	for _, g := range p.Groups {
		for _, f := range g.Files {
			if _, ok := known[f]; !ok {
				return fmt.Errorf("%w: %s", ErrFileUnknown, f)
			}
		}
	}

	return nil
}

// Len returns the number of groups.
func (p *Partition) Len() int {
	return len(p.Groups)
}

// sortGroups orders groups deterministically by their smallest file path.
func sortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Files[0] < groups[j].Files[0]
	})
}

// FromGroups builds a partition from caller-supplied groups, verifying the
// invariants against the change set. Used when a caller submits its own
// grouping for feasibility analysis.
func FromGroups(groups []Group, allFiles []string) (*Partition, error) {
	for i := range groups {
		sort.Strings(groups[i].Files)
	}

	p := &Partition{Groups: groups}

	err := p.Check(allFiles)
	if err != nil {
		return nil, err
	}

	sortGroups(p.Groups)

	return p, nil
}
