// Package mergeorder turns a validated partition into dependency-ordered PR
// recommendations: it topologically sorts groups by their import coupling,
// refuses cyclic cases, and checks that every group is atomic at its
// assigned position in the merge order.
package mergeorder

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/prfang/pkg/changegraph"
	"github.com/Sumatoshi-tech/prfang/pkg/feasibility"
	"github.com/Sumatoshi-tech/prfang/pkg/partition"
)

// idLen is the length of the hex recommendation id derived from the content
// hash of the file set.
const idLen = 12

// AtomicityViolation reports a file importing a symbol whose only exporters
// merge later. Attached to the offending recommendation; the orderer never
// reorders to fix it.
type AtomicityViolation struct {
	// File is the importing file in this group.
	File string `json:"file"`
	// Symbol is the imported symbol.
	Symbol string `json:"symbol"`
	// ExportedBy is the id of the higher-ranked recommendation exporting it.
	ExportedBy string `json:"exported_by"`
}

func (v AtomicityViolation) String() string {
	return fmt.Sprintf("%s imports %q exported only by later recommendation %s", v.File, v.Symbol, v.ExportedBy)
}

// PRRecommendation is one ordered, immutable pull-request proposal. Created
// once from a validated group; callers re-run the pipeline for a fresh set
// rather than mutating an existing one.
type PRRecommendation struct {
	// ID is derived from the content hash of the file set, stable across runs.
	ID string `json:"id"`
	// Files is the sorted member paths.
	Files []string `json:"files"`
	// Title is a generated one-line summary.
	Title string `json:"title"`
	// Description is the generated review rationale.
	Description string `json:"description"`
	// Branch is a suggested branch name derived from the title.
	Branch string `json:"branch"`
	// Risk echoes the group's validation risk score.
	Risk int `json:"risk"`
	// Rank is the assigned merge-order position, 0-based.
	Rank int `json:"rank"`
	// DependsOn lists the ids of recommendations that must merge first.
	DependsOn []string `json:"depends_on,omitempty"`
	// Violations carries the group's rule violations, if any.
	Violations []string `json:"violations,omitempty"`
	// Atomicity lists ordering inconsistencies detected for this group.
	Atomicity []AtomicityViolation `json:"atomicity,omitempty"`
	// Feasible is false when a fatal validation rule failed.
	Feasible bool `json:"feasible"`
}

// RecommendationID returns the stable id for a file set: a truncated sha256
// over the sorted paths.
func RecommendationID(files []string) string {
	h := sha256.New()

	for _, f := range files {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))[:idLen]
}

var branchCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// branchName derives a git-friendly branch name from a title.
func branchName(title string) string {
	slug := branchCleaner.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")

	const maxSlug = 48
	if len(slug) > maxSlug {
		slug = strings.Trim(slug[:maxSlug], "-")
	}

	return "pr/" + slug
}

// buildTitle summarizes a group for humans: its dominant directory and size.
func buildTitle(group partition.Group) string {
	dir := dominantDir(group.Files)

	switch {
	case len(group.Files) == 1:
		return fmt.Sprintf("Update %s", group.Files[0])
	case dir != "":
		return fmt.Sprintf("Update %s (%d files)", dir, len(group.Files))
	default:
		return fmt.Sprintf("Grouped changes (%d files)", len(group.Files))
	}
}

// buildDescription renders the rationale plus a change summary.
func buildDescription(group partition.Group, graph *changegraph.Graph) string {
	var sb strings.Builder

	if group.Rationale != "" {
		sb.WriteString(strings.ToUpper(group.Rationale[:1]) + group.Rationale[1:])
		sb.WriteString(".\n\n")
	}

	added, removed := 0, 0

	for _, f := range group.Files {
		cf, ok := graph.File(f)
		if !ok {
			continue
		}

		added += cf.Added
		removed += cf.Removed
	}

	fmt.Fprintf(&sb, "Touches %s across %d file(s): +%d/-%d lines.",
		humanize.Comma(int64(added+removed)), len(group.Files), added, removed)

	return sb.String()
}

// dominantDir returns the directory holding the majority of the group's
// files, or empty when no directory dominates.
func dominantDir(files []string) string {
	counts := make(map[string]int)

	for _, f := range files {
		counts[path.Dir(f)]++
	}

	best, bestCount := "", 0

	for dir, count := range counts {
		if count > bestCount || (count == bestCount && dir < best) {
			best, bestCount = dir, count
		}
	}

	if bestCount*2 <= len(files) || best == "." {
		return ""
	}

	return best
}

// riskOf returns the validation risk for a group index, 0 when the index has
// no result.
func riskOf(results []feasibility.GroupResult, idx int) int {
	for _, r := range results {
		if r.GroupIndex == idx {
			return r.Risk
		}
	}

	return 0
}
