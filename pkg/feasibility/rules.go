// Package feasibility applies the configured validation rules to a proposed
// partition, producing per-group pass/fail results and a risk score. Rules
// only read static signals; nothing here builds, tests, or merges.
package feasibility

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/prfang/pkg/changegraph"
	"github.com/Sumatoshi-tech/prfang/pkg/changeset"
	"github.com/Sumatoshi-tech/prfang/pkg/partition"
)

// Rule names.
const (
	RuleSize     = "size_check"
	RuleConflict = "conflict_check"
	RuleCoverage = "test_coverage"
)

// Rule severities used in risk weighting. Fatal rules weigh more than
// advisory ones, mirroring reviewer impact.
const (
	severityFatal    = 3
	severityAdvisory = 1
)

// Defaults for rule configuration.
const (
	DefaultMaxFiles  = 50
	DefaultMaxSizeMB = 5
)

// avgLineBytes converts changed lines to an approximate byte size for the
// size rule: an average source line is ~60 bytes.
const avgLineBytes = 60

// Rules is the immutable validation configuration.
type Rules struct {
	// SizeCheck bounds file count and cumulative change size per group.
	SizeCheck SizeCheckConfig
	// ConflictCheck controls cross-group dependency conflict detection.
	ConflictCheck ConflictCheckConfig
	// TestCoverage controls the test presence requirement.
	TestCoverage TestCoverageConfig
}

// SizeCheckConfig configures the size rule.
type SizeCheckConfig struct {
	MaxFiles  int
	MaxSizeMB float64
}

// ConflictCheckConfig configures the conflict rule.
type ConflictCheckConfig struct {
	CheckDependencies bool
}

// TestCoverageConfig configures the coverage rule.
type TestCoverageConfig struct {
	RequireTests bool
}

// DefaultRules returns the default rule configuration: size and conflict
// enforced, coverage advisory-off.
func DefaultRules() Rules {
	return Rules{
		SizeCheck:     SizeCheckConfig{MaxFiles: DefaultMaxFiles, MaxSizeMB: DefaultMaxSizeMB},
		ConflictCheck: ConflictCheckConfig{CheckDependencies: true},
	}
}

// Rule checks one property of a group against the graph and config.
// Implementations are stateless and reusable across runs.
type Rule interface {
	// Name returns the rule identifier used in violation reasons.
	Name() string
	// Fatal reports whether a failure marks the group infeasible.
	Fatal() bool
	// Severity weights the rule's failure in the risk score.
	Severity() int
	// Enabled reports whether the rule participates under this config.
	Enabled(rules Rules) bool
	// Check returns pass=false and a human-readable reason on violation.
	Check(group partition.Group, graph *changegraph.Graph, assignment map[string]int, rules Rules) (bool, string)
}

// EnabledRules returns the rules participating under the given config, in
// stable order.
func EnabledRules(rules Rules) []Rule {
	all := []Rule{sizeRule{}, conflictRule{}, coverageRule{}}

	var enabled []Rule

	for _, r := range all {
		if r.Enabled(rules) {
			enabled = append(enabled, r)
		}
	}

	return enabled
}

// sizeRule fails groups exceeding the file count or cumulative change size
// bound. Fatal by default.
type sizeRule struct{}

func (sizeRule) Name() string         { return RuleSize }
func (sizeRule) Fatal() bool          { return true }
func (sizeRule) Severity() int        { return severityFatal }
func (sizeRule) Enabled(r Rules) bool { return r.SizeCheck.MaxFiles > 0 || r.SizeCheck.MaxSizeMB > 0 }

func (sizeRule) Check(group partition.Group, graph *changegraph.Graph, _ map[string]int, rules Rules) (bool, string) {
	maxFiles := rules.SizeCheck.MaxFiles

	if maxFiles > 0 && len(group.Files) > maxFiles {
		return false, fmt.Sprintf("%s: group has %d files, limit is %d", RuleSize, len(group.Files), maxFiles)
	}

	if rules.SizeCheck.MaxSizeMB > 0 {
		totalBytes := uint64(0)

		for _, path := range group.Files {
			f, ok := graph.File(path)
			if !ok {
				continue
			}

			totalBytes += uint64(f.ChangeSize()) * avgLineBytes
		}

		limitBytes := uint64(rules.SizeCheck.MaxSizeMB * humanize.MiByte)
		if totalBytes > limitBytes {
			return false, fmt.Sprintf("%s: estimated change size %s exceeds %s",
				RuleSize, humanize.IBytes(totalBytes), humanize.IBytes(limitBytes))
		}
	}

	return true, ""
}

// conflictRule fails groups that edit files whose import targets live in a
// different group and are themselves modified or deleted there — a
// cross-group edit conflict requiring coordinated review. Deletions conflict
// too: importing a file another group removes is the worst case. Fatal by
// default.
type conflictRule struct{}

func (conflictRule) Name() string         { return RuleConflict }
func (conflictRule) Fatal() bool          { return true }
func (conflictRule) Severity() int        { return severityFatal }
func (conflictRule) Enabled(r Rules) bool { return r.ConflictCheck.CheckDependencies }

func (conflictRule) Check(group partition.Group, graph *changegraph.Graph, assignment map[string]int, _ Rules) (bool, string) {
	myGroup := -1
	if len(group.Files) > 0 {
		myGroup = assignment[group.Files[0]]
	}

	for _, path := range group.Files {
		for _, target := range graph.ImportsFrom(path) {
			if assignment[target] == myGroup {
				continue
			}

			tf, ok := graph.File(target)
			if !ok {
				continue
			}

			if tf.Kind == changeset.KindModified || tf.Kind == changeset.KindDeleted || tf.Kind == changeset.KindRenamed {
				return false, fmt.Sprintf("%s: %s imports %s, which is %s in a different group",
					RuleConflict, path, target, tf.Kind)
			}
		}
	}

	return true, ""
}

// coverageRule fails groups containing a non-test file with no test-of edge
// anywhere in the analysis run. Advisory.
type coverageRule struct{}

func (coverageRule) Name() string         { return RuleCoverage }
func (coverageRule) Fatal() bool          { return false }
func (coverageRule) Severity() int        { return severityAdvisory }
func (coverageRule) Enabled(r Rules) bool { return r.TestCoverage.RequireTests }

func (coverageRule) Check(group partition.Group, graph *changegraph.Graph, _ map[string]int, _ Rules) (bool, string) {
	for _, path := range group.Files {
		f, ok := graph.File(path)
		if !ok || f.IsTest() || f.Kind == changeset.KindDeleted {
			continue
		}

		if f.HasTest || graph.TestedBy(path) {
			continue
		}

		return false, fmt.Sprintf("%s: %s has no associated test in this change set", RuleCoverage, path)
	}

	return true, ""
}
