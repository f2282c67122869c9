package feasibility_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/prfang/pkg/changegraph"
	"github.com/Sumatoshi-tech/prfang/pkg/changeset"
	"github.com/Sumatoshi-tech/prfang/pkg/feasibility"
	"github.com/Sumatoshi-tech/prfang/pkg/partition"
)

func buildGraph(t *testing.T, files []changeset.ChangedFile) *changegraph.Graph {
	t.Helper()

	g, err := changegraph.Build(files, changegraph.Options{ProximityDepth: -1})
	require.NoError(t, err)

	return g
}

func singleGroups(paths ...string) []partition.Group {
	groups := make([]partition.Group, 0, len(paths))
	for _, p := range paths {
		groups = append(groups, partition.Group{Files: []string{p}, Origin: "test"})
	}

	return groups
}

func TestSizeRuleFileCount(t *testing.T) {
	t.Parallel()

	var files []changeset.ChangedFile

	var members []string

	for i := range 4 {
		path := fmt.Sprintf("f%d.py", i)
		files = append(files, changeset.ChangedFile{Path: path, Kind: changeset.KindModified})
		members = append(members, path)
	}

	g := buildGraph(t, files)

	p := &partition.Partition{Groups: []partition.Group{{Files: members}}}

	rules := feasibility.DefaultRules()
	rules.SizeCheck.MaxFiles = 3
	rules.SizeCheck.MaxSizeMB = 0

	results := feasibility.Validate(p, g, rules)
	require.Len(t, results, 1)

	assert.False(t, results[0].Feasible)
	require.Len(t, results[0].Violations, 1)
	assert.Contains(t, results[0].Violations[0], feasibility.RuleSize)
	assert.Contains(t, results[0].Violations[0], "4 files")
}

func TestSizeRuleChangeVolume(t *testing.T) {
	t.Parallel()

	// ~100k changed lines at ~60 bytes each is well past a 1 MiB budget.
	files := []changeset.ChangedFile{
		{Path: "gen.py", Kind: changeset.KindModified, Added: 100_000},
		{Path: "tiny.py", Kind: changeset.KindModified, Added: 2},
	}

	g := buildGraph(t, files)

	p := &partition.Partition{Groups: singleGroups("gen.py", "tiny.py")}

	rules := feasibility.DefaultRules()
	rules.SizeCheck.MaxSizeMB = 1

	results := feasibility.Validate(p, g, rules)
	require.Len(t, results, 2)

	assert.False(t, results[0].Feasible, "gen.py exceeds the size budget")
	assert.True(t, results[1].Feasible)
}

func TestConflictRuleCrossGroupEdit(t *testing.T) {
	t.Parallel()

	files := []changeset.ChangedFile{
		{Path: "core.py", Kind: changeset.KindDeleted, Exports: []string{"helper"}},
		{Path: "api.py", Kind: changeset.KindModified, Imports: []string{"helper"}},
	}

	g := buildGraph(t, files)

	p := &partition.Partition{Groups: singleGroups("api.py", "core.py")}

	results := feasibility.Validate(p, g, feasibility.DefaultRules())
	require.Len(t, results, 2)

	apiResult := results[0]
	assert.False(t, apiResult.Feasible)
	require.NotEmpty(t, apiResult.Violations)
	assert.Contains(t, apiResult.Violations[0], feasibility.RuleConflict)
	assert.Contains(t, apiResult.Violations[0], "deleted")
}

func TestConflictRuleSameGroupIsFine(t *testing.T) {
	t.Parallel()

	files := []changeset.ChangedFile{
		{Path: "core.py", Kind: changeset.KindModified, Exports: []string{"helper"}},
		{Path: "api.py", Kind: changeset.KindModified, Imports: []string{"helper"}},
	}

	g := buildGraph(t, files)

	p := &partition.Partition{Groups: []partition.Group{
		{Files: []string{"api.py", "core.py"}, Origin: "test"},
	}}

	results := feasibility.Validate(p, g, feasibility.DefaultRules())
	require.Len(t, results, 1)
	assert.True(t, results[0].Feasible)
	assert.Zero(t, results[0].Risk)
}

func TestCoverageRuleIsAdvisory(t *testing.T) {
	t.Parallel()

	files := []changeset.ChangedFile{
		{Path: "pkg/auth.py", Kind: changeset.KindModified},
		{Path: "pkg/user.py", Kind: changeset.KindModified},
		{Path: "pkg/test_user.py", Kind: changeset.KindModified},
	}

	g := buildGraph(t, files)

	p := &partition.Partition{Groups: []partition.Group{
		{Files: []string{"pkg/auth.py"}, Origin: "test"},
		{Files: []string{"pkg/test_user.py", "pkg/user.py"}, Origin: "test"},
	}}

	rules := feasibility.DefaultRules()
	rules.TestCoverage.RequireTests = true

	results := feasibility.Validate(p, g, rules)
	require.Len(t, results, 2)

	untested := results[0]
	assert.True(t, untested.Feasible, "coverage failures never mark a group infeasible")
	require.Len(t, untested.Violations, 1)
	assert.Contains(t, untested.Violations[0], feasibility.RuleCoverage)
	assert.Positive(t, untested.Risk)

	covered := results[1]
	assert.True(t, covered.Feasible)
	assert.Empty(t, covered.Violations)
}

func TestRiskWeighting(t *testing.T) {
	t.Parallel()

	// All three rules enabled: total severity 3+3+1 = 7.
	rules := feasibility.DefaultRules()
	rules.SizeCheck.MaxFiles = 1
	rules.SizeCheck.MaxSizeMB = 0
	rules.TestCoverage.RequireTests = true

	files := []changeset.ChangedFile{
		{Path: "a.py", Kind: changeset.KindModified},
		{Path: "b.py", Kind: changeset.KindModified},
	}

	g := buildGraph(t, files)

	p := &partition.Partition{Groups: []partition.Group{
		{Files: []string{"a.py", "b.py"}, Origin: "test"},
	}}

	results := feasibility.Validate(p, g, rules)
	require.Len(t, results, 1)

	// Size (3) and coverage (1) fail, conflict passes: round(100*4/7) = 57.
	assert.Equal(t, 57, results[0].Risk)
	assert.False(t, results[0].Feasible)
	assert.Len(t, results[0].Rules, 3, "every enabled rule reports a result")
}

func TestValidateIdempotent(t *testing.T) {
	t.Parallel()

	files := []changeset.ChangedFile{
		{Path: "a.py", Kind: changeset.KindModified, Exports: []string{"A"}},
		{Path: "b.py", Kind: changeset.KindModified, Imports: []string{"A"}},
	}

	g := buildGraph(t, files)

	p := &partition.Partition{Groups: singleGroups("a.py", "b.py")}

	first := feasibility.Validate(p, g, feasibility.DefaultRules())
	second := feasibility.Validate(p, g, feasibility.DefaultRules())

	assert.Equal(t, first, second)
}
