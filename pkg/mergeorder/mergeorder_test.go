package mergeorder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/prfang/pkg/changegraph"
	"github.com/Sumatoshi-tech/prfang/pkg/changeset"
	"github.com/Sumatoshi-tech/prfang/pkg/feasibility"
	"github.com/Sumatoshi-tech/prfang/pkg/mergeorder"
	"github.com/Sumatoshi-tech/prfang/pkg/partition"
)

func buildGraph(t *testing.T, files []changeset.ChangedFile) *changegraph.Graph {
	t.Helper()

	g, err := changegraph.Build(files, changegraph.Options{ProximityDepth: -1})
	require.NoError(t, err)

	return g
}

func TestRecommendationIDStable(t *testing.T) {
	t.Parallel()

	id := mergeorder.RecommendationID([]string{"a.py", "b.py"})

	assert.Len(t, id, 12)
	assert.Equal(t, id, mergeorder.RecommendationID([]string{"a.py", "b.py"}))
	assert.NotEqual(t, id, mergeorder.RecommendationID([]string{"a.py"}))
}

func TestOrderDependenciesMergeFirst(t *testing.T) {
	t.Parallel()

	files := []changeset.ChangedFile{
		{Path: "core.py", Kind: changeset.KindModified, Exports: []string{"helper"}},
		{Path: "api.py", Kind: changeset.KindModified, Imports: []string{"helper"}},
	}

	g := buildGraph(t, files)

	p := &partition.Partition{Groups: []partition.Group{
		{Files: []string{"api.py"}, Origin: "test"},
		{Files: []string{"core.py"}, Origin: "test"},
	}}

	results := feasibility.Validate(p, g, feasibility.Rules{})

	recs, err := mergeorder.Order(p, g, results)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// core.py exports what api.py imports, so it merges first.
	assert.Equal(t, []string{"core.py"}, recs[0].Files)
	assert.Equal(t, 0, recs[0].Rank)
	assert.Empty(t, recs[0].DependsOn)

	assert.Equal(t, []string{"api.py"}, recs[1].Files)
	assert.Equal(t, 1, recs[1].Rank)
	assert.Equal(t, []string{recs[0].ID}, recs[1].DependsOn)

	// With the order respected there is nothing atomically wrong.
	assert.Empty(t, recs[0].Atomicity)
	assert.Empty(t, recs[1].Atomicity)
}

func TestOrderMutualCycleRefused(t *testing.T) {
	t.Parallel()

	files := []changeset.ChangedFile{
		{Path: "a.py", Kind: changeset.KindModified, Exports: []string{"A"}, Imports: []string{"B"}},
		{Path: "b.py", Kind: changeset.KindModified, Exports: []string{"B"}, Imports: []string{"A"}},
	}

	g := buildGraph(t, files)

	p := &partition.Partition{Groups: []partition.Group{
		{Files: []string{"a.py"}, Origin: "test"},
		{Files: []string{"b.py"}, Origin: "test"},
	}}

	recs, err := mergeorder.Order(p, g, nil)
	require.Error(t, err)
	assert.Nil(t, recs, "cyclic cases yield no ranks")
	assert.ErrorIs(t, err, mergeorder.ErrCyclicDependency)

	var cycleErr *mergeorder.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Len(t, cycleErr.Groups, 2)
	require.Len(t, cycleErr.Edges, 2)
	assert.Equal(t, "a.py", cycleErr.Edges[0].FromFile)
	assert.Equal(t, "b.py", cycleErr.Edges[0].ToFile)
	assert.Equal(t, "b.py", cycleErr.Edges[1].FromFile)
	assert.Equal(t, "a.py", cycleErr.Edges[1].ToFile)
}

func TestOrderTiesBreakByRiskThenPath(t *testing.T) {
	t.Parallel()

	files := []changeset.ChangedFile{
		{Path: "a.py", Kind: changeset.KindModified},
		{Path: "b.py", Kind: changeset.KindModified},
		{Path: "c.py", Kind: changeset.KindModified},
	}

	g := buildGraph(t, files)

	p := &partition.Partition{Groups: []partition.Group{
		{Files: []string{"a.py"}, Origin: "test"},
		{Files: []string{"b.py"}, Origin: "test"},
		{Files: []string{"c.py"}, Origin: "test"},
	}}

	// No dependencies: all ready at once. b.py carries the highest risk and
	// sinks; a.py and c.py tie at zero and order by path.
	results := []feasibility.GroupResult{
		{GroupIndex: 0, Feasible: true, Risk: 0},
		{GroupIndex: 1, Feasible: true, Risk: 80},
		{GroupIndex: 2, Feasible: true, Risk: 0},
	}

	recs, err := mergeorder.Order(p, g, results)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, []string{"a.py"}, recs[0].Files)
	assert.Equal(t, []string{"c.py"}, recs[1].Files)
	assert.Equal(t, []string{"b.py"}, recs[2].Files)
}

func TestOrderCarriesValidationOutcome(t *testing.T) {
	t.Parallel()

	files := []changeset.ChangedFile{
		{Path: "big.py", Kind: changeset.KindModified},
	}

	g := buildGraph(t, files)

	p := &partition.Partition{Groups: []partition.Group{
		{Files: []string{"big.py"}, Origin: "test"},
	}}

	results := []feasibility.GroupResult{
		{GroupIndex: 0, Feasible: false, Risk: 43, Violations: []string{"size_check: too big"}},
	}

	recs, err := mergeorder.Order(p, g, results)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.False(t, recs[0].Feasible)
	assert.Equal(t, 43, recs[0].Risk)
	assert.Equal(t, []string{"size_check: too big"}, recs[0].Violations)
}

func TestBranchNameFromTitle(t *testing.T) {
	t.Parallel()

	recsFor := func(group partition.Group, files []changeset.ChangedFile) mergeorder.PRRecommendation {
		g := buildGraph(t, files)

		p := &partition.Partition{Groups: []partition.Group{group}}

		recs, err := mergeorder.Order(p, g, nil)
		require.NoError(t, err)
		require.Len(t, recs, 1)

		return recs[0]
	}

	single := recsFor(
		partition.Group{Files: []string{"pkg/auth.py"}, Origin: "test"},
		[]changeset.ChangedFile{{Path: "pkg/auth.py", Kind: changeset.KindModified}},
	)

	assert.Equal(t, "Update pkg/auth.py", single.Title)
	assert.Equal(t, "pr/update-pkg-auth-py", single.Branch)

	grouped := recsFor(
		partition.Group{Files: []string{"svc/a.py", "svc/b.py"}, Origin: "test"},
		[]changeset.ChangedFile{
			{Path: "svc/a.py", Kind: changeset.KindModified},
			{Path: "svc/b.py", Kind: changeset.KindModified},
		},
	)

	assert.Equal(t, "Update svc (2 files)", grouped.Title)
	assert.Equal(t, "pr/update-svc-2-files", grouped.Branch)
}

func TestAuditRanksFlagsImporterBeforeExporter(t *testing.T) {
	t.Parallel()

	files := []changeset.ChangedFile{
		{Path: "api.py", Kind: changeset.KindModified, Imports: []string{"helper"}},
		{Path: "util.py", Kind: changeset.KindModified, Exports: []string{"helper"}},
	}

	g := buildGraph(t, files)

	p := &partition.Partition{Groups: []partition.Group{
		{Files: []string{"api.py"}, Origin: "caller"},
		{Files: []string{"util.py"}, Origin: "caller"},
	}}

	// Importer first: the helper import cannot be satisfied at rank 0.
	audit := mergeorder.AuditRanks(p, g, []int{0, 1})
	require.Len(t, audit, 2)
	require.Len(t, audit[0], 1)
	assert.Equal(t, "api.py", audit[0][0].File)
	assert.Equal(t, "helper", audit[0][0].Symbol)
	assert.Equal(t, mergeorder.RecommendationID([]string{"util.py"}), audit[0][0].ExportedBy)
	assert.Empty(t, audit[1])

	// Exporter first: clean.
	audit = mergeorder.AuditRanks(p, g, []int{1, 0})
	assert.Empty(t, audit[0])
	assert.Empty(t, audit[1])
}

func TestAtomicityHoldsWhenOrderRespectsImports(t *testing.T) {
	t.Parallel()

	files := []changeset.ChangedFile{
		{Path: "api.py", Kind: changeset.KindModified, Imports: []string{"helper"}},
		{Path: "util.py", Kind: changeset.KindModified, Exports: []string{"helper"}},
	}

	g := buildGraph(t, files)

	p := &partition.Partition{Groups: []partition.Group{
		{Files: []string{"api.py"}, Origin: "test"},
		{Files: []string{"util.py"}, Origin: "test"},
	}}

	recs, err := mergeorder.Order(p, g, nil)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// The import edge forces util.py first, so no violation survives.
	assert.Equal(t, []string{"util.py"}, recs[0].Files)
	assert.Empty(t, recs[1].Atomicity)
}
