package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/prfang/pkg/changeset"
	"github.com/Sumatoshi-tech/prfang/pkg/recommend"
	"github.com/Sumatoshi-tech/prfang/pkg/strategy"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	factory := func(cfg recommend.Config) *recommend.Pipeline {
		engine := strategy.NewEngine([]strategy.Strategy{
			strategy.NewDependency(),
			strategy.NewDirectory(),
		})

		return recommend.NewPipeline(engine, cfg)
	}

	return NewServer(ServerDeps{
		BaseConfig:  recommend.DefaultConfig(),
		NewPipeline: factory,
	})
}

func sampleFiles() []changeset.ChangedFile {
	return []changeset.ChangedFile{
		{Path: "svc/core.py", Kind: changeset.KindModified, Exports: []string{"helper"}},
		{Path: "svc/api.py", Kind: changeset.KindModified, Imports: []string{"helper"}},
		{Path: "docs/readme.md", Kind: changeset.KindModified},
	}
}

func errorText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()

	require.True(t, result.IsError)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestHandleRecommendHappyPath(t *testing.T) {
	t.Parallel()

	srv := testServer(t)

	result, output, err := srv.handleRecommend(context.Background(), &mcpsdk.CallToolRequest{},
		RecommendInput{Files: sampleFiles()})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	runResult, ok := output.Data.(*recommend.Result)
	require.True(t, ok)
	assert.Equal(t, recommend.StatusOK, runResult.Status)
	assert.NotEmpty(t, runResult.Recommendations)
}

func TestHandleRecommendEmptyFiles(t *testing.T) {
	t.Parallel()

	srv := testServer(t)

	result, _, err := srv.handleRecommend(context.Background(), &mcpsdk.CallToolRequest{}, RecommendInput{})
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "files parameter is required")
}

func TestHandleRecommendNegativeMaxFiles(t *testing.T) {
	t.Parallel()

	srv := testServer(t)

	result, _, err := srv.handleRecommend(context.Background(), &mcpsdk.CallToolRequest{},
		RecommendInput{Files: sampleFiles(), MaxFilesPerPR: -1})
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "max_files_per_pr must be positive")
}

func TestHandleRecommendMaxFilesOverride(t *testing.T) {
	t.Parallel()

	srv := testServer(t)

	files := []changeset.ChangedFile{
		{Path: "a.py", Kind: changeset.KindModified},
		{Path: "b.py", Kind: changeset.KindModified},
		{Path: "c.py", Kind: changeset.KindModified},
	}

	_, output, err := srv.handleRecommend(context.Background(), &mcpsdk.CallToolRequest{},
		RecommendInput{Files: files, MaxFilesPerPR: 1})
	require.NoError(t, err)

	runResult, ok := output.Data.(*recommend.Result)
	require.True(t, ok)

	for _, rec := range runResult.Recommendations {
		assert.LessOrEqual(t, len(rec.Files), 1)
		assert.True(t, rec.Feasible)
	}
}

func TestHandleFeasibility(t *testing.T) {
	t.Parallel()

	srv := testServer(t)

	result, output, err := srv.handleFeasibility(context.Background(), &mcpsdk.CallToolRequest{},
		FeasibilityInput{
			Files: sampleFiles(),
			Groups: [][]string{
				{"svc/api.py", "svc/core.py"},
				{"docs/readme.md"},
			},
		})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.NotNil(t, output.Data)
}

func TestHandleFeasibilityMissingGroups(t *testing.T) {
	t.Parallel()

	srv := testServer(t)

	result, _, err := srv.handleFeasibility(context.Background(), &mcpsdk.CallToolRequest{},
		FeasibilityInput{Files: sampleFiles()})
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "groups parameter is required")
}

func TestHandleFeasibilityIncompletePartition(t *testing.T) {
	t.Parallel()

	srv := testServer(t)

	result, _, err := srv.handleFeasibility(context.Background(), &mcpsdk.CallToolRequest{},
		FeasibilityInput{
			Files:  sampleFiles(),
			Groups: [][]string{{"svc/api.py"}},
		})
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "not covered")
}

func TestHandleStrategies(t *testing.T) {
	t.Parallel()

	srv := testServer(t)

	result, output, err := srv.handleStrategies(context.Background(), &mcpsdk.CallToolRequest{}, StrategiesInput{})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "semantic_grouping")
	assert.Contains(t, text.Text, "size_fallback")
	assert.NotNil(t, output.Data)
}

func TestHandleValidate(t *testing.T) {
	t.Parallel()

	srv := testServer(t)

	recs := json.RawMessage(`[
		{"files": ["svc/api.py", "svc/core.py"], "title": "svc changes"},
		{"files": ["docs/readme.md"], "title": "docs"}
	]`)

	result, output, err := srv.handleValidate(context.Background(), &mcpsdk.CallToolRequest{},
		ValidateInput{Files: sampleFiles(), Recommendations: recs})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	runResult, ok := output.Data.(*recommend.Result)
	require.True(t, ok)
	assert.Len(t, runResult.Recommendations, 2)
}

func TestHandleValidateSchemaFailure(t *testing.T) {
	t.Parallel()

	srv := testServer(t)

	// Objects without a files array fail the schema check before decoding.
	recs := json.RawMessage(`[{"title": "missing files"}]`)

	result, _, err := srv.handleValidate(context.Background(), &mcpsdk.CallToolRequest{},
		ValidateInput{Files: sampleFiles(), Recommendations: recs})
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "files")
}

func TestHandleValidateEmptyRecommendations(t *testing.T) {
	t.Parallel()

	srv := testServer(t)

	result, _, err := srv.handleValidate(context.Background(), &mcpsdk.CallToolRequest{},
		ValidateInput{Files: sampleFiles()})
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "recommendations parameter is required")
}
