package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/prfang/pkg/changeset"
)

// Tool name constants.
const (
	ToolNameRecommend   = "prfang_recommend"
	ToolNameFeasibility = "prfang_feasibility"
	ToolNameStrategies  = "prfang_strategies"
	ToolNameValidate    = "prfang_validate"
)

// Input size limits.
const (
	// MaxChangeSetFiles is the maximum number of changed files per call.
	MaxChangeSetFiles = 1000
)

// Sentinel errors for tool input validation.
var (
	// ErrNoFiles indicates the files parameter is empty.
	ErrNoFiles = errors.New("files parameter is required and must not be empty")
	// ErrTooManyFiles indicates the change set exceeds the size limit.
	ErrTooManyFiles = errors.New("change set exceeds maximum file count")
	// ErrNoGroups indicates the groups parameter is empty.
	ErrNoGroups = errors.New("groups parameter is required and must not be empty")
	// ErrNoRecommendations indicates the recommendations parameter is empty.
	ErrNoRecommendations = errors.New("recommendations parameter is required and must not be empty")
	// ErrNegativeMaxFiles indicates a non-positive max_files_per_pr override.
	ErrNegativeMaxFiles = errors.New("max_files_per_pr must be positive")
)

// Input types (auto-generate JSON schemas via struct tags).

// RecommendInput is the input schema for the prfang_recommend tool.
type RecommendInput struct {
	Files         []changeset.ChangedFile `json:"files"                      jsonschema:"changed-file records to group"`
	MaxFilesPerPR int                     `json:"max_files_per_pr,omitempty" jsonschema:"optional per-group file cap override"`
}

// FeasibilityInput is the input schema for the prfang_feasibility tool.
type FeasibilityInput struct {
	Files  []changeset.ChangedFile `json:"files"  jsonschema:"changed-file records the groups partition"`
	Groups [][]string              `json:"groups" jsonschema:"file-path groups to validate; must cover every file exactly once"`
}

// StrategiesInput is the input schema for the prfang_strategies tool.
type StrategiesInput struct{}

// ValidateInput is the input schema for the prfang_validate tool.
// Recommendations stay raw so they can be schema-checked before decoding.
type ValidateInput struct {
	Files           []changeset.ChangedFile `json:"files"           jsonschema:"changed-file records the recommendations cover"`
	Recommendations json.RawMessage         `json:"recommendations" jsonschema:"previously produced recommendation objects to re-validate"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateFilesInput checks common changed-file input constraints.
func validateFilesInput(files []changeset.ChangedFile) error {
	if len(files) == 0 {
		return ErrNoFiles
	}

	if len(files) > MaxChangeSetFiles {
		return fmt.Errorf("%w: %d files (max %d)", ErrTooManyFiles, len(files), MaxChangeSetFiles)
	}

	return nil
}
