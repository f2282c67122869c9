package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/prfang/internal/observability"
	"github.com/Sumatoshi-tech/prfang/pkg/feasibility"
	"github.com/Sumatoshi-tech/prfang/pkg/mergeorder"
	"github.com/Sumatoshi-tech/prfang/pkg/partition"
	"github.com/Sumatoshi-tech/prfang/pkg/recommend"
)

// callerOrigin marks groups supplied by the tool caller rather than a strategy.
const callerOrigin = "caller"

// handleRecommend processes prfang_recommend tool calls.
func (s *Server) handleRecommend(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input RecommendInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateFilesInput(input.Files)
	if err != nil {
		return errorResult(err)
	}

	if input.MaxFilesPerPR < 0 {
		return errorResult(ErrNegativeMaxFiles)
	}

	pipeline := s.pipeline
	if input.MaxFilesPerPR > 0 {
		cfg := s.baseCfg
		cfg.Strategies.Fallback.MaxFiles = input.MaxFilesPerPR
		cfg.Rules.SizeCheck.MaxFiles = input.MaxFilesPerPR
		pipeline = s.factory(cfg)
	}

	result, runErr := pipeline.Run(ctx, input.Files)
	if result != nil {
		s.recordRun(ctx, result, runErr)
	}

	if runErr != nil {
		return errorResult(runErr)
	}

	return jsonResult(result)
}

// handleFeasibility processes prfang_feasibility tool calls.
func (s *Server) handleFeasibility(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input FeasibilityInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateFilesInput(input.Files)
	if err != nil {
		return errorResult(err)
	}

	if len(input.Groups) == 0 {
		return errorResult(ErrNoGroups)
	}

	groups := make([]partition.Group, 0, len(input.Groups))
	for i, paths := range input.Groups {
		groups = append(groups, partition.Group{
			Files:     paths,
			Origin:    callerOrigin,
			Rationale: fmt.Sprintf("caller group %d", i+1),
		})
	}

	results, err := s.pipeline.AnalyzeFeasibility(input.Files, groups)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(struct {
		Groups []feasibility.GroupResult `json:"groups"`
	}{Groups: results})
}

// handleStrategies processes prfang_strategies tool calls.
func (s *Server) handleStrategies(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	_ StrategiesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return jsonResult(struct {
		Strategies []recommend.StrategyOption `json:"strategies"`
	}{Strategies: recommend.StrategyOptions(s.baseCfg.Strategies)})
}

// recommendationsSchema checks the shape of caller-supplied recommendation
// JSON before it is decoded; schema failures become input errors instead of
// zero-valued structs slipping through.
const recommendationsSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["files"],
		"properties": {
			"id":     {"type": "string"},
			"files":  {"type": "array", "minItems": 1, "items": {"type": "string"}},
			"title":  {"type": "string"},
			"branch": {"type": "string"},
			"risk":   {"type": "integer", "minimum": 0, "maximum": 100},
			"rank":   {"type": "integer", "minimum": 0}
		}
	}
}`

// handleValidate processes prfang_validate tool calls.
func (s *Server) handleValidate(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input ValidateInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateFilesInput(input.Files)
	if err != nil {
		return errorResult(err)
	}

	if len(input.Recommendations) == 0 {
		return errorResult(ErrNoRecommendations)
	}

	schemaErr := checkRecommendationsSchema(input.Recommendations)
	if schemaErr != nil {
		return errorResult(schemaErr)
	}

	var recs []mergeorder.PRRecommendation

	decodeErr := json.Unmarshal(input.Recommendations, &recs)
	if decodeErr != nil {
		return errorResult(fmt.Errorf("decode recommendations: %w", decodeErr))
	}

	result, validateErr := s.pipeline.ValidateRecommendations(input.Files, recs)
	if validateErr != nil {
		return errorResult(validateErr)
	}

	return jsonResult(result)
}

func checkRecommendationsSchema(raw json.RawMessage) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(recommendationsSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("recommendations schema check: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}

	return fmt.Errorf("invalid recommendations: %s", strings.Join(msgs, "; "))
}

// recordRun forwards run statistics to the pipeline metrics recorder.
func (s *Server) recordRun(ctx context.Context, result *recommend.Result, runErr error) {
	risks := make([]int, 0, len(result.Validation))
	for _, gr := range result.Validation {
		risks = append(risks, gr.Risk)
	}

	stats := observability.RunStats{
		Groups:        len(result.Validation),
		GroupRisks:    risks,
		CycleDetected: errors.Is(runErr, mergeorder.ErrCyclicDependency),
		Status:        string(result.Status),
	}

	if s.cache != nil {
		hits, misses := s.cache.Stats()

		s.mu.Lock()
		stats.SemanticCacheHits = hits - s.lastCacheHits
		stats.SemanticCacheMiss = misses - s.lastCacheMisses
		s.lastCacheHits = hits
		s.lastCacheMisses = misses
		s.mu.Unlock()
	}

	s.runStats.RecordRun(ctx, stats)
}
