// Package mcp implements a Model Context Protocol server exposing the
// prfang grouping pipeline as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/prfang/internal/observability"
	"github.com/Sumatoshi-tech/prfang/pkg/llm"
	"github.com/Sumatoshi-tech/prfang/pkg/recommend"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "prfang"
	// serverVersion is the MCP server implementation version.
	serverVersion = "1.0.0"

	// toolCount is the expected number of registered tools.
	toolCount = 4
)

// PipelineFactory builds a pipeline for a given config. Per-call overrides
// (max_files_per_pr) need a fresh pipeline; the factory keeps strategy and
// proposer wiring in the caller's hands.
type PipelineFactory func(cfg recommend.Config) *recommend.Pipeline

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// BaseConfig is the engine configuration tool calls start from.
	BaseConfig recommend.Config

	// NewPipeline builds pipelines from configs. Required.
	NewPipeline PipelineFactory

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// PipelineMetrics is an optional per-run metrics recorder.
	PipelineMetrics *observability.PipelineMetrics

	// SemanticCache is the shared proposal cache, if the semantic strategy
	// is wired. Nil skips cache hit reporting.
	SemanticCache *llm.ProposalCache

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with prfang tool registrations.
type Server struct {
	inner    *mcpsdk.Server
	mu       sync.RWMutex
	tools    []string
	baseCfg  recommend.Config
	factory  PipelineFactory
	pipeline *recommend.Pipeline
	metrics  *observability.REDMetrics
	runStats *observability.PipelineMetrics
	cache    *llm.ProposalCache
	tracer   trace.Tracer

	// lastCacheHits/lastCacheMisses track the previous cache snapshot so
	// each run reports deltas, not cumulative totals.
	lastCacheHits   int64
	lastCacheMisses int64
}

// NewServer creates a new MCP server with all prfang tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		opts,
	)

	srv := &Server{
		inner:    inner,
		tools:    make([]string, 0, toolCount),
		baseCfg:  deps.BaseConfig,
		factory:  deps.NewPipeline,
		pipeline: deps.NewPipeline(deps.BaseConfig),
		metrics:  deps.Metrics,
		runStats: deps.PipelineMetrics,
		cache:    deps.SemanticCache,
		tracer:   deps.Tracer,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	err := s.inner.Run(ctx, &mcpsdk.StdioTransport{})
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// registerTools adds all prfang MCP tools to the server.
func (s *Server) registerTools() {
	s.registerRecommendTool()
	s.registerFeasibilityTool()
	s.registerStrategiesTool()
	s.registerValidateTool()
}

func (s *Server) registerRecommendTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameRecommend,
		Description: recommendToolDescription,
	}, withMetrics(s.metrics, ToolNameRecommend, withTracing(s.tracer, ToolNameRecommend, s.handleRecommend)))

	s.trackTool(ToolNameRecommend)
}

func (s *Server) registerFeasibilityTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameFeasibility,
		Description: feasibilityToolDescription,
	}, withMetrics(s.metrics, ToolNameFeasibility, withTracing(s.tracer, ToolNameFeasibility, s.handleFeasibility)))

	s.trackTool(ToolNameFeasibility)
}

func (s *Server) registerStrategiesTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameStrategies,
		Description: strategiesToolDescription,
	}, withMetrics(s.metrics, ToolNameStrategies, withTracing(s.tracer, ToolNameStrategies, s.handleStrategies)))

	s.trackTool(ToolNameStrategies)
}

func (s *Server) registerValidateTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameValidate,
		Description: validateToolDescription,
	}, withMetrics(s.metrics, ToolNameValidate, withTracing(s.tracer, ToolNameValidate, s.handleValidate)))

	s.trackTool(ToolNameValidate)
}

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		// Include trace_id in response when span is sampled.
		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record RED metrics per invocation.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, "mcp."+toolName)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := "ok"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}

		metrics.RecordRequest(ctx, "mcp."+toolName, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	recommendToolDescription = "Partition a set of changed files into coherent, " +
		"independently mergeable PR groups and order them for sequential merge. " +
		"Accepts changed-file records with optional symbol and dependency data."

	feasibilityToolDescription = "Validate a caller-supplied grouping of changed files " +
		"against the feasibility rules (size, conflict, test coverage) " +
		"and report per-group risk scores."

	strategiesToolDescription = "List the available grouping strategies with their " +
		"priorities, score weights, and enabled state under the current configuration."

	validateToolDescription = "Re-validate and re-order a previously produced or " +
		"hand-edited recommendation set without re-running the grouping strategies."
)
