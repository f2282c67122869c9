package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/prfang/internal/config"
	"github.com/Sumatoshi-tech/prfang/internal/mcp"
	"github.com/Sumatoshi-tech/prfang/internal/observability"
	"github.com/Sumatoshi-tech/prfang/pkg/version"
)

const metricsReadTimeout = 10 * time.Second

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		configPath  string
		metricsAddr string
		debug       bool
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the grouping pipeline as tools that AI agents can
discover and invoke:
  - prfang_recommend:   group changed files into ordered PR recommendations
  - prfang_feasibility: validate a caller-supplied grouping
  - prfang_strategies:  list available strategies and their configuration
  - prfang_validate:    re-validate an edited recommendation set`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			providers, err := initMCPObservability(debug)
			if err != nil {
				return err
			}

			defer func() {
				shutdownErr := providers.Shutdown(context.Background())
				if shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			red, redErr := observability.NewREDMetrics(providers.Meter)
			if redErr != nil {
				return redErr
			}

			pipelineMetrics, pmErr := observability.NewPipelineMetrics(providers.Meter)
			if pmErr != nil {
				return pmErr
			}

			deps, err := buildEngine(cfg, providers.Logger, pipelineMetrics, providers.Tracer)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				BaseConfig:      cfg.EngineConfig(),
				NewPipeline:     deps.factory,
				Logger:          providers.Logger,
				Metrics:         red,
				PipelineMetrics: pipelineMetrics,
				SemanticCache:   deps.cache,
				Tracer:          providers.Tracer,
			})

			if metricsAddr != "" {
				startMetricsServer(metricsAddr, providers)
			}

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path (default: .prfang.yaml in CWD or $HOME)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics, /healthz, /readyz on this address")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}

// startMetricsServer serves the Prometheus scrape and health endpoints in the
// background; the stdio transport remains the primary surface.
func startMetricsServer(addr string, providers observability.Providers) {
	promHandler, err := observability.PrometheusHandler()
	if err != nil {
		providers.Logger.Warn("prometheus exporter unavailable", "error", err)

		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promHandler)
	mux.Handle("/healthz", observability.HealthHandler())
	mux.Handle("/readyz", observability.ReadyHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           observability.HTTPMiddleware(providers.Tracer, mux),
		ReadHeaderTimeout: metricsReadTimeout,
	}

	go func() {
		serveErr := srv.ListenAndServe()
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			providers.Logger.Warn("metrics server stopped", "error", serveErr)
		}
	}()
}

func initMCPObservability(debug bool) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	cfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	cfg.Mode = observability.ModeMCP
	cfg.LogJSON = true

	if debug {
		cfg.LogLevel = slog.LevelDebug
		cfg.DebugTrace = true
	}

	return observability.Init(cfg)
}
