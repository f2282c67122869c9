package mcp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/prfang/internal/mcp"
	"github.com/Sumatoshi-tech/prfang/pkg/recommend"
	"github.com/Sumatoshi-tech/prfang/pkg/strategy"
)

func newTestServer(t *testing.T) *mcp.Server {
	t.Helper()

	factory := func(cfg recommend.Config) *recommend.Pipeline {
		engine := strategy.NewEngine([]strategy.Strategy{strategy.NewDependency()})

		return recommend.NewPipeline(engine, cfg)
	}

	return mcp.NewServer(mcp.ServerDeps{
		BaseConfig:  recommend.DefaultConfig(),
		NewPipeline: factory,
	})
}

func TestNewServerReturnsNonNil(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	require.NotNil(t, srv)
}

func TestNewServerToolsRegistered(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	tools := srv.ListToolNames()
	assert.Len(t, tools, 4)
	assert.Contains(t, tools, "prfang_recommend")
	assert.Contains(t, tools, "prfang_feasibility")
	assert.Contains(t, tools, "prfang_strategies")
	assert.Contains(t, tools, "prfang_validate")

	assert.IsIncreasing(t, tools)
}
