package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/prfang/pkg/recommend"
)

const (
	renderFilePerm = 0o600

	graphRepulsion  = 400
	nodeSizeBase    = 20
	nodeSizePerFile = 4
	nodeSizeMax     = 80

	riskHigh   = 67
	riskMedium = 34

	colorLowRisk    = "#2f9e44"
	colorMediumRisk = "#e8a33d"
	colorHighRisk   = "#d64545"
)

// ErrNoRecommendationData indicates the result file holds no recommendations.
var ErrNoRecommendationData = errors.New("result contains no recommendations")

// NewRenderCommand creates the render subcommand.
func NewRenderCommand() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "render <result.json>",
		Short: "Render a saved recommendation result as an HTML dependency graph",
		Long: `Read a result file previously written by "recommend --output" and render
the group dependency graph as a standalone HTML page. Nodes are PR groups
sized by file count and colored by risk; arrows point from a group to the
groups that must merge first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			result, err := loadResult(args[0])
			if err != nil {
				return err
			}

			return renderGraph(result, outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "prfang-graph.html", "output HTML file")

	return cmd
}

func loadResult(path string) (*recommend.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}

	var result recommend.Result

	unmarshalErr := json.Unmarshal(data, &result)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("parse result: %w", unmarshalErr)
	}

	if len(result.Recommendations) == 0 {
		return nil, ErrNoRecommendationData
	}

	return &result, nil
}

func renderGraph(result *recommend.Result, outputPath string) error {
	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "PR merge order",
			Subtitle: fmt.Sprintf("%d groups, status %s", len(result.Recommendations), result.Status),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	nodes := make([]opts.GraphNode, 0, len(result.Recommendations))
	links := make([]opts.GraphLink, 0)
	titleByID := make(map[string]string, len(result.Recommendations))

	for _, rec := range result.Recommendations {
		titleByID[rec.ID] = rec.Title
	}

	for _, rec := range result.Recommendations {
		nodes = append(nodes, opts.GraphNode{
			Name:       rec.Title,
			Value:      float32(rec.Risk),
			SymbolSize: nodeSize(len(rec.Files)),
			ItemStyle:  &opts.ItemStyle{Color: riskColor(rec.Risk)},
		})

		for _, depID := range rec.DependsOn {
			depTitle, ok := titleByID[depID]
			if !ok {
				continue
			}

			links = append(links, opts.GraphLink{Source: rec.Title, Target: depTitle})
		}
	}

	graph.AddSeries("merge order", nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Force:      &opts.GraphForce{Repulsion: graphRepulsion},
			Roam:       opts.Bool(true),
			EdgeSymbol: []string{"none", "arrow"},
		}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right"}),
	)

	out, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, renderFilePerm)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	renderErr := graph.Render(out)
	if renderErr != nil {
		return fmt.Errorf("render graph: %w", renderErr)
	}

	return nil
}

func nodeSize(fileCount int) float32 {
	size := nodeSizeBase + nodeSizePerFile*fileCount

	return float32(math.Min(float64(size), nodeSizeMax))
}

func riskColor(risk int) string {
	switch {
	case risk >= riskHigh:
		return colorHighRisk
	case risk >= riskMedium:
		return colorMediumRisk
	default:
		return colorLowRisk
	}
}
