// Package commands implements the prfang CLI subcommands.
package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/prfang/internal/changeload"
	"github.com/Sumatoshi-tech/prfang/internal/config"
	"github.com/Sumatoshi-tech/prfang/pkg/recommend"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"

	resultFilePerm = 0o600
)

// NewRecommendCommand creates the recommend subcommand.
func NewRecommendCommand() *cobra.Command {
	var (
		configPath   string
		outputFormat string
		outputPath   string
		maxFiles     int
	)

	cmd := &cobra.Command{
		Use:   "recommend <manifest>",
		Short: "Group a change manifest into ordered PR recommendations",
		Long: `Read a change manifest (.json, .yaml, .diff, or .patch), partition the
changed files into PR groups, validate them, and print the merge order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			engineCfg := cfg.EngineConfig()
			if maxFiles > 0 {
				engineCfg.Strategies.Fallback.MaxFiles = maxFiles
				engineCfg.Rules.SizeCheck.MaxFiles = maxFiles
			}

			files, err := changeload.LoadManifest(args[0])
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}))

			deps, err := buildEngine(cfg, logger, nil, nil)
			if err != nil {
				return err
			}

			result, runErr := deps.factory(engineCfg).Run(cobraCmd.Context(), files)
			if runErr != nil {
				if result != nil {
					printRunFailure(result, runErr)
				}

				return runErr
			}

			if outputPath != "" {
				saveErr := saveResult(outputPath, result)
				if saveErr != nil {
					return saveErr
				}
			}

			if outputFormat == outputFormatJSON {
				return printJSON(result)
			}

			printResultTable(result, len(files))

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path (default: .prfang.yaml in CWD or $HOME)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", outputFormatTable, "output format: table or json")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the full result JSON to this file")
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "override the per-group file cap")

	return cmd
}

func printJSON(result *recommend.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	fmt.Fprintln(os.Stdout, string(data))

	return nil
}

func saveResult(path string, result *recommend.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	writeErr := os.WriteFile(path, data, resultFilePerm)
	if writeErr != nil {
		return fmt.Errorf("write result: %w", writeErr)
	}

	return nil
}

func printResultTable(result *recommend.Result, fileCount int) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"#", "Title", "Branch", "Files", "Risk", "Depends On", "Feasible"})

	for _, rec := range result.Recommendations {
		tbl.AppendRow(table.Row{
			rec.Rank + 1,
			rec.Title,
			rec.Branch,
			len(rec.Files),
			riskCell(rec.Risk),
			strings.Join(rec.DependsOn, ", "),
			feasibleCell(rec.Feasible),
		})
	}

	tbl.Render()

	fmt.Fprintf(os.Stdout, "\n%s files in %s groups, status %s\n",
		humanize.Comma(int64(fileCount)),
		humanize.Comma(int64(len(result.Recommendations))),
		statusCell(result.Status))

	for _, failure := range result.StrategyFailures {
		color.New(color.FgYellow).Fprintf(os.Stderr, "strategy %s degraded: %s\n", failure.Strategy, failure.Reason)
	}
}

func printRunFailure(result *recommend.Result, runErr error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "grouping failed: %v\n", runErr)

	for _, gr := range result.Validation {
		for _, violation := range gr.Violations {
			color.New(color.FgYellow).Fprintf(os.Stderr, "  group %d: %s\n", gr.GroupIndex+1, violation)
		}
	}
}

func riskCell(risk int) string {
	switch {
	case risk >= 67:
		return color.New(color.FgRed).Sprintf("%d", risk)
	case risk >= 34:
		return color.New(color.FgYellow).Sprintf("%d", risk)
	default:
		return color.New(color.FgGreen).Sprintf("%d", risk)
	}
}

func feasibleCell(feasible bool) string {
	if feasible {
		return color.New(color.FgGreen).Sprint("yes")
	}

	return color.New(color.FgRed).Sprint("no")
}

func statusCell(status recommend.Status) string {
	switch status {
	case recommend.StatusOK:
		return color.New(color.FgGreen).Sprint(string(status))
	case recommend.StatusDegraded:
		return color.New(color.FgYellow).Sprint(string(status))
	default:
		return color.New(color.FgRed).Sprint(string(status))
	}
}
