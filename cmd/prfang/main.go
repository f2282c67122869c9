// Package main provides the entry point for the prfang CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/prfang/cmd/prfang/commands"
	"github.com/Sumatoshi-tech/prfang/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "prfang",
		Short: "prfang - PR grouping recommendations for changed files",
		Long: `prfang partitions the changed files of a repository into coherent,
independently mergeable PR groups, validates each group against feasibility
rules, and orders the groups for sequential merge.

Commands:
  recommend  Group a change manifest into ordered PR recommendations
  mcp        Start the MCP server for AI agent integration
  render     Render a saved recommendation result as an HTML dependency graph`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(commands.NewRecommendCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "prfang %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
