package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huangsam/devflow/core"
	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/internal/outwriter"
)

// reportCmd computes the delivery metrics of one developer.
var reportCmd = &cobra.Command{
	Use:   "report <user-id>",
	Short: "Compute delivery metrics for one developer over a time window.",
	Long: `Collect merge requests, commits, reviews and pipelines of every project the user
contributed to and aggregate them into six metric families:

- cycle_time: time to first review, review to approval, approval to merge
- flow: throughput, work in progress, batch size and review rounds
- collaboration: review participation, thread resolution and self-merges
- quality: CI success rate, reverts, hotfixes and pipeline durations
- code_characteristics: change size, conventional commits and branch naming
- advanced: idle time, context switching, ownership concentration

Each family runs independently. A failing family is listed under errors while the
others are still reported, and a data quality rating tells you how much to trust
the numbers.

Examples:
  # Report on user 42 for the last 30 days
  devflow report 42

  # Quarter ending at a given date, only flow and quality
  devflow report 42 --end 2024-03-31 --days 90 --families flow,quality

  # Offline report from an event dump
  devflow report 1 --source fixture --fixture events.yaml

  # Track the run and export JSON
  devflow report 42 --history-backend sqlite --output json --output-file report.json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := runReport(cmd.Context()); err != nil {
			contract.LogFatal("Cannot compute report", err)
		}
	},
}

// runReport builds the data source, computes the report and writes it out.
func runReport(ctx context.Context) error {
	if ctx == nil {
		ctx = rootCtx
	}
	src, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("data source unavailable: %w", err)
	}
	report, duration, err := core.GetDeveloperReport(ctx, cfg, src, storeManager)
	if err != nil {
		if contract.IsNotFound(err) {
			return fmt.Errorf("user %d not found: %w", cfg.UserID, err)
		}
		return err
	}
	return outwriter.NewOutWriter().WriteReport(report, cfg, duration)
}
