package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/internal/outwriter"
)

// metricsCmd displays the formal definitions of all metric families.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display units and formulas for all metric families",
	Long: `Show the purpose, units and formulas of every metric family.

Provides complete transparency into how reports are computed, including:
- Family purpose and the metrics it emits
- Units and formulas of each metric
- Change size buckets and outlier handling
- Minimum sample sizes behind the data quality rating
- Custom settings if configured via .devflow.yaml

No data is fetched - this is purely informational.

Examples:
  # Show default definitions
  devflow metrics

  # View with custom thresholds from config file
  devflow metrics --config .devflow.yaml

  # Machine-readable definitions
  devflow metrics --output yaml`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := outwriter.NewOutWriter().WriteMetrics(cfg); err != nil {
			contract.LogFatal("Cannot display metrics", err)
		}
	},
}
