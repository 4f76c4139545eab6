package cmd

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Devflow MCP server",
	Long: `Launch an MCP server over stdio that allows AI agents to compute developer reports via standard tools.

Tools:
  get_developer_report - Compute the metric families for one user and window
  list_metric_families - Describe every metric under the active settings

Edits to the config file are picked up without a restart. A report that is
already running keeps the settings it started with.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(cmd.Context(), cfg, newSource, storeManager, watchConfig)
	},
}

// watchConfig re-validates the config file on every change and hands the
// result to apply. Invalid edits are logged and the previous config stays active.
func watchConfig(apply func(*contract.Config)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		raw := &contract.ConfigRawInput{}
		if err := viper.Unmarshal(raw); err != nil {
			contract.LogWarn("Ignoring config reload of "+e.Name, err)
			return
		}
		next := &contract.Config{}
		if err := contract.ProcessAndValidate(next, raw); err != nil {
			contract.LogWarn("Ignoring invalid config reload of "+e.Name, err)
			return
		}
		apply(next)
		contract.Log.WithField("file", e.Name).Info("Configuration reloaded")
	})
	if viper.ConfigFileUsed() != "" {
		viper.WatchConfig()
	}
}
