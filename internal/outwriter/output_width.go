package outwriter

import (
	"os"

	"golang.org/x/term"

	"github.com/huangsam/devflow/internal/contract"
)

// getTerminalWidth returns the width override from the config, else the detected
// terminal width, else a conservative 80 columns for pipes and CI.
func getTerminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		return 80
	}
	return detected
}

// getMaxDetailWidth returns how many runes the free-text column of the report
// table may take before it is truncated.
func getMaxDetailWidth(cfg *contract.Config) int {
	// Family + Metric columns with borders and padding
	const reserved = 60
	available := getTerminalWidth(cfg) - reserved
	if available < 20 {
		return 20
	}
	if available > 100 {
		return 100
	}
	return available
}
