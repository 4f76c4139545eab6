// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteReport prints a developer report using the configured output format.
func (ow *OutWriter) WriteReport(report *schema.DeveloperReport, cfg *contract.Config, duration time.Duration) error {
	return WriteReportResults(report, cfg, duration)
}

// WriteMetrics prints the metric family definitions using the configured output format.
func (ow *OutWriter) WriteMetrics(cfg *contract.Config) error {
	return PrintMetricsDefinitions(cfg)
}
