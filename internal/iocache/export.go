package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/internal/parquet"
)

// ExportHistory writes the report runs and family metrics of store to two
// Parquet files named after outputFile, reporting progress to w.
func ExportHistory(store contract.ReportStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no report history found to export")
	}
	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	runs, err := store.GetAllReportRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve report runs: %w", err)
	}
	metrics, err := store.GetAllFamilyMetrics()
	if err != nil {
		return fmt.Errorf("failed to retrieve family metrics: %w", err)
	}

	runsFile := outputFile + ".report_runs.parquet"
	if err := parquet.WriteFile(parquet.ConvertReportRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write report runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d report runs to: %s\n", len(runs), runsFile)

	metricsFile := outputFile + ".family_metrics.parquet"
	if err := parquet.WriteFile(parquet.ConvertFamilyMetricRecords(metrics), metricsFile); err != nil {
		return fmt.Errorf("failed to write family metrics: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d metric rows to: %s\n", len(metrics), metricsFile)
	return nil
}
