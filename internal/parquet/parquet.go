// Package parquet exports report history and report metrics to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/devflow/schema"
)

// ReportRun is one report computation. It maps to the devflow_report_runs table.
type ReportRun struct {
	RunID         string     `parquet:"run_id,snappy"`
	SubjectID     int64      `parquet:"subject_id,snappy"`
	Subject       string     `parquet:"subject,snappy"`
	WindowStart   time.Time  `parquet:"window_start,snappy"`
	WindowEnd     time.Time  `parquet:"window_end,snappy"`
	LengthDays    int32      `parquet:"length_days,snappy"`
	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`
	Rating        *string    `parquet:"rating,optional,snappy"`
	ErrorCount    int32      `parquet:"error_count,snappy"`

	// ConfigParams is the JSON-encoded configuration of the run
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FamilyMetric is one metric value of one run. It maps to the devflow_family_metrics table.
type FamilyMetric struct {
	RunID      string    `parquet:"run_id,snappy,dict"`
	SubjectID  int64     `parquet:"subject_id,snappy"`
	Family     string    `parquet:"family,snappy,dict"`
	Metric     string    `parquet:"metric,snappy,dict"`
	Value      *float64  `parquet:"value,optional,snappy"`
	RecordedAt time.Time `parquet:"recorded_at,snappy"`
}

// Write encodes rows as a Parquet file into w.
func Write[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile writes rows to a new Parquet file at outputPath.
func WriteFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// ConvertReportRunRecords converts stored runs for Parquet export.
func ConvertReportRunRecords(records []schema.ReportRunRecord) []ReportRun {
	result := make([]ReportRun, len(records))
	for i, r := range records {
		result[i] = ReportRun{
			RunID:         r.RunID,
			SubjectID:     r.SubjectID,
			Subject:       r.Subject,
			WindowStart:   r.WindowStart,
			WindowEnd:     r.WindowEnd,
			LengthDays:    r.LengthDays,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			RunDurationMs: r.RunDurationMs,
			Rating:        r.Rating,
			ErrorCount:    r.ErrorCount,
			ConfigParams:  r.ConfigParams,
		}
	}
	return result
}

// ConvertFamilyMetricRecords converts stored metrics for Parquet export.
func ConvertFamilyMetricRecords(records []schema.FamilyMetricRecord) []FamilyMetric {
	result := make([]FamilyMetric, len(records))
	for i, r := range records {
		result[i] = FamilyMetric{
			RunID:      r.RunID,
			SubjectID:  r.SubjectID,
			Family:     r.Family,
			Metric:     r.Metric,
			Value:      r.Value,
			RecordedAt: r.RecordedAt,
		}
	}
	return result
}

// ConvertReport flattens a report into metric rows stamped with its run and end time.
func ConvertReport(r *schema.DeveloperReport) []FamilyMetric {
	var out []FamilyMetric
	for _, row := range schema.ReportRows(r) {
		out = append(out, FamilyMetric{
			RunID:      r.RunID,
			SubjectID:  r.Window.SubjectID,
			Family:     string(row.Family),
			Metric:     row.Metric,
			Value:      row.Value,
			RecordedAt: r.Window.End,
		})
	}
	return out
}
