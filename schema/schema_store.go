package schema

import "time"

// ReportRunRecord represents a row from the devflow_report_runs table.
type ReportRunRecord struct {
	RunID         string
	SubjectID     int64
	Subject       string
	WindowStart   time.Time
	WindowEnd     time.Time
	LengthDays    int32
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	Rating        *string
	ErrorCount    int32
	ConfigParams  *string
}

// FamilyMetricRecord represents a row from the devflow_family_metrics table.
// A nil Value means the metric was absent for that run.
type FamilyMetricRecord struct {
	RunID      string
	SubjectID  int64
	Family     string
	Metric     string
	Value      *float64
	RecordedAt time.Time
}
