package parquet

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/devflow/schema"
)

func readAll[T any](t *testing.T, r io.ReaderAt, size int64) []T {
	t.Helper()
	file, err := parquet.OpenFile(r, size)
	require.NoError(t, err)
	reader := parquet.NewGenericReader[T](file)
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestStructTags(t *testing.T) {
	runSchema := parquet.SchemaOf(new(ReportRun))
	for _, col := range []string{"run_id", "subject_id", "window_start", "end_time", "rating", "error_count", "config_params"} {
		_, ok := runSchema.Lookup(col)
		assert.True(t, ok, "column %s", col)
	}
	metricSchema := parquet.SchemaOf(new(FamilyMetric))
	for _, col := range []string{"run_id", "family", "metric", "value", "recorded_at"} {
		_, ok := metricSchema.Lookup(col)
		assert.True(t, ok, "column %s", col)
	}
}

func TestWriteFileReportRuns(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	duration := int32(1500)
	rating := "Good"
	records := []schema.ReportRunRecord{
		{
			RunID: "run-1", SubjectID: 7, Subject: "jane",
			WindowStart: start.AddDate(0, 0, -30), WindowEnd: start, LengthDays: 30,
			StartTime: start, EndTime: &end, RunDurationMs: &duration, Rating: &rating, ErrorCount: 1,
		},
		{RunID: "run-2", SubjectID: 7, WindowStart: start, WindowEnd: start, LengthDays: 1, StartTime: end},
	}

	path := filepath.Join(t.TempDir(), "runs.parquet")
	require.NoError(t, WriteFile(ConvertReportRunRecords(records), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	info, err := f.Stat()
	require.NoError(t, err)

	got := readAll[ReportRun](t, f, info.Size())
	require.Len(t, got, 2)
	assert.Equal(t, "run-1", got[0].RunID)
	assert.Equal(t, int32(30), got[0].LengthDays)
	require.NotNil(t, got[0].Rating)
	assert.Equal(t, "Good", *got[0].Rating)
	require.NotNil(t, got[0].EndTime)
	assert.WithinDuration(t, end, *got[0].EndTime, time.Microsecond)
	assert.Nil(t, got[1].EndTime)
	assert.Nil(t, got[1].RunDurationMs)
	assert.Nil(t, got[1].Rating)
}

func TestWriteReportMetrics(t *testing.T) {
	p50 := 12.5
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	report := &schema.DeveloperReport{
		RunID:     "run-9",
		Window:    schema.MetricWindow{SubjectID: 3, End: end, Start: end.AddDate(0, 0, -7), LengthDays: 7},
		CycleTime: &schema.CycleTimeResult{MergedCount: 2, SampleCount: 2, P50Hours: &p50},
	}

	rows := ConvertReport(report)
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Equal(t, "cycle_time", r.Family)
		assert.Equal(t, int64(3), r.SubjectID)
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows))
	got := readAll[FamilyMetric](t, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.Len(t, got, len(rows))

	byMetric := map[string]*float64{}
	for _, r := range got {
		byMetric[r.Metric] = r.Value
	}
	require.NotNil(t, byMetric["p50_hours"])
	assert.InDelta(t, 12.5, *byMetric["p50_hours"], 1e-9)
	assert.Nil(t, byMetric["p90_hours"])
}

func TestWriteEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteFile([]FamilyMetric{}, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWriteFileBadPath(t *testing.T) {
	err := WriteFile([]ReportRun{}, filepath.Join(t.TempDir(), "missing", "x.parquet"))
	assert.Error(t, err)
}
