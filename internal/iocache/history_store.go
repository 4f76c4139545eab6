package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// Table names for report history.
const (
	reportRunsTable    = "devflow_report_runs"
	familyMetricsTable = "devflow_family_metrics"
)

// ReportStoreImpl implements the ReportStore interface.
type ReportStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.ReportStore = &ReportStoreImpl{} // Compile-time check

// NewReportStore opens the history store, migrating it to the latest schema.
func NewReportStore(backend schema.DatabaseBackend, connStr string) (*ReportStoreImpl, error) {
	store := &ReportStoreImpl{backend: backend}
	if backend == schema.NoneBackend {
		return store, nil
	}
	if _, err := MigrateHistory(backend, connStr, -1); err != nil {
		return nil, fmt.Errorf("failed to prepare history tables: %w", err)
	}
	db, err := openDB(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}
	store.db = db
	return store, nil
}

func (rs *ReportStoreImpl) table(name string) string {
	return quoteTableName(name, rs.backend)
}

func (rs *ReportStoreImpl) exec(query string, args ...any) error {
	_, err := rs.db.Exec(rebind(query, rs.backend), args...)
	return err
}

// BeginRun records the start of a report computation.
func (rs *ReportStoreImpl) BeginRun(runID string, subjectID int64, window schema.MetricWindow, startTime time.Time, configParams map[string]any) error {
	if rs.db == nil {
		return nil
	}
	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return fmt.Errorf("failed to marshal config params: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (run_id, subject_id, window_start, window_end, length_days, start_time, config_params)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, rs.table(reportRunsTable))
	err = rs.exec(query, runID, subjectID,
		formatTime(window.Start, rs.backend), formatTime(window.End, rs.backend), window.LengthDays,
		formatTime(startTime, rs.backend), string(configJSON))
	if err != nil {
		return fmt.Errorf("failed to insert report run: %w", err)
	}
	return nil
}

// EndRun records the completion of a report computation.
func (rs *ReportStoreImpl) EndRun(runID string, endTime time.Time, subject string, rating schema.QualityRating, errorCount int) error {
	if rs.db == nil {
		return nil
	}
	var start timeColumn
	query := rebind(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, rs.table(reportRunsTable)), rs.backend)
	if err := rs.db.QueryRow(query, runID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for run %s: %w", runID, err)
	}
	durationMs := endTime.Sub(start.Time).Milliseconds()

	update := fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, subject = ?, rating = ?, error_count = ? WHERE run_id = ?`,
		rs.table(reportRunsTable))
	if err := rs.exec(update, formatTime(endTime, rs.backend), durationMs, subject, string(rating), errorCount, runID); err != nil {
		return fmt.Errorf("failed to update report run: %w", err)
	}
	return nil
}

// RecordMetrics stores the flattened metrics of one report in a single transaction.
func (rs *ReportStoreImpl) RecordMetrics(runID string, subjectID int64, rows []schema.MetricRow, recordedAt time.Time) error {
	if rs.db == nil || len(rows) == 0 {
		return nil
	}
	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := rebind(fmt.Sprintf(`INSERT INTO %s (run_id, subject_id, family, metric, value, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rs.table(familyMetricsTable)), rs.backend)
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare metric insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	at := formatTime(recordedAt, rs.backend)
	for _, r := range rows {
		var value sql.NullFloat64
		if r.Value != nil {
			value = sql.NullFloat64{Float64: *r.Value, Valid: true}
		}
		if _, err := stmt.Exec(runID, subjectID, string(r.Family), r.Metric, value, at); err != nil {
			return fmt.Errorf("failed to insert metric %s.%s: %w", r.Family, r.Metric, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (rs *ReportStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (rs *ReportStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.db == nil {
		return status, nil
	}

	for _, table := range []string{reportRunsTable, familyMetricsTable} {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", rs.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRuns = int(status.TableSizes[reportRunsTable])
	status.TotalMetricRows = int(status.TableSizes[familyMetricsTable])
	if status.TotalRuns == 0 {
		return status, nil
	}

	var last, oldest timeColumn
	lastQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY start_time DESC LIMIT 1", rs.table(reportRunsTable))
	if err := rs.db.QueryRow(lastQuery).Scan(&status.LastRunID, &last); err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}
	oldestQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY start_time ASC LIMIT 1", rs.table(reportRunsTable))
	if err := rs.db.QueryRow(oldestQuery).Scan(&oldest); err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	status.LastRunTime, status.OldestRunTime = last.Time, oldest.Time
	return status, nil
}

// GetAllReportRuns retrieves all report runs, oldest first.
func (rs *ReportStoreImpl) GetAllReportRuns() ([]schema.ReportRunRecord, error) {
	if rs.db == nil {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT run_id, subject_id, subject, window_start, window_end, length_days,
		start_time, end_time, run_duration_ms, rating, error_count, config_params
		FROM %s ORDER BY start_time, run_id`, rs.table(reportRunsTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ReportRunRecord
	for rows.Next() {
		var (
			rec                    schema.ReportRunRecord
			subject                sql.NullString
			windowStart, windowEnd timeColumn
			startTime, endTime     timeColumn
		)
		if err := rows.Scan(&rec.RunID, &rec.SubjectID, &subject, &windowStart, &windowEnd, &rec.LengthDays,
			&startTime, &endTime, &rec.RunDurationMs, &rec.Rating, &rec.ErrorCount, &rec.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan report run: %w", err)
		}
		rec.Subject = subject.String
		rec.WindowStart, rec.WindowEnd = windowStart.Time, windowEnd.Time
		rec.StartTime, rec.EndTime = startTime.Time, endTime.ptr()
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report runs: %w", err)
	}
	return results, nil
}

// GetAllFamilyMetrics retrieves all recorded family metrics.
func (rs *ReportStoreImpl) GetAllFamilyMetrics() ([]schema.FamilyMetricRecord, error) {
	if rs.db == nil {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT run_id, subject_id, family, metric, value, recorded_at
		FROM %s ORDER BY recorded_at, run_id, family, metric`, rs.table(familyMetricsTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query family metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FamilyMetricRecord
	for rows.Next() {
		var (
			rec   schema.FamilyMetricRecord
			value sql.NullFloat64
			at    timeColumn
		)
		if err := rows.Scan(&rec.RunID, &rec.SubjectID, &rec.Family, &rec.Metric, &value, &at); err != nil {
			return nil, fmt.Errorf("failed to scan family metric: %w", err)
		}
		if value.Valid {
			v := value.Float64
			rec.Value = &v
		}
		rec.RecordedAt = at.Time
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating family metrics: %w", err)
	}
	return results, nil
}
