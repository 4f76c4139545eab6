package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// GetDeveloperReport computes the report configured by cfg against src and, when
// mgr exposes a report store, records the run in the history.
// History failures are logged and never fail the report.
func GetDeveloperReport(ctx context.Context, cfg *contract.Config, src contract.DataSource, mgr contract.StoreManager) (*schema.DeveloperReport, time.Duration, error) {
	start := time.Now()
	if cfg.UserID <= 0 {
		return nil, 0, contract.NewValidationError("user", "a positive user id is required")
	}
	engine, err := NewEngine(src, cfg, contract.Log)
	if err != nil {
		return nil, 0, err
	}
	report, err := engine.ComputeReport(ctx, cfg.UserID, cfg.EndTime, cfg.WindowDays)
	if err != nil {
		return nil, time.Since(start), err
	}
	duration := time.Since(start)

	if mgr != nil {
		if store := mgr.GetReportStore(); store != nil {
			recordReport(store, cfg, report, start, start.Add(duration))
		}
	}
	return report, duration, nil
}

// recordReport stores one finished run with its flattened metrics.
func recordReport(store contract.ReportStore, cfg *contract.Config, report *schema.DeveloperReport, start, end time.Time) {
	params := map[string]any{
		"source":      cfg.Source,
		"families":    cfg.Families,
		"workers":     cfg.Workers,
		"window_days": cfg.WindowDays,
		"winsorize":   cfg.Metrics.Winsorize,
	}
	if cfg.Source == schema.GitLabSource {
		params["gitlab_url"] = cfg.GitLabURL
	}

	if err := store.BeginRun(report.RunID, report.Subject.ID, report.Window, start, params); err != nil {
		logTrackingError("BeginRun", report.RunID, err)
		return
	}
	if err := store.RecordMetrics(report.RunID, report.Subject.ID, schema.ReportRows(report), report.Window.End); err != nil {
		logTrackingError("RecordMetrics", report.RunID, err)
	}
	subject := report.Subject.Username
	if subject == "" {
		subject = report.Subject.Name
	}
	if err := store.EndRun(report.RunID, end, subject, report.Audit.Rating, len(report.Errors)); err != nil {
		logTrackingError("EndRun", report.RunID, err)
	}
}

// logTrackingError logs history failures without disrupting the report.
func logTrackingError(operation, runID string, err error) {
	contract.LogWarn(fmt.Sprintf("Report tracking failed for %s on run %s", operation, runID), err)
}
