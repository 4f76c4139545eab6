// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/devflow/schema"
)

// DataSource is the read-only view of the source-control platform.
// This allows the metric families to be tested without a live API.
// Missing entities are reported with an error wrapping ErrNotFound.
type DataSource interface {
	// --- Subject ---

	// GetUserByID returns the account with the given id.
	GetUserByID(ctx context.Context, userID int64) (*schema.User, error)

	// GetUserContributedProjects lists the projects the user contributed to.
	GetUserContributedProjects(ctx context.Context, userID int64) ([]schema.Project, error)

	// --- Project-wide streams ---

	// GetCommits returns the commits of all branches created at or after since.
	GetCommits(ctx context.Context, projectID int64, since time.Time) ([]schema.Commit, error)

	// GetMergeRequests returns the merge requests updated at or after since.
	GetMergeRequests(ctx context.Context, projectID int64, since time.Time) ([]schema.MergeRequest, error)

	// GetPipelines returns the pipelines updated at or after since.
	GetPipelines(ctx context.Context, projectID int64, since time.Time) ([]schema.Pipeline, error)

	// --- Per merge request sub-resources ---

	// GetMergeRequestCommits returns the commits of one merge request.
	GetMergeRequestCommits(ctx context.Context, projectID, iid int64) ([]schema.Commit, error)

	// GetMergeRequestNotes returns the notes of one merge request, oldest first.
	GetMergeRequestNotes(ctx context.Context, projectID, iid int64) ([]schema.Note, error)

	// GetMergeRequestDiscussions returns the discussion threads of one merge request.
	GetMergeRequestDiscussions(ctx context.Context, projectID, iid int64) ([]schema.Discussion, error)

	// GetMergeRequestApprovals returns the approvals of one merge request.
	GetMergeRequestApprovals(ctx context.Context, projectID, iid int64) (*schema.Approval, error)

	// --- Per pipeline sub-resources ---

	// GetPipelineJobs returns the jobs of one pipeline.
	GetPipelineJobs(ctx context.Context, projectID, pipelineID int64) ([]schema.Job, error)
}

// StoreManager defines the interface for managing persistent stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetCacheStore() CacheStore
	GetReportStore() ReportStore
}

// CacheStore defines the interface for cached sub-resource payloads.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// ReportStore defines the interface for tracking report runs and their metrics.
type ReportStore interface {
	// BeginRun records the start of a report computation.
	BeginRun(runID string, subjectID int64, window schema.MetricWindow, startTime time.Time, configParams map[string]any) error

	// EndRun records the completion of a report computation.
	EndRun(runID string, endTime time.Time, subject string, rating schema.QualityRating, errorCount int) error

	// RecordMetrics stores the flattened metrics of one report.
	RecordMetrics(runID string, subjectID int64, rows []schema.MetricRow, recordedAt time.Time) error

	// GetStatus returns status information about the report store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllReportRuns retrieves all report runs
	GetAllReportRuns() ([]schema.ReportRunRecord, error)

	// GetAllFamilyMetrics retrieves all recorded family metrics
	GetAllFamilyMetrics() ([]schema.FamilyMetricRecord, error)

	// Close closes the store
	Close() error
}
