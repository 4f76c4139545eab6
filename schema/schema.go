// Package schema has the event records, metric results and enums shared by all parts of devflow.
package schema

import (
	"strings"
	"time"
)

// User is an account on the source-control platform.
type User struct {
	ID       int64  `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Name     string `json:"name" yaml:"name"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	Bot      bool   `json:"bot,omitempty" yaml:"bot,omitempty"`
}

// Project is a repository the subject contributed to.
type Project struct {
	ID            int64  `json:"id" yaml:"id"`
	Path          string `json:"path" yaml:"path"`
	DefaultBranch string `json:"default_branch,omitempty" yaml:"default_branch,omitempty"`
}

// Commit is a single commit as reported by the platform.
type Commit struct {
	ProjectID   int64     `json:"project_id" yaml:"project_id"`
	ID          string    `json:"id" yaml:"id"`
	AuthorName  string    `json:"author_name" yaml:"author_name"`
	AuthorEmail string    `json:"author_email" yaml:"author_email"`
	CommittedAt time.Time `json:"committed_at" yaml:"committed_at"`
	Message     string    `json:"message" yaml:"message"`
	Additions   int       `json:"additions" yaml:"additions"`
	Deletions   int       `json:"deletions" yaml:"deletions"`
	ParentCount int       `json:"parent_count" yaml:"parent_count"`
}

// Headline returns the first line of the commit message.
func (c *Commit) Headline() string {
	if c == nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return strings.TrimSpace(line)
}

// ChangeVolume returns additions plus deletions.
func (c *Commit) ChangeVolume() int {
	if c == nil {
		return 0
	}
	return c.Additions + c.Deletions
}

// MergeRequest is a change request with its lifecycle timestamps.
type MergeRequest struct {
	ProjectID    int64      `json:"project_id" yaml:"project_id"`
	IID          int64      `json:"iid" yaml:"iid"`
	Author       User       `json:"author" yaml:"author"`
	Title        string     `json:"title" yaml:"title"`
	CreatedAt    time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	MergedAt     *time.Time `json:"merged_at,omitempty" yaml:"merged_at,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty" yaml:"closed_at,omitempty"`
	State        MRState    `json:"state" yaml:"state"`
	Draft        bool       `json:"draft,omitempty" yaml:"draft,omitempty"`
	SourceBranch string     `json:"source_branch" yaml:"source_branch"`
	TargetBranch string     `json:"target_branch" yaml:"target_branch"`
	Labels       []string   `json:"labels,omitempty" yaml:"labels,omitempty"`
	Squash       bool       `json:"squash" yaml:"squash"`
	HasConflicts bool       `json:"has_conflicts" yaml:"has_conflicts"`
	CommitsCount int        `json:"commits_count,omitempty" yaml:"commits_count,omitempty"`
	ChangedLines int        `json:"changed_lines,omitempty" yaml:"changed_lines,omitempty"`
	FilesChanged int        `json:"files_changed,omitempty" yaml:"files_changed,omitempty"`
}

// Headline returns the merge request title.
func (mr *MergeRequest) Headline() string {
	if mr == nil {
		return ""
	}
	return strings.TrimSpace(mr.Title)
}

// IsMerged reports whether the merge request has a merge timestamp.
func (mr *MergeRequest) IsMerged() bool {
	return mr != nil && mr.MergedAt != nil
}

// IsOpen reports whether the merge request is still open (opened or draft).
func (mr *MergeRequest) IsOpen() bool {
	return mr != nil && (mr.State == OpenedState || mr.State == DraftState)
}

// Pipeline is one CI pipeline run.
type Pipeline struct {
	ProjectID  int64          `json:"project_id" yaml:"project_id"`
	ID         int64          `json:"id" yaml:"id"`
	SHA        string         `json:"sha" yaml:"sha"`
	Ref        string         `json:"ref" yaml:"ref"`
	Status     PipelineStatus `json:"status" yaml:"status"`
	UserID     int64          `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt  *time.Time     `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	StartedAt  *time.Time     `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Duration   *float64       `json:"duration,omitempty" yaml:"duration,omitempty"` // seconds
	Coverage   *float64       `json:"coverage,omitempty" yaml:"coverage,omitempty"`
}

// Job is a single CI job inside a pipeline.
type Job struct {
	PipelineID     int64          `json:"pipeline_id" yaml:"pipeline_id"`
	ID             int64          `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Stage          string         `json:"stage" yaml:"stage"`
	Status         PipelineStatus `json:"status" yaml:"status"`
	CreatedAt      time.Time      `json:"created_at" yaml:"created_at"`
	StartedAt      *time.Time     `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	FinishedAt     *time.Time     `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Duration       *float64       `json:"duration,omitempty" yaml:"duration,omitempty"`               // seconds
	QueuedDuration *float64       `json:"queued_duration,omitempty" yaml:"queued_duration,omitempty"` // seconds
	Retried        bool           `json:"retried,omitempty" yaml:"retried,omitempty"`
}

// Note is a comment or system event on a merge request.
type Note struct {
	ID         int64     `json:"id" yaml:"id"`
	MRIID      int64     `json:"mr_iid" yaml:"mr_iid"`
	Author     User      `json:"author" yaml:"author"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	System     bool      `json:"system" yaml:"system"`
	Resolvable bool      `json:"resolvable" yaml:"resolvable"`
	Resolved   bool      `json:"resolved" yaml:"resolved"`
	Body       string    `json:"body" yaml:"body"`
}

// Discussion groups notes into a thread.
type Discussion struct {
	ID             string `json:"id" yaml:"id"`
	IndividualNote bool   `json:"individual_note" yaml:"individual_note"`
	Notes          []Note `json:"notes" yaml:"notes"`
}

// Approval lists the users who approved a merge request.
type Approval struct {
	MRIID      int64  `json:"mr_iid" yaml:"mr_iid"`
	ApprovedBy []User `json:"approved_by" yaml:"approved_by"`
}

// HasApprover reports whether the user with the given id approved.
func (a *Approval) HasApprover(userID int64) bool {
	if a == nil {
		return false
	}
	for _, u := range a.ApprovedBy {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// MetricWindow is the time range one report covers.
// End minus Start always equals LengthDays days.
type MetricWindow struct {
	SubjectID  int64     `json:"subject_id" yaml:"subject_id"`
	Start      time.Time `json:"start" yaml:"start"`
	End        time.Time `json:"end" yaml:"end"`
	LengthDays int       `json:"length_days" yaml:"length_days"`
}

// Contains reports whether t falls inside [Start, End].
func (w MetricWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ContainsPtr is Contains for optional timestamps; nil is never contained.
func (w MetricWindow) ContainsPtr(t *time.Time) bool {
	return t != nil && w.Contains(*t)
}
