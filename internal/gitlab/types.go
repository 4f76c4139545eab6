package gitlab

import (
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/devflow/schema"
)

type apiUser struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PublicEmail string `json:"public_email"`
	Bot         bool   `json:"bot"`
}

func (u apiUser) toSchema() schema.User {
	email := u.Email
	if email == "" {
		email = u.PublicEmail
	}
	return schema.User{ID: u.ID, Username: u.Username, Name: u.Name, Email: email, Bot: u.Bot}
}

type apiProject struct {
	ID                int64  `json:"id"`
	PathWithNamespace string `json:"path_with_namespace"`
	DefaultBranch     string `json:"default_branch"`
}

type apiCommit struct {
	ID            string    `json:"id"`
	AuthorName    string    `json:"author_name"`
	AuthorEmail   string    `json:"author_email"`
	CommittedDate time.Time `json:"committed_date"`
	CreatedAt     time.Time `json:"created_at"`
	Message       string    `json:"message"`
	ParentIDs     []string  `json:"parent_ids"`
	Stats         *struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	} `json:"stats"`
}

func convertCommits(projectID int64, items []apiCommit) []schema.Commit {
	out := make([]schema.Commit, len(items))
	for i, c := range items {
		at := c.CommittedDate
		if at.IsZero() {
			at = c.CreatedAt
		}
		out[i] = schema.Commit{
			ProjectID:   projectID,
			ID:          c.ID,
			AuthorName:  c.AuthorName,
			AuthorEmail: c.AuthorEmail,
			CommittedAt: at,
			Message:     c.Message,
			ParentCount: len(c.ParentIDs),
		}
		if c.Stats != nil {
			out[i].Additions = c.Stats.Additions
			out[i].Deletions = c.Stats.Deletions
		}
	}
	return out
}

type apiMergeRequest struct {
	IID          int64      `json:"iid"`
	Author       apiUser    `json:"author"`
	Title        string     `json:"title"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
	MergedAt     *time.Time `json:"merged_at"`
	ClosedAt     *time.Time `json:"closed_at"`
	State        string     `json:"state"`
	Draft        bool       `json:"draft"`
	WorkInProg   bool       `json:"work_in_progress"`
	SourceBranch string     `json:"source_branch"`
	TargetBranch string     `json:"target_branch"`
	Labels       []string   `json:"labels"`
	Squash       bool       `json:"squash"`
	HasConflicts bool       `json:"has_conflicts"`
	ChangesCount string     `json:"changes_count"`
}

func (m *apiMergeRequest) toSchema(projectID int64) schema.MergeRequest {
	mr := schema.MergeRequest{
		ProjectID:    projectID,
		IID:          m.IID,
		Author:       m.Author.toSchema(),
		Title:        m.Title,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		MergedAt:     m.MergedAt,
		ClosedAt:     m.ClosedAt,
		State:        schema.MRState(m.State),
		Draft:        m.Draft || m.WorkInProg,
		SourceBranch: m.SourceBranch,
		TargetBranch: m.TargetBranch,
		Labels:       m.Labels,
		Squash:       m.Squash,
		HasConflicts: m.HasConflicts,
	}
	if mr.State == schema.OpenedState && mr.Draft {
		mr.State = schema.DraftState
	}
	// changes_count is a string and may read "1000+"
	if n, err := strconv.Atoi(strings.TrimSuffix(m.ChangesCount, "+")); err == nil {
		mr.FilesChanged = n
	}
	return mr
}

type apiPipeline struct {
	ID         int64      `json:"id"`
	SHA        string     `json:"sha"`
	Ref        string     `json:"ref"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Duration   *float64   `json:"duration"`
	Coverage   *string    `json:"coverage"`
	User       *apiUser   `json:"user"`
}

func (p *apiPipeline) toSchema(projectID int64) schema.Pipeline {
	out := schema.Pipeline{
		ProjectID:  projectID,
		ID:         p.ID,
		SHA:        p.SHA,
		Ref:        p.Ref,
		Status:     schema.PipelineStatus(p.Status),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		StartedAt:  p.StartedAt,
		FinishedAt: p.FinishedAt,
		Duration:   p.Duration,
	}
	if p.User != nil {
		out.UserID = p.User.ID
	}
	if p.Coverage != nil {
		if v, err := strconv.ParseFloat(*p.Coverage, 64); err == nil {
			out.Coverage = &v
		}
	}
	return out
}

type apiJob struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Stage          string     `json:"stage"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
	Duration       *float64   `json:"duration"`
	QueuedDuration *float64   `json:"queued_duration"`
	Retried        bool       `json:"retried"`
}

func (j *apiJob) toSchema(pipelineID int64) schema.Job {
	return schema.Job{
		PipelineID:     pipelineID,
		ID:             j.ID,
		Name:           j.Name,
		Stage:          j.Stage,
		Status:         schema.PipelineStatus(j.Status),
		CreatedAt:      j.CreatedAt,
		StartedAt:      j.StartedAt,
		FinishedAt:     j.FinishedAt,
		Duration:       j.Duration,
		QueuedDuration: j.QueuedDuration,
		Retried:        j.Retried,
	}
}

type apiNote struct {
	ID         int64     `json:"id"`
	Author     apiUser   `json:"author"`
	CreatedAt  time.Time `json:"created_at"`
	System     bool      `json:"system"`
	Resolvable bool      `json:"resolvable"`
	Resolved   bool      `json:"resolved"`
	Body       string    `json:"body"`
}

func (n *apiNote) toSchema(iid int64) schema.Note {
	return schema.Note{
		ID:         n.ID,
		MRIID:      iid,
		Author:     n.Author.toSchema(),
		CreatedAt:  n.CreatedAt,
		System:     n.System,
		Resolvable: n.Resolvable,
		Resolved:   n.Resolved,
		Body:       n.Body,
	}
}

type apiDiscussion struct {
	ID             string    `json:"id"`
	IndividualNote bool      `json:"individual_note"`
	Notes          []apiNote `json:"notes"`
}

type apiApprovals struct {
	ApprovedBy []struct {
		User apiUser `json:"user"`
	} `json:"approved_by"`
}
