package gitlab

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

var _ contract.DataSource = &Client{} // Compile-time check

func projectPath(projectID int64, rest string) string {
	return fmt.Sprintf("projects/%d/%s", projectID, rest)
}

func mrPath(projectID, iid int64, rest string) string {
	return projectPath(projectID, fmt.Sprintf("merge_requests/%d/%s", iid, rest))
}

// GetUserByID implements the DataSource interface.
func (c *Client) GetUserByID(ctx context.Context, userID int64) (*schema.User, error) {
	var u apiUser
	if err := c.get(ctx, fmt.Sprintf("users/%d", userID), nil, &u); err != nil {
		return nil, err
	}
	user := u.toSchema()
	return &user, nil
}

// GetUserContributedProjects implements the DataSource interface.
func (c *Client) GetUserContributedProjects(ctx context.Context, userID int64) ([]schema.Project, error) {
	items, err := list[apiProject](ctx, c, fmt.Sprintf("users/%d/contributed_projects", userID), nil)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Project, len(items))
	for i, p := range items {
		out[i] = schema.Project{ID: p.ID, Path: p.PathWithNamespace, DefaultBranch: p.DefaultBranch}
	}
	return out, nil
}

// GetCommits implements the DataSource interface.
func (c *Client) GetCommits(ctx context.Context, projectID int64, since time.Time) ([]schema.Commit, error) {
	q := url.Values{"all": {"true"}, "with_stats": {"true"}, "since": {since.UTC().Format(time.RFC3339)}}
	items, err := list[apiCommit](ctx, c, projectPath(projectID, "repository/commits"), q)
	if err != nil {
		return nil, err
	}
	return convertCommits(projectID, items), nil
}

// GetMergeRequests implements the DataSource interface.
func (c *Client) GetMergeRequests(ctx context.Context, projectID int64, since time.Time) ([]schema.MergeRequest, error) {
	q := url.Values{"state": {"all"}, "scope": {"all"}, "updated_after": {since.UTC().Format(time.RFC3339)}}
	items, err := list[apiMergeRequest](ctx, c, projectPath(projectID, "merge_requests"), q)
	if err != nil {
		return nil, err
	}
	out := make([]schema.MergeRequest, len(items))
	for i := range items {
		out[i] = items[i].toSchema(projectID)
	}
	return out, nil
}

// GetPipelines implements the DataSource interface.
func (c *Client) GetPipelines(ctx context.Context, projectID int64, since time.Time) ([]schema.Pipeline, error) {
	q := url.Values{"updated_after": {since.UTC().Format(time.RFC3339)}}
	items, err := list[apiPipeline](ctx, c, projectPath(projectID, "pipelines"), q)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Pipeline, len(items))
	for i := range items {
		out[i] = items[i].toSchema(projectID)
	}
	return out, nil
}

// GetMergeRequestCommits implements the DataSource interface.
func (c *Client) GetMergeRequestCommits(ctx context.Context, projectID, iid int64) ([]schema.Commit, error) {
	items, err := list[apiCommit](ctx, c, mrPath(projectID, iid, "commits"), nil)
	if err != nil {
		return nil, err
	}
	return convertCommits(projectID, items), nil
}

// GetMergeRequestNotes implements the DataSource interface.
func (c *Client) GetMergeRequestNotes(ctx context.Context, projectID, iid int64) ([]schema.Note, error) {
	q := url.Values{"sort": {"asc"}, "order_by": {"created_at"}}
	items, err := list[apiNote](ctx, c, mrPath(projectID, iid, "notes"), q)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Note, len(items))
	for i := range items {
		out[i] = items[i].toSchema(iid)
	}
	return out, nil
}

// GetMergeRequestDiscussions implements the DataSource interface.
func (c *Client) GetMergeRequestDiscussions(ctx context.Context, projectID, iid int64) ([]schema.Discussion, error) {
	items, err := list[apiDiscussion](ctx, c, mrPath(projectID, iid, "discussions"), nil)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Discussion, len(items))
	for i, d := range items {
		notes := make([]schema.Note, len(d.Notes))
		for j := range d.Notes {
			notes[j] = d.Notes[j].toSchema(iid)
		}
		out[i] = schema.Discussion{ID: d.ID, IndividualNote: d.IndividualNote, Notes: notes}
	}
	return out, nil
}

// GetMergeRequestApprovals implements the DataSource interface.
func (c *Client) GetMergeRequestApprovals(ctx context.Context, projectID, iid int64) (*schema.Approval, error) {
	var a apiApprovals
	if err := c.get(ctx, mrPath(projectID, iid, "approvals"), nil, &a); err != nil {
		return nil, err
	}
	approval := &schema.Approval{MRIID: iid}
	for _, by := range a.ApprovedBy {
		approval.ApprovedBy = append(approval.ApprovedBy, by.User.toSchema())
	}
	return approval, nil
}

// GetPipelineJobs implements the DataSource interface.
func (c *Client) GetPipelineJobs(ctx context.Context, projectID, pipelineID int64) ([]schema.Job, error) {
	q := url.Values{"include_retried": {"true"}}
	items, err := list[apiJob](ctx, c, projectPath(projectID, fmt.Sprintf("pipelines/%d/jobs", pipelineID)), q)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Job, len(items))
	for i := range items {
		out[i] = items[i].toSchema(pipelineID)
	}
	return out, nil
}
