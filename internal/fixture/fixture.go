// Package fixture serves recorded platform events from a YAML or JSON dump.
// It backs offline reports and tests with the same DataSource the GitLab client implements.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// Dataset is the on-disk layout of a fixture file.
type Dataset struct {
	Users    []schema.User `json:"users" yaml:"users"`
	Projects []ProjectData `json:"projects" yaml:"projects"`
}

// ProjectData is one project with all of its events.
// Members lists the user ids that contributed; empty means every user.
type ProjectData struct {
	schema.Project `yaml:",inline"`
	Members        []int64            `json:"members,omitempty" yaml:"members,omitempty"`
	Commits        []schema.Commit    `json:"commits,omitempty" yaml:"commits,omitempty"`
	MergeRequests  []MergeRequestData `json:"merge_requests,omitempty" yaml:"merge_requests,omitempty"`
	Pipelines      []PipelineData     `json:"pipelines,omitempty" yaml:"pipelines,omitempty"`
}

// MergeRequestData is one merge request with its sub-resources.
type MergeRequestData struct {
	schema.MergeRequest `yaml:",inline"`
	Commits             []schema.Commit     `json:"commits,omitempty" yaml:"commits,omitempty"`
	Notes               []schema.Note       `json:"notes,omitempty" yaml:"notes,omitempty"`
	Discussions         []schema.Discussion `json:"discussions,omitempty" yaml:"discussions,omitempty"`
	Approval            *schema.Approval    `json:"approval,omitempty" yaml:"approval,omitempty"`
}

// PipelineData is one pipeline with its jobs.
type PipelineData struct {
	schema.Pipeline `yaml:",inline"`
	Jobs            []schema.Job `json:"jobs,omitempty" yaml:"jobs,omitempty"`
}

// Source implements contract.DataSource over a Dataset. It is safe for concurrent reads.
type Source struct {
	data     Dataset
	users    map[int64]schema.User
	projects map[int64]*ProjectData
}

var _ contract.DataSource = &Source{} // Compile-time check

// New indexes a dataset and stamps project ids onto nested records.
func New(data Dataset) *Source {
	s := &Source{
		data:     data,
		users:    make(map[int64]schema.User, len(data.Users)),
		projects: make(map[int64]*ProjectData, len(data.Projects)),
	}
	for _, u := range data.Users {
		s.users[u.ID] = u
	}
	for i := range s.data.Projects {
		p := &s.data.Projects[i]
		for j := range p.Commits {
			p.Commits[j].ProjectID = p.ID
		}
		for j := range p.MergeRequests {
			mr := &p.MergeRequests[j]
			mr.ProjectID = p.ID
			for k := range mr.Commits {
				mr.Commits[k].ProjectID = p.ID
			}
			for k := range mr.Notes {
				mr.Notes[k].MRIID = mr.IID
			}
		}
		for j := range p.Pipelines {
			pl := &p.Pipelines[j]
			pl.ProjectID = p.ID
			for k := range pl.Jobs {
				pl.Jobs[k].PipelineID = pl.ID
			}
		}
		s.projects[p.ID] = p
	}
	return s
}

// Load reads a dataset from a .yaml, .yml or .json file.
func Load(path string) (*Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var data Dataset
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &data)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &data)
	default:
		return nil, contract.NewValidationError("fixture", "unsupported extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return New(data), nil
}

func (s *Source) project(id int64) (*ProjectData, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, contract.ErrNotFound)
	}
	return p, nil
}

func (s *Source) mergeRequest(projectID, iid int64) (*MergeRequestData, error) {
	p, err := s.project(projectID)
	if err != nil {
		return nil, err
	}
	for i := range p.MergeRequests {
		if p.MergeRequests[i].IID == iid {
			return &p.MergeRequests[i], nil
		}
	}
	return nil, fmt.Errorf("merge request %d!%d: %w", projectID, iid, contract.ErrNotFound)
}

// lastActivity is the latest known timestamp of a merge request.
func lastActivity(mr *schema.MergeRequest) time.Time {
	t := mr.CreatedAt
	for _, p := range []*time.Time{mr.UpdatedAt, mr.MergedAt, mr.ClosedAt} {
		if p != nil && p.After(t) {
			t = *p
		}
	}
	return t
}

// GetUserByID implements the DataSource interface.
func (s *Source) GetUserByID(ctx context.Context, userID int64) (*schema.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", userID, contract.ErrNotFound)
	}
	return &u, nil
}

// GetUserContributedProjects implements the DataSource interface.
func (s *Source) GetUserContributedProjects(ctx context.Context, userID int64) ([]schema.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := s.users[userID]; !ok {
		return nil, fmt.Errorf("user %d: %w", userID, contract.ErrNotFound)
	}
	var out []schema.Project
	for _, p := range s.data.Projects {
		if len(p.Members) == 0 || slices.Contains(p.Members, userID) {
			out = append(out, p.Project)
		}
	}
	return out, nil
}

// GetCommits implements the DataSource interface.
func (s *Source) GetCommits(ctx context.Context, projectID int64, since time.Time) ([]schema.Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.project(projectID)
	if err != nil {
		return nil, err
	}
	var out []schema.Commit
	for _, c := range p.Commits {
		if !c.CommittedAt.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetMergeRequests implements the DataSource interface.
func (s *Source) GetMergeRequests(ctx context.Context, projectID int64, since time.Time) ([]schema.MergeRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.project(projectID)
	if err != nil {
		return nil, err
	}
	var out []schema.MergeRequest
	for i := range p.MergeRequests {
		mr := p.MergeRequests[i].MergeRequest
		if !lastActivity(&mr).Before(since) {
			out = append(out, mr)
		}
	}
	return out, nil
}

// GetPipelines implements the DataSource interface.
func (s *Source) GetPipelines(ctx context.Context, projectID int64, since time.Time) ([]schema.Pipeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.project(projectID)
	if err != nil {
		return nil, err
	}
	var out []schema.Pipeline
	for _, pl := range p.Pipelines {
		updated := pl.CreatedAt
		if pl.UpdatedAt != nil {
			updated = *pl.UpdatedAt
		}
		if !updated.Before(since) {
			out = append(out, pl.Pipeline)
		}
	}
	return out, nil
}

// GetMergeRequestCommits implements the DataSource interface.
func (s *Source) GetMergeRequestCommits(ctx context.Context, projectID, iid int64) ([]schema.Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mr, err := s.mergeRequest(projectID, iid)
	if err != nil {
		return nil, err
	}
	return slices.Clone(mr.Commits), nil
}

// GetMergeRequestNotes implements the DataSource interface.
func (s *Source) GetMergeRequestNotes(ctx context.Context, projectID, iid int64) ([]schema.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mr, err := s.mergeRequest(projectID, iid)
	if err != nil {
		return nil, err
	}
	notes := slices.Clone(mr.Notes)
	slices.SortStableFunc(notes, func(a, b schema.Note) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return notes, nil
}

// GetMergeRequestDiscussions implements the DataSource interface.
func (s *Source) GetMergeRequestDiscussions(ctx context.Context, projectID, iid int64) ([]schema.Discussion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mr, err := s.mergeRequest(projectID, iid)
	if err != nil {
		return nil, err
	}
	return slices.Clone(mr.Discussions), nil
}

// GetMergeRequestApprovals implements the DataSource interface.
func (s *Source) GetMergeRequestApprovals(ctx context.Context, projectID, iid int64) (*schema.Approval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mr, err := s.mergeRequest(projectID, iid)
	if err != nil {
		return nil, err
	}
	if mr.Approval == nil {
		return &schema.Approval{MRIID: iid}, nil
	}
	a := *mr.Approval
	a.MRIID = iid
	return &a, nil
}

// GetPipelineJobs implements the DataSource interface.
func (s *Source) GetPipelineJobs(ctx context.Context, projectID, pipelineID int64) ([]schema.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.project(projectID)
	if err != nil {
		return nil, err
	}
	for _, pl := range p.Pipelines {
		if pl.ID == pipelineID {
			return slices.Clone(pl.Jobs), nil
		}
	}
	return nil, fmt.Errorf("pipeline %d/%d: %w", projectID, pipelineID, contract.ErrNotFound)
}
