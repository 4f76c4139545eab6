package contract

import (
	"context"
	"time"

	"github.com/huangsam/devflow/schema"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of DataSource for testing.
type MockDataSource struct {
	mock.Mock
}

var _ DataSource = &MockDataSource{} // Compile-time check

// GetUserByID implements the DataSource interface.
func (m *MockDataSource) GetUserByID(ctx context.Context, userID int64) (*schema.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*schema.User)
	return u, args.Error(1)
}

// GetUserContributedProjects implements the DataSource interface.
func (m *MockDataSource) GetUserContributedProjects(ctx context.Context, userID int64) ([]schema.Project, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).([]schema.Project)
	return p, args.Error(1)
}

// GetCommits implements the DataSource interface.
func (m *MockDataSource) GetCommits(ctx context.Context, projectID int64, since time.Time) ([]schema.Commit, error) {
	args := m.Called(ctx, projectID, since)
	c, _ := args.Get(0).([]schema.Commit)
	return c, args.Error(1)
}

// GetMergeRequests implements the DataSource interface.
func (m *MockDataSource) GetMergeRequests(ctx context.Context, projectID int64, since time.Time) ([]schema.MergeRequest, error) {
	args := m.Called(ctx, projectID, since)
	mrs, _ := args.Get(0).([]schema.MergeRequest)
	return mrs, args.Error(1)
}

// GetPipelines implements the DataSource interface.
func (m *MockDataSource) GetPipelines(ctx context.Context, projectID int64, since time.Time) ([]schema.Pipeline, error) {
	args := m.Called(ctx, projectID, since)
	p, _ := args.Get(0).([]schema.Pipeline)
	return p, args.Error(1)
}

// GetMergeRequestCommits implements the DataSource interface.
func (m *MockDataSource) GetMergeRequestCommits(ctx context.Context, projectID, iid int64) ([]schema.Commit, error) {
	args := m.Called(ctx, projectID, iid)
	c, _ := args.Get(0).([]schema.Commit)
	return c, args.Error(1)
}

// GetMergeRequestNotes implements the DataSource interface.
func (m *MockDataSource) GetMergeRequestNotes(ctx context.Context, projectID, iid int64) ([]schema.Note, error) {
	args := m.Called(ctx, projectID, iid)
	n, _ := args.Get(0).([]schema.Note)
	return n, args.Error(1)
}

// GetMergeRequestDiscussions implements the DataSource interface.
func (m *MockDataSource) GetMergeRequestDiscussions(ctx context.Context, projectID, iid int64) ([]schema.Discussion, error) {
	args := m.Called(ctx, projectID, iid)
	d, _ := args.Get(0).([]schema.Discussion)
	return d, args.Error(1)
}

// GetMergeRequestApprovals implements the DataSource interface.
func (m *MockDataSource) GetMergeRequestApprovals(ctx context.Context, projectID, iid int64) (*schema.Approval, error) {
	args := m.Called(ctx, projectID, iid)
	a, _ := args.Get(0).(*schema.Approval)
	return a, args.Error(1)
}

// GetPipelineJobs implements the DataSource interface.
func (m *MockDataSource) GetPipelineJobs(ctx context.Context, projectID, pipelineID int64) ([]schema.Job, error) {
	args := m.Called(ctx, projectID, pipelineID)
	j, _ := args.Get(0).([]schema.Job)
	return j, args.Error(1)
}
