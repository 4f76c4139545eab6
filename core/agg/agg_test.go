package agg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

var since = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func quietLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

func TestCommitsToleratesProjectFailure(t *testing.T) {
	src := &contract.MockDataSource{}
	src.On("GetCommits", mock.Anything, int64(1), since).Return([]schema.Commit{
		{ID: "a", AuthorName: "Jane"},
		{ID: "a", AuthorName: "Jane"},
	}, nil)
	src.On("GetCommits", mock.Anything, int64(2), since).Return(nil, errors.New("boom"))
	src.On("GetCommits", mock.Anything, int64(3), since).Return([]schema.Commit{{ID: "b"}}, nil)

	log, hook := quietLogger()
	f := NewFetcher(src, log, 2)
	commits, err := f.Commits(context.Background(), []schema.Project{{ID: 1}, {ID: 2}, {ID: 3}}, since)

	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, int64(1), commits[0].ProjectID)
	assert.Equal(t, int64(3), commits[1].ProjectID)

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, int64(2), entry.Data["project"])
	assert.Equal(t, "commits", entry.Data["resource"])
	src.AssertExpectations(t)
}

func TestCommitsCancelled(t *testing.T) {
	src := &contract.MockDataSource{}
	ctx, cancel := context.WithCancel(context.Background())
	src.On("GetCommits", mock.Anything, int64(1), since).Run(func(mock.Arguments) {
		cancel()
	}).Return(nil, context.Canceled)
	src.On("GetCommits", mock.Anything, mock.Anything, since).Return([]schema.Commit{{ID: "x"}}, nil).Maybe()

	log, hook := quietLogger()
	f := NewFetcher(src, log, 1)
	_, err := f.Commits(ctx, []schema.Project{{ID: 1}, {ID: 2}}, since)

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, hook.AllEntries())
}

func TestMergeRequestDetailsPartial(t *testing.T) {
	src := &contract.MockDataSource{}
	mr := schema.MergeRequest{ProjectID: 7, IID: 3}
	src.On("GetMergeRequestCommits", mock.Anything, int64(7), int64(3)).Return([]schema.Commit{{ID: "c1"}}, nil)
	src.On("GetMergeRequestNotes", mock.Anything, int64(7), int64(3)).Return(nil, errors.New("timeout"))
	src.On("GetMergeRequestApprovals", mock.Anything, int64(7), int64(3)).Return(&schema.Approval{MRIID: 3}, nil)

	log, hook := quietLogger()
	f := NewFetcher(src, log, 4)
	details, err := f.MergeRequestDetails(context.Background(), []schema.MergeRequest{mr}, WithCommits|WithNotes|WithApprovals)

	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, mr, details[0].MR)
	assert.Len(t, details[0].Commits, 1)
	assert.Empty(t, details[0].Notes)
	assert.Nil(t, details[0].Discussions)
	require.NotNil(t, details[0].Approval)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, int64(3), entry.Data["iid"])
	assert.Equal(t, "notes", entry.Data["resource"])
	src.AssertNotCalled(t, "GetMergeRequestDiscussions", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipelineJobsKeepsPipelineOnFailure(t *testing.T) {
	src := &contract.MockDataSource{}
	pipelines := []schema.Pipeline{{ProjectID: 1, ID: 10}, {ProjectID: 1, ID: 11}}
	src.On("GetPipelineJobs", mock.Anything, int64(1), int64(10)).Return([]schema.Job{{ID: 100}}, nil)
	src.On("GetPipelineJobs", mock.Anything, int64(1), int64(11)).Return(nil, errors.New("gone"))

	log, _ := quietLogger()
	details, err := NewFetcher(src, log, 2).PipelineJobs(context.Background(), pipelines)

	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Len(t, details[0].Jobs, 1)
	assert.Equal(t, int64(11), details[1].Pipeline.ID)
	assert.Empty(t, details[1].Jobs)
}

func TestNewFetcherDefaults(t *testing.T) {
	f := NewFetcher(&contract.MockDataSource{}, nil, 0)
	assert.Equal(t, contract.DefaultWorkers, f.Workers)
	assert.NotNil(t, f.Log)
}

func TestFetchLeavesSourceSlicesUntouched(t *testing.T) {
	commits := []schema.Commit{{ID: "a"}}
	mrs := []schema.MergeRequest{{IID: 1}}
	pipelines := []schema.Pipeline{{ID: 7}}
	src := &contract.MockDataSource{}
	src.On("GetCommits", mock.Anything, int64(4), since).Return(commits, nil)
	src.On("GetMergeRequests", mock.Anything, int64(4), since).Return(mrs, nil)
	src.On("GetPipelines", mock.Anything, int64(4), since).Return(pipelines, nil)

	log, _ := quietLogger()
	f := NewFetcher(src, log, 2)
	projects := []schema.Project{{ID: 4}}
	ctx := context.Background()

	gotCommits, err := f.Commits(ctx, projects, since)
	require.NoError(t, err)
	gotMRs, err := f.MergeRequests(ctx, projects, since)
	require.NoError(t, err)
	gotPipelines, err := f.Pipelines(ctx, projects, since)
	require.NoError(t, err)

	assert.Equal(t, int64(4), gotCommits[0].ProjectID)
	assert.Equal(t, int64(4), gotMRs[0].ProjectID)
	assert.Equal(t, int64(4), gotPipelines[0].ProjectID)
	assert.Zero(t, commits[0].ProjectID)
	assert.Zero(t, mrs[0].ProjectID)
	assert.Zero(t, pipelines[0].ProjectID)
}
