package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/devflow/internal/contract"
)

func loadSample(t *testing.T) *Source {
	t.Helper()
	src, err := Load(filepath.Join("testdata", "sample.yaml"))
	require.NoError(t, err)
	return src
}

func TestLoadYAML(t *testing.T) {
	ctx := context.Background()
	src := loadSample(t)

	u, err := src.GetUserByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", u.Username)

	projects, err := src.GetUserContributedProjects(ctx, 1)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "acme/api", projects[0].Path)
	assert.Equal(t, "main", projects[0].DefaultBranch)

	projects, err = src.GetUserContributedProjects(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestSinceFilters(t *testing.T) {
	ctx := context.Background()
	src := loadSample(t)
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	commits, err := src.GetCommits(ctx, 10, since)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "a1", commits[0].ID)
	assert.Equal(t, int64(10), commits[0].ProjectID)

	mrs, err := src.GetMergeRequests(ctx, 10, since)
	require.NoError(t, err)
	require.Len(t, mrs, 1)
	assert.True(t, mrs[0].Squash)
	assert.Equal(t, int64(10), mrs[0].ProjectID)

	mrs, err = src.GetMergeRequests(ctx, 10, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, mrs)

	pipelines, err := src.GetPipelines(ctx, 10, since)
	require.NoError(t, err)
	require.Len(t, pipelines, 1)
	assert.Equal(t, "a1", pipelines[0].SHA)
}

func TestSubResources(t *testing.T) {
	ctx := context.Background()
	src := loadSample(t)

	notes, err := src.GetMergeRequestNotes(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, int64(500), notes[0].ID, "notes are returned oldest first")
	assert.Equal(t, int64(3), notes[0].MRIID)

	approval, err := src.GetMergeRequestApprovals(ctx, 10, 3)
	require.NoError(t, err)
	assert.True(t, approval.HasApprover(2))

	jobs, err := src.GetPipelineJobs(ctx, 10, 900)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].Duration)
	assert.InDelta(t, 120.0, *jobs[0].Duration, 1e-9)
	assert.Equal(t, int64(900), jobs[0].PipelineID)
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	src := loadSample(t)

	_, err := src.GetUserByID(ctx, 99)
	assert.True(t, contract.IsNotFound(err))
	_, err = src.GetMergeRequestCommits(ctx, 10, 99)
	assert.ErrorIs(t, err, contract.ErrNotFound)
	_, err = src.GetCommits(ctx, 99, time.Time{})
	assert.ErrorIs(t, err, contract.ErrNotFound)
	_, err = src.GetPipelineJobs(ctx, 10, 1)
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := loadSample(t).GetCommits(ctx, 10, time.Time{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadJSONAndErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"users":[{"id":5,"username":"ann"}],"projects":[{"id":1,"path":"x/y"}]}`), 0o644))

	src, err := Load(path)
	require.NoError(t, err)
	projects, err := src.GetUserContributedProjects(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "x/y", projects[0].Path)

	_, err = Load(filepath.Join(dir, "events.txt"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("users: ["), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
