package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/devflow/internal/fixture"
	"github.com/huangsam/devflow/schema"
)

func TestCycleTimePercentiles(t *testing.T) {
	mr1 := mergedMR(1, jane, 1, 48)
	mr1.Commits = []schema.Commit{commitBy(jane, "a", 20, "second", 1, 0), commitBy(jane, "b", 0, "first", 1, 0)}
	mr2 := mergedMR(2, jane, 12, 106)
	mr2.Commits = []schema.Commit{commitBy(jane, "c", 10, "only", 1, 0)}
	noCommits := mergedMR(3, jane, 5, 6)
	negative := mergedMR(4, jane, 5, 6)
	negative.Commits = []schema.Commit{commitBy(jane, "d", 7, "late", 1, 0)}
	other := mergedMR(5, bob, 0, 10)
	other.Commits = []schema.Commit{commitBy(bob, "e", 0, "bob", 1, 0)}
	outside := mergedMR(6, jane, 700, 30*24+5)
	outside.Commits = []schema.Commit{commitBy(jane, "f", 700, "late", 1, 0)}

	in := newInput(t, singleProject(fixture.ProjectData{
		MergeRequests: []fixture.MergeRequestData{mr1, mr2, noCommits, negative, other, outside},
	}))
	res := compute[*schema.CycleTimeResult](t, CycleTime{}, in)

	assert.Equal(t, 4, res.MergedCount)
	assert.Equal(t, 2, res.SampleCount)
	assert.Equal(t, 2, res.ExcludedCount)
	require.NotNil(t, res.P50Hours)
	require.NotNil(t, res.P90Hours)
	assert.InDelta(t, 72.0, *res.P50Hours, 1e-9)
	assert.InDelta(t, 91.2, *res.P90Hours, 1e-9)
	assert.InDelta(t, 72.0, *res.MeanHours, 1e-9)
	assert.LessOrEqual(t, *res.P50Hours, *res.P90Hours)
}

func TestCycleTimeEmpty(t *testing.T) {
	in := newInput(t, singleProject(fixture.ProjectData{}))
	res := compute[*schema.CycleTimeResult](t, CycleTime{}, in)
	assert.Zero(t, res.MergedCount)
	assert.Nil(t, res.P50Hours)
	assert.Nil(t, res.P90Hours)
	assert.Nil(t, res.MeanHours)
}

func TestCycleTimeWinsorized(t *testing.T) {
	var mrs []fixture.MergeRequestData
	for i, h := range []float64{10, 11, 12, 13, 500} {
		mr := mergedMR(int64(i+1), jane, 0, h)
		mr.Commits = []schema.Commit{commitBy(jane, string(rune('a'+i)), 0, "work", 1, 0)}
		mrs = append(mrs, mr)
	}
	in := newInput(t, singleProject(fixture.ProjectData{MergeRequests: mrs}))
	in.Metrics.Winsorize = true
	in.Metrics.WinsorizeLower = 0
	in.Metrics.WinsorizeUpper = 75

	res := compute[*schema.CycleTimeResult](t, CycleTime{}, in)
	assert.Equal(t, 5, res.SampleCount)
	require.NotNil(t, res.MeanHours)
	// 500 is clamped to the 75th percentile (13)
	assert.InDelta(t, (10.0+11+12+13+13)/5, *res.MeanHours, 1e-9)
}
