package core

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/devflow/core/classify"
	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/internal/fixture"
	"github.com/huangsam/devflow/schema"
)

var (
	t0   = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	jane = schema.User{ID: 1, Username: "jdoe", Name: "Jane Doe", Email: "jane@example.com"}
	bob  = schema.User{ID: 2, Username: "bob", Name: "Bob Smith", Email: "bob@example.com"}
	bot  = schema.User{ID: 3, Username: "renovate[bot]", Name: "renovate[bot]", Bot: true}
)

// at returns t0 plus h hours.
func at(h float64) time.Time {
	return t0.Add(time.Duration(h * float64(time.Hour)))
}

func atp(h float64) *time.Time {
	v := at(h)
	return &v
}

func commitBy(u schema.User, id string, h float64, msg string, adds, dels int) schema.Commit {
	return schema.Commit{
		ID:          id,
		AuthorName:  u.Name,
		AuthorEmail: u.Email,
		CommittedAt: at(h),
		Message:     msg,
		Additions:   adds,
		Deletions:   dels,
		ParentCount: 1,
	}
}

func noteBy(u schema.User, id int64, h float64, body string) schema.Note {
	return schema.Note{ID: id, Author: u, CreatedAt: at(h), Body: body}
}

func systemNote(u schema.User, id int64, h float64, body string) schema.Note {
	n := noteBy(u, id, h, body)
	n.System = true
	return n
}

func mergedMR(iid int64, author schema.User, created, merged float64) fixture.MergeRequestData {
	return fixture.MergeRequestData{MergeRequest: schema.MergeRequest{
		IID:          iid,
		Author:       author,
		Title:        "Change " + author.Username,
		CreatedAt:    at(created),
		MergedAt:     atp(merged),
		State:        schema.MergedState,
		SourceBranch: "feature/change",
		TargetBranch: "main",
	}}
}

func singleProject(p fixture.ProjectData) fixture.Dataset {
	if p.ID == 0 {
		p.ID = 10
	}
	if p.Path == "" {
		p.Path = "acme/api"
	}
	if p.DefaultBranch == "" {
		p.DefaultBranch = "main"
	}
	return fixture.Dataset{Users: []schema.User{jane, bob, bot}, Projects: []fixture.ProjectData{p}}
}

// newInput builds the input of a 30 day window starting at t0 with jane as subject.
func newInput(t *testing.T, data fixture.Dataset) *Input {
	t.Helper()
	src := fixture.New(data)
	projects, err := src.GetUserContributedProjects(context.Background(), jane.ID)
	require.NoError(t, err)
	window, err := NewWindow(jane.ID, t0.Add(30*day), 30)
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	return &Input{
		Subject:    jane,
		Window:     window,
		Projects:   projects,
		Source:     src,
		Classifier: classify.Default(),
		Metrics:    contract.DefaultMetricsConfig(),
		Log:        log,
		Workers:    4,
	}
}

func compute[R schema.FamilyResult](t *testing.T, f Family, in *Input) R {
	t.Helper()
	res, err := f.Compute(context.Background(), in)
	require.NoError(t, err)
	out, ok := res.(R)
	require.True(t, ok, "unexpected result type %T", res)
	return out
}
