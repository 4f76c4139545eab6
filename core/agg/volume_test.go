package agg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/huangsam/devflow/schema"
)

func TestDedupCommits(t *testing.T) {
	commits := []schema.Commit{
		{ProjectID: 1, ID: "a"},
		{ProjectID: 2, ID: "a"},
		{ProjectID: 1, ID: "a", Message: "dup"},
	}
	out := DedupCommits(commits)
	assert.Len(t, out, 2)
	assert.Empty(t, out[0].Message)
}

func TestAuthorVolumes(t *testing.T) {
	commits := []schema.Commit{
		{AuthorName: "Jane", AuthorEmail: "Jane@Example.com", Additions: 10, Deletions: 5},
		{AuthorName: "Jane D", AuthorEmail: "jane@example.com", Additions: 5},
		{AuthorName: "Bob"},
		{AuthorName: "renovate[bot]", Additions: 1000},
	}
	isBot := func(name, _ string) bool { return name == "renovate[bot]" }

	volumes := AuthorVolumes(commits, isBot)
	assert.Equal(t, map[string]float64{"jane@example.com": 20, "Bob": 0}, volumes)
}

func TestIsSubjectCommit(t *testing.T) {
	u := &schema.User{ID: 1, Username: "jdoe", Name: "Jane Doe", Email: "jane@example.com"}
	tests := []struct {
		name   string
		commit schema.Commit
		want   bool
	}{
		{"email case-insensitive", schema.Commit{AuthorEmail: "JANE@example.com"}, true},
		{"display name", schema.Commit{AuthorName: "Jane Doe"}, true},
		{"username", schema.Commit{AuthorName: "jdoe"}, true},
		{"other", schema.Commit{AuthorName: "Bob", AuthorEmail: "bob@example.com"}, false},
		{"empty", schema.Commit{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSubjectCommit(&tt.commit, u))
		})
	}
	assert.False(t, IsSubjectCommit(nil, u))
	assert.Len(t, SubjectCommits([]schema.Commit{{AuthorName: "jdoe"}, {AuthorName: "x"}}, u), 1)
}
