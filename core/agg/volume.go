package agg

import (
	"fmt"
	"strings"

	"github.com/huangsam/devflow/schema"
)

// DedupCommits drops repeated commits of the same project and sha, keeping the first.
func DedupCommits(commits []schema.Commit) []schema.Commit {
	seen := make(map[string]struct{}, len(commits))
	out := commits[:0:0]
	for _, c := range commits {
		key := fmt.Sprintf("%d:%s", c.ProjectID, c.ID)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// AuthorVolumes sums the change volume per author key, skipping authors for which skip returns true.
// Authors whose commits changed no lines are kept with a volume of zero.
func AuthorVolumes(commits []schema.Commit, skip func(name, email string) bool) map[string]float64 {
	volumes := make(map[string]float64)
	for i := range commits {
		c := &commits[i]
		if skip != nil && skip(c.AuthorName, c.AuthorEmail) {
			continue
		}
		key := schema.AuthorKey(c.AuthorName, c.AuthorEmail)
		if key == "" {
			continue
		}
		volumes[key] += float64(c.ChangeVolume())
	}
	return volumes
}

// IsSubjectCommit reports whether the commit was authored by the user.
// Email matches case-insensitively; names match the display name or username.
func IsSubjectCommit(c *schema.Commit, u *schema.User) bool {
	if c == nil || u == nil {
		return false
	}
	if u.Email != "" && strings.EqualFold(strings.TrimSpace(c.AuthorEmail), u.Email) {
		return true
	}
	name := strings.TrimSpace(c.AuthorName)
	if name == "" {
		return false
	}
	return name == u.Name || name == u.Username
}

// SubjectCommits filters commits down to the ones authored by the user.
func SubjectCommits(commits []schema.Commit, u *schema.User) []schema.Commit {
	var out []schema.Commit
	for i := range commits {
		if IsSubjectCommit(&commits[i], u) {
			out = append(out, commits[i])
		}
	}
	return out
}
