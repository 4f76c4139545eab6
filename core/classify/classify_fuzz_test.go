package classify

import (
	"strings"
	"testing"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// FuzzShouldExcludeFile fuzzes file rule compilation and matching with random paths and patterns.
func FuzzShouldExcludeFile(f *testing.F) {
	seeds := []struct {
		path     string
		excludes string // comma-separated
	}{
		{"main.go", "*.log"},
		{"vendor/package/file.go", "vendor/"},
		{"test_file.min.js", "*.min.js"},
		{"config.json", ".json"},
		{"", ""},
		{"very/long/path/to/file.txt", "**/temp/**"},
	}
	for _, seed := range seeds {
		f.Add(seed.path, seed.excludes)
	}

	f.Fuzz(func(_ *testing.T, path string, excludesStr string) {
		cfg := contract.ClassifierConfig{FileExcludes: strings.Split(excludesStr, ",")}
		c, err := New(cfg)
		if err != nil {
			return
		}
		_ = c.ShouldExcludeFile(path)
	})
}

// FuzzPredicates feeds arbitrary text through every text predicate.
func FuzzPredicates(f *testing.F) {
	for _, s := range []string{"", "feat: x", "Revert \"y\"", "Merge branch 'a'", "hotfix/z", "\x00\n\n"} {
		f.Add(s)
	}
	c := Default()
	f.Fuzz(func(_ *testing.T, s string) {
		_ = c.IsConventionalCommit(s)
		_ = c.QualifiesMessage(s)
		_ = c.ShouldExcludeCommit(s)
		_ = c.IsCompliantBranch(s)
		_ = c.IsRevert(&schema.Commit{Message: s})
		_ = c.IsHotfix(&schema.MergeRequest{Title: s, SourceBranch: s, Labels: []string{s}})
		_ = c.IsBot(&schema.User{Username: s, Name: s})
	})
}
