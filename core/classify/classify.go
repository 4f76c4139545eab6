// Package classify tags commits, merge requests, branches and notes with
// the labels the metric families filter on. A Classifier is compiled once
// from a contract.ClassifierConfig and is safe for concurrent use.
package classify

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// Headliner is anything with a one-line summary, such as a commit or a merge request.
type Headliner interface {
	Headline() string
}

var (
	readyNoteRe = regexp.MustCompile(`(?i)marked this merge request as ready`)
	draftNoteRe = regexp.MustCompile(`(?i)marked this merge request as (draft|work in progress)`)
)

type fileRuleKind int

const (
	globRule fileRuleKind = iota
	prefixRule
	suffixRule
	substringRule
)

type fileRule struct {
	kind    fileRuleKind
	pattern string
}

// Classifier holds compiled pattern sets. The zero value matches nothing.
type Classifier struct {
	bots             []*regexp.Regexp
	commitExcludes   []*regexp.Regexp
	conventional     []*regexp.Regexp
	branchNaming     []*regexp.Regexp
	branchExcludes   []*regexp.Regexp
	hotfix           []*regexp.Regexp
	hotfixBranches   []*regexp.Regexp
	hotfixLabels     []*regexp.Regexp
	reverts          []*regexp.Regexp
	security         []*regexp.Regexp
	securityLabels   []*regexp.Regexp
	drafts           []*regexp.Regexp
	fileExcludes     []fileRule
	minMessageLength int
}

// New compiles every pattern of cfg. Invalid patterns are reported as validation errors.
func New(cfg contract.ClassifierConfig) (*Classifier, error) {
	c := &Classifier{minMessageLength: cfg.MinMessageLength}
	sets := []struct {
		field    string
		patterns []string
		dst      *[]*regexp.Regexp
	}{
		{"bot_patterns", cfg.BotPatterns, &c.bots},
		{"commit_exclude_patterns", cfg.CommitExcludePatterns, &c.commitExcludes},
		{"conventional_commit_patterns", cfg.ConventionalCommitPatterns, &c.conventional},
		{"branch_naming_patterns", cfg.BranchNamingPatterns, &c.branchNaming},
		{"branch_exclude_patterns", cfg.BranchExcludePatterns, &c.branchExcludes},
		{"hotfix_patterns", cfg.HotfixPatterns, &c.hotfix},
		{"hotfix_branch_patterns", cfg.HotfixBranchPatterns, &c.hotfixBranches},
		{"hotfix_labels", cfg.HotfixLabels, &c.hotfixLabels},
		{"revert_patterns", cfg.RevertPatterns, &c.reverts},
		{"security_patterns", cfg.SecurityPatterns, &c.security},
		{"security_labels", cfg.SecurityLabels, &c.securityLabels},
		{"draft_patterns", cfg.DraftPatterns, &c.drafts},
	}
	for _, set := range sets {
		compiled, err := compile(set.field, set.patterns)
		if err != nil {
			return nil, err
		}
		*set.dst = compiled
	}

	rules, err := compileFileRules(cfg.FileExcludes)
	if err != nil {
		return nil, err
	}
	c.fileExcludes = rules
	return c, nil
}

// Default returns a classifier built from contract.DefaultClassifierConfig.
func Default() *Classifier {
	c, err := New(contract.DefaultClassifierConfig())
	if err != nil {
		panic(err) // built-in patterns are covered by tests
	}
	return c
}

func compile(field string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, contract.NewValidationError("classifier."+field, "bad pattern %q: %v", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// compileFileRules resolves each exclude into a glob, prefix (dir/),
// suffix (.ext) or substring rule once, up front.
func compileFileRules(excludes []string) ([]fileRule, error) {
	var rules []fileRule
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		switch {
		case ex == "":
			continue
		case strings.ContainsAny(ex, "*?["):
			pat := strings.ReplaceAll(ex, "**", "*")
			if _, err := filepath.Match(pat, ""); err != nil {
				return nil, contract.NewValidationError("classifier.file_excludes", "bad glob %q: %v", ex, err)
			}
			rules = append(rules, fileRule{kind: globRule, pattern: pat})
		case strings.HasSuffix(ex, "/"):
			rules = append(rules, fileRule{kind: prefixRule, pattern: ex})
		case strings.HasPrefix(ex, "."):
			rules = append(rules, fileRule{kind: suffixRule, pattern: ex})
		default:
			rules = append(rules, fileRule{kind: substringRule, pattern: ex})
		}
	}
	return rules, nil
}

func matchAny(res []*regexp.Regexp, s string) bool {
	if s == "" {
		return false
	}
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func matchAnyLabel(res []*regexp.Regexp, labels []string) bool {
	for _, l := range labels {
		if matchAny(res, strings.TrimSpace(l)) {
			return true
		}
	}
	return false
}

func headline(msg string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(msg), "\n")
	return strings.TrimSpace(line)
}

// IsBot reports whether the user is an automation account.
func (c *Classifier) IsBot(u *schema.User) bool {
	if u == nil {
		return false
	}
	return u.Bot || matchAny(c.bots, u.Username) || matchAny(c.bots, u.Name)
}

// IsBotAuthor reports whether a commit author name or email belongs to an automation account.
func (c *Classifier) IsBotAuthor(name, email string) bool {
	local, _, _ := strings.Cut(email, "@")
	return matchAny(c.bots, strings.TrimSpace(name)) || matchAny(c.bots, local)
}

// ShouldExcludeCommit reports whether a commit message is noise, such as a merge commit.
func (c *Classifier) ShouldExcludeCommit(msg string) bool {
	return matchAny(c.commitExcludes, headline(msg))
}

// ShouldExcludeBranch reports whether a branch is exempt from naming rules.
func (c *Classifier) ShouldExcludeBranch(name string) bool {
	return matchAny(c.branchExcludes, strings.TrimSpace(name))
}

// ShouldExcludeFile reports whether a path matches any file exclude rule.
func (c *Classifier) ShouldExcludeFile(path string) bool {
	if path == "" {
		return false
	}
	for _, r := range c.fileExcludes {
		switch r.kind {
		case globRule:
			if ok, _ := filepath.Match(r.pattern, path); ok {
				return true
			}
			if ok, _ := filepath.Match(r.pattern, filepath.Base(path)); ok {
				return true
			}
		case prefixRule:
			if strings.HasPrefix(path, r.pattern) {
				return true
			}
		case suffixRule:
			if strings.HasSuffix(path, r.pattern) {
				return true
			}
		case substringRule:
			if strings.Contains(path, r.pattern) {
				return true
			}
		}
	}
	return false
}

// IsHotfix reports whether a merge request is an urgent fix, by title, source branch or label.
func (c *Classifier) IsHotfix(mr *schema.MergeRequest) bool {
	if mr == nil {
		return false
	}
	return matchAny(c.hotfix, mr.Headline()) ||
		matchAny(c.hotfixBranches, mr.SourceBranch) ||
		matchAnyLabel(c.hotfixLabels, mr.Labels)
}

// IsSecurityFix reports whether a merge request addresses a vulnerability, by title or label.
func (c *Classifier) IsSecurityFix(mr *schema.MergeRequest) bool {
	if mr == nil {
		return false
	}
	return matchAny(c.security, mr.Headline()) || matchAnyLabel(c.securityLabels, mr.Labels)
}

// IsRevert reports whether a commit or merge request undoes earlier work.
// Commits are matched on their full message, so "This reverts commit ..." trailers count.
func (c *Classifier) IsRevert(item Headliner) bool {
	switch v := item.(type) {
	case nil:
		return false
	case *schema.Commit:
		if v == nil {
			return false
		}
		return matchAny(c.reverts, v.Headline()) || matchAny(c.reverts, v.Message)
	case *schema.MergeRequest:
		if v == nil {
			return false
		}
		return matchAny(c.reverts, v.Headline())
	default:
		return matchAny(c.reverts, item.Headline())
	}
}

// IsDraft reports whether a merge request is a draft, by flag, state or title prefix.
func (c *Classifier) IsDraft(mr *schema.MergeRequest) bool {
	if mr == nil {
		return false
	}
	return mr.Draft || mr.State == schema.DraftState || matchAny(c.drafts, mr.Headline())
}

// IsConventionalCommit reports whether the commit headline follows the conventional format.
func (c *Classifier) IsConventionalCommit(msg string) bool {
	return matchAny(c.conventional, headline(msg))
}

// QualifiesMessage reports whether a commit message counts toward the conventional commit rate:
// not excluded and at least the minimum headline length.
func (c *Classifier) QualifiesMessage(msg string) bool {
	h := headline(msg)
	if h == "" || c.ShouldExcludeCommit(h) {
		return false
	}
	return utf8.RuneCountInString(h) >= c.minMessageLength
}

// IsCompliantBranch reports whether a branch name follows the naming convention.
func (c *Classifier) IsCompliantBranch(name string) bool {
	return matchAny(c.branchNaming, strings.TrimSpace(name))
}

// IsReadyNote reports whether a system note marks a merge request as ready for review.
func IsReadyNote(n *schema.Note) bool {
	return n != nil && n.System && readyNoteRe.MatchString(n.Body)
}

// IsDraftNote reports whether a system note moves a merge request back to draft.
func IsDraftNote(n *schema.Note) bool {
	return n != nil && n.System && draftNoteRe.MatchString(n.Body)
}
