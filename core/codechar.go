package core

import (
	"context"

	"github.com/huangsam/devflow/core/agg"
	"github.com/huangsam/devflow/core/algo"
	"github.com/huangsam/devflow/schema"
)

// CodeCharacteristics measures the shape of the subject's commits and merge requests.
type CodeCharacteristics struct{}

// Name implements Family.
func (CodeCharacteristics) Name() schema.FamilyName { return schema.CodeCharacteristicsFamily }

// Compute implements Family.
func (CodeCharacteristics) Compute(ctx context.Context, in *Input) (schema.FamilyResult, error) {
	f := in.fetcher(schema.CodeCharacteristicsFamily)
	all, err := f.Commits(ctx, in.Projects, in.since())
	if err != nil {
		return nil, err
	}
	mrs, err := f.MergeRequests(ctx, in.Projects, in.since())
	if err != nil {
		return nil, err
	}

	// merge commits and other excluded messages are not authored work
	var commits []schema.Commit
	for _, c := range in.subjectCommits(all) {
		if c.ParentCount > 1 || in.Classifier.ShouldExcludeCommit(c.Message) {
			continue
		}
		commits = append(commits, c)
	}
	res := &schema.CodeCharacteristicsResult{CommitCount: len(commits)}
	if in.Window.LengthDays > 0 {
		res.CommitsPerDay = ptr(float64(len(commits)) / float64(in.Window.LengthDays))
	}

	var sizes []float64
	var qualifying, conventional int
	for i := range commits {
		c := &commits[i]
		if v := c.ChangeVolume(); v > 0 {
			sizes = append(sizes, float64(v))
		}
		if in.Classifier.QualifiesMessage(c.Message) {
			qualifying++
			if in.Classifier.IsConventionalCommit(c.Message) {
				conventional++
			}
		}
	}
	ps, err := algo.Percentiles(sizes, 50, 95)
	if err != nil {
		return nil, err
	}
	res.CommitSizeP50, res.CommitSizeP95 = ps[0], ps[1]
	res.CommitSizeMean = algo.MeanOf(sizes)
	res.ConventionalCommitRate = algo.Ratio(conventional, qualifying)

	merged := in.mergedInWindow(in.ownMergeRequests(mrs))
	var squashed, branches, compliant int
	var unsized []schema.MergeRequest
	for _, mr := range merged {
		if mr.Squash {
			squashed++
		}
		if !in.Classifier.ShouldExcludeBranch(mr.SourceBranch) {
			branches++
			if in.Classifier.IsCompliantBranch(mr.SourceBranch) {
				compliant++
			}
		}
		if mr.ChangedLines > 0 {
			res.MRSizeHistogram.Add(in.Metrics.SizeThresholds.Bucket(mr.ChangedLines))
		} else {
			unsized = append(unsized, mr)
		}
	}
	res.SquashRate = algo.Ratio(squashed, len(merged))
	res.BranchNamingComplianceRate = algo.Ratio(compliant, branches)

	details, err := f.MergeRequestDetails(ctx, unsized, agg.WithCommits)
	if err != nil {
		return nil, err
	}
	for _, d := range details {
		var lines int
		for i := range d.Commits {
			lines += d.Commits[i].ChangeVolume()
		}
		res.MRSizeHistogram.Add(in.Metrics.SizeThresholds.Bucket(lines))
	}
	return res, nil
}
