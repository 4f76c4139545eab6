package core

import (
	"context"
	"time"

	"github.com/huangsam/devflow/core/agg"
	"github.com/huangsam/devflow/core/algo"
	"github.com/huangsam/devflow/schema"
)

// CycleTime measures first commit to merge for the subject's merged merge requests.
type CycleTime struct{}

// Name implements Family.
func (CycleTime) Name() schema.FamilyName { return schema.CycleTimeFamily }

// Compute implements Family.
func (CycleTime) Compute(ctx context.Context, in *Input) (schema.FamilyResult, error) {
	f := in.fetcher(schema.CycleTimeFamily)
	mrs, err := f.MergeRequests(ctx, in.Projects, in.since())
	if err != nil {
		return nil, err
	}
	merged := in.mergedInWindow(in.ownMergeRequests(mrs))
	details, err := f.MergeRequestDetails(ctx, merged, agg.WithCommits)
	if err != nil {
		return nil, err
	}

	res := &schema.CycleTimeResult{MergedCount: len(merged)}
	var samples []float64
	for _, d := range details {
		oldest, ok := oldestCommit(d.Commits)
		if !ok {
			res.ExcludedCount++
			continue
		}
		ct := d.MR.MergedAt.Sub(oldest)
		if ct <= 0 {
			res.ExcludedCount++
			continue
		}
		samples = append(samples, hours(ct))
	}
	res.SampleCount = len(samples)

	ps, err := in.percentiles(samples, 50, 90)
	if err != nil {
		return nil, err
	}
	res.P50Hours, res.P90Hours = ps[0], ps[1]
	res.MeanHours = algo.MeanOf(in.samples(samples))
	return res, nil
}

// oldestCommit returns the earliest non-zero commit timestamp.
func oldestCommit(commits []schema.Commit) (time.Time, bool) {
	var oldest time.Time
	for _, c := range commits {
		if c.CommittedAt.IsZero() {
			continue
		}
		if oldest.IsZero() || c.CommittedAt.Before(oldest) {
			oldest = c.CommittedAt
		}
	}
	return oldest, !oldest.IsZero()
}
