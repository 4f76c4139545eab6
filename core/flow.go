package core

import (
	"context"
	"time"

	"github.com/huangsam/devflow/core/agg"
	"github.com/huangsam/devflow/core/algo"
	"github.com/huangsam/devflow/core/classify"
	"github.com/huangsam/devflow/schema"
)

// Flow measures throughput and the waiting time inside the merge request lifecycle.
type Flow struct{}

// Name implements Family.
func (Flow) Name() schema.FamilyName { return schema.FlowFamily }

// Compute implements Family.
func (Flow) Compute(ctx context.Context, in *Input) (schema.FamilyResult, error) {
	f := in.fetcher(schema.FlowFamily)
	mrs, err := f.MergeRequests(ctx, in.Projects, in.since())
	if err != nil {
		return nil, err
	}
	own := in.ownMergeRequests(mrs)
	merged := in.mergedInWindow(own)
	details, err := f.MergeRequestDetails(ctx, merged, agg.WithCommits|agg.WithNotes)
	if err != nil {
		return nil, err
	}

	res := &schema.FlowResult{MergedCount: len(merged)}
	for i := range own {
		if !isWIP(in, &own[i]) {
			continue
		}
		res.WIPOpenCount++
		if in.Classifier.IsDraft(&own[i]) {
			res.DraftOpenCount++
		}
	}

	projects := make(map[int64]struct{})
	var coding, ttfr, mergeTime, readyToMerge, rounds []float64
	for _, d := range details {
		mr := d.MR
		projects[mr.ProjectID] = struct{}{}
		for i := range d.Commits {
			res.LinesChanged += d.Commits[i].ChangeVolume()
		}
		if oldest, ok := oldestCommit(d.Commits); ok {
			if v := mr.CreatedAt.Sub(oldest); v >= 0 {
				coding = append(coding, hours(v))
			}
		}
		if first, ok := in.firstReview(d.Notes, mr); ok {
			if v := first.Sub(mr.CreatedAt); v >= 0 {
				ttfr = append(ttfr, hours(v))
			}
		}
		if v := mr.MergedAt.Sub(mr.CreatedAt); v >= 0 {
			mergeTime = append(mergeTime, hours(v))
		}

		ready := readyTime(mr, d.Notes)
		if v := mr.MergedAt.Sub(ready); v >= 0 {
			readyToMerge = append(readyToMerge, hours(v))
		}
		events := timeline(d.Commits, d.Notes, mr.Author.ID, func(n *schema.Note) bool { return in.isReview(n, mr.Author) })
		rounds = append(rounds, float64(reviewRounds(between(events, ready, *mr.MergedAt))))
	}
	res.ContextSwitchingIndex = len(projects)
	res.CodingTimeHours = algo.MedianOf(in.samples(coding))
	res.TimeToFirstReviewHours = algo.MedianOf(in.samples(ttfr))
	res.MergeTimeHours = algo.MedianOf(in.samples(mergeTime))
	res.ReadyToMergeHours = algo.MedianOf(in.samples(readyToMerge))
	res.ReviewRounds = algo.MeanOf(rounds)
	return res, nil
}

// firstReview returns the time of the earliest review note on mr.
func (in *Input) firstReview(notes []schema.Note, mr schema.MergeRequest) (time.Time, bool) {
	var first time.Time
	for i := range notes {
		n := &notes[i]
		if !in.isReview(n, mr.Author) {
			continue
		}
		if first.IsZero() || n.CreatedAt.Before(first) {
			first = n.CreatedAt
		}
	}
	return first, !first.IsZero()
}

// readyTime is the latest "marked as ready" system note, or the creation time.
func readyTime(mr schema.MergeRequest, notes []schema.Note) time.Time {
	ready := mr.CreatedAt
	for i := range notes {
		if classify.IsReadyNote(&notes[i]) && notes[i].CreatedAt.After(ready) {
			ready = notes[i].CreatedAt
		}
	}
	return ready
}

// isWIP reports whether a merge request is still in progress. A draft counts
// unless it was merged or closed.
func isWIP(in *Input, mr *schema.MergeRequest) bool {
	if mr.IsOpen() {
		return true
	}
	return !mr.IsMerged() && mr.State != schema.ClosedState && in.Classifier.IsDraft(mr)
}
