package core

import (
	"context"
	"slices"
	"time"

	"github.com/huangsam/devflow/core/agg"
	"github.com/huangsam/devflow/core/algo"
	"github.com/huangsam/devflow/core/classify"
	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// Advanced measures ownership concentration and review rhythm.
type Advanced struct{}

// Name implements Family.
func (Advanced) Name() schema.FamilyName { return schema.AdvancedFamily }

// Compute implements Family.
func (Advanced) Compute(ctx context.Context, in *Input) (schema.FamilyResult, error) {
	f := in.fetcher(schema.AdvancedFamily)
	all, err := f.Commits(ctx, in.Projects, in.since())
	if err != nil {
		return nil, err
	}
	mrs, err := f.MergeRequests(ctx, in.Projects, in.since())
	if err != nil {
		return nil, err
	}

	res := &schema.AdvancedResult{}
	ownership(in, all, res)

	var own, others []schema.MergeRequest
	for _, mr := range mrs {
		if in.isSubject(mr.Author) {
			own = append(own, mr)
		} else {
			others = append(others, mr)
		}
	}

	otherDetails, err := f.MergeRequestDetails(ctx, others, agg.WithNotes)
	if err != nil {
		return nil, err
	}
	var replies []time.Time
	for _, d := range otherDetails {
		for _, n := range d.Notes {
			if !n.System && in.isSubject(n.Author) && in.Window.Contains(n.CreatedAt) {
				replies = append(replies, n.CreatedAt)
			}
		}
	}
	res.ResponseTimeDistribution, res.PeakHour = algo.HourHistogram(replies, in.location())

	ownDetails, err := f.MergeRequestDetails(ctx, own, agg.WithCommits|agg.WithNotes)
	if err != nil {
		return nil, err
	}
	idleCap := in.Metrics.IdleCap
	if idleCap <= 0 {
		idleCap = contract.DefaultIdleCapDays * day
	}
	var batches, drafts, iterations, idle []float64
	for _, d := range ownDetails {
		mr := d.MR
		for _, dur := range draftSpans(d.Notes) {
			drafts = append(drafts, hours(dur))
		}
		events := timeline(d.Commits, d.Notes, mr.Author.ID, func(n *schema.Note) bool { return in.isReview(n, mr.Author) })
		for _, gap := range idleGaps(events, idleCap) {
			idle = append(idle, hours(gap))
		}
		if !mr.IsMerged() || !in.Window.ContainsPtr(mr.MergedAt) {
			continue
		}
		if n := batchSize(in, mr, d.Commits); n > 0 {
			batches = append(batches, float64(n))
		}
		if hasReview(events) {
			iterations = append(iterations, float64(reviewRounds(events)))
		}
	}
	ps, err := algo.Percentiles(batches, 50, 95)
	if err != nil {
		return nil, err
	}
	res.BatchSizeP50, res.BatchSizeP95 = ps[0], ps[1]
	res.DraftDurationHours = algo.MedianOf(in.samples(drafts))
	res.IterationCount = algo.MedianOf(iterations)
	res.IdleTimeInReviewHours = algo.MedianOf(in.samples(idle))
	return res, nil
}

// ownership fills the bus factor fields from non-bot commit volume across all projects.
func ownership(in *Input, commits []schema.Commit, res *schema.AdvancedResult) {
	var windowed []schema.Commit
	for _, c := range commits {
		if in.Window.Contains(c.CommittedAt) && !in.Classifier.ShouldExcludeCommit(c.Message) {
			windowed = append(windowed, c)
		}
	}
	volumes := agg.AuthorVolumes(windowed, in.Classifier.IsBotAuthor)
	res.AuthorCount = len(volumes)
	if len(volumes) == 0 {
		return
	}
	values := make([]float64, 0, len(volumes))
	var total float64
	for _, v := range volumes {
		values = append(values, v)
		total += v
	}
	res.BusFactor = ptr(algo.Gini(values))
	top := in.Metrics.TopAuthors
	if top <= 0 {
		top = contract.DefaultTopAuthors
	}
	if share, ok := algo.TopShare(values, top); ok {
		res.Top3Percentage = &share
	}
	for _, a := range algo.RankAuthors(volumes, top) {
		res.TopAuthors = append(res.TopAuthors, a.Author)
	}
	var mine float64
	for i := range windowed {
		c := &windowed[i]
		if agg.IsSubjectCommit(c, &in.Subject) && !in.Classifier.IsBotAuthor(c.AuthorName, c.AuthorEmail) {
			mine += float64(c.ChangeVolume())
		}
	}
	if total > 0 {
		res.SubjectSharePercentage = ptr(mine / total * 100)
	}
}

// batchSize counts the subject's commits made while the merge request was open.
func batchSize(in *Input, mr schema.MergeRequest, commits []schema.Commit) int {
	var n int
	for i := range commits {
		c := &commits[i]
		if !agg.IsSubjectCommit(c, &in.Subject) {
			continue
		}
		if c.CommittedAt.Before(mr.CreatedAt) || c.CommittedAt.After(*mr.MergedAt) {
			continue
		}
		n++
	}
	return n
}

// draftSpans pairs each "marked as draft" note with the next "marked as ready" note.
func draftSpans(notes []schema.Note) []time.Duration {
	notes = slices.Clone(notes)
	slices.SortStableFunc(notes, func(a, b schema.Note) int { return a.CreatedAt.Compare(b.CreatedAt) })
	var spans []time.Duration
	var entered time.Time
	for i := range notes {
		n := &notes[i]
		switch {
		case classify.IsDraftNote(n):
			if entered.IsZero() {
				entered = n.CreatedAt
			}
		case classify.IsReadyNote(n):
			if !entered.IsZero() {
				if d := n.CreatedAt.Sub(entered); d >= 0 {
					spans = append(spans, d)
				}
				entered = time.Time{}
			}
		}
	}
	return spans
}
