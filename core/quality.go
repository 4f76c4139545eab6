package core

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/huangsam/devflow/core/agg"
	"github.com/huangsam/devflow/core/algo"
	"github.com/huangsam/devflow/schema"
)

// Quality measures rework, reverts and CI health around the subject's changes.
type Quality struct{}

// Name implements Family.
func (Quality) Name() schema.FamilyName { return schema.QualityFamily }

// Compute implements Family.
func (Quality) Compute(ctx context.Context, in *Input) (schema.FamilyResult, error) {
	f := in.fetcher(schema.QualityFamily)
	mrs, err := f.MergeRequests(ctx, in.Projects, in.since())
	if err != nil {
		return nil, err
	}
	merged := in.mergedInWindow(in.ownMergeRequests(mrs))
	details, err := f.MergeRequestDetails(ctx, merged, agg.WithCommits|agg.WithNotes)
	if err != nil {
		return nil, err
	}
	commits, err := f.Commits(ctx, in.Projects, in.since())
	if err != nil {
		return nil, err
	}
	pipelines, err := f.Pipelines(ctx, in.Projects, in.since())
	if err != nil {
		return nil, err
	}

	res := &schema.QualityResult{MergedCount: len(merged)}
	var rework, reverts, hotfixes, security, conflicts int
	for _, d := range details {
		mr := d.MR
		if isRework(in, d) {
			rework++
		}
		if in.Classifier.IsRevert(&mr) {
			reverts++
		}
		if in.Classifier.IsHotfix(&mr) {
			hotfixes++
		}
		if in.Classifier.IsSecurityFix(&mr) {
			security++
		}
		if mr.HasConflicts {
			conflicts++
		}
	}
	n := len(merged)
	res.ReworkRatio = algo.Ratio(rework, n)
	res.RevertRate = algo.Ratio(reverts, n)
	res.HotfixRate = algo.Ratio(hotfixes, n)
	res.SecurityFixRate = algo.Ratio(security, n)
	res.ConflictRate = algo.Ratio(conflicts, n)

	own := in.subjectCommits(commits)
	res.CommitRevertRate = commitRevertRate(in, own)

	shas := make(map[string]struct{}, len(own))
	for _, c := range own {
		shas[c.ID] = struct{}{}
	}
	var subjectPipelines, defaultBranch []schema.Pipeline
	defaults := make(map[int64]string, len(in.Projects))
	for _, p := range in.Projects {
		defaults[p.ID] = p.DefaultBranch
	}
	for _, p := range pipelines {
		if !in.Window.Contains(p.CreatedAt) {
			continue
		}
		if _, ok := shas[p.SHA]; ok || p.UserID == in.Subject.ID {
			subjectPipelines = append(subjectPipelines, p)
		}
		if ref := defaults[p.ProjectID]; ref != "" && p.Ref == ref {
			defaultBranch = append(defaultBranch, p)
		}
	}
	res.PipelineCount = len(subjectPipelines)
	res.CISuccessRate = successRate(firstRuns(subjectPipelines))
	ps, err := in.percentiles(pipelineMinutes(subjectPipelines), 50, 95)
	if err != nil {
		return nil, err
	}
	res.PipelineDurationP50Minutes, res.PipelineDurationP95Minutes = ps[0], ps[1]

	res.DefaultBranchSuccessRate = successRate(defaultBranch)
	ps, err = in.percentiles(pipelineMinutes(defaultBranch), 50, 90)
	if err != nil {
		return nil, err
	}
	res.DefaultBranchDurationP50Minutes, res.DefaultBranchDurationP90Minutes = ps[0], ps[1]

	jobs, err := f.PipelineJobs(ctx, subjectPipelines)
	if err != nil {
		return nil, err
	}
	if err := jobStats(in, jobs, res); err != nil {
		return nil, err
	}
	return res, nil
}

// isRework reports whether a commit landed strictly after the first review.
func isRework(in *Input, d agg.MRDetails) bool {
	first, ok := in.firstReview(d.Notes, d.MR)
	if !ok {
		return false
	}
	for _, c := range d.Commits {
		if c.CommittedAt.After(first) {
			return true
		}
	}
	return false
}

func commitRevertRate(in *Input, commits []schema.Commit) *float64 {
	var reverts int
	for i := range commits {
		if in.Classifier.IsRevert(&commits[i]) {
			reverts++
		}
	}
	return algo.Ratio(reverts, len(commits))
}

// firstRuns keeps the earliest pipeline per project and sha. Ties break on the lower id.
func firstRuns(pipelines []schema.Pipeline) []schema.Pipeline {
	type key struct {
		project int64
		sha     string
	}
	first := make(map[key]schema.Pipeline)
	for _, p := range pipelines {
		if p.SHA == "" {
			continue
		}
		k := key{p.ProjectID, p.SHA}
		cur, ok := first[k]
		if !ok || p.CreatedAt.Before(cur.CreatedAt) || (p.CreatedAt.Equal(cur.CreatedAt) && p.ID < cur.ID) {
			first[k] = p
		}
	}
	out := make([]schema.Pipeline, 0, len(first))
	for _, p := range first {
		out = append(out, p)
	}
	return out
}

// successRate is successes over all given pipelines, whatever their status.
func successRate(pipelines []schema.Pipeline) *float64 {
	var ok int
	for _, p := range pipelines {
		if p.Status == schema.SuccessStatus {
			ok++
		}
	}
	return algo.Ratio(ok, len(pipelines))
}

// pipelineMinutes returns positive wall-clock durations, preferring updated minus created.
func pipelineMinutes(pipelines []schema.Pipeline) []float64 {
	var out []float64
	for _, p := range pipelines {
		var d time.Duration
		switch {
		case p.UpdatedAt != nil:
			d = p.UpdatedAt.Sub(p.CreatedAt)
		case p.FinishedAt != nil:
			d = p.FinishedAt.Sub(p.CreatedAt)
		case p.Duration != nil:
			d = time.Duration(*p.Duration * float64(time.Second))
		}
		if d > 0 {
			out = append(out, d.Minutes())
		}
	}
	return out
}

func jobQueueSeconds(j *schema.Job) (float64, bool) {
	if j.QueuedDuration != nil {
		return *j.QueuedDuration, *j.QueuedDuration >= 0
	}
	if j.StartedAt != nil && !j.CreatedAt.IsZero() {
		v := j.StartedAt.Sub(j.CreatedAt).Seconds()
		return v, v >= 0
	}
	return 0, false
}

func jobDurationSeconds(j *schema.Job) (float64, bool) {
	if j.Duration != nil {
		return *j.Duration, *j.Duration >= 0
	}
	if j.StartedAt != nil && j.FinishedAt != nil {
		v := j.FinishedAt.Sub(*j.StartedAt).Seconds()
		return v, v >= 0
	}
	return 0, false
}

// jobStats fills the job queue, duration, outcome and per-stage fields.
func jobStats(in *Input, pipelines []agg.PipelineDetails, res *schema.QualityResult) error {
	var queue, durations []float64
	type stageAcc struct {
		jobs int
		sum  float64
	}
	stages := make(map[string]*stageAcc)
	for _, p := range pipelines {
		for i := range p.Jobs {
			j := &p.Jobs[i]
			switch j.Status {
			case schema.SuccessStatus:
				res.JobOutcomes.Success++
			case schema.FailedStatus:
				res.JobOutcomes.Failed++
			case schema.CanceledStatus:
				res.JobOutcomes.Canceled++
			case schema.SkippedStatus:
				res.JobOutcomes.Skipped++
			}
			if q, ok := jobQueueSeconds(j); ok {
				queue = append(queue, q)
			}
			if d, ok := jobDurationSeconds(j); ok {
				durations = append(durations, d)
				acc := stages[j.Stage]
				if acc == nil {
					acc = &stageAcc{}
					stages[j.Stage] = acc
				}
				acc.jobs++
				acc.sum += d
			}
		}
	}
	ps, err := in.percentiles(queue, 50, 90)
	if err != nil {
		return err
	}
	res.JobQueueP50Seconds, res.JobQueueP90Seconds = ps[0], ps[1]
	res.JobDurationMeanSeconds = algo.MeanOf(in.samples(durations))
	for stage, acc := range stages {
		res.StageDurations = append(res.StageDurations, schema.StageDuration{
			Stage:      stage,
			Jobs:       acc.jobs,
			AvgSeconds: acc.sum / float64(acc.jobs),
		})
	}
	slices.SortFunc(res.StageDurations, func(a, b schema.StageDuration) int { return cmp.Compare(a.Stage, b.Stage) })
	return nil
}
