// Package agg gathers raw events from a data source. Fetches fan out per project,
// merge request or pipeline under a worker limit; a failed fetch is logged and
// contributes nothing, and only cancellation aborts a gather.
package agg

import (
	"context"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// Resource selects which merge request sub-resources to fetch.
type Resource uint8

// Merge request sub-resources.
const (
	WithCommits Resource = 1 << iota
	WithNotes
	WithDiscussions
	WithApprovals
)

// MRDetails bundles a merge request with its fetched sub-resources.
// Sub-resources that were not requested or failed to load are empty.
type MRDetails struct {
	MR          schema.MergeRequest
	Commits     []schema.Commit
	Notes       []schema.Note
	Discussions []schema.Discussion
	Approval    *schema.Approval
}

// PipelineDetails bundles a pipeline with its jobs.
type PipelineDetails struct {
	Pipeline schema.Pipeline
	Jobs     []schema.Job
}

// Fetcher reads events through a DataSource.
type Fetcher struct {
	Source  contract.DataSource
	Log     logrus.FieldLogger
	Workers int
}

// NewFetcher returns a Fetcher; a nil logger falls back to contract.Log.
func NewFetcher(src contract.DataSource, log logrus.FieldLogger, workers int) *Fetcher {
	if log == nil {
		log = contract.Log
	}
	if workers <= 0 {
		workers = contract.DefaultWorkers
	}
	return &Fetcher{Source: src, Log: log, Workers: workers}
}

// fanOut runs fetch for every item with at most workers in flight. Each call
// writes only its own slot. Errors are logged through warn and leave the zero
// value behind, unless ctx was cancelled, which aborts the whole fan-out.
func fanOut[T, R any](ctx context.Context, workers int, items []T, fetch func(context.Context, T) (R, error), warn func(T, error)) ([]R, error) {
	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fetch(gctx, item)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				warn(item, err)
				return nil
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func flatten[R any](parts [][]R) []R {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]R, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func (f *Fetcher) warnProject(resource string) func(schema.Project, error) {
	return func(p schema.Project, err error) {
		f.Log.WithFields(logrus.Fields{
			"project":  p.ID,
			"resource": resource,
		}).WithError(err).Warn("fetch failed, counting zero events")
	}
}

// Commits returns the commits of every project since the given time.
func (f *Fetcher) Commits(ctx context.Context, projects []schema.Project, since time.Time) ([]schema.Commit, error) {
	parts, err := fanOut(ctx, f.Workers, projects, func(ctx context.Context, p schema.Project) ([]schema.Commit, error) {
		commits, err := f.Source.GetCommits(ctx, p.ID, since)
		commits = slices.Clone(commits)
		for i := range commits {
			commits[i].ProjectID = p.ID
		}
		return commits, err
	}, f.warnProject("commits"))
	if err != nil {
		return nil, err
	}
	return DedupCommits(flatten(parts)), nil
}

// MergeRequests returns the merge requests of every project updated since the given time.
func (f *Fetcher) MergeRequests(ctx context.Context, projects []schema.Project, since time.Time) ([]schema.MergeRequest, error) {
	parts, err := fanOut(ctx, f.Workers, projects, func(ctx context.Context, p schema.Project) ([]schema.MergeRequest, error) {
		mrs, err := f.Source.GetMergeRequests(ctx, p.ID, since)
		mrs = slices.Clone(mrs)
		for i := range mrs {
			mrs[i].ProjectID = p.ID
		}
		return mrs, err
	}, f.warnProject("merge_requests"))
	if err != nil {
		return nil, err
	}
	return flatten(parts), nil
}

// Pipelines returns the pipelines of every project updated since the given time.
func (f *Fetcher) Pipelines(ctx context.Context, projects []schema.Project, since time.Time) ([]schema.Pipeline, error) {
	parts, err := fanOut(ctx, f.Workers, projects, func(ctx context.Context, p schema.Project) ([]schema.Pipeline, error) {
		pipelines, err := f.Source.GetPipelines(ctx, p.ID, since)
		pipelines = slices.Clone(pipelines)
		for i := range pipelines {
			pipelines[i].ProjectID = p.ID
		}
		return pipelines, err
	}, f.warnProject("pipelines"))
	if err != nil {
		return nil, err
	}
	return flatten(parts), nil
}

// MergeRequestDetails fetches the requested sub-resources of every merge request.
// A failed sub-resource is logged and left empty; the rest of that merge request still loads.
func (f *Fetcher) MergeRequestDetails(ctx context.Context, mrs []schema.MergeRequest, want Resource) ([]MRDetails, error) {
	return fanOut(ctx, f.Workers, mrs, func(ctx context.Context, mr schema.MergeRequest) (MRDetails, error) {
		d := MRDetails{MR: mr}
		warn := func(resource string, err error) {
			f.Log.WithFields(logrus.Fields{
				"project":  mr.ProjectID,
				"iid":      mr.IID,
				"resource": resource,
			}).WithError(err).Warn("fetch failed, counting zero events")
		}
		if want&WithCommits != 0 {
			commits, err := f.Source.GetMergeRequestCommits(ctx, mr.ProjectID, mr.IID)
			if err != nil {
				if ctx.Err() != nil {
					return d, err
				}
				warn("commits", err)
			}
			d.Commits = commits
		}
		if want&WithNotes != 0 {
			notes, err := f.Source.GetMergeRequestNotes(ctx, mr.ProjectID, mr.IID)
			if err != nil {
				if ctx.Err() != nil {
					return d, err
				}
				warn("notes", err)
			}
			d.Notes = notes
		}
		if want&WithDiscussions != 0 {
			discussions, err := f.Source.GetMergeRequestDiscussions(ctx, mr.ProjectID, mr.IID)
			if err != nil {
				if ctx.Err() != nil {
					return d, err
				}
				warn("discussions", err)
			}
			d.Discussions = discussions
		}
		if want&WithApprovals != 0 {
			approval, err := f.Source.GetMergeRequestApprovals(ctx, mr.ProjectID, mr.IID)
			if err != nil {
				if ctx.Err() != nil {
					return d, err
				}
				warn("approvals", err)
			}
			d.Approval = approval
		}
		return d, nil
	}, func(mr schema.MergeRequest, err error) {
		f.Log.WithFields(logrus.Fields{"project": mr.ProjectID, "iid": mr.IID}).WithError(err).Warn("fetch failed, counting zero events")
	})
}

// PipelineJobs fetches the jobs of every pipeline.
func (f *Fetcher) PipelineJobs(ctx context.Context, pipelines []schema.Pipeline) ([]PipelineDetails, error) {
	details, err := fanOut(ctx, f.Workers, pipelines, func(ctx context.Context, p schema.Pipeline) (PipelineDetails, error) {
		jobs, err := f.Source.GetPipelineJobs(ctx, p.ProjectID, p.ID)
		return PipelineDetails{Pipeline: p, Jobs: jobs}, err
	}, func(p schema.Pipeline, err error) {
		f.Log.WithFields(logrus.Fields{
			"project":  p.ProjectID,
			"pipeline": p.ID,
			"resource": "jobs",
		}).WithError(err).Warn("fetch failed, counting zero events")
	})
	if err != nil {
		return nil, err
	}
	// failed slots are zero values; keep the pipeline itself
	for i := range details {
		details[i].Pipeline = pipelines[i]
	}
	return details, nil
}
