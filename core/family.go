// Package core computes developer delivery metrics. Six independent metric
// families read windowed events through a DataSource; the Engine runs them
// concurrently and assembles a report with a data-quality audit.
package core

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/huangsam/devflow/core/agg"
	"github.com/huangsam/devflow/core/algo"
	"github.com/huangsam/devflow/core/classify"
	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// Family computes one metric family for a subject and window.
type Family interface {
	Name() schema.FamilyName
	Compute(ctx context.Context, in *Input) (schema.FamilyResult, error)
}

// Input is everything a family may read. It is shared by all families of one
// run and must not be modified.
type Input struct {
	Subject    schema.User
	Window     schema.MetricWindow
	Projects   []schema.Project
	Source     contract.DataSource
	Classifier *classify.Classifier
	Metrics    contract.MetricsConfig
	Log        logrus.FieldLogger
	Workers    int
	Location   *time.Location // hour-of-day buckets; nil means UTC
}

func (in *Input) fetcher(family schema.FamilyName) *agg.Fetcher {
	log := in.Log
	if log == nil {
		log = contract.Log
	}
	return agg.NewFetcher(in.Source, log.WithField("family", family), in.Workers)
}

// since is the lower bound handed to the data source.
func (in *Input) since() time.Time {
	return in.Window.Start
}

func (in *Input) location() *time.Location {
	if in.Location == nil {
		return time.UTC
	}
	return in.Location
}

// samples applies the configured winsorization to a duration sample.
func (in *Input) samples(values []float64) []float64 {
	if !in.Metrics.Winsorize || len(values) == 0 {
		return values
	}
	out, err := algo.Winsorize(values, in.Metrics.WinsorizeLower, in.Metrics.WinsorizeUpper)
	if err != nil {
		return values
	}
	return out
}

// percentiles returns P-values of a possibly winsorized sample.
func (in *Input) percentiles(values []float64, ps ...float64) ([]*float64, error) {
	return algo.Percentiles(in.samples(values), ps...)
}

// isSubject reports whether u is the report subject.
func (in *Input) isSubject(u schema.User) bool {
	return u.ID == in.Subject.ID
}

// ownMergeRequests returns the subject's merge requests.
func (in *Input) ownMergeRequests(mrs []schema.MergeRequest) []schema.MergeRequest {
	var out []schema.MergeRequest
	for _, mr := range mrs {
		if in.isSubject(mr.Author) {
			out = append(out, mr)
		}
	}
	return out
}

// mergedInWindow keeps the merge requests merged inside the window.
func (in *Input) mergedInWindow(mrs []schema.MergeRequest) []schema.MergeRequest {
	var out []schema.MergeRequest
	for _, mr := range mrs {
		if mr.IsMerged() && in.Window.ContainsPtr(mr.MergedAt) {
			out = append(out, mr)
		}
	}
	return out
}

// subjectCommits returns the subject's commits inside the window, across all projects.
func (in *Input) subjectCommits(commits []schema.Commit) []schema.Commit {
	var out []schema.Commit
	for _, c := range agg.SubjectCommits(commits, &in.Subject) {
		if in.Window.Contains(c.CommittedAt) {
			out = append(out, c)
		}
	}
	return out
}

// isReview reports whether a note is review feedback from someone other than author.
func (in *Input) isReview(n *schema.Note, author schema.User) bool {
	return !n.System && n.Author.ID != author.ID && !in.Classifier.IsBot(&n.Author)
}

func hours(d time.Duration) float64 {
	return d.Hours()
}

func ptr[T any](v T) *T {
	return &v
}
