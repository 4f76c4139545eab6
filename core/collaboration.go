package core

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/huangsam/devflow/core/agg"
	"github.com/huangsam/devflow/core/algo"
	"github.com/huangsam/devflow/schema"
)

// Collaboration measures review participation given and received by the subject.
type Collaboration struct{}

// Name implements Family.
func (Collaboration) Name() schema.FamilyName { return schema.CollaborationFamily }

// Compute implements Family.
func (Collaboration) Compute(ctx context.Context, in *Input) (schema.FamilyResult, error) {
	f := in.fetcher(schema.CollaborationFamily)
	mrs, err := f.MergeRequests(ctx, in.Projects, in.since())
	if err != nil {
		return nil, err
	}
	var own, others []schema.MergeRequest
	for _, mr := range mrs {
		if mr.CreatedAt.After(in.Window.End) {
			continue
		}
		if in.isSubject(mr.Author) {
			own = append(own, mr)
		} else {
			others = append(others, mr)
		}
	}
	ownDetails, err := f.MergeRequestDetails(ctx, own, agg.WithNotes|agg.WithDiscussions|agg.WithApprovals)
	if err != nil {
		return nil, err
	}
	otherDetails, err := f.MergeRequestDetails(ctx, others, agg.WithNotes|agg.WithApprovals)
	if err != nil {
		return nil, err
	}

	res := &schema.CollaborationResult{}
	var turnaround, depth []float64
	for _, d := range otherDetails {
		if d.Approval.HasApprover(in.Subject.ID) {
			res.ApprovalsGiven++
		}
		var first time.Time
		for i := range d.Notes {
			n := &d.Notes[i]
			if n.System || !in.isSubject(n.Author) || !in.Window.Contains(n.CreatedAt) {
				continue
			}
			res.ReviewCommentsGiven++
			depth = append(depth, float64(utf8.RuneCountInString(strings.TrimSpace(n.Body))))
			if first.IsZero() || n.CreatedAt.Before(first) {
				first = n.CreatedAt
			}
		}
		if first.IsZero() {
			continue
		}
		res.ReviewedMRCount++
		if v := first.Sub(d.MR.CreatedAt); v >= 0 {
			turnaround = append(turnaround, hours(v))
		}
	}

	for _, d := range ownDetails {
		external := 0
		for i := range d.Notes {
			n := &d.Notes[i]
			if !in.isReview(n, d.MR.Author) {
				continue
			}
			external++
			if in.Window.Contains(n.CreatedAt) {
				res.ReviewCommentsReceived++
			}
		}
		for _, th := range d.Discussions {
			resolved, ok := threadResolved(th)
			switch {
			case !ok:
			case resolved:
				res.ResolvedThreads++
			default:
				res.UnresolvedThreads++
			}
		}
		if d.MR.IsMerged() && in.Window.ContainsPtr(d.MR.MergedAt) && external == 0 && !hasApprovals(d.Approval) {
			res.SelfMergedCount++
		}
	}

	res.ReviewTurnaroundHours = algo.MedianOf(in.samples(turnaround))
	res.ReviewDepthChars = algo.MeanOf(depth)
	return res, nil
}

// threadResolved reports whether every resolvable note of a thread is resolved.
// The boolean is false for individual notes and threads with nothing to resolve.
func threadResolved(th schema.Discussion) (resolved, ok bool) {
	if th.IndividualNote {
		return false, false
	}
	resolved = true
	for _, n := range th.Notes {
		if !n.Resolvable {
			continue
		}
		ok = true
		if !n.Resolved {
			resolved = false
		}
	}
	return resolved && ok, ok
}

func hasApprovals(a *schema.Approval) bool {
	return a != nil && len(a.ApprovedBy) > 0
}
