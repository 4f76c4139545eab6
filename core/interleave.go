package core

import (
	"cmp"
	"slices"
	"time"

	"github.com/huangsam/devflow/schema"
)

type eventKind uint8

// Commits order before notes that carry the same timestamp.
const (
	commitEvent eventKind = iota
	reviewEvent
	authorEvent
)

type event struct {
	at   time.Time
	kind eventKind
}

// timeline merges merge request commits and notes into one chronological stream.
// Reviews are notes for which isReview is true; other non-system notes by the
// merge request author are author activity. System notes are dropped.
func timeline(commits []schema.Commit, notes []schema.Note, authorID int64, isReview func(*schema.Note) bool) []event {
	events := make([]event, 0, len(commits)+len(notes))
	for _, c := range commits {
		if !c.CommittedAt.IsZero() {
			events = append(events, event{at: c.CommittedAt, kind: commitEvent})
		}
	}
	for i := range notes {
		n := &notes[i]
		switch {
		case n.System:
		case isReview(n):
			events = append(events, event{at: n.CreatedAt, kind: reviewEvent})
		case n.Author.ID == authorID:
			events = append(events, event{at: n.CreatedAt, kind: authorEvent})
		}
	}
	slices.SortStableFunc(events, func(a, b event) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return cmp.Compare(a.kind, b.kind)
	})
	return events
}

// between keeps the events inside [from, to].
func between(events []event, from, to time.Time) []event {
	var out []event
	for _, e := range events {
		if !e.at.Before(from) && !e.at.After(to) {
			out = append(out, e)
		}
	}
	return out
}

// reviewRounds counts review-to-commit transitions. Commits before the first
// review and repeated reviews without a commit in between add nothing.
func reviewRounds(events []event) int {
	var rounds int
	awaiting := false
	for _, e := range events {
		switch e.kind {
		case reviewEvent:
			awaiting = true
		case commitEvent:
			if awaiting {
				rounds++
				awaiting = false
			}
		}
	}
	return rounds
}

// hasReview reports whether any review event exists.
func hasReview(events []event) bool {
	return slices.ContainsFunc(events, func(e event) bool { return e.kind == reviewEvent })
}

// idleGaps returns, for each review, the time until the next author commit or
// note, capped at limit. Reviews with no later author activity are skipped.
func idleGaps(events []event, limit time.Duration) []time.Duration {
	var gaps []time.Duration
	for i, e := range events {
		if e.kind != reviewEvent {
			continue
		}
		for _, next := range events[i+1:] {
			if next.kind == reviewEvent {
				continue
			}
			gaps = append(gaps, min(next.at.Sub(e.at), limit))
			break
		}
	}
	return gaps
}
