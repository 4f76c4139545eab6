package core

import (
	"maps"

	"github.com/huangsam/devflow/schema"
)

// sampleCounts reads the population behind each source type from the family results.
// Sources whose family is absent are left out.
func sampleCounts(r *schema.DeveloperReport) map[schema.SourceType]int {
	counts := make(map[schema.SourceType]int)
	if r.CodeCharacteristics != nil {
		counts[schema.CommitSource] = r.CodeCharacteristics.CommitCount
	}
	switch {
	case r.Flow != nil:
		counts[schema.MergeRequestSource] = r.Flow.MergedCount
	case r.CycleTime != nil:
		counts[schema.MergeRequestSource] = r.CycleTime.MergedCount
	case r.Quality != nil:
		counts[schema.MergeRequestSource] = r.Quality.MergedCount
	}
	if r.Quality != nil {
		counts[schema.PipelineSource] = r.Quality.PipelineCount
	}
	if r.Collaboration != nil {
		counts[schema.ReviewSource] = r.Collaboration.ReviewCommentsGiven + r.Collaboration.ReviewCommentsReceived
	}
	return counts
}

// Rate grades a report from its error count and number of low-sample sources.
func Rate(errors, lowSamples int) schema.QualityRating {
	switch {
	case errors == 0 && lowSamples == 0:
		return schema.ExcellentRating
	case errors == 0 && lowSamples <= 1:
		return schema.GoodRating
	case errors <= 1 && lowSamples <= 2:
		return schema.FairRating
	default:
		return schema.PoorRating
	}
}

// BuildAudit summarises the data behind a report. A source is flagged as low
// sample when its count is below the configured minimum.
func BuildAudit(r *schema.DeveloperReport, minSamples map[schema.SourceType]int) schema.MetricsAudit {
	counts := sampleCounts(r)
	low := make(map[schema.SourceType]bool, len(counts))
	var lowCount int
	for _, src := range schema.AllSources {
		n, ok := counts[src]
		if !ok {
			continue
		}
		flag := n < minSamples[src]
		low[src] = flag
		if flag {
			lowCount++
		}
	}
	errs := maps.Clone(r.Errors)
	if errs == nil {
		errs = make(map[schema.FamilyName]string)
	}
	return schema.MetricsAudit{
		SampleCounts: counts,
		LowSample:    low,
		Rating:       Rate(len(errs), lowCount),
		Errors:       errs,
	}
}
