package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// PrintMetricsDefinitions displays the definitions of every metric family.
// This is a static display that does not require any data source.
func PrintMetricsDefinitions(cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteMetricsDefinitions(w, cfg)
	}, "Wrote metric definitions")
}

// WriteMetricsDefinitions writes the metric definitions to w in the configured format.
func WriteMetricsDefinitions(w io.Writer, cfg *contract.Config) error {
	model := BuildMetricsRenderModel(cfg.Metrics)
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, model)
	case schema.YAMLOut:
		return writeYAML(w, model)
	case schema.CSVOut:
		return writeCSVMetrics(w, model)
	case schema.ParquetOut:
		return contract.NewValidationError("output", "metric definitions cannot be written as parquet")
	default:
		return writeTextMetrics(w, model)
	}
}

// BuildMetricsRenderModel describes every family with formulas reflecting the active settings.
func BuildMetricsRenderModel(m contract.MetricsConfig) *schema.MetricsRenderModel {
	t := m.SizeThresholds
	durationNote := "percentiles use linear interpolation"
	if m.Winsorize {
		durationNote = fmt.Sprintf("samples winsorized to [P%g, P%g]; %s", m.WinsorizeLower, m.WinsorizeUpper, durationNote)
	}

	families := []schema.FamilyDefinition{
		{
			Name:    schema.CycleTimeFamily,
			Purpose: "How long merged work takes from first commit to merge",
			Metrics: []schema.MetricDefinition{
				{Key: "merged_count", Unit: "count", Formula: "merge requests authored by the subject and merged in the window"},
				{Key: "sample_count", Unit: "count", Formula: "merged requests with a usable oldest commit"},
				{Key: "excluded_count", Unit: "count", Formula: "merged requests without commits or with merge before first commit"},
				{Key: "p50_hours", Unit: "hours", Formula: "P50(merged_at - oldest commit); " + durationNote},
				{Key: "p90_hours", Unit: "hours", Formula: "P90(merged_at - oldest commit)"},
				{Key: "mean_hours", Unit: "hours", Formula: "mean(merged_at - oldest commit)"},
			},
		},
		{
			Name:    schema.FlowFamily,
			Purpose: "Where merged work spends its time between coding, review and merge",
			Metrics: []schema.MetricDefinition{
				{Key: "merged_count", Unit: "count", Formula: "merge requests merged in the window"},
				{Key: "lines_changed", Unit: "lines", Formula: "sum of commit additions + deletions of merged requests"},
				{Key: "coding_time_hours", Unit: "hours", Formula: "median(created_at - oldest commit)"},
				{Key: "time_to_first_review_hours", Unit: "hours", Formula: "median(first external review - created_at)"},
				{Key: "merge_time_hours", Unit: "hours", Formula: "median(merged_at - created_at)"},
				{Key: "ready_to_merge_hours", Unit: "hours", Formula: "median(merged_at - last ready note, else created_at)"},
				{Key: "review_rounds", Unit: "rounds", Formula: "mean review-to-commit transitions between ready and merge"},
				{Key: "wip_open_count", Unit: "count", Formula: "subject merge requests still open"},
				{Key: "draft_open_count", Unit: "count", Formula: "open merge requests that are drafts by flag, state or title"},
				{Key: "context_switching_index", Unit: "projects", Formula: "distinct projects among merged requests"},
			},
		},
		{
			Name:    schema.CollaborationFamily,
			Purpose: "How much the subject reviews and is reviewed",
			Metrics: []schema.MetricDefinition{
				{Key: "review_comments_given", Unit: "count", Formula: "subject notes on other authors' merge requests"},
				{Key: "review_comments_received", Unit: "count", Formula: "non-bot notes by others on the subject's merge requests"},
				{Key: "approvals_given", Unit: "count", Formula: "approvals by the subject on other authors' merge requests"},
				{Key: "resolved_threads", Unit: "count", Formula: "threads on the subject's merge requests with every resolvable note resolved"},
				{Key: "unresolved_threads", Unit: "count", Formula: "threads with an unresolved resolvable note"},
				{Key: "self_merged_count", Unit: "count", Formula: "merged requests without external review or approval"},
				{Key: "reviewed_mr_count", Unit: "count", Formula: "other authors' merge requests the subject commented on"},
				{Key: "review_turnaround_hours", Unit: "hours", Formula: "median(subject's first note - created_at)"},
				{Key: "review_depth_chars", Unit: "chars", Formula: "mean length of the subject's review comments"},
			},
		},
		{
			Name:    schema.QualityFamily,
			Purpose: "How often work is redone and how healthy CI is",
			Metrics: []schema.MetricDefinition{
				{Key: "merged_count", Unit: "count", Formula: "merge requests merged in the window"},
				{Key: "rework_ratio", Unit: "ratio", Formula: "commits pushed after the first review / all merge request commits"},
				{Key: "revert_rate", Unit: "ratio", Formula: "reverting merge requests / merged requests"},
				{Key: "commit_revert_rate", Unit: "ratio", Formula: "reverting commits / qualifying commits"},
				{Key: "hotfix_rate", Unit: "ratio", Formula: "hotfix merge requests / merged requests"},
				{Key: "security_fix_rate", Unit: "ratio", Formula: "security merge requests / merged requests"},
				{Key: "conflict_rate", Unit: "ratio", Formula: "merge requests with conflicts / authored requests"},
				{Key: "pipeline_count", Unit: "count", Formula: "terminal pipelines triggered by the subject"},
				{Key: "ci_success_rate", Unit: "ratio", Formula: "successful first runs per sha / first runs"},
				{Key: "pipeline_duration_p50_minutes", Unit: "minutes", Formula: "P50 pipeline wall time"},
				{Key: "pipeline_duration_p95_minutes", Unit: "minutes", Formula: "P95 pipeline wall time"},
				{Key: "default_branch_success_rate", Unit: "ratio", Formula: "successful default-branch pipelines / terminal ones, project-wide"},
				{Key: "default_branch_duration_p50_minutes", Unit: "minutes", Formula: "P50 default-branch pipeline wall time"},
				{Key: "default_branch_duration_p90_minutes", Unit: "minutes", Formula: "P90 default-branch pipeline wall time"},
				{Key: "job_queue_p50_seconds", Unit: "seconds", Formula: "P50(queued duration, else started_at - created_at)"},
				{Key: "job_queue_p90_seconds", Unit: "seconds", Formula: "P90 job queue time"},
				{Key: "job_duration_mean_seconds", Unit: "seconds", Formula: "mean(duration, else finished_at - started_at)"},
				{Key: "jobs_success", Unit: "count", Formula: "jobs that succeeded"},
				{Key: "jobs_failed", Unit: "count", Formula: "jobs that failed"},
				{Key: "jobs_canceled", Unit: "count", Formula: "jobs that were canceled"},
				{Key: "jobs_skipped", Unit: "count", Formula: "jobs that were skipped"},
			},
		},
		{
			Name:    schema.CodeCharacteristicsFamily,
			Purpose: "The shape of the subject's commits and merge requests",
			Metrics: []schema.MetricDefinition{
				{Key: "commit_count", Unit: "count", Formula: "non-merge commits by the subject in the window"},
				{Key: "commits_per_day", Unit: "commits/day", Formula: "commit_count / window days"},
				{Key: "commit_size_p50", Unit: "lines", Formula: "P50(additions + deletions)"},
				{Key: "commit_size_p95", Unit: "lines", Formula: "P95(additions + deletions)"},
				{Key: "commit_size_mean", Unit: "lines", Formula: "mean(additions + deletions)"},
				{Key: "mr_size_xs", Unit: "count", Formula: fmt.Sprintf("merged requests with <= %d changed lines", t.XS)},
				{Key: "mr_size_s", Unit: "count", Formula: fmt.Sprintf("merged requests with <= %d changed lines", t.S)},
				{Key: "mr_size_m", Unit: "count", Formula: fmt.Sprintf("merged requests with <= %d changed lines", t.M)},
				{Key: "mr_size_l", Unit: "count", Formula: fmt.Sprintf("merged requests with <= %d changed lines", t.L)},
				{Key: "mr_size_xl", Unit: "count", Formula: fmt.Sprintf("merged requests with > %d changed lines", t.L)},
				{Key: "squash_rate", Unit: "ratio", Formula: "squash-merged requests / merged requests"},
				{Key: "conventional_commit_rate", Unit: "ratio", Formula: "conventional headlines / qualifying commits"},
				{Key: "branch_naming_compliance_rate", Unit: "ratio", Formula: "compliant source branches / non-excluded branches"},
			},
		},
		{
			Name:    schema.AdvancedFamily,
			Purpose: "Ownership concentration and review rhythm",
			Metrics: []schema.MetricDefinition{
				{Key: "author_count", Unit: "count", Formula: "distinct non-bot commit authors across contributed projects"},
				{Key: "bus_factor", Unit: "gini", Formula: "Gini coefficient of per-author change volume"},
				{Key: "top3_percentage", Unit: "percent", Formula: fmt.Sprintf("share of change volume held by the top %d authors", m.TopAuthors)},
				{Key: "subject_share_percentage", Unit: "percent", Formula: "subject change volume / total change volume"},
				{Key: "peak_hour", Unit: "hour", Formula: "busiest hour of the subject's comments on other authors' merge requests"},
				{Key: "batch_size_p50", Unit: "commits", Formula: "P50 subject commits made while a merged request was open"},
				{Key: "batch_size_p95", Unit: "commits", Formula: "P95 subject commits made while a merged request was open"},
				{Key: "draft_duration_hours", Unit: "hours", Formula: "median span from a draft note to the next ready note"},
				{Key: "iteration_count", Unit: "rounds", Formula: "median review rounds of reviewed merged requests"},
				{Key: "idle_time_in_review_hours", Unit: "hours", Formula: fmt.Sprintf("median time from a review to the next author activity, capped at %v", m.IdleCap)},
			},
		},
	}

	audit := map[string]string{
		"Excellent": "no failed families and no low-sample sources",
		"Good":      "no failed families and at most one low-sample source",
		"Fair":      "at most one failed family and at most two low-sample sources",
		"Poor":      "anything worse",
	}
	for _, src := range schema.AllSources {
		audit["min_samples."+string(src)] = fmt.Sprintf("%d", m.MinSamples[src])
	}

	return &schema.MetricsRenderModel{
		Title:       "Delivery Metric Families",
		Description: "Every metric is computed per subject over [end - days, end]; absent values mean no data",
		Families:    families,
		Audit:       audit,
	}
}
