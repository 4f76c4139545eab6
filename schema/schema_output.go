package schema

// MetricRow is one flattened metric of a report, used by CSV output and the history store.
type MetricRow struct {
	Family FamilyName `json:"family"`
	Metric string     `json:"metric"`
	Value  *float64   `json:"value"`
}

func intPtr(v int) *float64 {
	f := float64(v)
	return &f
}

// Rows flattens a family result into metric rows in display order.
func Rows(res FamilyResult) []MetricRow {
	if res == nil {
		return nil
	}
	var rows []MetricRow
	add := func(metric string, v *float64) {
		rows = append(rows, MetricRow{Family: res.Family(), Metric: metric, Value: v})
	}
	switch r := res.(type) {
	case *CycleTimeResult:
		add("merged_count", intPtr(r.MergedCount))
		add("sample_count", intPtr(r.SampleCount))
		add("excluded_count", intPtr(r.ExcludedCount))
		add("p50_hours", r.P50Hours)
		add("p90_hours", r.P90Hours)
		add("mean_hours", r.MeanHours)
	case *FlowResult:
		add("merged_count", intPtr(r.MergedCount))
		add("lines_changed", intPtr(r.LinesChanged))
		add("coding_time_hours", r.CodingTimeHours)
		add("time_to_first_review_hours", r.TimeToFirstReviewHours)
		add("merge_time_hours", r.MergeTimeHours)
		add("ready_to_merge_hours", r.ReadyToMergeHours)
		add("review_rounds", r.ReviewRounds)
		add("wip_open_count", intPtr(r.WIPOpenCount))
		add("draft_open_count", intPtr(r.DraftOpenCount))
		add("context_switching_index", intPtr(r.ContextSwitchingIndex))
	case *CollaborationResult:
		add("review_comments_given", intPtr(r.ReviewCommentsGiven))
		add("review_comments_received", intPtr(r.ReviewCommentsReceived))
		add("approvals_given", intPtr(r.ApprovalsGiven))
		add("resolved_threads", intPtr(r.ResolvedThreads))
		add("unresolved_threads", intPtr(r.UnresolvedThreads))
		add("self_merged_count", intPtr(r.SelfMergedCount))
		add("reviewed_mr_count", intPtr(r.ReviewedMRCount))
		add("review_turnaround_hours", r.ReviewTurnaroundHours)
		add("review_depth_chars", r.ReviewDepthChars)
	case *QualityResult:
		add("merged_count", intPtr(r.MergedCount))
		add("rework_ratio", r.ReworkRatio)
		add("revert_rate", r.RevertRate)
		add("commit_revert_rate", r.CommitRevertRate)
		add("hotfix_rate", r.HotfixRate)
		add("security_fix_rate", r.SecurityFixRate)
		add("conflict_rate", r.ConflictRate)
		add("pipeline_count", intPtr(r.PipelineCount))
		add("ci_success_rate", r.CISuccessRate)
		add("pipeline_duration_p50_minutes", r.PipelineDurationP50Minutes)
		add("pipeline_duration_p95_minutes", r.PipelineDurationP95Minutes)
		add("default_branch_success_rate", r.DefaultBranchSuccessRate)
		add("default_branch_duration_p50_minutes", r.DefaultBranchDurationP50Minutes)
		add("default_branch_duration_p90_minutes", r.DefaultBranchDurationP90Minutes)
		add("job_queue_p50_seconds", r.JobQueueP50Seconds)
		add("job_queue_p90_seconds", r.JobQueueP90Seconds)
		add("job_duration_mean_seconds", r.JobDurationMeanSeconds)
		add("jobs_success", intPtr(r.JobOutcomes.Success))
		add("jobs_failed", intPtr(r.JobOutcomes.Failed))
		add("jobs_canceled", intPtr(r.JobOutcomes.Canceled))
		add("jobs_skipped", intPtr(r.JobOutcomes.Skipped))
	case *CodeCharacteristicsResult:
		add("commit_count", intPtr(r.CommitCount))
		add("commits_per_day", r.CommitsPerDay)
		add("commit_size_p50", r.CommitSizeP50)
		add("commit_size_p95", r.CommitSizeP95)
		add("commit_size_mean", r.CommitSizeMean)
		for _, b := range AllSizeBuckets {
			add("mr_size_"+string(b), intPtr(r.MRSizeHistogram.Count(b)))
		}
		add("squash_rate", r.SquashRate)
		add("conventional_commit_rate", r.ConventionalCommitRate)
		add("branch_naming_compliance_rate", r.BranchNamingComplianceRate)
	case *AdvancedResult:
		add("author_count", intPtr(r.AuthorCount))
		add("bus_factor", r.BusFactor)
		add("top3_percentage", r.Top3Percentage)
		add("subject_share_percentage", r.SubjectSharePercentage)
		var peak *float64
		if r.PeakHour != nil {
			peak = intPtr(*r.PeakHour)
		}
		add("peak_hour", peak)
		add("batch_size_p50", r.BatchSizeP50)
		add("batch_size_p95", r.BatchSizeP95)
		add("draft_duration_hours", r.DraftDurationHours)
		add("iteration_count", r.IterationCount)
		add("idle_time_in_review_hours", r.IdleTimeInReviewHours)
	}
	return rows
}

// ReportRows flattens every present family of a report in family order.
func ReportRows(r *DeveloperReport) []MetricRow {
	if r == nil {
		return nil
	}
	var rows []MetricRow
	for _, name := range AllFamilies {
		rows = append(rows, Rows(r.Result(name))...)
	}
	return rows
}
