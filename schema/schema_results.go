package schema

import "time"

// ReportSchemaVersion is bumped whenever a DeveloperReport field changes meaning.
const ReportSchemaVersion = 1

// FamilyResult is implemented by every metric family result.
type FamilyResult interface {
	Family() FamilyName
}

// CycleTimeResult holds first-commit-to-merge statistics.
type CycleTimeResult struct {
	MergedCount   int      `json:"merged_count" yaml:"merged_count"`
	SampleCount   int      `json:"sample_count" yaml:"sample_count"`
	ExcludedCount int      `json:"excluded_count" yaml:"excluded_count"`
	P50Hours      *float64 `json:"p50_hours,omitempty" yaml:"p50_hours,omitempty"`
	P90Hours      *float64 `json:"p90_hours,omitempty" yaml:"p90_hours,omitempty"`
	MeanHours     *float64 `json:"mean_hours,omitempty" yaml:"mean_hours,omitempty"`
}

// Family implements FamilyResult.
func (*CycleTimeResult) Family() FamilyName { return CycleTimeFamily }

// FlowResult holds throughput and waiting-time statistics.
type FlowResult struct {
	MergedCount            int      `json:"merged_count" yaml:"merged_count"`
	LinesChanged           int      `json:"lines_changed" yaml:"lines_changed"`
	CodingTimeHours        *float64 `json:"coding_time_hours,omitempty" yaml:"coding_time_hours,omitempty"`
	TimeToFirstReviewHours *float64 `json:"time_to_first_review_hours,omitempty" yaml:"time_to_first_review_hours,omitempty"`
	MergeTimeHours         *float64 `json:"merge_time_hours,omitempty" yaml:"merge_time_hours,omitempty"`
	ReadyToMergeHours      *float64 `json:"ready_to_merge_hours,omitempty" yaml:"ready_to_merge_hours,omitempty"`
	ReviewRounds           *float64 `json:"review_rounds,omitempty" yaml:"review_rounds,omitempty"`
	WIPOpenCount           int      `json:"wip_open_count" yaml:"wip_open_count"`
	DraftOpenCount         int      `json:"draft_open_count" yaml:"draft_open_count"`
	ContextSwitchingIndex  int      `json:"context_switching_index" yaml:"context_switching_index"`
}

// Family implements FamilyResult.
func (*FlowResult) Family() FamilyName { return FlowFamily }

// CollaborationResult holds review participation statistics.
type CollaborationResult struct {
	ReviewCommentsGiven    int      `json:"review_comments_given" yaml:"review_comments_given"`
	ReviewCommentsReceived int      `json:"review_comments_received" yaml:"review_comments_received"`
	ApprovalsGiven         int      `json:"approvals_given" yaml:"approvals_given"`
	ResolvedThreads        int      `json:"resolved_threads" yaml:"resolved_threads"`
	UnresolvedThreads      int      `json:"unresolved_threads" yaml:"unresolved_threads"`
	SelfMergedCount        int      `json:"self_merged_count" yaml:"self_merged_count"`
	ReviewedMRCount        int      `json:"reviewed_mr_count" yaml:"reviewed_mr_count"`
	ReviewTurnaroundHours  *float64 `json:"review_turnaround_hours,omitempty" yaml:"review_turnaround_hours,omitempty"`
	ReviewDepthChars       *float64 `json:"review_depth_chars,omitempty" yaml:"review_depth_chars,omitempty"`
}

// Family implements FamilyResult.
func (*CollaborationResult) Family() FamilyName { return CollaborationFamily }

// JobOutcomeCounts counts CI jobs per terminal status.
type JobOutcomeCounts struct {
	Success  int `json:"success" yaml:"success"`
	Failed   int `json:"failed" yaml:"failed"`
	Canceled int `json:"canceled" yaml:"canceled"`
	Skipped  int `json:"skipped" yaml:"skipped"`
}

// Total returns the number of counted jobs.
func (j JobOutcomeCounts) Total() int {
	return j.Success + j.Failed + j.Canceled + j.Skipped
}

// StageDuration is the average job duration of one CI stage.
type StageDuration struct {
	Stage      string  `json:"stage" yaml:"stage"`
	Jobs       int     `json:"jobs" yaml:"jobs"`
	AvgSeconds float64 `json:"avg_seconds" yaml:"avg_seconds"`
}

// QualityResult holds rework, revert and CI health statistics.
type QualityResult struct {
	MergedCount                     int              `json:"merged_count" yaml:"merged_count"`
	ReworkRatio                     *float64         `json:"rework_ratio,omitempty" yaml:"rework_ratio,omitempty"`
	RevertRate                      *float64         `json:"revert_rate,omitempty" yaml:"revert_rate,omitempty"`
	CommitRevertRate                *float64         `json:"commit_revert_rate,omitempty" yaml:"commit_revert_rate,omitempty"`
	HotfixRate                      *float64         `json:"hotfix_rate,omitempty" yaml:"hotfix_rate,omitempty"`
	SecurityFixRate                 *float64         `json:"security_fix_rate,omitempty" yaml:"security_fix_rate,omitempty"`
	ConflictRate                    *float64         `json:"conflict_rate,omitempty" yaml:"conflict_rate,omitempty"`
	PipelineCount                   int              `json:"pipeline_count" yaml:"pipeline_count"`
	CISuccessRate                   *float64         `json:"ci_success_rate,omitempty" yaml:"ci_success_rate,omitempty"`
	PipelineDurationP50Minutes      *float64         `json:"pipeline_duration_p50_minutes,omitempty" yaml:"pipeline_duration_p50_minutes,omitempty"`
	PipelineDurationP95Minutes      *float64         `json:"pipeline_duration_p95_minutes,omitempty" yaml:"pipeline_duration_p95_minutes,omitempty"`
	DefaultBranchSuccessRate        *float64         `json:"default_branch_success_rate,omitempty" yaml:"default_branch_success_rate,omitempty"`
	DefaultBranchDurationP50Minutes *float64         `json:"default_branch_duration_p50_minutes,omitempty" yaml:"default_branch_duration_p50_minutes,omitempty"`
	DefaultBranchDurationP90Minutes *float64         `json:"default_branch_duration_p90_minutes,omitempty" yaml:"default_branch_duration_p90_minutes,omitempty"`
	JobQueueP50Seconds              *float64         `json:"job_queue_p50_seconds,omitempty" yaml:"job_queue_p50_seconds,omitempty"`
	JobQueueP90Seconds              *float64         `json:"job_queue_p90_seconds,omitempty" yaml:"job_queue_p90_seconds,omitempty"`
	JobDurationMeanSeconds          *float64         `json:"job_duration_mean_seconds,omitempty" yaml:"job_duration_mean_seconds,omitempty"`
	JobOutcomes                     JobOutcomeCounts `json:"job_outcomes" yaml:"job_outcomes"`
	StageDurations                  []StageDuration  `json:"stage_durations,omitempty" yaml:"stage_durations,omitempty"`
}

// Family implements FamilyResult.
func (*QualityResult) Family() FamilyName { return QualityFamily }

// SizeHistogram counts merge requests per size bucket.
type SizeHistogram struct {
	XS int `json:"xs" yaml:"xs"`
	S  int `json:"s" yaml:"s"`
	M  int `json:"m" yaml:"m"`
	L  int `json:"l" yaml:"l"`
	XL int `json:"xl" yaml:"xl"`
}

// Add increments the counter of the given bucket.
func (h *SizeHistogram) Add(b SizeBucket) {
	switch b {
	case SizeXS:
		h.XS++
	case SizeS:
		h.S++
	case SizeM:
		h.M++
	case SizeL:
		h.L++
	default:
		h.XL++
	}
}

// Count returns the counter of the given bucket.
func (h SizeHistogram) Count(b SizeBucket) int {
	switch b {
	case SizeXS:
		return h.XS
	case SizeS:
		return h.S
	case SizeM:
		return h.M
	case SizeL:
		return h.L
	default:
		return h.XL
	}
}

// CodeCharacteristicsResult holds commit and merge request shape statistics.
type CodeCharacteristicsResult struct {
	CommitCount                int           `json:"commit_count" yaml:"commit_count"`
	CommitsPerDay              *float64      `json:"commits_per_day,omitempty" yaml:"commits_per_day,omitempty"`
	CommitSizeP50              *float64      `json:"commit_size_p50,omitempty" yaml:"commit_size_p50,omitempty"`
	CommitSizeP95              *float64      `json:"commit_size_p95,omitempty" yaml:"commit_size_p95,omitempty"`
	CommitSizeMean             *float64      `json:"commit_size_mean,omitempty" yaml:"commit_size_mean,omitempty"`
	MRSizeHistogram            SizeHistogram `json:"mr_size_histogram" yaml:"mr_size_histogram"`
	SquashRate                 *float64      `json:"squash_rate,omitempty" yaml:"squash_rate,omitempty"`
	ConventionalCommitRate     *float64      `json:"conventional_commit_rate,omitempty" yaml:"conventional_commit_rate,omitempty"`
	BranchNamingComplianceRate *float64      `json:"branch_naming_compliance_rate,omitempty" yaml:"branch_naming_compliance_rate,omitempty"`
}

// Family implements FamilyResult.
func (*CodeCharacteristicsResult) Family() FamilyName { return CodeCharacteristicsFamily }

// AdvancedResult holds ownership and review-rhythm statistics.
type AdvancedResult struct {
	AuthorCount              int      `json:"author_count" yaml:"author_count"`
	BusFactor                *float64 `json:"bus_factor,omitempty" yaml:"bus_factor,omitempty"`
	Top3Percentage           *float64 `json:"top3_percentage,omitempty" yaml:"top3_percentage,omitempty"`
	TopAuthors               []string `json:"top_authors,omitempty" yaml:"top_authors,omitempty"`
	SubjectSharePercentage   *float64 `json:"subject_share_percentage,omitempty" yaml:"subject_share_percentage,omitempty"`
	ResponseTimeDistribution [24]int  `json:"response_time_distribution" yaml:"response_time_distribution"`
	PeakHour                 *int     `json:"peak_hour,omitempty" yaml:"peak_hour,omitempty"`
	BatchSizeP50             *float64 `json:"batch_size_p50,omitempty" yaml:"batch_size_p50,omitempty"`
	BatchSizeP95             *float64 `json:"batch_size_p95,omitempty" yaml:"batch_size_p95,omitempty"`
	DraftDurationHours       *float64 `json:"draft_duration_hours,omitempty" yaml:"draft_duration_hours,omitempty"`
	IterationCount           *float64 `json:"iteration_count,omitempty" yaml:"iteration_count,omitempty"`
	IdleTimeInReviewHours    *float64 `json:"idle_time_in_review_hours,omitempty" yaml:"idle_time_in_review_hours,omitempty"`
}

// Family implements FamilyResult.
func (*AdvancedResult) Family() FamilyName { return AdvancedFamily }

// MetricsAudit describes how much data backed a report.
type MetricsAudit struct {
	SampleCounts map[SourceType]int    `json:"sample_counts" yaml:"sample_counts"`
	LowSample    map[SourceType]bool   `json:"low_sample" yaml:"low_sample"`
	Rating       QualityRating         `json:"rating" yaml:"rating"`
	Errors       map[FamilyName]string `json:"errors" yaml:"errors"`
}

// DeveloperReport bundles every family result for one subject and window.
// A nil family field means that family failed; see Errors.
type DeveloperReport struct {
	SchemaVersion       int                        `json:"schema_version" yaml:"schema_version"`
	RunID               string                     `json:"run_id" yaml:"run_id"`
	Subject             User                       `json:"subject" yaml:"subject"`
	Window              MetricWindow               `json:"window" yaml:"window"`
	GeneratedAt         time.Time                  `json:"generated_at" yaml:"generated_at"`
	ProjectCount        int                        `json:"project_count" yaml:"project_count"`
	CycleTime           *CycleTimeResult           `json:"cycle_time,omitempty" yaml:"cycle_time,omitempty"`
	Flow                *FlowResult                `json:"flow,omitempty" yaml:"flow,omitempty"`
	Collaboration       *CollaborationResult       `json:"collaboration,omitempty" yaml:"collaboration,omitempty"`
	Quality             *QualityResult             `json:"quality,omitempty" yaml:"quality,omitempty"`
	CodeCharacteristics *CodeCharacteristicsResult `json:"code_characteristics,omitempty" yaml:"code_characteristics,omitempty"`
	Advanced            *AdvancedResult            `json:"advanced,omitempty" yaml:"advanced,omitempty"`
	Audit               MetricsAudit               `json:"audit" yaml:"audit"`
	Errors              map[FamilyName]string      `json:"errors" yaml:"errors"`
}

// SetResult stores a family result in its field. Unknown types are ignored.
func (r *DeveloperReport) SetResult(res FamilyResult) {
	switch v := res.(type) {
	case *CycleTimeResult:
		r.CycleTime = v
	case *FlowResult:
		r.Flow = v
	case *CollaborationResult:
		r.Collaboration = v
	case *QualityResult:
		r.Quality = v
	case *CodeCharacteristicsResult:
		r.CodeCharacteristics = v
	case *AdvancedResult:
		r.Advanced = v
	}
}

// Result returns the stored result of a family, or nil when absent.
func (r *DeveloperReport) Result(name FamilyName) FamilyResult {
	switch name {
	case CycleTimeFamily:
		if r.CycleTime != nil {
			return r.CycleTime
		}
	case FlowFamily:
		if r.Flow != nil {
			return r.Flow
		}
	case CollaborationFamily:
		if r.Collaboration != nil {
			return r.Collaboration
		}
	case QualityFamily:
		if r.Quality != nil {
			return r.Quality
		}
	case CodeCharacteristicsFamily:
		if r.CodeCharacteristics != nil {
			return r.CodeCharacteristics
		}
	case AdvancedFamily:
		if r.Advanced != nil {
			return r.Advanced
		}
	}
	return nil
}
