package schema

// Custom string types for type safety.
type (
	// MRState represents the lifecycle state of a merge request.
	MRState string

	// PipelineStatus represents the status of a pipeline or job.
	PipelineStatus string

	// FamilyName identifies a metric family.
	FamilyName string

	// SourceType identifies a kind of raw event counted by the audit.
	SourceType string

	// QualityRating grades how trustworthy a report is.
	QualityRating string

	// SizeBucket is a merge request size class.
	SizeBucket string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// SourceKind represents where raw events are read from.
	SourceKind string
)

// All merge request states supported.
const (
	OpenedState MRState = "opened"
	DraftState  MRState = "draft"
	ClosedState MRState = "closed"
	MergedState MRState = "merged"
)

// Pipeline and job statuses.
const (
	CreatedStatus  PipelineStatus = "created"
	PendingStatus  PipelineStatus = "pending"
	RunningStatus  PipelineStatus = "running"
	SuccessStatus  PipelineStatus = "success"
	FailedStatus   PipelineStatus = "failed"
	CanceledStatus PipelineStatus = "canceled"
	SkippedStatus  PipelineStatus = "skipped"
	ManualStatus   PipelineStatus = "manual"
)

// Metric family names. These are the keys of the Errors map.
const (
	CycleTimeFamily           FamilyName = "cycle_time"
	FlowFamily                FamilyName = "flow"
	CollaborationFamily       FamilyName = "collaboration"
	QualityFamily             FamilyName = "quality"
	CodeCharacteristicsFamily FamilyName = "code_characteristics"
	AdvancedFamily            FamilyName = "advanced"
)

// AllFamilies lists every metric family in report order.
var AllFamilies = []FamilyName{
	CycleTimeFamily,
	FlowFamily,
	CollaborationFamily,
	QualityFamily,
	CodeCharacteristicsFamily,
	AdvancedFamily,
}

// Source types tracked by the audit.
const (
	CommitSource       SourceType = "commits"
	MergeRequestSource SourceType = "merge_requests"
	PipelineSource     SourceType = "pipelines"
	ReviewSource       SourceType = "reviews"
)

// AllSources lists every audited source type.
var AllSources = []SourceType{CommitSource, MergeRequestSource, PipelineSource, ReviewSource}

// Quality ratings, worst to best.
const (
	PoorRating      QualityRating = "Poor"
	FairRating      QualityRating = "Fair"
	GoodRating      QualityRating = "Good"
	ExcellentRating QualityRating = "Excellent"
)

// Rank orders ratings from Poor (0) to Excellent (3).
func (r QualityRating) Rank() int {
	switch r {
	case ExcellentRating:
		return 3
	case GoodRating:
		return 2
	case FairRating:
		return 1
	default:
		return 0
	}
}

// Merge request size buckets.
const (
	SizeXS SizeBucket = "xs"
	SizeS  SizeBucket = "s"
	SizeM  SizeBucket = "m"
	SizeL  SizeBucket = "l"
	SizeXL SizeBucket = "xl"
)

// AllSizeBuckets lists size buckets from smallest to largest.
var AllSizeBuckets = []SizeBucket{SizeXS, SizeS, SizeM, SizeL, SizeXL}

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	YAMLOut    OutputMode = "yaml"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All event sources supported.
const (
	GitLabSource  SourceKind = "gitlab" // default
	FixtureSource SourceKind = "fixture"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	YAMLOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidSourceKinds lists all valid event sources.
var ValidSourceKinds = map[SourceKind]struct{}{
	GitLabSource:  {},
	FixtureSource: {},
}

// ValidFamilies lists all valid family names.
var ValidFamilies = map[FamilyName]struct{}{
	CycleTimeFamily:           {},
	FlowFamily:                {},
	CollaborationFamily:       {},
	QualityFamily:             {},
	CodeCharacteristicsFamily: {},
	AdvancedFamily:            {},
}
