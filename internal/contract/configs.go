package contract

import (
	"fmt"
	"maps"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/devflow/schema"
)

// Default values for configuration.
const (
	DefaultWindowDays  = 30
	MaxWindowDays      = 730
	DefaultPrecision   = 1
	DefaultGitLabURL   = "https://gitlab.com"
	DefaultCacheTTL    = 6 * time.Hour
	DefaultLRUSize     = 1024
	DefaultIdleCapDays = 30
	DefaultTopAuthors  = 3
	DefaultMinMsgLen   = 10
)

// GitLab authentication modes.
const (
	PrivateTokenAuth = "private-token" // default
	OAuthAuth        = "oauth"
)

// DefaultWorkers is the default number of concurrent sub-resource fetches.
var DefaultWorkers = max(runtime.GOMAXPROCS(0), 4)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// ClassifierConfig holds the pattern sets of the event classifier.
// Every pattern is a case-insensitive regular expression, except FileExcludes
// which use glob, prefix (dir/), suffix (.ext) or substring semantics.
type ClassifierConfig struct {
	BotPatterns                []string `json:"bot_patterns" yaml:"bot_patterns"`
	CommitExcludePatterns      []string `json:"commit_exclude_patterns" yaml:"commit_exclude_patterns"`
	ConventionalCommitPatterns []string `json:"conventional_commit_patterns" yaml:"conventional_commit_patterns"`
	BranchNamingPatterns       []string `json:"branch_naming_patterns" yaml:"branch_naming_patterns"`
	BranchExcludePatterns      []string `json:"branch_exclude_patterns" yaml:"branch_exclude_patterns"`
	FileExcludes               []string `json:"file_excludes" yaml:"file_excludes"`
	HotfixPatterns             []string `json:"hotfix_patterns" yaml:"hotfix_patterns"`
	HotfixBranchPatterns       []string `json:"hotfix_branch_patterns" yaml:"hotfix_branch_patterns"`
	HotfixLabels               []string `json:"hotfix_labels" yaml:"hotfix_labels"`
	RevertPatterns             []string `json:"revert_patterns" yaml:"revert_patterns"`
	SecurityPatterns           []string `json:"security_patterns" yaml:"security_patterns"`
	SecurityLabels             []string `json:"security_labels" yaml:"security_labels"`
	DraftPatterns              []string `json:"draft_patterns" yaml:"draft_patterns"`
	MinMessageLength           int      `json:"min_message_length" yaml:"min_message_length"`
}

// DefaultClassifierConfig returns the built-in pattern sets.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		BotPatterns: []string{
			`\[bot\]$`, `^bot-`, `-bot$`, `^ghost$`, `^project_\d+_bot`,
			`renovate`, `dependabot`, `gitlab-bot`,
		},
		CommitExcludePatterns: []string{
			`^Merge branch`, `^Merge remote-tracking`, `^Merge pull request`, `^Merge request`,
		},
		ConventionalCommitPatterns: []string{
			`^(feat|fix|docs|style|refactor|perf|test|build|ci|chore|revert)(\([\w\-./ ]+\))?!?: .+`,
		},
		BranchNamingPatterns: []string{
			`^(feature|feat|fix|bugfix|hotfix|chore|docs|refactor|release|test)/[a-z0-9._-]+$`,
		},
		BranchExcludePatterns: []string{
			`^(main|master|develop|dev|staging|production)$`,
			`^renovate/`, `^dependabot/`,
		},
		FileExcludes: []string{
			"go.sum", "package-lock.json", "yarn.lock", "pnpm-lock.yaml", "Cargo.lock", "composer.lock", "uv.lock",
			".min.js", ".min.css", ".svg", ".png", ".jpg",
			"vendor/", "node_modules/", "dist/",
		},
		HotfixPatterns:       []string{`\bhotfix\b`, `\burgent\b`, `\bemergency\b`},
		HotfixBranchPatterns: []string{`^hotfix/`},
		HotfixLabels:         []string{`^hotfix$`, `^incident$`, `^sev[0-9]$`},
		RevertPatterns:       []string{`^revert\b`, `this reverts commit [0-9a-f]{7,40}`},
		SecurityPatterns:     []string{`\bsecurity\b`, `\bcve-\d{4}-\d+`, `vulnerab`},
		SecurityLabels:       []string{`^security$`, `^vulnerability$`},
		DraftPatterns:        []string{`^(draft|wip)\s*:`, `^\[(draft|wip)\]`, `^\(draft\)`},
		MinMessageLength:     DefaultMinMsgLen,
	}
}

// Clone returns a deep copy of the classifier configuration.
func (c ClassifierConfig) Clone() ClassifierConfig {
	c.BotPatterns = slices.Clone(c.BotPatterns)
	c.CommitExcludePatterns = slices.Clone(c.CommitExcludePatterns)
	c.ConventionalCommitPatterns = slices.Clone(c.ConventionalCommitPatterns)
	c.BranchNamingPatterns = slices.Clone(c.BranchNamingPatterns)
	c.BranchExcludePatterns = slices.Clone(c.BranchExcludePatterns)
	c.FileExcludes = slices.Clone(c.FileExcludes)
	c.HotfixPatterns = slices.Clone(c.HotfixPatterns)
	c.HotfixBranchPatterns = slices.Clone(c.HotfixBranchPatterns)
	c.HotfixLabels = slices.Clone(c.HotfixLabels)
	c.RevertPatterns = slices.Clone(c.RevertPatterns)
	c.SecurityPatterns = slices.Clone(c.SecurityPatterns)
	c.SecurityLabels = slices.Clone(c.SecurityLabels)
	c.DraftPatterns = slices.Clone(c.DraftPatterns)
	return c
}

// SizeThresholds are the inclusive upper bounds, in changed lines, of the
// xs, s, m and l merge request buckets. Anything larger is xl.
type SizeThresholds struct {
	XS int `json:"xs" yaml:"xs"`
	S  int `json:"s" yaml:"s"`
	M  int `json:"m" yaml:"m"`
	L  int `json:"l" yaml:"l"`
}

// Bucket returns the size bucket of a merge request with the given changed lines.
func (t SizeThresholds) Bucket(lines int) schema.SizeBucket {
	switch {
	case lines <= t.XS:
		return schema.SizeXS
	case lines <= t.S:
		return schema.SizeS
	case lines <= t.M:
		return schema.SizeM
	case lines <= t.L:
		return schema.SizeL
	default:
		return schema.SizeXL
	}
}

// MetricsConfig tunes the metric families and the audit.
type MetricsConfig struct {
	SizeThresholds SizeThresholds            `json:"size_thresholds" yaml:"size_thresholds"`
	MinSamples     map[schema.SourceType]int `json:"min_samples" yaml:"min_samples"`
	Winsorize      bool                      `json:"winsorize" yaml:"winsorize"`
	WinsorizeLower float64                   `json:"winsorize_lower" yaml:"winsorize_lower"`
	WinsorizeUpper float64                   `json:"winsorize_upper" yaml:"winsorize_upper"`
	IdleCap        time.Duration             `json:"idle_cap" yaml:"idle_cap"`
	TopAuthors     int                       `json:"top_authors" yaml:"top_authors"`
}

// DefaultMetricsConfig returns the built-in metric settings.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SizeThresholds: SizeThresholds{XS: 10, S: 100, M: 500, L: 1000},
		MinSamples: map[schema.SourceType]int{
			schema.CommitSource:       10,
			schema.MergeRequestSource: 5,
			schema.PipelineSource:     5,
			schema.ReviewSource:       5,
		},
		WinsorizeLower: 5,
		WinsorizeUpper: 95,
		IdleCap:        DefaultIdleCapDays * day,
		TopAuthors:     DefaultTopAuthors,
	}
}

// Clone returns a deep copy of the metrics configuration.
func (m MetricsConfig) Clone() MetricsConfig {
	m.MinSamples = maps.Clone(m.MinSamples)
	return m
}

// Config holds the runtime configuration for one report computation.
// This struct remains the "final, validated" config.
type Config struct {
	Source      schema.SourceKind
	GitLabURL   string
	GitLabToken string // Please use env var as this is plaintext
	GitLabAuth  string
	FixturePath string

	UserID     int64
	EndTime    time.Time
	WindowDays int
	Families   []schema.FamilyName

	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration
	LRUSize        int

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Classifier ClassifierConfig
	Metrics    MetricsConfig
}

// ClassifierRawInput holds pattern overrides from the YAML config file.
// A non-empty list replaces the built-in list.
type ClassifierRawInput struct {
	BotPatterns                []string `mapstructure:"bot_patterns"`
	CommitExcludePatterns      []string `mapstructure:"commit_exclude_patterns"`
	ConventionalCommitPatterns []string `mapstructure:"conventional_commit_patterns"`
	BranchNamingPatterns       []string `mapstructure:"branch_naming_patterns"`
	BranchExcludePatterns      []string `mapstructure:"branch_exclude_patterns"`
	FileExcludes               []string `mapstructure:"file_excludes"`
	HotfixPatterns             []string `mapstructure:"hotfix_patterns"`
	HotfixBranchPatterns       []string `mapstructure:"hotfix_branch_patterns"`
	HotfixLabels               []string `mapstructure:"hotfix_labels"`
	RevertPatterns             []string `mapstructure:"revert_patterns"`
	SecurityPatterns           []string `mapstructure:"security_patterns"`
	SecurityLabels             []string `mapstructure:"security_labels"`
	DraftPatterns              []string `mapstructure:"draft_patterns"`
	MinMessageLength           *int     `mapstructure:"min_message_length"`
}

// SizeThresholdsRawInput holds bucket overrides from the YAML config file.
type SizeThresholdsRawInput struct {
	XS *int `mapstructure:"xs"`
	S  *int `mapstructure:"s"`
	M  *int `mapstructure:"m"`
	L  *int `mapstructure:"l"`
}

// MetricsRawInput holds metric overrides from the YAML config file.
type MetricsRawInput struct {
	SizeThresholds SizeThresholdsRawInput `mapstructure:"size_thresholds"`
	MinSamples     map[string]int         `mapstructure:"min_samples"`
	Winsorize      bool                   `mapstructure:"winsorize"`
	WinsorizeLower *float64               `mapstructure:"winsorize_lower"`
	WinsorizeUpper *float64               `mapstructure:"winsorize_upper"`
	IdleCapDays    *int                   `mapstructure:"idle_cap_days"`
	TopAuthors     *int                   `mapstructure:"top_authors"`
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	UserStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Source           string `mapstructure:"source"`
	GitLabURL        string `mapstructure:"gitlab-url"`
	GitLabToken      string `mapstructure:"gitlab-token"`
	GitLabAuth       string `mapstructure:"gitlab-auth"`
	Fixture          string `mapstructure:"fixture"`
	End              string `mapstructure:"end"`
	Days             int    `mapstructure:"days"`
	Families         string `mapstructure:"families"`
	Workers          int    `mapstructure:"workers"`
	Precision        int    `mapstructure:"precision"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	CacheTTL         string `mapstructure:"cache-ttl"`
	LRUSize          int    `mapstructure:"lru-size"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Pattern overrides from config file ---
	Classifier ClassifierRawInput `mapstructure:"classifier"`

	// --- Metric overrides from config file ---
	Metrics MetricsRawInput `mapstructure:"metrics"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Families = slices.Clone(c.Families)
	clone.Classifier = c.Classifier.Clone()
	clone.Metrics = c.Metrics.Clone()
	return &clone
}

// WindowStart returns the start of the configured window.
func (c *Config) WindowStart() time.Time {
	return c.EndTime.AddDate(0, 0, -c.WindowDays)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateSourceConfig(cfg, input); err != nil {
		return err
	}
	if err := processSubjectAndWindow(cfg, input, time.Now()); err != nil {
		return err
	}
	if err := processFamilies(cfg, input); err != nil {
		return err
	}
	if err := processClassifier(cfg, input); err != nil {
		return err
	}
	return processMetrics(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// The cache and history tables must not share one SQLite file.
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if cachePath == historyPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates presentation and execution fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return NewValidationError("workers", "must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > 3 {
		return NewValidationError("precision", "must be between 1 and 3 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return NewValidationError("output", "'%s' must be text, csv, json, yaml, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return NewValidationError("output-file", "parquet output requires --output-file")
	}

	if input.CacheTTL == "" {
		cfg.CacheTTL = DefaultCacheTTL
	} else {
		ttl, err := ParseLookbackDuration(input.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid --cache-ttl: %w", err)
		}
		cfg.CacheTTL = ttl
	}
	cfg.LRUSize = input.LRUSize
	if cfg.LRUSize <= 0 {
		cfg.LRUSize = DefaultLRUSize
	}

	return validateBackendConfigs(cfg, input)
}

// validateSourceConfig checks the event source selection and its settings.
func validateSourceConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.Source = schema.SourceKind(strings.ToLower(strings.TrimSpace(input.Source)))
	if cfg.Source == "" {
		cfg.Source = schema.GitLabSource
	}
	if _, ok := schema.ValidSourceKinds[cfg.Source]; !ok {
		return NewValidationError("source", "'%s' must be gitlab or fixture", input.Source)
	}

	switch cfg.Source {
	case schema.FixtureSource:
		cfg.FixturePath = strings.TrimSpace(input.Fixture)
		if cfg.FixturePath == "" {
			return NewValidationError("fixture", "a fixture file is required when using the fixture source")
		}
	case schema.GitLabSource:
		cfg.GitLabURL = strings.TrimRight(strings.TrimSpace(input.GitLabURL), "/")
		if cfg.GitLabURL == "" {
			cfg.GitLabURL = DefaultGitLabURL
		}
		if !strings.HasPrefix(cfg.GitLabURL, "http://") && !strings.HasPrefix(cfg.GitLabURL, "https://") {
			return NewValidationError("gitlab-url", "'%s' must start with http:// or https://", cfg.GitLabURL)
		}
		cfg.GitLabToken = input.GitLabToken
		cfg.GitLabAuth = strings.ToLower(strings.TrimSpace(input.GitLabAuth))
		if cfg.GitLabAuth == "" {
			cfg.GitLabAuth = PrivateTokenAuth
		}
		if cfg.GitLabAuth != PrivateTokenAuth && cfg.GitLabAuth != OAuthAuth {
			return NewValidationError("gitlab-auth", "'%s' must be %s or %s", input.GitLabAuth, PrivateTokenAuth, OAuthAuth)
		}
		if cfg.GitLabAuth == OAuthAuth && cfg.GitLabToken == "" {
			return NewValidationError("gitlab-token", "oauth authentication requires a token")
		}
	}
	return nil
}

// processSubjectAndWindow parses the subject id and the metric window.
func processSubjectAndWindow(cfg *Config, input *ConfigRawInput, now time.Time) error {
	if s := strings.TrimSpace(input.UserStr); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return NewValidationError("user", "'%s' must be a positive numeric user id", s)
		}
		cfg.UserID = id
	}

	if input.Days <= 0 || input.Days > MaxWindowDays {
		return NewValidationError("days", "must be between 1 and %d (received %d)", MaxWindowDays, input.Days)
	}
	cfg.WindowDays = input.Days

	cfg.EndTime = now.UTC()
	if input.End != "" {
		t, err := ParseTimeArg(input.End, now)
		if err != nil {
			return NewValidationError("end", "%v", err)
		}
		cfg.EndTime = t.UTC()
	}
	return nil
}

// processFamilies parses the comma-separated family selection.
func processFamilies(cfg *Config, input *ConfigRawInput) error {
	cfg.Families = nil
	if strings.TrimSpace(input.Families) == "" || strings.EqualFold(strings.TrimSpace(input.Families), "all") {
		cfg.Families = slices.Clone(schema.AllFamilies)
		return nil
	}
	for p := range strings.SplitSeq(input.Families, ",") {
		name := schema.FamilyName(strings.ToLower(strings.TrimSpace(p)))
		if name == "" {
			continue
		}
		if _, ok := schema.ValidFamilies[name]; !ok {
			return NewValidationError("families", "unknown family '%s'", name)
		}
		if !slices.Contains(cfg.Families, name) {
			cfg.Families = append(cfg.Families, name)
		}
	}
	if len(cfg.Families) == 0 {
		return NewValidationError("families", "at least one family is required")
	}
	return nil
}

// processClassifier merges pattern overrides over the defaults.
func processClassifier(cfg *Config, input *ConfigRawInput) error {
	c := DefaultClassifierConfig()
	raw := input.Classifier
	override := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = slices.Clone(src)
		}
	}
	override(&c.BotPatterns, raw.BotPatterns)
	override(&c.CommitExcludePatterns, raw.CommitExcludePatterns)
	override(&c.ConventionalCommitPatterns, raw.ConventionalCommitPatterns)
	override(&c.BranchNamingPatterns, raw.BranchNamingPatterns)
	override(&c.BranchExcludePatterns, raw.BranchExcludePatterns)
	override(&c.FileExcludes, raw.FileExcludes)
	override(&c.HotfixPatterns, raw.HotfixPatterns)
	override(&c.HotfixBranchPatterns, raw.HotfixBranchPatterns)
	override(&c.HotfixLabels, raw.HotfixLabels)
	override(&c.RevertPatterns, raw.RevertPatterns)
	override(&c.SecurityPatterns, raw.SecurityPatterns)
	override(&c.SecurityLabels, raw.SecurityLabels)
	override(&c.DraftPatterns, raw.DraftPatterns)
	if raw.MinMessageLength != nil {
		if *raw.MinMessageLength < 0 {
			return NewValidationError("classifier.min_message_length", "must not be negative (received %d)", *raw.MinMessageLength)
		}
		c.MinMessageLength = *raw.MinMessageLength
	}
	cfg.Classifier = c
	return nil
}

// processMetrics merges metric overrides over the defaults and validates them.
func processMetrics(cfg *Config, input *ConfigRawInput) error {
	m := DefaultMetricsConfig()
	raw := input.Metrics

	for _, p := range []struct {
		dst *int
		src *int
	}{
		{&m.SizeThresholds.XS, raw.SizeThresholds.XS},
		{&m.SizeThresholds.S, raw.SizeThresholds.S},
		{&m.SizeThresholds.M, raw.SizeThresholds.M},
		{&m.SizeThresholds.L, raw.SizeThresholds.L},
	} {
		if p.src != nil {
			*p.dst = *p.src
		}
	}
	t := m.SizeThresholds
	if t.XS < 0 || t.XS >= t.S || t.S >= t.M || t.M >= t.L {
		return NewValidationError("metrics.size_thresholds", "must be non-negative and strictly increasing (received %d/%d/%d/%d)", t.XS, t.S, t.M, t.L)
	}

	for k, v := range raw.MinSamples {
		src := schema.SourceType(strings.ToLower(k))
		if !slices.Contains(schema.AllSources, src) {
			return NewValidationError("metrics.min_samples", "unknown source '%s'", k)
		}
		if v < 0 {
			return NewValidationError("metrics.min_samples", "%s must not be negative (received %d)", k, v)
		}
		m.MinSamples[src] = v
	}

	m.Winsorize = raw.Winsorize
	if raw.WinsorizeLower != nil {
		m.WinsorizeLower = *raw.WinsorizeLower
	}
	if raw.WinsorizeUpper != nil {
		m.WinsorizeUpper = *raw.WinsorizeUpper
	}
	if m.WinsorizeLower < 0 || m.WinsorizeUpper > 100 || m.WinsorizeLower >= m.WinsorizeUpper {
		return NewValidationError("metrics.winsorize", "bounds must satisfy 0 <= lower < upper <= 100 (received %v/%v)", m.WinsorizeLower, m.WinsorizeUpper)
	}

	if raw.IdleCapDays != nil {
		if *raw.IdleCapDays <= 0 {
			return NewValidationError("metrics.idle_cap_days", "must be greater than 0 (received %d)", *raw.IdleCapDays)
		}
		m.IdleCap = time.Duration(*raw.IdleCapDays) * day
	}
	if raw.TopAuthors != nil {
		if *raw.TopAuthors <= 0 {
			return NewValidationError("metrics.top_authors", "must be greater than 0 (received %d)", *raw.TopAuthors)
		}
		m.TopAuthors = *raw.TopAuthors
	}

	cfg.Metrics = m
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// RevalidateReport applies per-request overrides to a cloned config, as the MCP
// tools do. A zero days keeps the configured window length; an empty end means now.
func RevalidateReport(cfg *Config, userID int64, days int, end, families string) error {
	if userID <= 0 {
		return NewValidationError("user_id", "must be a positive numeric user id (received %d)", userID)
	}
	in := &ConfigRawInput{
		UserStr:  strconv.FormatInt(userID, 10),
		Days:     cfg.WindowDays,
		End:      end,
		Families: families,
	}
	if days != 0 {
		in.Days = days
	}
	if err := processSubjectAndWindow(cfg, in, time.Now()); err != nil {
		return err
	}
	if strings.TrimSpace(families) == "" {
		return nil
	}
	return processFamilies(cfg, in)
}
