package contract

import (
	"testing"
	"time"

	"github.com/huangsam/devflow/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		UserStr:      "42",
		Source:       "gitlab",
		Days:         30,
		Workers:      4,
		Precision:    1,
		Output:       "text",
		Color:        "yes",
		CacheBackend: "none",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
		validation  bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "zero days", mutate: func(in *ConfigRawInput) { in.Days = 0 }, expectError: true, validation: true},
		{name: "negative days", mutate: func(in *ConfigRawInput) { in.Days = -7 }, expectError: true, validation: true},
		{name: "too many days", mutate: func(in *ConfigRawInput) { in.Days = MaxWindowDays + 1 }, expectError: true, validation: true},
		{name: "bad user id", mutate: func(in *ConfigRawInput) { in.UserStr = "jane" }, expectError: true, validation: true},
		{name: "zero workers", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true, validation: true},
		{name: "bad output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true, validation: true},
		{name: "parquet needs a file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: true, validation: true},
		{name: "bad source", mutate: func(in *ConfigRawInput) { in.Source = "github" }, expectError: true, validation: true},
		{name: "fixture without file", mutate: func(in *ConfigRawInput) { in.Source = "fixture" }, expectError: true, validation: true},
		{name: "fixture with file", mutate: func(in *ConfigRawInput) { in.Source = "fixture"; in.Fixture = "events.yaml" }},
		{name: "oauth without token", mutate: func(in *ConfigRawInput) { in.GitLabAuth = "oauth" }, expectError: true, validation: true},
		{name: "bad gitlab url", mutate: func(in *ConfigRawInput) { in.GitLabURL = "gitlab.example.com" }, expectError: true, validation: true},
		{name: "unknown family", mutate: func(in *ConfigRawInput) { in.Families = "flow,speed" }, expectError: true, validation: true},
		{name: "bad color", mutate: func(in *ConfigRawInput) { in.Color = "sometimes" }, expectError: true},
		{name: "bad cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: true},
		{name: "mysql without dsn", mutate: func(in *ConfigRawInput) { in.CacheBackend = "mysql" }, expectError: true},
		{name: "bad cache ttl", mutate: func(in *ConfigRawInput) { in.CacheTTL = "soon" }, expectError: true},
		{name: "bad end", mutate: func(in *ConfigRawInput) { in.End = "tomorrow" }, expectError: true, validation: true},
		{
			name: "non increasing size thresholds",
			mutate: func(in *ConfigRawInput) {
				v := 50
				in.Metrics.SizeThresholds.M = &v
			},
			expectError: true, validation: true,
		},
		{
			name:        "unknown min sample source",
			mutate:      func(in *ConfigRawInput) { in.Metrics.MinSamples = map[string]int{"issues": 3} },
			expectError: true, validation: true,
		},
		{
			name: "inverted winsorize bounds",
			mutate: func(in *ConfigRawInput) {
				lo := 90.0
				in.Metrics.WinsorizeLower = &lo
			},
			expectError: true, validation: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, in)
			if !tt.expectError {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.validation {
				assert.True(t, IsValidation(err), "expected validation error, got %v", err)
			}
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, int64(42), cfg.UserID)
	assert.Equal(t, schema.GitLabSource, cfg.Source)
	assert.Equal(t, DefaultGitLabURL, cfg.GitLabURL)
	assert.Equal(t, PrivateTokenAuth, cfg.GitLabAuth)
	assert.Equal(t, schema.AllFamilies, cfg.Families)
	assert.Equal(t, schema.NoneBackend, cfg.HistoryBackend)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, DefaultLRUSize, cfg.LRUSize)
	assert.Equal(t, DefaultClassifierConfig(), cfg.Classifier)
	assert.Equal(t, DefaultMetricsConfig(), cfg.Metrics)
	assert.WithinDuration(t, time.Now(), cfg.EndTime, time.Minute)
	assert.Equal(t, 30*24*time.Hour, cfg.EndTime.Sub(cfg.WindowStart()))
}

func TestProcessAndValidateOverrides(t *testing.T) {
	in := validInput()
	in.Families = "Flow, quality,flow"
	in.End = "2025-06-30"
	in.Classifier.BotPatterns = []string{`^ci-runner$`}
	minLen := 4
	in.Classifier.MinMessageLength = &minLen
	in.Metrics.MinSamples = map[string]int{"Commits": 50}
	in.Metrics.Winsorize = true
	idle := 7
	in.Metrics.IdleCapDays = &idle

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, in))

	assert.Equal(t, []schema.FamilyName{schema.FlowFamily, schema.QualityFamily}, cfg.Families)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), cfg.EndTime)
	assert.Equal(t, []string{`^ci-runner$`}, cfg.Classifier.BotPatterns)
	assert.Equal(t, DefaultClassifierConfig().RevertPatterns, cfg.Classifier.RevertPatterns, "untouched lists keep defaults")
	assert.Equal(t, 4, cfg.Classifier.MinMessageLength)
	assert.Equal(t, 50, cfg.Metrics.MinSamples[schema.CommitSource])
	assert.Equal(t, 5, cfg.Metrics.MinSamples[schema.ReviewSource])
	assert.True(t, cfg.Metrics.Winsorize)
	assert.Equal(t, 7*24*time.Hour, cfg.Metrics.IdleCap)
}

func TestSQLiteCacheAndHistoryMustDiffer(t *testing.T) {
	in := validInput()
	in.CacheBackend = "sqlite"
	in.HistoryBackend = "sqlite"
	in.CacheDBConnect = "/tmp/devflow.db"
	in.HistoryDBConnect = "/tmp/devflow.db"
	assert.Error(t, ProcessAndValidate(&Config{}, in))

	in.HistoryDBConnect = "/tmp/devflow_history.db"
	assert.NoError(t, ProcessAndValidate(&Config{}, in))
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	clone := cfg.Clone()
	clone.Families[0] = schema.AdvancedFamily
	clone.Classifier.BotPatterns[0] = "changed"
	clone.Metrics.MinSamples[schema.CommitSource] = 999

	assert.Equal(t, schema.CycleTimeFamily, cfg.Families[0])
	assert.NotEqual(t, "changed", cfg.Classifier.BotPatterns[0])
	assert.Equal(t, 10, cfg.Metrics.MinSamples[schema.CommitSource])
}

func TestSizeThresholdsBucket(t *testing.T) {
	th := DefaultMetricsConfig().SizeThresholds
	tests := []struct {
		lines int
		want  schema.SizeBucket
	}{
		{0, schema.SizeXS},
		{10, schema.SizeXS},
		{11, schema.SizeS},
		{100, schema.SizeS},
		{500, schema.SizeM},
		{1000, schema.SizeL},
		{1001, schema.SizeXL},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Bucket(tt.lines), "lines=%d", tt.lines)
	}
}

func TestRevalidateReport(t *testing.T) {
	base := &Config{}
	require.NoError(t, ProcessAndValidate(base, validInput()))

	t.Run("overrides", func(t *testing.T) {
		cfg := base.Clone()
		require.NoError(t, RevalidateReport(cfg, 7, 14, "2024-03-31", "flow, quality"))
		assert.Equal(t, int64(7), cfg.UserID)
		assert.Equal(t, 14, cfg.WindowDays)
		assert.Equal(t, 2024, cfg.EndTime.Year())
		assert.Equal(t, []schema.FamilyName{schema.FlowFamily, schema.QualityFamily}, cfg.Families)
		assert.Len(t, base.Families, len(schema.AllFamilies), "base config is untouched")
	})

	t.Run("defaults keep the configured window", func(t *testing.T) {
		cfg := base.Clone()
		require.NoError(t, RevalidateReport(cfg, 7, 0, "", ""))
		assert.Equal(t, base.WindowDays, cfg.WindowDays)
		assert.Equal(t, base.Families, cfg.Families)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, tc := range []struct {
			user     int64
			days     int
			families string
		}{
			{user: 0},
			{user: 7, days: -1},
			{user: 7, days: MaxWindowDays + 1},
			{user: 7, families: "nope"},
		} {
			err := RevalidateReport(base.Clone(), tc.user, tc.days, "", tc.families)
			assert.True(t, IsValidation(err), "%+v", tc)
		}
	})
}
