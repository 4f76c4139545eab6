package algo

import (
	"math"
	"testing"
	"time"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		p        float64
		expected float64
	}{
		{"cycle times p50", []float64{48, 96}, 50, 72},
		{"cycle times p90", []float64{48, 96}, 90, 91.2},
		{"single value any p", []float64{7}, 99, 7},
		{"p0 is min", []float64{5, 1, 3}, 0, 1},
		{"p100 is max", []float64{5, 1, 3}, 100, 5},
		{"unsorted input", []float64{40, 10, 30, 20}, 25, 17.5},
		{"non-finite dropped", []float64{math.NaN(), 2, math.Inf(1), 4}, 50, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Percentile(tt.values, tt.p)
			require.NoError(t, err)
			require.True(t, ok)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestPercentileEmptyAndInvalid(t *testing.T) {
	_, ok, err := Percentile(nil, 50)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, p := range []float64{-0.1, 100.1, math.NaN()} {
		_, _, err := Percentile([]float64{1, 2}, p)
		assert.True(t, contract.IsValidation(err), "p=%v", p)
	}

	_, err = Percentiles([]float64{1}, 50, 101)
	assert.True(t, contract.IsValidation(err))
}

func TestPercentileDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_, _, err := Percentile(values, 50)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestPercentiles(t *testing.T) {
	got, err := Percentiles([]float64{48, 96}, 50, 90)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 72, *got[0], 1e-9)
	assert.InDelta(t, 91.2, *got[1], 1e-9)

	empty, err := Percentiles(nil, 50, 95)
	require.NoError(t, err)
	assert.Nil(t, empty[0])
	assert.Nil(t, empty[1])
}

func TestMedianMatchesPercentile50(t *testing.T) {
	samples := [][]float64{
		{1},
		{2, 1},
		{9, 1, 5},
		{4, 8, 15, 16, 23, 42},
		{-3, 0, 0, 7, 7, 11, 2},
	}
	for _, s := range samples {
		m, ok := Median(s)
		require.True(t, ok)
		p, ok, err := Percentile(s, 50)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, m, p, 1e-9, "sample %v", s)
	}

	_, ok := Median(nil)
	assert.False(t, ok)
	assert.Nil(t, MedianOf([]float64{}))
	assert.InDelta(t, 15.5, *MedianOf([]float64{4, 8, 15, 16, 23, 42}), 1e-9)
}

func TestPercentileMonotone(t *testing.T) {
	values := []float64{12, 3, 44, 3, 17, 90, 0.5, 61}
	prev := math.Inf(-1)
	for p := 0.0; p <= 100; p += 2.5 {
		got, ok, err := Percentile(values, p)
		require.NoError(t, err)
		require.True(t, ok)
		assert.GreaterOrEqual(t, got, prev, "p=%v", p)
		prev = got
	}
}

func TestMeanAndRatio(t *testing.T) {
	m, ok := Mean([]float64{1, 2, 3, math.NaN()})
	require.True(t, ok)
	assert.InDelta(t, 2, m, 1e-9)
	assert.Nil(t, MeanOf(nil))

	assert.Nil(t, Ratio(1, 0))
	assert.InDelta(t, 2.0/3.0, *Ratio(2, 3), 1e-9)
	assert.InDelta(t, 0.4, *Ratio(2, 5), 1e-9)
}

func TestGini(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty slice", nil, 0},
		{"single author", []float64{42}, 0},
		{"perfect equality", []float64{10, 10, 10}, 0},
		{"zero total", []float64{0, 0}, 0},
		{"two authors", []float64{175, 50}, 125.0 / 450.0},
		{"monopoly of four", []float64{0, 0, 0, 100}, 0.75},
		{"negative counts as zero", []float64{-5, 0, 0, 100}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Gini(tt.values), 1e-4)
		})
	}
}

func TestTopShare(t *testing.T) {
	share, ok := TopShare([]float64{175, 50}, 3)
	require.True(t, ok)
	assert.InDelta(t, 100, share, 1e-9)

	share, ok = TopShare([]float64{10, 40, 20, 30}, 3)
	require.True(t, ok)
	assert.InDelta(t, 90, share, 1e-9)

	_, ok = TopShare([]float64{0, 0}, 3)
	assert.False(t, ok)
}

func TestWinsorize(t *testing.T) {
	values := []float64{100, 1, 2, 3, 4, 5, 6, 7, 8, -50}
	out, err := Winsorize(values, 10, 90)
	require.NoError(t, err)
	require.Len(t, out, len(values))

	lo, _, _ := Percentile(values, 10)
	hi, _, _ := Percentile(values, 90)
	assert.InDelta(t, hi, out[0], 1e-9)
	assert.InDelta(t, lo, out[9], 1e-9)
	assert.InDelta(t, 4, out[4], 1e-9, "inner values untouched")
	assert.InDelta(t, 100, values[0], 1e-9, "input untouched")

	_, err = Winsorize(values, 90, 10)
	assert.True(t, contract.IsValidation(err))
	_, err = Winsorize(values, -1, 10)
	assert.True(t, contract.IsValidation(err))

	empty, err := Winsorize(nil, 5, 95)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHourHistogram(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		day.Add(9 * time.Hour),
		day.Add(9*time.Hour + 30*time.Minute),
		day.Add(14 * time.Hour),
		day.Add(14*time.Hour + 5*time.Minute),
		day.Add(23 * time.Hour),
	}
	hist, peak := HourHistogram(times, time.UTC)
	assert.Equal(t, 2, hist[9])
	assert.Equal(t, 2, hist[14])
	assert.Equal(t, 1, hist[23])
	require.NotNil(t, peak)
	assert.Equal(t, 9, *peak, "earliest hour wins ties")

	_, peak = HourHistogram(nil, nil)
	assert.Nil(t, peak)
}

func TestRankAuthors(t *testing.T) {
	ranked := RankAuthors(map[string]float64{"b": 50, "a": 175, "c": 50, "d": 10}, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, "a", ranked[0].Author)
	assert.Equal(t, "b", ranked[1].Author, "ties sorted by key")
	assert.Equal(t, "c", ranked[2].Author)

	assert.Len(t, RankAuthors(map[string]float64{"x": 1}, 0), 1)
	assert.Empty(t, RankAuthors(nil, 3))
}
