// Package algo has the statistical estimators behind every metric family.
// All functions copy their input; callers' slices are never reordered.
package algo

import (
	"math"
	"slices"
	"time"

	"github.com/huangsam/devflow/internal/contract"
)

// finiteSorted returns the finite values of values in ascending order.
func finiteSorted(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

func checkPercentile(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return contract.NewValidationError("percentile", "must be within [0, 100], got %v", p)
	}
	return nil
}

// percentileSorted interpolates linearly between the two closest ranks of s.
func percentileSorted(s []float64, p float64) (float64, bool) {
	n := len(s)
	switch n {
	case 0:
		return 0, false
	case 1:
		return s[0], true
	}
	idx := p / 100 * float64(n-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return s[lo], true
	}
	v := s[lo] + (idx-float64(lo))*(s[hi]-s[lo])
	return math.Min(math.Max(v, s[lo]), s[hi]), true
}

// Percentile returns the p-th percentile of values with linear interpolation.
// The boolean is false when values holds no finite number.
func Percentile(values []float64, p float64) (float64, bool, error) {
	if err := checkPercentile(p); err != nil {
		return 0, false, err
	}
	v, ok := percentileSorted(finiteSorted(values), p)
	return v, ok, nil
}

// Percentiles returns one optional value per requested percentile, sorting values once.
func Percentiles(values []float64, ps ...float64) ([]*float64, error) {
	for _, p := range ps {
		if err := checkPercentile(p); err != nil {
			return nil, err
		}
	}
	s := finiteSorted(values)
	out := make([]*float64, len(ps))
	for i, p := range ps {
		if v, ok := percentileSorted(s, p); ok {
			out[i] = &v
		}
	}
	return out, nil
}

// Median returns the middle value of values. Even counts average the two middle values.
func Median(values []float64) (float64, bool) {
	s := finiteSorted(values)
	n := len(s)
	if n == 0 {
		return 0, false
	}
	if n%2 == 1 {
		return s[n/2], true
	}
	return (s[n/2-1] + s[n/2]) / 2, true
}

// MedianOf is Median returning nil for an empty sample.
func MedianOf(values []float64) *float64 {
	v, ok := Median(values)
	if !ok {
		return nil
	}
	return &v
}

// Mean returns the arithmetic mean of the finite values.
func Mean(values []float64) (float64, bool) {
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// MeanOf is Mean returning nil for an empty sample.
func MeanOf(values []float64) *float64 {
	v, ok := Mean(values)
	if !ok {
		return nil
	}
	return &v
}

// Ratio returns num/den, or nil when den is zero.
func Ratio(num, den int) *float64 {
	if den <= 0 {
		return nil
	}
	v := float64(num) / float64(den)
	return &v
}

// Gini returns the Gini coefficient of non-negative volumes, in [0, 1].
// Negative or non-finite volumes count as zero. The result is 0 when
// there is at most one volume or the total is zero.
func Gini(volumes []float64) float64 {
	n := len(volumes)
	if n <= 1 {
		return 0
	}
	s := make([]float64, n)
	var peak float64
	for i, v := range volumes {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			v = 0
		}
		s[i] = v
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		return 0
	}
	// the coefficient is scale invariant; normalising keeps the sums finite
	var total float64
	for i := range s {
		s[i] /= peak
		total += s[i]
	}
	slices.Sort(s)

	var weighted float64
	for i, v := range s {
		weighted += float64(2*(i+1)-n-1) * v
	}
	g := math.Abs(weighted) / (float64(n) * total)
	return math.Min(math.Max(g, 0), 1)
}

// TopShare returns the percentage of the total held by the k largest volumes.
// The boolean is false when the total is zero.
func TopShare(volumes []float64, k int) (float64, bool) {
	s := finiteSorted(volumes)
	var total float64
	for _, v := range s {
		total += math.Max(v, 0)
	}
	if total == 0 || k <= 0 {
		return 0, false
	}
	var top float64
	for i := len(s) - 1; i >= 0 && len(s)-i <= k; i-- {
		top += math.Max(s[i], 0)
	}
	return top / total * 100, true
}

// Winsorize clamps every value to the [lowerP, upperP] percentile bounds of the sample.
// The output has the same length and order as values.
func Winsorize(values []float64, lowerP, upperP float64) ([]float64, error) {
	if err := checkPercentile(lowerP); err != nil {
		return nil, err
	}
	if err := checkPercentile(upperP); err != nil {
		return nil, err
	}
	if lowerP > upperP {
		return nil, contract.NewValidationError("percentile", "lower bound %v exceeds upper bound %v", lowerP, upperP)
	}
	out := slices.Clone(values)
	s := finiteSorted(values)
	lo, ok := percentileSorted(s, lowerP)
	if !ok {
		return out, nil
	}
	hi, _ := percentileSorted(s, upperP)
	for i, v := range out {
		if math.IsNaN(v) {
			continue
		}
		out[i] = math.Min(math.Max(v, lo), hi)
	}
	return out, nil
}

// HourHistogram counts timestamps per hour of day in loc.
// The peak is the busiest hour, the earliest one on ties, and nil without samples.
func HourHistogram(times []time.Time, loc *time.Location) ([24]int, *int) {
	var hist [24]int
	if loc == nil {
		loc = time.UTC
	}
	for _, t := range times {
		hist[t.In(loc).Hour()]++
	}
	peak := -1
	for h, c := range hist {
		if c > 0 && (peak < 0 || c > hist[peak]) {
			peak = h
		}
	}
	if peak < 0 {
		return hist, nil
	}
	return hist, &peak
}
