package metrics

import (
	"math"
	"sort"

	"github.com/rxtech-lab/argo-analytics/internal/types"
	"github.com/shopspring/decimal"
)

// Sum adds the values in decimal arithmetic so long P&L sequences do not drift.
func Sum(values []float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}

	result, _ := total.Float64()

	return result
}

// Mean returns the arithmetic mean. The second result is false for an empty slice.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}

	result, _ := total.Div(decimal.NewFromInt(int64(len(values)))).Float64()

	return result, true
}

// Median returns the middle value, averaging the two middle values for even lengths.
func Median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}

	return (sorted[mid-1] + sorted[mid]) / 2, true
}

// Max returns the largest value.
func Max(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	result := values[0]
	for _, v := range values[1:] {
		if v > result {
			result = v
		}
	}

	return result, true
}

// Min returns the smallest value.
func Min(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	result := values[0]
	for _, v := range values[1:] {
		if v < result {
			result = v
		}
	}

	return result, true
}

func toFloats(values []int) []float64 {
	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = float64(v)
	}

	return result
}

// metric wraps a computed value, treating NaN as undefined.
func metric(v float64, ok bool) types.Metric {
	if !ok || math.IsNaN(v) {
		return types.NoMetric()
	}

	return types.SomeMetric(v)
}

// ratio divides num by den, undefined when den is zero.
func ratio(num, den float64) types.Metric {
	if den == 0 {
		return types.NoMetric()
	}

	return metric(num/den, true)
}
