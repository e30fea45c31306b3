package profile

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Quantile returns the q-th quantile (0..1) of values using linear
// interpolation of the empirical distribution. The input is not modified.
// An empty input yields NaN.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.LinInterp, sorted, nil)
}

// Median returns the 0.5 quantile of values.
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}
