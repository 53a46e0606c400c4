// Package metrics measures a generated population against its targets.
//
// It provides:
//   - Mean, PctBelowMean: the two statistics the income corrections target
//   - RelativeError: achieved versus target, as a fraction of the target
//   - Describe, Quantile: count, mean, standard deviation, extrema and quantiles
//   - Measure and Compare: the per-milieu statistics of a population and
//     their comparison with configured targets
//
// Example usage:
//
//	stats := metrics.Measure(pop)
//	for _, c := range metrics.Compare(stats, cfg.Targets) {
//		fmt.Printf("%-20s %10.1f %10.1f %6.2f%%\n", c.Name, c.Target, c.Achieved, 100*c.RelativeError)
//	}
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/popsynth/pkg/errors"
)

// Mean returns the arithmetic mean of x.
//
// Errors:
//   - ValueError: if x is empty
func Mean(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, errors.NewValueError("Mean", "empty vector")
	}
	return stat.Mean(x, nil), nil
}

// PctBelowMean returns the percentage of values strictly below the mean
// of x.
//
// Errors:
//   - ValueError: if x is empty
//
// Example:
//
//	pct, _ := metrics.PctBelowMean([]float64{1, 1, 1, 5}) // 75
func PctBelowMean(x []float64) (float64, error) {
	mean, err := Mean(x)
	if err != nil {
		return 0, errors.Wrap(err, "PctBelowMean")
	}
	below := 0
	for _, v := range x {
		if v < mean {
			below++
		}
	}
	return 100 * float64(below) / float64(len(x)), nil
}

// RelativeError returns |achieved - target| / |target|.
//
// Errors:
//   - ValueError: if target is zero
func RelativeError(achieved, target float64) (float64, error) {
	if target == 0 {
		return 0, errors.NewValueError("RelativeError", "target is zero")
	}
	return math.Abs(achieved-target) / math.Abs(target), nil
}

// Summary is a descriptive summary of a sample. Quartiles use the
// empirical quantile (the smallest sample at or above the fraction).
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Describe summarizes x. x is not modified. The standard deviation is the
// unbiased sample estimate and is 0 for a single value.
//
// Errors:
//   - ValueError: if x is empty
func Describe(x []float64) (Summary, error) {
	if len(x) == 0 {
		return Summary{}, errors.NewValueError("Describe", "empty vector")
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)

	s := Summary{
		Count:  len(x),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Q25:    stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q75:    stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(x) == 1 {
		s.Mean = x[0]
		return s, nil
	}
	s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	return s, nil
}

// Quantile returns the empirical p-quantile of x. x is not modified.
//
// Errors:
//   - ValueError: if x is empty or p is outside [0, 1]
func Quantile(x []float64, p float64) (float64, error) {
	if len(x) == 0 {
		return 0, errors.NewValueError("Quantile", "empty vector")
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, errors.NewValueError("Quantile", "p must be in [0, 1]")
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil), nil
}
