package metrics_test

import (
	"fmt"
	"log/slog"

	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/metrics"
)

// ExamplePctBelowMean demonstrates the below-mean share of a skewed sample
func ExamplePctBelowMean() {
	incomes := []float64{10000, 12000, 14000, 15000, 49000}

	pct, err := metrics.PctBelowMean(incomes)
	if err != nil {
		slog.Error("Test failed", "error", err)
		return
	}

	fmt.Printf("Below mean: %.1f%%\n", pct)

	// Output: Below mean: 80.0%
}

// ExampleRelativeError demonstrates comparing an achieved mean with its target
func ExampleRelativeError() {
	rel, err := metrics.RelativeError(26850, 26988)
	if err != nil {
		slog.Error("Test failed", "error", err)
		return
	}

	fmt.Printf("Relative error: %.2f%%\n", 100*rel)

	// Output: Relative error: 0.51%
}

// ExampleDescribe demonstrates a descriptive summary
func ExampleDescribe() {
	s, err := metrics.Describe([]float64{4, 1, 3, 2})
	if err != nil {
		slog.Error("Test failed", "error", err)
		return
	}

	fmt.Printf("count=%d min=%.0f q25=%.0f median=%.0f q75=%.0f max=%.0f mean=%.1f\n",
		s.Count, s.Min, s.Q25, s.Median, s.Q75, s.Max, s.Mean)

	// Output: count=4 min=1 q25=1 median=2 q75=3 max=4 mean=2.5
}

// ExampleCompare demonstrates the achieved-versus-target table
func ExampleCompare() {
	pop := population.New(4)
	incomes := []int{30000, 20000, 12000, 14000}
	for i, v := range incomes {
		pop.Rows[i].Income = v
		if i >= 2 {
			pop.Rows[i].Milieu = population.Rural
		}
	}

	targets := config.Default().Targets
	for _, c := range metrics.Compare(metrics.Measure(pop), targets)[:3] {
		fmt.Printf("%s: achieved %.0f, target %.0f\n", c.Name, c.Achieved, c.Target)
	}

	// Output:
	// overall_mean: achieved 19000, target 21949
	// urban_mean: achieved 25000, target 26988
	// rural_mean: achieved 13000, target 12862
}
