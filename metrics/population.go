package metrics

import (
	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/core/population"
)

// PopulationStats are the income statistics of a population. Statistics of
// an empty partition are reported as 0 with a size of 0.
type PopulationStats struct {
	Size            int     `json:"size"`
	UrbanSize       int     `json:"urban_size"`
	RuralSize       int     `json:"rural_size"`
	OverallMean     float64 `json:"overall_mean"`
	UrbanMean       float64 `json:"urban_mean"`
	RuralMean       float64 `json:"rural_mean"`
	PctBelowOverall float64 `json:"pct_below_overall"`
	PctBelowUrban   float64 `json:"pct_below_urban"`
	PctBelowRural   float64 `json:"pct_below_rural"`
}

// Measure computes the income statistics of pop. Each partition's share
// below the mean is measured against that partition's own mean.
func Measure(pop *population.Population) PopulationStats {
	urban := pop.Partition(population.Urbain)
	rural := pop.Partition(population.Rural)
	s := PopulationStats{
		Size:      pop.Len(),
		UrbanSize: len(urban),
		RuralSize: len(rural),
	}
	s.OverallMean, s.PctBelowOverall = meanAndPct(pop.Incomes(nil))
	s.UrbanMean, s.PctBelowUrban = meanAndPct(pop.Incomes(urban))
	s.RuralMean, s.PctBelowRural = meanAndPct(pop.Incomes(rural))
	return s
}

func meanAndPct(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	mean, _ := Mean(x)
	pct, _ := PctBelowMean(x)
	return mean, pct
}

// Comparison is one achieved statistic next to its target.
type Comparison struct {
	Name          string  `json:"name"`
	Target        float64 `json:"target"`
	Achieved      float64 `json:"achieved"`
	Gap           float64 `json:"gap"`
	RelativeError float64 `json:"relative_error"`
}

// Compare lines up s against t in a fixed order: the three means, then the
// three below-mean percentages. Targets of zero get a relative error of 0.
func Compare(s PopulationStats, t config.Targets) []Comparison {
	rows := []struct {
		name             string
		target, achieved float64
	}{
		{"overall_mean", t.OverallMean, s.OverallMean},
		{"urban_mean", t.UrbanMean, s.UrbanMean},
		{"rural_mean", t.RuralMean, s.RuralMean},
		{"pct_below_overall", t.PctBelowOverall, s.PctBelowOverall},
		{"pct_below_urban", t.PctBelowUrban, s.PctBelowUrban},
		{"pct_below_rural", t.PctBelowRural, s.PctBelowRural},
	}
	out := make([]Comparison, len(rows))
	for i, r := range rows {
		rel, err := RelativeError(r.achieved, r.target)
		if err != nil {
			rel = 0
		}
		out[i] = Comparison{
			Name:          r.name,
			Target:        r.target,
			Achieved:      r.achieved,
			Gap:           r.achieved - r.target,
			RelativeError: rel,
		}
	}
	return out
}
