// Package corruption degrades a finished population the way real survey
// data is degraded: a few implausible ages and incomes, and scattered
// missing answers.
//
// It must run after the final income rescale. The statistics measured on
// the table before corruption are the ones the corrections targeted;
// outliers are meant to survive into the shipped file.
package corruption

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/pkg/log"
	"github.com/ezoic/popsynth/sampler"
)

// Params controls the injection. Ranges are half-open.
type Params struct {
	OutlierRate      float64
	AgeOutlierMin    int
	AgeOutlierMax    int
	IncomeOutlierMin int
	IncomeOutlierMax int
	MissingRate      float64
	Fields           []population.Field
}

// ParamsFrom builds Params from a configuration.
func ParamsFrom(cfg *config.Config) (Params, error) {
	fields, err := cfg.Corruption.Fields()
	if err != nil {
		return Params{}, err
	}
	c := cfg.Corruption
	return Params{
		OutlierRate:      c.OutlierRate,
		AgeOutlierMin:    c.AgeOutlierMin,
		AgeOutlierMax:    c.AgeOutlierMax,
		IncomeOutlierMin: c.IncomeOutlierMin,
		IncomeOutlierMax: c.IncomeOutlierMax,
		MissingRate:      c.MissingRate,
		Fields:           fields,
	}, nil
}

// Report lists what was changed.
type Report struct {
	// Row indices, in selection order. The two sets may overlap.
	AgeOutliers    []int `json:"-"`
	IncomeOutliers []int `json:"-"`

	AgeOutlierCount    int            `json:"age_outliers"`
	IncomeOutlierCount int            `json:"income_outliers"`
	Missing            map[string]int `json:"missing"`
}

// Injector applies outliers and missing-value masks.
type Injector struct {
	params Params
	logger log.Logger
}

// New returns an Injector.
func New(p Params) *Injector {
	return &Injector{
		params: p,
		logger: log.GetLoggerWithName("corruption").With(log.ComponentKey, "corruption"),
	}
}

// Apply corrupts pop in place:
//
//   - round(N*OutlierRate) distinct rows get an age drawn from the age
//     outlier range; retirement and age category are left as derived
//   - an independent round(N*OutlierRate) distinct rows get an income drawn
//     from the income outlier range
//   - for each configured field, every row is masked with probability
//     MissingRate, independently
//
// Masked fields keep their value in memory.
func (inj *Injector) Apply(pop *population.Population, rng *rand.Rand) (rep *Report, err error) {
	defer errors.Recover(&err, "Injector.Apply")

	if pop == nil || pop.Len() == 0 {
		return nil, errors.NewModelError("Injector.Apply", "empty population", errors.ErrEmptyData)
	}
	start := time.Now()
	p := inj.params
	n := pop.Len()
	count := OutlierCount(n, p.OutlierRate)

	rep = &Report{Missing: make(map[string]int, len(p.Fields))}

	rep.AgeOutliers = pick(count, n, rng)
	for _, i := range rep.AgeOutliers {
		pop.Rows[i].Age = sampler.Uniform(rng, p.AgeOutlierMin, p.AgeOutlierMax)
	}
	rep.IncomeOutliers = pick(count, n, rng)
	for _, i := range rep.IncomeOutliers {
		pop.Rows[i].Income = sampler.Uniform(rng, p.IncomeOutlierMin, p.IncomeOutlierMax)
	}
	rep.AgeOutlierCount = len(rep.AgeOutliers)
	rep.IncomeOutlierCount = len(rep.IncomeOutliers)

	mask := distuv.Bernoulli{P: p.MissingRate, Src: rng}
	for _, f := range p.Fields {
		masked := 0
		for i := range pop.Rows {
			if mask.Rand() == 1 {
				pop.Rows[i].Missing = pop.Rows[i].Missing.With(f)
				masked++
			}
		}
		rep.Missing[f.Column()] = masked
	}

	inj.logger.Info("Corruption injected",
		log.StageKey, log.StageCorrupt,
		log.SamplesKey, n,
		"age_outliers", rep.AgeOutlierCount,
		"income_outliers", rep.IncomeOutlierCount,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return rep, nil
}

// OutlierCount returns round(n*rate).
func OutlierCount(n int, rate float64) int {
	return int(math.Round(float64(n) * rate))
}

func pick(count, n int, rng *rand.Rand) []int {
	if count <= 0 {
		return nil
	}
	idx := make([]int, min(count, n))
	sampleuv.WithoutReplacement(idx, n, rng)
	return idx
}
