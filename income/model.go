// Package income generates annual incomes and corrects them toward
// population targets.
//
// Incomes go through four steps, each applied to the whole table in place:
//
//  1. Model.Apply draws a base income per row from experience, education,
//     socio-professional group and milieu with multiplicative noise.
//  2. Corrector.MeanRescale (stage A) scales each milieu partition so its
//     mean matches the target mean.
//  3. Corrector.ShapeCorrect (stage B) nudges incomes near the partition mean
//     across it until the share of the partition below the mean is close to
//     the target share. It is a bounded greedy heuristic: it may stop short
//     of the target, in which case a ConvergenceWarning is emitted.
//  4. Corrector.FinalRescale (stage C) repeats stage A to undo the mean drift
//     introduced by stage B.
//
// Every multiplicative step truncates toward zero and never lets an income
// fall below 1.
//
// Example:
//
//	model, _ := income.ModelFrom(&cfg)
//	_ = model.Apply(pop, rng)
//	c := income.NewCorrector(income.TargetsFrom(cfg.Targets), cfg.Shape)
//	c.MeanRescale(pop)
//	c.ShapeCorrect(pop, rng)
//	c.FinalRescale(pop)
package income

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/pkg/log"
)

// Model is the base income model.
type Model struct {
	Base                float64
	PerYearOfExperience float64
	Education           population.EducationTable[float64]
	Group               population.GroupTable[float64]
	UrbanHigherEdBonus  float64
	NoiseSigma          float64
	Floor               int
}

// ModelFrom builds the income model from a configuration.
func ModelFrom(cfg *config.Config) (Model, error) {
	edu, err := cfg.Income.EducationMultiplierTable()
	if err != nil {
		return Model{}, err
	}
	grp, err := cfg.Income.GroupMultiplierTable()
	if err != nil {
		return Model{}, err
	}
	return Model{
		Base:                cfg.Income.Base,
		PerYearOfExperience: cfg.Income.PerYearOfExperience,
		Education:           edu,
		Group:               grp,
		UrbanHigherEdBonus:  cfg.Income.UrbanHigherEdBonus,
		NoiseSigma:          cfg.Income.NoiseSigma,
		Floor:               cfg.Income.Floor,
	}, nil
}

// Income returns the income of ind for a given noise multiplier:
//
//	(base + perYear*experience) * edu[e] * group[g] * bonus * noise
//
// where bonus applies to urban individuals with higher education. The
// result is rounded to the nearest integer and floored at m.Floor.
func (m Model) Income(ind *population.Individual, noise float64) (int, error) {
	eduMul, err := m.Education.Lookup(ind.Education)
	if err != nil {
		return 0, err
	}
	grpMul, err := m.Group.Lookup(ind.Group)
	if err != nil {
		return 0, err
	}
	bonus := 1.0
	if ind.Milieu == population.Urbain && ind.Education == population.Superieur {
		bonus = m.UrbanHigherEdBonus
	}
	v := (m.Base + m.PerYearOfExperience*float64(ind.Experience)) * eduMul * grpMul * bonus * noise
	return max(m.Floor, int(math.Round(v))), nil
}

// Apply draws the base income of every row in row order.
//
// Errors:
//   - ErrEmptyData: if pop has no rows
//   - ErrUnknownCategory: if a row's education or group is outside the tables
func (m Model) Apply(pop *population.Population, rng *rand.Rand) (err error) {
	defer errors.Recover(&err, "Model.Apply")

	if pop == nil || pop.Len() == 0 {
		return errors.NewModelError("Model.Apply", "empty population", errors.ErrEmptyData)
	}
	start := time.Now()
	noise := distuv.Normal{Mu: 1, Sigma: m.NoiseSigma, Src: rng}
	for i := range pop.Rows {
		v, err := m.Income(&pop.Rows[i], noise.Rand())
		if err != nil {
			return errors.NewModelError("Model.Apply", fmt.Sprintf("row %d", i), err)
		}
		pop.Rows[i].Income = v
	}

	log.GetLoggerWithName("income").Info("Base incomes generated",
		log.ComponentKey, "income",
		log.StageKey, log.StageBaseIncome,
		log.SamplesKey, pop.Len(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}
