// Package sampler draws the base attributes of every individual from
// independent marginal distributions.
//
// Rows are filled one at a time and, within a row, fields are drawn in
// output column order. Both orders are part of the determinism contract:
// the same seed and marginals always yield the same table.
//
// Example:
//
//	cfg := config.Default()
//	regions, _ := cfg.RegionTable()
//	s, err := sampler.New(cfg.Marginals, regions)
//	rng := rand.New(rand.NewPCG(42, 42))
//	pop, err := s.Sample(1000, rng)
package sampler

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/pkg/log"
)

// Sampler holds resolved marginal weights. It keeps no random state; the
// source is supplied on every call.
type Sampler struct {
	marginals config.Marginals

	sex       []float64
	milieu    []float64
	marital   []float64
	region    []float64
	education []float64
	group     []float64

	logger log.Logger
}

// New resolves the name-keyed marginals of cfg into category weights.
// Unknown category names are rejected.
func New(cfg config.Marginals, regionWeights population.RegionTable[float64]) (*Sampler, error) {
	s := &Sampler{
		marginals: cfg,
		region:    regionWeights.Slice(),
	}
	var err error
	if s.sex, err = cfg.SexWeights(); err != nil {
		return nil, err
	}
	if s.milieu, err = cfg.MilieuWeights(); err != nil {
		return nil, err
	}
	if s.marital, err = cfg.MaritalStatusWeights(); err != nil {
		return nil, err
	}
	if s.education, err = cfg.EducationWeights(); err != nil {
		return nil, err
	}
	if s.group, err = cfg.GroupWeights(); err != nil {
		return nil, err
	}

	s.logger = log.GetLoggerWithName("sampler").With(log.ComponentKey, "sampler")
	return s, nil
}

// Sample draws n individuals using rng.
//
// Errors:
//   - ErrInvalidConfig: if n is not positive
func (s *Sampler) Sample(n int, rng *rand.Rand) (pop *population.Population, err error) {
	defer errors.Recover(&err, "Sampler.Sample")

	if n <= 0 {
		return nil, errors.NewValidationError("population_size", "must be positive", n)
	}
	start := time.Now()

	sex := distuv.NewCategorical(s.sex, rng)
	milieu := distuv.NewCategorical(s.milieu, rng)
	marital := distuv.NewCategorical(s.marital, rng)
	region := distuv.NewCategorical(s.region, rng)
	education := distuv.NewCategorical(s.education, rng)
	group := distuv.NewCategorical(s.group, rng)

	m := s.marginals
	socialAid := distuv.Bernoulli{P: m.SocialAid, Src: rng}
	credit := distuv.Bernoulli{P: m.CreditAccess, Src: rng}
	car := distuv.Bernoulli{P: m.OwnsCar, Src: rng}
	home := distuv.Bernoulli{P: m.OwnsHome, Src: rng}
	land := distuv.Bernoulli{P: m.OwnsLand, Src: rng}

	pop = population.New(n)
	for i := range pop.Rows {
		ind := &pop.Rows[i]
		ind.Age = Uniform(rng, m.AgeMin, m.AgeMax)
		ind.Sex = population.Sex(sex.Rand())
		ind.Milieu = population.Milieu(milieu.Rand())
		ind.MaritalStatus = population.MaritalStatus(marital.Rand())
		ind.Region = population.Region(region.Rand())
		ind.Education = population.Education(education.Rand())
		ind.Group = population.SocioGroup(group.Rand())
		ind.HouseholdSize = Uniform(rng, m.HouseholdSizeMin, m.HouseholdSizeMax)
		ind.SocialAid = socialAid.Rand() == 1
		ind.CreditAccess = credit.Rand() == 1
		ind.OwnsCar = car.Rand() == 1
		ind.OwnsHome = home.Rand() == 1
		ind.OwnsLand = land.Rand() == 1
	}

	s.logger.Info("Base attributes sampled",
		log.StageKey, log.StageSample,
		log.SamplesKey, n,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return pop, nil
}

// Uniform returns an integer drawn uniformly from [lo, hi).
func Uniform(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo)
}
