package config

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/ezoic/popsynth/pkg/errors"
)

// WeightTolerance is the allowed deviation of a weight vector's sum from 1.
const WeightTolerance = 1e-6

// Validate checks the whole configuration and returns the first problem
// found. Every error matches errors.ErrInvalidConfig; unknown category keys
// also match errors.ErrUnknownCategory.
func (c *Config) Validate() error {
	if c.PopulationSize <= 0 {
		return errors.NewValidationError("population_size", "must be positive", c.PopulationSize)
	}

	rt, err := c.RegionTable()
	if err != nil {
		return err
	}
	if err := checkWeights("region_weights", rt[:]); err != nil {
		return err
	}

	if err := c.Marginals.validate(); err != nil {
		return err
	}
	if err := c.Derivation.validate(); err != nil {
		return err
	}
	if err := c.Income.validate(); err != nil {
		return err
	}
	if err := c.Shape.validate(); err != nil {
		return err
	}
	if err := c.Corruption.validate(); err != nil {
		return err
	}
	if err := c.Targets.validate(); err != nil {
		return err
	}

	if c.RegistrationDate != "" {
		if _, err := time.Parse(DateLayout, c.RegistrationDate); err != nil {
			return errors.NewValidationError("registration_date", "expected YYYY-MM-DD", c.RegistrationDate)
		}
	}
	if c.Output.Path == "" {
		return errors.NewValidationError("output.path", "must not be empty", c.Output.Path)
	}
	return nil
}

func (m *Marginals) validate() error {
	weights := []struct {
		param string
		get   func() ([]float64, error)
	}{
		{"marginals.sex", m.SexWeights},
		{"marginals.milieu", m.MilieuWeights},
		{"marginals.marital_status", m.MaritalStatusWeights},
		{"marginals.education", m.EducationWeights},
		{"marginals.group", m.GroupWeights},
	}
	for _, w := range weights {
		v, err := w.get()
		if err != nil {
			return err
		}
		if err := checkWeights(w.param, v); err != nil {
			return err
		}
	}

	probs := []struct {
		param string
		p     float64
	}{
		{"marginals.social_aid", m.SocialAid},
		{"marginals.credit_access", m.CreditAccess},
		{"marginals.owns_car", m.OwnsCar},
		{"marginals.owns_home", m.OwnsHome},
		{"marginals.owns_land", m.OwnsLand},
	}
	for _, p := range probs {
		if err := checkProbability(p.param, p.p); err != nil {
			return err
		}
	}

	if err := checkRange("marginals.age", m.AgeMin, m.AgeMax); err != nil {
		return err
	}
	if err := checkRange("marginals.household_size", m.HouseholdSizeMin, m.HouseholdSizeMax); err != nil {
		return err
	}
	return checkRange("marginals.postal_code", m.PostalCodeMin, m.PostalCodeMax)
}

func (d *Derivation) validate() error {
	start, err := d.CareerStartTable()
	if err != nil {
		return err
	}
	for _, a := range start {
		if a < 0 {
			return errors.NewValidationError("derivation.career_start_age", "must be non-negative", a)
		}
	}
	if d.MaxInactivity < 0 {
		return errors.NewValidationError("derivation.max_inactivity", "must be non-negative", d.MaxInactivity)
	}
	credit, err := d.CreditAccessTable()
	if err != nil {
		return err
	}
	for _, p := range credit {
		if err := checkProbability("derivation.credit_access_by_group", p); err != nil {
			return err
		}
	}
	return nil
}

func (i *Income) validate() error {
	if i.Base <= 0 || i.PerYearOfExperience < 0 {
		return errors.NewValidationError("income.base", "base must be positive and per-year increment non-negative", i.Base)
	}
	edu, err := i.EducationMultiplierTable()
	if err != nil {
		return err
	}
	grp, err := i.GroupMultiplierTable()
	if err != nil {
		return err
	}
	for _, v := range append(edu[:], grp[:]...) {
		if v <= 0 {
			return errors.NewValidationError("income.multipliers", "must be positive", v)
		}
	}
	if i.UrbanHigherEdBonus <= 0 {
		return errors.NewValidationError("income.urban_higher_education_bonus", "must be positive", i.UrbanHigherEdBonus)
	}
	if i.NoiseSigma < 0 {
		return errors.NewValidationError("income.noise_sigma", "must be non-negative", i.NoiseSigma)
	}
	if i.Floor < 1 {
		return errors.NewValidationError("income.floor", "must be at least 1", i.Floor)
	}
	return nil
}

func (s *Shape) validate() error {
	switch {
	case s.Tolerance < 0:
		return errors.NewValidationError("shape.tolerance", "must be non-negative", s.Tolerance)
	case s.MaxIterations < 0:
		return errors.NewValidationError("shape.max_iterations", "must be non-negative", s.MaxIterations)
	case s.LowerBand <= 0 || s.LowerBand > 1:
		return errors.NewValidationError("shape.lower_band", "must be in (0, 1]", s.LowerBand)
	case s.UpperBand < 1:
		return errors.NewValidationError("shape.upper_band", "must be at least 1", s.UpperBand)
	case s.ShrinkFactor <= 0 || s.ShrinkFactor >= 1:
		return errors.NewValidationError("shape.shrink_factor", "must be in (0, 1)", s.ShrinkFactor)
	case s.GrowFactor <= 1:
		return errors.NewValidationError("shape.grow_factor", "must be greater than 1", s.GrowFactor)
	}
	return nil
}

func (c *Corruption) validate() error {
	if err := checkProbability("corruption.outlier_rate", c.OutlierRate); err != nil {
		return err
	}
	if err := checkProbability("corruption.missing_rate", c.MissingRate); err != nil {
		return err
	}
	if err := checkRange("corruption.age_outlier", c.AgeOutlierMin, c.AgeOutlierMax); err != nil {
		return err
	}
	if err := checkRange("corruption.income_outlier", c.IncomeOutlierMin, c.IncomeOutlierMax); err != nil {
		return err
	}
	if c.IncomeOutlierMin < 1 {
		return errors.NewValidationError("corruption.income_outlier_min", "must be at least 1", c.IncomeOutlierMin)
	}
	_, err := c.Fields()
	return err
}

func (t *Targets) validate() error {
	means := []struct {
		param string
		v     float64
	}{
		{"targets.overall_mean", t.OverallMean},
		{"targets.urban_mean", t.UrbanMean},
		{"targets.rural_mean", t.RuralMean},
	}
	for _, m := range means {
		if m.v <= 0 || math.IsNaN(m.v) || math.IsInf(m.v, 0) {
			return errors.NewValidationError(m.param, "must be a positive finite number", m.v)
		}
	}
	pcts := []struct {
		param string
		v     float64
	}{
		{"targets.pct_below_overall", t.PctBelowOverall},
		{"targets.pct_below_urban", t.PctBelowUrban},
		{"targets.pct_below_rural", t.PctBelowRural},
	}
	for _, p := range pcts {
		if p.v < 0 || p.v > 100 || math.IsNaN(p.v) {
			return errors.NewValidationError(p.param, "must be within [0, 100]", p.v)
		}
	}
	return nil
}

func checkWeights(param string, w []float64) error {
	for _, v := range w {
		if v < 0 || math.IsNaN(v) {
			return errors.NewValidationError(param, "weights must be non-negative", v)
		}
	}
	if sum := floats.Sum(w); math.Abs(sum-1) > WeightTolerance {
		return errors.NewValidationError(param, "weights must sum to 1", sum)
	}
	return nil
}

func checkProbability(param string, p float64) error {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return errors.NewValidationError(param, "must be a probability in [0, 1]", p)
	}
	return nil
}

func checkRange(param string, lo, hi int) error {
	if lo < 0 || hi <= lo {
		return errors.NewValidationError(param, "range must be non-negative and non-empty", [2]int{lo, hi})
	}
	return nil
}
