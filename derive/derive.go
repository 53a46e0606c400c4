// Package derive computes the attributes that depend on sampled ones.
//
// For every row, in row order, Apply computes:
//
//	age                 -> categorie_age
//	age, education      -> annees_experience (career start minus inactivity)
//	age                 -> a_retraite
//	group               -> a_acces_credit (redrawn from the group's rate)
//	milieu, marital     -> est_urbain, est_marie
//	age, row, run date  -> age_en_mois, id_utilisateur, date_enregistrement
//	                    -> code_postal
//
// Lookups go through fixed tables; an education or group code outside the
// tables aborts the pass with ErrUnknownCategory instead of falling back to
// a default.
package derive

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/pkg/log"
	"github.com/ezoic/popsynth/sampler"
)

// Tables are the immutable parameters of the derivation pass.
type Tables struct {
	CareerStart   population.EducationTable[int]
	CreditAccess  population.GroupTable[float64]
	MaxInactivity int
	RetirementAge int
	PostalCodeMin int
	PostalCodeMax int
}

// TablesFrom builds Tables from a configuration.
func TablesFrom(cfg *config.Config) (Tables, error) {
	start, err := cfg.Derivation.CareerStartTable()
	if err != nil {
		return Tables{}, err
	}
	credit, err := cfg.Derivation.CreditAccessTable()
	if err != nil {
		return Tables{}, err
	}
	return Tables{
		CareerStart:   start,
		CreditAccess:  credit,
		MaxInactivity: cfg.Derivation.MaxInactivity,
		RetirementAge: cfg.Derivation.RetirementAge,
		PostalCodeMin: cfg.Marginals.PostalCodeMin,
		PostalCodeMax: cfg.Marginals.PostalCodeMax,
	}, nil
}

// Deriver applies the derivation pass.
type Deriver struct {
	tables Tables
	logger log.Logger
}

// New returns a Deriver using tables.
func New(tables Tables) *Deriver {
	return &Deriver{
		tables: tables,
		logger: log.GetLoggerWithName("derive").With(log.ComponentKey, "derive"),
	}
}

// Apply fills the derived fields of every row of pop in place. date is
// written to every row as the registration date.
//
// Errors:
//   - ErrEmptyData: if pop has no rows
//   - ErrUnknownCategory: if a row carries an education level or group
//     outside the lookup tables
func (d *Deriver) Apply(pop *population.Population, rng *rand.Rand, date time.Time) (err error) {
	defer errors.Recover(&err, "Deriver.Apply")

	if pop == nil || pop.Len() == 0 {
		return errors.NewModelError("Deriver.Apply", "empty population", errors.ErrEmptyData)
	}
	start := time.Now()
	registered := date.Format(config.DateLayout)

	for i := range pop.Rows {
		ind := &pop.Rows[i]

		ind.AgeCategory = population.AgeCategoryOf(ind.Age)

		exp, err := d.Experience(ind.Age, ind.Education, rng)
		if err != nil {
			return errors.NewModelError("Deriver.Apply", fmt.Sprintf("row %d", i), err)
		}
		ind.Experience = exp

		ind.Retired = ind.Age >= d.tables.RetirementAge

		p, err := d.tables.CreditAccess.Lookup(ind.Group)
		if err != nil {
			return errors.NewModelError("Deriver.Apply", fmt.Sprintf("row %d", i), err)
		}
		ind.CreditAccess = distuv.Bernoulli{P: p, Src: rng}.Rand() == 1

		ind.IsUrban = ind.Milieu == population.Urbain
		ind.IsMarried = ind.MaritalStatus == population.Marie

		ind.AgeMonths = ind.Age * 12
		ind.ID = i + 1
		ind.RegistrationDate = registered
		ind.PostalCode = sampler.Uniform(rng, d.tables.PostalCodeMin, d.tables.PostalCodeMax)
	}

	d.logger.Info("Derived attributes computed",
		log.StageKey, log.StageDerive,
		log.SamplesKey, pop.Len(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Experience returns the years of professional experience of someone aged
// age with the given education: years since the career start age, minus a
// random inactivity penalty drawn from U{0..MaxInactivity}, never negative.
func (d *Deriver) Experience(age int, edu population.Education, rng *rand.Rand) (int, error) {
	startAge, err := d.tables.CareerStart.Lookup(edu)
	if err != nil {
		return 0, err
	}
	years := max(0, age-startAge)
	penalty := rng.IntN(d.tables.MaxInactivity + 1)
	return max(0, years-penalty), nil
}
