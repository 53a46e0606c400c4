// Package preprocessing turns a population into the feature matrix expected
// by the income prediction service.
//
// The service receives 32 features in a fixed order: raw numeric columns,
// four engineered ratios, three ordinal encodings and one-hot blocks for
// sex, milieu, marital status and region, each dropping its first category
// in sorted order. Features builds exactly that layout, plus the target
// income, so a model trained on the export can be served unchanged.
//
// Masked (missing) values become NaN and propagate into the ratios that use
// them.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/pkg/errors"
)

// StabilityIndex is the value of indice_stabilite. The prediction service
// sends this constant for every request.
const StabilityIndex = 0.5

// TargetName is the name of the target column.
const TargetName = population.ColIncome

var numericNames = []string{
	population.ColAge, population.ColHouseholdSize, population.ColSocialAid,
	population.ColCreditAccess, population.ColRetired, population.ColOwnsCar,
	population.ColOwnsHome, population.ColOwnsLand, population.ColExperience,
	"ratio_possessions", "indice_stabilite", "ratio_experience_age", "revenu_par_personne",
}

var ordinalNames = []string{
	population.ColEducation + "_encoded",
	population.ColGroup + "_encoded",
	population.ColAgeCategory + "_encoded",
}

var oneHotInputs = []string{population.ColSex, population.ColMilieu, population.ColMaritalStatus, population.ColRegion}

// FeatureSet is an encoded population.
type FeatureSet struct {
	Names  []string
	X      *mat.Dense
	Target []float64
}

// Features encodes pop.
//
// Errors:
//   - ErrEmptyData: if pop has no rows
func Features(pop *population.Population) (_ *FeatureSet, err error) {
	defer errors.Recover(&err, "Features")
	if pop == nil || pop.Len() == 0 {
		return nil, errors.NewModelError("Features", "empty population", errors.ErrEmptyData)
	}
	n := pop.Len()

	numeric := mat.NewDense(n, len(numericNames), nil)
	ordinalIn := make([][]string, n)
	oneHotIn := make([][]string, n)
	target := make([]float64, n)

	for i := range pop.Rows {
		ind := &pop.Rows[i]
		numeric.SetRow(i, numericRow(ind))

		edu := ind.Education.String()
		if ind.IsMissing(population.FieldEducation) {
			edu = ""
		}
		ordinalIn[i] = []string{edu, ind.Group.String(), ind.AgeCategory.String()}
		oneHotIn[i] = []string{ind.Sex.String(), ind.Milieu.String(), ind.MaritalStatus.String(), ind.Region.String()}
		target[i] = float64(ind.Income)
	}

	ordinal, err := NewOrdinalEncoder(
		names(population.NumEducations, func(i int) string { return population.Education(i).String() }),
		names(population.NumGroups, func(i int) string { return population.SocioGroup(i).String() }),
		names(population.NumAgeCategories, func(i int) string { return population.AgeCategory(i).String() }),
	).Transform(ordinalIn)
	if err != nil {
		return nil, err
	}

	enc := NewOneHotEncoder(WithDropFirst(), WithCategories([][]string{
		names(population.NumSexes, func(i int) string { return population.Sex(i).String() }),
		names(population.NumMilieux, func(i int) string { return population.Milieu(i).String() }),
		names(population.NumMaritalStatuses, func(i int) string { return population.MaritalStatus(i).String() }),
		names(population.NumRegions, func(i int) string { return population.Region(i).String() }),
	}))
	oneHot, err := enc.FitTransform(oneHotIn)
	if err != nil {
		return nil, err
	}

	fs := &FeatureSet{Target: target}
	fs.Names = append(fs.Names, numericNames...)
	fs.Names = append(fs.Names, ordinalNames...)
	fs.Names = append(fs.Names, enc.GetFeatureNamesOut(oneHotInputs)...)

	fs.X = mat.NewDense(n, len(fs.Names), nil)
	c := 0
	for _, block := range []*mat.Dense{numeric, ordinal, oneHot} {
		_, w := block.Dims()
		fs.X.Slice(0, n, c, c+w).(*mat.Dense).Copy(block)
		c += w
	}
	return fs, nil
}

func numericRow(ind *population.Individual) []float64 {
	masked := func(f population.Field, v float64) float64 {
		if ind.IsMissing(f) {
			return math.NaN()
		}
		return v
	}
	age := float64(ind.Age)
	household := masked(population.FieldHouseholdSize, float64(ind.HouseholdSize))
	car := masked(population.FieldOwnsCar, b2f(ind.OwnsCar))
	home := masked(population.FieldOwnsHome, b2f(ind.OwnsHome))
	land := b2f(ind.OwnsLand)
	exp := masked(population.FieldExperience, float64(ind.Experience))

	ratioExp := 0.0
	if age > 0 {
		ratioExp = exp / age
	}
	return []float64{
		age, household, b2f(ind.SocialAid), b2f(ind.CreditAccess), b2f(ind.Retired),
		car, home, land, exp,
		(car + home + land) / 3,
		StabilityIndex,
		ratioExp,
		float64(ind.Income) / household,
	}
}

func names(n int, name func(int) string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = name(i)
	}
	return out
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
