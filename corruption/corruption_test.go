package corruption_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/corruption"
	"github.com/ezoic/popsynth/pkg/errors"
)

func basePopulation(n int) *population.Population {
	pop := population.New(n)
	for i := range pop.Rows {
		pop.Rows[i].Age = 30
		pop.Rows[i].Retired = false
		pop.Rows[i].Income = 20000
		pop.Rows[i].Education = population.Secondaire
	}
	return pop
}

func newInjector(t *testing.T) *corruption.Injector {
	t.Helper()
	cfg := config.Default()
	p, err := corruption.ParamsFrom(&cfg)
	require.NoError(t, err)
	return corruption.New(p)
}

func TestOutlierCount(t *testing.T) {
	assert.Equal(t, 400, corruption.OutlierCount(40000, 0.01))
	assert.Equal(t, 1, corruption.OutlierCount(100, 0.01))
	assert.Equal(t, 1, corruption.OutlierCount(149, 0.01))
	assert.Equal(t, 0, corruption.OutlierCount(40, 0.01))
}

func TestApplyOutliers(t *testing.T) {
	pop := basePopulation(10000)
	rep, err := newInjector(t).Apply(pop, rand.New(rand.NewPCG(42, 42)))
	require.NoError(t, err)

	require.Len(t, rep.AgeOutliers, 100)
	require.Len(t, rep.IncomeOutliers, 100)
	assert.Equal(t, 100, rep.AgeOutlierCount)

	distinct := map[int]bool{}
	for _, i := range rep.AgeOutliers {
		distinct[i] = true
		ind := pop.Rows[i]
		assert.GreaterOrEqual(t, ind.Age, 100)
		assert.Less(t, ind.Age, 120)
		// retirement is not recomputed for corrupted ages
		assert.False(t, ind.Retired)
	}
	assert.Len(t, distinct, 100)

	for _, i := range rep.IncomeOutliers {
		assert.GreaterOrEqual(t, pop.Rows[i].Income, 300000)
		assert.Less(t, pop.Rows[i].Income, 1000000)
	}

	ages, incomes := 0, 0
	for _, ind := range pop.Rows {
		if ind.Age >= 100 {
			ages++
		}
		if ind.Income >= 300000 {
			incomes++
		}
	}
	assert.Equal(t, 100, ages)
	assert.Equal(t, 100, incomes)
}

func TestApplyMissingRate(t *testing.T) {
	n := 40000
	pop := basePopulation(n)
	rep, err := newInjector(t).Apply(pop, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)

	require.Len(t, rep.Missing, 5)
	for _, f := range population.MissableFields() {
		masked := 0
		for _, ind := range pop.Rows {
			if ind.IsMissing(f) {
				masked++
			}
		}
		assert.Equal(t, rep.Missing[f.Column()], masked)
		assert.InDelta(t, 0.05, float64(masked)/float64(n), 0.02, "field %s", f)
	}
	// masked values stay in memory
	for _, ind := range pop.Rows {
		assert.Equal(t, population.Secondaire, ind.Education)
	}
}

func TestApplyConfiguredFieldsOnly(t *testing.T) {
	cfg := config.Default()
	cfg.Corruption.MissingFields = []string{"taille_foyer"}
	cfg.Corruption.MissingRate = 1
	cfg.Corruption.OutlierRate = 0
	p, err := corruption.ParamsFrom(&cfg)
	require.NoError(t, err)

	pop := basePopulation(50)
	rep, err := corruption.New(p).Apply(pop, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"taille_foyer": 50}, rep.Missing)
	assert.Empty(t, rep.AgeOutliers)
	for _, ind := range pop.Rows {
		assert.True(t, ind.IsMissing(population.FieldHouseholdSize))
		assert.False(t, ind.IsMissing(population.FieldEducation))
	}
}

func TestApplyEmpty(t *testing.T) {
	_, err := newInjector(t).Apply(population.New(0), rand.New(rand.NewPCG(1, 1)))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}
