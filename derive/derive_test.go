package derive_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/derive"
	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/sampler"
)

var runDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func sampled(t *testing.T, n int, seed uint64) (*population.Population, *rand.Rand, *derive.Deriver) {
	t.Helper()
	cfg := config.Default()
	regions, err := cfg.RegionTable()
	require.NoError(t, err)
	s, err := sampler.New(cfg.Marginals, regions)
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(seed, seed))
	pop, err := s.Sample(n, rng)
	require.NoError(t, err)
	tables, err := derive.TablesFrom(&cfg)
	require.NoError(t, err)
	return pop, rng, derive.New(tables)
}

func TestApplyInvariants(t *testing.T) {
	pop, rng, d := sampled(t, 3000, 42)
	require.NoError(t, d.Apply(pop, rng, runDate))

	careerStart := map[population.Education]int{
		population.SansNiveau:  15,
		population.Fondamental: 16,
		population.Secondaire:  19,
		population.Superieur:   23,
	}
	for i, ind := range pop.Rows {
		assert.Equal(t, i+1, ind.ID)
		assert.Equal(t, population.AgeCategoryOf(ind.Age), ind.AgeCategory)
		assert.Equal(t, ind.Age >= 60, ind.Retired, "row %d age %d", i, ind.Age)
		assert.Equal(t, ind.Age*12, ind.AgeMonths)
		assert.Equal(t, ind.Milieu == population.Urbain, ind.IsUrban)
		assert.Equal(t, ind.MaritalStatus == population.Marie, ind.IsMarried)
		assert.Equal(t, "2024-03-01", ind.RegistrationDate)
		assert.GreaterOrEqual(t, ind.PostalCode, 10000)
		assert.Less(t, ind.PostalCode, 99999)

		full := max(0, ind.Age-careerStart[ind.Education])
		assert.GreaterOrEqual(t, ind.Experience, 0)
		assert.LessOrEqual(t, ind.Experience, full)
		assert.GreaterOrEqual(t, ind.Experience, full-4)
	}
}

func TestCreditAccessFollowsGroup(t *testing.T) {
	pop, rng, d := sampled(t, 40000, 7)
	require.NoError(t, d.Apply(pop, rng, runDate))

	var with, total [population.NumGroups]int
	for _, ind := range pop.Rows {
		total[ind.Group]++
		if ind.CreditAccess {
			with[ind.Group]++
		}
	}
	want := []float64{0.8, 0.8, 0.5, 0.5, 0.2, 0.2}
	for g := range want {
		require.Positive(t, total[g])
		assert.InDelta(t, want[g], float64(with[g])/float64(total[g]), 0.04, "group %d", g+1)
	}
}

func TestExperience(t *testing.T) {
	cfg := config.Default()
	tables, err := derive.TablesFrom(&cfg)
	require.NoError(t, err)
	d := derive.New(tables)
	rng := rand.New(rand.NewPCG(1, 2))

	// younger than the career start: always zero
	for i := 0; i < 50; i++ {
		exp, err := d.Experience(20, population.Superieur, rng)
		require.NoError(t, err)
		assert.Equal(t, 0, exp)
	}

	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		exp, err := d.Experience(40, population.Secondaire, rng)
		require.NoError(t, err)
		seen[exp] = true
	}
	assert.Equal(t, map[int]bool{17: true, 18: true, 19: true, 20: true, 21: true}, seen)
}

func TestApplyRejectsUnknownEducation(t *testing.T) {
	pop, rng, d := sampled(t, 10, 42)
	pop.Rows[4].Education = population.Education(9)

	err := d.Apply(pop, rng, runDate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownCategory))
	assert.Contains(t, err.Error(), "row 4")
}

func TestApplyEmpty(t *testing.T) {
	cfg := config.Default()
	tables, err := derive.TablesFrom(&cfg)
	require.NoError(t, err)
	err = derive.New(tables).Apply(population.New(0), rand.New(rand.NewPCG(1, 1)), runDate)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}
