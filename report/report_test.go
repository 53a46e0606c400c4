package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/metrics"
	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/report"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func incomePopulation(n int) *population.Population {
	pop := population.New(n)
	for i := range pop.Rows {
		pop.Rows[i].Income = 5000 + 137*i
		if i%3 == 0 {
			pop.Rows[i].Milieu = population.Rural
		}
	}
	// one outlier far above the rest
	pop.Rows[n-1].Income = 900000
	return pop
}

func TestSaveAll(t *testing.T) {
	pop := incomePopulation(300)
	cmps := metrics.Compare(metrics.Measure(pop), config.Default().Targets)
	dir := filepath.Join(t.TempDir(), "plots")

	paths, err := report.SaveAll(dir, pop, cmps)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, report.HistogramFile),
		filepath.Join(dir, report.MeansFile),
		filepath.Join(dir, report.PctBelowFile),
	}, paths)

	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", p)
	}
}

func TestIncomeHistogramSinglePartition(t *testing.T) {
	pop := population.New(10)
	for i := range pop.Rows {
		pop.Rows[i].Income = 1000 * (i + 1)
	}
	p, err := report.IncomeHistogram(pop, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestIncomeHistogramEmpty(t *testing.T) {
	_, err := report.IncomeHistogram(population.New(0), 10, 0)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestComparisonChartEmpty(t *testing.T) {
	_, err := report.ComparisonChart("empty", nil)
	assert.Error(t, err)
}

func TestSavePNGMissingDirectory(t *testing.T) {
	p, err := report.ComparisonChart("x", []metrics.Comparison{{Name: "a", Target: 1, Achieved: 2}})
	require.NoError(t, err)
	err = report.SavePNG(p, filepath.Join(t.TempDir(), "missing", "x.png"))
	assert.True(t, errors.Is(err, errors.ErrPersistence))
}
