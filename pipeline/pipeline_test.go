package pipeline_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/core/stage"
	"github.com/ezoic/popsynth/export"
	"github.com/ezoic/popsynth/pipeline"
	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/pkg/log"
	"github.com/ezoic/popsynth/preprocessing"
)

func testConfig(t *testing.T, n int) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.PopulationSize = n
	cfg.RegistrationDate = "2024-05-01"
	cfg.Output.Path = filepath.Join(t.TempDir(), "dataset.csv")
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t, 100)
	dir := filepath.Dir(cfg.Output.Path)
	cfg.Output.FeaturesPath = filepath.Join(dir, "features.csv")
	cfg.Output.PlotDir = filepath.Join(dir, "plots")
	for _, r := range population.Regions() {
		cfg.RegionWeights[r.String()] = 1.0 / population.NumRegions
	}

	g, err := pipeline.New(cfg)
	require.NoError(t, err)
	res, err := g.Run(context.Background())
	require.NoError(t, err)

	// dataset
	f, err := os.Open(cfg.Output.Path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 101)
	assert.Equal(t, population.Columns(), records[0])
	id := len(records[0]) - 3
	assert.Equal(t, "1", records[1][id])
	assert.Equal(t, "100", records[100][id])
	assert.Equal(t, "2024-05-01", records[1][len(records[0])-2])

	// manifest
	m, err := export.LoadManifest(cfg.Output.Path + ".manifest.json")
	require.NoError(t, err)
	assert.Equal(t, res.RunID, m.RunID)
	assert.Equal(t, 100, m.Rows)
	assert.Equal(t, uint64(42), m.Seed)
	assert.Len(t, m.Adjusted.Comparisons, 6)
	assert.Equal(t, 1, m.Corruption.AgeOutlierCount)

	// features
	ff, err := os.Open(cfg.Output.FeaturesPath)
	require.NoError(t, err)
	defer ff.Close()
	features, err := csv.NewReader(ff).ReadAll()
	require.NoError(t, err)
	require.Len(t, features, 101)
	assert.Len(t, features[0], 33)
	assert.Equal(t, preprocessing.TargetName, features[0][32])

	milieux := make(map[population.Milieu]int)
	for _, ind := range res.Population.Rows {
		milieux[ind.Milieu]++
		assert.Positive(t, ind.Income)
	}
	assert.Positive(t, milieux[population.Urbain])
	assert.Positive(t, milieux[population.Rural])

	assert.Len(t, res.Outputs.Charts, 3)
	for _, p := range res.Outputs.Charts {
		assert.FileExists(t, p)
	}

	stages := res.Stages()
	require.Len(t, stages, 8)
	assert.Equal(t, stage.Sampled, stages[0].Stage)
	assert.Equal(t, stage.Persisted, stages[7].Stage)
}

func TestDeterminism(t *testing.T) {
	read := func(path string) []byte {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return data
	}
	run := func() (string, string) {
		cfg := testConfig(t, 2000)
		g, err := pipeline.New(cfg)
		require.NoError(t, err)
		res, err := g.Run(context.Background())
		require.NoError(t, err)
		return cfg.Output.Path, res.RunID
	}

	a, idA := run()
	b, idB := run()
	assert.Equal(t, read(a), read(b))
	assert.Equal(t, idA, idB)

	cfg := testConfig(t, 2000)
	cfg.RandomSeed = 7
	g, err := pipeline.New(cfg)
	require.NoError(t, err)
	_, err = g.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, read(a), read(cfg.Output.Path))
}

func TestGenerateReferenceSize(t *testing.T) {
	if testing.Short() {
		t.Skip("full-size generation")
	}
	cfg := testConfig(t, 40000)
	g, err := pipeline.New(cfg)
	require.NoError(t, err)
	res, err := g.Generate(context.Background())
	require.NoError(t, err)

	s := res.Adjusted.Stats
	assert.InEpsilon(t, cfg.Targets.UrbanMean, s.UrbanMean, 0.01)
	assert.InEpsilon(t, cfg.Targets.RuralMean, s.RuralMean, 0.01)
	assert.Equal(t, 40000, s.Size)

	// 最終補正後の平均未満の割合
	// urban は目標の±2pt、rural は 85.4% に届かず 75% 付近で止まる
	var ruralBefore float64
	for _, rep := range res.Corrections {
		if rep.Stage == log.StageShapeCorrect && rep.Milieu == population.Rural {
			ruralBefore = rep.PctBefore
		}
	}
	require.Positive(t, ruralBefore)
	assert.InDelta(t, cfg.Targets.PctBelowUrban, s.PctBelowUrban, 2)
	assert.Greater(t, s.PctBelowRural, ruralBefore)
	assert.Less(t, s.PctBelowRural, cfg.Targets.PctBelowRural)
	assert.InDelta(t, 75.4, s.PctBelowRural, 2)

	outliers := make(map[int]bool)
	for _, i := range res.Corruption.AgeOutliers {
		outliers[i] = true
	}
	assert.Len(t, res.Corruption.AgeOutliers, 400)
	assert.Len(t, res.Corruption.IncomeOutliers, 400)

	for i := range res.Population.Rows {
		ind := &res.Population.Rows[i]
		assert.Positive(t, ind.Income)
		assert.GreaterOrEqual(t, ind.Experience, 0)
		if outliers[i] {
			assert.GreaterOrEqual(t, ind.Age, 100)
			assert.Less(t, ind.Age, 120)
			continue
		}
		if ind.Retired != (ind.Age >= 60) || ind.AgeCategory != population.AgeCategoryOf(ind.Age) {
			t.Fatalf("row %d: age %d retired %v category %s", i, ind.Age, ind.Retired, ind.AgeCategory)
		}
	}
	for _, i := range res.Corruption.IncomeOutliers {
		v := res.Population.Rows[i].Income
		assert.True(t, v >= 300000 && v < 1000000, "income outlier %d", v)
	}
}

func TestGenerateIsNotPersisted(t *testing.T) {
	cfg := testConfig(t, 50)
	g, err := pipeline.New(cfg)
	require.NoError(t, err)
	res, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, cfg.Output.Path)
	assert.Equal(t, stage.Corrupted, res.Stages()[len(res.Stages())-1].Stage)

	require.NoError(t, g.Persist(context.Background(), res))
	assert.FileExists(t, cfg.Output.Path)

	err = g.Persist(context.Background(), res)
	assert.True(t, errors.Is(err, errors.ErrStageOrder))
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	provider := log.NewZerologProviderWithWriter(&buf, zerolog.InfoLevel)
	logger := provider.GetLoggerWithName("test").With("run", "logger-option")

	g, err := pipeline.New(testConfig(t, 50), pipeline.WithLogger(logger))
	require.NoError(t, err)
	_, err = g.Generate(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Population generated")
	assert.Contains(t, out, `"run":"logger-option"`)
}

func TestPersistRequiresGeneratedResult(t *testing.T) {
	g, err := pipeline.New(testConfig(t, 10))
	require.NoError(t, err)
	err = g.Persist(context.Background(), &pipeline.Result{})
	assert.True(t, errors.Is(err, errors.ErrStageOrder))
}

func TestGenerateCancelled(t *testing.T) {
	g, err := pipeline.New(testConfig(t, 10))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Generate(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, 10)
	cfg.PopulationSize = 0
	_, err := pipeline.New(cfg)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))

	cfg = testConfig(t, 10)
	cfg.RegionWeights["Atlantis"] = 0
	_, err = pipeline.New(cfg)
	assert.Error(t, err)
}

func TestPersistFailureLeavesNoDataset(t *testing.T) {
	cfg := testConfig(t, 20)
	cfg.Output.Path = filepath.Join(t.TempDir(), "missing", "dataset.csv")
	g, err := pipeline.New(cfg)
	require.NoError(t, err)
	_, err = g.Run(context.Background())
	assert.True(t, errors.Is(err, errors.ErrPersistence))
	assert.NoFileExists(t, cfg.Output.Path)
}
