// Package pipeline runs a full generation: sampling, derivation, the base
// income model, the three income corrections and corruption, followed by
// persistence of the dataset, its manifest, the serving features and charts.
//
// Every stage draws from one math/rand/v2 PCG source seeded with
// (seed, seed) and created per run, so the same configuration always yields
// a byte-identical dataset.
//
// Example:
//
//	cfg := config.Default()
//	g, err := pipeline.New(cfg)
//	if err != nil {
//	    return err
//	}
//	res, err := g.Run(ctx)
package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/core/stage"
	"github.com/ezoic/popsynth/corruption"
	"github.com/ezoic/popsynth/derive"
	"github.com/ezoic/popsynth/export"
	"github.com/ezoic/popsynth/income"
	"github.com/ezoic/popsynth/metrics"
	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/pkg/log"
	"github.com/ezoic/popsynth/preprocessing"
	"github.com/ezoic/popsynth/report"
	"github.com/ezoic/popsynth/sampler"
)

// Generator runs generations for one validated configuration.
type Generator struct {
	cfg  config.Config
	date time.Time

	sampler   *sampler.Sampler
	deriver   *derive.Deriver
	model     income.Model
	corrector *income.Corrector
	injector  *corruption.Injector

	logger  log.Logger
	verbose bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger replaces the generator's logger.
func WithLogger(l log.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// WithVerbose logs every stage completion at info level instead of debug.
func WithVerbose(v bool) Option {
	return func(g *Generator) {
		g.verbose = v
	}
}

// Outputs are the files written by Persist. Empty fields were not written.
type Outputs struct {
	Dataset  string   `json:"dataset"`
	Manifest string   `json:"manifest"`
	Features string   `json:"features,omitempty"`
	Charts   []string `json:"charts,omitempty"`
}

// Result is the outcome of one generation.
//
// Adjusted describes the table right after the final rescale; Shipped
// describes the table as persisted, outliers and masks included.
type Result struct {
	RunID         string
	Population    *population.Population
	Adjusted      export.Diagnostics
	Shipped       export.Diagnostics
	Corrections   []income.PartitionReport
	Corruption    *corruption.Report
	IncomeSummary metrics.Summary
	Outputs       Outputs

	tracker *stage.Tracker
}

// Stages returns the completed stages with their durations.
func (r *Result) Stages() []stage.Record {
	if r.tracker == nil {
		return nil
	}
	return r.tracker.History()
}

// New validates cfg and prepares every stage.
//
// Errors:
//   - ErrInvalidConfig, ErrUnknownCategory: if cfg is invalid
func New(cfg config.Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	date, err := cfg.RegistrationTime()
	if err != nil {
		return nil, errors.NewValidationError("registration_date", err.Error(), cfg.RegistrationDate)
	}

	g := &Generator{
		cfg:    cfg,
		date:   date,
		logger: log.GetLoggerWithName("pipeline").With(log.ComponentKey, "pipeline"),
	}
	for _, opt := range opts {
		opt(g)
	}

	regions, err := cfg.RegionTable()
	if err != nil {
		return nil, err
	}
	if g.sampler, err = sampler.New(cfg.Marginals, regions); err != nil {
		return nil, err
	}
	tables, err := derive.TablesFrom(&cfg)
	if err != nil {
		return nil, err
	}
	g.deriver = derive.New(tables)
	if g.model, err = income.ModelFrom(&cfg); err != nil {
		return nil, err
	}
	g.corrector = income.NewCorrector(income.TargetsFrom(cfg.Targets), cfg.Shape)
	params, err := corruption.ParamsFrom(&cfg)
	if err != nil {
		return nil, err
	}
	g.injector = corruption.New(params)
	return g, nil
}

// Config returns the generator's configuration.
func (g *Generator) Config() config.Config {
	return g.cfg
}

// Generate builds the population in memory, up to and including
// corruption. ctx is checked between stages.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	start := time.Now()
	seed := g.cfg.RandomSeed
	rng := rand.New(rand.NewPCG(seed, seed))

	id, err := export.RunID(g.cfg)
	if err != nil {
		return nil, err
	}
	res := &Result{RunID: id.String(), tracker: stage.NewTracker()}
	var pop *population.Population

	steps := []struct {
		stage stage.Stage
		run   func() error
	}{
		{stage.Sampled, func() (err error) {
			pop, err = g.sampler.Sample(g.cfg.PopulationSize, rng)
			return err
		}},
		{stage.Derived, func() error {
			return g.deriver.Apply(pop, rng, g.date)
		}},
		{stage.BaseIncome, func() error {
			return g.model.Apply(pop, rng)
		}},
		{stage.MeanRescaled, func() error {
			res.Corrections = append(res.Corrections, g.corrector.MeanRescale(pop)...)
			return nil
		}},
		{stage.ShapeCorrected, func() error {
			res.Corrections = append(res.Corrections, g.corrector.ShapeCorrect(pop, rng)...)
			return nil
		}},
		{stage.FinalRescaled, func() error {
			res.Corrections = append(res.Corrections, g.corrector.FinalRescale(pop)...)
			res.Adjusted = diagnose(pop, g.cfg.Targets)
			return nil
		}},
		{stage.Corrupted, func() (err error) {
			res.Corruption, err = g.injector.Apply(pop, rng)
			return err
		}},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "before %s", s.stage)
		}
		if err := s.run(); err != nil {
			return nil, errors.Wrapf(err, "stage %s", s.stage)
		}
		if err := res.tracker.Complete(s.stage); err != nil {
			return nil, err
		}
		g.stageDone(res.tracker)
	}

	res.Population = pop
	res.Shipped = diagnose(pop, g.cfg.Targets)
	if res.IncomeSummary, err = metrics.Describe(pop.Incomes(nil)); err != nil {
		return nil, err
	}

	g.logger.Info("Population generated",
		log.OperationKey, log.OperationGenerate,
		log.SamplesKey, pop.Len(),
		log.SeedKey, seed,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// Persist writes the dataset, then the features and charts when their
// destinations are configured, and finally the manifest. It completes the
// run; a Result can be persisted only once.
//
// Errors:
//   - ErrStageOrder: if res has not been fully generated or was already persisted
//   - ErrPersistence: if a file cannot be written
func (g *Generator) Persist(ctx context.Context, res *Result) error {
	if res == nil || res.tracker == nil {
		return errors.Wrap(errors.ErrStageOrder, "persist requires a generated result")
	}
	if err := res.tracker.Require(stage.Corrupted); err != nil {
		return err
	}
	if res.tracker.Done(stage.Persisted) {
		return errors.Wrap(errors.ErrStageOrder, "result already persisted")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	out := g.cfg.Output
	if err := export.WriteCSV(out.Path, res.Population); err != nil {
		return err
	}
	res.Outputs.Dataset = out.Path

	if out.FeaturesPath != "" {
		fs, err := preprocessing.Features(res.Population)
		if err != nil {
			return err
		}
		if err := export.WriteFeatures(out.FeaturesPath, fs); err != nil {
			return err
		}
		res.Outputs.Features = out.FeaturesPath
	}

	if out.PlotDir != "" {
		paths, err := report.SaveAll(out.PlotDir, res.Population, res.Adjusted.Comparisons)
		if err != nil {
			return err
		}
		res.Outputs.Charts = paths
	}

	m, err := export.NewManifest(g.cfg, res.Population.Len(), population.Columns())
	if err != nil {
		return err
	}
	m.Adjusted = res.Adjusted
	m.Shipped = res.Shipped
	m.Corrections = res.Corrections
	m.Corruption = res.Corruption
	m.IncomeSummary = res.IncomeSummary
	manifest := g.cfg.ManifestFile()
	if err := export.WriteManifest(manifest, m); err != nil {
		return err
	}
	res.Outputs.Manifest = manifest

	if err := res.tracker.Complete(stage.Persisted); err != nil {
		return err
	}
	g.stageDone(res.tracker)
	return nil
}

// Run generates and persists one population.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	res, err := g.Generate(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.Persist(ctx, res); err != nil {
		return res, err
	}
	return res, nil
}

func (g *Generator) stageDone(t *stage.Tracker) {
	h := t.History()
	last := h[len(h)-1]
	emit := g.logger.Debug
	if g.verbose {
		emit = g.logger.Info
	}
	emit("Stage completed",
		log.StageKey, last.Stage.String(),
		log.DurationMsKey, last.Duration.Milliseconds(),
	)
}

func diagnose(pop *population.Population, targets config.Targets) export.Diagnostics {
	stats := metrics.Measure(pop)
	return export.Diagnostics{
		Stats:       stats,
		Comparisons: metrics.Compare(stats, targets),
	}
}
