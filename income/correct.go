package income

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/pkg/log"
)

// Targets are the per-milieu goals of the corrections. PctBelow is in
// percentage points.
type Targets struct {
	Mean     population.MilieuTable[float64]
	PctBelow population.MilieuTable[float64]
}

// TargetsFrom extracts the per-milieu targets.
func TargetsFrom(t config.Targets) Targets {
	return Targets{
		Mean:     population.MilieuTable[float64]{population.Urbain: t.UrbanMean, population.Rural: t.RuralMean},
		PctBelow: population.MilieuTable[float64]{population.Urbain: t.PctBelowUrban, population.Rural: t.PctBelowRural},
	}
}

// PartitionReport describes what one correction stage did to one milieu
// partition. Rescale stages fill the mean fields; the shape stage fills the
// mean, iteration and percentage fields.
type PartitionReport struct {
	Stage      string            `json:"stage"`
	Milieu     population.Milieu `json:"milieu"`
	Size       int               `json:"size"`
	Skipped    bool              `json:"skipped"`
	MeanBefore float64           `json:"mean_before"`
	Factor     float64           `json:"factor,omitempty"`
	MeanAfter  float64           `json:"mean_after"`

	Iterations  int     `json:"iterations,omitempty"`
	Converged   bool    `json:"converged,omitempty"`
	Moved       int     `json:"moved,omitempty"`
	PctBefore   float64 `json:"pct_before,omitempty"`
	PctAchieved float64 `json:"pct_achieved,omitempty"`
	PctTarget   float64 `json:"pct_target,omitempty"`
}

// Corrector applies the three correction stages.
type Corrector struct {
	targets Targets
	shape   config.Shape
	logger  log.Logger
}

// NewCorrector returns a Corrector for the given targets and shape
// parameters.
func NewCorrector(targets Targets, shape config.Shape) *Corrector {
	return &Corrector{
		targets: targets,
		shape:   shape,
		logger:  log.GetLoggerWithName("income").With(log.ComponentKey, "income"),
	}
}

// MeanRescale is stage A: each partition is multiplied by target/mean and
// truncated. Empty partitions are skipped and reported as such.
func (c *Corrector) MeanRescale(pop *population.Population) []PartitionReport {
	return c.rescale(pop, log.StageMeanRescale)
}

// FinalRescale is stage C, identical to stage A.
func (c *Corrector) FinalRescale(pop *population.Population) []PartitionReport {
	return c.rescale(pop, log.StageFinalRescale)
}

func (c *Corrector) rescale(pop *population.Population, stage string) []PartitionReport {
	reports := make([]PartitionReport, 0, population.NumMilieux)
	for _, m := range population.Milieux() {
		idx := pop.Partition(m)
		rep := PartitionReport{Stage: stage, Milieu: m, Size: len(idx)}
		if len(idx) == 0 {
			c.skip(&rep)
			reports = append(reports, rep)
			continue
		}

		rep.MeanBefore = stat.Mean(pop.Incomes(idx), nil)
		rep.Factor = c.targets.Mean.Get(m) / rep.MeanBefore
		for _, i := range idx {
			pop.Rows[i].Income = scale(pop.Rows[i].Income, rep.Factor)
		}
		rep.MeanAfter = stat.Mean(pop.Incomes(idx), nil)

		c.logger.Info("Partition rescaled",
			log.StageKey, stage,
			log.PartitionKey, m.String(),
			log.SamplesKey, rep.Size,
			"factor", rep.Factor,
			log.TargetKey, c.targets.Mean.Get(m),
			log.AchievedKey, rep.MeanAfter,
		)
		reports = append(reports, rep)
	}
	return reports
}

// ShapeCorrect is stage B. For each partition the mean is fixed at its
// value on entry and, for at most shape.MaxIterations rounds:
//
//   - the share below the mean is measured; within tolerance, stop
//   - if the share is too low, incomes in [mean, UpperBand*mean) are picked
//     at random and multiplied by ShrinkFactor
//   - if too high, incomes in (LowerBand*mean, mean) are picked and
//     multiplied by GrowFactor
//
// The number picked is trunc(size*gap/100), capped at the candidate pool.
// The direction is re-evaluated every round. A partition that ends outside
// the tolerance emits a ConvergenceWarning; this is never an error.
func (c *Corrector) ShapeCorrect(pop *population.Population, rng *rand.Rand) []PartitionReport {
	reports := make([]PartitionReport, 0, population.NumMilieux)
	for _, m := range population.Milieux() {
		idx := pop.Partition(m)
		rep := PartitionReport{Stage: log.StageShapeCorrect, Milieu: m, Size: len(idx)}
		if len(idx) == 0 {
			c.skip(&rep)
			reports = append(reports, rep)
			continue
		}
		c.shapePartition(pop, idx, &rep, rng)
		reports = append(reports, rep)
	}
	return reports
}

func (c *Corrector) shapePartition(pop *population.Population, idx []int, rep *PartitionReport, rng *rand.Rand) {
	m := rep.Milieu
	target := c.targets.PctBelow.Get(m)
	mean := stat.Mean(pop.Incomes(idx), nil)
	n := float64(len(idx))

	rep.MeanBefore = mean
	rep.PctTarget = target
	rep.PctBefore = PctBelow(pop, idx, mean)

	for it := 0; it < c.shape.MaxIterations; it++ {
		pct := PctBelow(pop, idx, mean)
		if math.Abs(pct-target) < c.shape.Tolerance {
			break
		}
		rep.Iterations++

		var (
			candidates []int
			factor     float64
			gap        float64
		)
		if pct < target {
			candidates = selectRows(pop, idx, func(v float64) bool {
				return v >= mean && v < c.shape.UpperBand*mean
			})
			factor = c.shape.ShrinkFactor
			gap = target - pct
		} else {
			candidates = selectRows(pop, idx, func(v float64) bool {
				return v < mean && v > c.shape.LowerBand*mean
			})
			factor = c.shape.GrowFactor
			gap = pct - target
		}

		count := min(int(n*gap/100), len(candidates))
		if count <= 0 {
			continue
		}
		picks := make([]int, count)
		sampleuv.WithoutReplacement(picks, len(candidates), rng)
		for _, p := range picks {
			row := candidates[p]
			pop.Rows[row].Income = scale(pop.Rows[row].Income, factor)
		}
		rep.Moved += count

		c.logger.Debug("Shape correction round",
			log.StageKey, log.StageShapeCorrect,
			log.PartitionKey, m.String(),
			log.IterationKey, it,
			"pct_below", pct,
			"moved", count,
			"candidates", len(candidates),
		)
	}

	rep.PctAchieved = PctBelow(pop, idx, mean)
	rep.Converged = math.Abs(rep.PctAchieved-target) < c.shape.Tolerance
	rep.MeanAfter = stat.Mean(pop.Incomes(idx), nil)

	c.logger.Info("Partition shape corrected",
		log.StageKey, log.StageShapeCorrect,
		log.PartitionKey, m.String(),
		log.SamplesKey, rep.Size,
		log.IterationKey, rep.Iterations,
		log.TargetKey, target,
		log.AchievedKey, rep.PctAchieved,
		"converged", rep.Converged,
	)
	if !rep.Converged {
		errors.Warn(errors.NewConvergenceWarning(
			fmt.Sprintf("shape correction (%s)", m),
			rep.Iterations,
			fmt.Sprintf("%.1f%% below mean, target %.1f%%", rep.PctAchieved, target),
		))
	}
}

func (c *Corrector) skip(rep *PartitionReport) {
	rep.Skipped = true
	c.logger.Warn("Partition empty, correction skipped",
		log.StageKey, rep.Stage,
		log.PartitionKey, rep.Milieu.String(),
		log.ErrorKey, errors.ErrEmptyPartition,
	)
}

// PctBelow returns the percentage of rows in idx whose income is strictly
// below mean.
func PctBelow(pop *population.Population, idx []int, mean float64) float64 {
	if len(idx) == 0 {
		return 0
	}
	below := 0
	for _, i := range idx {
		if float64(pop.Rows[i].Income) < mean {
			below++
		}
	}
	return 100 * float64(below) / float64(len(idx))
}

func selectRows(pop *population.Population, idx []int, keep func(float64) bool) []int {
	var out []int
	for _, i := range idx {
		if keep(float64(pop.Rows[i].Income)) {
			out = append(out, i)
		}
	}
	return out
}

// scale multiplies v by f, truncating toward zero, with a floor of 1.
func scale(v int, f float64) int {
	return max(1, int(float64(v)*f))
}
