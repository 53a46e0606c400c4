// Package report draws PNG charts of a generated population: the income
// distribution of each milieu and the achieved statistics next to their
// targets.
//
// Example:
//
//	paths, err := report.SaveAll("plots", pop, comparisons)
//	if err != nil {
//	    return err
//	}
package report

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/export"
	"github.com/ezoic/popsynth/metrics"
	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/pkg/log"
)

// Chart file names written by SaveAll.
const (
	HistogramFile = "income_histogram.png"
	MeansFile     = "target_means.png"
	PctBelowFile  = "target_pct_below.png"
)

// DefaultBins is the histogram bin count.
const DefaultBins = 50

// IncomeHistogram overlays the normalized income distribution of each
// non-empty milieu partition. Incomes at or above clip are left out so a few
// outliers do not flatten the chart; clip <= 0 keeps everything.
func IncomeHistogram(pop *population.Population, bins int, clip float64) (*plot.Plot, error) {
	if pop == nil || pop.Len() == 0 {
		return nil, errors.NewModelError("IncomeHistogram", "empty population", errors.ErrEmptyData)
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	p := plot.New()
	p.Title.Text = "Distribution du revenu annuel"
	p.X.Label.Text = population.ColIncome
	p.Y.Label.Text = "densité"
	p.Legend.Top = true

	for i, m := range population.Milieux() {
		var values plotter.Values
		for _, v := range pop.Incomes(pop.Partition(m)) {
			if clip <= 0 || v < clip {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		h, err := plotter.NewHist(values, bins)
		if err != nil {
			return nil, errors.Wrapf(err, "histogram %s", m)
		}
		h.Normalize(1)
		h.FillColor = nil
		h.LineStyle.Color = plotutil.Color(i)
		h.LineStyle.Width = vg.Points(1.5)
		p.Add(h)
		p.Legend.Add(m.String(), h)
	}
	return p, nil
}

// ComparisonChart draws grouped bars of target and achieved values, one
// group per comparison.
func ComparisonChart(title string, cmps []metrics.Comparison) (*plot.Plot, error) {
	if len(cmps) == 0 {
		return nil, errors.NewValueError("ComparisonChart", "no comparisons")
	}
	targets := make(plotter.Values, len(cmps))
	achieved := make(plotter.Values, len(cmps))
	names := make([]string, len(cmps))
	for i, c := range cmps {
		targets[i] = c.Target
		achieved[i] = c.Achieved
		names[i] = c.Name
	}

	p := plot.New()
	p.Title.Text = title
	p.Legend.Top = true

	width := vg.Points(20)
	for i, series := range []struct {
		name   string
		values plotter.Values
	}{{"cible", targets}, {"obtenu", achieved}} {
		bars, err := plotter.NewBarChart(series.values, width)
		if err != nil {
			return nil, errors.Wrapf(err, "bars %s", series.name)
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = width * vg.Length(2*i-1) / 2
		p.Add(bars)
		p.Legend.Add(series.name, bars)
	}
	p.NominalX(names...)
	return p, nil
}

// SavePNG atomically writes p to path as a PNG image.
func SavePNG(p *plot.Plot, path string) error {
	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return errors.Wrap(err, "render png")
	}
	return export.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
}

// SaveAll writes the income histogram and the two comparison charts to dir,
// creating it if needed, and returns the written paths. Incomes above the
// 99th percentile are left out of the histogram.
func SaveAll(dir string, pop *population.Population, cmps []metrics.Comparison) ([]string, error) {
	start := time.Now()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "create %s", dir), errors.ErrPersistence)
	}

	summary, err := metrics.Describe(pop.Incomes(nil))
	if err != nil {
		return nil, err
	}
	hist, err := IncomeHistogram(pop, DefaultBins, clipAt(pop, summary))
	if err != nil {
		return nil, err
	}

	var means, pcts []metrics.Comparison
	for _, c := range cmps {
		if strings.HasPrefix(c.Name, "pct_") {
			pcts = append(pcts, c)
		} else {
			means = append(means, c)
		}
	}

	charts := []struct {
		file string
		plot func() (*plot.Plot, error)
	}{
		{HistogramFile, func() (*plot.Plot, error) { return hist, nil }},
		{MeansFile, func() (*plot.Plot, error) { return ComparisonChart("Revenu moyen", means) }},
		{PctBelowFile, func() (*plot.Plot, error) { return ComparisonChart("Part sous la moyenne (%)", pcts) }},
	}

	var paths []string
	for _, c := range charts {
		p, err := c.plot()
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, c.file)
		if err := SavePNG(p, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	log.GetLoggerWithName("report").Info("Charts written",
		log.OperationKey, log.OperationReport,
		log.PathKey, dir,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return paths, nil
}

// clipAt returns the 99th percentile income, or 0 for tiny populations.
func clipAt(pop *population.Population, s metrics.Summary) float64 {
	if pop.Len() < 100 {
		return 0
	}
	q, err := metrics.Quantile(pop.Incomes(nil), 0.99)
	if err != nil || q <= s.Min {
		return 0
	}
	return q
}
