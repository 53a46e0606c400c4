// Command popsynth generates a synthetic population whose income statistics
// match configured targets and writes it as a CSV file.
//
// Settings are layered: built-in defaults, then the -config YAML file, then
// POPSYNTH_* environment variables (optionally from a .env file), then
// command-line flags.
//
//	popsynth -config popsynth.yaml -n 40000 -seed 42 -out dataset.csv -plots plots
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/pipeline"
	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/pkg/log"
)

type options struct {
	configPath string
	envFile    string
	size       int
	seed       uint64
	out        string
	manifest   string
	features   string
	plots      string
	date       string
	logLevel   string
	verbose    bool
}

func parseFlags(args []string) (*options, map[string]bool, error) {
	fs := flag.NewFlagSet("popsynth", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&o.envFile, "env", ".env", "dotenv file with POPSYNTH_* overrides")
	fs.IntVar(&o.size, "n", 0, "population size")
	fs.Uint64Var(&o.seed, "seed", 0, "random seed")
	fs.StringVar(&o.out, "out", "", "output CSV path")
	fs.StringVar(&o.manifest, "manifest", "", "run manifest path (default <out>.manifest.json)")
	fs.StringVar(&o.features, "features", "", "write the serving feature matrix to this CSV path")
	fs.StringVar(&o.plots, "plots", "", "write PNG charts to this directory")
	fs.StringVar(&o.date, "date", "", "registration date, YYYY-MM-DD (default today)")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&o.verbose, "v", false, "log every stage")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set, nil
}

// loadConfig layers defaults, file, environment and flags.
func loadConfig(o *options, set map[string]bool) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(o.envFile); err != nil {
		return cfg, err
	}

	if set["n"] {
		cfg.PopulationSize = o.size
	}
	if set["seed"] {
		cfg.RandomSeed = o.seed
	}
	overrides := []struct {
		flag string
		src  string
		dst  *string
	}{
		{"out", o.out, &cfg.Output.Path},
		{"manifest", o.manifest, &cfg.Output.ManifestPath},
		{"features", o.features, &cfg.Output.FeaturesPath},
		{"plots", o.plots, &cfg.Output.PlotDir},
		{"date", o.date, &cfg.RegistrationDate},
		{"log-level", o.logLevel, &cfg.LogLevel},
	}
	for _, ov := range overrides {
		if set[ov.flag] {
			*ov.dst = ov.src
		}
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, set, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(o, set)
	if err != nil {
		return err
	}
	log.SetupLogger(cfg.LogLevel)

	logger := log.GetLoggerWithName("popsynth").With(
		log.ComponentKey, "cli",
		log.SeedKey, cfg.RandomSeed,
		log.SamplesKey, cfg.PopulationSize,
	)
	g, err := pipeline.New(cfg, pipeline.WithLogger(logger), pipeline.WithVerbose(o.verbose))
	if err != nil {
		return err
	}
	res, err := g.Run(ctx)
	if err != nil {
		return err
	}
	printResult(stdout, res)
	return nil
}

func printResult(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "Run %s: %d individuals\n", res.RunID, res.Population.Len())
	fmt.Fprintf(w, "  dataset:  %s\n", res.Outputs.Dataset)
	fmt.Fprintf(w, "  manifest: %s\n", res.Outputs.Manifest)
	if res.Outputs.Features != "" {
		fmt.Fprintf(w, "  features: %s\n", res.Outputs.Features)
	}
	for _, c := range res.Outputs.Charts {
		fmt.Fprintf(w, "  chart:    %s\n", c)
	}

	fmt.Fprintf(w, "\n%-20s %12s %12s %12s %8s\n", "statistic", "target", "adjusted", "shipped", "error")
	for i, c := range res.Adjusted.Comparisons {
		shipped := res.Shipped.Comparisons[i]
		fmt.Fprintf(w, "%-20s %12.1f %12.1f %12.1f %7.2f%%\n",
			c.Name, c.Target, c.Achieved, shipped.Achieved, 100*c.RelativeError)
	}

	fmt.Fprintln(w, "\nCorrections:")
	for _, r := range res.Corrections {
		switch {
		case r.Skipped:
			fmt.Fprintf(w, "  %-14s %-7s skipped (empty partition)\n", r.Stage, r.Milieu)
		case r.Iterations > 0 || r.Moved > 0:
			fmt.Fprintf(w, "  %-14s %-7s %d rounds, %d moved, below mean %.1f%% -> %.1f%% (target %.1f%%)\n",
				r.Stage, r.Milieu, r.Iterations, r.Moved, r.PctBefore, r.PctAchieved, r.PctTarget)
		default:
			fmt.Fprintf(w, "  %-14s %-7s mean %.0f -> %.0f (x%.4f)\n",
				r.Stage, r.Milieu, r.MeanBefore, r.MeanAfter, r.Factor)
		}
	}

	if rep := res.Corruption; rep != nil {
		fmt.Fprintf(w, "\nCorruption: %d age outliers, %d income outliers, missing %v\n",
			rep.AgeOutlierCount, rep.IncomeOutlierCount, rep.Missing)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.LogError(err, "popsynth failed")
		stop()
		os.Exit(1)
	}
}
