package config

import (
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ezoic/popsynth/pkg/errors"
)

// Environment variables read by ApplyEnv.
const (
	EnvPopulationSize   = "POPSYNTH_POPULATION_SIZE"
	EnvRandomSeed       = "POPSYNTH_RANDOM_SEED"
	EnvOutput           = "POPSYNTH_OUTPUT"
	EnvManifest         = "POPSYNTH_MANIFEST"
	EnvFeatures         = "POPSYNTH_FEATURES"
	EnvPlotDir          = "POPSYNTH_PLOT_DIR"
	EnvRegistrationDate = "POPSYNTH_REGISTRATION_DATE"
	EnvLogLevel         = "POPSYNTH_LOG_LEVEL"
)

// Load reads a YAML file on top of Default. Keys that do not map onto a
// Config field are rejected. Mappings in the file replace the default
// mappings as a whole.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.Mark(errors.Wrapf(err, "open config %s", path), errors.ErrInvalidConfig)
	}
	defer f.Close()
	if err := Decode(f, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Decode overlays the YAML document read from r onto cfg. An empty document
// leaves cfg unchanged.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return errors.Mark(errors.Wrap(err, "decode yaml"), errors.ErrInvalidConfig)
	}
	return nil
}

// LoadDotEnv loads the given .env files (default ".env") into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.Mark(errors.Wrapf(err, "load %s", file), errors.ErrInvalidConfig)
		}
	}
	return nil
}

// ApplyEnv loads .env files and applies POPSYNTH_* overrides from the
// process environment.
func (c *Config) ApplyEnv(files ...string) error {
	if err := LoadDotEnv(files...); err != nil {
		return err
	}
	return c.ApplyEnvFrom(os.LookupEnv)
}

// ApplyEnvFrom applies overrides using lookup in place of os.LookupEnv.
func (c *Config) ApplyEnvFrom(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPopulationSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidationError(EnvPopulationSize, "not an integer", v)
		}
		c.PopulationSize = n
	}
	if v, ok := lookup(EnvRandomSeed); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.NewValidationError(EnvRandomSeed, "not an unsigned integer", v)
		}
		c.RandomSeed = seed
	}
	strs := []struct {
		key string
		dst *string
	}{
		{EnvOutput, &c.Output.Path},
		{EnvManifest, &c.Output.ManifestPath},
		{EnvFeatures, &c.Output.FeaturesPath},
		{EnvPlotDir, &c.Output.PlotDir},
		{EnvRegistrationDate, &c.RegistrationDate},
		{EnvLogLevel, &c.LogLevel},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok {
			*s.dst = v
		}
	}
	return nil
}
