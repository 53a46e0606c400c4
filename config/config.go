// Package config holds the configuration of a generation run.
//
// A Config starts from Default, which reproduces the reference dataset
// (40000 individuals, seed 42, the published regional weights and income
// targets). It can then be overlaid by a YAML file (Load), by environment
// variables optionally read from a .env file (ApplyEnv) and finally by
// command line flags. Validate must pass before a Config is used; the
// table builders in tables.go turn the name-keyed maps into the fixed
// lookup tables the pipeline stages consume.
package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the format of RegistrationDate.
const DateLayout = "2006-01-02"

// Weights maps category names to probabilities or multipliers. When decoded
// from YAML it replaces the default map instead of merging into it.
type Weights map[string]float64

// UnmarshalYAML replaces the receiver with the decoded mapping.
func (w *Weights) UnmarshalYAML(n *yaml.Node) error {
	m := map[string]float64{}
	if err := n.Decode(&m); err != nil {
		return err
	}
	*w = m
	return nil
}

// IntTable maps category names to integers, replacing on decode like Weights.
type IntTable map[string]int

// UnmarshalYAML replaces the receiver with the decoded mapping.
func (t *IntTable) UnmarshalYAML(n *yaml.Node) error {
	m := map[string]int{}
	if err := n.Decode(&m); err != nil {
		return err
	}
	*t = m
	return nil
}

// Config is the full configuration of one run.
type Config struct {
	PopulationSize   int        `yaml:"population_size" json:"population_size"`
	RandomSeed       uint64     `yaml:"random_seed" json:"random_seed"`
	RegionWeights    Weights    `yaml:"region_weights" json:"region_weights"`
	Targets          Targets    `yaml:"targets" json:"targets"`
	Marginals        Marginals  `yaml:"marginals" json:"marginals"`
	Derivation       Derivation `yaml:"derivation" json:"derivation"`
	Income           Income     `yaml:"income" json:"income"`
	Shape            Shape      `yaml:"shape" json:"shape"`
	Corruption       Corruption `yaml:"corruption" json:"corruption"`
	Output           Output     `yaml:"output" json:"output"`
	RegistrationDate string     `yaml:"registration_date" json:"registration_date"`
	LogLevel         string     `yaml:"log_level" json:"log_level"`
}

// Targets are the population statistics the income corrections aim for.
// Percentages are expressed in points (65.9 means 65.9%).
type Targets struct {
	OverallMean     float64 `yaml:"overall_mean" json:"overall_mean"`
	UrbanMean       float64 `yaml:"urban_mean" json:"urban_mean"`
	RuralMean       float64 `yaml:"rural_mean" json:"rural_mean"`
	PctBelowOverall float64 `yaml:"pct_below_overall" json:"pct_below_overall"`
	PctBelowUrban   float64 `yaml:"pct_below_urban" json:"pct_below_urban"`
	PctBelowRural   float64 `yaml:"pct_below_rural" json:"pct_below_rural"`
}

// Marginals are the independent distributions of the base sampler.
// Probabilities on flags are P(flag = 1). Integer ranges are half-open.
type Marginals struct {
	Sex           Weights `yaml:"sex" json:"sex"`
	Milieu        Weights `yaml:"milieu" json:"milieu"`
	MaritalStatus Weights `yaml:"marital_status" json:"marital_status"`
	Education     Weights `yaml:"education" json:"education"`
	Group         Weights `yaml:"group" json:"group"`

	SocialAid    float64 `yaml:"social_aid" json:"social_aid"`
	CreditAccess float64 `yaml:"credit_access" json:"credit_access"`
	OwnsCar      float64 `yaml:"owns_car" json:"owns_car"`
	OwnsHome     float64 `yaml:"owns_home" json:"owns_home"`
	OwnsLand     float64 `yaml:"owns_land" json:"owns_land"`

	AgeMin           int `yaml:"age_min" json:"age_min"`
	AgeMax           int `yaml:"age_max" json:"age_max"`
	HouseholdSizeMin int `yaml:"household_size_min" json:"household_size_min"`
	HouseholdSizeMax int `yaml:"household_size_max" json:"household_size_max"`
	PostalCodeMin    int `yaml:"postal_code_min" json:"postal_code_min"`
	PostalCodeMax    int `yaml:"postal_code_max" json:"postal_code_max"`
}

// Derivation parameterizes the derivation pass.
type Derivation struct {
	CareerStartAge    IntTable `yaml:"career_start_age" json:"career_start_age"`
	MaxInactivity     int      `yaml:"max_inactivity" json:"max_inactivity"`
	RetirementAge     int      `yaml:"retirement_age" json:"retirement_age"`
	CreditAccessGroup Weights  `yaml:"credit_access_by_group" json:"credit_access_by_group"`
}

// Income parameterizes the multiplicative income model.
type Income struct {
	Base                 float64 `yaml:"base" json:"base"`
	PerYearOfExperience  float64 `yaml:"per_year_of_experience" json:"per_year_of_experience"`
	EducationMultipliers Weights `yaml:"education_multipliers" json:"education_multipliers"`
	GroupMultipliers     Weights `yaml:"group_multipliers" json:"group_multipliers"`
	UrbanHigherEdBonus   float64 `yaml:"urban_higher_education_bonus" json:"urban_higher_education_bonus"`
	NoiseSigma           float64 `yaml:"noise_sigma" json:"noise_sigma"`
	Floor                int     `yaml:"floor" json:"floor"`
}

// Shape parameterizes the below-mean shape correction.
type Shape struct {
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
	UpperBand     float64 `yaml:"upper_band" json:"upper_band"`
	LowerBand     float64 `yaml:"lower_band" json:"lower_band"`
	ShrinkFactor  float64 `yaml:"shrink_factor" json:"shrink_factor"`
	GrowFactor    float64 `yaml:"grow_factor" json:"grow_factor"`
}

// Corruption parameterizes outlier and missing-value injection.
type Corruption struct {
	OutlierRate      float64  `yaml:"outlier_rate" json:"outlier_rate"`
	AgeOutlierMin    int      `yaml:"age_outlier_min" json:"age_outlier_min"`
	AgeOutlierMax    int      `yaml:"age_outlier_max" json:"age_outlier_max"`
	IncomeOutlierMin int      `yaml:"income_outlier_min" json:"income_outlier_min"`
	IncomeOutlierMax int      `yaml:"income_outlier_max" json:"income_outlier_max"`
	MissingRate      float64  `yaml:"missing_rate" json:"missing_rate"`
	MissingFields    []string `yaml:"missing_fields" json:"missing_fields"`
}

// Output lists the files written by a run. Empty optional paths disable
// the corresponding output.
type Output struct {
	Path         string `yaml:"path" json:"path"`
	ManifestPath string `yaml:"manifest_path" json:"manifest_path"`
	FeaturesPath string `yaml:"features_path" json:"features_path"`
	PlotDir      string `yaml:"plot_dir" json:"plot_dir"`
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		PopulationSize: 40000,
		RandomSeed:     42,
		RegionWeights: Weights{
			"Tanger-Tétouan-Al Hoceïma": 0.11,
			"L'Oriental":                0.08,
			"Fès-Meknès":                0.13,
			"Rabat-Salé-Kénitra":        0.13,
			"Béni Mellal-Khénifra":      0.07,
			"Casablanca-Settat":         0.20,
			"Marrakech-Safi":            0.13,
			"Drâa-Tafilalet":            0.05,
			"Souss-Massa":               0.07,
			"Guelmim-Oued Noun":         0.01,
			"Laâyoune-Sakia El Hamra":   0.01,
			"Dakhla-Oued Ed-Dahab":      0.01,
		},
		Targets: Targets{
			OverallMean:     21949,
			UrbanMean:       26988,
			RuralMean:       12862,
			PctBelowOverall: 71.8,
			PctBelowUrban:   65.9,
			PctBelowRural:   85.4,
		},
		Marginals: Marginals{
			Sex:           Weights{"Homme": 0.52, "Femme": 0.48},
			Milieu:        Weights{"Urbain": 0.63, "Rural": 0.37},
			MaritalStatus: Weights{"Célibataire": 0.35, "Marié": 0.55, "Divorcé": 0.07, "Veuf": 0.03},
			Education:     Weights{"Sans niveau": 0.25, "Fondamental": 0.35, "Secondaire": 0.25, "Supérieur": 0.15},
			Group: Weights{
				"Groupe 1": 0.05, "Groupe 2": 0.15, "Groupe 3": 0.20,
				"Groupe 4": 0.20, "Groupe 5": 0.25, "Groupe 6": 0.15,
			},
			SocialAid:        0.3,
			CreditAccess:     0.4,
			OwnsCar:          0.3,
			OwnsHome:         0.6,
			OwnsLand:         0.2,
			AgeMin:           18,
			AgeMax:           80,
			HouseholdSizeMin: 1,
			HouseholdSizeMax: 10,
			PostalCodeMin:    10000,
			PostalCodeMax:    99999,
		},
		Derivation: Derivation{
			CareerStartAge: IntTable{"Sans niveau": 15, "Fondamental": 16, "Secondaire": 19, "Supérieur": 23},
			MaxInactivity:  4,
			RetirementAge:  60,
			CreditAccessGroup: Weights{
				"Groupe 1": 0.8, "Groupe 2": 0.8, "Groupe 3": 0.5,
				"Groupe 4": 0.5, "Groupe 5": 0.2, "Groupe 6": 0.2,
			},
		},
		Income: Income{
			Base:                 4000,
			PerYearOfExperience:  800,
			EducationMultipliers: Weights{"Sans niveau": 0.4, "Fondamental": 0.7, "Secondaire": 1.5, "Supérieur": 3.0},
			GroupMultipliers: Weights{
				"Groupe 1": 4.0, "Groupe 2": 2.0, "Groupe 3": 1.2,
				"Groupe 4": 0.8, "Groupe 5": 0.6, "Groupe 6": 0.4,
			},
			UrbanHigherEdBonus: 1.5,
			NoiseSigma:         0.1,
			Floor:              1000,
		},
		Shape: Shape{
			Tolerance:     1.0,
			MaxIterations: 10,
			UpperBand:     1.2,
			LowerBand:     0.8,
			ShrinkFactor:  0.85,
			GrowFactor:    1.2,
		},
		Corruption: Corruption{
			OutlierRate:      0.01,
			AgeOutlierMin:    100,
			AgeOutlierMax:    120,
			IncomeOutlierMin: 300000,
			IncomeOutlierMax: 1000000,
			MissingRate:      0.05,
			MissingFields: []string{
				"niveau_education", "annees_experience", "taille_foyer",
				"possede_voiture", "possede_logement",
			},
		},
		Output: Output{
			Path: "dataset_revenu_marocains.csv",
		},
		LogLevel: "info",
	}
}

// RegistrationTime returns the parsed registration date, or today's date in
// UTC when none is configured.
func (c *Config) RegistrationTime() (time.Time, error) {
	if c.RegistrationDate == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(DateLayout, c.RegistrationDate)
}

// ManifestFile returns the manifest path, defaulting to the output path with
// a .manifest.json suffix.
func (c *Config) ManifestFile() string {
	if c.Output.ManifestPath != "" {
		return c.Output.ManifestPath
	}
	if c.Output.Path == "" {
		return ""
	}
	return c.Output.Path + ".manifest.json"
}
