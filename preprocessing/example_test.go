package preprocessing_test

import (
	"fmt"
	"log/slog"

	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/preprocessing"
)

// ExampleOneHotEncoder demonstrates drop-first one-hot encoding
func ExampleOneHotEncoder() {
	data := [][]string{
		{"Rabat-Salé-Kénitra"},
		{"Casablanca-Settat"},
		{"Fès-Meknès"},
		{"Casablanca-Settat"},
	}

	encoder := preprocessing.NewOneHotEncoder(preprocessing.WithDropFirst())
	encoded, err := encoder.FitTransform(data)
	if err != nil {
		slog.Error("Test failed", "error", err)
		return
	}

	r, c := encoded.Dims()
	fmt.Printf("Features: %v\n", encoder.GetFeatureNamesOut([]string{"region"}))
	fmt.Printf("Encoded shape: (%d, %d)\n", r, c)

	// Output:
	// Features: [region_Fès-Meknès region_Rabat-Salé-Kénitra]
	// Encoded shape: (4, 2)
}

// ExampleFeatures demonstrates building the serving feature matrix
func ExampleFeatures() {
	pop := population.New(1)
	ind := &pop.Rows[0]
	ind.Age = 40
	ind.Sex = population.Femme
	ind.Milieu = population.Urbain
	ind.MaritalStatus = population.Marie
	ind.Region = population.CasablancaSettat
	ind.Education = population.Superieur
	ind.Group = population.Groupe2
	ind.AgeCategory = population.AgeCategoryOf(40)
	ind.HouseholdSize = 4
	ind.OwnsCar = true
	ind.OwnsHome = true
	ind.Experience = 17
	ind.Income = 48000

	fs, err := preprocessing.Features(pop)
	if err != nil {
		slog.Error("Test failed", "error", err)
		return
	}

	r, c := fs.X.Dims()
	fmt.Printf("Shape: (%d, %d)\n", r, c)
	for j, name := range fs.Names[9:13] {
		fmt.Printf("%s: %.4g\n", name, fs.X.At(0, 9+j))
	}

	// Output:
	// Shape: (1, 32)
	// ratio_possessions: 0.6667
	// indice_stabilite: 0.5
	// ratio_experience_age: 0.425
	// revenu_par_personne: 1.2e+04
}
