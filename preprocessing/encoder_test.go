package preprocessing_test

import (
	"math"
	"testing"

	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/preprocessing"
)

func TestOneHotEncoder_Fit(t *testing.T) {
	data := [][]string{
		{"Urbain", "Marié"},
		{"Rural", "Célibataire"},
		{"Urbain", "Marié"},
		{"Rural", "Veuf"},
	}

	encoder := preprocessing.NewOneHotEncoder()
	if err := encoder.Fit(data); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if !encoder.IsFitted() {
		t.Error("Encoder should be fitted after Fit()")
	}
	if encoder.NFeatures != 2 {
		t.Errorf("Expected NFeatures=2, got %d", encoder.NFeatures)
	}

	// カテゴリはソート済み
	expected := [][]string{
		{"Rural", "Urbain"},
		{"Célibataire", "Marié", "Veuf"},
	}
	for i, cats := range expected {
		if len(encoder.Categories[i]) != len(cats) {
			t.Fatalf("Feature %d: expected %d categories, got %d", i, len(cats), len(encoder.Categories[i]))
		}
		for j, c := range cats {
			if encoder.Categories[i][j] != c {
				t.Errorf("Feature %d, category %d: expected %s, got %s", i, j, c, encoder.Categories[i][j])
			}
		}
	}
	if encoder.NOutputs != 5 {
		t.Errorf("Expected NOutputs=5, got %d", encoder.NOutputs)
	}
}

func TestOneHotEncoder_DropFirst(t *testing.T) {
	data := [][]string{
		{"Homme", "Urbain"},
		{"Femme", "Rural"},
		{"Femme", "Urbain"},
	}
	encoder := preprocessing.NewOneHotEncoder(preprocessing.WithDropFirst())
	result, err := encoder.FitTransform(data)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	names := encoder.GetFeatureNamesOut([]string{"sexe", "milieu"})
	if len(names) != 2 || names[0] != "sexe_Homme" || names[1] != "milieu_Urbain" {
		t.Fatalf("unexpected names %v", names)
	}

	expected := [][]float64{
		{1, 1},
		{0, 0},
		{0, 1},
	}
	r, c := result.Dims()
	if r != 3 || c != 2 {
		t.Fatalf("Expected 3x2 matrix, got %dx%d", r, c)
	}
	for i := range expected {
		for j := range expected[i] {
			if got := result.At(i, j); got != expected[i][j] {
				t.Errorf("Result[%d][%d]: expected %f, got %f", i, j, expected[i][j], got)
			}
		}
	}
}

func TestOneHotEncoder_FixedCategories(t *testing.T) {
	encoder := preprocessing.NewOneHotEncoder(
		preprocessing.WithDropFirst(),
		preprocessing.WithCategories([][]string{{"Veuf", "Célibataire", "Divorcé", "Marié"}}),
	)

	// データに現れないカテゴリも列になる
	result, err := encoder.FitTransform([][]string{{"Marié"}})
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	names := encoder.GetFeatureNamesOut([]string{"etat_matrimonial"})
	want := []string{"etat_matrimonial_Divorcé", "etat_matrimonial_Marié", "etat_matrimonial_Veuf"}
	if len(names) != len(want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("name[%d]: expected %s, got %s", i, want[i], names[i])
		}
	}
	if result.At(0, 1) != 1 || result.At(0, 0) != 0 || result.At(0, 2) != 0 {
		t.Errorf("unexpected encoding %v", result.RawRowView(0))
	}

	// 固定カテゴリ外の値はエラー
	err = encoder.Fit([][]string{{"Pacsé"}})
	if !errors.Is(err, errors.ErrUnknownCategory) {
		t.Errorf("Expected ErrUnknownCategory, got %v", err)
	}
}

func TestOneHotEncoder_UnknownAndMissing(t *testing.T) {
	encoder := preprocessing.NewOneHotEncoder()
	if err := encoder.Fit([][]string{{"Rural"}, {"Urbain"}}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	result, err := encoder.Transform([][]string{{"Urbain"}, {"Périurbain"}, {""}})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	expected := [][]float64{{0, 1}, {0, 0}, {0, 0}}
	for i := range expected {
		for j := range expected[i] {
			if got := result.At(i, j); got != expected[i][j] {
				t.Errorf("Result[%d][%d]: expected %f, got %f", i, j, expected[i][j], got)
			}
		}
	}
}

func TestOneHotEncoder_Errors(t *testing.T) {
	encoder := preprocessing.NewOneHotEncoder()

	if _, err := encoder.Transform([][]string{{"Rural"}}); !errors.Is(err, errors.ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}
	if err := encoder.Fit([][]string{}); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("Expected ErrEmptyData, got %v", err)
	}
	if err := encoder.Fit([][]string{{"A", "X"}, {"B"}}); err == nil {
		t.Error("Expected error for ragged rows, got nil")
	}

	if err := encoder.Fit([][]string{{"A", "X"}, {"B", "Y"}}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := encoder.Transform([][]string{{"A", "X", "Z"}}); err == nil {
		t.Error("Expected error for dimension mismatch, got nil")
	}
}

func TestOneHotEncoder_GetFeatureNamesOut_Unfitted(t *testing.T) {
	encoder := preprocessing.NewOneHotEncoder()
	if names := encoder.GetFeatureNamesOut(nil); names != nil {
		t.Errorf("Expected nil for unfitted encoder, got %v", names)
	}
}

func TestOrdinalEncoder(t *testing.T) {
	encoder := preprocessing.NewOrdinalEncoder(
		[]string{"Sans niveau", "Fondamental", "Secondaire", "Supérieur"},
		[]string{"Jeune", "Adulte", "Sénior", "Âgé"},
	)
	result, err := encoder.Transform([][]string{
		{"Secondaire", "Âgé"},
		{"", "Jeune"},
	})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if result.At(0, 0) != 2 || result.At(0, 1) != 3 || result.At(1, 1) != 0 {
		t.Errorf("unexpected encoding %v %v", result.RawRowView(0), result.RawRowView(1))
	}
	if !math.IsNaN(result.At(1, 0)) {
		t.Errorf("missing value should encode as NaN, got %f", result.At(1, 0))
	}

	_, err = encoder.Transform([][]string{{"Doctorat", "Jeune"}})
	if !errors.Is(err, errors.ErrUnknownCategory) {
		t.Errorf("Expected ErrUnknownCategory, got %v", err)
	}
}
