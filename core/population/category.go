package population

import (
	"github.com/ezoic/popsynth/pkg/errors"
)

// Category counts.
const (
	NumSexes           = 2
	NumMilieux         = 2
	NumMaritalStatuses = 4
	NumEducations      = 4
	NumGroups          = 6
	NumAgeCategories   = 4
	NumRegions         = 12
)

// Sex of an individual.
type Sex uint8

const (
	Homme Sex = iota
	Femme
)

var sexNames = [NumSexes]string{"Homme", "Femme"}

func (s Sex) String() string { return nameOf(sexNames[:], int(s)) }

// Valid reports whether s is a declared value.
func (s Sex) Valid() bool { return int(s) < NumSexes }

// ParseSex returns the sex named s.
func ParseSex(s string) (Sex, error) {
	i, err := parse(sexNames[:], "sexe", s)
	return Sex(i), err
}

// Milieu is the urban/rural residency category, the partition key for
// income targets.
type Milieu uint8

const (
	Urbain Milieu = iota
	Rural
)

var milieuNames = [NumMilieux]string{"Urbain", "Rural"}

func (m Milieu) String() string { return nameOf(milieuNames[:], int(m)) }

// Valid reports whether m is a declared value.
func (m Milieu) Valid() bool { return int(m) < NumMilieux }

// MarshalText encodes m by name.
func (m Milieu) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText parses a milieu name.
func (m *Milieu) UnmarshalText(b []byte) error {
	v, err := ParseMilieu(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Milieux lists every milieu in canonical order.
func Milieux() []Milieu { return []Milieu{Urbain, Rural} }

// ParseMilieu returns the milieu named s.
func ParseMilieu(s string) (Milieu, error) {
	i, err := parse(milieuNames[:], "milieu", s)
	return Milieu(i), err
}

// MaritalStatus of an individual.
type MaritalStatus uint8

const (
	Celibataire MaritalStatus = iota
	Marie
	Divorce
	Veuf
)

var maritalNames = [NumMaritalStatuses]string{"Célibataire", "Marié", "Divorcé", "Veuf"}

func (m MaritalStatus) String() string { return nameOf(maritalNames[:], int(m)) }

// Valid reports whether m is a declared value.
func (m MaritalStatus) Valid() bool { return int(m) < NumMaritalStatuses }

// ParseMaritalStatus returns the marital status named s.
func ParseMaritalStatus(s string) (MaritalStatus, error) {
	i, err := parse(maritalNames[:], "etat_matrimonial", s)
	return MaritalStatus(i), err
}

// Education level, ordered from lowest to highest.
type Education uint8

const (
	SansNiveau Education = iota
	Fondamental
	Secondaire
	Superieur
)

var educationNames = [NumEducations]string{"Sans niveau", "Fondamental", "Secondaire", "Supérieur"}

func (e Education) String() string { return nameOf(educationNames[:], int(e)) }

// Valid reports whether e is one of the four declared levels.
func (e Education) Valid() bool { return int(e) < NumEducations }

// ParseEducation returns the education level named s.
func ParseEducation(s string) (Education, error) {
	i, err := parse(educationNames[:], "niveau_education", s)
	return Education(i), err
}

// SocioGroup is the socio-professional group, Groupe 1 being the highest
// earning.
type SocioGroup uint8

const (
	Groupe1 SocioGroup = iota
	Groupe2
	Groupe3
	Groupe4
	Groupe5
	Groupe6
)

var groupNames = [NumGroups]string{"Groupe 1", "Groupe 2", "Groupe 3", "Groupe 4", "Groupe 5", "Groupe 6"}

func (g SocioGroup) String() string { return nameOf(groupNames[:], int(g)) }

// Valid reports whether g is a declared group.
func (g SocioGroup) Valid() bool { return int(g) < NumGroups }

// ParseSocioGroup returns the group named s.
func ParseSocioGroup(s string) (SocioGroup, error) {
	i, err := parse(groupNames[:], "categorie_socioprofessionnelle", s)
	return SocioGroup(i), err
}

// AgeCategory buckets ages into four bands.
type AgeCategory uint8

const (
	Jeune AgeCategory = iota
	Adulte
	Senior
	Age
)

var ageCategoryNames = [NumAgeCategories]string{"Jeune", "Adulte", "Sénior", "Âgé"}

func (a AgeCategory) String() string { return nameOf(ageCategoryNames[:], int(a)) }

// AgeCategoryOf maps an age onto its band: [18,30) Jeune, [30,50) Adulte,
// [50,65) Sénior, [65,∞) Âgé. Ages under 18 fall into Jeune.
func AgeCategoryOf(age int) AgeCategory {
	switch {
	case age < 30:
		return Jeune
	case age < 50:
		return Adulte
	case age < 65:
		return Senior
	default:
		return Age
	}
}

// Region is one of the twelve administrative regions.
type Region uint8

const (
	TangerTetouanAlHoceima Region = iota
	LOriental
	FesMeknes
	RabatSaleKenitra
	BeniMellalKhenifra
	CasablancaSettat
	MarrakechSafi
	DraaTafilalet
	SoussMassa
	GuelmimOuedNoun
	LaayouneSakiaElHamra
	DakhlaOuedEdDahab
)

var regionNames = [NumRegions]string{
	"Tanger-Tétouan-Al Hoceïma", "L'Oriental", "Fès-Meknès", "Rabat-Salé-Kénitra",
	"Béni Mellal-Khénifra", "Casablanca-Settat", "Marrakech-Safi", "Drâa-Tafilalet",
	"Souss-Massa", "Guelmim-Oued Noun", "Laâyoune-Sakia El Hamra", "Dakhla-Oued Ed-Dahab",
}

func (r Region) String() string { return nameOf(regionNames[:], int(r)) }

// Valid reports whether r is a declared region.
func (r Region) Valid() bool { return int(r) < NumRegions }

// Regions lists every region in canonical order.
func Regions() []Region {
	out := make([]Region, NumRegions)
	for i := range out {
		out[i] = Region(i)
	}
	return out
}

// ParseRegion returns the region named s.
func ParseRegion(s string) (Region, error) {
	i, err := parse(regionNames[:], "region", s)
	return Region(i), err
}

func nameOf(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "unknown"
	}
	return names[i]
}

func parse(names []string, param, s string) (int, error) {
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, errors.NewUnknownCategoryError(param, s)
}
