package population

// Field identifies a column that can be marked missing.
type Field uint8

const (
	FieldEducation Field = iota
	FieldExperience
	FieldHouseholdSize
	FieldOwnsCar
	FieldOwnsHome
)

// MissableFields lists the columns subject to missing-value injection.
func MissableFields() []Field {
	return []Field{FieldEducation, FieldExperience, FieldHouseholdSize, FieldOwnsCar, FieldOwnsHome}
}

// Column returns the output column name of f.
func (f Field) Column() string {
	switch f {
	case FieldEducation:
		return ColEducation
	case FieldExperience:
		return ColExperience
	case FieldHouseholdSize:
		return ColHouseholdSize
	case FieldOwnsCar:
		return ColOwnsCar
	case FieldOwnsHome:
		return ColOwnsHome
	default:
		return "unknown"
	}
}

func (f Field) String() string { return f.Column() }

// FieldSet is a bit set of missing fields.
type FieldSet uint8

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool { return s&(1<<f) != 0 }

// With returns the set with f added.
func (s FieldSet) With(f Field) FieldSet { return s | 1<<f }

// Individual is one synthetic person.
//
// Fields listed in Missing keep the value they had when derivations ran;
// the mask only hides them at export time.
type Individual struct {
	ID            int
	Age           int
	Sex           Sex
	Milieu        Milieu
	MaritalStatus MaritalStatus
	Region        Region
	Education     Education
	Group         SocioGroup
	HouseholdSize int
	SocialAid     bool
	CreditAccess  bool
	Retired       bool
	OwnsCar       bool
	OwnsHome      bool
	OwnsLand      bool

	AgeCategory AgeCategory
	Experience  int
	Income      int

	AgeMonths        int
	IsUrban          bool
	IsMarried        bool
	RegistrationDate string
	PostalCode       int

	Missing FieldSet
}

// IsMissing reports whether f has been masked for this individual.
func (ind *Individual) IsMissing(f Field) bool {
	return ind.Missing.Has(f)
}
