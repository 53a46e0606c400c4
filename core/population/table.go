package population

import (
	"fmt"

	"github.com/ezoic/popsynth/pkg/errors"
)

// Lookup tables are fixed-size arrays indexed by category. They are passed
// by value, so a stage holding one cannot observe later edits by its caller.

// EducationTable maps each education level to a value.
type EducationTable[T any] [NumEducations]T

// Lookup returns the value for e. Values outside the four declared levels
// are rejected rather than defaulted.
func (t EducationTable[T]) Lookup(e Education) (T, error) {
	if !e.Valid() {
		var zero T
		return zero, errors.NewUnknownCategoryError("niveau_education", fmt.Sprintf("code %d", e))
	}
	return t[e], nil
}

// GroupTable maps each socio-professional group to a value.
type GroupTable[T any] [NumGroups]T

// Lookup returns the value for g.
func (t GroupTable[T]) Lookup(g SocioGroup) (T, error) {
	if !g.Valid() {
		var zero T
		return zero, errors.NewUnknownCategoryError("categorie_socioprofessionnelle", fmt.Sprintf("code %d", g))
	}
	return t[g], nil
}

// RegionTable maps each region to a value.
type RegionTable[T any] [NumRegions]T

// Slice returns the values in canonical region order.
func (t RegionTable[T]) Slice() []T {
	out := make([]T, NumRegions)
	copy(out, t[:])
	return out
}

// MilieuTable maps each milieu to a value.
type MilieuTable[T any] [NumMilieux]T

// Get returns the value for m.
func (t MilieuTable[T]) Get(m Milieu) T {
	return t[m]
}
