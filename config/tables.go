package config

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/pkg/errors"
)

type category interface {
	~uint8
	String() string
}

// build resolves the name-keyed map src into a slice indexed by category
// code. Keys are visited in sorted order so the first reported error does
// not depend on map iteration. With complete set, every category must be
// present; otherwise absent categories get the zero value.
func build[K category, V any](param string, src map[string]V, n int, complete bool, parse func(string) (K, error)) ([]V, error) {
	out := make([]V, n)
	seen := make([]bool, n)
	keys := maps.Keys(src)
	slices.Sort(keys)
	for _, name := range keys {
		k, err := parse(name)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", param)
		}
		out[k] = src[name]
		seen[k] = true
	}
	if complete {
		for i, ok := range seen {
			if !ok {
				return nil, errors.NewValidationError(param, "missing category", K(i).String())
			}
		}
	}
	return out, nil
}

// RegionTable returns the region weights in canonical region order. Regions
// absent from the map get weight 0.
func (c *Config) RegionTable() (population.RegionTable[float64], error) {
	var t population.RegionTable[float64]
	w, err := build("region_weights", c.RegionWeights, population.NumRegions, false, population.ParseRegion)
	if err != nil {
		return t, err
	}
	copy(t[:], w)
	return t, nil
}

// SexWeights returns the sex marginal in code order.
func (m *Marginals) SexWeights() ([]float64, error) {
	return build("marginals.sex", m.Sex, population.NumSexes, false, population.ParseSex)
}

// MilieuWeights returns the milieu marginal in code order.
func (m *Marginals) MilieuWeights() ([]float64, error) {
	return build("marginals.milieu", m.Milieu, population.NumMilieux, false, population.ParseMilieu)
}

// MaritalStatusWeights returns the marital status marginal in code order.
func (m *Marginals) MaritalStatusWeights() ([]float64, error) {
	return build("marginals.marital_status", m.MaritalStatus, population.NumMaritalStatuses, false, population.ParseMaritalStatus)
}

// EducationWeights returns the education marginal in code order.
func (m *Marginals) EducationWeights() ([]float64, error) {
	return build("marginals.education", m.Education, population.NumEducations, false, population.ParseEducation)
}

// GroupWeights returns the socio-professional group marginal in code order.
func (m *Marginals) GroupWeights() ([]float64, error) {
	return build("marginals.group", m.Group, population.NumGroups, false, population.ParseSocioGroup)
}

// CareerStartTable returns the career start age per education level.
func (d *Derivation) CareerStartTable() (population.EducationTable[int], error) {
	var t population.EducationTable[int]
	v, err := build("derivation.career_start_age", d.CareerStartAge, population.NumEducations, true, population.ParseEducation)
	if err != nil {
		return t, err
	}
	copy(t[:], v)
	return t, nil
}

// CreditAccessTable returns P(credit access) per socio-professional group.
func (d *Derivation) CreditAccessTable() (population.GroupTable[float64], error) {
	var t population.GroupTable[float64]
	v, err := build("derivation.credit_access_by_group", d.CreditAccessGroup, population.NumGroups, true, population.ParseSocioGroup)
	if err != nil {
		return t, err
	}
	copy(t[:], v)
	return t, nil
}

// EducationMultiplierTable returns the income multiplier per education level.
func (i *Income) EducationMultiplierTable() (population.EducationTable[float64], error) {
	var t population.EducationTable[float64]
	v, err := build("income.education_multipliers", i.EducationMultipliers, population.NumEducations, true, population.ParseEducation)
	if err != nil {
		return t, err
	}
	copy(t[:], v)
	return t, nil
}

// GroupMultiplierTable returns the income multiplier per group.
func (i *Income) GroupMultiplierTable() (population.GroupTable[float64], error) {
	var t population.GroupTable[float64]
	v, err := build("income.group_multipliers", i.GroupMultipliers, population.NumGroups, true, population.ParseSocioGroup)
	if err != nil {
		return t, err
	}
	copy(t[:], v)
	return t, nil
}

// Fields resolves MissingFields column names. Duplicates are dropped.
func (c *Corruption) Fields() ([]population.Field, error) {
	byColumn := make(map[string]population.Field)
	for _, f := range population.MissableFields() {
		byColumn[f.Column()] = f
	}
	var set population.FieldSet
	out := make([]population.Field, 0, len(c.MissingFields))
	for _, name := range c.MissingFields {
		f, ok := byColumn[name]
		if !ok {
			return nil, errors.NewUnknownCategoryError("corruption.missing_fields", name)
		}
		if set.Has(f) {
			continue
		}
		set = set.With(f)
		out = append(out, f)
	}
	return out, nil
}
