// Package population defines the synthetic population table: the Individual
// record, its categorical attributes, the fixed lookup tables keyed by those
// categories and the stable output schema.
//
// A Population is created once per run, owned by a single pipeline and
// mutated in place by each stage in turn.
package population

// Population is the in-memory table of generated individuals, in row order.
type Population struct {
	Rows []Individual
}

// New allocates a population of n zero-valued rows.
func New(n int) *Population {
	return &Population{Rows: make([]Individual, n)}
}

// Len returns the number of rows.
func (p *Population) Len() int {
	return len(p.Rows)
}

// Partition returns the row indices belonging to milieu m, in row order.
func (p *Population) Partition(m Milieu) []int {
	idx := make([]int, 0, len(p.Rows))
	for i := range p.Rows {
		if p.Rows[i].Milieu == m {
			idx = append(idx, i)
		}
	}
	return idx
}

// Incomes returns the incomes of the given rows as floats, or of every row
// when idx is nil.
func (p *Population) Incomes(idx []int) []float64 {
	if idx == nil {
		out := make([]float64, len(p.Rows))
		for i := range p.Rows {
			out[i] = float64(p.Rows[i].Income)
		}
		return out
	}
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = float64(p.Rows[i].Income)
	}
	return out
}

