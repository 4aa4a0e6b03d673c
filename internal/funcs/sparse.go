package funcs

import "fmt"

// SparseVector is a gradient with few nonzero coordinates, stored as
// parallel index/value slices. Indices are unique but not required to be
// sorted.
type SparseVector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// NewSparseVector creates an empty sparse vector over a dim-dimensional
// space.
func NewSparseVector(dim int) *SparseVector {
	return &SparseVector{Dim: dim}
}

// Set records value at coordinate i, overwriting any previous entry.
func (v *SparseVector) Set(i int, value float64) {
	for k, idx := range v.Indices {
		if idx == i {
			v.Values[k] = value
			return
		}
	}
	v.Indices = append(v.Indices, i)
	v.Values = append(v.Values, value)
}

// At returns the value at coordinate i (zero if absent).
func (v *SparseVector) At(i int) float64 {
	for k, idx := range v.Indices {
		if idx == i {
			return v.Values[k]
		}
	}
	return 0
}

// NNZ returns the number of stored entries.
func (v *SparseVector) NNZ() int {
	return len(v.Indices)
}

// Dense expands the vector to a dense slice of length Dim.
func (v *SparseVector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for k, idx := range v.Indices {
		out[idx] = v.Values[k]
	}
	return out
}

// Validate checks that all indices are in range.
func (v *SparseVector) Validate() error {
	if len(v.Indices) != len(v.Values) {
		return fmt.Errorf("sparse vector: %d indices but %d values", len(v.Indices), len(v.Values))
	}
	for _, idx := range v.Indices {
		if idx < 0 || idx >= v.Dim {
			return fmt.Errorf("sparse vector: index %d out of range [0,%d)", idx, v.Dim)
		}
	}
	return nil
}
