// Package problems provides concrete objective functions: classic benchmark
// surfaces for exercising the optimizers, and a logistic regression loss that
// implements every capability variant of the function contract.
package problems

import (
	"fmt"
	"sort"

	"github.com/evolib/cne/internal/funcs"
)

// Problem is an objective selectable by name from the CLI and the job
// server. Bounds are the recommended search box for bounded optimizers.
type Problem interface {
	funcs.Evaluator

	// Dimension returns the size of the parameter vector.
	Dimension() int

	// Bounds returns per-parameter lower and upper search bounds.
	Bounds() (lower, upper []float64)
}

// UnknownProblemError is returned when a problem name is not registered.
type UnknownProblemError struct {
	Name string
}

func (e *UnknownProblemError) Error() string {
	return "unknown problem: " + e.Name
}

// DimensionError reports a parameter vector of the wrong length.
type DimensionError struct {
	Want, Got int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("parameter vector has %d elements, want %d", e.Got, e.Want)
}

var registry = map[string]func(dim int) (Problem, error){
	"sphere":     func(dim int) (Problem, error) { return NewSphere(dim) },
	"rosenbrock": func(dim int) (Problem, error) { return NewRosenbrock(dim) },
	"rastrigin":  func(dim int) (Problem, error) { return NewRastrigin(dim) },
}

// New builds the named benchmark problem with the given dimensionality.
func New(name string, dim int) (Problem, error) {
	build, ok := registry[name]
	if !ok {
		return nil, &UnknownProblemError{Name: name}
	}
	return build(dim)
}

// Names returns the registered problem names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// uniformBounds builds symmetric per-parameter bounds.
func uniformBounds(dim int, lo, hi float64) (lower, upper []float64) {
	lower = make([]float64, dim)
	upper = make([]float64, dim)
	for i := range lower {
		lower[i] = lo
		upper[i] = hi
	}
	return lower, upper
}
