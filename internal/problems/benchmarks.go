package problems

import (
	"fmt"
	"math"
)

// Sphere is f(x) = sum(x_i^2), minimum 0 at the origin. Smooth, convex, the
// standard smoke test for any optimizer.
type Sphere struct {
	dim int
}

// NewSphere creates a sphere objective over dim parameters.
func NewSphere(dim int) (*Sphere, error) {
	if dim < 1 {
		return nil, fmt.Errorf("sphere: dimension must be positive, got %d", dim)
	}
	return &Sphere{dim: dim}, nil
}

func (s *Sphere) Dimension() int { return s.dim }

func (s *Sphere) Bounds() (lower, upper []float64) {
	return uniformBounds(s.dim, -10, 10)
}

func (s *Sphere) Evaluate(params []float64) (float64, error) {
	if len(params) != s.dim {
		return 0, &DimensionError{Want: s.dim, Got: len(params)}
	}
	var sum float64
	for _, v := range params {
		sum += v * v
	}
	return sum, nil
}

func (s *Sphere) Gradient(params []float64) ([]float64, error) {
	if len(params) != s.dim {
		return nil, &DimensionError{Want: s.dim, Got: len(params)}
	}
	grad := make([]float64, s.dim)
	for i, v := range params {
		grad[i] = 2 * v
	}
	return grad, nil
}

// Rosenbrock is the banana-valley function, minimum 0 at (1,...,1).
// Non-convex with a long, flat curved valley.
type Rosenbrock struct {
	dim int
}

// NewRosenbrock creates a Rosenbrock objective; it needs at least two
// parameters.
func NewRosenbrock(dim int) (*Rosenbrock, error) {
	if dim < 2 {
		return nil, fmt.Errorf("rosenbrock: dimension must be at least 2, got %d", dim)
	}
	return &Rosenbrock{dim: dim}, nil
}

func (r *Rosenbrock) Dimension() int { return r.dim }

func (r *Rosenbrock) Bounds() (lower, upper []float64) {
	return uniformBounds(r.dim, -5, 10)
}

func (r *Rosenbrock) Evaluate(params []float64) (float64, error) {
	if len(params) != r.dim {
		return 0, &DimensionError{Want: r.dim, Got: len(params)}
	}
	var sum float64
	for i := 0; i < r.dim-1; i++ {
		a := params[i+1] - params[i]*params[i]
		b := 1 - params[i]
		sum += 100*a*a + b*b
	}
	return sum, nil
}

func (r *Rosenbrock) Gradient(params []float64) ([]float64, error) {
	if len(params) != r.dim {
		return nil, &DimensionError{Want: r.dim, Got: len(params)}
	}
	grad := make([]float64, r.dim)
	for i := 0; i < r.dim-1; i++ {
		a := params[i+1] - params[i]*params[i]
		grad[i] += -400*params[i]*a - 2*(1-params[i])
		grad[i+1] += 200 * a
	}
	return grad, nil
}

// Rastrigin is a highly multimodal surface with a regular grid of local
// minima, global minimum 0 at the origin.
type Rastrigin struct {
	dim int
}

// NewRastrigin creates a Rastrigin objective over dim parameters.
func NewRastrigin(dim int) (*Rastrigin, error) {
	if dim < 1 {
		return nil, fmt.Errorf("rastrigin: dimension must be positive, got %d", dim)
	}
	return &Rastrigin{dim: dim}, nil
}

func (r *Rastrigin) Dimension() int { return r.dim }

func (r *Rastrigin) Bounds() (lower, upper []float64) {
	return uniformBounds(r.dim, -5.12, 5.12)
}

func (r *Rastrigin) Evaluate(params []float64) (float64, error) {
	if len(params) != r.dim {
		return 0, &DimensionError{Want: r.dim, Got: len(params)}
	}
	sum := 10 * float64(r.dim)
	for _, v := range params {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum, nil
}

func (r *Rastrigin) Gradient(params []float64) ([]float64, error) {
	if len(params) != r.dim {
		return nil, &DimensionError{Want: r.dim, Got: len(params)}
	}
	grad := make([]float64, r.dim)
	for i, v := range params {
		grad[i] = 2*v + 20*math.Pi*math.Sin(2*math.Pi*v)
	}
	return grad, nil
}
