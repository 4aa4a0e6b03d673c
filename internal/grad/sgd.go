// Package grad implements the gradient-based optimizer family around the
// function contracts in internal/funcs: stochastic gradient descent over
// decomposable objectives, lock-free parallel SGD over sparse gradients, and
// stochastic coordinate descent over feature-resolvable objectives.
package grad

import (
	"fmt"
	"math"

	"github.com/evolib/cne/internal/funcs"
)

// SGDConfig holds the hyperparameters for stochastic gradient descent.
type SGDConfig struct {
	// StepSize is the learning rate applied to every per-function gradient.
	StepSize float64

	// MaxIterations bounds the number of single-function steps.
	MaxIterations int

	// Tolerance stops the run when the full objective improves by less than
	// this across one pass over the dataset. Negative disables the check.
	Tolerance float64
}

// DefaultSGDConfig returns the usual starting point.
func DefaultSGDConfig() SGDConfig {
	return SGDConfig{
		StepSize:      0.01,
		MaxIterations: 100000,
		Tolerance:     1e-9,
	}
}

// SGD minimizes a decomposable objective by stepping along one part's
// gradient at a time, cycling through the parts in order.
type SGD struct {
	cfg SGDConfig
}

// NewSGD validates the configuration and creates the optimizer.
func NewSGD(cfg SGDConfig) (*SGD, error) {
	if cfg.StepSize <= 0 {
		return nil, fmt.Errorf("sgd: step size must be positive, got %g", cfg.StepSize)
	}
	if cfg.MaxIterations < 1 {
		return nil, fmt.Errorf("sgd: max iterations must be positive, got %d", cfg.MaxIterations)
	}
	return &SGD{cfg: cfg}, nil
}

// Optimize runs SGD from the initial point and returns the final parameters
// and full objective value. Gradient errors propagate unmodified.
func (s *SGD) Optimize(f funcs.Decomposable, initial []float64) ([]float64, float64, error) {
	n := f.NumFunctions()
	if n == 0 {
		return nil, 0, fmt.Errorf("sgd: objective has no functions")
	}

	params := make([]float64, len(initial))
	copy(params, initial)

	lastObjective := math.Inf(1)
	for it := 0; it < s.cfg.MaxIterations; it++ {
		i := it % n

		grad, err := f.GradientFunction(params, i)
		if err != nil {
			return nil, 0, err
		}
		for j := range params {
			params[j] -= s.cfg.StepSize * grad[j]
		}

		// Convergence is checked once per full pass.
		if i == n-1 && s.cfg.Tolerance >= 0 {
			objective, err := fullObjective(f, params)
			if err != nil {
				return nil, 0, err
			}
			if math.Abs(lastObjective-objective) < s.cfg.Tolerance {
				return params, objective, nil
			}
			lastObjective = objective
		}
	}

	objective, err := fullObjective(f, params)
	if err != nil {
		return nil, 0, err
	}
	return params, objective, nil
}

// fullObjective sums all separable parts.
func fullObjective(f funcs.Decomposable, params []float64) (float64, error) {
	var sum float64
	for i := 0; i < f.NumFunctions(); i++ {
		v, err := f.EvaluateFunction(params, i)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}
