package grad

import (
	"fmt"
	"math"

	"github.com/evolib/cne/internal/funcs"
)

// SCDConfig holds the hyperparameters for stochastic coordinate descent.
type SCDConfig struct {
	// StepSize is the learning rate for each per-feature update.
	StepSize float64

	// MaxIterations bounds the number of single-feature updates.
	MaxIterations int

	// Tolerance stops the run when the objective improves by less than this
	// across one full cycle over the features. Negative disables the check.
	Tolerance float64
}

// DefaultSCDConfig returns the usual starting point.
func DefaultSCDConfig() SCDConfig {
	return SCDConfig{
		StepSize:      0.01,
		MaxIterations: 100000,
		Tolerance:     1e-9,
	}
}

// SCD minimizes a feature-resolvable objective one feature at a time,
// cycling through the features in order. Because each FeatureGradient is
// nonzero only at its own column, updates to different features are
// disjoint.
type SCD struct {
	cfg SCDConfig
}

// NewSCD validates the configuration and creates the optimizer.
func NewSCD(cfg SCDConfig) (*SCD, error) {
	if cfg.StepSize <= 0 {
		return nil, fmt.Errorf("scd: step size must be positive, got %g", cfg.StepSize)
	}
	if cfg.MaxIterations < 1 {
		return nil, fmt.Errorf("scd: max iterations must be positive, got %d", cfg.MaxIterations)
	}
	return &SCD{cfg: cfg}, nil
}

// Optimize runs coordinate descent from the initial point and returns the
// final parameters and objective value.
func (s *SCD) Optimize(f funcs.Resolvable, initial []float64) ([]float64, float64, error) {
	d := f.NumFeatures()
	if d == 0 {
		return nil, 0, fmt.Errorf("scd: objective has no features")
	}

	params := make([]float64, len(initial))
	copy(params, initial)

	lastObjective := math.Inf(1)
	for it := 0; it < s.cfg.MaxIterations; it++ {
		j := it % d

		grad, err := f.FeatureGradient(params, j)
		if err != nil {
			return nil, 0, err
		}
		for k, idx := range grad.Indices {
			params[idx] -= s.cfg.StepSize * grad.Values[k]
		}

		if j == d-1 && s.cfg.Tolerance >= 0 {
			objective, err := f.Evaluate(params)
			if err != nil {
				return nil, 0, err
			}
			if math.Abs(lastObjective-objective) < s.cfg.Tolerance {
				return params, objective, nil
			}
			lastObjective = objective
		}
	}

	objective, err := f.Evaluate(params)
	if err != nil {
		return nil, 0, err
	}
	return params, objective, nil
}
