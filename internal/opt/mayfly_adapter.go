package opt

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter wraps the external mayfly swarm optimizer as an alternative
// engine. It is box-constrained and expects identical bounds across
// dimensions.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a mayfly engine adapter.
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run executes the mayfly optimization. The external library has no
// cancellation hook, so the context is only checked between iterationless
// boundaries: before the run starts and after it returns.
func (m *MayflyAdapter) Run(ctx context.Context, eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	config := mayfly.NewDefaultConfig()

	config.ObjectiveFunc = eval
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize

	// The external library uses scalar bounds shared by all dimensions.
	config.LowerBound = lower[0]
	config.UpperBound = upper[0]

	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, 0, fmt.Errorf("mayfly optimization failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	return result.GlobalBest.Position, result.GlobalBest.Cost, nil
}
