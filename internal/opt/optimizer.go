package opt

import "context"

// Optimizer defines an optimization engine usable by the CLI and job server.
type Optimizer interface {
	// Run minimizes eval over a dim-dimensional box. The bounds guide
	// initialization; engines are free to wander outside them unless the
	// underlying algorithm is box-constrained. Cancelling the context aborts
	// the run with the context's error.
	// Returns the best parameters found and their objective value.
	Run(ctx context.Context, eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64, error)
}
