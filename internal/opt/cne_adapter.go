package opt

import (
	"context"
	"math/rand"

	"github.com/evolib/cne/internal/cne"
	"github.com/evolib/cne/internal/funcs"
)

// CNEAdapter runs the in-tree CNE optimizer behind the engine interface.
type CNEAdapter struct {
	cfg cne.Config

	// Progress, if set, receives the per-generation best fitness and a copy
	// of the best parameter vector.
	Progress func(generation int, bestFitness float64, bestParams []float64)
}

// NewCNE creates a CNE engine adapter. The configuration is validated when
// Run constructs the optimizer.
func NewCNE(cfg cne.Config) *CNEAdapter {
	return &CNEAdapter{cfg: cfg}
}

// Run samples a starting point uniformly inside the bounds and minimizes
// from there. The CNE population is unconstrained after initialization.
func (a *CNEAdapter) Run(ctx context.Context, eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64, error) {
	optimizer, err := cne.New(a.cfg)
	if err != nil {
		return nil, 0, err
	}
	if a.Progress != nil {
		optimizer.ProgressFunc = func(p cne.Progress) {
			a.Progress(p.Generation, p.BestFitness, p.BestParams)
		}
	}

	rng := rand.New(rand.NewSource(a.cfg.Seed))
	initial := make([]float64, dim)
	for i := range initial {
		initial[i] = lower[i] + rng.Float64()*(upper[i]-lower[i])
	}

	// Cancellation rides on the evaluator: the first evaluation after the
	// context is done aborts the generation loop.
	objective := funcs.EvaluatorFunc(func(params []float64) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return eval(params), nil
	})

	result, err := optimizer.Optimize(objective, initial)
	if err != nil {
		return nil, 0, err
	}
	return result.BestParams, result.BestFitness, nil
}
