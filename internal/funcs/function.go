// Package funcs defines the objective-function contracts consumed by the
// optimizers in this module. Each optimizer declares the smallest interface
// it needs; a single objective type may satisfy several of them.
package funcs

// Evaluator is the minimal capability: evaluate the objective at the given
// parameters. Gradient-free optimizers (such as CNE) require nothing else.
type Evaluator interface {
	// Evaluate returns the objective value at params. An error aborts the
	// consuming optimizer run; it is never retried.
	Evaluate(params []float64) (float64, error)
}

// Basic is the plain differentiable contract used by gradient-based
// optimizers: full objective value and full gradient.
type Basic interface {
	Evaluator

	// Gradient returns the gradient of the objective at params. The result
	// has the same length as params.
	Gradient(params []float64) ([]float64, error)
}

// Decomposable describes an objective that is a sum of NumFunctions()
// separable parts, e.g. one per data point. Stochastic and minibatch
// optimizers sample the parts individually.
type Decomposable interface {
	// NumFunctions returns the number of separable parts. For a
	// data-dependent objective this is the number of points in the dataset.
	NumFunctions() int

	// EvaluateFunction returns the value of the i-th part at params.
	EvaluateFunction(params []float64, i int) (float64, error)

	// GradientFunction returns the gradient of the i-th part at params.
	GradientFunction(params []float64, i int) ([]float64, error)
}

// Sparse is the contract for optimizers built on unsynchronised sparse
// updates (HOGWILD!-style parallel SGD): per-part gradients are expected to
// touch only a few coordinates.
type Sparse interface {
	Evaluator

	// NumFunctions returns the number of separable parts.
	NumFunctions() int

	// SparseGradient returns the gradient of the i-th part as a sparse
	// vector over the full parameter space.
	SparseGradient(params []float64, i int) (*SparseVector, error)
}

// Resolvable describes an objective whose gradient can be resolved one
// feature at a time. The decision variable is laid out feature-wise so that
// per-feature updates are disjoint; coordinate-descent optimizers rely on
// this.
type Resolvable interface {
	Evaluator

	// NumFeatures returns the number of features in the decision variable.
	NumFeatures() int

	// FeatureGradient returns the partial gradient with respect to feature
	// j, as a sparse vector nonzero only at the coordinates belonging to j.
	FeatureGradient(params []float64, j int) (*SparseVector, error)
}

// EvaluatorFunc adapts a plain closure to the Evaluator interface.
type EvaluatorFunc func(params []float64) (float64, error)

// Evaluate implements Evaluator.
func (f EvaluatorFunc) Evaluate(params []float64) (float64, error) {
	return f(params)
}
