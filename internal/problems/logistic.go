package problems

import (
	"fmt"
	"math"

	"github.com/evolib/cne/internal/funcs"
)

// LogisticRegression is the negative log-likelihood of a binary logistic
// model, summed over the dataset. The decision variable is a row vector with
// one weight per feature (column-wise layout), so the loss decomposes both
// per data point and per feature: the type satisfies the Basic, Decomposable,
// Sparse, and Resolvable contracts simultaneously.
type LogisticRegression struct {
	points [][]float64 // points[i] has one value per feature
	labels []float64   // labels[i] in {0,1}
	dim    int
}

// NewLogisticRegression builds the loss over the given dataset. Every point
// must have the same number of features and every label must be 0 or 1.
func NewLogisticRegression(points [][]float64, labels []float64) (*LogisticRegression, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("logistic regression: empty dataset")
	}
	if len(points) != len(labels) {
		return nil, fmt.Errorf("logistic regression: %d points but %d labels", len(points), len(labels))
	}
	dim := len(points[0])
	if dim == 0 {
		return nil, fmt.Errorf("logistic regression: points have no features")
	}
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("logistic regression: point %d has %d features, want %d", i, len(p), dim)
		}
		if labels[i] != 0 && labels[i] != 1 {
			return nil, fmt.Errorf("logistic regression: label %d is %g, want 0 or 1", i, labels[i])
		}
	}
	return &LogisticRegression{points: points, labels: labels, dim: dim}, nil
}

func (l *LogisticRegression) Dimension() int { return l.dim }

func (l *LogisticRegression) Bounds() (lower, upper []float64) {
	return uniformBounds(l.dim, -25, 25)
}

// NumFunctions returns the number of data points (the separable parts of the
// loss).
func (l *LogisticRegression) NumFunctions() int { return len(l.points) }

// NumFeatures returns the number of columns in the decision variable.
func (l *LogisticRegression) NumFeatures() int { return l.dim }

func (l *LogisticRegression) Evaluate(params []float64) (float64, error) {
	if len(params) != l.dim {
		return 0, &DimensionError{Want: l.dim, Got: len(params)}
	}
	var sum float64
	for i := range l.points {
		sum += l.pointLoss(params, i)
	}
	return sum, nil
}

func (l *LogisticRegression) Gradient(params []float64) ([]float64, error) {
	if len(params) != l.dim {
		return nil, &DimensionError{Want: l.dim, Got: len(params)}
	}
	grad := make([]float64, l.dim)
	for i := range l.points {
		r := l.residual(params, i)
		for j, x := range l.points[i] {
			grad[j] += r * x
		}
	}
	return grad, nil
}

// EvaluateFunction returns the loss contribution of point i.
func (l *LogisticRegression) EvaluateFunction(params []float64, i int) (float64, error) {
	if len(params) != l.dim {
		return 0, &DimensionError{Want: l.dim, Got: len(params)}
	}
	if i < 0 || i >= len(l.points) {
		return 0, fmt.Errorf("logistic regression: function index %d out of range [0,%d)", i, len(l.points))
	}
	return l.pointLoss(params, i), nil
}

// GradientFunction returns the dense gradient of point i's loss.
func (l *LogisticRegression) GradientFunction(params []float64, i int) ([]float64, error) {
	if len(params) != l.dim {
		return nil, &DimensionError{Want: l.dim, Got: len(params)}
	}
	if i < 0 || i >= len(l.points) {
		return nil, fmt.Errorf("logistic regression: function index %d out of range [0,%d)", i, len(l.points))
	}
	grad := make([]float64, l.dim)
	r := l.residual(params, i)
	for j, x := range l.points[i] {
		grad[j] = r * x
	}
	return grad, nil
}

// SparseGradient returns the gradient of point i's loss with entries only at
// the point's nonzero features.
func (l *LogisticRegression) SparseGradient(params []float64, i int) (*funcs.SparseVector, error) {
	if len(params) != l.dim {
		return nil, &DimensionError{Want: l.dim, Got: len(params)}
	}
	if i < 0 || i >= len(l.points) {
		return nil, fmt.Errorf("logistic regression: function index %d out of range [0,%d)", i, len(l.points))
	}
	grad := funcs.NewSparseVector(l.dim)
	r := l.residual(params, i)
	for j, x := range l.points[i] {
		if x != 0 {
			grad.Set(j, r*x)
		}
	}
	return grad, nil
}

// FeatureGradient returns the partial gradient with respect to feature j,
// nonzero only at coordinate j.
func (l *LogisticRegression) FeatureGradient(params []float64, j int) (*funcs.SparseVector, error) {
	if len(params) != l.dim {
		return nil, &DimensionError{Want: l.dim, Got: len(params)}
	}
	if j < 0 || j >= l.dim {
		return nil, fmt.Errorf("logistic regression: feature index %d out of range [0,%d)", j, l.dim)
	}
	var partial float64
	for i := range l.points {
		partial += l.residual(params, i) * l.points[i][j]
	}
	grad := funcs.NewSparseVector(l.dim)
	grad.Set(j, partial)
	return grad, nil
}

// pointLoss is the numerically stable negative log-likelihood of point i:
// max(z,0) - z*y + log(1+exp(-|z|)).
func (l *LogisticRegression) pointLoss(params []float64, i int) float64 {
	z := dot(params, l.points[i])
	return math.Max(z, 0) - z*l.labels[i] + math.Log1p(math.Exp(-math.Abs(z)))
}

// residual is sigmoid(z) - y, the shared factor of every gradient form.
func (l *LogisticRegression) residual(params []float64, i int) float64 {
	z := dot(params, l.points[i])
	return 1/(1+math.Exp(-z)) - l.labels[i]
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
