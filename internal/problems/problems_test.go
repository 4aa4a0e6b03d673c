package problems

import (
	"errors"
	"math"
	"testing"

	"github.com/evolib/cne/internal/funcs"
)

// Compile-time contract checks.
var (
	_ funcs.Basic        = (*Sphere)(nil)
	_ funcs.Basic        = (*Rosenbrock)(nil)
	_ funcs.Basic        = (*Rastrigin)(nil)
	_ funcs.Basic        = (*LogisticRegression)(nil)
	_ funcs.Decomposable = (*LogisticRegression)(nil)
	_ funcs.Sparse       = (*LogisticRegression)(nil)
	_ funcs.Resolvable   = (*LogisticRegression)(nil)
)

// numericGradient approximates the gradient by central differences.
func numericGradient(t *testing.T, f funcs.Evaluator, params []float64) []float64 {
	t.Helper()

	const h = 1e-6
	grad := make([]float64, len(params))
	x := make([]float64, len(params))
	copy(x, params)

	for i := range params {
		x[i] = params[i] + h
		fp, err := f.Evaluate(x)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		x[i] = params[i] - h
		fm, err := f.Evaluate(x)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		x[i] = params[i]
		grad[i] = (fp - fm) / (2 * h)
	}
	return grad
}

func assertClose(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %g, want %g (tol %g)", name, got, want, tol)
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range Names() {
		p, err := New(name, 3)
		if err != nil {
			t.Errorf("New(%q, 3) failed: %v", name, err)
			continue
		}
		if p.Dimension() != 3 {
			t.Errorf("%s dimension = %d, want 3", name, p.Dimension())
		}
		lower, upper := p.Bounds()
		if len(lower) != 3 || len(upper) != 3 {
			t.Errorf("%s bounds have lengths %d/%d, want 3/3", name, len(lower), len(upper))
		}
	}

	_, err := New("himmelblau", 2)
	var unknown *UnknownProblemError
	if !errors.As(err, &unknown) {
		t.Errorf("Expected UnknownProblemError, got %v", err)
	}
}

func TestBenchmarkMinima(t *testing.T) {
	sphere, _ := NewSphere(4)
	v, err := sphere.Evaluate([]float64{0, 0, 0, 0})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	assertClose(t, "sphere at origin", v, 0, 1e-12)

	rosen, _ := NewRosenbrock(3)
	v, err = rosen.Evaluate([]float64{1, 1, 1})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	assertClose(t, "rosenbrock at ones", v, 0, 1e-12)

	rast, _ := NewRastrigin(2)
	v, err = rast.Evaluate([]float64{0, 0})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	assertClose(t, "rastrigin at origin", v, 0, 1e-9)
}

func TestBenchmarkGradients(t *testing.T) {
	point := []float64{0.3, -1.2, 0.7}

	tests := []struct {
		name string
		f    funcs.Basic
	}{
		{"sphere", mustProblem(t, "sphere")},
		{"rosenbrock", mustProblem(t, "rosenbrock")},
		{"rastrigin", mustProblem(t, "rastrigin")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analytic, err := tt.f.Gradient(point)
			if err != nil {
				t.Fatalf("Gradient failed: %v", err)
			}
			numeric := numericGradient(t, tt.f, point)
			for i := range analytic {
				assertClose(t, tt.name+" gradient", analytic[i], numeric[i], 1e-3)
			}
		})
	}
}

func mustProblem(t *testing.T, name string) funcs.Basic {
	t.Helper()
	p, err := New(name, 3)
	if err != nil {
		t.Fatalf("New(%q) failed: %v", name, err)
	}
	basic, ok := p.(funcs.Basic)
	if !ok {
		t.Fatalf("%s does not satisfy funcs.Basic", name)
	}
	return basic
}

func TestDimensionMismatch(t *testing.T) {
	sphere, _ := NewSphere(3)
	_, err := sphere.Evaluate([]float64{1, 2})
	var de *DimensionError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DimensionError, got %v", err)
	}
	if de.Want != 3 || de.Got != 2 {
		t.Errorf("DimensionError = %+v, want Want=3 Got=2", de)
	}
}

func testDataset() ([][]float64, []float64) {
	points := [][]float64{
		{1, 2, 0},
		{0, 1, 1},
		{-1, 0, 2},
		{2, -1, 0},
		{0, 0, -1},
	}
	labels := []float64{1, 1, 0, 1, 0}
	return points, labels
}

func TestLogisticGradientMatchesNumeric(t *testing.T) {
	points, labels := testDataset()
	lr, err := NewLogisticRegression(points, labels)
	if err != nil {
		t.Fatalf("NewLogisticRegression failed: %v", err)
	}

	params := []float64{0.5, -0.25, 0.1}
	analytic, err := lr.Gradient(params)
	if err != nil {
		t.Fatalf("Gradient failed: %v", err)
	}
	numeric := numericGradient(t, lr, params)
	for i := range analytic {
		assertClose(t, "logistic gradient", analytic[i], numeric[i], 1e-4)
	}
}

func TestLogisticDecomposition(t *testing.T) {
	points, labels := testDataset()
	lr, err := NewLogisticRegression(points, labels)
	if err != nil {
		t.Fatalf("NewLogisticRegression failed: %v", err)
	}

	params := []float64{0.2, 0.4, -0.6}

	full, err := lr.Evaluate(params)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	var sum float64
	for i := 0; i < lr.NumFunctions(); i++ {
		v, err := lr.EvaluateFunction(params, i)
		if err != nil {
			t.Fatalf("EvaluateFunction(%d) failed: %v", i, err)
		}
		sum += v
	}
	assertClose(t, "sum of parts", sum, full, 1e-10)

	fullGrad, err := lr.Gradient(params)
	if err != nil {
		t.Fatalf("Gradient failed: %v", err)
	}
	acc := make([]float64, len(params))
	for i := 0; i < lr.NumFunctions(); i++ {
		g, err := lr.GradientFunction(params, i)
		if err != nil {
			t.Fatalf("GradientFunction(%d) failed: %v", i, err)
		}
		for j := range acc {
			acc[j] += g[j]
		}
	}
	for j := range acc {
		assertClose(t, "sum of part gradients", acc[j], fullGrad[j], 1e-10)
	}
}

func TestLogisticSparseGradient(t *testing.T) {
	points, labels := testDataset()
	lr, err := NewLogisticRegression(points, labels)
	if err != nil {
		t.Fatalf("NewLogisticRegression failed: %v", err)
	}

	params := []float64{0.3, -0.1, 0.8}
	for i := 0; i < lr.NumFunctions(); i++ {
		sparse, err := lr.SparseGradient(params, i)
		if err != nil {
			t.Fatalf("SparseGradient(%d) failed: %v", i, err)
		}
		if err := sparse.Validate(); err != nil {
			t.Fatalf("SparseGradient(%d) invalid: %v", i, err)
		}
		dense, err := lr.GradientFunction(params, i)
		if err != nil {
			t.Fatalf("GradientFunction(%d) failed: %v", i, err)
		}
		expanded := sparse.Dense()
		for j := range dense {
			assertClose(t, "sparse vs dense gradient", expanded[j], dense[j], 1e-12)
		}
		// Zero features must not appear in the sparse form.
		for k, idx := range sparse.Indices {
			if points[i][idx] == 0 {
				t.Errorf("Point %d stores entry %d at zero feature %d", i, k, idx)
			}
		}
	}
}

func TestLogisticFeatureGradient(t *testing.T) {
	points, labels := testDataset()
	lr, err := NewLogisticRegression(points, labels)
	if err != nil {
		t.Fatalf("NewLogisticRegression failed: %v", err)
	}

	params := []float64{-0.4, 0.9, 0.05}
	fullGrad, err := lr.Gradient(params)
	if err != nil {
		t.Fatalf("Gradient failed: %v", err)
	}

	for j := 0; j < lr.NumFeatures(); j++ {
		fg, err := lr.FeatureGradient(params, j)
		if err != nil {
			t.Fatalf("FeatureGradient(%d) failed: %v", j, err)
		}
		if fg.NNZ() != 1 {
			t.Errorf("FeatureGradient(%d) has %d entries, want exactly 1", j, fg.NNZ())
		}
		for _, idx := range fg.Indices {
			if idx != j {
				t.Errorf("FeatureGradient(%d) is nonzero at column %d", j, idx)
			}
		}
		assertClose(t, "feature gradient", fg.At(j), fullGrad[j], 1e-10)
	}
}

func TestLogisticRejectsBadDataset(t *testing.T) {
	if _, err := NewLogisticRegression(nil, nil); err == nil {
		t.Error("Expected error for empty dataset")
	}
	if _, err := NewLogisticRegression([][]float64{{1, 2}}, []float64{1, 0}); err == nil {
		t.Error("Expected error for label count mismatch")
	}
	if _, err := NewLogisticRegression([][]float64{{1, 2}, {1}}, []float64{1, 0}); err == nil {
		t.Error("Expected error for ragged points")
	}
	if _, err := NewLogisticRegression([][]float64{{1, 2}}, []float64{0.5}); err == nil {
		t.Error("Expected error for non-binary label")
	}
}
