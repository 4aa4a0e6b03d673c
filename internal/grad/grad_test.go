package grad

import (
	"fmt"
	"math"
	"testing"

	"github.com/evolib/cne/internal/problems"
)

// meanSquares is a decomposable quadratic: f_i(x) = (x[0] - c_i)^2 over a
// single parameter. The minimum of the sum sits at the mean of the centers.
type meanSquares struct {
	centers []float64
}

func (m *meanSquares) NumFunctions() int { return len(m.centers) }

func (m *meanSquares) EvaluateFunction(params []float64, i int) (float64, error) {
	d := params[0] - m.centers[i]
	return d * d, nil
}

func (m *meanSquares) GradientFunction(params []float64, i int) ([]float64, error) {
	return []float64{2 * (params[0] - m.centers[i])}, nil
}

func TestSGDFindsMeanOfQuadratics(t *testing.T) {
	f := &meanSquares{centers: []float64{1, 2, 3, 4, 5}}

	cfg := DefaultSGDConfig()
	cfg.StepSize = 0.05
	cfg.MaxIterations = 20000

	sgd, err := NewSGD(cfg)
	if err != nil {
		t.Fatalf("NewSGD failed: %v", err)
	}

	params, _, err := sgd.Optimize(f, []float64{-10})
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if math.Abs(params[0]-3) > 0.5 {
		t.Errorf("Expected parameter near 3 (the mean), got %g", params[0])
	}
}

func TestSGDReducesLogisticLoss(t *testing.T) {
	lr := logisticFixture(t)

	initial := []float64{0, 0, 0}
	before, err := lr.Evaluate(initial)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	cfg := DefaultSGDConfig()
	cfg.StepSize = 0.1
	cfg.MaxIterations = 5000

	sgd, err := NewSGD(cfg)
	if err != nil {
		t.Fatalf("NewSGD failed: %v", err)
	}

	_, after, err := sgd.Optimize(lr, initial)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if after >= before {
		t.Errorf("Expected loss to decrease, got %g -> %g", before, after)
	}
}

func TestSGDConfigValidation(t *testing.T) {
	cfg := DefaultSGDConfig()
	cfg.StepSize = 0
	if _, err := NewSGD(cfg); err == nil {
		t.Error("Expected error for zero step size")
	}

	cfg = DefaultSGDConfig()
	cfg.MaxIterations = 0
	if _, err := NewSGD(cfg); err == nil {
		t.Error("Expected error for zero max iterations")
	}
}

func TestSGDPropagatesGradientError(t *testing.T) {
	f := &failingDecomposable{}

	sgd, err := NewSGD(DefaultSGDConfig())
	if err != nil {
		t.Fatalf("NewSGD failed: %v", err)
	}

	if _, _, err := sgd.Optimize(f, []float64{0}); err == nil {
		t.Error("Expected the gradient error to propagate")
	}
}

type failingDecomposable struct{}

func (f *failingDecomposable) NumFunctions() int { return 1 }

func (f *failingDecomposable) EvaluateFunction(params []float64, i int) (float64, error) {
	return 0, fmt.Errorf("evaluate exploded")
}

func (f *failingDecomposable) GradientFunction(params []float64, i int) ([]float64, error) {
	return nil, fmt.Errorf("gradient exploded")
}

func TestParallelSGDReducesLogisticLoss(t *testing.T) {
	lr := logisticFixture(t)

	initial := []float64{0, 0, 0}
	before, err := lr.Evaluate(initial)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	cfg := DefaultParallelSGDConfig()
	cfg.StepSize = 0.05
	cfg.Epochs = 200
	cfg.Workers = 4

	psgd, err := NewParallelSGD(cfg)
	if err != nil {
		t.Fatalf("NewParallelSGD failed: %v", err)
	}

	params, after, err := psgd.Optimize(lr, initial)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if len(params) != 3 {
		t.Fatalf("Expected 3 parameters, got %d", len(params))
	}
	if after >= before {
		t.Errorf("Expected loss to decrease, got %g -> %g", before, after)
	}
}

func TestParallelSGDConfigValidation(t *testing.T) {
	cfg := DefaultParallelSGDConfig()
	cfg.Epochs = 0
	if _, err := NewParallelSGD(cfg); err == nil {
		t.Error("Expected error for zero epochs")
	}

	cfg = DefaultParallelSGDConfig()
	cfg.Workers = -1
	if _, err := NewParallelSGD(cfg); err == nil {
		t.Error("Expected error for negative workers")
	}
}

func TestAtomicVector(t *testing.T) {
	v := newAtomicVector([]float64{1, 2})
	v.Add(0, 0.5)
	v.Add(1, -2)

	snap := v.Snapshot()
	if snap[0] != 1.5 || snap[1] != 0 {
		t.Errorf("Snapshot = %v, want [1.5 0]", snap)
	}
}

func TestSCDReducesLogisticLoss(t *testing.T) {
	lr := logisticFixture(t)

	initial := []float64{0, 0, 0}
	before, err := lr.Evaluate(initial)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	cfg := DefaultSCDConfig()
	cfg.StepSize = 0.05
	cfg.MaxIterations = 3000

	scd, err := NewSCD(cfg)
	if err != nil {
		t.Fatalf("NewSCD failed: %v", err)
	}

	params, after, err := scd.Optimize(lr, initial)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if after >= before {
		t.Errorf("Expected loss to decrease, got %g -> %g", before, after)
	}

	// Near a stationary point every partial gradient should be small.
	for j := 0; j < lr.NumFeatures(); j++ {
		fg, err := lr.FeatureGradient(params, j)
		if err != nil {
			t.Fatalf("FeatureGradient failed: %v", err)
		}
		if math.Abs(fg.At(j)) > 0.5 {
			t.Errorf("Partial gradient %d = %g, expected near zero", j, fg.At(j))
		}
	}
}

func logisticFixture(t *testing.T) *problems.LogisticRegression {
	t.Helper()

	// Linearly separable in the first feature, with a bias column.
	points := [][]float64{
		{2.0, 0.5, 1},
		{1.5, -0.2, 1},
		{1.0, 0.3, 1},
		{-1.0, 0.1, 1},
		{-1.5, -0.4, 1},
		{-2.0, 0.2, 1},
	}
	labels := []float64{1, 1, 1, 0, 0, 0}

	lr, err := problems.NewLogisticRegression(points, labels)
	if err != nil {
		t.Fatalf("NewLogisticRegression failed: %v", err)
	}
	return lr
}
