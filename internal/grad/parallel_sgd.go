package grad

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/evolib/cne/internal/funcs"
)

// ParallelSGDConfig holds the hyperparameters for HOGWILD!-style SGD.
type ParallelSGDConfig struct {
	// StepSize is the learning rate for each sparse update.
	StepSize float64

	// Epochs is the number of passes every worker makes over its shard.
	Epochs int

	// Workers is the number of update goroutines. Zero means GOMAXPROCS.
	Workers int
}

// DefaultParallelSGDConfig returns the usual starting point.
func DefaultParallelSGDConfig() ParallelSGDConfig {
	return ParallelSGDConfig{
		StepSize: 0.01,
		Epochs:   50,
	}
}

// ParallelSGD minimizes a sparse-gradient objective with unsynchronised
// workers. Updates go through per-coordinate compare-and-swap, so the scheme
// only pays off when the individual gradients are sparse; there is no
// ordering guarantee between workers and results are not bit-reproducible
// across worker counts.
type ParallelSGD struct {
	cfg ParallelSGDConfig
}

// NewParallelSGD validates the configuration and creates the optimizer.
func NewParallelSGD(cfg ParallelSGDConfig) (*ParallelSGD, error) {
	if cfg.StepSize <= 0 {
		return nil, fmt.Errorf("parallel sgd: step size must be positive, got %g", cfg.StepSize)
	}
	if cfg.Epochs < 1 {
		return nil, fmt.Errorf("parallel sgd: epochs must be positive, got %d", cfg.Epochs)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("parallel sgd: workers must be non-negative, got %d", cfg.Workers)
	}
	return &ParallelSGD{cfg: cfg}, nil
}

// Optimize runs the workers and returns the final parameters with their full
// objective value. The first gradient error aborts all workers.
func (p *ParallelSGD) Optimize(f funcs.Sparse, initial []float64) ([]float64, float64, error) {
	n := f.NumFunctions()
	if n == 0 {
		return nil, 0, fmt.Errorf("parallel sgd: objective has no functions")
	}

	workers := p.cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	shared := newAtomicVector(initial)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for epoch := 0; epoch < p.cfg.Epochs; epoch++ {
				// Static shard: worker w owns functions w, w+workers, ...
				for i := worker; i < n; i += workers {
					grad, err := f.SparseGradient(shared.Snapshot(), i)
					if err != nil {
						mu.Lock()
						if firstErr == nil {
							firstErr = err
						}
						mu.Unlock()
						return
					}
					for k, idx := range grad.Indices {
						shared.Add(idx, -p.cfg.StepSize*grad.Values[k])
					}
				}
			}
		}(w)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, 0, firstErr
	}

	params := shared.Snapshot()
	objective, err := f.Evaluate(params)
	if err != nil {
		return nil, 0, err
	}
	return params, objective, nil
}

// atomicVector is a float64 vector with lock-free per-coordinate updates,
// stored as uint64 bit patterns.
type atomicVector struct {
	bits []uint64
}

func newAtomicVector(initial []float64) *atomicVector {
	v := &atomicVector{bits: make([]uint64, len(initial))}
	for i, x := range initial {
		v.bits[i] = math.Float64bits(x)
	}
	return v
}

// Add atomically applies bits[i] += delta via compare-and-swap.
func (v *atomicVector) Add(i int, delta float64) {
	for {
		old := atomic.LoadUint64(&v.bits[i])
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if atomic.CompareAndSwapUint64(&v.bits[i], old, next) {
			return
		}
	}
}

// Snapshot copies the current values. Concurrent writers may land between
// coordinate reads; HOGWILD! tolerates that by construction.
func (v *atomicVector) Snapshot() []float64 {
	out := make([]float64, len(v.bits))
	for i := range v.bits {
		out[i] = math.Float64frombits(atomic.LoadUint64(&v.bits[i]))
	}
	return out
}
