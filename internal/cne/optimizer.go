// Package cne implements Conventional Neural Evolution: a gradient-free,
// population-based optimizer. Each generation every candidate is evaluated,
// the best fraction survives as parents, and the remaining slots are refilled
// with mutated copies of random parents. Because only Evaluate is required of
// the objective, the optimizer applies to non-differentiable and
// discontinuous functions, at the cost of scaling poorly with dimensionality
// compared to gradient-based methods.
package cne

import (
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/evolib/cne/internal/funcs"
)

// Progress is a per-generation snapshot passed to an optional progress
// callback.
type Progress struct {
	Generation  int
	BestFitness float64

	// BestParams is a copy of the best vector, safe to retain.
	BestParams []float64
}

// Result holds the outcome of an optimization run.
type Result struct {
	// BestParams is the best parameter vector observed across all
	// generations. Its length equals the initial vector's.
	BestParams []float64

	// BestFitness is the objective value of BestParams.
	BestFitness float64

	// Generations is the number of generations completed.
	Generations int
}

// Optimizer drives a population of candidate parameter vectors toward the
// minimum of an objective.
type Optimizer struct {
	cfg Config
	rng *rand.Rand

	// ProgressFunc, if set, is called once per generation after evaluation.
	// It runs on the optimizing goroutine and should return quickly.
	ProgressFunc func(Progress)
}

// New validates the configuration and creates an optimizer. A zero Seed is
// replaced with the current time.
func New(cfg Config) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Optimizer{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

// Config returns the hyperparameters the optimizer was built with.
func (o *Optimizer) Config() Config {
	return o.cfg
}

// Optimize minimizes f starting from a population spread around initial.
// Termination checks run after each generation in a fixed order: generation
// bound, tolerance, then objective-change over the history window. Reaching
// MaxGenerations is normal termination. Any error from f.Evaluate aborts the
// run and is returned unmodified.
func (o *Optimizer) Optimize(f funcs.Evaluator, initial []float64) (*Result, error) {
	pop := newPopulation(o.rng, initial, o.cfg.PopulationSize)

	best := math.Inf(1)
	bestParams := make([]float64, len(initial))
	copy(bestParams, initial)

	// history[g-1] is the best fitness seen up to and including generation g.
	history := make([]float64, 0, o.cfg.MaxGenerations)

	gen := 0
	for {
		gen++

		if err := o.evaluate(f, pop); err != nil {
			return nil, err
		}

		order := rank(pop)
		if top := pop[order[0]]; top.fitness < best {
			best = top.fitness
			copy(bestParams, top.params)
		}
		history = append(history, best)

		if o.ProgressFunc != nil {
			snapshot := make([]float64, len(bestParams))
			copy(snapshot, bestParams)
			o.ProgressFunc(Progress{Generation: gen, BestFitness: best, BestParams: snapshot})
		}

		if gen >= o.cfg.MaxGenerations {
			slog.Debug("generation limit reached", "generation", gen, "best_fitness", best)
			break
		}
		if o.cfg.Tolerance >= 0 && best <= o.cfg.Tolerance {
			slog.Debug("tolerance reached", "generation", gen, "best_fitness", best, "tolerance", o.cfg.Tolerance)
			break
		}
		if o.cfg.ObjectiveChange >= 0 && gen > historyWindow {
			improvement := history[gen-1-historyWindow] - best
			if improvement < o.cfg.ObjectiveChange {
				slog.Debug("objective change below threshold",
					"generation", gen,
					"improvement", improvement,
					"threshold", o.cfg.ObjectiveChange,
				)
				break
			}
		}

		pop = nextGeneration(o.rng, o.cfg, pop, order)
	}

	return &Result{
		BestParams:  bestParams,
		BestFitness: best,
		Generations: gen,
	}, nil
}

// evaluate computes the fitness of every candidate. Evaluations within a
// generation are independent, so they run across a worker pool; the
// population is read-only until all workers finish. The first evaluation
// error wins and aborts the generation.
func (o *Optimizer) evaluate(f funcs.Evaluator, pop []candidate) error {
	workers := o.cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(pop) {
		workers = len(pop)
	}

	if workers <= 1 {
		for i := range pop {
			v, err := f.Evaluate(pop[i].params)
			if err != nil {
				return err
			}
			pop[i].fitness = v
		}
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				v, err := f.Evaluate(pop[i].params)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				pop[i].fitness = v
			}
		}()
	}

	for i := range pop {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return firstErr
}
