package cne

import (
	"math"
	"math/rand"
	"sort"
)

// initialSpread is the half-width of the uniform box around the initial
// point from which the starting population is drawn.
const initialSpread = 1.0

// candidate is one parameter vector plus its fitness for the current
// generation. Fitness is recomputed every generation.
type candidate struct {
	params  []float64
	fitness float64
}

// newPopulation builds the starting population around the initial point.
// Candidate 0 is the initial point itself; the rest are uniform perturbations
// of it.
func newPopulation(rng *rand.Rand, initial []float64, size int) []candidate {
	pop := make([]candidate, size)
	for i := range pop {
		params := make([]float64, len(initial))
		copy(params, initial)
		if i > 0 {
			for j := range params {
				params[j] += (rng.Float64()*2 - 1) * initialSpread
			}
		}
		pop[i] = candidate{params: params, fitness: math.Inf(1)}
	}
	return pop
}

// rank returns population indices ordered by ascending fitness. Ties keep
// their current order so selection is stable.
func rank(pop []candidate) []int {
	order := make([]int, len(pop))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pop[order[a]].fitness < pop[order[b]].fitness
	})
	return order
}

// numParents returns how many top candidates survive as parents: at least
// minParents, at most the whole population.
func numParents(cfg Config) int {
	n := int(math.Ceil(cfg.SelectPercent * float64(cfg.PopulationSize)))
	if n < minParents {
		n = minParents
	}
	if n > cfg.PopulationSize {
		n = cfg.PopulationSize
	}
	return n
}

// nextGeneration replaces the population: the top parents carry over
// unmodified, and every remaining slot is a mutated copy of a uniformly
// chosen parent. The previous generation's slices are not reused.
func nextGeneration(rng *rand.Rand, cfg Config, pop []candidate, order []int) []candidate {
	parents := numParents(cfg)
	next := make([]candidate, cfg.PopulationSize)

	for i := 0; i < parents; i++ {
		next[i] = candidate{params: pop[order[i]].params, fitness: math.Inf(1)}
	}

	for i := parents; i < cfg.PopulationSize; i++ {
		parent := next[rng.Intn(parents)].params
		child := make([]float64, len(parent))
		copy(child, parent)
		for j := range child {
			if rng.Float64() < cfg.MutationProb {
				child[j] += (rng.Float64()*2 - 1) * cfg.MutationSize
			}
		}
		next[i] = candidate{params: child, fitness: math.Inf(1)}
	}

	return next
}
