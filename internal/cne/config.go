package cne

import "fmt"

// historyWindow is the number of generations over which best-fitness
// improvement is measured for the ObjectiveChange termination check.
const historyWindow = 10

// minParents is the smallest parent pool the selection step will produce,
// regardless of SelectPercent.
const minParents = 2

// Config holds the hyperparameters of a CNE run. It is fixed at
// construction; a running optimizer never mutates it.
type Config struct {
	// PopulationSize is the number of candidates per generation. Must be at
	// least 4.
	PopulationSize int

	// MaxGenerations bounds the number of generations. Reaching it is
	// normal termination, not an error.
	MaxGenerations int

	// MutationProb is the probability that an individual parameter of a
	// child is perturbed. Must be in [0,1].
	MutationProb float64

	// MutationSize bounds the uniform noise added on mutation: draws come
	// from [-MutationSize, MutationSize]. Must be >= 0.
	MutationSize float64

	// SelectPercent is the fraction of the population retained as parents
	// each generation. Must be in [0,1].
	SelectPercent float64

	// Tolerance stops the run once the best fitness drops to or below it.
	// A negative value disables the check.
	Tolerance float64

	// ObjectiveChange stops the run once the best-fitness improvement over
	// the last historyWindow generations falls below it. A negative value
	// disables the check.
	ObjectiveChange float64

	// Workers is the number of goroutines evaluating candidates within a
	// generation. Zero means GOMAXPROCS.
	Workers int

	// Seed seeds the mutation and initialisation RNG. Runs with the same
	// seed and Workers=1 are reproducible.
	Seed int64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		PopulationSize:  500,
		MaxGenerations:  5000,
		MutationProb:    0.1,
		MutationSize:    0.02,
		SelectPercent:   0.2,
		Tolerance:       1e-5,
		ObjectiveChange: 1e-5,
	}
}

// ConfigError reports an invalid hyperparameter. It is returned at
// construction time and never at runtime.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid config: " + e.Field + " " + e.Reason
}

// Validate checks all hyperparameter invariants, returning a *ConfigError on
// the first violation.
func (c Config) Validate() error {
	if c.PopulationSize < 4 {
		return &ConfigError{Field: "PopulationSize", Reason: fmt.Sprintf("must be at least 4, got %d", c.PopulationSize)}
	}
	if c.MaxGenerations < 1 {
		return &ConfigError{Field: "MaxGenerations", Reason: fmt.Sprintf("must be positive, got %d", c.MaxGenerations)}
	}
	if c.MutationProb < 0 || c.MutationProb > 1 {
		return &ConfigError{Field: "MutationProb", Reason: fmt.Sprintf("must be in [0,1], got %g", c.MutationProb)}
	}
	if c.MutationSize < 0 {
		return &ConfigError{Field: "MutationSize", Reason: fmt.Sprintf("must be non-negative, got %g", c.MutationSize)}
	}
	if c.SelectPercent < 0 || c.SelectPercent > 1 {
		return &ConfigError{Field: "SelectPercent", Reason: fmt.Sprintf("must be in [0,1], got %g", c.SelectPercent)}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "Workers", Reason: fmt.Sprintf("must be non-negative, got %d", c.Workers)}
	}
	return nil
}
