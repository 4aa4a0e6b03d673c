package store

import (
	"fmt"
	"time"
)

// JobConfig holds the configuration of an optimization job (checkpoint
// copy). Defined here rather than in the server package to avoid an import
// cycle.
type JobConfig struct {
	Problem            string  `json:"problem"`             // registered objective name
	Dim                int     `json:"dim"`                 // parameter-space dimensionality
	Optimizer          string  `json:"optimizer"`           // cne, mayfly
	Generations        int     `json:"generations"`         // generation/iteration budget
	PopSize            int     `json:"popSize"`             // population size
	MutationProb       float64 `json:"mutationProb"`        // per-parameter mutation probability (cne)
	MutationSize       float64 `json:"mutationSize"`        // mutation noise bound (cne)
	SelectPercent      float64 `json:"selectPercent"`       // parent fraction (cne)
	Tolerance          float64 `json:"tolerance"`           // target fitness, negative disables
	ObjectiveChange    float64 `json:"objectiveChange"`     // minimum window improvement, negative disables
	Seed               int64   `json:"seed"`                // RNG seed
	Workers            int     `json:"workers,omitempty"`   // evaluation workers (0 = all cores)
	CheckpointInterval int     `json:"checkpointInterval,omitempty"` // checkpoint every N seconds (0 = disabled)
}

// Checkpoint represents a saved optimization state that can be resumed
// later. All fields are serialized to JSON for persistence.
//
// The checkpoint saves the best parameters found so far, not the internal
// optimizer state (population, RNG position). On resume a fresh population
// is seeded around the saved best parameters, so a resumed run is not a
// bit-exact continuation — but the best fitness never regresses, which is
// what callers care about. Persisting the full population would tie the
// checkpoint format to one engine's internals and inflate its size for no
// operational gain.
type Checkpoint struct {
	// JobID is the unique identifier for this optimization job.
	JobID string `json:"jobId"`

	// BestParams is the parameter vector that achieved BestFitness.
	BestParams []float64 `json:"bestParams"`

	// BestFitness is the objective value achieved by BestParams.
	BestFitness float64 `json:"bestFitness"`

	// InitialFitness is the fitness at generation 1, kept for improvement
	// tracking.
	InitialFitness float64 `json:"initialFitness"`

	// Generation is the generation count when this checkpoint was created.
	Generation int `json:"generation"`

	// Timestamp records when this checkpoint was created.
	Timestamp time.Time `json:"timestamp"`

	// Config holds the job configuration, needed for validation during
	// resume: a resumed job must use a compatible problem and layout.
	Config JobConfig `json:"config"`
}

// CheckpointInfo contains metadata about a checkpoint without the parameter
// data. Used for listing checkpoints without loading large vectors.
type CheckpointInfo struct {
	JobID       string    `json:"jobId"`
	BestFitness float64   `json:"bestFitness"`
	Generation  int       `json:"generation"`
	Timestamp   time.Time `json:"timestamp"`
	Problem     string    `json:"problem"`
	Dim         int       `json:"dim"`
	Optimizer   string    `json:"optimizer"`
}

// NewCheckpoint creates a checkpoint from runtime job state.
func NewCheckpoint(jobID string, bestParams []float64, bestFitness, initialFitness float64, generation int, config JobConfig) *Checkpoint {
	return &Checkpoint{
		JobID:          jobID,
		BestParams:     bestParams,
		BestFitness:    bestFitness,
		InitialFitness: initialFitness,
		Generation:     generation,
		Timestamp:      time.Now(),
		Config:         config,
	}
}

// ToInfo converts a full Checkpoint to its metadata-only form.
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:       c.JobID,
		BestFitness: c.BestFitness,
		Generation:  c.Generation,
		Timestamp:   c.Timestamp,
		Problem:     c.Config.Problem,
		Dim:         c.Config.Dim,
		Optimizer:   c.Config.Optimizer,
	}
}

// Validate checks that the checkpoint holds a complete, self-consistent
// state. Returns an error if any required field is missing or invalid.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if len(c.BestParams) == 0 {
		return &ValidationError{Field: "BestParams", Reason: "cannot be empty"}
	}
	if c.Generation < 0 {
		return &ValidationError{Field: "Generation", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.Problem == "" {
		return &ValidationError{Field: "Config.Problem", Reason: "cannot be empty"}
	}
	if c.Config.Optimizer == "" {
		return &ValidationError{Field: "Config.Optimizer", Reason: "cannot be empty"}
	}
	if c.Config.Dim <= 0 {
		return &ValidationError{Field: "Config.Dim", Reason: "must be positive"}
	}
	if c.Config.Generations <= 0 {
		return &ValidationError{Field: "Config.Generations", Reason: "must be positive"}
	}
	if c.Config.PopSize <= 0 {
		return &ValidationError{Field: "Config.PopSize", Reason: "must be positive"}
	}
	if len(c.BestParams) != c.Config.Dim {
		return &ValidationError{
			Field:  "BestParams",
			Reason: fmt.Sprintf("length mismatch: %d params for dimension %d", len(c.BestParams), c.Config.Dim),
		}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks if this checkpoint can be resumed with the given
// config. Problem, dimensionality and engine must match; budget and
// termination knobs may change between runs.
func (c *Checkpoint) IsCompatible(config JobConfig) error {
	if c.Config.Problem != config.Problem {
		return &CompatibilityError{
			Field:    "Problem",
			Expected: c.Config.Problem,
			Actual:   config.Problem,
		}
	}
	if c.Config.Dim != config.Dim {
		return &CompatibilityError{
			Field:    "Dim",
			Expected: fmt.Sprintf("%d", c.Config.Dim),
			Actual:   fmt.Sprintf("%d", config.Dim),
		}
	}
	if c.Config.Optimizer != config.Optimizer {
		return &CompatibilityError{
			Field:    "Optimizer",
			Expected: c.Config.Optimizer,
			Actual:   config.Optimizer,
		}
	}
	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
