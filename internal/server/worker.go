package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/evolib/cne/internal/cne"
	"github.com/evolib/cne/internal/opt"
	"github.com/evolib/cne/internal/problems"
	"github.com/evolib/cne/internal/store"
)

// broadcastInterval throttles SSE progress events; the job state itself is
// updated every generation.
const broadcastInterval = 500 * time.Millisecond

// runJob executes an optimization job in the background.
// If checkpoints is not nil, a checkpoint is saved every CheckpointInterval
// seconds during the run and once more at the end. If dataDir is non-empty, a
// per-generation fitness trace is written under it.
func runJob(ctx context.Context, jm *JobManager, checkpoints store.Store, dataDir, jobID string) error {
	defer jm.releaseCancel(jobID)

	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}
	config := job.Config

	if err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	}); err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "problem", config.Problem, "dim", config.Dim, "optimizer", config.Optimizer)

	problem, err := problems.New(config.Problem, config.Dim)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	engine, err := buildOptimizer(config)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	// Baseline fitness at the origin; the first generation overwrites it for
	// engines that report progress.
	initial := make([]float64, config.Dim)
	initialFitness, err := problem.Evaluate(initial)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	jm.UpdateJob(jobID, func(j *Job) {
		j.InitialFitness = initialFitness
	})

	var trace *store.TraceWriter
	if dataDir != "" {
		trace, err = store.NewTraceWriter(dataDir, jobID, false)
		if err != nil {
			slog.Warn("Trace disabled", "job_id", jobID, "error", err)
		} else {
			defer trace.Close()
		}
	}

	// Wire per-generation progress for engines that expose it.
	if adapter, ok := engine.(*opt.CNEAdapter); ok {
		var (
			lastBroadcast  time.Time
			lastCheckpoint = time.Now()
			firstGen       = true
		)
		checkpointEvery := time.Duration(config.CheckpointInterval) * time.Second

		adapter.Progress = func(generation int, bestFitness float64, bestParams []float64) {
			if firstGen {
				firstGen = false
				jm.UpdateJob(jobID, func(j *Job) {
					j.InitialFitness = bestFitness
				})
			}
			jm.UpdateJob(jobID, func(j *Job) {
				j.Generations = generation
				j.BestFitness = bestFitness
				j.BestParams = bestParams
			})

			if trace != nil {
				entry := store.TraceEntry{
					Generation:  generation,
					BestFitness: bestFitness,
					Timestamp:   time.Now(),
				}
				if err := trace.Write(entry); err != nil {
					slog.Warn("Trace write failed", "job_id", jobID, "error", err)
				}
			}

			now := time.Now()
			if now.Sub(lastBroadcast) >= broadcastInterval {
				lastBroadcast = now
				jm.broadcaster.Broadcast(ProgressEvent{
					JobID:       jobID,
					State:       StateRunning,
					Generation:  generation,
					BestFitness: bestFitness,
					Timestamp:   now,
				})
			}

			if checkpoints != nil && checkpointEvery > 0 && now.Sub(lastCheckpoint) >= checkpointEvery {
				lastCheckpoint = now
				saveCheckpoint(jm, checkpoints, jobID)
			}
		}
	}

	eval := func(params []float64) float64 {
		v, err := problem.Evaluate(params)
		if err != nil {
			// Engines supply vectors of the requested dimension, so this
			// only fires on a programming error. Poison the candidate.
			slog.Error("Evaluation failed", "job_id", jobID, "error", err)
			return math.Inf(1)
		}
		return v
	}

	lower, upper := problem.Bounds()
	start := time.Now()

	bestParams, bestFitness, err := engine.Run(ctx, eval, lower, upper, config.Dim)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			markJobCancelled(jm, jobID)
			if checkpoints != nil {
				saveCheckpoint(jm, checkpoints, jobID)
			}
			return err
		}
		markJobFailed(jm, jobID, err)
		return err
	}

	elapsed := time.Since(start)

	// Flush the trace before flipping the state so that a client polling for
	// completion never reads a truncated trace.
	if trace != nil {
		if err := trace.Flush(); err != nil {
			slog.Warn("Trace flush failed", "job_id", jobID, "error", err)
		}
	}

	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestParams = bestParams
		j.BestFitness = bestFitness
		if j.Generations == 0 {
			// Engines without progress reporting ran the full budget.
			j.Generations = config.Generations
		}
		j.EndTime = &endTime
	})

	if checkpoints != nil {
		saveCheckpoint(jm, checkpoints, jobID)
	}

	job, _ = jm.GetJob(jobID)
	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"initial_fitness", job.InitialFitness,
		"best_fitness", bestFitness,
		"generations", job.Generations,
	)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:       jobID,
		State:       StateCompleted,
		Generation:  job.Generations,
		BestFitness: bestFitness,
		Timestamp:   time.Now(),
	})

	return nil
}

// buildOptimizer maps a job configuration onto an engine.
func buildOptimizer(config JobConfig) (opt.Optimizer, error) {
	switch config.Optimizer {
	case "cne":
		cfg := cne.Config{
			PopulationSize:  config.PopSize,
			MaxGenerations:  config.Generations,
			MutationProb:    config.MutationProb,
			MutationSize:    config.MutationSize,
			SelectPercent:   config.SelectPercent,
			Tolerance:       config.Tolerance,
			ObjectiveChange: config.ObjectiveChange,
			Workers:         config.Workers,
			Seed:            config.Seed,
		}
		return opt.NewCNE(cfg), nil
	case "mayfly":
		return opt.NewMayfly(config.Generations, config.PopSize, config.Seed), nil
	default:
		return nil, fmt.Errorf("unknown optimizer: %s", config.Optimizer)
	}
}

// saveCheckpoint snapshots the current best of a job. Jobs that have not
// completed a generation yet are skipped.
func saveCheckpoint(jm *JobManager, checkpoints store.Store, jobID string) {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return
	}
	if len(job.BestParams) == 0 {
		slog.Debug("Skipping checkpoint, no best params yet", "job_id", jobID)
		return
	}

	checkpoint := store.NewCheckpoint(
		jobID,
		job.BestParams,
		job.BestFitness,
		job.InitialFitness,
		job.Generations,
		job.Config,
	)

	if err := checkpoints.SaveCheckpoint(jobID, checkpoint); err != nil {
		slog.Error("Failed to save checkpoint", "job_id", jobID, "error", err)
		return
	}

	slog.Info("Checkpoint saved",
		"job_id", jobID,
		"generation", job.Generations,
		"best_fitness", job.BestFitness,
	)
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}
