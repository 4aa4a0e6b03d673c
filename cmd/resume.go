package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evolib/cne/internal/cne"
	"github.com/evolib/cne/internal/problems"
	"github.com/evolib/cne/internal/store"
	"github.com/spf13/cobra"
)

var (
	resumeDataDir     string
	resumeGenerations int
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume an optimization from its checkpoint",
	Long: `Loads the checkpoint of a previous run and continues optimizing from its
best parameters. The fresh population is seeded around the saved best vector,
so the best fitness never regresses. The trace file is appended to and the
checkpoint is updated when the run finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for checkpoint storage")
	resumeCmd.Flags().IntVar(&resumeGenerations, "generations", 0, "New generation budget (0 = reuse the saved budget)")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	fs, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	checkpoint, err := fs.LoadCheckpoint(jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no checkpoint for job %s under %s", jobID, resumeDataDir)
		}
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := checkpoint.Validate(); err != nil {
		return fmt.Errorf("checkpoint is unusable: %w", err)
	}

	config := checkpoint.Config
	if resumeGenerations > 0 {
		config.Generations = resumeGenerations
	}
	if err := checkpoint.IsCompatible(config); err != nil {
		return err
	}
	if config.Optimizer != "cne" {
		return fmt.Errorf("resume supports the cne engine, checkpoint uses %s", config.Optimizer)
	}

	problem, err := problems.New(config.Problem, config.Dim)
	if err != nil {
		return err
	}

	optimizer, err := cne.New(cne.Config{
		PopulationSize:  config.PopSize,
		MaxGenerations:  config.Generations,
		MutationProb:    config.MutationProb,
		MutationSize:    config.MutationSize,
		SelectPercent:   config.SelectPercent,
		Tolerance:       config.Tolerance,
		ObjectiveChange: config.ObjectiveChange,
		Workers:         config.Workers,
		Seed:            config.Seed,
	})
	if err != nil {
		return err
	}

	trace, err := store.NewTraceWriter(resumeDataDir, jobID, true)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer trace.Close()

	slog.Info("Resuming job",
		"job_id", jobID,
		"problem", config.Problem,
		"dim", config.Dim,
		"from_generation", checkpoint.Generation,
		"saved_fitness", checkpoint.BestFitness,
	)

	// Generation numbering continues where the previous run stopped.
	baseGen := checkpoint.Generation
	optimizer.ProgressFunc = func(p cne.Progress) {
		if p.Generation%1000 == 0 {
			slog.Info("Progress", "generation", baseGen+p.Generation, "best_fitness", p.BestFitness)
		}
		writeTraceEntry(trace, baseGen+p.Generation, p.BestFitness)
	}

	start := time.Now()
	result, err := optimizer.Optimize(problem, checkpoint.BestParams)
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}
	elapsed := time.Since(start)

	updated := store.NewCheckpoint(
		jobID,
		result.BestParams,
		result.BestFitness,
		checkpoint.InitialFitness,
		baseGen+result.Generations,
		config,
	)
	if err := fs.SaveCheckpoint(jobID, updated); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	slog.Info("Resume complete",
		"job_id", jobID,
		"elapsed", elapsed,
		"best_fitness", result.BestFitness,
		"total_generations", baseGen+result.Generations,
	)

	fmt.Printf("Resumed %s: fitness %.6g -> %.6g over %d more generations (%.2fs)\n",
		jobID, checkpoint.BestFitness, result.BestFitness, result.Generations, elapsed.Seconds())

	return nil
}
