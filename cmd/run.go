package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/evolib/cne/internal/cne"
	"github.com/evolib/cne/internal/opt"
	"github.com/evolib/cne/internal/problems"
	"github.com/evolib/cne/internal/store"
	"github.com/spf13/cobra"
)

var (
	problemName     string
	optimizerName   string
	dim             int
	generations     int
	popSize         int
	mutationProb    float64
	mutationSize    float64
	selectPercent   float64
	tolerance       float64
	objectiveChange float64
	seed            int64
	workers         int
	runDataDir      string
	saveAs          string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single optimization locally",
	Long: `Minimizes a named benchmark problem and prints the result. With --save the
final state is written as a checkpoint that the resume command can pick up.`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&problemName, "problem", "", "Objective to minimize (required; see 'sphere', 'rosenbrock', 'rastrigin')")
	runCmd.Flags().StringVar(&optimizerName, "optimizer", "cne", "Engine: cne, mayfly")
	runCmd.Flags().IntVar(&dim, "dim", 2, "Parameter-space dimensionality")
	runCmd.Flags().IntVar(&generations, "generations", 5000, "Generation budget")
	runCmd.Flags().IntVar(&popSize, "pop", 500, "Population size")
	runCmd.Flags().Float64Var(&mutationProb, "mutation-prob", 0.1, "Per-parameter mutation probability (cne)")
	runCmd.Flags().Float64Var(&mutationSize, "mutation-size", 0.02, "Mutation noise bound (cne)")
	runCmd.Flags().Float64Var(&selectPercent, "select", 0.2, "Fraction of the population kept as parents (cne)")
	runCmd.Flags().Float64Var(&tolerance, "tolerance", 1e-5, "Stop when best fitness reaches this value (negative disables)")
	runCmd.Flags().Float64Var(&objectiveChange, "objective-change", 1e-5, "Stop when window improvement falls below this (negative disables)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 = time-based)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Evaluation workers (0 = all cores)")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "./data", "Base directory for saved checkpoints")
	runCmd.Flags().StringVar(&saveAs, "save", "", "Save the result as a resumable checkpoint under this job ID")

	runCmd.MarkFlagRequired("problem")
	rootCmd.AddCommand(runCmd)
}

func runOptimization(cmd *cobra.Command, args []string) error {
	slog.Info("Starting optimization",
		"problem", problemName,
		"dim", dim,
		"optimizer", optimizerName,
		"generations", generations,
		"pop_size", popSize,
	)

	problem, err := problems.New(problemName, dim)
	if err != nil {
		return err
	}

	config := store.JobConfig{
		Problem:         problemName,
		Dim:             dim,
		Optimizer:       optimizerName,
		Generations:     generations,
		PopSize:         popSize,
		MutationProb:    mutationProb,
		MutationSize:    mutationSize,
		SelectPercent:   selectPercent,
		Tolerance:       tolerance,
		ObjectiveChange: objectiveChange,
		Seed:            seed,
		Workers:         workers,
	}

	engine, err := buildEngine(config)
	if err != nil {
		return err
	}

	var trace *store.TraceWriter
	if saveAs != "" {
		trace, err = store.NewTraceWriter(runDataDir, saveAs, false)
		if err != nil {
			return fmt.Errorf("failed to open trace: %w", err)
		}
		defer trace.Close()
	}

	ranGenerations := 0
	if adapter, ok := engine.(*opt.CNEAdapter); ok {
		adapter.Progress = func(generation int, bestFitness float64, bestParams []float64) {
			ranGenerations = generation
			if generation%1000 == 0 {
				slog.Info("Progress", "generation", generation, "best_fitness", bestFitness)
			}
			writeTraceEntry(trace, generation, bestFitness)
		}
	}

	eval := func(params []float64) float64 {
		v, err := problem.Evaluate(params)
		if err != nil {
			slog.Error("Evaluation failed", "error", err)
			return math.Inf(1)
		}
		return v
	}

	lower, upper := problem.Bounds()
	start := time.Now()

	bestParams, bestFitness, err := engine.Run(context.Background(), eval, lower, upper, dim)
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}
	elapsed := time.Since(start)

	if ranGenerations == 0 {
		ranGenerations = generations
	}

	slog.Info("Optimization complete",
		"elapsed", elapsed,
		"best_fitness", bestFitness,
		"generations", ranGenerations,
	)

	fmt.Printf("Best fitness %.6g after %d generations (%.2fs)\n", bestFitness, ranGenerations, elapsed.Seconds())
	fmt.Printf("Best parameters: %v\n", bestParams)

	if saveAs != "" {
		fs, err := store.NewFSStore(runDataDir)
		if err != nil {
			return fmt.Errorf("failed to create checkpoint store: %w", err)
		}
		checkpoint := store.NewCheckpoint(saveAs, bestParams, bestFitness, bestFitness, ranGenerations, config)
		if err := fs.SaveCheckpoint(saveAs, checkpoint); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
		fmt.Printf("Saved checkpoint %s under %s\n", saveAs, runDataDir)
	}

	return nil
}

// writeTraceEntry records one generation in the trace. A failed write is
// logged and skipped so a full disk does not abort the optimization.
func writeTraceEntry(trace *store.TraceWriter, generation int, bestFitness float64) {
	if trace == nil {
		return
	}
	err := trace.Write(store.TraceEntry{
		Generation:  generation,
		BestFitness: bestFitness,
		Timestamp:   time.Now(),
	})
	if err != nil {
		slog.Warn("Trace write failed", "generation", generation, "error", err)
	}
}

// buildEngine maps a job configuration onto an optimization engine.
func buildEngine(config store.JobConfig) (opt.Optimizer, error) {
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
