package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listJobs(fmt.Sprintf("%s/api/v1/jobs", serverURL))
	}
	jobID := args[0]
	return getJobStatus(fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, jobID), jobID)
}

func listJobs(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var jobs []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		config := job["config"].(map[string]interface{})
		fmt.Printf("Job ID: %s\n", job["id"])
		fmt.Printf("  State: %s\n", job["state"])
		fmt.Printf("  Problem: %s (dim %v)\n", config["problem"], config["dim"])
		fmt.Printf("  Optimizer: %s\n", config["optimizer"])
		if best, ok := job["bestFitness"].(float64); ok && job["generations"].(float64) > 0 {
			fmt.Printf("  Fitness: %.6g -> %.6g\n", job["initialFitness"], best)
		}
		fmt.Println()
	}

	return nil
}

func getJobStatus(url, jobID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Job: %s\n", status["id"])
	fmt.Printf("State: %s\n", status["state"])
	fmt.Println()

	config := status["config"].(map[string]interface{})
	fmt.Println("Configuration:")
	fmt.Printf("  Problem: %s\n", config["problem"])
	fmt.Printf("  Dimension: %v\n", config["dim"])
	fmt.Printf("  Optimizer: %s\n", config["optimizer"])
	fmt.Printf("  Generations: %v\n", config["generations"])
	fmt.Printf("  Population: %v\n", config["popSize"])
	fmt.Println()

	fmt.Println("Progress:")
	generations, _ := status["generations"].(float64)
	fmt.Printf("  Generations: %.0f\n", generations)
	if initial, ok := status["initialFitness"].(float64); ok && generations > 0 {
		best := status["bestFitness"].(float64)
		fmt.Printf("  Initial Fitness: %.6g\n", initial)
		fmt.Printf("  Best Fitness: %.6g\n", best)
		if initial != 0 {
			improvement := initial - best
			fmt.Printf("  Improvement: %.6g (%.1f%%)\n", improvement, improvement/initial*100)
		}
	}

	if elapsed, ok := status["elapsed"].(float64); ok {
		fmt.Printf("  Elapsed: %s\n", time.Duration(elapsed*float64(time.Second)).Round(time.Millisecond))
	}
	if gps, ok := status["gps"].(float64); ok && gps > 0 {
		fmt.Printf("  Throughput: %.0f generations/sec\n", gps)
	}

	if errMsg, ok := status["error"].(string); ok && errMsg != "" {
		fmt.Printf("\nError: %s\n", errMsg)
	}

	return nil
}
