package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupTestStore creates a temporary directory and returns an FSStore.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	return store, tempDir
}

// createTestCheckpoint creates a checkpoint with plausible job data.
func createTestCheckpoint(jobID string) *Checkpoint {
	return &Checkpoint{
		JobID:          jobID,
		BestParams:     []float64{0.12, -0.05, 0.93},
		BestFitness:    0.0234,
		InitialFitness: 14.62,
		Generation:     500,
		Timestamp:      time.Now(),
		Config: JobConfig{
			Problem:         "sphere",
			Dim:             3,
			Optimizer:       "cne",
			Generations:     1000,
			PopSize:         50,
			MutationProb:    0.1,
			MutationSize:    0.02,
			SelectPercent:   0.2,
			Tolerance:       1e-5,
			ObjectiveChange: 1e-5,
			Seed:            42,
		},
	}
}

func TestNewFSStore(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
}

func TestSaveAndLoadCheckpoint(t *testing.T) {
	store, tempDir := setupTestStore(t)
	checkpoint := createTestCheckpoint("job-1")

	if err := store.SaveCheckpoint("job-1", checkpoint); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	// The file should sit at <base>/jobs/<id>/checkpoint.json.
	path := filepath.Join(tempDir, "jobs", "job-1", "checkpoint.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected checkpoint file at %s: %v", path, err)
	}

	loaded, err := store.LoadCheckpoint("job-1")
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}

	if loaded.JobID != checkpoint.JobID {
		t.Errorf("JobID = %q, want %q", loaded.JobID, checkpoint.JobID)
	}
	if loaded.BestFitness != checkpoint.BestFitness {
		t.Errorf("BestFitness = %g, want %g", loaded.BestFitness, checkpoint.BestFitness)
	}
	if loaded.Generation != checkpoint.Generation {
		t.Errorf("Generation = %d, want %d", loaded.Generation, checkpoint.Generation)
	}
	if len(loaded.BestParams) != len(checkpoint.BestParams) {
		t.Fatalf("BestParams length = %d, want %d", len(loaded.BestParams), len(checkpoint.BestParams))
	}
	for i := range checkpoint.BestParams {
		if loaded.BestParams[i] != checkpoint.BestParams[i] {
			t.Errorf("BestParams[%d] = %g, want %g", i, loaded.BestParams[i], checkpoint.BestParams[i])
		}
	}
	if loaded.Config.Problem != "sphere" {
		t.Errorf("Config.Problem = %q, want sphere", loaded.Config.Problem)
	}
}

func TestSaveCheckpointOverwrites(t *testing.T) {
	store, _ := setupTestStore(t)

	first := createTestCheckpoint("job-2")
	if err := store.SaveCheckpoint("job-2", first); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	second := createTestCheckpoint("job-2")
	second.BestFitness = 0.001
	second.Generation = 900
	if err := store.SaveCheckpoint("job-2", second); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	loaded, err := store.LoadCheckpoint("job-2")
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if loaded.BestFitness != 0.001 || loaded.Generation != 900 {
		t.Errorf("Overwrite failed: got fitness %g at generation %d", loaded.BestFitness, loaded.Generation)
	}
}

func TestSaveCheckpointValidation(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.SaveCheckpoint("", createTestCheckpoint("x")); err == nil {
		t.Error("Expected error for empty job ID")
	}
	if err := store.SaveCheckpoint("job-3", nil); err == nil {
		t.Error("Expected error for nil checkpoint")
	}
}

func TestLoadMissingCheckpoint(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadCheckpoint("no-such-job")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListCheckpoints(t *testing.T) {
	store, _ := setupTestStore(t)

	infos, err := store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("Expected empty listing, got %d entries", len(infos))
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := store.SaveCheckpoint(id, createTestCheckpoint(id)); err != nil {
			t.Fatalf("SaveCheckpoint(%s) failed: %v", id, err)
		}
	}

	infos, err = store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("Expected 3 checkpoints, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Problem != "sphere" || info.Dim != 3 {
			t.Errorf("Unexpected metadata: %+v", info)
		}
	}
}

func TestListSkipsCorruptedCheckpoint(t *testing.T) {
	store, tempDir := setupTestStore(t)

	if err := store.SaveCheckpoint("good", createTestCheckpoint("good")); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	badDir := filepath.Join(tempDir, "jobs", "bad")
	if err := os.MkdirAll(badDir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "checkpoint.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	infos, err := store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != 1 || infos[0].JobID != "good" {
		t.Errorf("Expected only the good checkpoint, got %+v", infos)
	}
}

func TestDeleteCheckpoint(t *testing.T) {
	store, tempDir := setupTestStore(t)

	if err := store.SaveCheckpoint("doomed", createTestCheckpoint("doomed")); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	if err := store.DeleteCheckpoint("doomed"); err != nil {
		t.Fatalf("DeleteCheckpoint failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tempDir, "jobs", "doomed")); !os.IsNotExist(err) {
		t.Error("Job directory should be removed")
	}

	if err := store.DeleteCheckpoint("doomed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for second delete, got %v", err)
	}
}
