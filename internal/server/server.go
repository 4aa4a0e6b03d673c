package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evolib/cne/internal/store"
)

// Server exposes the optimization job API over HTTP.
type Server struct {
	jobManager  *JobManager
	checkpoints store.Store
	dataDir     string
	addr        string
	server      *http.Server
}

// NewServer creates a new HTTP server. Checkpoints and traces are written
// under dataDir; checkpoints may be nil to disable persistence.
func NewServer(addr string, checkpoints store.Store, dataDir string) *Server {
	return &Server{
		jobManager:  NewJobManager(),
		checkpoints: checkpoints,
		dataDir:     dataDir,
		addr:        addr,
	}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/checkpoints", s.handleListCheckpoints)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleJobsWithID handles /api/v1/jobs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	// Parse job ID from path
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "job ID required")
		return
	}

	jobID := parts[0]

	// Route based on subpath
	switch {
	case len(parts) == 1 || parts[1] == "status":
		s.handleGetJobStatus(w, r, jobID)
	case parts[1] == "trace":
		s.handleGetTrace(w, r, jobID)
	case parts[1] == "stream":
		s.handleJobStream(w, r, jobID)
	case parts[1] == "cancel":
		s.handleCancelJob(w, r, jobID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req jobConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	config, err := req.toJobConfig()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Create job with a cancellable run context
	job := s.jobManager.CreateJob(config)
	ctx, cancel := context.WithCancel(context.Background())
	s.jobManager.RegisterCancel(job.ID, cancel)

	// Start worker in background
	go runJob(ctx, s.jobManager, s.checkpoints, s.dataDir, job.ID)

	writeJSON(w, http.StatusCreated, job)
}

// jobConfigRequest mirrors JobConfig with pointer fields for the knobs whose
// zero value is a legitimate setting, so defaults apply only when a field is
// absent from the request. A zero mutation probability, for example, is a
// valid request, not a missing one.
type jobConfigRequest struct {
	Problem            string   `json:"problem"`
	Dim                int      `json:"dim"`
	Optimizer          string   `json:"optimizer"`
	Generations        int      `json:"generations"`
	PopSize            int      `json:"popSize"`
	MutationProb       *float64 `json:"mutationProb"`
	MutationSize       *float64 `json:"mutationSize"`
	SelectPercent      *float64 `json:"selectPercent"`
	Tolerance          *float64 `json:"tolerance"`
	ObjectiveChange    *float64 `json:"objectiveChange"`
	Seed               int64    `json:"seed"`
	Workers            int      `json:"workers"`
	CheckpointInterval int      `json:"checkpointInterval"`
}

// toJobConfig fills unset fields with the documented defaults and rejects
// unusable requests.
func (r *jobConfigRequest) toJobConfig() (JobConfig, error) {
	if r.Problem == "" {
		return JobConfig{}, errors.New("problem is required")
	}
	if r.Dim <= 0 {
		return JobConfig{}, errors.New("dim must be positive")
	}

	config := JobConfig{
		Problem:            r.Problem,
		Dim:                r.Dim,
		Optimizer:          r.Optimizer,
		Generations:        r.Generations,
		PopSize:            r.PopSize,
		MutationProb:       floatOrDefault(r.MutationProb, 0.1),
		MutationSize:       floatOrDefault(r.MutationSize, 0.02),
		SelectPercent:      floatOrDefault(r.SelectPercent, 0.2),
		Tolerance:          floatOrDefault(r.Tolerance, 1e-5),
		ObjectiveChange:    floatOrDefault(r.ObjectiveChange, 1e-5),
		Seed:               r.Seed,
		Workers:            r.Workers,
		CheckpointInterval: r.CheckpointInterval,
	}
	if config.Optimizer == "" {
		config.Optimizer = "cne"
	}
	if config.Generations <= 0 {
		config.Generations = 5000
	}
	if config.PopSize <= 0 {
		config.PopSize = 500
	}
	return config, nil
}

func floatOrDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// handleGetJobStatus handles GET /api/v1/jobs/:id/status
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	// Compute elapsed time and generation throughput
	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	gps := float64(0)
	if elapsed.Seconds() > 0 {
		gps = float64(job.Generations) / elapsed.Seconds()
	}

	response := map[string]interface{}{
		"id":             job.ID,
		"state":          job.State,
		"config":         job.Config,
		"bestFitness":    job.BestFitness,
		"initialFitness": job.InitialFitness,
		"generations":    job.Generations,
		"elapsed":        elapsed.Seconds(),
		"gps":            gps,
		"startTime":      job.StartTime,
		"endTime":        job.EndTime,
		"error":          job.Error,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleGetTrace handles GET /api/v1/jobs/:id/trace
func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request, jobID string) {
	if _, exists := s.jobManager.GetJob(jobID); !exists {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	reader, err := store.NewTraceReader(s.dataDir, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no trace recorded")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// handleCancelJob handles POST /api/v1/jobs/:id/cancel
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.jobManager.CancelJob(jobID); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// handleListCheckpoints handles GET /api/v1/checkpoints
func (s *Server) handleListCheckpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.checkpoints == nil {
		writeError(w, http.StatusNotImplemented, "persistence disabled")
		return
	}

	infos, err := s.checkpoints.ListCheckpoints()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if infos == nil {
		infos = []store.CheckpointInfo{}
	}

	writeJSON(w, http.StatusOK, infos)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
