// Package server implements the HTTP API for running Nelder-Mead
// optimizations of catalog objectives as background jobs.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/optkit/simplexd/internal/config"
	"github.com/optkit/simplexd/internal/logging"
	"github.com/optkit/simplexd/internal/store"
	"github.com/optkit/simplexd/optimization"
	"github.com/optkit/simplexd/optimization/neldermead"
)

// Logger defines the logging interface used by the server.
// This allows us to be flexible with our logging implementation.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Run statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// RunState tracks one optimization job. The server's mutex guards every
// field after the goroutine is launched.
type RunState struct {
	ID         string
	Status     string
	Request    OptimizeRequest
	StartTime  time.Time
	EndTime    *time.Time
	Best       *optimization.Solution
	Err        string
	CancelFunc context.CancelFunc
}

// OptimizeRequest is the JSON body of POST /api/v1/optimize. Objective
// names a function from the optimization catalog.
type OptimizeRequest struct {
	Objective     string    `json:"objective"`
	InitialPoint  []float64 `json:"initial_point"`
	InitialRadius float64   `json:"initial_radius,omitempty"`
	BoundsMin     []float64 `json:"bounds_min,omitempty"`
	BoundsMax     []float64 `json:"bounds_max,omitempty"`
	Params        *Params   `json:"params,omitempty"`
	MaxIterations int       `json:"max_iterations,omitempty"`
	Maximize      bool      `json:"maximize,omitempty"`
	Seed          uint64    `json:"seed,omitempty"`
	ClampShrink   bool      `json:"clamp_shrink,omitempty"`
}

// Params mirrors neldermead.Params on the wire.
type Params struct {
	Alpha float64 `json:"alpha"`
	Gamma float64 `json:"gamma"`
	Rho   float64 `json:"rho"`
	Delta float64 `json:"delta"`
}

// Server manages optimization jobs and serves their status.
type Server struct {
	cfg     *config.Config
	logger  Logger
	runs    *store.Store
	metrics *Metrics

	statesMu sync.RWMutex
	states   map[string]*RunState

	// wg tracks in-flight jobs so Close can wait for them.
	wg sync.WaitGroup
}

// NewServer creates a new server instance. runs may be nil, in which case
// completed jobs are kept in memory only.
func NewServer(cfg *config.Config, logger Logger, runs *store.Store, metrics *Metrics) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		runs:    runs,
		metrics: metrics,
		states:  make(map[string]*RunState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/objectives", s.handleObjectives)
		r.Get("/runs", s.handleList)
		r.Get("/runs/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
	})
}

// handleOptimize starts a new optimization job.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	obj, ok := optimization.LookupObjective(req.Objective)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "unknown objective "+strconv.Quote(req.Objective))
		return
	}
	if obj.Dimension != 0 && len(req.InitialPoint) != obj.Dimension {
		s.respondError(w, http.StatusBadRequest, "objective "+obj.Name+" requires dimension "+strconv.Itoa(obj.Dimension))
		return
	}

	if req.InitialRadius == 0 {
		req.InitialRadius = s.cfg.Optimizer.InitialRadius
	}
	if req.MaxIterations == 0 {
		req.MaxIterations = s.cfg.Optimizer.MaxIterations
	}

	objective := obj.Fn
	if req.Maximize {
		objective = optimization.Negate(objective)
	}

	nmConfig := neldermead.Config{
		Objective:     objective,
		InitialPoint:  req.InitialPoint,
		InitialRadius: req.InitialRadius,
		MaxIterations: req.MaxIterations,
		RandomSeed:    req.Seed,
		ClampShrink:   req.ClampShrink,
	}
	if req.Params != nil {
		nmConfig.Params = neldermead.Params{
			Alpha: req.Params.Alpha,
			Gamma: req.Params.Gamma,
			Rho:   req.Params.Rho,
			Delta: req.Params.Delta,
		}
	}
	if req.BoundsMin != nil || req.BoundsMax != nil {
		nmConfig.Bounds = neldermead.Bounds{Min: req.BoundsMin, Max: req.BoundsMax}
	}

	optimizer, err := neldermead.New(nmConfig)
	if err != nil {
		if optimization.IsValidationError(err) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	state := &RunState{
		ID:         id,
		Status:     StatusPending,
		Request:    req,
		StartTime:  time.Now(),
		CancelFunc: cancel,
	}

	s.statesMu.Lock()
	s.states[id] = state
	s.statesMu.Unlock()

	s.metrics.runsStarted.Inc()
	s.wg.Add(1)
	go s.runOptimization(ctx, state, optimizer)

	s.logger.Info("optimization started", map[string]interface{}{
		"run_id":     id,
		"objective":  req.Objective,
		"dimension":  len(req.InitialPoint),
		"iterations": req.MaxIterations,
		"maximize":   req.Maximize,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"run_id": id,
		"status": StatusPending,
	})
}

// runOptimization executes the optimization process in a goroutine.
func (s *Server) runOptimization(ctx context.Context, state *RunState, optimizer optimization.Optimizer) {
	defer s.wg.Done()
	defer state.CancelFunc()

	s.setStatus(state, StatusRunning)
	s.metrics.runsRunning.Inc()
	defer s.metrics.runsRunning.Dec()

	result, err := optimizer.Optimize(ctx)
	now := time.Now()
	s.metrics.runDuration.Observe(now.Sub(state.StartTime).Seconds())

	var best *optimization.Solution
	status := StatusCompleted
	switch {
	case errors.Is(err, context.Canceled):
		status = StatusCancelled
	case err != nil:
		status = StatusFailed
	default:
		solution := *result.BestSolution
		if state.Request.Maximize {
			solution.Value = -solution.Value
		}
		best = &solution
	}

	// Persist before publishing the terminal status, so a completed run is
	// always visible in the archive.
	if status == StatusCompleted && s.runs != nil {
		saveErr := s.runs.Save(context.Background(), store.Run{
			ID:         state.ID,
			Objective:  state.Request.Objective,
			Dimension:  len(state.Request.InitialPoint),
			Iterations: result.Iterations,
			Maximize:   state.Request.Maximize,
			Best:       *best,
			StartedAt:  state.StartTime,
			FinishedAt: now,
		})
		if saveErr != nil {
			s.logger.Error("failed to persist run", map[string]interface{}{
				"run_id": state.ID,
				"error":  saveErr.Error(),
			})
		}
	}

	s.statesMu.Lock()
	state.EndTime = &now
	state.Status = status
	state.Best = best
	if err != nil {
		state.Err = err.Error()
	}
	s.statesMu.Unlock()

	s.metrics.runsFinished.WithLabelValues(status).Inc()

	if err != nil {
		s.logger.Error("optimization finished without result", map[string]interface{}{
			"run_id": state.ID,
			"status": status,
			"error":  err.Error(),
		})
		return
	}

	s.logger.Info("optimization completed", map[string]interface{}{
		"run_id": state.ID,
		"value":  best.Value,
	})
}

func (s *Server) setStatus(state *RunState, status string) {
	s.statesMu.Lock()
	state.Status = status
	s.statesMu.Unlock()
}

// handleObjectives lists the names of the optimizable catalog functions.
func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"objectives": optimization.ObjectiveNames(),
	})
}

// handleStatus reports the state of a run, falling back to the archive for
// runs evicted from memory.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.statesMu.RLock()
	state, ok := s.states[id]
	var response map[string]interface{}
	if ok {
		response = map[string]interface{}{
			"run_id":     state.ID,
			"status":     state.Status,
			"objective":  state.Request.Objective,
			"start_time": state.StartTime.Format(time.RFC3339),
		}
		if state.EndTime != nil {
			response["end_time"] = state.EndTime.Format(time.RFC3339)
		}
		if state.Best != nil {
			response["best_solution"] = map[string]interface{}{
				"parameters": state.Best.Parameters,
				"value":      state.Best.Value,
			}
		}
		if state.Err != "" {
			response["error"] = state.Err
		}
	}
	s.statesMu.RUnlock()

	if !ok && s.runs != nil {
		run, err := s.runs.Get(r.Context(), id)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if run != nil {
			response = map[string]interface{}{
				"run_id":     run.ID,
				"status":     StatusCompleted,
				"objective":  run.Objective,
				"start_time": run.StartedAt.Format(time.RFC3339),
				"end_time":   run.FinishedAt.Format(time.RFC3339),
				"best_solution": map[string]interface{}{
					"parameters": run.Best.Parameters,
					"value":      run.Best.Value,
				},
			}
		}
	}

	if response == nil {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleList returns archived runs, most recent first.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	var runs []store.Run
	if s.runs != nil {
		var err error
		runs, err = s.runs.List(r.Context(), limit)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	items := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		items = append(items, map[string]interface{}{
			"run_id":     run.ID,
			"objective":  run.Objective,
			"dimension":  run.Dimension,
			"iterations": run.Iterations,
			"maximize":   run.Maximize,
			"value":      run.Best.Value,
			"parameters": run.Best.Parameters,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"runs": items})
}

// handleCancel cancels a running optimization job.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.statesMu.Lock()
	state, ok := s.states[id]
	if !ok {
		s.statesMu.Unlock()
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	switch state.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		status := state.Status
		s.statesMu.Unlock()
		s.respondError(w, http.StatusConflict, "cannot cancel run with status "+status)
		return
	}
	s.statesMu.Unlock()

	state.CancelFunc()

	s.logger.Info("optimization cancellation requested", map[string]interface{}{
		"run_id": id,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"run_id": id,
		"status": "cancellation requested",
	})
}

func (s *Server) respondError(w http.ResponseWriter, code int, message string) {
	s.logger.Error("request error", map[string]interface{}{
		"status":  code,
		"message": message,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Close cancels all running optimizations and waits for them to drain.
func (s *Server) Close() error {
	s.statesMu.Lock()
	for _, state := range s.states {
		if state.CancelFunc != nil {
			state.CancelFunc()
		}
	}
	s.statesMu.Unlock()

	s.wg.Wait()
	return nil
}
