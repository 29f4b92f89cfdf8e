package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/evacflow/internal/bim"
	"github.com/gyaneshwarpardhi/evacflow/internal/config"
	"github.com/gyaneshwarpardhi/evacflow/internal/engine"
	"github.com/gyaneshwarpardhi/evacflow/internal/metrics"
	"github.com/gyaneshwarpardhi/evacflow/internal/report"
)

const (
	maxBatchSize     = 100
	maxBodyBytes     = 32 << 20
	defaultRunsLimit = 50
)

// RunIndex lists recorded runs; the sqlite sink implements it.
type RunIndex interface {
	RecentRuns(ctx context.Context, limit int) ([]report.RunRow, error)
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	runs   RunIndex
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes. runs may be nil
// when no run index is configured.
func New(eng *engine.Engine, loader *config.Loader, runs RunIndex) http.Handler {
	h := &Handler{eng: eng, loader: loader, runs: runs, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/simulations", h.simulate)
	h.mux.HandleFunc("POST /v1/simulations/batch", h.simulateBatch)
	h.mux.HandleFunc("GET /v1/simulations/stream", h.stream)
	h.mux.HandleFunc("GET /v1/runs", h.listRuns)
	h.mux.HandleFunc("GET /v1/scenario", h.getScenario)
	h.mux.HandleFunc("POST /v1/scenario/reload", h.reloadScenario)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/simulations — synchronous run of an inline building document.
// ?density= seeds every zone uniformly.
func (h *Handler) simulate(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read body: %s", err))
		return
	}
	b, err := bim.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg, err := h.scenarioFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.eng.RunSync(r.Context(), engine.Job{ID: uuid.NewString(), Building: b, Scenario: cfg})
	if err != nil {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	status := http.StatusOK
	if res.Error != "" {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

type batchRequest struct {
	Densities []float64 `json:"densities"`
}

// POST /v1/simulations/batch — async runs of the scenario's building files,
// optionally swept over several uniform densities.
func (h *Handler) simulateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	for _, d := range req.Densities {
		if d < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("density %g must not be negative", d))
			return
		}
	}

	cfg := h.eng.Scenario()
	jobs := engine.Jobs(cfg)
	if len(req.Densities) > 0 {
		jobs = engine.Sweep(cfg, req.Densities)
	}
	if len(jobs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(jobs), maxBatchSize))
		return
	}

	batchID := uuid.NewString()
	runIDs := make([]string, 0, len(jobs))
	for _, job := range jobs {
		job.ID = uuid.NewString()
		if h.eng.Submit(job) {
			runIDs = append(runIDs, job.ID)
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"batch_id": batchID,
		"total":    len(jobs),
		"queued":   len(runIDs),
		"rejected": len(jobs) - len(runIDs),
		"run_ids":  runIDs,
	})
}

// GET /v1/runs — recent runs from the run index.
func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusNotFound, "run index is not enabled (add the sqlite sink)")
		return
	}
	limit := defaultRunsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", s))
			return
		}
		limit = n
	}
	rows, err := h.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": rows})
}

// GET /v1/scenario — the active scenario.
func (h *Handler) getScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Scenario())
}

// POST /v1/scenario/reload — hot-reload the scenario from disk.
func (h *Handler) reloadScenario(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := config.Validate(cfg); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.eng.SwapScenario(cfg)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":  true,
		"version":   cfg.Version,
		"bim_files": len(cfg.BimFiles),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the run queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

// scenarioFor applies the ?density= override to the active scenario.
func (h *Handler) scenarioFor(r *http.Request) (*config.ScenarioConfig, error) {
	cfg := h.eng.Scenario()
	s := r.URL.Query().Get("density")
	if s == "" {
		return cfg, nil
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || d < 0 {
		return nil, fmt.Errorf("invalid density %q", s)
	}
	return engine.WithDensity(cfg, d), nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Hijack is needed by the websocket upgrade.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("http request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration_ms", time.Since(start).Milliseconds())
	})
}
