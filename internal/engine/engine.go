// Package engine runs simulation jobs on a bounded worker pool. Each job is
// an independent pipeline: decode, build, apply scenario, build graph,
// simulate, record.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/evacflow/internal/bim"
	"github.com/gyaneshwarpardhi/evacflow/internal/config"
	"github.com/gyaneshwarpardhi/evacflow/internal/graph"
	"github.com/gyaneshwarpardhi/evacflow/internal/metrics"
	"github.com/gyaneshwarpardhi/evacflow/internal/model"
	"github.com/gyaneshwarpardhi/evacflow/internal/report"
	"github.com/gyaneshwarpardhi/evacflow/internal/scenario"
	"github.com/gyaneshwarpardhi/evacflow/internal/sim"
)

// ErrQueueFull is returned when a job cannot be enqueued without blocking.
var ErrQueueFull = errors.New("run queue full")

// ErrClosed is returned for jobs submitted after Shutdown.
var ErrClosed = errors.New("engine is shut down")

// trappedEps is the occupancy below which a finished run counts as empty.
const trappedEps = 1e-9

// Job is one building under one scenario.
type Job struct {
	ID string
	// Source is the building file. It is ignored when Building is set.
	Source   string
	Building *bim.Building
	// Scenario overrides the engine's current scenario when set.
	Scenario *config.ScenarioConfig
	// Observers receive every step in addition to the report sinks.
	Observers []sim.Observer
}

// RunResult is the outcome of one job.
type RunResult struct {
	RunID      string       `json:"run_id"`
	Source     string       `json:"source,omitempty"`
	Building   string       `json:"building,omitempty"`
	DurationMs int64        `json:"duration_ms"`
	Summary    *sim.Summary `json:"summary,omitempty"`
	Warnings   []string     `json:"warnings,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// Engine processes jobs through the simulation pipeline.
type Engine struct {
	scenario atomic.Pointer[config.ScenarioConfig]
	sinks    *report.Registry
	pool     *workerPool[*runWork, *RunResult]
}

type runWork struct {
	ctx     context.Context
	job     Job
	resultC chan *RunResult
}

// New creates an Engine using the engine section of cfg and starts the pool.
// cfg is the default scenario for jobs that carry none.
func New(ctx context.Context, cfg *config.ScenarioConfig, sinks *report.Registry) *Engine {
	e := &Engine{sinks: sinks}
	e.scenario.Store(cfg)

	e.pool = newWorkerPool[*runWork, *RunResult](
		ctx,
		cfg.Engine.Workers,
		cfg.Engine.QueueDepth,
		func(ctx context.Context, w *runWork) (*RunResult, error) {
			if w.ctx != nil {
				ctx = w.ctx
			}
			res := e.Execute(ctx, w.job)
			if w.resultC != nil {
				w.resultC <- res
			}
			return res, nil
		},
	)
	return e
}

// SwapScenario atomically replaces the default scenario (used on hot-reload).
// Worker and sink settings only take effect on restart.
func (e *Engine) SwapScenario(cfg *config.ScenarioConfig) {
	e.scenario.Store(cfg)
}

// Scenario returns the current default scenario.
func (e *Engine) Scenario() *config.ScenarioConfig {
	return e.scenario.Load()
}

// Jobs returns one job per building file of cfg.
func Jobs(cfg *config.ScenarioConfig) []Job {
	paths := cfg.BimPaths()
	jobs := make([]Job, len(paths))
	for i, p := range paths {
		jobs[i] = Job{Source: p, Scenario: cfg}
	}
	return jobs
}

// Sweep returns one job per building file and uniform density. Each density
// reports into its own subdirectory of the outputs dir.
func Sweep(cfg *config.ScenarioConfig, densities []float64) []Job {
	var jobs []Job
	for _, d := range densities {
		c := WithDensity(cfg, d)
		c.Outputs.Dir = filepath.Join(cfg.Outputs.Dir, fmt.Sprintf("density_%g", d))
		jobs = append(jobs, Jobs(c)...)
	}
	return jobs
}

// WithDensity returns a copy of cfg seeding every zone uniformly at d.
// Special densities still apply.
func WithDensity(cfg *config.ScenarioConfig, d float64) *config.ScenarioConfig {
	c := *cfg
	c.Distribution.Type = config.DistributionUniform
	c.Distribution.Density = d
	return &c
}

// RunSync runs a job on the pool and waits for its result.
func (e *Engine) RunSync(ctx context.Context, job Job) (*RunResult, error) {
	resultC := make(chan *RunResult, 1)
	switch err := e.pool.Submit(&runWork{ctx: ctx, job: job, resultC: resultC}); {
	case errors.Is(err, ErrQueueFull):
		metrics.RunsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", err, e.pool.QueueCap())
	case err != nil:
		return nil, err
	}
	metrics.RunsEnqueued.Inc()

	select {
	case res := <-resultC:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Submit enqueues a job for background processing. Returns false if the
// queue is full or the engine is shut down.
func (e *Engine) Submit(job Job) bool {
	if err := e.pool.Submit(&runWork{job: job}); err != nil {
		if errors.Is(err, ErrQueueFull) {
			metrics.RunsDropped.Inc()
		}
		return false
	}
	metrics.RunsEnqueued.Inc()
	return true
}

// RunBatch runs every job and returns the results in job order. Jobs wait
// for queue space instead of being dropped; a failed job only fails its
// own result.
func (e *Engine) RunBatch(ctx context.Context, jobs []Job) []*RunResult {
	results := make([]*RunResult, len(jobs))
	chans := make([]chan *RunResult, len(jobs))
	for i, job := range jobs {
		if job.ID == "" {
			jobs[i].ID = uuid.NewString()
		}
		chans[i] = make(chan *RunResult, 1)
		if err := e.pool.SubmitWait(ctx, &runWork{ctx: ctx, job: jobs[i], resultC: chans[i]}); err != nil {
			chans[i] <- failed(jobs[i], err)
			continue
		}
		metrics.RunsEnqueued.Inc()
	}
	for i, c := range chans {
		select {
		case results[i] = <-c:
		case <-ctx.Done():
			results[i] = failed(jobs[i], ctx.Err())
		}
	}
	return results
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Execute runs the pipeline for job on the calling goroutine.
func (e *Engine) Execute(ctx context.Context, job Job) *RunResult {
	start := time.Now()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	res, err := e.execute(ctx, job)
	res.DurationMs = time.Since(start).Milliseconds()
	metrics.RunDuration.Observe(float64(res.DurationMs))

	status := "success"
	switch {
	case errors.Is(err, sim.ErrNonConvergence):
		status = "nonconvergence"
	case err != nil:
		status = "error"
	}
	metrics.RunsCompleted.WithLabelValues(status).Inc()
	if err != nil {
		res.Error = err.Error()
		slog.Error("run failed", "run", job.ID, "source", job.Source, "err", err)
		return res
	}
	slog.Info("run finished", "run", job.ID, "building", res.Building,
		"evacuation_time_s", res.Summary.EvacuationTimeSeconds, "steps", res.Summary.Steps)
	return res
}

func (e *Engine) execute(ctx context.Context, job Job) (*RunResult, error) {
	res := &RunResult{RunID: job.ID, Source: job.Source}
	cfg := job.Scenario
	if cfg == nil {
		cfg = e.scenario.Load()
	}

	b := job.Building
	if b == nil {
		var err error
		if b, err = bim.DecodeFile(job.Source); err != nil {
			return res, err
		}
	}
	res.Building = b.Name

	m, err := model.Build(b)
	if err != nil {
		return res, fmt.Errorf("build model: %w", err)
	}
	p := scenario.Apply(m, cfg)
	res.Warnings = m.Warnings

	g, err := graph.Build(m)
	if err != nil {
		return res, fmt.Errorf("build graph: %w", err)
	}
	s, err := sim.New(m, g, p, sim.WithMaxSteps(cfg.Engine.MaxSteps))
	if err != nil {
		return res, err
	}

	if cfg.Engine.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Engine.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	run := report.NewRun(job.ID, job.Source, cfg.Resolve(cfg.Outputs.Dir), m, s.Params())
	rec, err := e.sinks.Open(ctx, cfg.Outputs.Sinks, run)
	if err != nil {
		return res, err
	}
	observers := append([]sim.Observer{report.Observer(ctx, rec)}, job.Observers...)

	sum, runErr := s.Run(ctx, observers...)
	metrics.StepsTotal.Add(float64(sum.Steps))
	res.Summary = &sum
	if err := rec.Close(ctx, sum); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("report: %w", err))
	}
	if runErr == nil {
		metrics.EvacuationTime.Observe(sum.EvacuationTimeSeconds)
		if sum.PeopleInside > trappedEps {
			slog.Warn("run ended with people inside", "run", job.ID, "building", b.Name,
				"people_inside", sum.PeopleInside)
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%.2f people remain inside with no path out", sum.PeopleInside))
		}
	}
	return res, runErr
}

func failed(job Job, err error) *RunResult {
	return &RunResult{RunID: job.ID, Source: job.Source, Error: err.Error()}
}

// Shutdown drains the pool gracefully. Later submissions fail with ErrClosed.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
