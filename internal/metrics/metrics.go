package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evacflow_runs_enqueued_total",
		Help: "Total number of simulation runs placed on the queue.",
	})

	RunsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evacflow_runs_dropped_total",
		Help: "Total number of simulation runs rejected due to a full queue.",
	})

	RunsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evacflow_runs_completed_total",
		Help: "Total number of finished runs, labelled by status.",
	}, []string{"status"})

	StepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evacflow_steps_total",
		Help: "Total number of simulation steps performed.",
	})

	EvacuationTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evacflow_evacuation_time_seconds",
		Help:    "Simulated evacuation time of completed runs.",
		Buckets: []float64{10, 30, 60, 120, 180, 300, 600, 900, 1800, 3600},
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evacflow_run_duration_ms",
		Help:    "Wall-clock duration of a run from decode to report, in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evacflow_queue_utilization_ratio",
		Help: "Current run queue utilization (0–1).",
	})
)
