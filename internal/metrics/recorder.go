package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder collects the benchmark's Prometheus metrics on a private
// registry, so several runs in one process never collide.
type Recorder struct {
	registry  *prometheus.Registry
	runs      *prometheus.CounterVec
	workers   *prometheus.GaugeVec
	elapsed   *prometheus.GaugeVec
	matches   *prometheus.GaugeVec
	processed *prometheus.GaugeVec
	stopped   *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with Go runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parbench_runs_total",
			Help: "Number of benchmark runs, by mode and status.",
		}, []string{"mode", "status"}),
		workers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parbench_workers",
			Help: "Number of workers of the last run.",
		}, []string{"mode"}),
		elapsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parbench_elapsed_seconds",
			Help: "Wall-clock duration of the last run.",
		}, []string{"mode"}),
		matches: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parbench_worker_matches",
			Help: "Even numbers found by each worker.",
		}, []string{"mode", "worker"}),
		processed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parbench_worker_processed",
			Help: "Values examined by each worker.",
		}, []string{"mode", "worker"}),
		stopped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parbench_stopped",
			Help: "1 when the last run was stopped early by interrupt.",
		}, []string{"mode"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.runs, r.workers, r.elapsed, r.matches, r.processed, r.stopped,
	)
	return r
}

// ObserveWorker records the final counters of one worker.
func (r *Recorder) ObserveWorker(mode string, id int, matches, processed int64) {
	label := strconv.Itoa(id)
	r.matches.WithLabelValues(mode, label).Set(float64(matches))
	r.processed.WithLabelValues(mode, label).Set(float64(processed))
}

// ObserveRun records the outcome of a whole run. failed marks runs where
// at least one worker did not report.
func (r *Recorder) ObserveRun(mode string, workers int, elapsed time.Duration, stopped, failed bool) {
	status := "completed"
	switch {
	case failed:
		status = "failed"
	case stopped:
		status = "stopped"
	}
	r.runs.WithLabelValues(mode, status).Inc()
	r.workers.WithLabelValues(mode).Set(float64(workers))
	r.elapsed.WithLabelValues(mode).Set(elapsed.Seconds())
	stop := 0.0
	if stopped {
		stop = 1
	}
	r.stopped.WithLabelValues(mode).Set(stop)
}

// WriteToTextfile writes the metrics in text format to path, atomically.
func (r *Recorder) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
