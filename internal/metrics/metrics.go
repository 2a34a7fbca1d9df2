// Package metrics exposes Prometheus instrumentation for task execution.
//
// The CLI runs once per invocation, so metrics are not served over HTTP;
// they can be written to a node-exporter textfile after the run drains.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder records task lifecycle metrics. A nil *Recorder is a no-op.
type Recorder struct {
	tasksTotal   *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	tasksRunning prometheus.Gauge
}

// NewRecorder creates a recorder and registers its collectors on reg.
// A nil reg leaves the collectors unregistered.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		tasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "anchorage",
				Name:      "tasks_total",
				Help:      "Total number of terminated tasks by outcome",
			},
			[]string{"outcome"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "anchorage",
				Name:      "task_duration_seconds",
				Help:      "Wall time from task start to termination",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10), // 10ms to ~43min
			},
			[]string{"outcome"},
		),
		tasksRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "anchorage",
				Name:      "tasks_running",
				Help:      "Number of tasks currently held by a worker",
			},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{r.tasksTotal, r.taskDuration, r.tasksRunning} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("failed to register task metrics: %w", err)
			}
		}
	}
	return r, nil
}

// TaskStarted marks a task as picked up by a worker.
func (r *Recorder) TaskStarted() {
	if r == nil {
		return
	}
	r.tasksRunning.Inc()
}

// TaskFinished records a terminated task.
func (r *Recorder) TaskFinished(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.tasksRunning.Dec()
	r.tasksTotal.WithLabelValues(outcome).Inc()
	r.taskDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// WriteTextfile writes everything gathered by g to path in the Prometheus
// text format, atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
