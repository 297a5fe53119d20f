// Package metrics collects per-run counters and writes them in the
// node_exporter textfile format so a cron host can scrape them.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TextfileKey is where the runner drops the textfile, relative to its home.
const TextfileKey = "artifacts/metrics.prom"

type Metrics struct {
	Registry *prometheus.Registry

	Fetches        *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	PostsExtracted prometheus.Counter
	Runs           *prometheus.CounterVec
	NewItems       prometheus.Gauge
	LastRun        prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Fetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cron_shell_fetches_total",
			Help: "Page fetches by source (cache, live, error).",
		}, []string{"source"}),
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cron_shell_fetch_duration_seconds",
			Help:    "Duration of tiered fetches.",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 20},
		}, []string{"source"}),
		PostsExtracted: f.NewCounter(prometheus.CounterOpts{
			Name: "cron_shell_posts_extracted_total",
			Help: "Post links extracted across all targets.",
		}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cron_shell_runs_total",
			Help: "Completed runs by decision.",
		}, []string{"decision"}),
		NewItems: f.NewGauge(prometheus.GaugeOpts{
			Name: "cron_shell_new_items",
			Help: "New post ids found by the last run.",
		}),
		LastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "cron_shell_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run.",
		}),
	}
}

func (m *Metrics) ObserveFetch(source string, d time.Duration) {
	m.Fetches.WithLabelValues(source).Inc()
	m.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveRun records a completed run. decision is a label, not the
// per-run decision string, to keep cardinality fixed.
func (m *Metrics) ObserveRun(decision string, newItems int, at time.Time) {
	m.Runs.WithLabelValues(decision).Inc()
	m.NewItems.Set(float64(newItems))
	m.LastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes all metrics to path, creating its directory.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
