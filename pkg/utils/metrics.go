package utils

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector wraps a private prometheus registry with the metric set the
// orchestrator reports on: per-suite durations and outcomes, extracted
// findings by severity, and the number of suites currently running.
type MetricsCollector struct {
	registry *prometheus.Registry

	suiteDuration *prometheus.HistogramVec
	suiteOutcome  *prometheus.CounterVec
	findingsTotal *prometheus.CounterVec
	suitesRunning prometheus.Gauge
	testsTotal    *prometheus.CounterVec

	mu sync.RWMutex
}

func NewMetricsCollector(enableRuntimeMetrics bool) *MetricsCollector {
	reg := prometheus.NewRegistry()

	if enableRuntimeMetrics {
		_ = reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		_ = reg.Register(collectors.NewGoCollector())
	}

	m := &MetricsCollector{
		registry: reg,
		suiteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "secsweep_suite_duration_seconds",
			Help:    "Wall-clock duration of each suite execution.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"suite", "mode"}),
		suiteOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "secsweep_suite_outcomes_total",
			Help: "Suite executions by terminal status.",
		}, []string{"suite", "status"}),
		findingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "secsweep_findings_total",
			Help: "Extracted vulnerability findings by severity.",
		}, []string{"severity", "category"}),
		suitesRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "secsweep_suites_running",
			Help: "Number of suite processes currently executing.",
		}),
		testsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "secsweep_tests_total",
			Help: "Normalized test counts by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.suiteDuration, m.suiteOutcome, m.findingsTotal, m.suitesRunning, m.testsTotal)
	return m
}

func (m *MetricsCollector) ObserveSuite(suite, mode, status string, duration time.Duration) {
	m.suiteDuration.WithLabelValues(suite, mode).Observe(duration.Seconds())
	m.suiteOutcome.WithLabelValues(suite, status).Inc()
}

func (m *MetricsCollector) CountFinding(severity, category string) {
	m.findingsTotal.WithLabelValues(severity, category).Inc()
}

func (m *MetricsCollector) CountTests(passed, failed, skipped int) {
	m.testsTotal.WithLabelValues("passed").Add(float64(passed))
	m.testsTotal.WithLabelValues("failed").Add(float64(failed))
	m.testsTotal.WithLabelValues("skipped").Add(float64(skipped))
}

func (m *MetricsCollector) SuiteStarted() { m.suitesRunning.Inc() }
func (m *MetricsCollector) SuiteSettled() { m.suitesRunning.Dec() }

func (m *MetricsCollector) StartServerWithContext(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("metrics server error: %w", err)
	}
}

func (m *MetricsCollector) GetRegistry() *prometheus.Registry {
	return m.registry
}
