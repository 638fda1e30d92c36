// Package metrics exposes krusty's optional Prometheus counters and
// histograms behind config.MetricsConfig.Enabled, on a private registry
// served over /metrics and /healthz.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Namespace is the Prometheus namespace for every krusty metric.
const Namespace = "krusty"

// Registry is krusty's custom Prometheus registry, kept separate from
// the global default so an embedding process's own metrics aren't
// pulled in by an accidental promhttp.Handler() call elsewhere.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Shell holds the counters and histograms for command execution, job
// control, and pipeline latency.
type Shell struct {
	CommandsTotal   *prometheus.CounterVec
	PipelineSeconds *prometheus.HistogramVec
	JobsStarted     prometheus.Counter
	JobsActive      prometheus.Gauge
	BuiltinErrors   *prometheus.CounterVec
}

// NewShell creates and registers the shell metrics. Calling it twice
// against the same Registry would panic on the duplicate registration,
// so callers build exactly one Shell per process.
func NewShell() *Shell {
	m := &Shell{
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "exec",
			Name:      "commands_total",
			Help:      "Total commands executed, by exit status class.",
		}, []string{"status"}),

		PipelineSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "exec",
			Name:      "pipeline_duration_seconds",
			Help:      "Histogram of pipeline wall-clock duration in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"background"}),

		JobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "jobs",
			Name:      "started_total",
			Help:      "Total background jobs started.",
		}),

		JobsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "jobs",
			Name:      "active",
			Help:      "Currently running or stopped jobs tracked by the job manager.",
		}),

		BuiltinErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "builtins",
			Name:      "errors_total",
			Help:      "Total builtin invocation errors, by builtin name.",
		}, []string{"builtin"}),
	}

	Registry.MustRegister(
		m.CommandsTotal,
		m.PipelineSeconds,
		m.JobsStarted,
		m.JobsActive,
		m.BuiltinErrors,
	)

	return m
}

// ObserveCommand records one command's terminal status.
func (m *Shell) ObserveCommand(exitCode int) {
	status := "ok"
	if exitCode != 0 {
		status = "error"
	}
	m.CommandsTotal.WithLabelValues(status).Inc()
}

// ObservePipeline records a pipeline's wall-clock duration.
func (m *Shell) ObservePipeline(d time.Duration, background bool) {
	label := "false"
	if background {
		label = "true"
	}
	m.PipelineSeconds.WithLabelValues(label).Observe(d.Seconds())
}

// Server serves /metrics and /healthz for Prometheus scraping.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds a metrics HTTP server bound to addr (e.g. ":9090").
func NewServer(addr string, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("metrics server shutdown error", zap.Error(err))
	}
}
