package observability

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"route", "method"},
	)

	// Evaluation metrics, labeled by strategy name so dashboards can compare
	// sequential/pool/bounded runs directly.
	EvaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evaluation_duration_seconds",
			Help:    "Time spent evaluating a full contest",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"method"},
	)
	EvaluationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluation_total",
			Help: "Total number of answer evaluations",
		},
		[]string{"method", "status"},
	)
	EvaluationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluation_errors_total",
			Help: "Total number of evaluation errors",
		},
		[]string{"method", "error_type"},
	)

	// Process resource gauges sampled around evaluation work.
	CPUUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cpu_usage_percent",
			Help: "Process CPU usage percent",
		},
		[]string{"method"},
	)
	MemoryUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "memory_usage_bytes",
			Help: "Process resident memory in bytes",
		},
		[]string{"method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by operation",
		},
		[]string{"operation", "status"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	JobsEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_enqueued_total",
			Help: "Total number of evaluation jobs enqueued",
		},
		[]string{"type"},
	)
	JobsProcessing = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jobs_processing",
			Help: "Number of evaluation jobs currently processing",
		},
		[]string{"type"},
	)
)

var registerOnce sync.Once

// InitMetrics registers all Prometheus metrics once per process.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(EvaluationDuration)
		prometheus.MustRegister(EvaluationTotal)
		prometheus.MustRegister(EvaluationErrors)
		prometheus.MustRegister(CPUUsage)
		prometheus.MustRegister(MemoryUsage)
		prometheus.MustRegister(AIRequestsTotal)
		prometheus.MustRegister(AIRequestDuration)
		prometheus.MustRegister(JobsEnqueuedTotal)
		prometheus.MustRegister(JobsProcessing)
	})
}

// SystemSample holds one reading of process resource usage.
type SystemSample struct {
	CPUPercent  float64
	MemoryBytes uint64
}

// UpdateSystemMetrics samples process CPU and memory and sets the gauges for
// the given strategy name. Best effort: sampling failures only log.
func UpdateSystemMetrics(method string) SystemSample {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		slog.Debug("process handle unavailable", slog.Any("error", err))
		return SystemSample{}
	}
	var sample SystemSample
	if pct, err := proc.CPUPercent(); err == nil {
		sample.CPUPercent = pct
		CPUUsage.WithLabelValues(method).Set(pct)
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		sample.MemoryBytes = mem.RSS
		MemoryUsage.WithLabelValues(method).Set(float64(mem.RSS))
	}
	return sample
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}
