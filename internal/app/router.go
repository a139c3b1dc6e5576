// Package app wires configuration, adapters, and the HTTP surface together.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/chibbo-dev/ai-algorithm-api/internal/adapter/httpserver"
	"github.com/chibbo-dev/ai-algorithm-api/internal/adapter/observability"
	"github.com/chibbo-dev/ai-algorithm-api/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming
// spaces. An empty input means every origin.
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(cfg.HTTPWriteTimeout))
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limit the generation endpoints; each one spends model tokens.
	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		wr.Post("/v1/ai/{spaceID}/contest/{contestID}/evaluate", srv.EnqueueEvaluateHandler())
		wr.Post("/v1/ai/{spaceID}/questions/ai-answer", srv.QuestionAnswerHandler())
		wr.Post("/v1/ai/interviews/{interviewID}/model-answer", srv.TechInterviewAnswerHandler())
		wr.Post("/v1/ai/coding-test/testcases", srv.TestCasesHandler())
		wr.Post("/v1/ai/coding-test/testcases/zip", srv.TestCaseZipHandler())
		wr.Post("/v1/ai/resume/summary", srv.ResumeSummaryHandler())
		wr.Post("/v1/ai/resume/portfolio", srv.PortfolioHandler())
	})

	// Read-only endpoints
	r.Get("/v1/ai/{spaceID}/contest/{contestID}/evaluate", srv.EvaluateHandler())
	r.Get("/v1/ai/evaluations/{runID}", srv.RunProgressHandler())

	// Health and metrics
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })
	r.Get("/readyz", srv.ReadyzHandler())

	return httpserver.SecurityHeaders(r)
}
