// Package httpserver contains the HTTP handlers and middleware of the AI
// Algorithm API.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// dataEnvelope is the success shape: status is "success" when every unit of
// work landed, "partial" when some failed terminally.
type dataEnvelope struct {
	Status  string      `json:"status"`
	Data    any         `json:"data"`
	Metrics *runMetrics `json:"metrics,omitempty"`
}

// runMetrics mirrors the per-run resource figures exposed per response.
type runMetrics struct {
	DurationSeconds float64 `json:"duration"`
	CPUUsage        float64 `json:"cpu_usage"`
	MemoryUsage     uint64  `json:"memory_usage"`
	EvaluationCount int     `json:"evaluation_count"`
	FailedCount     int     `json:"failed_count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any, metrics *runMetrics) {
	s := "success"
	if metrics != nil && metrics.FailedCount > 0 {
		s = "partial"
	}
	writeJSON(w, status, dataEnvelope{Status: s, Data: data, Metrics: metrics})
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details any) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		code = http.StatusConflict
		codeStr = "CONFLICT"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		code = http.StatusServiceUnavailable
		codeStr = "UPSTREAM_TIMEOUT"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		code = http.StatusServiceUnavailable
		codeStr = "UPSTREAM_RATE_LIMIT"
	case errors.Is(err, domain.ErrSchemaInvalid):
		code = http.StatusServiceUnavailable
		codeStr = "SCHEMA_INVALID"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}
