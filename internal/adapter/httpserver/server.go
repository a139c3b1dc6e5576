package httpserver

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/chibbo-dev/ai-algorithm-api/internal/config"
	"github.com/chibbo-dev/ai-algorithm-api/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Evaluation *usecase.EvaluationService
	Interviews *usecase.InterviewService
	CodingTest *usecase.CodingTestService
	Resume     *usecase.ResumeService

	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	ESCheck    func(ctx context.Context) error
	KafkaCheck func(ctx context.Context) error
}

// NewServer constructs a Server with all handlers and checks wired.
func NewServer(cfg config.Config, eval *usecase.EvaluationService, interviews *usecase.InterviewService, codingTest *usecase.CodingTestService, resume *usecase.ResumeService) *Server {
	return &Server{Cfg: cfg, Evaluation: eval, Interviews: interviews, CodingTest: codingTest, Resume: resume}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// ReadyzHandler reports readiness of every wired backing service.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]func(ctx context.Context) error{
			"db":    s.DBCheck,
			"redis": s.RedisCheck,
			"es":    s.ESCheck,
			"kafka": s.KafkaCheck,
		}
		status := map[string]string{}
		healthy := true
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(r.Context()); err != nil {
				status[name] = err.Error()
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		if !healthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ready": false, "checks": status})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ready": true, "checks": status})
	}
}
