package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
	"github.com/chibbo-dev/ai-algorithm-api/internal/usecase"
)

func pathInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrInvalidArgument, name)
	}
	return v, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, err.Error())
	}
	if err := getValidator().Struct(v); err != nil {
		var details []map[string]string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				details = append(details, map[string]string{"field": fe.Field(), "rule": fe.Tag()})
			}
		}
		return fmt.Errorf("%w: validation failed: %v", domain.ErrInvalidArgument, details)
	}
	return nil
}

// evaluateResponse is one run in the API shape.
type evaluateResponse struct {
	RunID       string                     `json:"run_id"`
	Method      string                     `json:"method"`
	ContestID   int64                      `json:"contest_id"`
	Status      string                     `json:"contest_status"`
	Evaluations []usecase.EvaluationRecord `json:"evaluations"`
}

func summaryMetrics(s usecase.RunSummary) *runMetrics {
	return &runMetrics{
		DurationSeconds: s.Duration.Seconds(),
		CPUUsage:        s.CPUPercent,
		MemoryUsage:     s.MemoryBytes,
		EvaluationCount: s.Succeeded,
		FailedCount:     s.Failed,
	}
}

func (s *Server) summaryResponse(summary usecase.RunSummary) evaluateResponse {
	status := domain.ContestEvaluated
	if s.Cfg.StrictFinalize && summary.Failed > 0 {
		status = domain.ContestSubmitted
	}
	return evaluateResponse{
		RunID:       summary.RunID,
		Method:      summary.Method,
		ContestID:   summary.ContestID,
		Status:      status.String(),
		Evaluations: summary.Evaluations,
	}
}

// EvaluateHandler runs a contest evaluation synchronously and returns the
// graded results. method selects the strategy; "both" runs sequential and
// parallel back to back for comparison.
func (s *Server) EvaluateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spaceID, err := pathInt64(r, "spaceID")
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		contestID, err := pathInt64(r, "contestID")
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		method := r.URL.Query().Get("method")
		if method == "" {
			method = usecase.MethodSequential
		}

		contest, err := s.Evaluation.Contests.GetInSpace(r.Context(), spaceID, contestID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		ctx := r.Context()
		if contest.TimeoutMillis > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(contest.TimeoutMillis)*time.Millisecond)
			defer cancel()
		}

		if method == usecase.MethodBoth {
			summaries, err := s.Evaluation.EvaluateBoth(ctx, contestID)
			if err != nil {
				writeError(w, r, err, nil)
				return
			}
			runs := make([]evaluateResponse, 0, len(summaries))
			failed := 0
			for _, sum := range summaries {
				runs = append(runs, s.summaryResponse(sum))
				failed += sum.Failed
			}
			last := summaryMetrics(summaries[len(summaries)-1])
			last.FailedCount = failed
			writeData(w, http.StatusOK, runs, last)
			return
		}

		summary, err := s.Evaluation.Evaluate(ctx, contestID, method, "")
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeData(w, http.StatusOK, s.summaryResponse(summary), summaryMetrics(summary))
	}
}

// EnqueueEvaluateHandler queues a background evaluation run and returns
// its run id for polling.
func (s *Server) EnqueueEvaluateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spaceID, err := pathInt64(r, "spaceID")
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		contestID, err := pathInt64(r, "contestID")
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		method := r.URL.Query().Get("method")
		if method == "" {
			method = usecase.MethodBounded
		}
		switch method {
		case usecase.MethodSequential, usecase.MethodParallel, usecase.MethodBounded:
		default:
			writeError(w, r, fmt.Errorf("%w: unknown method %q", domain.ErrInvalidArgument, method), nil)
			return
		}

		runID, err := s.Evaluation.EnqueueEvaluation(r.Context(), spaceID, contestID, method)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeData(w, http.StatusAccepted, map[string]string{"run_id": runID, "method": method}, nil)
	}
}

// RunProgressHandler returns the pollable state of a background run.
func (s *Server) RunProgressHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "runID")
		if runID == "" {
			writeError(w, r, fmt.Errorf("%w: missing run id", domain.ErrInvalidArgument), nil)
			return
		}
		state, err := s.Evaluation.RunProgress(r.Context(), runID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeData(w, http.StatusOK, state, nil)
	}
}

type questionAnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required,max=100"`
	// InterviewID links the document to its relational row; optional.
	InterviewID int64 `json:"interview_id" validate:"omitempty,gt=0"`
}

// QuestionAnswerHandler generates an AI model answer for a question
// document and attaches it to the document.
func (s *Server) QuestionAnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spaceID, err := pathInt64(r, "spaceID")
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		var req questionAnswerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		ans, err := s.Interviews.AnswerQuestion(r.Context(), spaceID, req.QuestionID, req.InterviewID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeData(w, http.StatusOK, ans, nil)
	}
}

// TechInterviewAnswerHandler generates and stores a model answer for a
// relational tech-interview question.
func (s *Server) TechInterviewAnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		interviewID, err := pathInt64(r, "interviewID")
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		ans, err := s.Interviews.AnswerTechInterview(r.Context(), interviewID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeData(w, http.StatusOK, ans, nil)
	}
}

type testCaseRequest struct {
	ProblemDescription string   `json:"problem_description" validate:"required"`
	InputDescription   string   `json:"input_description"`
	OutputDescription  string   `json:"output_description"`
	SolutionLanguage   string   `json:"solution_language" validate:"required"`
	SolutionCode       string   `json:"solution_code" validate:"required"`
	TestCaseTypes      []string `json:"test_case_types" validate:"dive,oneof=basic boundary special large"`
	SPJ                bool     `json:"spj"`
}

func (req testCaseRequest) toDomain() domain.TestCaseRequest {
	return domain.TestCaseRequest{
		ProblemDescription: req.ProblemDescription,
		InputDescription:   req.InputDescription,
		OutputDescription:  req.OutputDescription,
		SolutionLanguage:   req.SolutionLanguage,
		SolutionCode:       req.SolutionCode,
		TestCaseTypes:      req.TestCaseTypes,
		SPJ:                req.SPJ,
	}
}

// TestCasesHandler synthesizes test cases and returns them as JSON.
func (s *Server) TestCasesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req testCaseRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		cases, err := s.CodingTest.TestCases(r.Context(), req.toDomain())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"testcases": cases}, nil)
	}
}

// TestCaseZipHandler synthesizes test cases and streams a judge-ready zip.
func (s *Server) TestCaseZipHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req testCaseRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		b, err := s.CodingTest.TestCaseZip(r.Context(), req.toDomain())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="testcases.zip"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}

type resumeSummaryRequest struct {
	Position string   `json:"position" validate:"required"`
	Projects []string `json:"projects" validate:"max=20"`
	Careers  []string `json:"careers" validate:"max=20"`
}

// ResumeSummaryHandler generates a position-tailored resume summary.
func (s *Server) ResumeSummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resumeSummaryRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		out, err := s.Resume.Summary(r.Context(), domain.ResumeSummaryRequest{
			Position: req.Position,
			Projects: req.Projects,
			Careers:  req.Careers,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeData(w, http.StatusOK, out, nil)
	}
}

type portfolioRequest struct {
	Repositories []string `json:"repositories" validate:"required,min=1,max=20,dive,required"`
}

// PortfolioHandler analyzes repositories and composes a portfolio.
func (s *Server) PortfolioHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req portfolioRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		out, err := s.Resume.Portfolio(r.Context(), req.Repositories)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeData(w, http.StatusOK, out, nil)
	}
}
