package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/chibbo-dev/ai-algorithm-api/internal/adapter/observability"
	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// EvaluationOptions tunes one EvaluationService instance.
type EvaluationOptions struct {
	BatchSize      int
	WorkerCount    int
	MaxConcurrency int
	LogInterval    int
	Retry          domain.RetryConfig
	// StrictFinalize blocks the EVALUATED transition while permanently
	// failed tasks remain.
	StrictFinalize bool
	RunTTL         time.Duration
}

// EvaluationRecord is one successful per-(problem,participant) grading in
// the API response shape.
type EvaluationRecord struct {
	ProblemID     int64             `json:"problem_id"`
	ParticipantID int64             `json:"participant_id"`
	Nickname      string            `json:"nickname"`
	Evaluation    domain.Evaluation `json:"evaluation"`
}

// RunSummary aggregates one strategy run over one contest.
type RunSummary struct {
	RunID       string
	Method      string
	ContestID   int64
	Total       int
	Succeeded   int
	Failed      int
	Evaluations []EvaluationRecord
	Duration    time.Duration
	CPUPercent  float64
	MemoryBytes uint64
	LostWrites  int
}

// Partial reports whether some tasks failed terminally.
func (s RunSummary) Partial() bool { return s.Failed > 0 }

// EvaluationService orchestrates contest evaluation runs: it enumerates a
// contest's outstanding answers, dispatches them to one of the scheduler
// strategies, persists results through the batch writer, reconciles contest
// state, and records strategy-labeled metrics.
type EvaluationService struct {
	Contests domain.ContestRepository
	Answers  domain.AnswerRepository
	Grader   domain.Grader
	Runs     domain.RunStore
	Queue    domain.Queue
	Opts     EvaluationOptions
}

// NewEvaluationService constructs an EvaluationService. Runs and Queue may
// be nil when progress polling or background runs are not wired (tests).
func NewEvaluationService(contests domain.ContestRepository, answers domain.AnswerRepository, grader domain.Grader, runs domain.RunStore, queue domain.Queue, opts EvaluationOptions) *EvaluationService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 3
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 5
	}
	return &EvaluationService{Contests: contests, Answers: answers, Grader: grader, Runs: runs, Queue: queue, Opts: opts}
}

// NewRunID returns a fresh ULID for an evaluation run.
func NewRunID() string { return ulid.Make().String() }

// Evaluate runs one strategy over the contest and returns its summary.
// The only abort path is the up-front problems-data fetch; per-task
// failures are isolated and surface as a smaller success count.
func (s *EvaluationService) Evaluate(ctx domain.Context, contestID int64, method, runID string) (RunSummary, error) {
	start := time.Now()
	if runID == "" {
		runID = NewRunID()
	}

	problems, err := s.Contests.ProblemsData(ctx, contestID)
	if err != nil {
		observability.EvaluationErrors.WithLabelValues(method, "problems_fetch").Inc()
		return RunSummary{}, fmt.Errorf("op=evaluate.problems_data contest_id=%d: %w", contestID, err)
	}
	tasks := buildTasks(problems)

	slog.Info("evaluation started",
		slog.String("method", method),
		slog.String("run_id", runID),
		slog.Int64("contest_id", contestID),
		slog.Int("problems", len(problems)),
		slog.Int("answers", len(tasks)))

	tracker := NewProgressTracker(len(tasks), s.Opts.LogInterval,
		fmt.Sprintf("evaluation progress contest_id=%d method=%s", contestID, method),
		s.runSaver(ctx, runID, contestID, method, start))
	writer := NewBatchWriter(s.Answers, s.Opts.BatchSize)

	sched := s.newScheduler(method, writer, tracker)
	if sched == nil {
		return RunSummary{}, fmt.Errorf("%w: unknown method %q", domain.ErrInvalidArgument, method)
	}

	observability.UpdateSystemMetrics(method)
	results := sched.Schedule(ctx, tasks)
	writer.Flush(ctx)

	summary := s.summarize(runID, contestID, method, tasks, results, writer, start)
	s.recordMetrics(method, results, summary)

	if err := s.finalize(ctx, contestID, summary); err != nil {
		slog.Error("contest finalize failed", slog.Int64("contest_id", contestID), slog.Any("error", err))
	}
	s.finishRun(ctx, runID, contestID, method, tracker, start)

	slog.Info("evaluation finished",
		slog.String("method", method),
		slog.String("run_id", runID),
		slog.Int64("contest_id", contestID),
		slog.Duration("duration", summary.Duration),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed))
	return summary, nil
}

// EvaluateBoth runs the sequential strategy followed by the worker-pool
// strategy, returning both summaries for side-by-side comparison.
func (s *EvaluationService) EvaluateBoth(ctx domain.Context, contestID int64) ([]RunSummary, error) {
	seq, err := s.Evaluate(ctx, contestID, MethodSequential, "")
	if err != nil {
		return nil, err
	}
	par, err := s.Evaluate(ctx, contestID, MethodParallel, "")
	if err != nil {
		return nil, err
	}
	return []RunSummary{seq, par}, nil
}

// EnqueueEvaluation publishes a background evaluation job and registers the
// run so progress is pollable immediately.
func (s *EvaluationService) EnqueueEvaluation(ctx domain.Context, spaceID, contestID int64, method string) (string, error) {
	if s.Queue == nil {
		return "", fmt.Errorf("%w: queue not configured", domain.ErrInternal)
	}
	if _, err := s.Contests.GetInSpace(ctx, spaceID, contestID); err != nil {
		return "", err
	}
	runID := NewRunID()
	if s.Runs != nil {
		state := domain.RunState{
			RunID: runID, ContestID: contestID, Method: method,
			Status: domain.RunRunning, StartedAt: time.Now().UTC(),
		}
		if err := s.Runs.Save(ctx, state); err != nil {
			return "", fmt.Errorf("op=evaluate.enqueue run_id=%s: %w", runID, err)
		}
	}
	payload := domain.EvaluateJobPayload{RunID: runID, SpaceID: spaceID, ContestID: contestID, Method: method}
	if _, err := s.Queue.EnqueueEvaluate(ctx, payload); err != nil {
		return "", err
	}
	observability.JobsEnqueuedTotal.WithLabelValues("evaluate").Inc()
	return runID, nil
}

// RunProgress returns the pollable state of a run.
func (s *EvaluationService) RunProgress(ctx domain.Context, runID string) (domain.RunState, error) {
	if s.Runs == nil {
		return domain.RunState{}, fmt.Errorf("%w: run store not configured", domain.ErrInternal)
	}
	return s.Runs.Get(ctx, runID)
}

func (s *EvaluationService) newScheduler(method string, writer *BatchWriter, tracker *ProgressTracker) scheduler {
	switch method {
	case MethodSequential:
		return &sequentialScheduler{runner: NewTaskRunner(s.Grader, writer, tracker, 1, domain.NoRetry())}
	case MethodParallel:
		return &poolScheduler{
			runner:  NewTaskRunner(s.Grader, writer, tracker, s.Opts.WorkerCount, domain.NoRetry()),
			workers: s.Opts.WorkerCount,
		}
	case MethodBounded:
		return &boundedScheduler{runner: NewTaskRunner(s.Grader, writer, tracker, s.Opts.MaxConcurrency, s.Opts.Retry)}
	}
	return nil
}

func buildTasks(problems []domain.ProblemWithAnswers) []domain.GradingTask {
	var tasks []domain.GradingTask
	for _, p := range problems {
		for _, a := range p.Answers {
			tasks = append(tasks, domain.GradingTask{
				ProblemID:       p.ID,
				AnswerID:        a.AnswerID,
				ParticipantID:   a.ParticipantID,
				Nickname:        a.Nickname,
				Question:        p.Question,
				ReferenceAnswer: p.ReferenceAnswer,
				CandidateAnswer: a.Text,
			})
		}
	}
	return tasks
}

func (s *EvaluationService) summarize(runID string, contestID int64, method string, tasks []domain.GradingTask, results []domain.GradingResult, writer *BatchWriter, start time.Time) RunSummary {
	summary := RunSummary{
		RunID:     runID,
		Method:    method,
		ContestID: contestID,
		Total:     len(tasks),
		Duration:  time.Since(start),
	}
	for _, r := range results {
		if r.Succeeded {
			summary.Succeeded++
			summary.Evaluations = append(summary.Evaluations, EvaluationRecord{
				ProblemID:     r.Task.ProblemID,
				ParticipantID: r.Task.ParticipantID,
				Nickname:      r.Task.Nickname,
				Evaluation:    r.Evaluation,
			})
		} else {
			summary.Failed++
		}
	}
	summary.LostWrites = writer.Lost()
	sample := observability.UpdateSystemMetrics(method)
	summary.CPUPercent = sample.CPUPercent
	summary.MemoryBytes = sample.MemoryBytes
	return summary
}

func (s *EvaluationService) recordMetrics(method string, results []domain.GradingResult, summary RunSummary) {
	observability.EvaluationDuration.WithLabelValues(method).Observe(summary.Duration.Seconds())
	if summary.Succeeded > 0 {
		observability.EvaluationTotal.WithLabelValues(method, "success").Add(float64(summary.Succeeded))
	}
	if summary.Failed > 0 {
		observability.EvaluationTotal.WithLabelValues(method, "failed").Add(float64(summary.Failed))
	}
	for _, r := range results {
		if !r.Succeeded {
			observability.EvaluationErrors.WithLabelValues(method, string(r.FailKind)).Inc()
		}
	}
}

// finalize applies the contest-state transition once every task is
// terminal. Lenient policy (default) marks EVALUATED regardless of
// failures, matching the legacy behavior; strict policy leaves the status
// untouched while permanent failures remain.
func (s *EvaluationService) finalize(ctx domain.Context, contestID int64, summary RunSummary) error {
	if s.Opts.StrictFinalize && summary.Failed > 0 {
		slog.Warn("strict finalize: contest left unevaluated",
			slog.Int64("contest_id", contestID),
			slog.Int("failed", summary.Failed))
		return nil
	}
	return s.Contests.SetStatus(ctx, contestID, domain.ContestEvaluated)
}

// runSaver feeds progress snapshots into the run store, best effort.
func (s *EvaluationService) runSaver(ctx domain.Context, runID string, contestID int64, method string, start time.Time) func(domain.ProgressSnapshot) {
	if s.Runs == nil {
		return nil
	}
	return func(snap domain.ProgressSnapshot) {
		state := domain.RunState{
			RunID: runID, ContestID: contestID, Method: method,
			Status: domain.RunRunning, Progress: snap, StartedAt: start.UTC(),
		}
		if err := s.Runs.Save(ctx, state); err != nil {
			slog.Debug("run progress save failed", slog.String("run_id", runID), slog.Any("error", err))
		}
	}
}

func (s *EvaluationService) finishRun(ctx domain.Context, runID string, contestID int64, method string, tracker *ProgressTracker, start time.Time) {
	if s.Runs == nil {
		return
	}
	now := time.Now().UTC()
	state := domain.RunState{
		RunID: runID, ContestID: contestID, Method: method,
		Status: domain.RunCompleted, Progress: tracker.Snapshot(),
		StartedAt: start.UTC(), FinishedAt: &now,
	}
	if err := s.Runs.Finish(ctx, state, s.Opts.RunTTL); err != nil {
		slog.Warn("run finish save failed", slog.String("run_id", runID), slog.Any("error", err))
	}
}
