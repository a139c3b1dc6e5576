package usecase

import (
	"errors"
	"log/slog"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// TaskRunner executes one grading+persist unit of work under a shared
// concurrency limiter, with bounded exponential-backoff retry and progress
// reporting. Every scheduler strategy runs its tasks through a TaskRunner;
// strategies without retries use domain.NoRetry.
type TaskRunner struct {
	grader  domain.Grader
	writer  *BatchWriter
	tracker *ProgressTracker
	sem     chan struct{}
	retry   domain.RetryConfig
}

// NewTaskRunner builds a runner whose limiter admits maxConcurrency
// simultaneously in-flight gradings.
func NewTaskRunner(grader domain.Grader, writer *BatchWriter, tracker *ProgressTracker, maxConcurrency int, retry domain.RetryConfig) *TaskRunner {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &TaskRunner{
		grader:  grader,
		writer:  writer,
		tracker: tracker,
		sem:     make(chan struct{}, maxConcurrency),
		retry:   retry,
	}
}

// Execute drives task through the state machine
// pending -> in_flight -> {succeeded | retrying -> in_flight | failed}.
// A transient grading failure is retried up to MaxRetries times with
// min(cap, base*mult^n) backoff; exhaustion yields a terminal failure that
// never affects sibling tasks.
func (r *TaskRunner) Execute(ctx domain.Context, task domain.GradingTask) domain.GradingResult {
	bo := r.newBackoff()
	var lastErr error

	// One in-progress slot per task; the terminal update retires it.
	r.tracker.Update(ProgressInProgress, nil)

	for attempt := 0; attempt <= r.retry.MaxRetries; attempt++ {
		eval, err := r.attempt(ctx, task)
		if err == nil {
			r.writer.Add(ctx, domain.ScoreUpdate{
				ProblemID:     task.ProblemID,
				ParticipantID: task.ParticipantID,
				Score:         eval.Score,
				Feedback:      eval.Feedback,
			})
			r.tracker.Update(ProgressSuccess, map[string]any{"last_problem_id": task.ProblemID})
			return domain.NewSuccess(task, eval, attempt+1)
		}
		lastErr = err

		if ctx.Err() != nil {
			r.tracker.Update(ProgressFailed, nil)
			return domain.NewFailure(task, domain.FailureCanceled, err.Error(), attempt+1)
		}
		if attempt < r.retry.MaxRetries {
			wait := bo.NextBackOff()
			slog.Warn("grading retry scheduled",
				slog.Int64("problem_id", task.ProblemID),
				slog.Int64("participant_id", task.ParticipantID),
				slog.Int("attempt", attempt+1),
				slog.Int("max_retries", r.retry.MaxRetries),
				slog.Duration("wait", wait),
				slog.Any("error", err))
			if !sleepCtx(ctx, wait) {
				r.tracker.Update(ProgressFailed, nil)
				return domain.NewFailure(task, domain.FailureCanceled, ctx.Err().Error(), attempt+1)
			}
		}
	}

	r.tracker.Update(ProgressFailed, map[string]any{"last_error": lastErr.Error()})
	return domain.NewFailure(task, classifyFailure(lastErr), lastErr.Error(), r.retry.MaxRetries+1)
}

// attempt holds a limiter slot for the duration of one grading call plus
// its buffered write handoff.
func (r *TaskRunner) attempt(ctx domain.Context, task domain.GradingTask) (domain.Evaluation, error) {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return domain.Evaluation{}, ctx.Err()
	}
	defer func() { <-r.sem }()

	return r.grader.Grade(ctx, task.Question, task.ReferenceAnswer, task.CandidateAnswer)
}

func (r *TaskRunner) newBackoff() backoff.BackOff {
	if r.retry.MaxRetries == 0 {
		return &backoff.StopBackOff{}
	}
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.retry.InitialDelay
	expo.MaxInterval = r.retry.MaxDelay
	expo.Multiplier = r.retry.Multiplier
	expo.MaxElapsedTime = 0 // attempts are bounded by MaxRetries, not time
	if r.retry.Jitter {
		expo.RandomizationFactor = 0.5
	} else {
		expo.RandomizationFactor = 0
	}
	expo.Reset()
	return expo
}

// sleepCtx waits d or until ctx is done; reports false on cancellation.
func sleepCtx(ctx domain.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// classifyFailure maps a terminal error onto the failure taxonomy.
func classifyFailure(err error) domain.FailureKind {
	switch {
	case errors.Is(err, domain.ErrSchemaInvalid):
		return domain.FailureSchema
	case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, domain.ErrUpstreamRateLimit):
		return domain.FailureUpstream
	default:
		return domain.FailureUpstream
	}
}
