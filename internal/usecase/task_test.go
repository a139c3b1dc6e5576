package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

func newRunner(grader domain.Grader, answers *fakeAnswers, retry domain.RetryConfig, maxConcurrency int) (*TaskRunner, *ProgressTracker, *BatchWriter) {
	tracker := NewProgressTracker(1, 10, "test", nil)
	writer := NewBatchWriter(answers, 100)
	return NewTaskRunner(grader, writer, tracker, maxConcurrency, retry), tracker, writer
}

var testTask = domain.GradingTask{
	ProblemID: 1, AnswerID: 10, ParticipantID: 100,
	Question: "q", ReferenceAnswer: "ref", CandidateAnswer: "cand",
}

func TestTaskRunner_SuccessFirstAttempt(t *testing.T) {
	grader := newFakeGrader()
	answers := newFakeAnswers()
	runner, tracker, writer := newRunner(grader, answers, domain.NoRetry(), 1)

	res := runner.Execute(context.Background(), testTask)
	writer.Flush(context.Background())

	assert.True(t, res.Succeeded)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 80, res.Evaluation.Score)
	assert.Len(t, answers.persisted(), 1)

	snap := tracker.Snapshot()
	assert.Equal(t, 1, snap.Success)
	assert.Equal(t, 0, snap.InProgress)
}

func TestTaskRunner_NoRetryMeansSingleAttempt(t *testing.T) {
	grader := newFakeGrader()
	grader.failFirst = 1
	runner, tracker, _ := newRunner(grader, newFakeAnswers(), domain.NoRetry(), 1)

	res := runner.Execute(context.Background(), testTask)

	assert.False(t, res.Succeeded)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, grader.totalCalls())
	assert.Equal(t, 1, tracker.Snapshot().Failed)
}

func TestTaskRunner_RetriesUntilSuccess(t *testing.T) {
	grader := newFakeGrader()
	grader.failFirst = 2
	runner, tracker, _ := newRunner(grader, newFakeAnswers(), fastRetry(3), 1)

	res := runner.Execute(context.Background(), testTask)

	assert.True(t, res.Succeeded)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 1, tracker.Snapshot().Success)
}

func TestTaskRunner_AttemptsBoundedByMaxRetries(t *testing.T) {
	grader := newFakeGrader()
	grader.failFirst = 100
	runner, tracker, _ := newRunner(grader, newFakeAnswers(), fastRetry(2), 1)

	res := runner.Execute(context.Background(), testTask)

	assert.False(t, res.Succeeded)
	// MaxRetries=2 means at most 3 attempts total
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, grader.totalCalls())
	assert.Equal(t, domain.FailureUpstream, res.FailKind)
	assert.Equal(t, 1, tracker.Snapshot().Failed)
}

func TestTaskRunner_SchemaFailureClassified(t *testing.T) {
	grader := &schemaFailGrader{}
	runner, _, _ := newRunner(grader, newFakeAnswers(), domain.NoRetry(), 1)

	res := runner.Execute(context.Background(), testTask)
	assert.False(t, res.Succeeded)
	assert.Equal(t, domain.FailureSchema, res.FailKind)
}

type schemaFailGrader struct{}

func (schemaFailGrader) Grade(domain.Context, string, string, string) (domain.Evaluation, error) {
	return domain.Evaluation{}, domain.ErrSchemaInvalid
}

func TestTaskRunner_CancellationIsTerminal(t *testing.T) {
	grader := newFakeGrader()
	grader.failFirst = 100
	runner, _, _ := newRunner(grader, newFakeAnswers(), fastRetry(5), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := runner.Execute(ctx, testTask)
	assert.False(t, res.Succeeded)
	assert.Equal(t, domain.FailureCanceled, res.FailKind)
	// no retry storm after cancellation
	assert.LessOrEqual(t, res.Attempts, 1)
}
