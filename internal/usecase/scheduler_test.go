package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

func makeTasks(n int) []domain.GradingTask {
	tasks := make([]domain.GradingTask, n)
	for i := range tasks {
		tasks[i] = domain.GradingTask{
			ProblemID:       int64(i/3 + 1),
			AnswerID:        int64(i),
			ParticipantID:   int64(100 + i%3),
			Question:        "q",
			ReferenceAnswer: "ref",
			CandidateAnswer: string(rune('a' + i)),
		}
	}
	return tasks
}

func TestSequentialScheduler_OrderedOneResultPerTask(t *testing.T) {
	grader := newFakeGrader()
	tracker := NewProgressTracker(5, 10, "test", nil)
	writer := NewBatchWriter(newFakeAnswers(), 100)
	s := &sequentialScheduler{runner: NewTaskRunner(grader, writer, tracker, 1, domain.NoRetry())}

	tasks := makeTasks(5)
	results := s.Schedule(context.Background(), tasks)

	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, tasks[i].AnswerID, r.Task.AnswerID, "sequential preserves task order")
		assert.True(t, r.Succeeded)
	}
	assert.Equal(t, 1, grader.maxInFlight)
}

func TestPoolScheduler_AllTasksComplete(t *testing.T) {
	grader := newFakeGrader()
	grader.delay = time.Millisecond
	tracker := NewProgressTracker(9, 10, "test", nil)
	writer := NewBatchWriter(newFakeAnswers(), 100)
	s := &poolScheduler{runner: NewTaskRunner(grader, writer, tracker, 3, domain.NoRetry()), workers: 3}

	results := s.Schedule(context.Background(), makeTasks(9))

	require.Len(t, results, 9)
	seen := map[int64]bool{}
	for _, r := range results {
		assert.True(t, r.Succeeded)
		seen[r.Task.AnswerID] = true
	}
	// every task yields exactly one result, even with results unordered
	assert.Len(t, seen, 9)
	assert.LessOrEqual(t, grader.maxInFlight, 3)
	assert.Equal(t, 9, tracker.Snapshot().Completed)
}

func TestPoolScheduler_FailuresDoNotStallCompletion(t *testing.T) {
	grader := newFakeGrader()
	grader.failFirst = 100 // every call fails
	tracker := NewProgressTracker(6, 10, "test", nil)
	writer := NewBatchWriter(newFakeAnswers(), 100)
	s := &poolScheduler{runner: NewTaskRunner(grader, writer, tracker, 3, domain.NoRetry()), workers: 3}

	results := s.Schedule(context.Background(), makeTasks(6))

	require.Len(t, results, 6)
	for _, r := range results {
		assert.False(t, r.Succeeded)
	}
	assert.Equal(t, 6, tracker.Snapshot().Failed)
}

func TestBoundedScheduler_ResultsIndexedByTask(t *testing.T) {
	grader := newFakeGrader()
	grader.delay = time.Millisecond
	tracker := NewProgressTracker(8, 10, "test", nil)
	writer := NewBatchWriter(newFakeAnswers(), 100)
	s := &boundedScheduler{runner: NewTaskRunner(grader, writer, tracker, 2, fastRetry(1))}

	tasks := makeTasks(8)
	results := s.Schedule(context.Background(), tasks)

	require.Len(t, results, 8)
	for i, r := range results {
		assert.Equal(t, tasks[i].AnswerID, r.Task.AnswerID, "bounded keeps result positions")
	}
	assert.LessOrEqual(t, grader.maxInFlight, 2, "semaphore caps in-flight gradings")
}

func TestBoundedScheduler_RetryIsolatedPerTask(t *testing.T) {
	grader := newFakeGrader()
	grader.failFirst = 1 // first call per task fails, retry succeeds
	tracker := NewProgressTracker(4, 10, "test", nil)
	writer := NewBatchWriter(newFakeAnswers(), 100)
	s := &boundedScheduler{runner: NewTaskRunner(grader, writer, tracker, 4, fastRetry(2))}

	results := s.Schedule(context.Background(), makeTasks(4))

	for _, r := range results {
		assert.True(t, r.Succeeded)
		assert.Equal(t, 2, r.Attempts)
	}
}
