package usecase

import (
	"sync"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// Method names accepted by the evaluate endpoints and used as the metrics
// label for strategy comparison.
const (
	MethodSequential = "sequential"
	MethodParallel   = "parallel"
	MethodBounded    = "bounded"
	MethodBoth       = "both"
)

// scheduler executes a fixed task set and returns one terminal result per
// task. Implementations differ only in execution strategy; completion,
// reconciliation, and metrics are handled by EvaluationService.
type scheduler interface {
	Method() string
	Schedule(ctx domain.Context, tasks []domain.GradingTask) []domain.GradingResult
}

// sequentialScheduler grades tasks one by one in the given order.
// Deterministic ordering, simplest failure isolation: a failed task is
// recorded and the loop continues.
type sequentialScheduler struct {
	runner *TaskRunner
}

func (s *sequentialScheduler) Method() string { return MethodSequential }

func (s *sequentialScheduler) Schedule(ctx domain.Context, tasks []domain.GradingTask) []domain.GradingResult {
	results := make([]domain.GradingResult, 0, len(tasks))
	for _, task := range tasks {
		results = append(results, s.runner.Execute(ctx, task))
	}
	return results
}

// poolScheduler runs a fixed number of workers pulling from a FIFO channel
// seeded up front. Completion is determined by counting terminal results
// against the enqueued total, never by queue emptiness, so a drained queue
// with in-flight work does not end the run early.
type poolScheduler struct {
	runner  *TaskRunner
	workers int
}

func (s *poolScheduler) Method() string { return MethodParallel }

func (s *poolScheduler) Schedule(ctx domain.Context, tasks []domain.GradingTask) []domain.GradingResult {
	workers := s.workers
	if workers <= 0 {
		workers = 3
	}
	queue := make(chan domain.GradingTask, len(tasks))
	for _, t := range tasks {
		queue <- t
	}
	close(queue)

	out := make(chan domain.GradingResult, len(tasks))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				out <- s.runner.Execute(ctx, task)
			}
		}()
	}
	wg.Wait()
	close(out)

	results := make([]domain.GradingResult, 0, len(tasks))
	for r := range out {
		results = append(results, r)
	}
	return results
}

// boundedScheduler fires every task concurrently and relies on the
// TaskRunner's semaphore to cap in-flight gradings, integrating the retry
// and batch-write machinery.
type boundedScheduler struct {
	runner *TaskRunner
}

func (s *boundedScheduler) Method() string { return MethodBounded }

func (s *boundedScheduler) Schedule(ctx domain.Context, tasks []domain.GradingTask) []domain.GradingResult {
	results := make([]domain.GradingResult, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task domain.GradingTask) {
			defer wg.Done()
			results[i] = s.runner.Execute(ctx, task)
		}(i, task)
	}
	wg.Wait()
	return results
}
