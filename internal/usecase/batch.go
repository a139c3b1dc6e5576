package usecase

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// BatchWriter accumulates score updates and flushes them to the answer
// store in fixed-size groups. A failed batch commit degrades to per-item
// writes; an item that fails even individually is logged as a lost write
// and counted, never re-raised. Callers must Flush once more at the end of
// a run to drain the remainder.
type BatchWriter struct {
	answers domain.AnswerRepository
	size    int

	mu      sync.Mutex
	buf     []domain.ScoreUpdate
	flushes int
	lost    int
	skipped int
}

// NewBatchWriter builds a writer flushing every size items.
func NewBatchWriter(answers domain.AnswerRepository, size int) *BatchWriter {
	if size <= 0 {
		size = 10
	}
	return &BatchWriter{answers: answers, size: size, buf: make([]domain.ScoreUpdate, 0, size)}
}

// Add buffers one update and triggers a flush when the batch is full.
func (w *BatchWriter) Add(ctx domain.Context, u domain.ScoreUpdate) {
	w.mu.Lock()
	w.buf = append(w.buf, u)
	var batch []domain.ScoreUpdate
	if len(w.buf) >= w.size {
		batch = w.takeLocked()
	}
	w.mu.Unlock()
	if batch != nil {
		w.write(ctx, batch)
	}
}

// Flush drains whatever is buffered, regardless of batch size.
func (w *BatchWriter) Flush(ctx domain.Context) {
	w.mu.Lock()
	batch := w.takeLocked()
	w.mu.Unlock()
	if batch != nil {
		w.write(ctx, batch)
	}
}

func (w *BatchWriter) takeLocked() []domain.ScoreUpdate {
	if len(w.buf) == 0 {
		return nil
	}
	batch := w.buf
	w.buf = make([]domain.ScoreUpdate, 0, w.size)
	return batch
}

// write attempts the transactional batch first and falls back to
// independent single-row writes when it fails.
func (w *BatchWriter) write(ctx domain.Context, batch []domain.ScoreUpdate) {
	w.mu.Lock()
	w.flushes++
	w.mu.Unlock()

	err := w.answers.PersistScores(ctx, batch)
	if err == nil {
		slog.Info("batch update committed", slog.Int("items", len(batch)))
		return
	}
	slog.Error("batch update failed, degrading to per-item writes",
		slog.Int("items", len(batch)), slog.Any("error", err))

	for _, u := range batch {
		if err := w.answers.PersistScore(ctx, u); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				slog.Warn("answer row missing, skipping write-back",
					slog.Int64("problem_id", u.ProblemID),
					slog.Int64("participant_id", u.ParticipantID))
				w.mu.Lock()
				w.skipped++
				w.mu.Unlock()
				continue
			}
			slog.Error("lost write: per-item update failed",
				slog.Int64("problem_id", u.ProblemID),
				slog.Int64("participant_id", u.ParticipantID),
				slog.Any("error", err))
			w.mu.Lock()
			w.lost++
			w.mu.Unlock()
		}
	}
}

// Flushes reports how many batch writes were attempted.
func (w *BatchWriter) Flushes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushes
}

// Lost reports how many updates could not be persisted at all.
func (w *BatchWriter) Lost() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lost
}

// Skipped reports how many updates referenced missing answer rows.
func (w *BatchWriter) Skipped() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.skipped
}
