package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

func TestBatchWriter_FlushesFullBatches(t *testing.T) {
	answers := newFakeAnswers()
	w := NewBatchWriter(answers, 3)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		w.Add(ctx, domain.ScoreUpdate{ProblemID: int64(i), ParticipantID: 100, Score: i})
	}
	// 7 adds at size 3: two full batches flushed, one remainder buffered
	assert.Equal(t, 2, w.Flushes())
	require.Len(t, answers.batch, 2)
	assert.Len(t, answers.batch[0], 3)

	w.Flush(ctx)
	assert.Equal(t, 3, w.Flushes())
	assert.Len(t, answers.persisted(), 7)
}

func TestBatchWriter_FinalFlushOnEmptyBufferIsNoop(t *testing.T) {
	answers := newFakeAnswers()
	w := NewBatchWriter(answers, 3)
	w.Flush(context.Background())
	assert.Equal(t, 0, w.Flushes())
}

func TestBatchWriter_DegradesToPerItemWrites(t *testing.T) {
	answers := newFakeAnswers()
	answers.batchErr = assert.AnError
	w := NewBatchWriter(answers, 2)
	ctx := context.Background()

	w.Add(ctx, domain.ScoreUpdate{ProblemID: 1, ParticipantID: 100, Score: 80})
	w.Add(ctx, domain.ScoreUpdate{ProblemID: 1, ParticipantID: 101, Score: 60})

	// batch path failed, both rows persisted individually
	assert.Len(t, answers.items, 2)
	assert.Equal(t, 0, w.Lost())
}

func TestBatchWriter_MissingRowCountsAsSkip(t *testing.T) {
	answers := newFakeAnswers()
	answers.batchErr = assert.AnError
	answers.itemErr[101] = domain.ErrNotFound
	w := NewBatchWriter(answers, 10)
	ctx := context.Background()

	w.Add(ctx, domain.ScoreUpdate{ProblemID: 1, ParticipantID: 100, Score: 80})
	w.Add(ctx, domain.ScoreUpdate{ProblemID: 1, ParticipantID: 101, Score: 60})
	w.Flush(ctx)

	assert.Equal(t, 1, w.Skipped())
	assert.Equal(t, 0, w.Lost())
	assert.Len(t, answers.items, 1)
}

func TestBatchWriter_UnrecoverableItemIsLostNotRaised(t *testing.T) {
	answers := newFakeAnswers()
	answers.batchErr = assert.AnError
	answers.itemErr[101] = assert.AnError
	w := NewBatchWriter(answers, 10)
	ctx := context.Background()

	w.Add(ctx, domain.ScoreUpdate{ProblemID: 1, ParticipantID: 100, Score: 80})
	w.Add(ctx, domain.ScoreUpdate{ProblemID: 1, ParticipantID: 101, Score: 60})
	w.Flush(ctx)

	assert.Equal(t, 1, w.Lost())
	assert.Len(t, answers.items, 1)
}
