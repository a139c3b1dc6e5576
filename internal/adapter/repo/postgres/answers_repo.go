package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// AnswerRepo writes grading results back to the answer table.
type AnswerRepo struct{ Pool PgxPool }

func NewAnswerRepo(p PgxPool) *AnswerRepo { return &AnswerRepo{Pool: p} }

const updateScoreSQL = `UPDATE answer SET rank_score=$3, feedback=$4, updated_at=$5
	WHERE problem_id=$1 AND participant_id=$2`

// PersistScore writes one score row. A missing answer row reports
// ErrNotFound so batch writers can count it as a skip.
func (r *AnswerRepo) PersistScore(ctx domain.Context, u domain.ScoreUpdate) error {
	tracer := otel.Tracer("repo.answers")
	ctx, span := tracer.Start(ctx, "answers.PersistScore")
	defer span.End()
	span.SetAttributes(attribute.Int64("problem.id", u.ProblemID))

	tag, err := r.Pool.Exec(ctx, updateScoreSQL, u.ProblemID, u.ParticipantID, u.Score, u.Feedback, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=answer.persist_score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=answer.persist_score problem=%d participant=%d: %w",
			u.ProblemID, u.ParticipantID, domain.ErrNotFound)
	}
	return nil
}

// PersistScores writes the batch in one transaction. Missing rows inside
// the batch are skipped silently; any database error fails the whole batch.
func (r *AnswerRepo) PersistScores(ctx domain.Context, updates []domain.ScoreUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tracer := otel.Tracer("repo.answers")
	ctx, span := tracer.Start(ctx, "answers.PersistScores")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(updates)))

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("op=answer.persist_scores begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	for _, u := range updates {
		if _, err := tx.Exec(ctx, updateScoreSQL, u.ProblemID, u.ParticipantID, u.Score, u.Feedback, now); err != nil {
			return fmt.Errorf("op=answer.persist_scores problem=%d: %w", u.ProblemID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=answer.persist_scores commit: %w", err)
	}
	return nil
}
