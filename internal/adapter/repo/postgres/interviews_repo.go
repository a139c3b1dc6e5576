package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// TechInterviewRepo persists generated model answers for interview
// questions.
type TechInterviewRepo struct{ Pool PgxPool }

func NewTechInterviewRepo(p PgxPool) *TechInterviewRepo { return &TechInterviewRepo{Pool: p} }

// Get loads an interview question by id.
func (r *TechInterviewRepo) Get(ctx domain.Context, id int64) (domain.TechInterview, error) {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.Get")
	defer span.End()
	q := `SELECT id, question, tech_class, COALESCE(model_answer,''), COALESCE(key_point,''), COALESCE(additional_topics,'')
	      FROM tech_interview WHERE id=$1`
	var ti domain.TechInterview
	row := r.Pool.QueryRow(ctx, q, id)
	if err := row.Scan(&ti.ID, &ti.Question, &ti.TechClass, &ti.ModelAnswer, &ti.KeyPoint, &ti.AdditionalTopics); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TechInterview{}, fmt.Errorf("op=interview.get: %w", domain.ErrNotFound)
		}
		return domain.TechInterview{}, fmt.Errorf("op=interview.get: %w", err)
	}
	return ti, nil
}

// SaveModelAnswer stores the generated answer, tips, and related topics.
func (r *TechInterviewRepo) SaveModelAnswer(ctx domain.Context, id int64, ans domain.InterviewAnswer) error {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.SaveModelAnswer")
	defer span.End()
	q := `UPDATE tech_interview SET model_answer=$2, key_point=$3, additional_topics=$4, updated_at=$5 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, ans.Answer, ans.Tips, ans.RelatedTopics, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=interview.save_answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=interview.save_answer id=%d: %w", id, domain.ErrNotFound)
	}
	return nil
}
