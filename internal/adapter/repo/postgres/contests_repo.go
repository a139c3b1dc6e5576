package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// ContestRepo loads contests and performs the status transition.
type ContestRepo struct{ Pool PgxPool }

func NewContestRepo(p PgxPool) *ContestRepo { return &ContestRepo{Pool: p} }

const contestCols = `id, title, space_id, submit, timeout_millis, created_at`

// Get loads a contest by id.
func (r *ContestRepo) Get(ctx domain.Context, id int64) (domain.Contest, error) {
	tracer := otel.Tracer("repo.contests")
	ctx, span := tracer.Start(ctx, "contests.Get")
	defer span.End()
	q := `SELECT ` + contestCols + ` FROM contest WHERE id=$1`
	return r.scanContest(r.Pool.QueryRow(ctx, q, id), "contest.get")
}

// GetInSpace loads a contest only if it belongs to the given space.
func (r *ContestRepo) GetInSpace(ctx domain.Context, spaceID, id int64) (domain.Contest, error) {
	tracer := otel.Tracer("repo.contests")
	ctx, span := tracer.Start(ctx, "contests.GetInSpace")
	defer span.End()
	span.SetAttributes(attribute.Int64("contest.space_id", spaceID))
	q := `SELECT ` + contestCols + ` FROM contest WHERE id=$1 AND space_id=$2`
	return r.scanContest(r.Pool.QueryRow(ctx, q, id, spaceID), "contest.get_in_space")
}

func (r *ContestRepo) scanContest(row pgx.Row, op string) (domain.Contest, error) {
	var c domain.Contest
	if err := row.Scan(&c.ID, &c.Title, &c.SpaceID, &c.Status, &c.TimeoutMillis, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Contest{}, fmt.Errorf("op=%s: %w", op, domain.ErrNotFound)
		}
		return domain.Contest{}, fmt.Errorf("op=%s: %w", op, err)
	}
	return c, nil
}

// SetStatus moves the contest to status. The guard keeps transitions
// forward only; a backward move reports ErrConflict.
func (r *ContestRepo) SetStatus(ctx domain.Context, id int64, status domain.ContestStatus) error {
	tracer := otel.Tracer("repo.contests")
	ctx, span := tracer.Start(ctx, "contests.SetStatus")
	defer span.End()
	span.SetAttributes(attribute.String("contest.status", status.String()))
	q := `UPDATE contest SET submit=$2 WHERE id=$1 AND submit <= $2`
	tag, err := r.Pool.Exec(ctx, q, id, int16(status))
	if err != nil {
		return fmt.Errorf("op=contest.set_status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var current int16
		row := r.Pool.QueryRow(ctx, `SELECT submit FROM contest WHERE id=$1`, id)
		if err := row.Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("op=contest.set_status: %w", domain.ErrNotFound)
			}
			return fmt.Errorf("op=contest.set_status: %w", err)
		}
		return fmt.Errorf("op=contest.set_status: %w: submit=%d cannot move to %d", domain.ErrConflict, current, status)
	}
	return nil
}

// ProblemsData returns every problem of the contest with all submitted
// answers, ordered by (problem id, answer id) so runs enumerate tasks in a
// stable order.
func (r *ContestRepo) ProblemsData(ctx domain.Context, contestID int64) ([]domain.ProblemWithAnswers, error) {
	tracer := otel.Tracer("repo.contests")
	ctx, span := tracer.Start(ctx, "contests.ProblemsData")
	defer span.End()
	span.SetAttributes(attribute.Int64("contest.id", contestID))

	q := `SELECT p.id, p.contest_id, p.question, p.answer, p.tech_class,
	             a.id, a.participant_id, a.nickname, a.content, a.rank_score, a.feedback
	      FROM problem p
	      LEFT JOIN answer a ON a.problem_id = p.id
	      WHERE p.contest_id = $1
	      ORDER BY p.id, a.id`
	rows, err := r.Pool.Query(ctx, q, contestID)
	if err != nil {
		return nil, fmt.Errorf("op=contest.problems_data: %w", err)
	}
	defer rows.Close()

	var out []domain.ProblemWithAnswers
	idx := map[int64]int{}
	for rows.Next() {
		var p domain.Problem
		var (
			answerID      *int64
			participantID *int64
			nickname      *string
			content       *string
			score         *int
			feedback      *string
		)
		if err := rows.Scan(&p.ID, &p.ContestID, &p.Question, &p.ReferenceAnswer, &p.TechClass,
			&answerID, &participantID, &nickname, &content, &score, &feedback); err != nil {
			return nil, fmt.Errorf("op=contest.problems_data scan: %w", err)
		}
		i, ok := idx[p.ID]
		if !ok {
			out = append(out, domain.ProblemWithAnswers{Problem: p})
			i = len(out) - 1
			idx[p.ID] = i
		}
		if answerID == nil {
			continue
		}
		ans := domain.ParticipantAnswer{
			AnswerID:      *answerID,
			ParticipantID: *participantID,
			Score:         score,
			Feedback:      feedback,
		}
		if nickname != nil {
			ans.Nickname = *nickname
		}
		if content != nil {
			ans.Text = *content
		}
		out[i].Answers = append(out[i].Answers, ans)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=contest.problems_data: %w", err)
	}
	return out, nil
}
