package usecase

import (
	"fmt"
	"log/slog"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// InterviewService generates model answers for interview questions and
// attaches them to the question document in the doc store.
type InterviewService struct {
	Interviews domain.TechInterviewRepository
	Questions  domain.QuestionStore
	Gen        domain.AnswerGenerator
}

func NewInterviewService(interviews domain.TechInterviewRepository, questions domain.QuestionStore, gen domain.AnswerGenerator) *InterviewService {
	return &InterviewService{Interviews: interviews, Questions: questions, Gen: gen}
}

// AnswerQuestion generates an AI answer for a question document in the
// given space. The generated text lands under the document's "ai" key;
// when interviewID is set the matching relational row gets the full model
// answer as well.
func (s *InterviewService) AnswerQuestion(ctx domain.Context, spaceID int64, questionID string, interviewID int64) (domain.InterviewAnswer, error) {
	doc, err := s.Questions.Get(ctx, questionID)
	if err != nil {
		return domain.InterviewAnswer{}, err
	}
	if doc.SpaceID != spaceID {
		return domain.InterviewAnswer{}, fmt.Errorf("op=interview.answer_question id=%s space_id=%d: %w",
			questionID, spaceID, domain.ErrNotFound)
	}
	if existing, ok := doc.Answers["ai"]; ok && existing != "" {
		slog.Info("ai answer already present, regenerating", slog.String("question_id", questionID))
	}

	ans, err := s.Gen.InterviewAnswer(ctx, doc.TechClass, doc.QuestionText)
	if err != nil {
		return domain.InterviewAnswer{}, err
	}
	if err := s.Questions.AttachAIAnswer(ctx, questionID, ans.Answer); err != nil {
		return domain.InterviewAnswer{}, err
	}
	if interviewID > 0 {
		if err := s.Interviews.SaveModelAnswer(ctx, interviewID, ans); err != nil {
			return domain.InterviewAnswer{}, err
		}
	}
	return ans, nil
}

// AnswerTechInterview generates and persists a model answer for a
// relational tech-interview question.
func (s *InterviewService) AnswerTechInterview(ctx domain.Context, id int64) (domain.InterviewAnswer, error) {
	ti, err := s.Interviews.Get(ctx, id)
	if err != nil {
		return domain.InterviewAnswer{}, err
	}
	ans, err := s.Gen.InterviewAnswer(ctx, ti.TechClass, ti.Question)
	if err != nil {
		return domain.InterviewAnswer{}, err
	}
	if err := s.Interviews.SaveModelAnswer(ctx, id, ans); err != nil {
		return domain.InterviewAnswer{}, err
	}
	slog.Info("model answer saved", slog.Int64("interview_id", id), slog.String("tech_class", ti.TechClass))
	return ans, nil
}
