// Package domain defines the entities and ports of the AI Algorithm API.
package domain

import (
	"context"
	"time"
)

// Context is an alias so usecases and adapters share one signature shape.
type Context = context.Context

// ContestStatus is the submit state of a contest. Stored as a smallint;
// transitions only move forward (IN_PROGRESS -> SUBMITTED -> EVALUATED).
type ContestStatus int16

const (
	ContestInProgress ContestStatus = 0
	ContestSubmitted  ContestStatus = 1
	ContestEvaluated  ContestStatus = 2
)

// String returns the wire name used in API responses and logs.
func (s ContestStatus) String() string {
	switch s {
	case ContestInProgress:
		return "IN_PROGRESS"
	case ContestSubmitted:
		return "SUBMITTED"
	case ContestEvaluated:
		return "EVALUATED"
	}
	return "UNKNOWN"
}

// Contest groups problems and participant answers for one grading session.
type Contest struct {
	ID            int64
	Title         string
	SpaceID       int64
	Status        ContestStatus
	TimeoutMillis int64
	CreatedAt     time.Time
}

// Problem is one question within a contest. Immutable during evaluation.
type Problem struct {
	ID              int64
	ContestID       int64
	Question        string
	ReferenceAnswer string
	TechClass       string
}

// ParticipantAnswer is one participant's submission for one problem.
// Score and Feedback are nil until a grading succeeds.
type ParticipantAnswer struct {
	AnswerID      int64
	ParticipantID int64
	Nickname      string
	Text          string
	Score         *int
	Feedback      *string
}

// ProblemWithAnswers is the unit the schedulers enumerate: a problem plus
// every submitted answer for it.
type ProblemWithAnswers struct {
	Problem
	Answers []ParticipantAnswer
}

// GradingTask carries everything one grading invocation needs. It lives only
// in a run's working set and is never persisted.
type GradingTask struct {
	ProblemID       int64
	AnswerID        int64
	ParticipantID   int64
	Nickname        string
	Question        string
	ReferenceAnswer string
	CandidateAnswer string
}

// Evaluation is the model's verdict for one answer. Score is clamped to
// [0,100] by the AI adapter before it reaches the core.
type Evaluation struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// ScoreUpdate is one write-back row for the answer store.
type ScoreUpdate struct {
	ProblemID     int64
	ParticipantID int64
	Score         int
	Feedback      string
}

// InterviewAnswer is a generated model answer for a tech-interview question.
type InterviewAnswer struct {
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	Tips          string `json:"tips"`
	RelatedTopics string `json:"related_topics"`
}

// TechInterview is the relational record backing an interview question.
type TechInterview struct {
	ID               int64
	Question         string
	TechClass        string
	ModelAnswer      string
	KeyPoint         string
	AdditionalTopics string
}

// QuestionDoc is the document-store record for a free-form Q&A thread.
// The "ai" key of Answers holds a generated model answer.
type QuestionDoc struct {
	ID           string            `json:"id"`
	SpaceID      int64             `json:"space_id"`
	TechClass    string            `json:"tech_class"`
	QuestionText string            `json:"question_text"`
	Answers      map[string]string `json:"answers"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// TestCase is one generated coding-test case: raw stdin and expected stdout.
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// EvaluateJobPayload is the queue message for a background contest
// evaluation run.
type EvaluateJobPayload struct {
	RunID     string `json:"run_id"`
	SpaceID   int64  `json:"space_id"`
	ContestID int64  `json:"contest_id"`
	Method    string `json:"method"`
}
