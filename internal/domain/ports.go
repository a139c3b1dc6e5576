package domain

import "time"

// ContestRepository loads contest state and performs the terminal status
// transition. Implementations must never move status backward.
type ContestRepository interface {
	Get(ctx Context, id int64) (Contest, error)
	GetInSpace(ctx Context, spaceID, id int64) (Contest, error)
	SetStatus(ctx Context, id int64, status ContestStatus) error
	// ProblemsData returns every problem of the contest with all submitted
	// answers, in stable (problem, answer) order.
	ProblemsData(ctx Context, contestID int64) ([]ProblemWithAnswers, error)
}

// AnswerRepository writes grading results back to the relational store.
// Each call owns its own transaction; a missing answer row is a skip
// (wrapped ErrNotFound), not a failure of sibling rows.
type AnswerRepository interface {
	PersistScore(ctx Context, u ScoreUpdate) error
	// PersistScores writes the batch in one transaction or fails it whole.
	PersistScores(ctx Context, updates []ScoreUpdate) error
}

// TechInterviewRepository persists generated model answers for interview
// questions.
type TechInterviewRepository interface {
	Get(ctx Context, id int64) (TechInterview, error)
	SaveModelAnswer(ctx Context, id int64, ans InterviewAnswer) error
}

// QuestionStore is the document-store port for free-form Q&A records.
type QuestionStore interface {
	Get(ctx Context, id string) (QuestionDoc, error)
	AttachAIAnswer(ctx Context, id, answer string) error
}

// Grader invokes the external model to score a candidate answer against a
// reference answer. Transport, model, and parsing problems surface as
// errors; retrying is the caller's concern.
type Grader interface {
	Grade(ctx Context, problem, referenceAnswer, candidateAnswer string) (Evaluation, error)
}

// AIClient is the low-level chat port. ChatJSON returns the raw message
// content, which callers parse against their own schema.
type AIClient interface {
	ChatJSON(ctx Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Queue enqueues background evaluation jobs.
type Queue interface {
	EnqueueEvaluate(ctx Context, payload EvaluateJobPayload) (string, error)
}

// RunStatus is the lifecycle of one evaluation run in the run store.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ProgressSnapshot is a point-in-time copy of run counters, safe for
// concurrent readers.
type ProgressSnapshot struct {
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	Success    int            `json:"success"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
	InProgress int            `json:"in_progress"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// RunState is the externally pollable state of one evaluation run.
type RunState struct {
	RunID      string           `json:"run_id"`
	ContestID  int64            `json:"contest_id"`
	Method     string           `json:"method"`
	Status     RunStatus        `json:"status"`
	Progress   ProgressSnapshot `json:"progress"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

// RunStore keeps run state keyed by run id with explicit lifecycle:
// created at run start, updated on progress, evicted by TTL after the run
// finishes. Replaces process-global tracker registries.
type RunStore interface {
	Save(ctx Context, state RunState) error
	Get(ctx Context, runID string) (RunState, error)
	// Finish marks the run terminal and arms the eviction TTL.
	Finish(ctx Context, state RunState, ttl time.Duration) error
}
