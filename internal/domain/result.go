package domain

// FailureKind classifies terminal grading failures for metrics and logs.
type FailureKind string

const (
	FailureUpstream    FailureKind = "upstream"
	FailureSchema      FailureKind = "schema"
	FailurePersistence FailureKind = "persistence"
	FailureCanceled    FailureKind = "canceled"
)

// GradingResult is the tagged outcome of one GradingTask. Exactly one of
// the success fields (Evaluation) or the failure fields (FailKind,
// FailDetail) is meaningful; Succeeded discriminates.
type GradingResult struct {
	Task       GradingTask
	Succeeded  bool
	Evaluation Evaluation
	FailKind   FailureKind
	FailDetail string
	Attempts   int
}

// NewSuccess builds a successful result for a task.
func NewSuccess(task GradingTask, eval Evaluation, attempts int) GradingResult {
	return GradingResult{Task: task, Succeeded: true, Evaluation: eval, Attempts: attempts}
}

// NewFailure builds a terminal failure result for a task.
func NewFailure(task GradingTask, kind FailureKind, detail string, attempts int) GradingResult {
	return GradingResult{Task: task, Succeeded: false, FailKind: kind, FailDetail: detail, Attempts: attempts}
}

// Update converts a successful result into its answer-store write.
// Must not be called on failures.
func (r GradingResult) Update() ScoreUpdate {
	return ScoreUpdate{
		ProblemID:     r.Task.ProblemID,
		ParticipantID: r.Task.ParticipantID,
		Score:         r.Evaluation.Score,
		Feedback:      r.Evaluation.Feedback,
	}
}
