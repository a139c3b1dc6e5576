package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chibbo-dev/ai-algorithm-api/internal/config"
	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
	"github.com/chibbo-dev/ai-algorithm-api/pkg/textx"
)

// Grader implements domain.Grader on top of an AI chat client. Candidate
// answers are sanitized and token-capped before they reach the prompt.
type Grader struct {
	ai     domain.AIClient
	cfg    config.Config
	tokens *tokenCounter
}

func NewGrader(ai domain.AIClient, cfg config.Config) *Grader {
	return &Grader{ai: ai, cfg: cfg, tokens: newTokenCounter()}
}

// Grade scores candidateAnswer against referenceAnswer for the given
// problem statement. An empty candidate answer scores zero without a model
// call.
func (g *Grader) Grade(ctx domain.Context, problem, referenceAnswer, candidateAnswer string) (domain.Evaluation, error) {
	candidate := textx.SanitizeText(candidateAnswer)
	if candidate == "" {
		return domain.Evaluation{Score: 0, Feedback: "No answer was submitted."}, nil
	}
	candidate = g.tokens.Truncate(g.cfg.ChatModel, candidate, g.cfg.PromptTokenCap)

	raw, err := g.ai.ChatJSON(ctx, gradingSystemPrompt,
		gradingUserPrompt(problem, referenceAnswer, candidate), g.cfg.ChatMaxTokens)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("op=ai.grade: %w", err)
	}
	return parseEvaluation(raw)
}

// parseEvaluation decodes the model's {"score", "feedback"} object. The
// score is clamped to [0,100]; empty feedback is a schema violation so the
// caller's retry loop gets a chance at a better completion.
func parseEvaluation(raw string) (domain.Evaluation, error) {
	var out struct {
		Score    json.Number `json:"score"`
		Feedback string      `json:"feedback"`
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&out); err != nil {
		return domain.Evaluation{}, fmt.Errorf("op=ai.grade decode: %w: %s", domain.ErrSchemaInvalid, snippet([]byte(raw), 256))
	}
	scoreF, err := out.Score.Float64()
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("op=ai.grade score: %w: %q", domain.ErrSchemaInvalid, out.Score.String())
	}
	score := int(scoreF + 0.5)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	feedback := strings.TrimSpace(out.Feedback)
	if feedback == "" {
		return domain.Evaluation{}, fmt.Errorf("op=ai.grade: %w: empty feedback", domain.ErrSchemaInvalid)
	}
	return domain.Evaluation{Score: score, Feedback: feedback}, nil
}
