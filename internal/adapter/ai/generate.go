package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chibbo-dev/ai-algorithm-api/internal/config"
	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
	"github.com/chibbo-dev/ai-algorithm-api/pkg/textx"
)

// Generator implements the content-generation ports (interview answers,
// coding-test cases, resume material) over the chat client.
type Generator struct {
	ai     domain.AIClient
	cfg    config.Config
	tokens *tokenCounter
}

func NewGenerator(ai domain.AIClient, cfg config.Config) *Generator {
	return &Generator{ai: ai, cfg: cfg, tokens: newTokenCounter()}
}

var _ domain.AnswerGenerator = (*Generator)(nil)
var _ domain.TestCaseGenerator = (*Generator)(nil)
var _ domain.ResumeGenerator = (*Generator)(nil)

func (g *Generator) InterviewAnswer(ctx domain.Context, techClass, question string) (domain.InterviewAnswer, error) {
	question = textx.SanitizeText(question)
	if question == "" {
		return domain.InterviewAnswer{}, fmt.Errorf("op=ai.interview: %w: empty question", domain.ErrInvalidArgument)
	}
	raw, err := g.ai.ChatJSON(ctx, interviewSystemPrompt,
		interviewUserPrompt(techClass, question), g.cfg.ChatMaxTokens)
	if err != nil {
		return domain.InterviewAnswer{}, fmt.Errorf("op=ai.interview: %w", err)
	}
	var ans domain.InterviewAnswer
	if err := decodeInto(raw, &ans); err != nil {
		return domain.InterviewAnswer{}, fmt.Errorf("op=ai.interview: %w", err)
	}
	if strings.TrimSpace(ans.Answer) == "" {
		return domain.InterviewAnswer{}, fmt.Errorf("op=ai.interview: %w: empty answer", domain.ErrSchemaInvalid)
	}
	if ans.Question == "" {
		ans.Question = question
	}
	return ans, nil
}

func (g *Generator) TestCases(ctx domain.Context, req domain.TestCaseRequest) ([]domain.TestCase, error) {
	code := g.tokens.Truncate(g.cfg.ChatModel, req.SolutionCode, g.cfg.PromptTokenCap)
	raw, err := g.ai.ChatJSON(ctx, testCaseSystemPrompt,
		testCaseUserPrompt(req.ProblemDescription, req.InputDescription, req.OutputDescription,
			req.SolutionLanguage, code, req.TestCaseTypes, req.SPJ),
		g.cfg.ChatMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("op=ai.testcases: %w", err)
	}
	var out struct {
		TestCases []domain.TestCase `json:"testcases"`
	}
	if err := decodeInto(raw, &out); err != nil {
		return nil, fmt.Errorf("op=ai.testcases: %w", err)
	}
	if len(out.TestCases) == 0 {
		return nil, fmt.Errorf("op=ai.testcases: %w: no cases generated", domain.ErrSchemaInvalid)
	}
	return out.TestCases, nil
}

func (g *Generator) Summary(ctx domain.Context, req domain.ResumeSummaryRequest) (domain.ResumeSummary, error) {
	raw, err := g.ai.ChatJSON(ctx, resumeSummarySystemPrompt,
		resumeSummaryUserPrompt(req.Position, req.Projects, req.Careers), g.cfg.ChatMaxTokens)
	if err != nil {
		return domain.ResumeSummary{}, fmt.Errorf("op=ai.resume: %w", err)
	}
	var out domain.ResumeSummary
	if err := decodeInto(raw, &out); err != nil {
		return domain.ResumeSummary{}, fmt.Errorf("op=ai.resume: %w", err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return domain.ResumeSummary{}, fmt.Errorf("op=ai.resume: %w: empty summary", domain.ErrSchemaInvalid)
	}
	return out, nil
}

func (g *Generator) AnalyzeRepository(ctx domain.Context, repository string) (domain.RepoAnalysis, error) {
	repository = textx.SanitizeText(repository)
	if repository == "" {
		return domain.RepoAnalysis{}, fmt.Errorf("op=ai.portfolio: %w: empty repository", domain.ErrInvalidArgument)
	}
	raw, err := g.ai.ChatJSON(ctx, repoAnalysisSystemPrompt,
		"Repository to analyze: "+repository, g.cfg.ChatMaxTokens)
	if err != nil {
		return domain.RepoAnalysis{}, fmt.Errorf("op=ai.portfolio: %w", err)
	}
	var out domain.RepoAnalysis
	if err := decodeInto(raw, &out); err != nil {
		return domain.RepoAnalysis{}, fmt.Errorf("op=ai.portfolio: %w", err)
	}
	if out.Repository == "" {
		out.Repository = repository
	}
	return out, nil
}

func (g *Generator) ComposePortfolio(ctx domain.Context, analyses []domain.RepoAnalysis) (domain.PortfolioData, error) {
	if len(analyses) == 0 {
		return domain.PortfolioData{}, fmt.Errorf("op=ai.portfolio: %w: no analyses", domain.ErrInvalidArgument)
	}
	material, err := json.Marshal(analyses)
	if err != nil {
		return domain.PortfolioData{}, fmt.Errorf("op=ai.portfolio marshal: %w", err)
	}
	raw, err := g.ai.ChatJSON(ctx, portfolioSystemPrompt,
		"Per-repository analyses:\n"+string(material), g.cfg.ChatMaxTokens)
	if err != nil {
		return domain.PortfolioData{}, fmt.Errorf("op=ai.portfolio: %w", err)
	}
	var out domain.PortfolioData
	if err := decodeInto(raw, &out); err != nil {
		return domain.PortfolioData{}, fmt.Errorf("op=ai.portfolio: %w", err)
	}
	return out, nil
}

// decodeInto parses a model completion into v; any parse failure is a
// schema violation so callers can retry for a better completion.
func decodeInto(raw string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrSchemaInvalid, snippet([]byte(raw), 256))
	}
	return nil
}
