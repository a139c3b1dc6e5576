package domain

// TestCaseRequest describes a coding-test problem for test-case synthesis.
type TestCaseRequest struct {
	ProblemDescription string   `json:"problem_description"`
	InputDescription   string   `json:"input_description"`
	OutputDescription  string   `json:"output_description"`
	SolutionLanguage   string   `json:"solution_language"`
	SolutionCode       string   `json:"solution_code"`
	// TestCaseTypes selects among basic, boundary, special, and large.
	TestCaseTypes []string `json:"test_case_types"`
	SPJ           bool     `json:"spj"`
}

// ResumeSummaryRequest carries the raw material for a resume summary.
type ResumeSummaryRequest struct {
	Position string   `json:"position"`
	Projects []string `json:"projects"`
	Careers  []string `json:"careers"`
}

// ResumeSummary is a generated resume summary.
type ResumeSummary struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// RepoAnalysis is the per-repository step of portfolio generation.
type RepoAnalysis struct {
	Repository string   `json:"repository"`
	Summary    string   `json:"summary"`
	TechStack  []string `json:"tech_stack"`
	Features   []string `json:"features"`
}

// PortfolioData is the composed portfolio for a set of repositories.
type PortfolioData struct {
	Summary      string   `json:"summary"`
	Overview     string   `json:"overview"`
	TechStack    []string `json:"tech_stack"`
	Features     []string `json:"features"`
	Architecture string   `json:"architecture"`
}

// AnswerGenerator produces model answers for interview questions.
type AnswerGenerator interface {
	InterviewAnswer(ctx Context, techClass, question string) (InterviewAnswer, error)
}

// TestCaseGenerator synthesizes test cases for a coding problem.
type TestCaseGenerator interface {
	TestCases(ctx Context, req TestCaseRequest) ([]TestCase, error)
}

// ResumeGenerator produces resume and portfolio content.
type ResumeGenerator interface {
	Summary(ctx Context, req ResumeSummaryRequest) (ResumeSummary, error)
	AnalyzeRepository(ctx Context, repository string) (RepoAnalysis, error)
	ComposePortfolio(ctx Context, analyses []RepoAnalysis) (PortfolioData, error)
}
