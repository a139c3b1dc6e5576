package ai

import (
	"fmt"
	"strings"
)

const gradingSystemPrompt = `You are a strict technical interview grader.
Respond with a single JSON object: {"score": <integer 0-100>, "feedback": "<string>"}.
Scoring criteria:
1. Understanding of the core concept (30 points)
2. Accuracy and clarity of the explanation (30 points)
3. Appropriate use of technical terminology (20 points)
4. Structure and logic of the answer (20 points)`

func gradingUserPrompt(problem, referenceAnswer, candidateAnswer string) string {
	return fmt.Sprintf(`Below are a technical interview question, its model answer, and a candidate's answer.

Question: %s

Model answer: %s

Candidate's answer: %s

Grade the candidate's answer against the criteria and respond with the JSON object only.`,
		problem, referenceAnswer, candidateAnswer)
}

const interviewSystemPrompt = `You are an expert IT technical interviewer. Write a model answer for the given interview question.
Respond with a single JSON object:
{"question": "<the question>", "answer": "<model answer>", "tips": "<points to emphasize>", "related_topics": "<related concepts>"}.
Guidelines:
1. The answer must be clear and specific.
2. Explain concepts concisely, then mention how they apply in practice.
3. Include code examples or real cases where possible.
4. Provide the points an interviewer would care about.
5. Briefly mention related knowledge or concepts.`

func interviewUserPrompt(techClass, question string) string {
	return fmt.Sprintf("Interview topic: %s\nInterview question: %s", techClass, question)
}

const testCaseSystemPrompt = `You generate test cases for competitive programming problems.
Respond with a single JSON object: {"testcases": [{"input": "<stdin>", "output": "<expected stdout>"}, ...]}.
Inputs must follow the problem's input format exactly; outputs must be what the sample solution prints.`

func testCaseUserPrompt(problemDescription, inputDescription, outputDescription, solutionLanguage, solutionCode string, caseTypes []string, spj bool) string {
	special := "no"
	if spj {
		special = "yes"
	}
	return fmt.Sprintf(`Problem description: %s

Input format: %s

Output format: %s

Sample solution (%s):
%s

Requested case types: %s
Special judge required: %s`,
		problemDescription, inputDescription, outputDescription,
		solutionLanguage, solutionCode, strings.Join(caseTypes, ", "), special)
}

const resumeSummarySystemPrompt = `You are a professional resume writer.
Respond with a single JSON object: {"summary": "<summary paragraph>", "key_points": ["<point>", ...]}.
The summary must be tailored to the target position and grounded only in the provided projects and careers.`

func resumeSummaryUserPrompt(position string, projects, careers []string) string {
	return fmt.Sprintf("Target position: %s\n\nProjects:\n- %s\n\nCareers:\n- %s",
		position, strings.Join(projects, "\n- "), strings.Join(careers, "\n- "))
}

const repoAnalysisSystemPrompt = `You analyze a software repository for a developer portfolio.
Respond with a single JSON object:
{"repository": "<name>", "summary": "<what it does>", "tech_stack": ["<tech>", ...], "features": ["<feature>", ...]}.`

const portfolioSystemPrompt = `You compose a developer portfolio from per-repository analyses.
Respond with a single JSON object:
{"summary": "<max 100 words>", "overview": "<max 300 words>", "tech_stack": ["<tech>", ...], "features": ["<feature>", ...], "architecture": "<architecture description>"}.`
