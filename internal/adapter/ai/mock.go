package ai

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// MockClient implements domain.AIClient deterministically for offline mode
// and tests. The same prompt always yields the same completion.
type MockClient struct{}

func NewMockClient() domain.AIClient { return &MockClient{} }

// ChatJSON inspects the system prompt to decide which schema to emit and
// derives stable values from a hash of the user prompt.
func (m *MockClient) ChatJSON(_ domain.Context, systemPrompt, userPrompt string, _ int) (string, error) {
	var payload any
	switch {
	case strings.Contains(systemPrompt, "grader"):
		score := 40 + int(hashToFloat(userPrompt)*60)
		payload = map[string]any{
			"score":    score,
			"feedback": fmt.Sprintf("The answer covers the main points; mock score %d.", score),
		}
	case strings.Contains(systemPrompt, "interviewer"):
		payload = map[string]any{
			"question":       firstLine(userPrompt),
			"answer":         "A model answer generated in mock mode.",
			"tips":           "Mention concrete production experience.",
			"related_topics": "Fundamentals of the chosen topic.",
		}
	case strings.Contains(systemPrompt, "test cases"):
		payload = map[string]any{
			"testcases": []map[string]string{
				{"input": "1 2\n", "output": "3\n"},
				{"input": "0 0\n", "output": "0\n"},
			},
		}
	case strings.Contains(systemPrompt, "resume writer"):
		payload = map[string]any{
			"summary":    "An engineer with hands-on project delivery, generated in mock mode.",
			"key_points": []string{"project delivery", "team collaboration"},
		}
	case strings.Contains(systemPrompt, "repository"):
		payload = map[string]any{
			"repository": firstLine(userPrompt),
			"summary":    "A service repository, analyzed in mock mode.",
			"tech_stack": []string{"Go"},
			"features":   []string{"HTTP API"},
		}
	case strings.Contains(systemPrompt, "portfolio"):
		payload = map[string]any{
			"summary":      "Portfolio composed in mock mode.",
			"overview":     "Overview of the analyzed repositories.",
			"tech_stack":   []string{"Go"},
			"features":     []string{"HTTP API"},
			"architecture": "Layered service architecture.",
		}
	default:
		payload = map[string]any{"score": 50, "feedback": "mock completion"}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("mock marshal: %w", err)
	}
	return string(b), nil
}

func hashToFloat(s string) float64 {
	sum := sha1.Sum([]byte(s))
	v := binary.BigEndian.Uint64(sum[:8])
	return float64(v) / float64(^uint64(0))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
