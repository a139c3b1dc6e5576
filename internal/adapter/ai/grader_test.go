package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chibbo-dev/ai-algorithm-api/internal/config"
	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

type fakeChat struct {
	resp string
	err  error
	last string
}

func (f *fakeChat) ChatJSON(_ domain.Context, _, userPrompt string, _ int) (string, error) {
	f.last = userPrompt
	return f.resp, f.err
}

func TestGrade_ParsesScoreAndFeedback(t *testing.T) {
	chat := &fakeChat{resp: `{"score": 85, "feedback": "solid answer"}`}
	g := NewGrader(chat, config.Config{ChatModel: "gpt-4o"})

	ev, err := g.Grade(context.Background(), "what is a goroutine", "a lightweight thread", "a thread managed by the runtime")
	require.NoError(t, err)
	assert.Equal(t, 85, ev.Score)
	assert.Equal(t, "solid answer", ev.Feedback)
	assert.Contains(t, chat.last, "what is a goroutine")
}

func TestGrade_ClampsScore(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want int
	}{
		{`{"score": 140, "feedback": "f"}`, 100},
		{`{"score": -5, "feedback": "f"}`, 0},
		{`{"score": 72.6, "feedback": "f"}`, 73},
	} {
		g := NewGrader(&fakeChat{resp: tc.raw}, config.Config{})
		ev, err := g.Grade(context.Background(), "q", "ref", "cand")
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, ev.Score, tc.raw)
	}
}

func TestGrade_EmptyAnswerSkipsModel(t *testing.T) {
	chat := &fakeChat{err: errors.New("must not be called")}
	g := NewGrader(chat, config.Config{})

	ev, err := g.Grade(context.Background(), "q", "ref", "   \n\t ")
	require.NoError(t, err)
	assert.Equal(t, 0, ev.Score)
	assert.NotEmpty(t, ev.Feedback)
}

func TestGrade_SchemaViolations(t *testing.T) {
	for _, raw := range []string{
		"not json at all",
		`{"score": "high", "feedback": "f"}`,
		`{"score": 50, "feedback": "  "}`,
	} {
		g := NewGrader(&fakeChat{resp: raw}, config.Config{})
		_, err := g.Grade(context.Background(), "q", "ref", "cand")
		assert.ErrorIs(t, err, domain.ErrSchemaInvalid, raw)
	}
}

func TestGrade_PropagatesUpstreamError(t *testing.T) {
	g := NewGrader(&fakeChat{err: domain.ErrUpstreamTimeout}, config.Config{})
	_, err := g.Grade(context.Background(), "q", "ref", "cand")
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestGrade_TruncatesLongAnswers(t *testing.T) {
	chat := &fakeChat{resp: `{"score": 10, "feedback": "f"}`}
	g := NewGrader(chat, config.Config{ChatModel: "gpt-4o", PromptTokenCap: 8})

	long := strings.Repeat("the quick brown fox jumps over the lazy dog ", 200)
	_, err := g.Grade(context.Background(), "q", "ref", long)
	require.NoError(t, err)
	assert.Less(t, len(chat.last), len(long))
}
