package ai

import (
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// tokenCounter caches tiktoken encodings per model and truncates prompt
// material that would blow the model's context window. Candidate answers
// are pasted verbatim into prompts, so an unbounded submission could
// otherwise take the whole run down.
type tokenCounter struct {
	mu    sync.Mutex
	cache map[string]*tiktoken.Tiktoken
}

func newTokenCounter() *tokenCounter {
	return &tokenCounter{cache: make(map[string]*tiktoken.Tiktoken)}
}

func (c *tokenCounter) encoding(model string) *tiktoken.Tiktoken {
	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.cache[model]; ok {
		return enc
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// cl100k_base covers gpt-4-class and most modern models.
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			slog.Debug("token encoding unavailable", slog.String("model", model), slog.Any("error", err))
			return nil
		}
	}
	c.cache[model] = enc
	return enc
}

// Truncate returns s cut down to at most maxTokens tokens for model.
// When no encoding is available it falls back to a rough 4-bytes-per-token
// estimate rather than passing unbounded text through.
func (c *tokenCounter) Truncate(model, s string, maxTokens int) string {
	if maxTokens <= 0 {
		return s
	}
	enc := c.encoding(model)
	if enc == nil {
		if est := maxTokens * 4; len(s) > est {
			return strings.ToValidUTF8(s[:est], "")
		}
		return s
	}
	ids := enc.Encode(s, nil, nil)
	if len(ids) <= maxTokens {
		return s
	}
	return enc.Decode(ids[:maxTokens])
}
