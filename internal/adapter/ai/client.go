// Package ai implements the LLM provider adapter: a chat client for any
// OpenAI-compatible endpoint plus the prompt/parse layers for grading and
// content generation.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/chibbo-dev/ai-algorithm-api/internal/adapter/observability"
	"github.com/chibbo-dev/ai-algorithm-api/internal/config"
	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// Client implements domain.AIClient against an OpenAI-compatible
// chat-completions endpoint. Transport-level retries (429/5xx) are handled
// here with exponential backoff; grading-level retries stay in the core.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a chat client with a per-call timeout so a hanging model
// call cannot stall an evaluation task indefinitely.
func New(cfg config.Config) *Client {
	timeout := cfg.ChatTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{cfg: cfg, hc: &http.Client{Timeout: timeout}}
}

func (c *Client) newBackoff(ctx context.Context) backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsed, initial, maxInterval, multiplier := c.cfg.AIBackoff()
	expo.MaxElapsedTime = maxElapsed
	expo.InitialInterval = initial
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return backoff.WithContext(expo, ctx)
}

// ChatJSON calls chat completions and returns the first choice's content.
// 429 and 5xx responses are retried under backoff; 4xx responses are
// permanent failures.
func (c *Client) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}
	if maxTokens <= 0 {
		maxTokens = c.cfg.ChatMaxTokens
	}
	body := map[string]any{
		"model":       c.cfg.ChatModel,
		"temperature": 0.2,
		"max_tokens":  maxTokens,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("op=ai.chat marshal: %w", err)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	var rateLimited bool
	op := func() error {
		start := time.Now()
		// Rebuild the request each attempt: bodies are consumed.
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenAIBaseURL+"/chat/completions", bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.hc.Do(req)
		observability.AIRequestDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())
		if err != nil {
			observability.AIRequestsTotal.WithLabelValues("chat", "transport_error").Inc()
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			rateLimited = true
			observability.AIRequestsTotal.WithLabelValues("chat", "rate_limited").Inc()
			slog.Warn("ai provider rate limited", slog.Int("status", resp.StatusCode))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			observability.AIRequestsTotal.WithLabelValues("chat", "client_error").Inc()
			slog.Warn("ai provider 4xx",
				slog.Int("status", resp.StatusCode),
				slog.String("body", snippet(raw, 512)))
			return backoff.Permanent(fmt.Errorf("chat status %d", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			observability.AIRequestsTotal.WithLabelValues("chat", "server_error").Inc()
			slog.Error("ai provider non-2xx",
				slog.Int("status", resp.StatusCode),
				slog.String("body", snippet(raw, 512)))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			observability.AIRequestsTotal.WithLabelValues("chat", "decode_error").Inc()
			return backoff.Permanent(fmt.Errorf("decode chat response: %w", err))
		}
		observability.AIRequestsTotal.WithLabelValues("chat", "ok").Inc()
		return nil
	}

	if err := backoff.Retry(op, c.newBackoff(ctx)); err != nil {
		if rateLimited {
			return "", fmt.Errorf("op=ai.chat: %w: %s", domain.ErrUpstreamRateLimit, err.Error())
		}
		var nerr interface{ Timeout() bool }
		if errors.As(err, &nerr) && nerr.Timeout() || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("op=ai.chat: %w: %s", domain.ErrUpstreamTimeout, err.Error())
		}
		return "", fmt.Errorf("op=ai.chat: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("op=ai.chat: %w: empty choices", domain.ErrSchemaInvalid)
	}
	return out.Choices[0].Message.Content, nil
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
