package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/chibbo-dev/ai-algorithm-api/internal/config"
	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

func testCfg(baseURL string) config.Config {
	return config.Config{
		AppEnv:        "test",
		OpenAIAPIKey:  "x",
		OpenAIBaseURL: baseURL,
		ChatModel:     "gpt-4o",
		ChatMaxTokens: 256,
	}
}

func TestChatJSON_ReturnsFirstChoice(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer x" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "gpt-4o" {
			t.Fatalf("unexpected model: %v", body["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": `{"score":80}`}}},
		})
	}))
	defer ts.Close()

	c := New(testCfg(ts.URL))
	out, err := c.ChatJSON(context.Background(), "sys", "user", 64)
	if err != nil {
		t.Fatalf("chat err: %v", err)
	}
	if out != `{"score":80}` {
		t.Fatalf("unexpected content: %q", out)
	}
}

func TestChatJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer ts.Close()

	c := New(testCfg(ts.URL))
	out, err := c.ChatJSON(context.Background(), "sys", "user", 64)
	if err != nil {
		t.Fatalf("chat err: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected content: %q", out)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestChatJSON_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	c := New(testCfg(ts.URL))
	if _, err := c.ChatJSON(context.Background(), "sys", "user", 64); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestChatJSON_RateLimitMapsToSentinel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := New(testCfg(ts.URL))
	_, err := c.ChatJSON(context.Background(), "sys", "user", 64)
	if !errors.Is(err, domain.ErrUpstreamRateLimit) {
		t.Fatalf("expected rate-limit sentinel, got %v", err)
	}
}

func TestChatJSON_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer ts.Close()

	c := New(testCfg(ts.URL))
	_, err := c.ChatJSON(context.Background(), "sys", "user", 64)
	if !errors.Is(err, domain.ErrSchemaInvalid) {
		t.Fatalf("expected schema sentinel, got %v", err)
	}
}

func TestChatJSON_MissingKey(t *testing.T) {
	c := New(config.Config{AppEnv: "test"})
	_, err := c.ChatJSON(context.Background(), "sys", "user", 64)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid-argument sentinel, got %v", err)
	}
}
