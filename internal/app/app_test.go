package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpserver "github.com/chibbo-dev/ai-algorithm-api/internal/adapter/httpserver"
	"github.com/chibbo-dev/ai-algorithm-api/internal/config"
)

func TestParseOrigins(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{"https://a.com, https://b.com", []string{"https://a.com", "https://b.com"}},
		{"  ,  ", []string{"*"}},
	}
	for _, c := range cases {
		got := ParseOrigins(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("len mismatch for %q: %v vs %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("mismatch idx %d: %v vs %v", i, got, c.want)
			}
		}
	}
}

func TestBuildRouter_HealthAndHeaders(t *testing.T) {
	cfg := config.Config{RateLimitPerMin: 30, HTTPWriteTimeout: time.Second}
	srv := &httpserver.Server{Cfg: cfg}
	h := BuildRouter(cfg, srv)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("missing security header, got %q", got)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestBuildRouter_Metrics(t *testing.T) {
	cfg := config.Config{RateLimitPerMin: 30, HTTPWriteTimeout: time.Second}
	h := BuildRouter(cfg, &httpserver.Server{Cfg: cfg})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
}

type stubHealth struct{ err error }

func (s stubHealth) Healthy(_ context.Context) error { return s.err }

type stubPinger struct{ err error }

func (s stubPinger) Ping(_ context.Context) error { return s.err }

func TestBuildReadinessChecks(t *testing.T) {
	boom := errors.New("connection refused")

	dbCheck, redisCheck, esCheck, kafkaCheck := BuildReadinessChecks(
		stubPinger{}, stubHealth{}, stubHealth{err: boom}, nil,
	)

	if err := dbCheck(context.Background()); err != nil {
		t.Fatalf("db check: %v", err)
	}
	if err := redisCheck(context.Background()); err != nil {
		t.Fatalf("redis check: %v", err)
	}
	if err := esCheck(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("es check = %v, want %v", err, boom)
	}
	if err := kafkaCheck(context.Background()); err == nil {
		t.Fatalf("nil kafka dependency must fail the check")
	}
}

func TestBuildReadinessChecks_NilPool(t *testing.T) {
	dbCheck, _, _, _ := BuildReadinessChecks(nil, nil, nil, nil)
	if err := dbCheck(context.Background()); err == nil {
		t.Fatalf("nil pool must fail the check")
	}
}
