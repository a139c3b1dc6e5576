// Command worker consumes background evaluation jobs from Kafka and runs
// them against the same evaluation core the HTTP server uses.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ai "github.com/chibbo-dev/ai-algorithm-api/internal/adapter/ai"
	"github.com/chibbo-dev/ai-algorithm-api/internal/adapter/observability"
	"github.com/chibbo-dev/ai-algorithm-api/internal/adapter/queue/kafka"
	"github.com/chibbo-dev/ai-algorithm-api/internal/adapter/repo/postgres"
	runstore "github.com/chibbo-dev/ai-algorithm-api/internal/adapter/runstore/redis"
	"github.com/chibbo-dev/ai-algorithm-api/internal/app"
	"github.com/chibbo-dev/ai-algorithm-api/internal/config"
	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
	"github.com/chibbo-dev/ai-algorithm-api/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	runs := runstore.New(cfg.RedisAddr, cfg.RedisDB)
	defer func() {
		if err := runs.Close(); err != nil {
			slog.Error("failed to close redis client", slog.Any("error", err))
		}
	}()

	var aicl domain.AIClient
	if cfg.UseMockAI {
		slog.Warn("using mock AI client")
		aicl = ai.NewMockClient()
	} else {
		aicl = ai.New(cfg)
	}

	evalSvc := usecase.NewEvaluationService(
		postgres.NewContestRepo(pool),
		postgres.NewAnswerRepo(pool),
		ai.NewGrader(aicl, cfg),
		runs,
		nil, // the worker never enqueues
		app.EvaluationOptions(cfg),
	)

	handler := func(ctx context.Context, payload domain.EvaluateJobPayload) error {
		_, err := evalSvc.Evaluate(ctx, payload.ContestID, payload.Method, payload.RunID)
		return err
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, handler)
	if err != nil {
		slog.Error("kafka consumer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer consumer.Close()

	slog.Info("worker consuming", slog.String("group", cfg.ConsumerGroup))
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("consumer stopped", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("worker stopped")
}
