// Command server starts the AI Algorithm API HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	ai "github.com/chibbo-dev/ai-algorithm-api/internal/adapter/ai"
	"github.com/chibbo-dev/ai-algorithm-api/internal/adapter/docstore/es"
	httpserver "github.com/chibbo-dev/ai-algorithm-api/internal/adapter/httpserver"
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
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	contestRepo := postgres.NewContestRepo(pool)
	answerRepo := postgres.NewAnswerRepo(pool)
	interviewRepo := postgres.NewTechInterviewRepo(pool)

	questions, err := es.NewQuestionStore(ctx, es.ClientConfig{
		Addresses: cfg.ESAddresses,
		IndexName: cfg.ESQuestionIndex,
		Username:  cfg.ESUsername,
		Password:  cfg.ESPassword,
	})
	if err != nil {
		slog.Error("elasticsearch connect failed", slog.Any("error", err))
		os.Exit(1)
	}

	runs := runstore.New(cfg.RedisAddr, cfg.RedisDB)
	defer func() {
		if err := runs.Close(); err != nil {
			slog.Error("failed to close redis client", slog.Any("error", err))
		}
	}()

	producer, err := kafka.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("kafka producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer producer.Close()

	var aicl domain.AIClient
	if cfg.UseMockAI {
		slog.Warn("using mock AI client")
		aicl = ai.NewMockClient()
	} else {
		aicl = ai.New(cfg)
	}
	grader := ai.NewGrader(aicl, cfg)
	generator := ai.NewGenerator(aicl, cfg)

	evalSvc := usecase.NewEvaluationService(contestRepo, answerRepo, grader, runs, producer, app.EvaluationOptions(cfg))
	interviewSvc := usecase.NewInterviewService(interviewRepo, questions, generator)
	codingTestSvc := usecase.NewCodingTestService(generator)
	resumeSvc := usecase.NewResumeService(generator)

	srv := httpserver.NewServer(cfg, evalSvc, interviewSvc, codingTestSvc, resumeSvc)
	srv.DBCheck, srv.RedisCheck, srv.ESCheck, srv.KafkaCheck = app.BuildReadinessChecks(pool, runs, questions, producer)

	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
