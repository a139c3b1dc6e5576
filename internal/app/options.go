package app

import (
	"github.com/chibbo-dev/ai-algorithm-api/internal/config"
	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
	"github.com/chibbo-dev/ai-algorithm-api/internal/usecase"
)

// EvaluationOptions maps env configuration onto the evaluation core's
// tuning knobs. The server and the worker share this mapping.
func EvaluationOptions(cfg config.Config) usecase.EvaluationOptions {
	return usecase.EvaluationOptions{
		BatchSize:      cfg.EvalBatchSize,
		WorkerCount:    cfg.EvalWorkerCount,
		MaxConcurrency: cfg.EvalMaxConcurrency,
		LogInterval:    cfg.EvalLogInterval,
		Retry: domain.RetryConfig{
			MaxRetries:   cfg.EvalMaxRetries,
			InitialDelay: cfg.EvalRetryBaseDelay,
			MaxDelay:     cfg.EvalRetryMaxDelay,
			Multiplier:   2.0,
			Jitter:       cfg.EvalRetryJitter,
		},
		StrictFinalize: cfg.StrictFinalize,
		RunTTL:         cfg.RunTTL,
	}
}
