package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 10, cfg.EvalBatchSize)
	assert.Equal(t, 3, cfg.EvalWorkerCount)
	assert.Equal(t, 5, cfg.EvalMaxConcurrency)
	assert.Equal(t, 3, cfg.EvalMaxRetries)
	assert.False(t, cfg.StrictFinalize)
	assert.Equal(t, time.Hour, cfg.RunTTL)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.IsProd())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("EVAL_BATCH_SIZE", "25")
	t.Setenv("EVAL_STRICT_FINALIZE", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProd())
	assert.Equal(t, 25, cfg.EvalBatchSize)
	assert.True(t, cfg.StrictFinalize)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestAIBackoff_TestEnvShortens(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	cfg, err := Load()
	require.NoError(t, err)
	maxElapsed, initial, maxInterval, mult := cfg.AIBackoff()
	assert.Equal(t, 2*time.Second, maxElapsed)
	assert.Equal(t, 10*time.Millisecond, initial)
	assert.Equal(t, 200*time.Millisecond, maxInterval)
	assert.Equal(t, 2.0, mult)
}
