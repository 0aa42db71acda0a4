package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.EnableParallelAgents)
	assert.Equal(t, 4, cfg.MinDomainsForParallel)
	assert.Equal(t, 60*time.Second, cfg.ParallelExecutionTimeout)
	assert.True(t, cfg.FallbackToSequential)
	assert.False(t, cfg.LogExecutionTimeline)
	assert.False(t, cfg.EnableQueryCache)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 2112, cfg.MetricsPort)
	assert.Equal(t, 5, cfg.RetrievalTopK)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ENABLE_PARALLEL_AGENTS", "false")
	t.Setenv("MIN_DOMAINS_FOR_PARALLEL", "2")
	t.Setenv("PARALLEL_EXECUTION_TIMEOUT", "30s")
	t.Setenv("LOG_EXECUTION_TIMELINE", "true")
	t.Setenv("REDIS_ADDR", "localhost:6390")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.EnableParallelAgents)
	assert.Equal(t, 2, cfg.MinDomainsForParallel)
	assert.Equal(t, 30*time.Second, cfg.ParallelExecutionTimeout)
	assert.True(t, cfg.LogExecutionTimeline)
	assert.Equal(t, "localhost:6390", cfg.RedisAddr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.MinDomainsForParallel = 0
	assert.Error(t, cfg.Validate())

	cfg, err = Load()
	require.NoError(t, err)
	cfg.MaxHistoryMessages = 0
	assert.Error(t, cfg.Validate())
}
