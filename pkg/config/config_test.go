package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 3, cfg.Scheduler.Tolerance)
	assert.Equal(t, 5, cfg.Scheduler.MaxResults)
	assert.Equal(t, 10, cfg.Scheduler.WorkMultiplier)
	assert.Equal(t, "dp", cfg.Scheduler.Strategy)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.ResolveTimeout)
	assert.True(t, cfg.Scheduler.OpenSeatsOnly)
	assert.InDelta(t, 0.4, cfg.Weights.Instructor, 1e-9)
	assert.InDelta(t, 0.6, cfg.Weights.Preference, 1e-9)
	assert.Equal(t, 2, cfg.Weights.MajorThreshold)
	assert.Equal(t, 500*time.Millisecond, cfg.Catalog.RequestDelay)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SCHEDULER_TOLERANCE", "2")
	t.Setenv("SCHEDULER_MAX_RESULTS", "10")
	t.Setenv("SCHEDULER_STRATEGY", "DFS")
	t.Setenv("SCHEDULER_RESOLVE_TIMEOUT", "750ms")
	t.Setenv("RANK_MAJOR_BONUS", "0.35")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Scheduler.Tolerance)
	assert.Equal(t, 10, cfg.Scheduler.MaxResults)
	assert.Equal(t, "dfs", cfg.Scheduler.Strategy)
	assert.Equal(t, 750*time.Millisecond, cfg.Scheduler.ResolveTimeout)
	assert.InDelta(t, 0.35, cfg.Weights.MajorBonus, 1e-9)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
