package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearServerlessEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"VERCEL", "AWS_LAMBDA_FUNCTION_NAME", "K_SERVICE", "JOB_PERSISTENCE_ENABLED"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearServerlessEnv(t)
	t.Setenv("APOLLO_API_KEY", "")
	t.Setenv("LEADGEN_PER_PAGE", "")

	cfg := Load()
	assert.Equal(t, 25, cfg.LeadgenPerPage)
	assert.Equal(t, "leadgen_jobs", cfg.RedisStream)
	assert.Equal(t, PersistenceFile, cfg.JobPersistenceBackend)
	assert.False(t, cfg.JobPersistenceEnabled)
	assert.Equal(t, 15*time.Minute, cfg.PresignTTL())
	assert.Equal(t, time.Second, cfg.ApolloRetryDelay())
}

func TestPersistenceEnabledOnServerlessRuntime(t *testing.T) {
	clearServerlessEnv(t)
	t.Setenv("VERCEL", "1")
	assert.True(t, Load().JobPersistenceEnabled)

	t.Setenv("JOB_PERSISTENCE_ENABLED", "false")
	assert.False(t, Load().JobPersistenceEnabled)
}

func TestLoadParsesListsAndIgnoresBadNumbers(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example, ,https://b.example")
	t.Setenv("RATE_LIMIT_BURST", "lots")

	cfg := Load()
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}

func TestLoadDotEnvKeepsProcessEnvironment(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, ".env")
	second := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(first, []byte("LEADGEN_TEST_A=from-file\nLEADGEN_TEST_B=\"quoted value\"\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("LEADGEN_TEST_B=later\nLEADGEN_TEST_C=local\n"), 0o600))

	t.Setenv("LEADGEN_TEST_A", "from-process")
	t.Setenv("LEADGEN_TEST_B", "")
	t.Setenv("LEADGEN_TEST_C", "")
	os.Unsetenv("LEADGEN_TEST_B")
	os.Unsetenv("LEADGEN_TEST_C")

	require.NoError(t, LoadDotEnv(first, filepath.Join(dir, "missing.env"), second))
	assert.Equal(t, "from-process", os.Getenv("LEADGEN_TEST_A"))
	assert.Equal(t, "quoted value", os.Getenv("LEADGEN_TEST_B"))
	assert.Equal(t, "local", os.Getenv("LEADGEN_TEST_C"))
}
