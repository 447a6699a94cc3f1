package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Read consults so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DATABASE_URL", "GROQ_API_KEY",
		"IPLSTATS_DATABASE_URL", "IPLSTATS_LLM_API_KEY", "IPLSTATS_LLM_PROVIDER",
		"IPLSTATS_LLM_MODEL", "IPLSTATS_LLM_TIMEOUT", "IPLSTATS_DATASET_TABLE",
		"IPLSTATS_ASSISTANT_FALLBACK", "IPLSTATS_LOGGING_LEVEL",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/ipl")
	t.Setenv("GROQ_API_KEY", "gsk_test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/ipl", cfg.DatabaseURL)
	assert.Equal(t, "gsk_test", cfg.LLM.APIKey)
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 800, cfg.LLM.MaxTokens)
	assert.Equal(t, "ipl_balls", cfg.Dataset.Table)
	assert.Equal(t, 0, cfg.Dataset.MaxRows)
	assert.Equal(t, 12, cfg.Assistant.MaxRowsDisplay)
	assert.False(t, cfg.Assistant.Fallback)
	assert.Equal(t, "stderr", cfg.Logging.Output)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "iplstats.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url: sqlite:///data/ipl.db
dataset:
  table: balls
  max_rows: 50000
llm:
  provider: Ollama
  model: llama3
  timeout: 45s
assistant:
  fallback: true
logging:
  level: debug
  format: json
`), 0o644))
	t.Setenv("IPLSTATS_LLM_MODEL", "mistral")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite:///data/ipl.db", cfg.DatabaseURL)
	assert.Equal(t, "balls", cfg.Dataset.Table)
	assert.Equal(t, 50000, cfg.Dataset.MaxRows)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "mistral", cfg.LLM.Model, "environment overrides the file")
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.Assistant.Fallback)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Empty(t, cfg.LLM.APIKey, "ollama needs no key")
}

func TestLoadMissingSettings(t *testing.T) {
	clearEnv(t)
	_, err := Load("")
	assert.ErrorIs(t, err, ErrMissingSetting)

	t.Setenv("DATABASE_URL", "postgres://localhost/ipl")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrMissingSetting)
	assert.ErrorContains(t, err, "GROQ_API_KEY")

	cfg, err := Read("")
	require.NoError(t, err, "Read does not validate")
	assert.Empty(t, cfg.LLM.APIKey)
}

func TestLoadInvalidProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/ipl")
	t.Setenv("GROQ_API_KEY", "k")
	t.Setenv("IPLSTATS_LLM_PROVIDER", "claude")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidSetting)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "could not read config file")
}
