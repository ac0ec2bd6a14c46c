package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Protocol-Lattice/research-agent/src/models"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, "gpt-oss:20b", cfg.Model)
	assert.Equal(t, 8, cfg.MaxResults)
	assert.Equal(t, 10, cfg.MaxRounds)
	assert.Equal(t, 120*time.Second, cfg.CallTimeout)
	assert.Equal(t, models.ReasoningHigh, cfg.Reasoning)
	assert.True(t, cfg.Thinking)
	assert.False(t, cfg.RelevanceFilter)
	assert.Equal(t, "gpt-oss:20b", cfg.EffectiveCurationModel())
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"RESEARCH_MODEL":            "gpt-4.1",
		"RESEARCH_CURATION_MODEL":   "gpt-oss:20b",
		"RESEARCH_RELEVANCE_FILTER": "true",
		"RESEARCH_MAX_RESULTS":      "5",
		"RESEARCH_CALL_TIMEOUT":     "30s",
		"RESEARCH_PROMPT":           "legal",
		"GEMINI_API_KEY":            "g1",
		"GOOGLE_API_KEY":            "g2",
		"RESEARCH_UTCP_PROVIDERS":   "providers.json",
		"RESEARCH_UTCP_TOOL_QUERY":  "papers",
	}))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4.1", cfg.Model)
	assert.Equal(t, "gpt-oss:20b", cfg.EffectiveCurationModel())
	assert.True(t, cfg.RelevanceFilter)
	assert.Equal(t, 5, cfg.MaxResults)
	assert.Equal(t, 30*time.Second, cfg.CallTimeout)
	assert.Equal(t, "legal", cfg.Prompt)
	assert.Equal(t, "g2", cfg.GeminiAPIKey)
	assert.Equal(t, "providers.json", cfg.UTCPProviders)
	assert.Equal(t, "papers", cfg.UTCPToolQuery)
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	_, err := FromEnv(env(map[string]string{
		"RESEARCH_MAX_ROUNDS":       "ten",
		"RESEARCH_RELEVANCE_FILTER": "sometimes",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESEARCH_MAX_ROUNDS")
	assert.Contains(t, err.Error(), "RESEARCH_RELEVANCE_FILTER")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Model = "unknown-model"
	cfg.MaxRounds = 0
	cfg.SearchCache = CacheRedis

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnsupportedProvider)
	assert.Contains(t, err.Error(), "max rounds")
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RESEARCH_MAX_RESULTS=3\n"), 0o600))
	t.Setenv("RESEARCH_MAX_RESULTS", "")
	require.NoError(t, os.Unsetenv("RESEARCH_MAX_RESULTS"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxResults)
	_ = os.Unsetenv("RESEARCH_MAX_RESULTS")
}

func TestLoadMissingFileIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}
