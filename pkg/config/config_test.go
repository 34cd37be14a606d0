package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_NoUserConfig_UsesBuiltinDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "unknown", cfg.ProjectID.Fallback)
	assert.Equal(t, float64(50), cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 500, cfg.ActivityLog.MaxEntries)
	assert.Equal(t, []string{"claude", "openrouter", "openai", "ollama"}, cfg.Classifier.ProviderOrder)
}

func TestInitialize_PartialOverride_PreservesOtherDefaults(t *testing.T) {
	dir := t.TempDir()
	yamlContent := `
rate_limit:
  requests_per_minute: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "memory.yaml"), []byte(yamlContent), 0o644))

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, float64(10), cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, float64(40000), cfg.RateLimit.TokensPerMinute)
}

func TestInitialize_InvalidValue_FallsBackWithoutError(t *testing.T) {
	dir := t.TempDir()
	yamlContent := `
rate_limit:
  requests_per_minute: -5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "memory.yaml"), []byte(yamlContent), 0o644))

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, float64(50), cfg.RateLimit.RequestsPerMinute)
}

func TestInitialize_MalformedYAML_ReturnsLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "memory.yaml"), []byte("not: [valid yaml"), 0o644))

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}
