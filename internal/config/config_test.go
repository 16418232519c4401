package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY", "CTMA_MODEL", "CTMA_CATALOG", "CTMA_DARK_MODE"} {
		t.Setenv(name, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "ctma", cfg.Name)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-3-pro-preview", cfg.LLM.Model)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-6)
	assert.InDelta(t, 0.95, cfg.LLM.TopP, 1e-6)
	assert.Empty(t, cfg.Catalog.Path)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearKeyEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.APIKey = "k-test"
	cfg.LLM.Timeout = "45s"
	cfg.Catalog = CatalogConfig{Path: "scenarios.yaml", Watch: true}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "k-test", loaded.LLM.APIKey)
	assert.Equal(t, 45*time.Second, loaded.GetLLMTimeout())
	assert.Equal(t, CatalogConfig{Path: "scenarios.yaml", Watch: true}, loaded.Catalog)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearKeyEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unterminated"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("GEMINI_API_KEY wins over the generic names", func(t *testing.T) {
		clearKeyEnv(t)
		t.Setenv("API_KEY", "generic")
		t.Setenv("GOOGLE_API_KEY", "google")
		t.Setenv("GEMINI_API_KEY", "gemini")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "gemini", cfg.LLM.APIKey)
		assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	})

	t.Run("API_KEY alone is enough", func(t *testing.T) {
		clearKeyEnv(t)
		t.Setenv("API_KEY", "generic")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "generic", cfg.LLM.APIKey)
	})

	t.Run("model and catalog", func(t *testing.T) {
		clearKeyEnv(t)
		t.Setenv("CTMA_MODEL", "gemini-2.5-flash")
		t.Setenv("CTMA_CATALOG", "/tmp/catalog.yaml")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
		assert.Equal(t, "/tmp/catalog.yaml", cfg.Catalog.Path)
	})
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "missing key")

	cfg.LLM.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.LLM.Provider = "openai"
	assert.ErrorContains(t, cfg.Validate(), "invalid LLM provider")
}

func TestConfig_DurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	assert.Zero(t, cfg.GetLLMTimeout())
	assert.Equal(t, 800*time.Millisecond, cfg.GetProgressInterval())
	assert.Equal(t, 2*time.Second, cfg.GetHighlightDuration())

	cfg.LLM.Timeout = "nonsense"
	cfg.UI.ProgressInterval = "-1s"
	cfg.UI.HighlightDuration = "500ms"
	assert.Zero(t, cfg.GetLLMTimeout())
	assert.Equal(t, 800*time.Millisecond, cfg.GetProgressInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.GetHighlightDuration())
}

func TestUIConfig_ResolveTheme(t *testing.T) {
	clearKeyEnv(t)

	assert.True(t, UIConfig{Theme: "auto"}.ResolveTheme(true))
	assert.False(t, UIConfig{Theme: "light"}.ResolveTheme(true))
	assert.True(t, UIConfig{Theme: "dark"}.ResolveTheme(false))

	t.Setenv("CTMA_DARK_MODE", "off")
	assert.False(t, UIConfig{Theme: "dark"}.ResolveTheme(true))
}

func TestLoggingConfig_Options(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json", File: "x.log", Categories: map[string]bool{"ui": false}}

	opts := lc.Options(false)
	assert.Equal(t, "debug", opts.Level)
	assert.Equal(t, "x.log", opts.File)
	assert.False(t, opts.Stderr)
	assert.False(t, lc.IsCategoryEnabled("ui"))
	assert.True(t, lc.IsCategoryEnabled("api"))
}
