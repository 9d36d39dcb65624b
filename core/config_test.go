package core

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func clearProviderKeys(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LLM_PROVIDER", "GOOGLE_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "SEARCH_PROVIDER", "STREAM_FRAMING"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearProviderKeys(t)
	config := LoadConfig()

	assert.Equal(t, "8080", config.Port)
	assert.Equal(t, "ollama", config.LLMProvider, "gemini without a key falls back to ollama")
	assert.Equal(t, "qwen3", config.Model())
	assert.Equal(t, "duckduckgo", config.SearchProvider)
	assert.Equal(t, FramingNDJSON, config.StreamFraming)
	assert.Equal(t, 50, config.MaxUpdates)
	assert.Equal(t, 120*time.Second, config.RequestTimeout)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearProviderKeys(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-test")
	t.Setenv("SEARCH_PROVIDER", "serpapi")
	t.Setenv("MAX_UPDATES", "7")
	t.Setenv("REQUEST_TIMEOUT", "5")
	t.Setenv("PREVIEW_LENGTH", "40")
	t.Setenv("STREAM_FRAMING", "concat")
	t.Setenv("MAX_CONCURRENT_REQUESTS", "3")

	config := LoadConfig()

	assert.Equal(t, "9090", config.Port)
	assert.Equal(t, "openai", config.LLMProvider)
	assert.Equal(t, "gpt-test", config.Model())
	assert.Equal(t, "serpapi", config.SearchProvider)
	assert.Equal(t, 7, config.MaxUpdates)
	assert.Equal(t, 5*time.Second, config.RequestTimeout)
	assert.Equal(t, 40, config.PreviewLength)
	assert.Equal(t, FramingConcat, config.StreamFraming)
	assert.Equal(t, 3, config.MaxConcurrentRequests)
}

func TestLoadConfigIgnoresInvalidValues(t *testing.T) {
	clearProviderKeys(t)
	t.Setenv("LLM_PROVIDER", "mystery")
	t.Setenv("MAX_UPDATES", "-1")
	t.Setenv("REQUEST_TIMEOUT", "soon")
	t.Setenv("STREAM_FRAMING", "sse")

	config := LoadConfig()

	assert.Equal(t, "ollama", config.LLMProvider)
	assert.Equal(t, 50, config.MaxUpdates)
	assert.Equal(t, 120*time.Second, config.RequestTimeout)
	assert.Equal(t, FramingNDJSON, config.StreamFraming)
}

func TestLoadConfigGeminiKeyAlias(t *testing.T) {
	clearProviderKeys(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	config := LoadConfig()

	assert.Equal(t, "gemini", config.LLMProvider)
	assert.Equal(t, "g-key", config.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-flash", config.Model())
}

func TestInitializeLoggerLevel(t *testing.T) {
	config := DefaultConfig()
	config.LogLevel = "WARN"
	assert.Equal(t, logrus.WarnLevel, InitializeLogger(config).GetLevel())

	config.LogLevel = "verbose"
	assert.Equal(t, logrus.InfoLevel, InitializeLogger(config).GetLevel())
}
