/*
Package core provides configuration management and logging initialization
for the research assistant server.

This file handles:
- Loading configuration from environment variables (and an optional .env file)
- Structured logging setup with configurable levels
- Limits that bound every streamed request

Environment variables always win over defaults so the same binary can be
deployed anywhere without rebuilding.
*/
package core

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configurable values for the server.
type Config struct {
	// Server configuration
	Port            string        // HTTP server port number (default: "8080")
	ShutdownTimeout time.Duration // Grace period for in-flight streams on shutdown (default: 30s)

	// LLM provider configuration
	LLMProvider string // "gemini", "ollama" or "openai" (default: "gemini")

	GeminiAPIKey string // API key for Google Gemini (GOOGLE_API_KEY or GEMINI_API_KEY)
	GeminiModel  string // Gemini model name (default: "gemini-2.5-flash")

	OllamaEndpoint string // Base URL for the Ollama API (default: "http://localhost:11434")
	OllamaModel    string // Ollama model name (default: "qwen3")

	OpenAIAPIKey string // API key for OpenAI
	OpenAIModel  string // OpenAI model name (default: "gpt-4o-mini")

	// Web search configuration
	SearchProvider   string // "duckduckgo" or "serpapi" (default: "duckduckgo")
	SerpAPIKey       string // API key for SerpAPI
	SearchMaxResults int    // Maximum results returned per search (default: 5)

	// Agent and stream limits
	MaxIterations  int           // Maximum model calls per request (default: 10)
	MaxUpdates     int           // Maximum agent updates consumed per request (default: 50)
	RequestTimeout time.Duration // Wall-clock budget for one streamed request (default: 120s)
	PreviewLength  int           // Length of tool input previews in reasoning events (default: 120)
	StreamFraming  Framing       // "ndjson" or "concat" (default: "ndjson")

	// Logging configuration
	LogLevel          string // debug, info, warn, error (default: "info")
	LogTruncateLength int    // Maximum length of payloads written to logs (default: 500)

	// Performance tuning
	MaxConcurrentRequests int // Maximum number of concurrent streams (default: 100)
}

// DefaultConfig returns the configuration used when no environment overrides are set.
func DefaultConfig() *Config {
	return &Config{
		Port:            "8080",
		ShutdownTimeout: 30 * time.Second,

		LLMProvider:    "gemini",
		GeminiModel:    "gemini-2.5-flash",
		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "qwen3",
		OpenAIModel:    "gpt-4o-mini",

		SearchProvider:   "duckduckgo",
		SearchMaxResults: 5,

		MaxIterations:  10,
		MaxUpdates:     50,
		RequestTimeout: 120 * time.Second,
		PreviewLength:  120,
		StreamFraming:  FramingNDJSON,

		LogLevel:          "info",
		LogTruncateLength: 500,

		MaxConcurrentRequests: 100,
	}
}

// LoadConfig loads configuration from environment variables with sensible defaults.
// A .env file in the working directory, if present, is loaded first; variables
// already set in the process environment are not overridden by it.
//
// Environment Variables:
//   - PORT, SHUTDOWN_TIMEOUT (seconds)
//   - LLM_PROVIDER: "gemini", "ollama" or "openai"
//   - GOOGLE_API_KEY / GEMINI_API_KEY, GEMINI_MODEL
//   - OLLAMA_ENDPOINT, OLLAMA_MODEL
//   - OPENAI_API_KEY, OPENAI_MODEL
//   - SEARCH_PROVIDER, SERPAPI_API_KEY, SEARCH_MAX_RESULTS
//   - MAX_ITERATIONS, MAX_UPDATES, REQUEST_TIMEOUT (seconds), PREVIEW_LENGTH
//   - STREAM_FRAMING: "ndjson" or "concat"
//   - LOG_LEVEL, LOG_TRUNCATE_LENGTH
//   - MAX_CONCURRENT_REQUESTS
func LoadConfig() *Config {
	// Missing .env is the normal case in containers.
	_ = godotenv.Load()

	config := DefaultConfig()

	if port := os.Getenv("PORT"); port != "" {
		config.Port = port
	}
	if val, ok := positiveInt("SHUTDOWN_TIMEOUT"); ok {
		config.ShutdownTimeout = time.Duration(val) * time.Second
	}

	if provider := strings.ToLower(os.Getenv("LLM_PROVIDER")); provider != "" {
		switch provider {
		case "gemini", "ollama", "openai":
			config.LLMProvider = provider
		}
	}

	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.GeminiAPIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.GeminiAPIKey = apiKey
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		config.GeminiModel = model
	}

	if endpoint := os.Getenv("OLLAMA_ENDPOINT"); endpoint != "" {
		config.OllamaEndpoint = endpoint
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		config.OllamaModel = model
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAIAPIKey = apiKey
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.OpenAIModel = model
	}

	if provider := strings.ToLower(os.Getenv("SEARCH_PROVIDER")); provider == "duckduckgo" || provider == "serpapi" {
		config.SearchProvider = provider
	}
	if apiKey := os.Getenv("SERPAPI_API_KEY"); apiKey != "" {
		config.SerpAPIKey = apiKey
	}
	if val, ok := positiveInt("SEARCH_MAX_RESULTS"); ok {
		config.SearchMaxResults = val
	}

	if val, ok := positiveInt("MAX_ITERATIONS"); ok {
		config.MaxIterations = val
	}
	if val, ok := positiveInt("MAX_UPDATES"); ok {
		config.MaxUpdates = val
	}
	if val, ok := positiveInt("REQUEST_TIMEOUT"); ok {
		config.RequestTimeout = time.Duration(val) * time.Second
	}
	if val, ok := positiveInt("PREVIEW_LENGTH"); ok {
		config.PreviewLength = val
	}
	if framing := Framing(strings.ToLower(os.Getenv("STREAM_FRAMING"))); framing == FramingNDJSON || framing == FramingConcat {
		config.StreamFraming = framing
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
	if val, ok := positiveInt("LOG_TRUNCATE_LENGTH"); ok {
		config.LogTruncateLength = val
	}

	if val, ok := positiveInt("MAX_CONCURRENT_REQUESTS"); ok {
		config.MaxConcurrentRequests = val
	}

	// Fall back to a local model rather than failing every request without a key.
	if config.LLMProvider == "gemini" && config.GeminiAPIKey == "" {
		config.LLMProvider = "ollama"
	}
	if config.LLMProvider == "openai" && config.OpenAIAPIKey == "" {
		config.LLMProvider = "ollama"
	}

	return config
}

// positiveInt reads key as a positive integer; anything else is ignored.
func positiveInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return 0, false
	}
	return val, true
}

// Model returns the model name for the configured provider.
func (c *Config) Model() string {
	switch c.LLMProvider {
	case "gemini":
		return c.GeminiModel
	case "openai":
		return c.OpenAIModel
	default:
		return c.OllamaModel
	}
}

// InitializeLogger configures and returns a JSON logger based on the configuration.
func InitializeLogger(config *Config) *logrus.Logger {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	switch strings.ToLower(config.LogLevel) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.SetOutput(os.Stdout)

	// Package-level tool loggers hang off the standard logger.
	logrus.SetFormatter(logger.Formatter)
	logrus.SetLevel(logger.GetLevel())
	logrus.SetOutput(os.Stdout)

	logger.WithFields(logrus.Fields{
		"llmProvider":           config.LLMProvider,
		"model":                 config.Model(),
		"searchProvider":        config.SearchProvider,
		"maxIterations":         config.MaxIterations,
		"maxUpdates":            config.MaxUpdates,
		"requestTimeout":        config.RequestTimeout,
		"previewLength":         config.PreviewLength,
		"streamFraming":         config.StreamFraming,
		"logTruncateLength":     config.LogTruncateLength,
		"maxConcurrentRequests": config.MaxConcurrentRequests,
	}).Info("Configuration loaded")

	return logger
}
