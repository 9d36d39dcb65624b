package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewLLM builds the language model for the configured provider, wrapped so that
// answers never carry inline reasoning markup.
func NewLLM(ctx context.Context, config *Config, logger *logrus.Logger) (llms.Model, error) {
	var (
		llm llms.Model
		err error
	)

	providerLogger := logger.WithFields(logrus.Fields{
		"provider": config.LLMProvider,
		"model":    config.Model(),
	})

	switch config.LLMProvider {
	case "gemini":
		if config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key is required when using gemini provider. Set GOOGLE_API_KEY environment variable")
		}
		llm, err = googleai.New(
			ctx,
			googleai.WithAPIKey(config.GeminiAPIKey),
			googleai.WithDefaultModel(config.GeminiModel),
		)
	case "openai":
		if config.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai API key is required when using openai provider. Set OPENAI_API_KEY environment variable")
		}
		llm, err = openai.New(
			openai.WithToken(config.OpenAIAPIKey),
			openai.WithModel(config.OpenAIModel),
		)
	default:
		providerLogger = providerLogger.WithField("endpoint", config.OllamaEndpoint)
		llm, err = ollama.New(
			ollama.WithServerURL(config.OllamaEndpoint),
			ollama.WithModel(config.OllamaModel),
		)
	}
	if err != nil {
		providerLogger.WithError(err).Error("Failed to initialize LLM")
		return nil, fmt.Errorf("failed to initialize %s LLM: %w", config.LLMProvider, err)
	}

	providerLogger.Info("LLM initialized successfully")
	return NewCleaningLLMWrapper(llm, config, logger), nil
}

var (
	thinkBlockRegex   = regexp.MustCompile(`(?is)<think>.*?</think>`)
	openThinkRegex    = regexp.MustCompile(`(?is)<think>.*`)
	reasoningRegex    = regexp.MustCompile(`(?is)<reasoning>.*?</reasoning>`)
	multiNewlineRegex = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// CleaningLLMWrapper strips reasoning blocks that some local models (qwen3,
// deepseek-r1) inline in their answers. Tool calls pass through untouched.
type CleaningLLMWrapper struct {
	wrappedLLM llms.Model
	config     *Config
	logger     *logrus.Logger
}

// NewCleaningLLMWrapper wraps llm so every generated choice is passed through
// CleanContent.
func NewCleaningLLMWrapper(llm llms.Model, config *Config, logger *logrus.Logger) *CleaningLLMWrapper {
	return &CleaningLLMWrapper{
		wrappedLLM: llm,
		config:     config,
		logger:     logger,
	}
}

func (w *CleaningLLMWrapper) truncateForLog(text string) string {
	return Truncate(text, w.config.LogTruncateLength)
}

// CleanContent removes reasoning markup and collapses the blank lines it leaves.
func CleanContent(content string) string {
	cleaned := thinkBlockRegex.ReplaceAllString(content, "")
	cleaned = openThinkRegex.ReplaceAllString(cleaned, "")
	cleaned = reasoningRegex.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	return multiNewlineRegex.ReplaceAllString(cleaned, "\n\n")
}

// GenerateContent implements llms.Model.
func (w *CleaningLLMWrapper) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	response, err := w.wrappedLLM.GenerateContent(ctx, messages, options...)
	if err != nil {
		return response, err
	}

	if response != nil {
		for _, choice := range response.Choices {
			if choice == nil {
				continue
			}
			original := choice.Content
			choice.Content = CleanContent(original)

			if len(original) != len(choice.Content) {
				w.logger.WithFields(logrus.Fields{
					"originalLength":  len(original),
					"cleanedLength":   len(choice.Content),
					"originalPreview": w.truncateForLog(original),
				}).Debug("Cleaned LLM response content")
			}
		}
	}

	return response, nil
}

// Call implements llms.Model.
func (w *CleaningLLMWrapper) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, w, prompt, options...)
}

var _ llms.Model = (*CleaningLLMWrapper)(nil)
