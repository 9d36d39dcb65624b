package core

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// VerboseCallbackHandler logs agent-loop activity for one request.
type VerboseCallbackHandler struct {
	callbacks.SimpleHandler
	requestLogger *logrus.Entry
	iteration     int
	config        *Config
}

// NewVerboseCallbackHandler creates a handler that logs one request's agent loop.
//
// Parameters:
//   - requestLogger: Logger carrying the request's fields
//   - config: Supplies LogTruncateLength for logged payloads
//
// Returns:
//   - *VerboseCallbackHandler: Handler with its iteration count at zero
func NewVerboseCallbackHandler(requestLogger *logrus.Entry, config *Config) *VerboseCallbackHandler {
	return &VerboseCallbackHandler{
		requestLogger: requestLogger,
		config:        config,
	}
}

// Iterations returns the number of model calls observed so far.
func (h *VerboseCallbackHandler) Iterations() int {
	return h.iteration
}

func (h *VerboseCallbackHandler) truncateForLog(text string) string {
	return Truncate(text, h.config.LogTruncateLength)
}

func (h *VerboseCallbackHandler) HandleLLMGenerateContentStart(ctx context.Context, ms []llms.MessageContent) {
	h.iteration++
	h.requestLogger.WithFields(logrus.Fields{
		"iteration":    h.iteration,
		"messageCount": len(ms),
	}).Info("LLM content generation started")
}

func (h *VerboseCallbackHandler) HandleLLMGenerateContentEnd(ctx context.Context, res *llms.ContentResponse) {
	fields := logrus.Fields{"iteration": h.iteration}
	if res != nil && len(res.Choices) > 0 && res.Choices[0] != nil {
		fields["response"] = h.truncateForLog(res.Choices[0].Content)
		fields["toolCalls"] = len(res.Choices[0].ToolCalls)
	}
	h.requestLogger.WithFields(fields).Info("LLM content generation completed")
}

func (h *VerboseCallbackHandler) HandleLLMError(ctx context.Context, err error) {
	h.requestLogger.WithFields(logrus.Fields{
		"iteration": h.iteration,
		"error":     err.Error(),
	}).Error("LLM call failed")
}

func (h *VerboseCallbackHandler) HandleToolStart(ctx context.Context, input string) {
	h.requestLogger.WithFields(logrus.Fields{
		"iteration": h.iteration,
		"input":     h.truncateForLog(input),
	}).Info("Tool execution started")
}

func (h *VerboseCallbackHandler) HandleToolEnd(ctx context.Context, output string) {
	h.requestLogger.WithFields(logrus.Fields{
		"iteration":    h.iteration,
		"output":       h.truncateForLog(output),
		"outputLength": len(output),
	}).Info("Tool execution completed")
}

func (h *VerboseCallbackHandler) HandleToolError(ctx context.Context, err error) {
	h.requestLogger.WithFields(logrus.Fields{
		"iteration": h.iteration,
		"error":     err.Error(),
	}).Error("Tool execution failed")
}

func (h *VerboseCallbackHandler) HandleAgentAction(ctx context.Context, action schema.AgentAction) {
	h.requestLogger.WithFields(logrus.Fields{
		"iteration": h.iteration,
		"action":    action.Tool,
		"toolId":    action.ToolID,
		"input":     h.truncateForLog(action.ToolInput),
	}).Info("Agent decided on action")
}

func (h *VerboseCallbackHandler) HandleAgentFinish(ctx context.Context, finish schema.AgentFinish) {
	output, _ := finish.ReturnValues["output"].(string)
	h.requestLogger.WithFields(logrus.Fields{
		"finalResponse":   h.truncateForLog(output),
		"totalIterations": h.iteration,
	}).Info("Agent finished successfully")
}

var _ callbacks.Handler = (*VerboseCallbackHandler)(nil)
