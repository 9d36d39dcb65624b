package agent

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/tools"
)

const defaultMaxIterations = 10

// Agent runs a model with a set of tools until the model stops proposing calls.
// An Agent holds no per-run state and may be shared by concurrent requests.
type Agent struct {
	model         llms.Model
	tools         []tools.Tool
	byName        map[string]tools.Tool
	definitions   []llms.Tool
	systemPrompt  string
	maxIterations int
	handler       callbacks.Handler
	logger        *logrus.Entry
}

// Option configures an Agent.
type Option func(*Agent)

// WithTools registers the tools offered to the model.
func WithTools(toolsList ...tools.Tool) Option {
	return func(a *Agent) {
		a.tools = append(a.tools, toolsList...)
	}
}

// WithSystemPrompt sets the system message prepended to every run.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithMaxIterations caps the number of model calls in a single run.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithCallbacksHandler sets the default handler notified of model and tool activity.
func WithCallbacksHandler(h callbacks.Handler) Option {
	return func(a *Agent) {
		a.handler = h
	}
}

// WithLogger sets the logger used for loop diagnostics.
func WithLogger(logger *logrus.Entry) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// New creates an agent around model.
func New(model llms.Model, opts ...Option) *Agent {
	a := &Agent{
		model:         model,
		maxIterations: defaultMaxIterations,
		handler:       callbacks.SimpleHandler{},
		logger:        logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.byName = make(map[string]tools.Tool, len(a.tools))
	for _, t := range a.tools {
		a.byName[t.Name()] = t
	}
	a.definitions = definitions(a.tools)
	return a
}

// Tools returns the tools offered to the model.
func (a *Agent) Tools() []tools.Tool {
	return a.tools
}

// Stream runs the loop for in and reports progress as it happens. The sequence
// ends after the terminal model step, after the first error, or as soon as the
// consumer stops ranging over it. Cancelling ctx aborts any in-flight model or
// tool call.
func (a *Agent) Stream(ctx context.Context, in Input) iter.Seq2[Update, error] {
	return func(yield func(Update, error) bool) {
		if in.Mode != "" && in.Mode != ModeUpdates {
			yield(nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, in.Mode))
			return
		}

		handler := a.handler
		if in.Callbacks != nil {
			handler = in.Callbacks
		}

		messages := a.initialMessages(in)

		for iteration := 1; iteration <= a.maxIterations; iteration++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			handler.HandleLLMGenerateContentStart(ctx, messages)
			callOpts := []llms.CallOption{}
			if len(a.definitions) > 0 {
				callOpts = append(callOpts, llms.WithTools(a.definitions))
			}
			resp, err := a.model.GenerateContent(ctx, messages, callOpts...)
			if err != nil {
				handler.HandleLLMError(ctx, err)
				yield(nil, fmt.Errorf("model call failed: %w", err))
				return
			}
			handler.HandleLLMGenerateContentEnd(ctx, resp)

			if resp == nil || len(resp.Choices) == 0 {
				yield(nil, fmt.Errorf("model returned no choices"))
				return
			}
			choice := resp.Choices[0]

			// Some providers (googleai) leave call IDs empty; results are matched by ID.
			calls := make([]llms.ToolCall, len(choice.ToolCalls))
			step := ModelStep{Content: choice.Content}
			for i, tc := range choice.ToolCalls {
				if tc.ID == "" {
					tc.ID = fmt.Sprintf("call_%d_%d", iteration, i+1)
				}
				calls[i] = tc
				step.ToolCalls = append(step.ToolCalls, convertToolCall(tc))
			}

			a.logger.WithFields(logrus.Fields{
				"iteration":     iteration,
				"toolCalls":     len(step.ToolCalls),
				"contentLength": len(step.Content),
			}).Debug("Model step completed")

			if len(step.ToolCalls) == 0 {
				handler.HandleAgentFinish(ctx, schema.AgentFinish{
					ReturnValues: map[string]any{"output": step.Content},
					Log:          step.Content,
				})
				yield(step, nil)
				return
			}

			if !yield(step, nil) {
				return
			}

			assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if choice.Content != "" {
				assistant.Parts = append(assistant.Parts, llms.TextContent{Text: choice.Content})
			}
			for _, tc := range calls {
				assistant.Parts = append(assistant.Parts, tc)
			}
			messages = append(messages, assistant)

			for _, call := range step.ToolCalls {
				handler.HandleAgentAction(ctx, schema.AgentAction{
					Tool:      call.Name,
					ToolInput: call.Arguments,
					ToolID:    call.ID,
				})

				output := a.runTool(ctx, handler, call)
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return
				}

				messages = append(messages, llms.MessageContent{
					Role: llms.ChatMessageTypeTool,
					Parts: []llms.ContentPart{llms.ToolCallResponse{
						ToolCallID: call.ID,
						Name:       call.Name,
						Content:    output,
					}},
				})

				if !yield(ToolStep{CallID: call.ID, Name: call.Name, Content: output}, nil) {
					return
				}
			}
		}

		yield(nil, fmt.Errorf("%w (%d)", ErrMaxIterations, a.maxIterations))
	}
}

func (a *Agent) initialMessages(in Input) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(in.Messages)+1)
	systemPrompt := a.systemPrompt
	if in.SystemPrompt != "" {
		systemPrompt = in.SystemPrompt
	}
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	for _, m := range in.Messages {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case RoleAssistant:
			role = llms.ChatMessageTypeAI
		case RoleSystem:
			role = llms.ChatMessageTypeSystem
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}
	return messages
}

// runTool executes one call. Tool failures are reported back to the model as the
// tool's output so it can recover or explain the failure.
func (a *Agent) runTool(ctx context.Context, handler callbacks.Handler, call ToolCall) string {
	toolLogger := a.logger.WithFields(logrus.Fields{
		"tool":   call.Name,
		"callId": call.ID,
	})

	t, ok := a.byName[call.Name]
	if !ok {
		toolLogger.Warn("Model requested unknown tool")
		return fmt.Sprintf("Error: tool %q is not available", call.Name)
	}

	input := toolInput(t, call.Arguments)
	handler.HandleToolStart(ctx, input)
	startTime := time.Now()

	output, err := t.Call(ctx, input)
	if err != nil {
		handler.HandleToolError(ctx, err)
		toolLogger.WithError(err).Error("Tool execution failed")
		return fmt.Sprintf("Error: %v", err)
	}

	handler.HandleToolEnd(ctx, output)
	toolLogger.WithFields(logrus.Fields{
		"executionTime": time.Since(startTime),
		"outputLength":  len(output),
	}).Debug("Tool execution completed")
	return output
}

func convertToolCall(tc llms.ToolCall) ToolCall {
	call := ToolCall{ID: tc.ID}
	if tc.FunctionCall != nil {
		call.Name = tc.FunctionCall.Name
		call.Arguments = tc.FunctionCall.Arguments
	}
	return call
}
