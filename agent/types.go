/*
Package agent implements the tool-calling agent loop used by the research assistant.

The loop alternates between model steps (one language model call that may propose
tool calls or produce the final answer) and tool steps (the result of executing one
proposed call). Progress is exposed to callers as a lazily pulled sequence of
updates, so the caller decides when to stop consuming and the loop stops with it.
*/
package agent

import (
	"errors"

	"github.com/tmc/langchaingo/callbacks"
)

// ErrMaxIterations is returned when the model keeps proposing tool calls past the
// configured iteration cap without producing a final answer.
var ErrMaxIterations = errors.New("agent exceeded max iterations")

// ErrUnsupportedMode is returned when an Input asks for a stream mode the loop
// does not produce.
var ErrUnsupportedMode = errors.New("unsupported stream mode")

// StreamMode selects which shape of progress the loop reports.
type StreamMode string

const (
	// ModeUpdates reports one update per completed model or tool step.
	ModeUpdates StreamMode = "updates"
)

// Message roles accepted in Input.Messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single conversation turn handed to the loop.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Input is what a caller hands to Agent.Stream.
type Input struct {
	Messages []Message
	Mode     StreamMode

	// SystemPrompt overrides the agent-wide system prompt for this run only.
	SystemPrompt string

	// Callbacks overrides the agent-wide handler for this run only.
	Callbacks callbacks.Handler
}

// Update is one unit of progress reported by the loop. Consumers switch on the
// concrete type and are expected to ignore kinds they do not recognize.
type Update interface {
	UpdateKind() string
}

// ToolCall is a tool invocation proposed by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // serialized JSON arguments
}

// ModelStep is reported after every model call.
type ModelStep struct {
	Content   string
	ToolCalls []ToolCall
}

// UpdateKind implements Update.
func (ModelStep) UpdateKind() string { return "model_request" }

// ToolStep is reported after a proposed tool call has been executed.
type ToolStep struct {
	CallID  string
	Name    string
	Content string
}

// UpdateKind implements Update.
func (ToolStep) UpdateKind() string { return "tools" }
