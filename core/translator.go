package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"researcher/agent"

	"github.com/sirupsen/logrus"
)

const (
	unknownToolName   = "unknown"
	unknownToolResult = "unknown_tool"
	defaultPreviewLen = 120
)

// StepTranslator turns agent-loop updates into client events for one request.
type StepTranslator struct {
	query         string
	previewLength int
	pending       *PendingCalls
	responded     bool
	logger        *logrus.Entry
}

// NewStepTranslator creates the translator for one request.
//
// Parameters:
//   - query: The user's query, quoted back in "received results" reasoning
//   - previewLength: Maximum characters of tool input shown in reasoning (default 120 when <= 0)
//   - logger: Request-scoped logger
//
// Returns:
//   - *StepTranslator: Translator with an empty pending-call tracker
func NewStepTranslator(query string, previewLength int, logger *logrus.Entry) *StepTranslator {
	if previewLength <= 0 {
		previewLength = defaultPreviewLen
	}
	return &StepTranslator{
		query:         query,
		previewLength: previewLength,
		pending:       NewPendingCalls(),
		logger:        logger,
	}
}

// Translate returns the events for update, in emission order. Unrecognized
// update kinds produce no events.
func (t *StepTranslator) Translate(update agent.Update) []StreamEvent {
	switch u := update.(type) {
	case agent.ModelStep:
		return t.modelStep(u)
	case *agent.ModelStep:
		if u == nil {
			return nil
		}
		return t.modelStep(*u)
	case agent.ToolStep:
		return t.toolStep(u)
	case *agent.ToolStep:
		if u == nil {
			return nil
		}
		return t.toolStep(*u)
	default:
		if update != nil {
			t.logger.WithField("kind", update.UpdateKind()).Debug("Ignoring unrecognized agent update")
		}
		return nil
	}
}

// Responded reports whether the final answer has been emitted.
func (t *StepTranslator) Responded() bool {
	return t.responded
}

func (t *StepTranslator) modelStep(step agent.ModelStep) []StreamEvent {
	if len(step.ToolCalls) == 0 {
		if t.responded {
			t.logger.Warn("Ignoring second terminal model step")
			return nil
		}
		t.responded = true
		return []StreamEvent{ResponseEvent(step.Content)}
	}

	// Every call is recorded so its result can be matched later; only the
	// first is narrated.
	for _, call := range step.ToolCalls {
		t.pending.Set(call.ID, normalizeArguments(call.Arguments))
	}

	first := step.ToolCalls[0]
	name := first.Name
	if name == "" {
		name = unknownToolName
	}
	if len(step.ToolCalls) > 1 {
		t.logger.WithField("toolCalls", len(step.ToolCalls)).Debug("Model proposed several tool calls, narrating the first")
	}

	return []StreamEvent{ReasoningEvent(fmt.Sprintf(
		"I need more information to answer the question. I am going to search the web with the tool %s for up-to-date information using input: %s.",
		name, Truncate(normalizeArguments(first.Arguments), t.previewLength),
	))}
}

func (t *StepTranslator) toolStep(step agent.ToolStep) []StreamEvent {
	name := step.Name
	if name == "" {
		name = unknownToolResult
	}

	return []StreamEvent{
		ToolCallEvent(name, t.pending.TakeForDisplay(step.CallID), step.Content),
		ReasoningEvent(fmt.Sprintf(
			`Received results from "%s" tool and using them to craft a grounded answer on "%s"...`,
			name, t.query,
		)),
	}
}

// normalizeArguments renders tool arguments as compact JSON. Missing arguments
// become an empty object; non-JSON arguments are passed through unchanged.
func normalizeArguments(args string) string {
	if strings.TrimSpace(args) == "" {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(args)); err != nil {
		return args
	}
	return buf.String()
}

// Truncate shortens text to max characters, marking the cut with "...".
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
