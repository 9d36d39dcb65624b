/*
Package core defines the client-visible event stream of POST /chat.

Every accepted request produces an ordered sequence of StreamEvents:
a reasoning acknowledgement, then reasoning and tool_call events while the agent
works, and finally a single response event. Failures after streaming has started
are reported as an error event instead of an HTTP status.
*/
package core

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// EventType tags a StreamEvent.
type EventType string

const (
	EventReasoning EventType = "reasoning"
	EventToolCall  EventType = "tool_call"
	EventResponse  EventType = "response"
	EventError     EventType = "error"
)

// StreamEvent is one client-visible event. Reasoning, Response and Error events
// use Content; ToolCall events use Tool, Input and Output.
type StreamEvent struct {
	Type    EventType `json:"type"`
	Content string    `json:"content"`
	Tool    string    `json:"tool"`
	Input   string    `json:"input"`
	Output  string    `json:"output"`
}

// ReasoningEvent narrates what the assistant is doing.
func ReasoningEvent(content string) StreamEvent {
	return StreamEvent{Type: EventReasoning, Content: content}
}

// ToolCallEvent reports one completed tool invocation.
//
// Parameters:
//   - tool: Name of the tool that ran
//   - input: Serialized arguments the model supplied
//   - output: The tool's result as passed back to the model
func ToolCallEvent(tool, input, output string) StreamEvent {
	return StreamEvent{Type: EventToolCall, Tool: tool, Input: input, Output: output}
}

// ResponseEvent carries the final answer.
func ResponseEvent(content string) StreamEvent {
	return StreamEvent{Type: EventResponse, Content: content}
}

// ErrorEvent ends a stream that failed after its headers were sent.
func ErrorEvent(content string) StreamEvent {
	return StreamEvent{Type: EventError, Content: content}
}

type contentPayload struct {
	Type    EventType `json:"type"`
	Content string    `json:"content"`
}

type toolCallPayload struct {
	Type   EventType `json:"type"`
	Tool   string    `json:"tool"`
	Input  string    `json:"input"`
	Output string    `json:"output"`
}

// MarshalJSON writes only the fields that belong to the event's variant.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	if e.Type == EventToolCall {
		return json.Marshal(toolCallPayload{Type: e.Type, Tool: e.Tool, Input: e.Input, Output: e.Output})
	}
	return json.Marshal(contentPayload{Type: e.Type, Content: e.Content})
}

// Encode serializes a single event as one JSON object.
func Encode(e StreamEvent) []byte {
	data, err := json.Marshal(e)
	if err != nil {
		// Only strings are marshalled, so this is unreachable for well-formed events.
		panic(fmt.Sprintf("encode stream event: %v", err))
	}
	return data
}

// Framing selects how consecutive events are delimited on the wire.
type Framing string

const (
	// FramingNDJSON terminates every event with a newline.
	FramingNDJSON Framing = "ndjson"
	// FramingConcat writes objects back to back with no delimiter.
	FramingConcat Framing = "concat"
)

// EventWriter writes framed events to a response and flushes after each one.
type EventWriter struct {
	w       io.Writer
	framing Framing
	count   int
}

// NewEventWriter creates a writer over an HTTP response (or any io.Writer).
// Unknown framings fall back to FramingNDJSON.
//
// Parameters:
//   - w: Destination; flushed after each event when it implements http.Flusher
//   - framing: How consecutive events are delimited
//
// Returns:
//   - *EventWriter: Writer with a zero event count
func NewEventWriter(w io.Writer, framing Framing) *EventWriter {
	if framing != FramingConcat {
		framing = FramingNDJSON
	}
	return &EventWriter{w: w, framing: framing}
}

// Write sends e immediately. A non-nil error means the transport is gone.
func (ew *EventWriter) Write(e StreamEvent) error {
	data := Encode(e)
	if ew.framing == FramingNDJSON {
		data = append(data, '\n')
	}
	if _, err := ew.w.Write(data); err != nil {
		return fmt.Errorf("write %s event: %w", e.Type, err)
	}
	if f, ok := ew.w.(http.Flusher); ok {
		f.Flush()
	}
	ew.count++
	return nil
}

// Count returns the number of events written so far.
func (ew *EventWriter) Count() int {
	return ew.count
}
