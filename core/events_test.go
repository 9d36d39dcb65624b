package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeVariants(t *testing.T) {
	cases := map[string]struct {
		event StreamEvent
		want  string
	}{
		"reasoning": {ReasoningEvent("thinking"), `{"type":"reasoning","content":"thinking"}`},
		"response":  {ResponseEvent("Paris"), `{"type":"response","content":"Paris"}`},
		"error":     {ErrorEvent("Internal server error"), `{"type":"error","content":"Internal server error"}`},
		"tool call": {ToolCallEvent("web_search", `{"q":"x"}`, "done"), `{"type":"tool_call","tool":"web_search","input":"{\"q\":\"x\"}","output":"done"}`},
		"empty":     {ResponseEvent(""), `{"type":"response","content":""}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			data := Encode(tc.event)
			assert.JSONEq(t, tc.want, string(data))

			var decoded StreamEvent
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tc.event, decoded)
		})
	}
}

func TestEncodeKeepsSpecialCharacters(t *testing.T) {
	content := "line one\nline \"two\"\té東京"
	var decoded StreamEvent
	require.NoError(t, json.Unmarshal(Encode(ResponseEvent(content)), &decoded))
	assert.Equal(t, content, decoded.Content)
}

func TestEncodeOmitsForeignFields(t *testing.T) {
	var toolFields map[string]any
	require.NoError(t, json.Unmarshal(Encode(ToolCallEvent("t", "i", "o")), &toolFields))
	assert.Len(t, toolFields, 4)
	assert.NotContains(t, toolFields, "content")

	var reasoningFields map[string]any
	require.NoError(t, json.Unmarshal(Encode(ReasoningEvent("r")), &reasoningFields))
	assert.Equal(t, map[string]any{"type": "reasoning", "content": "r"}, reasoningFields)
	assert.NotContains(t, reasoningFields, "tool")
}

func TestEventWriterFraming(t *testing.T) {
	var ndjson bytes.Buffer
	w := NewEventWriter(&ndjson, FramingNDJSON)
	require.NoError(t, w.Write(ReasoningEvent("a")))
	require.NoError(t, w.Write(ResponseEvent("b")))
	assert.Equal(t, "{\"type\":\"reasoning\",\"content\":\"a\"}\n{\"type\":\"response\",\"content\":\"b\"}\n", ndjson.String())
	assert.Equal(t, 2, w.Count())

	var concat bytes.Buffer
	w = NewEventWriter(&concat, FramingConcat)
	require.NoError(t, w.Write(ReasoningEvent("a")))
	require.NoError(t, w.Write(ResponseEvent("b")))
	assert.Equal(t, `{"type":"reasoning","content":"a"}{"type":"response","content":"b"}`, concat.String())
}

func TestEventWriterDefaultsToNDJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewEventWriter(&buf, "")
	require.NoError(t, w.Write(ResponseEvent("x")))
	assert.Equal(t, byte('\n'), buf.Bytes()[buf.Len()-1])
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestEventWriterReportsTransportErrors(t *testing.T) {
	w := NewEventWriter(brokenWriter{}, FramingNDJSON)
	err := w.Write(ResponseEvent("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Zero(t, w.Count())
}
