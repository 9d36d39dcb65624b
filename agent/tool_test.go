package agent

import (
	"testing"

	localtools "researcher/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestToolInputPlainTool(t *testing.T) {
	plain := &echoTool{name: "datetime"}
	cases := map[string]string{
		`{"input":"UTC"}`:                "UTC",
		`{"input":null}`:                 "",
		`{"input":3}`:                    "3",
		`{}`:                             "",
		`  `:                             "",
		`{"timezone":"Africa/Lagos"}`:    "Africa/Lagos",
		`{"zone":"UTC","format":"long"}`: "",
		`"Europe/Paris"`:                 "Europe/Paris",
		`Asia/Tokyo`:                     "Asia/Tokyo",
	}
	for args, want := range cases {
		assert.Equal(t, want, toolInput(plain, args), args)
	}
}

func TestToolInputParameterizedTool(t *testing.T) {
	search := &paramTool{echoTool{name: "web_search"}}
	assert.Equal(t, `{"q":"x"}`, toolInput(search, `{"q":"x"}`))
	assert.Equal(t, `{}`, toolInput(search, `{}`))
}

func TestStreamDateTimeWithEmptyArguments(t *testing.T) {
	model := &scriptedModel{responses: []*llms.ContentResponse{
		toolResponse("c1", "datetime", `{}`),
		textResponse("It is morning."),
	}}
	a := New(model, WithTools(localtools.NewDateTimeTool()))

	updates, err := collect(t, a, userInput("what time is it"))
	require.NoError(t, err)
	require.Len(t, updates, 3)

	step, ok := updates[1].(ToolStep)
	require.True(t, ok)
	assert.NotEmpty(t, step.Content)
	assert.NotContains(t, step.Content, "Error")
}
