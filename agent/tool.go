package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// Parameterized is implemented by tools that describe their own JSON arguments.
// Such tools receive the model's serialized arguments verbatim in Call.
type Parameterized interface {
	Parameters() map[string]any
}

// defaultParameters is advertised for plain langchaingo tools, which take a single
// free-form string.
func defaultParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input": map[string]any{
				"type":        "string",
				"description": "Input passed to the tool",
			},
		},
		"required": []string{"input"},
	}
}

// definitions converts the registered tools into the function declarations the
// model is offered on every call.
func definitions(toolsList []tools.Tool) []llms.Tool {
	defs := make([]llms.Tool, 0, len(toolsList))
	for _, t := range toolsList {
		params := defaultParameters()
		if p, ok := t.(Parameterized); ok {
			params = p.Parameters()
		}
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  params,
			},
		})
	}
	return defs
}

// toolInput turns the model's JSON arguments into the string a tool's Call expects.
// Plain tools get the "input" field, or the only field when the model named it
// differently. An object with nothing usable yields an empty input.
func toolInput(t tools.Tool, arguments string) string {
	if _, ok := t.(Parameterized); ok {
		return arguments
	}

	trimmed := strings.TrimSpace(arguments)
	var text string
	if err := json.Unmarshal([]byte(trimmed), &text); err == nil {
		return text
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return trimmed
	}
	if v, ok := args["input"]; ok {
		return argumentString(v)
	}
	if len(args) == 1 {
		for _, v := range args {
			return argumentString(v)
		}
	}
	return ""
}

func argumentString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
