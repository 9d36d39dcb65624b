package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/tools"
)

const systemPromptTemplate = `Today is {{.today}}.
You are a helpful AI research assistant.

You have access to a "web_search" tool that can search the web for up to date information.
Use it to refine your answer or when the user asks about recent events, current stats, or anything you don't know the answer to.

Available tools:
{{.tool_descriptions}}`

// CreateSystemPrompt renders the system message for the given tools.
func CreateSystemPrompt(toolsList []tools.Tool, now time.Time) (string, error) {
	var toolDescriptions []string
	for _, tool := range toolsList {
		toolDescriptions = append(toolDescriptions, fmt.Sprintf("- %s: %s", tool.Name(), tool.Description()))
	}

	template := prompts.PromptTemplate{
		Template:       systemPromptTemplate,
		TemplateFormat: prompts.TemplateFormatGoTemplate,
		InputVariables: []string{"today"},
		PartialVariables: map[string]any{
			"tool_descriptions": strings.Join(toolDescriptions, "\n"),
		},
	}

	prompt, err := template.Format(map[string]any{
		"today": now.Format("Monday, 02 January 2006"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return prompt, nil
}
