package core

import (
	"testing"
	"time"

	localtools "researcher/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/tools"
)

func TestCreateSystemPrompt(t *testing.T) {
	now := time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)
	prompt, err := CreateSystemPrompt([]tools.Tool{localtools.NewDateTimeTool()}, now)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Today is Friday, 14 March 2025.")
	assert.Contains(t, prompt, "research assistant")
	assert.Contains(t, prompt, "- datetime: ")
}

func TestCreateSystemPromptWithoutTools(t *testing.T) {
	prompt, err := CreateSystemPrompt(nil, time.Now())
	require.NoError(t, err)
	assert.Contains(t, prompt, "Available tools:")
}
