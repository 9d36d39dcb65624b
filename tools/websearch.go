/*
Package tools provides the tools the research assistant may call.

Every tool implements the langchaingo tools.Tool interface. Tools that take
structured arguments also implement agent.Parameterized so the model is offered a
JSON schema and the tool receives the model's serialized arguments verbatim.
*/
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/tools"
	"github.com/tmc/langchaingo/tools/duckduckgo"
	"github.com/tmc/langchaingo/tools/serpapi"
)

// WebSearchToolName is the name the model uses to request a web search.
const WebSearchToolName = "web_search"

const searchUserAgent = "researcher/1.0 (+https://github.com/tmc/langchaingo)"

var websearchLogger = logrus.WithField("tool", WebSearchToolName)

// ErrEmptyQuery is returned when the model calls web_search without a query.
var ErrEmptyQuery = errors.New("web_search requires a non-empty query")

// WebSearchTool searches the web through a pluggable backend.
type WebSearchTool struct {
	backend tools.Tool
}

// NewWebSearchTool wraps backend, which receives the plain query string.
func NewWebSearchTool(backend tools.Tool) *WebSearchTool {
	websearchLogger.WithField("backend", backend.Name()).Debug("Initializing web search tool")
	return &WebSearchTool{backend: backend}
}

// NewSearchBackend builds the search backend named by provider.
//
// Supported providers are "duckduckgo", which needs no credentials, and "serpapi",
// which requires apiKey.
func NewSearchBackend(provider, apiKey string, maxResults int) (tools.Tool, error) {
	switch strings.ToLower(provider) {
	case "serpapi":
		if apiKey == "" {
			return nil, fmt.Errorf("serpapi search requires an API key. Set SERPAPI_API_KEY environment variable")
		}
		backend, err := serpapi.New(serpapi.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize serpapi search: %w", err)
		}
		return backend, nil
	case "", "duckduckgo":
		backend, err := duckduckgo.New(maxResults, searchUserAgent)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize duckduckgo search: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", provider)
	}
}

func (w *WebSearchTool) Name() string {
	return WebSearchToolName
}

func (w *WebSearchTool) Description() string {
	return "Search the web for up to date information. Use it for recent events, current stats, or anything you don't know the answer to."
}

// searchArgs is the argument object the model supplies.
type searchArgs struct {
	Query string `json:"query"`
}

// Parameters returns the JSON schema of searchArgs.
func (w *WebSearchTool) Parameters() map[string]any {
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "The search query",
			},
		},
		Required: []string{"query"},
	}

	// Providers expect a plain map, so round-trip through JSON.
	raw, err := json.Marshal(schema)
	if err != nil {
		websearchLogger.WithError(err).Error("Failed to marshal web search schema")
		return nil
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		websearchLogger.WithError(err).Error("Failed to decode web search schema")
		return nil
	}
	return params
}

// Call runs a search. input is the model's JSON arguments; a bare string is
// accepted as the query too.
func (w *WebSearchTool) Call(ctx context.Context, input string) (string, error) {
	toolLogger := websearchLogger.WithField("input", input)
	toolLogger.Info("Web search tool called")
	startTime := time.Now()

	query := parseQuery(input)
	if query == "" {
		toolLogger.Warn("Empty web search query provided")
		return "", ErrEmptyQuery
	}

	result, err := w.backend.Call(ctx, query)
	if err != nil {
		toolLogger.WithError(err).WithField("query", query).Error("Web search failed")
		return "", fmt.Errorf("web search failed: %w", err)
	}

	toolLogger.WithFields(logrus.Fields{
		"query":         query,
		"executionTime": time.Since(startTime),
		"outputLength":  len(result),
	}).Info("Web search completed")

	return result, nil
}

// parseQuery accepts {"query": ...}, the short {"q": ...} form some models emit,
// or a bare string.
func parseQuery(input string) string {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "{") {
		return input
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return ""
	}
	for _, key := range []string{"query", "q", "input"} {
		if s, ok := args[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

var _ tools.Tool = (*WebSearchTool)(nil)
