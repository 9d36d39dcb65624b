/*
Package core contains the request types, the client-visible event stream and the
HTTP server of the research assistant.

Key type categories:
- Chat API input (ChatQuery)
- Streamed events (StreamEvent, see events.go)
- Execution control (StopRequest, StopResponse)
*/
package core

import (
	"errors"
	"strings"
)

// ErrQueryRequired is returned when a chat request carries no usable query.
var ErrQueryRequired = errors.New("query is required")

// ChatQuery is the body of POST /chat.
type ChatQuery struct {
	Query string `json:"query"`
}

// Validate rejects queries that are empty after trimming whitespace.
func (q ChatQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return ErrQueryRequired
	}
	return nil
}

// StopRequest asks the server to cancel an in-flight stream.
type StopRequest struct {
	ExecutionID string `json:"executionId"` // Value of the X-Execution-ID header of the stream
}

// StopResponse reports the outcome of a stop request.
type StopResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Stopped bool   `json:"stopped"`
}
