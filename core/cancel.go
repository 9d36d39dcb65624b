/*
Package core provides execution cancellation management for the research assistant.

This file implements the CancelManager, which tracks every in-flight chat stream
under the execution ID returned in the X-Execution-ID header. A stream can be
stopped individually through POST /stop, and all streams are cancelled together
when the server shuts down.

Each cancellation carries a cause (ErrStopped, ErrShuttingDown) so the stream
can tell the client why it ended.
*/
package core

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is the cancellation cause recorded when a client stops a stream.
var ErrStopped = errors.New("execution stopped by request")

// ErrShuttingDown is the cancellation cause recorded for streams still running
// when the server shuts down.
var ErrShuttingDown = errors.New("server shutting down")

// CancelManager tracks running streams so they can be stopped by ID or all at
// once during shutdown. It is safe for concurrent use.
type CancelManager struct {
	executions map[string]context.CancelCauseFunc // Execution ID to the stream's cancel function
	mutex      sync.RWMutex                       // Guards executions
}

// NewCancelManager creates a cancel manager with an empty execution registry.
//
// Returns:
//   - *CancelManager: Initialized cancel manager ready for use
func NewCancelManager() *CancelManager {
	return &CancelManager{
		executions: make(map[string]context.CancelCauseFunc),
	}
}

// AddExecution registers cancel under executionID. It should be called as soon
// as a stream has its context, before any agent work starts.
//
// Parameters:
//   - executionID: Unique identifier for the stream
//   - cancel: Cancels the stream's context with a cause
func (cm *CancelManager) AddExecution(executionID string, cancel context.CancelCauseFunc) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.executions[executionID] = cancel
}

// RemoveExecution forgets executionID. Safe to call for unknown IDs.
func (cm *CancelManager) RemoveExecution(executionID string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	delete(cm.executions, executionID)
}

// CancelExecution cancels executionID with ErrStopped and forgets it.
//
// Parameters:
//   - executionID: Identifier from the stream's X-Execution-ID header
//
// Returns:
//   - bool: false when the execution is unknown or already finished
func (cm *CancelManager) CancelExecution(executionID string) bool {
	cm.mutex.Lock()
	cancel, exists := cm.executions[executionID]
	delete(cm.executions, executionID)
	cm.mutex.Unlock()

	if !exists {
		return false
	}
	cancel(ErrStopped)
	return true
}

// CancelAll cancels every tracked execution with cause and returns how many there were.
func (cm *CancelManager) CancelAll(cause error) int {
	cm.mutex.Lock()
	executions := cm.executions
	cm.executions = make(map[string]context.CancelCauseFunc)
	cm.mutex.Unlock()

	for _, cancel := range executions {
		cancel(cause)
	}
	return len(executions)
}

// GetActiveExecutions returns the IDs of all tracked executions.
func (cm *CancelManager) GetActiveExecutions() []string {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	executions := make([]string, 0, len(cm.executions))
	for id := range cm.executions {
		executions = append(executions, id)
	}
	return executions
}
