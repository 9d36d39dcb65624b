/*
Package core implements the stream orchestration behind POST /chat.

A request moves through an explicit state machine:
  - validating: the query is checked; rejection is a plain 400
  - opened: streaming headers are committed and the acknowledgement is written
  - streaming: agent updates are translated and written as they arrive
  - finalizing/closed: the stream is summarized and closed exactly once

Whether the headers have been committed decides how a failure is reported: as a
500 JSON body before, or as an in-band error event after.
*/
package core

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"researcher/agent"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/callbacks"
	"golang.org/x/sync/semaphore"
)

// HeaderExecutionID carries the ID a client passes to POST /stop.
const HeaderExecutionID = "X-Execution-ID"

var (
	// ErrRequestTimeout is the cancellation cause when a stream exhausts its wall-clock budget.
	ErrRequestTimeout = errors.New("request timed out")
	// ErrUpdateBudgetExceeded is returned when the agent loop reports more updates than allowed.
	ErrUpdateBudgetExceeded = errors.New("agent update budget exceeded")
	// ErrNoFinalAnswer is returned when the agent loop ends without a final answer.
	ErrNoFinalAnswer = errors.New("agent finished without a final answer")
	// errTransportClosed is returned by emit once a write has failed.
	errTransportClosed = errors.New("transport closed")
)

// Streamer is the agent loop as seen by the orchestrator.
type Streamer interface {
	Stream(ctx context.Context, in agent.Input) iter.Seq2[agent.Update, error]
}

// PrepareFunc builds the agent input for a validated query.
type PrepareFunc func(query string) (agent.Input, error)

// streamState tracks one request's progress. Everything before stateOpened may
// still change the HTTP status; everything after can only append events.
type streamState int

const (
	stateValidating streamState = iota
	stateOpened
	stateStreaming
	stateFinalizing
	stateClosed
)

func (s streamState) String() string {
	switch s {
	case stateValidating:
		return "validating"
	case stateOpened:
		return "opened"
	case stateStreaming:
		return "streaming"
	case stateFinalizing:
		return "finalizing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Orchestrator runs POST /chat requests from validation to the last event.
type Orchestrator struct {
	streamer      Streamer
	prepare       PrepareFunc
	config        *Config
	cancelManager *CancelManager
	limiter       *semaphore.Weighted
}

// NewOrchestrator creates the orchestrator for POST /chat.
//
// Parameters:
//   - streamer: The agent loop
//   - prepare: Builds the agent input per request (nil uses the bare user message)
//   - config: Stream limits and framing; non-positive limits fall back to DefaultConfig
//   - cancelManager: Registry for /stop and shutdown (nil creates a private one)
//
// Returns:
//   - *Orchestrator: Ready to serve requests
func NewOrchestrator(streamer Streamer, prepare PrepareFunc, config *Config, cancelManager *CancelManager) *Orchestrator {
	if prepare == nil {
		prepare = defaultPrepare
	}
	if cancelManager == nil {
		cancelManager = NewCancelManager()
	}

	// Work on a copy so zero limits from a hand-built Config fall back to defaults.
	limits := *config
	defaults := DefaultConfig()
	if limits.MaxConcurrentRequests <= 0 {
		limits.MaxConcurrentRequests = defaults.MaxConcurrentRequests
	}
	if limits.MaxUpdates <= 0 {
		limits.MaxUpdates = defaults.MaxUpdates
	}
	if limits.RequestTimeout <= 0 {
		limits.RequestTimeout = defaults.RequestTimeout
	}
	if limits.PreviewLength <= 0 {
		limits.PreviewLength = defaults.PreviewLength
	}

	return &Orchestrator{
		streamer:      streamer,
		prepare:       prepare,
		config:        &limits,
		cancelManager: cancelManager,
		limiter:       semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
	}
}

func defaultPrepare(query string) (agent.Input, error) {
	return agent.Input{
		Messages: []agent.Message{{Role: agent.RoleUser, Content: query}},
		Mode:     agent.ModeUpdates,
	}, nil
}

// AcknowledgementMessage is the first event of every accepted stream.
func AcknowledgementMessage(query string) string {
	return fmt.Sprintf("Analyzing your query: %s and deciding whether I need to search the web for up-to-date information.", query)
}

// Serve handles one chat request from validation to the last event.
//
// Parameters:
//   - c: Echo context of the request; the response is written through it
//   - req: The decoded request body
//   - logger: Request-scoped logger
//   - handler: Receives this request's agent-loop callbacks (nil keeps the agent's own)
//
// Returns:
//   - error: Only non-nil when echo itself must produce the response
func (o *Orchestrator) Serve(c echo.Context, req ChatQuery, logger *logrus.Entry, handler callbacks.Handler) (err error) {
	s := newChatStream(c, o.config, req.Query, logger)
	defer s.finalize()

	if err := req.Validate(); err != nil {
		logger.Warn("Rejected chat request without query")
		return c.String(http.StatusBadRequest, "Query is required")
	}

	if !o.limiter.TryAcquire(1) {
		logger.Warn("Rejected chat request, too many concurrent streams")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Server is busy"})
	}
	defer o.limiter.Release(1)

	executionID := uuid.NewString()
	s.logger = s.logger.WithField("executionID", executionID)

	ctx, stop := context.WithCancelCause(c.Request().Context())
	ctx, cancelTimeout := context.WithTimeoutCause(ctx, o.config.RequestTimeout, ErrRequestTimeout)
	o.cancelManager.AddExecution(executionID, stop)
	defer func() {
		o.cancelManager.RemoveExecution(executionID)
		cancelTimeout()
		stop(nil)
	}()

	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Panic occurred during chat stream")
			err = s.fail(ctx, fmt.Errorf("execution failed due to internal error: %v", r))
		}
	}()

	input, err := o.prepare(req.Query)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("failed to prepare agent input: %w", err))
	}
	if handler != nil {
		input.Callbacks = handler
	}

	c.Response().Header().Set(HeaderExecutionID, executionID)
	if err := s.open(AcknowledgementMessage(req.Query)); err != nil {
		return s.fail(ctx, err)
	}

	if err := s.pump(ctx, o.streamer, input); err != nil {
		return s.fail(ctx, err)
	}
	return nil
}

// chatStream is the per-request state of one response.
type chatStream struct {
	c          echo.Context
	config     *Config
	state      streamState
	writer     *EventWriter
	translator *StepTranslator
	logger     *logrus.Entry
	broken     bool
	closes     int
	started    time.Time
}

func newChatStream(c echo.Context, config *Config, query string, logger *logrus.Entry) *chatStream {
	return &chatStream{
		c:          c,
		config:     config,
		state:      stateValidating,
		writer:     NewEventWriter(c.Response(), config.StreamFraming),
		translator: NewStepTranslator(query, config.PreviewLength, logger),
		logger:     logger,
		started:    time.Now(),
	}
}

// committed reports whether the status line and headers are on the wire.
func (s *chatStream) committed() bool {
	return s.state >= stateOpened || s.c.Response().Committed
}

// open commits the streaming headers and writes the acknowledgement.
func (s *chatStream) open(ack string) error {
	header := s.c.Response().Header()
	header.Set(echo.HeaderContentType, "application/json; charset=utf-8")
	header.Set("Transfer-Encoding", "chunked")
	header.Set(echo.HeaderCacheControl, "no-cache")
	s.c.Response().WriteHeader(http.StatusOK)
	s.state = stateOpened

	return s.emit(ReasoningEvent(ack))
}

// pump pulls updates from the agent loop and writes their events as they arrive.
func (s *chatStream) pump(ctx context.Context, streamer Streamer, input agent.Input) error {
	s.state = stateStreaming
	updates := 0

	for update, err := range streamer.Stream(ctx, input) {
		if err != nil {
			if s.translator.Responded() {
				s.logger.WithError(err).Debug("Agent loop failed after the answer was written")
				return nil
			}
			return err
		}

		updates++
		if updates > s.config.MaxUpdates {
			return fmt.Errorf("%w (%d)", ErrUpdateBudgetExceeded, s.config.MaxUpdates)
		}

		for _, event := range s.translator.Translate(update) {
			if err := s.emit(event); err != nil {
				return err
			}
		}
	}

	// A cancellation that lands after the answer was written does not taint it.
	if s.translator.Responded() {
		return nil
	}
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return ErrNoFinalAnswer
}

func (s *chatStream) emit(event StreamEvent) error {
	if s.broken {
		return errTransportClosed
	}
	if err := s.writer.Write(event); err != nil {
		s.broken = true
		return err
	}
	return nil
}

// fail reports err in whichever shape the transport still allows.
func (s *chatStream) fail(ctx context.Context, err error) error {
	cause := err
	if ctx.Err() != nil {
		cause = context.Cause(ctx)
	}

	failLogger := s.logger.WithError(err).WithFields(logrus.Fields{
		"state": s.state.String(),
		"cause": cause.Error(),
	})

	if !s.committed() {
		failLogger.Error("Chat request failed before streaming started")
		return s.c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if s.broken || s.c.Request().Context().Err() != nil {
		failLogger.Warn("Client went away, abandoning stream")
		return nil
	}

	failLogger.Error("Chat stream failed after streaming started")
	if emitErr := s.emit(ErrorEvent(userFacingError(cause))); emitErr != nil {
		s.logger.WithError(emitErr).Warn("Failed to write error event")
	}
	return nil
}

// finalize runs exactly once per request, whichever path ended it.
func (s *chatStream) finalize() {
	if s.state == stateClosed {
		return
	}
	wasCommitted := s.committed()
	s.state = stateFinalizing
	s.closes++

	s.logger.WithFields(logrus.Fields{
		"events":        s.writer.Count(),
		"streamed":      wasCommitted,
		"responded":     s.translator.Responded(),
		"transportLost": s.broken,
		"executionTime": time.Since(s.started),
	}).Info("Chat stream finished")

	s.state = stateClosed
}

func userFacingError(cause error) string {
	switch {
	case errors.Is(cause, ErrRequestTimeout), errors.Is(cause, context.DeadlineExceeded):
		return "Request timed out"
	case errors.Is(cause, ErrStopped):
		return "Request cancelled"
	case errors.Is(cause, ErrShuttingDown):
		return "Server is shutting down"
	default:
		return "Internal server error"
	}
}
