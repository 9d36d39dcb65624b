package core

import (
	"context"
	"net/http"
	"time"

	"researcher/agent"
	localtools "researcher/tools"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/tools"
)

// Server wires the orchestrator, the tools and the execution registry to HTTP routes.
type Server struct {
	orchestrator  *Orchestrator
	toolsList     []tools.Tool
	cancelManager *CancelManager
	config        *Config
	logger        *logrus.Logger
}

// NewServer creates a new server instance with all dependencies initialized:
// the language model, the search backend, the tool set and the agent loop.
//
// Parameters:
//   - config: Loaded configuration
//   - logger: Application logger
//
// Returns:
//   - *Server: Server ready for RegisterRoutes
//   - error: Model or search backend initialization failure
func NewServer(config *Config, logger *logrus.Logger) (*Server, error) {
	logger.Info("Starting server initialization")

	llm, err := NewLLM(context.Background(), config, logger)
	if err != nil {
		return nil, err
	}

	backend, err := localtools.NewSearchBackend(config.SearchProvider, config.SerpAPIKey, config.SearchMaxResults)
	if err != nil {
		logger.WithError(err).WithField("searchProvider", config.SearchProvider).Error("Failed to initialize search backend")
		return nil, err
	}

	toolsList := []tools.Tool{
		localtools.NewWebSearchTool(backend),
		localtools.NewDateTimeTool(),
	}
	logger.WithField("toolsCount", len(toolsList)).Info("Tools initialized")

	researchAgent := agent.New(
		llm,
		agent.WithTools(toolsList...),
		agent.WithMaxIterations(config.MaxIterations),
		agent.WithCallbacksHandler(NewVerboseCallbackHandler(logger.WithField("component", "agent"), config)),
		agent.WithLogger(logger.WithField("component", "agent")),
	)

	server := NewServerWithStreamer(researchAgent, toolsList, config, logger)
	logger.Info("Server initialization completed successfully")
	return server, nil
}

// NewServerWithStreamer wires a server around an existing agent loop.
func NewServerWithStreamer(streamer Streamer, toolsList []tools.Tool, config *Config, logger *logrus.Logger) *Server {
	s := &Server{
		toolsList:     toolsList,
		cancelManager: NewCancelManager(),
		config:        config,
		logger:        logger,
	}
	s.orchestrator = NewOrchestrator(streamer, s.prepareInput, config, s.cancelManager)
	return s
}

// prepareInput renders a fresh system prompt so the date stays current.
func (s *Server) prepareInput(query string) (agent.Input, error) {
	prompt, err := CreateSystemPrompt(s.toolsList, time.Now())
	if err != nil {
		return agent.Input{}, err
	}
	input, err := defaultPrepare(query)
	if err != nil {
		return agent.Input{}, err
	}
	input.SystemPrompt = prompt
	return input, nil
}

func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *Server) handleChat(c echo.Context) error {
	requestLogger := s.logger.WithFields(logrus.Fields{
		"requestId": requestID(c),
		"endpoint":  "/chat",
		"method":    "POST",
		"clientIP":  c.RealIP(),
	})

	requestLogger.Info("Received chat request")

	var req ChatQuery
	if err := c.Bind(&req); err != nil {
		// An unreadable body carries no query; validation rejects it below.
		requestLogger.WithError(err).Warn("Failed to parse request body")
		req = ChatQuery{}
	}

	requestLogger.WithFields(logrus.Fields{
		"queryLength": len(req.Query),
		"query":       Truncate(req.Query, s.config.LogTruncateLength),
	}).Debug("Chat request details")

	handler := NewVerboseCallbackHandler(requestLogger.WithField("component", "agent"), s.config)
	return s.orchestrator.Serve(c, req, requestLogger, handler)
}

func (s *Server) handleStatus(c echo.Context) error {
	activeExecutions := s.cancelManager.GetActiveExecutions()

	toolNames := make([]string, 0, len(s.toolsList))
	for _, t := range s.toolsList {
		toolNames = append(toolNames, t.Name())
	}

	s.logger.WithFields(logrus.Fields{
		"endpoint":         "/status",
		"clientIP":         c.RealIP(),
		"activeExecutions": len(activeExecutions),
	}).Debug("Status check completed")

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"provider":         s.config.LLMProvider,
		"model":            s.config.Model(),
		"tools":            toolNames,
		"activeExecutions": activeExecutions,
		"executionCount":   len(activeExecutions),
	})
}

func (s *Server) handleStopExecution(c echo.Context) error {
	requestLogger := s.logger.WithFields(logrus.Fields{
		"endpoint": "/stop",
		"method":   "POST",
		"clientIP": c.RealIP(),
	})

	var req StopRequest
	if err := c.Bind(&req); err != nil {
		requestLogger.WithError(err).Error("Failed to parse stop request body")
		return c.JSON(http.StatusBadRequest, StopResponse{
			Success: false,
			Message: "Invalid request format",
		})
	}

	if req.ExecutionID == "" {
		requestLogger.Warn("Empty execution ID in stop request")
		return c.JSON(http.StatusBadRequest, StopResponse{
			Success: false,
			Message: "Execution ID is required",
		})
	}

	requestLogger = requestLogger.WithField("executionID", req.ExecutionID)

	if !s.cancelManager.CancelExecution(req.ExecutionID) {
		requestLogger.Warn("Execution not found or already completed")
		return c.JSON(http.StatusNotFound, StopResponse{
			Success: false,
			Message: "Execution not found or already completed",
		})
	}

	requestLogger.Info("Execution stopped successfully")
	return c.JSON(http.StatusOK, StopResponse{
		Success: true,
		Message: "Execution stopped successfully",
		Stopped: true,
	})
}

// Shutdown cancels every in-flight stream so their handlers can finish with an
// error event before the HTTP server drains.
func (s *Server) Shutdown() {
	if n := s.cancelManager.CancelAll(ErrShuttingDown); n > 0 {
		s.logger.WithField("cancelledExecutions", n).Warn("Cancelled in-flight streams for shutdown")
	}
}

// RegisterRoutes registers all HTTP routes for the server
func (s *Server) RegisterRoutes(e *echo.Echo) {
	s.logger.Info("Registering routes")

	e.POST("/chat", s.handleChat)
	e.POST("/stop", s.handleStopExecution)
	e.GET("/status", s.handleStatus)

	s.logger.Info("Routes registered successfully")
}
