package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/spektr-org/iplstats/assistant"
	"github.com/spektr-org/iplstats/dataset"
)

// ============================================================================
// HTTP SERVER — Question answering over echo
// ============================================================================
//   POST /ask          {"question": "..."} → assistant.Answer
//   GET  /health       liveness + record count
//   GET  /suggestions  example questions
//   GET  /schema       schema + dataset summary
// ============================================================================

// Handler serves the HTTP API.
type Handler struct {
	assistant *assistant.Assistant
	summary   dataset.Summary
}

// NewHandler creates a Handler.
func NewHandler(a *assistant.Assistant, summary dataset.Summary) *Handler {
	return &Handler{assistant: a, summary: summary}
}

// RegisterRoutes mounts the API on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/ask", h.Ask)
	e.GET("/health", h.Health)
	e.GET("/suggestions", h.Suggestions)
	e.GET("/schema", h.Schema)
}

// New creates an echo instance with middleware and routes.
func New(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logrus.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.Round(time.Millisecond),
			}).Info("request")
			return nil
		},
	}))
	h.RegisterRoutes(e)
	return e
}

// Run serves on port until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, port int) error {
	errc := make(chan error, 1)
	go func() {
		logrus.WithField("port", port).Info("server listening")
		errc <- e.Start(fmt.Sprintf(":%d", port))
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logrus.Info("shutting down server")
		return e.Shutdown(shutdownCtx)
	}
}

// --- HANDLERS ---

type askRequest struct {
	Question string `json:"question"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Ask answers one question.
func (h *Handler) Ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "question is required"})
	}

	ans := h.assistant.Ask(c.Request().Context(), req.Question)
	return c.JSON(statusFor(ans), ans)
}

func statusFor(ans assistant.Answer) int {
	switch ans.Kind {
	case assistant.KindLLM:
		return http.StatusBadGateway
	case assistant.KindMalformed, assistant.KindQuery:
		return http.StatusUnprocessableEntity
	case assistant.KindConfig:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"records": h.summary.Records,
	})
}

// Suggestions returns example questions.
func (h *Handler) Suggestions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"examples": assistant.ExampleQuestions,
	})
}

// Schema returns the schema and dataset summary the assistant works with.
func (h *Handler) Schema(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"schema":  h.assistant.Schema(),
		"summary": h.summary,
	})
}
