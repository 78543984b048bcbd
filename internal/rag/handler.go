package rag

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medassist/medassist/internal/domain/queryhistory"
)

// Pinger reports database liveness for the health endpoint. Satisfied by
// pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	orch *Orchestrator
	db   Pinger
}

func NewHandler(orch *Orchestrator, db Pinger) *Handler {
	return &Handler{orch: orch, db: db}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/rag/query", h.Query)
	api.POST("/rag/stream", h.Stream)
	api.GET("/rag/status", h.Status)
	api.GET("/rag/history", h.History)
	api.GET("/rag/health", h.Health)
	api.POST("/rag/models/pull", h.PullModel)
}

type queryRequest struct {
	Query       string `json:"query"`
	ContextType string `json:"context_type"`
}

func (h *Handler) Query(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ContextType != "" && !ValidContextType(req.ContextType) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid context_type")
	}

	result, err := h.orch.Answer(c.Request().Context(), req.Query, req.ContextType)
	if err != nil {
		if errors.Is(err, ErrEmptyQuery) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":      result,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Stream proxies the backend's incremental chunks to the client as
// newline-delimited JSON, flushing after every frame.
func (h *Handler) Stream(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	stream, err := h.orch.Stream(c.Request().Context(), req.Query)
	if err != nil {
		if errors.Is(err, ErrEmptyQuery) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "generation service unavailable")
	}
	defer stream.Close()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "application/x-ndjson")
	resp.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(resp)
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// Headers are already out; the truncated stream is the only
			// signal left to send.
			return nil
		}
		if err := enc.Encode(chunk); err != nil {
			return nil
		}
		resp.Flush()
		if chunk.Done {
			return nil
		}
	}
}

func (h *Handler) Status(c echo.Context) error {
	st := h.orch.BackendStatus()
	status := "unavailable"
	if st.Ready {
		status = "ready"
	}
	models := st.AvailableModels
	if models == nil {
		models = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":           status,
		"queue_length":     st.QueueLength,
		"processing":       st.Processing,
		"available_models": models,
	})
}

type pullRequest struct {
	Name string `json:"name"`
}

// PullModel fetches a named model into the backend. Administrative; not
// on the query hot path.
func (h *Handler) PullModel(c echo.Context) error {
	var req pullRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	ok := h.orch.PullModel(c.Request().Context(), req.Name)
	status := http.StatusOK
	if !ok {
		status = http.StatusBadGateway
	}
	return c.JSON(status, map[string]interface{}{
		"model":   req.Name,
		"success": ok,
	})
}

func (h *Handler) History(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	var patientID *int64
	if raw := c.QueryParam("patient_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		patientID = &id
	}

	history, err := h.orch.History(c.Request().Context(), limit, patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if history == nil {
		history = []*queryhistory.Entry{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"history":   history,
		"count":     len(history),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) Health(c echo.Context) error {
	dbStatus := "connected"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			dbStatus = "unreachable"
		}
	}

	llmStatus := "unavailable"
	if h.orch.BackendStatus().Ready {
		llmStatus = "ready"
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"database":  dbStatus,
		"llama":     llmStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
