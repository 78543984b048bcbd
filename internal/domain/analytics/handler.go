package analytics

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medassist/medassist/internal/llm"
)

const (
	topListLimit = 10
	trendDays    = 30
)

// BackendStatus reports generation backend readiness for the overview.
type BackendStatus interface {
	Status() llm.Status
}

type Handler struct {
	repo    Repository
	backend BackendStatus
}

func NewHandler(repo Repository, backend BackendStatus) *Handler {
	return &Handler{repo: repo, backend: backend}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/analytics/overview", h.Overview)
	api.GET("/analytics/ai-performance", h.AIPerformance)
	api.GET("/analytics/patient-outcomes", h.PatientOutcomes)
}

func (h *Handler) Overview(c echo.Context) error {
	ctx := c.Request().Context()

	patients, err := h.repo.PatientStats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	queries, err := h.repo.QueryStats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	payments, err := h.repo.PaymentStats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var modelStatus interface{}
	if h.backend != nil {
		st := h.backend.Status()
		modelStatus = map[string]interface{}{
			"ready":        st.Ready,
			"queue_length": st.QueueLength,
			"processing":   st.Processing,
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"patients": patients,
		"ai": map[string]interface{}{
			"total_queries":  queries.Total,
			"recent_queries": queries.Recent,
			"model_status":   modelStatus,
		},
		"payments":  payments,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) AIPerformance(c echo.Context) error {
	ctx := c.Request().Context()

	queries, err := h.repo.QueryStats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	trend, err := h.repo.QueryTrend(ctx, trendDays)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if trend == nil {
		trend = []DailyCount{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"total_queries":          queries.Total,
		"avg_confidence":         queries.AvgConfidence,
		"avg_processing_time_ms": queries.AvgProcessingTimeMs,
		"avg_tokens_used":        queries.AvgTokensUsed,
		"query_types":            queries.ByType,
		"trend_data":             trend,
		"timestamp":              time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) PatientOutcomes(c echo.Context) error {
	ctx := c.Request().Context()

	patients, err := h.repo.PatientStats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	ageGroups, err := h.repo.AgeGroups(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	conditions, err := h.repo.TopConditions(ctx, topListLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	medications, err := h.repo.TopMedications(ctx, topListLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if conditions == nil {
		conditions = []NameCount{}
	}
	if medications == nil {
		medications = []NameCount{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"total_patients":      patients.Total,
		"age_groups":          ageGroups,
		"top_conditions":      conditions,
		"top_medications":     medications,
		"gender_distribution": patients.GenderDistribution,
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
	})
}
