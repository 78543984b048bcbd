package upload

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medassist/medassist/pkg/pagination"
)

const maxFilesPerRequest = 10

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/uploads/:category", h.Upload)
	api.GET("/uploads", h.List)
	api.DELETE("/uploads/:id", h.Delete)
}

func (h *Handler) Upload(c echo.Context) error {
	category := c.Param("category")
	if !ValidCategory(category) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown upload category: %s", category))
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files uploaded")
	}
	if len(files) > maxFilesPerRequest {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("at most %d files per upload", maxFilesPerRequest))
	}

	stored := make([]*Upload, 0, len(files))
	for _, fh := range files {
		u, err := h.svc.Store(c.Request().Context(), category, fh)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		stored = append(stored, u)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": fmt.Sprintf("%d file(s) uploaded successfully", len(stored)),
		"files":   stored,
	})
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "upload not found")
	}
	return c.NoContent(http.StatusNoContent)
}
