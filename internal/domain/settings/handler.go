package settings

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/medassist/medassist/internal/platform/db"
)

// TxBeginner starts a database transaction. *pgxpool.Pool satisfies it;
// tests pass nil to skip transactional wrapping.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Handler struct {
	svc *Service
	txb TxBeginner
}

func NewHandler(svc *Service, txb TxBeginner) *Handler {
	return &Handler{svc: svc, txb: txb}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/settings", h.GetAll)
	api.GET("/settings/:category", h.Get)
	api.PUT("/settings/:category", h.Update)
}

func (h *Handler) GetAll(c echo.Context) error {
	all, err := h.svc.GetAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, all)
}

func (h *Handler) Get(c echo.Context) error {
	setting, err := h.svc.Get(c.Request().Context(), c.Param("category"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, setting)
}

// Update merges the request body over the stored category value. The
// read-merge-write runs inside one transaction so concurrent updates to
// the same category cannot clobber each other.
func (h *Handler) Update(c echo.Context) error {
	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()

	var tx pgx.Tx
	if h.txb != nil {
		var err error
		tx, err = h.txb.Begin(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		defer tx.Rollback(ctx)
		ctx = db.WithTx(ctx, tx)
	}

	setting, err := h.svc.Update(ctx, c.Param("category"), updates)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if tx != nil {
		if err := tx.Commit(ctx); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, setting)
}
