package reporter

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nutrisms/nutrisms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/reporters", h.ListReporters)
	api.POST("/reporters", h.CreateReporter)
}

func (h *Handler) CreateReporter(c echo.Context) error {
	var r Reporter
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateReporter(c.Request().Context(), &r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListReporters(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListReporters(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
