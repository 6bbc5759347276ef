package report

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/nutrisms/nutrisms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/reports", h.ListReports)
	api.GET("/reports/export", h.ExportReports)
	api.GET("/reports/:id", h.GetReport)
}

func (h *Handler) GetReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.GetReport(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListReports(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter, err := filterFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, total, err := h.svc.ListReports(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func filterFromQuery(c echo.Context) (ListFilter, error) {
	f := ListFilter{
		PatientSourceID: c.QueryParam("patient_id"),
		Status:          c.QueryParam("status"),
	}
	if raw := c.QueryParam("reporter_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, fmt.Errorf("invalid reporter_id")
		}
		f.ReporterID = &id
	}
	return f, nil
}

var exportHeader = []string{
	"id", "created_at", "patient_id", "reporter_id", "status",
	"height_cm", "weight_kg", "muac_cm", "oedema",
	"weight4age", "height4age", "weight4height",
}

// exportPageSize bounds each repository read while the export walks the
// full result set.
const exportPageSize = 500

// ExportReports streams the filtered report list as an xlsx workbook.
func (h *Handler) ExportReports(c echo.Context) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()

	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)

	sw, err := wb.NewStreamWriter(sheet)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	header := make([]interface{}, len(exportHeader))
	for i, name := range exportHeader {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	rowNum := 2
	for offset := 0; ; offset += exportPageSize {
		items, _, err := h.svc.ListReports(ctx, filter, exportPageSize, offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		for _, r := range items {
			cell, _ := excelize.CoordinatesToCellName(1, rowNum)
			if err := sw.SetRow(cell, exportRow(r)); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			rowNum++
		}
		if len(items) < exportPageSize {
			break
		}
	}

	if err := sw.Flush(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	filename := fmt.Sprintf("nutrition-reports-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)
	return wb.Write(c.Response())
}

func exportRow(r *Report) []interface{} {
	reporterID := ""
	if r.ReporterID != nil {
		reporterID = r.ReporterID.String()
	}
	return []interface{}{
		r.ID.String(),
		r.CreatedAt.Format(time.RFC3339),
		r.PatientSourceID,
		reporterID,
		r.Status,
		exportFloat(r.Height),
		exportFloat(r.Weight),
		exportFloat(r.MUAC),
		r.OedemaDisplay(),
		exportFloat(r.Weight4Age),
		exportFloat(r.Height4Age),
		exportFloat(r.Weight4Height),
	}
}

func exportFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
