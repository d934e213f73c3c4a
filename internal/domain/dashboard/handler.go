package dashboard

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/postop/postop/internal/domain/intake"
	"github.com/postop/postop/internal/triage"
	"github.com/postop/postop/pkg/pagination"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.GetDashboard)
	api.GET("/dashboard/export.xlsx", h.ExportDashboard)
	api.DELETE("/patients", h.DeletePatients)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrConfirmationRequired):
		return echo.NewHTTPError(http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, ErrNoPatientsSelected):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, intake.ErrStoreWrite):
		return echo.NewHTTPError(http.StatusInternalServerError, "could not delete patients")
	}
	return intake.HTTPError(err)
}

func levelParam(c echo.Context) (*triage.Level, error) {
	raw := c.QueryParam("level")
	if raw == "" {
		return nil, nil
	}
	level, err := triage.ParseLevel(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return &level, nil
}

func (h *Handler) GetDashboard(c echo.Context) error {
	level, err := levelParam(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	page, err := h.svc.Page(c.Request().Context(), Query{
		Limit:      pg.Limit,
		Offset:     pg.Offset,
		Level:      level,
		BySeverity: c.QueryParam("sort") == "severity",
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) ExportDashboard(c echo.Context) error {
	level, err := levelParam(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := h.svc.Export(c.Request().Context(), &buf, level); err != nil {
		return httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="followup-dashboard.xlsx"`)
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

func (h *Handler) DeletePatients(c echo.Context) error {
	var req DeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.DeletePatients(c.Request().Context(), req.IDs, req.Confirm)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}
