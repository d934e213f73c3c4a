package followup

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/postop/postop/internal/domain/intake"
	"github.com/postop/postop/internal/triage"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the submission endpoint and response lookups.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/responses", h.SubmitResponse)
	api.GET("/responses/:id", h.GetResponse)
}

// RegisterPublicRoutes mounts the form behind the follow-up link. Knowing the
// patient id is the only check performed.
func (h *Handler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/:id", h.GetForm)
	g.POST("/:id", h.SubmitForm)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, triage.ErrInvalidClinicalInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrResponseNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "response not found")
	case errors.Is(err, intake.ErrStoreWrite):
		return echo.NewHTTPError(http.StatusInternalServerError, "could not save response")
	}
	return intake.HTTPError(err)
}

func (h *Handler) SubmitResponse(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "patientId is required")
	}
	sub, err := h.svc.SubmitRaw(c.Request().Context(), req.PatientID, req.Answers)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":      "submitted",
		"response_id": sub.Response.ID,
	})
}

func (h *Handler) GetResponse(c echo.Context) error {
	id, err := intake.ParseID(c, "id")
	if err != nil {
		return err
	}
	sub, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) GetForm(c echo.Context) error {
	id, err := intake.ParseID(c, "id")
	if err != nil {
		return err
	}
	form, err := h.svc.Form(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *Handler) SubmitForm(c echo.Context) error {
	id, err := intake.ParseID(c, "id")
	if err != nil {
		return err
	}
	var body FormSubmission
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.svc.SubmitRaw(c.Request().Context(), id, body.Answers); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"status": "submitted"})
}
