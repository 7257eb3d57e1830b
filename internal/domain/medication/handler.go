package medication

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medhealth/medhealth/pkg/pagination"
)

// Default page sizes for the two log listings.
const (
	MedicationLogsLimit = 20
	AllLogsLimit        = 100
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/medications", h.ListMedications)
	api.POST("/medications", h.CreateMedication)
	api.GET("/medications/:id", h.GetMedication)
	api.DELETE("/medications/:id", h.DeleteMedication)
	api.GET("/medications/:id/logs", h.ListMedicationLogs)

	api.GET("/logs/medications", h.ListLogs)
	api.POST("/logs/medications", h.RecordLog)
}

func parseID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func httpError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Medication not found")
	}
	return err
}

// -- Medication Handlers --

func (h *Handler) ListMedications(c echo.Context) error {
	items, err := h.svc.ListMedications(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateMedication(c echo.Context) error {
	var req CreateMedicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m := &Medication{Name: req.Name, ScheduleTime: req.ScheduleTime}
	if err := h.svc.CreateMedication(c.Request().Context(), m); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":        "created",
		"name":          m.Name,
		"schedule_time": m.ScheduleTime,
	})
}

func (h *Handler) GetMedication(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	m, err := h.svc.GetMedication(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMedication(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteMedication(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "deleted",
		"id":     id,
	})
}

// -- Log Handlers --

func (h *Handler) ListMedicationLogs(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContextWithDefault(c, MedicationLogsLimit)
	stmts, err := h.svc.ListStatementsForMedication(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stmts)
}

func (h *Handler) ListLogs(c echo.Context) error {
	pg := pagination.FromContextWithDefault(c, AllLogsLimit)
	stmts, err := h.svc.ListStatements(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stmts)
}

func (h *Handler) RecordLog(c echo.Context) error {
	var req RecordLogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	stmt, err := h.svc.RecordLog(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, stmt)
}
