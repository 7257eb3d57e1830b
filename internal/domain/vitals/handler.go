package vitals

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medhealth/medhealth/pkg/pagination"
)

// ListLimit is the default page size for vitals listings.
const ListLimit = 100

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/vitals", h.ListVitals)
	api.POST("/vitals", h.CreateVitals)
	api.GET("/logs/vitals", h.ListVitals)
}

func (h *Handler) ListVitals(c echo.Context) error {
	pg := pagination.FromContextWithDefault(c, ListLimit)
	obs, err := h.svc.ListObservations(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, obs)
}

func (h *Handler) CreateVitals(c echo.Context) error {
	var req CreateVitalsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v := &VitalsLog{Temperature: req.Temperature, HeartRate: req.HeartRate, Status: req.Status}
	if err := h.svc.Record(c.Request().Context(), v); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":      "created",
		"temperature": v.Temperature,
		"heart_rate":  v.HeartRate,
	})
}
