package queue

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/domain/registry"
	"github.com/akshat933536/Block-e-Tahzeeb/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/visits", h.Admit)
	api.GET("/visits", h.ListVisits)
	api.GET("/visits/:id", h.GetVisit)
	api.POST("/visits/:id/complete", h.CompleteVisit)
	api.GET("/queue/:specialization", h.QueueStatus)
}

type admitResponse struct {
	VisitID              uuid.UUID               `json:"visit_id"`
	Name                 string                  `json:"name"`
	Doctor               string                  `json:"doctor"`
	Specialization       registry.Specialization `json:"specialization"`
	Token                int                     `json:"token"`
	QueuePosition        int                     `json:"queue_position"`
	EstimatedWaitMinutes int                     `json:"estimated_wait_minutes"`
}

func (h *Handler) Admit(c echo.Context) error {
	var req AdmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.Admit(c.Request().Context(), req)
	switch {
	case errors.Is(err, ErrInvalidAdmission):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnknownSpecialization):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, registry.ErrNoDoctorForSpecialization):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, admitResponse{
		VisitID:              v.ID,
		Name:                 v.Name,
		Doctor:               v.DoctorName,
		Specialization:       v.Specialization,
		Token:                v.Token,
		QueuePosition:        v.WaitingNumber,
		EstimatedWaitMinutes: v.WaitingTime,
	})
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.svc.GetVisit(c.Request().Context(), id)
	if errors.Is(err, ErrVisitNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ListVisits(c echo.Context) error {
	pg := pagination.FromContext(c)
	var spec registry.Specialization
	if raw := c.QueryParam("specialization"); raw != "" {
		parsed, ok := registry.ParseSpecialization(raw)
		if !ok {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "unknown specialization")
		}
		spec = parsed
	}
	items, total, err := h.svc.ListVisits(c.Request().Context(), spec, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CompleteVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Complete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrVisitNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "visit not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) QueueStatus(c echo.Context) error {
	spec, ok := registry.ParseSpecialization(c.Param("specialization"))
	if !ok {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "unknown specialization")
	}
	waiting, err := h.svc.WaitingCount(c.Request().Context(), spec)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"specialization": spec,
		"waiting":        waiting,
	})
}
