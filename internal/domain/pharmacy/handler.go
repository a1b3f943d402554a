package pharmacy

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/ai"
	"github.com/akshat933536/Block-e-Tahzeeb/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/scans", h.Analyze)
	api.GET("/scans", h.ListScans)
	api.GET("/scans/latest", h.Latest)
	api.GET("/scans/:id", h.GetScan)
	api.POST("/scans/:id/approve", h.Approve)
}

// Analyze accepts a multipart form with one or more files under "images".
func (h *Handler) Analyze(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	var images [][]byte
	for _, fh := range form.File["images"] {
		src, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "cannot read image")
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "cannot read image")
		}
		images = append(images, data)
	}

	scan, err := h.svc.Analyze(c.Request().Context(), images)
	var malformed *ai.MalformedExtractionError
	switch {
	case errors.Is(err, ErrNoImages):
		return echo.NewHTTPError(http.StatusBadRequest, "no images uploaded")
	case errors.As(err, &malformed):
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error": "invalid JSON from model",
			"raw":   malformed.Raw,
		})
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":    scan.Status,
		"scan_id":   scan.ID.Hex(),
		"inventory": scan.InventoryStatus,
	})
}

type approveRequest struct {
	Medicines []ApprovalItem `json:"medicines"`
}

func (h *Handler) Approve(c echo.Context) error {
	var req approveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	approved, err := h.svc.Approve(c.Request().Context(), c.Param("id"), req.Medicines)
	switch {
	case errors.Is(err, ErrNoMedicinesSelected):
		return echo.NewHTTPError(http.StatusBadRequest, "no medicines selected")
	case errors.Is(err, ErrScanNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "scan not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  StatusSentToPharmacy,
		"details": approved,
	})
}

func (h *Handler) GetScan(c echo.Context) error {
	scan, err := h.svc.GetScan(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrScanNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "scan not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, scan)
}

// Latest mirrors the dashboard poll: an empty collection yields an empty
// object, not an error.
func (h *Handler) Latest(c echo.Context) error {
	scan, err := h.svc.Latest(c.Request().Context())
	if errors.Is(err, ErrScanNotFound) {
		return c.JSON(http.StatusOK, map[string]interface{}{})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"scan_id":   scan.ID.Hex(),
		"status":    scan.Status,
		"inventory": scan.InventoryStatus,
	})
}

func (h *Handler) ListScans(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListScans(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
