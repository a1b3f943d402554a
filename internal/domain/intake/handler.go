package intake

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/blobstore"
	"github.com/akshat933536/Block-e-Tahzeeb/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/intakes", h.Submit)
	api.GET("/intakes", h.ListIntakes)
	api.GET("/intakes/:id", h.GetIntake)
	api.GET("/intakes/:id/photo", h.GetPhoto)
}

type submitResponse struct {
	IntakeID       uuid.UUID `json:"intake_id"`
	Name           string    `json:"name"`
	Doctor         string    `json:"doctor"`
	Specialization string    `json:"specialization"`
	Guidance       string    `json:"guidance"`
}

// Submit accepts a multipart form with the demographics, the symptom text,
// and an optional photo file.
func (h *Handler) Submit(c echo.Context) error {
	age, _ := strconv.Atoi(c.FormValue("age"))
	req := SubmitRequest{
		Name:    c.FormValue("name"),
		Age:     age,
		Gender:  c.FormValue("gender"),
		Mobile:  c.FormValue("mobile"),
		Symptom: c.FormValue("symptom"),
	}

	var photo *Photo
	if fh, err := c.FormFile("photo"); err == nil && fh != nil {
		src, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "cannot read photo")
		}
		defer src.Close()
		photo = &Photo{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     src,
		}
	}

	in, err := h.svc.Submit(c.Request().Context(), req, photo)
	switch {
	case errors.Is(err, ErrInvalidIntake),
		errors.Is(err, blobstore.ErrInvalidContentType),
		errors.Is(err, blobstore.ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, submitResponse{
		IntakeID:       in.ID,
		Name:           in.Name,
		Doctor:         in.DoctorName,
		Specialization: string(in.Specialization),
		Guidance:       in.Guidance,
	})
}

func (h *Handler) GetIntake(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	in, err := h.svc.GetIntake(c.Request().Context(), id)
	if errors.Is(err, ErrIntakeNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "intake not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, in)
}

func (h *Handler) ListIntakes(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListIntakes(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetPhoto(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rc, meta, err := h.svc.OpenPhoto(c.Request().Context(), id)
	if errors.Is(err, ErrIntakeNotFound) || errors.Is(err, blobstore.ErrBlobNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "photo not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer rc.Close()
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}
