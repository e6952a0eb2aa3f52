package report

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careplus/careplus/internal/domain/identity"
	"github.com/careplus/careplus/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctor/report", h.Generate, auth.RequireRole(auth.RoleDoctor))
}

// Generate handles GET /doctor/report for the authenticated doctor. Admin
// may pass ?doctor_id= to inspect any doctor.
func (h *Handler) Generate(c echo.Context) error {
	ident, _ := auth.FromContext(c.Request().Context())

	var doctorID uuid.UUID
	var err error
	if ident.Role == auth.RoleAdmin && c.QueryParam("doctor_id") != "" {
		doctorID, err = uuid.Parse(c.QueryParam("doctor_id"))
	} else {
		doctorID, err = uuid.Parse(ident.UserID)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}

	rep, err := h.svc.Generate(c.Request().Context(), doctorID)
	if err != nil {
		if errors.Is(err, identity.ErrDoctorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rep)
}
