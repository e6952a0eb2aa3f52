package appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careplus/careplus/internal/domain/identity"
	"github.com/careplus/careplus/internal/platform/auth"
	"github.com/careplus/careplus/internal/platform/meeting"
	"github.com/careplus/careplus/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments/request", h.Request, auth.RequireRole(auth.RolePatient))
	api.GET("/appointments", h.List)
	api.POST("/appointments/:id/accept", h.Accept, auth.RequireRole(auth.RoleDoctor))
	api.POST("/appointments/:id/reject", h.Reject, auth.RequireRole(auth.RoleDoctor))
	api.POST("/appointments/:id/complete", h.Complete, auth.RequireRole(auth.RoleDoctor))
}

type requestBody struct {
	DoctorID  uuid.UUID `json:"doctor_id"`
	StartTime time.Time `json:"start_time"`
	Reason    string    `json:"reason"`
}

func (h *Handler) Request(c echo.Context) error {
	ident, _ := auth.FromContext(c.Request().Context())
	patientID, err := uuid.Parse(ident.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}

	var body requestBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if body.DoctorID == uuid.Nil || body.StartTime.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id and start_time are required")
	}

	a, err := h.svc.Request(c.Request().Context(), RequestInput{
		DoctorID:  body.DoctorID,
		PatientID: patientID,
		StartTime: body.StartTime,
		Reason:    body.Reason,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

// List handles GET /appointments. Doctors see their own schedule, patients
// their own requests.
func (h *Handler) List(c echo.Context) error {
	ident, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	userID, err := uuid.Parse(ident.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}

	pg := pagination.FromContext(c)
	var (
		items []*Appointment
		total int
	)
	switch ident.Role {
	case auth.RoleDoctor:
		items, total, err = h.svc.ListByDoctor(c.Request().Context(), userID, pg.Limit, pg.Offset)
	case auth.RolePatient:
		items, total, err = h.svc.ListByPatient(c.Request().Context(), userID, pg.Limit, pg.Offset)
	case auth.RoleAdmin:
		// Admin passes an explicit subject to inspect.
		if did := c.QueryParam("doctor_id"); did != "" {
			id, perr := uuid.Parse(did)
			if perr != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
			}
			items, total, err = h.svc.ListByDoctor(c.Request().Context(), id, pg.Limit, pg.Offset)
		} else if pid := c.QueryParam("patient_id"); pid != "" {
			id, perr := uuid.Parse(pid)
			if perr != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
			}
			items, total, err = h.svc.ListByPatient(c.Request().Context(), id, pg.Limit, pg.Offset)
		} else {
			return echo.NewHTTPError(http.StatusBadRequest, "doctor_id or patient_id is required")
		}
	default:
		return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
	}
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type acceptBody struct {
	MeetingLink string `json:"meeting_link"`
}

func (h *Handler) Accept(c echo.Context) error {
	id, actor, err := h.subject(c)
	if err != nil {
		return err
	}
	var body acceptBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := h.svc.Accept(c.Request().Context(), id, actor, body.MeetingLink)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type rejectBody struct {
	Reason string `json:"reason"`
}

func (h *Handler) Reject(c echo.Context) error {
	id, actor, err := h.subject(c)
	if err != nil {
		return err
	}
	var body rejectBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := h.svc.Reject(c.Request().Context(), id, actor, body.Reason)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Complete(c echo.Context) error {
	id, actor, err := h.subject(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Complete(c.Request().Context(), id, actor)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

// subject parses the appointment id and resolves the acting doctor. Admin
// acts without an ownership restriction.
func (h *Handler) subject(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ident, _ := auth.FromContext(c.Request().Context())
	if ident.Role == auth.RoleAdmin {
		return id, uuid.Nil, nil
	}
	actor, err := uuid.Parse(ident.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}
	return id, actor, nil
}

func mapError(err error) error {
	var transition *InvalidTransitionError
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, identity.ErrDoctorNotFound),
		errors.Is(err, identity.ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &transition),
		errors.Is(err, ErrInvalidSlot),
		errors.Is(err, ErrMissingReason),
		errors.Is(err, ErrMissingMeetingLink):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDuplicateRequest), errors.Is(err, ErrSlotConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, meeting.ErrProvisioningFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
