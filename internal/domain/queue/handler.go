package queue

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careplus/careplus/internal/domain/clinic"
	"github.com/careplus/careplus/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/queue", h.Today)
	api.POST("/queue", h.Action)
	api.GET("/queue/history", h.History, auth.RequireRole(auth.RolePatient))
}

// Today handles GET /queue?clinic_id=. Clients poll this.
func (h *Handler) Today(c echo.Context) error {
	clinicID, err := uuid.Parse(c.QueryParam("clinic_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "clinic_id is required")
	}
	q, err := h.svc.TodayQueue(c.Request().Context(), clinicID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, q)
}

const (
	actionJoin              = "join"
	actionStartConsultation = "start-consultation"
	actionFinish            = "finish"
)

type actionBody struct {
	ClinicID uuid.UUID `json:"clinic_id"`
	Action   string    `json:"action"`
	ItemID   uuid.UUID `json:"item_id"`
}

// Action handles POST /queue, a single endpoint multiplexing the queue
// mutations: patients join, doctors drive the consultation flow.
func (h *Handler) Action(c echo.Context) error {
	var body actionBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if body.ClinicID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "clinic_id is required")
	}

	ident, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	switch body.Action {
	case actionJoin:
		if ident.Role != auth.RolePatient && ident.Role != auth.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "only patients can join the queue")
		}
		patientID, err := uuid.Parse(ident.UserID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
		}
		item, err := h.svc.Join(c.Request().Context(), body.ClinicID, patientID, ident.Name)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(http.StatusCreated, item)

	case actionStartConsultation:
		if ident.Role != auth.RoleDoctor && ident.Role != auth.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "only doctors can start a consultation")
		}
		if body.ItemID == uuid.Nil {
			return echo.NewHTTPError(http.StatusBadRequest, "item_id is required")
		}
		item, err := h.svc.StartConsultation(c.Request().Context(), body.ClinicID, body.ItemID)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(http.StatusOK, item)

	case actionFinish:
		if ident.Role != auth.RoleDoctor && ident.Role != auth.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "only doctors can finish a consultation")
		}
		if body.ItemID == uuid.Nil {
			return echo.NewHTTPError(http.StatusBadRequest, "item_id is required")
		}
		q, err := h.svc.Finish(c.Request().Context(), body.ClinicID, body.ItemID)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(http.StatusOK, q)

	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown action")
	}
}

// History handles GET /queue/history for the authenticated patient.
func (h *Handler) History(c echo.Context) error {
	ident, _ := auth.FromContext(c.Request().Context())
	patientID, err := uuid.Parse(ident.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}
	entries, err := h.svc.History(c.Request().Context(), patientID)
	if err != nil {
		return mapError(err)
	}
	if entries == nil {
		entries = []*HistoryEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, clinic.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "clinic not found")
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrQueueNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyInQueue):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
