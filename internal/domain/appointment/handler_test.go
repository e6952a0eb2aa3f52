package appointment

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careplus/careplus/internal/platform/auth"
	"github.com/careplus/careplus/internal/platform/meeting"
)

func handlerFixture(t *testing.T) (*Handler, *fixture) {
	f := newFixture(t, nil)
	return NewHandler(f.svc), f
}

func doRequest(h *Handler, method, target string, body string, ident auth.Identity, params ...string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithIdentity(req.Context(), ident))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}

	var err error
	switch {
	case strings.HasSuffix(target, "/request"):
		err = h.Request(c)
	case strings.Contains(target, "/accept"):
		err = h.Accept(c)
	case strings.Contains(target, "/reject"):
		err = h.Reject(c)
	case strings.Contains(target, "/complete"):
		err = h.Complete(c)
	default:
		err = h.List(c)
	}
	return rec, err
}

func TestRequestHandler_Created(t *testing.T) {
	h, f := handlerFixture(t)

	body := fmt.Sprintf(`{"doctor_id":%q,"start_time":%q,"reason":"fever"}`,
		f.doctorID, f.now.Add(time.Hour).Format(time.RFC3339))
	ident := auth.Identity{UserID: f.patientID.String(), Role: auth.RolePatient}

	rec, err := doRequest(h, http.MethodPost, "/appointments/request", body, ident)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var got Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Status != StatusRequested {
		t.Errorf("expected requested, got %s", got.Status)
	}
}

func TestRequestHandler_MissingFields(t *testing.T) {
	h, f := handlerFixture(t)
	ident := auth.Identity{UserID: f.patientID.String(), Role: auth.RolePatient}

	_, err := doRequest(h, http.MethodPost, "/appointments/request", `{}`, ident)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestRequestHandler_TooSoonIs400(t *testing.T) {
	h, f := handlerFixture(t)

	body := fmt.Sprintf(`{"doctor_id":%q,"start_time":%q}`,
		f.doctorID, f.now.Add(5*time.Minute).Format(time.RFC3339))
	ident := auth.Identity{UserID: f.patientID.String(), Role: auth.RolePatient}

	_, err := doRequest(h, http.MethodPost, "/appointments/request", body, ident)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestRequestHandler_DuplicateIs409(t *testing.T) {
	h, f := handlerFixture(t)
	start := f.now.Add(time.Hour)
	f.request(t, start)

	body := fmt.Sprintf(`{"doctor_id":%q,"start_time":%q}`, f.doctorID, start.Format(time.RFC3339))
	ident := auth.Identity{UserID: f.patientID.String(), Role: auth.RolePatient}

	_, err := doRequest(h, http.MethodPost, "/appointments/request", body, ident)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestRequestHandler_UnknownDoctorIs404(t *testing.T) {
	h, f := handlerFixture(t)

	body := fmt.Sprintf(`{"doctor_id":%q,"start_time":%q}`,
		uuid.New(), f.now.Add(time.Hour).Format(time.RFC3339))
	ident := auth.Identity{UserID: f.patientID.String(), Role: auth.RolePatient}

	_, err := doRequest(h, http.MethodPost, "/appointments/request", body, ident)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestAcceptHandler_OK(t *testing.T) {
	h, f := handlerFixture(t)
	a := f.request(t, f.now.Add(time.Hour))
	ident := auth.Identity{UserID: f.doctorID.String(), Role: auth.RoleDoctor}

	rec, err := doRequest(h, http.MethodPost, "/appointments/x/accept",
		`{"meeting_link":"https://meet/x"}`, ident, "id", a.ID.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAcceptHandler_MissingLinkIs400(t *testing.T) {
	h, f := handlerFixture(t)
	a := f.request(t, f.now.Add(time.Hour))
	ident := auth.Identity{UserID: f.doctorID.String(), Role: auth.RoleDoctor}

	_, err := doRequest(h, http.MethodPost, "/appointments/x/accept", `{}`, ident, "id", a.ID.String())
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestAcceptHandler_ProvisioningFailureIs502(t *testing.T) {
	f := newFixture(t, &fakeProvider{err: meeting.ErrProvisioningFailed})
	h := NewHandler(f.svc)
	a := f.request(t, f.now.Add(time.Hour))
	ident := auth.Identity{UserID: f.doctorID.String(), Role: auth.RoleDoctor}

	_, err := doRequest(h, http.MethodPost, "/appointments/x/accept", `{}`, ident, "id", a.ID.String())
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %v", err)
	}
}

func TestRejectHandler_MissingReasonIs400(t *testing.T) {
	h, f := handlerFixture(t)
	a := f.request(t, f.now.Add(time.Hour))
	ident := auth.Identity{UserID: f.doctorID.String(), Role: auth.RoleDoctor}

	_, err := doRequest(h, http.MethodPost, "/appointments/x/reject", `{}`, ident, "id", a.ID.String())
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestCompleteHandler_WrongStateIs400(t *testing.T) {
	h, f := handlerFixture(t)
	a := f.request(t, f.now.Add(time.Hour))
	ident := auth.Identity{UserID: f.doctorID.String(), Role: auth.RoleDoctor}

	_, err := doRequest(h, http.MethodPost, "/appointments/x/complete", "", ident, "id", a.ID.String())
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestListHandler_PatientSeesOwn(t *testing.T) {
	h, f := handlerFixture(t)
	f.request(t, f.now.Add(time.Hour))

	ident := auth.Identity{UserID: f.patientID.String(), Role: auth.RolePatient}
	rec, err := doRequest(h, http.MethodGet, "/appointments", "", ident)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Data  []Appointment `json:"data"`
		Total int           `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("expected 1 appointment, got %d", resp.Total)
	}
}

func TestListHandler_OtherPatientSeesNothing(t *testing.T) {
	h, f := handlerFixture(t)
	f.request(t, f.now.Add(time.Hour))

	ident := auth.Identity{UserID: uuid.NewString(), Role: auth.RolePatient}
	rec, err := doRequest(h, http.MethodGet, "/appointments", "", ident)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 0 {
		t.Errorf("expected 0 appointments, got %d", resp.Total)
	}
}

func TestListHandler_AdminNeedsSubject(t *testing.T) {
	h, _ := handlerFixture(t)
	ident := auth.Identity{UserID: uuid.NewString(), Role: auth.RoleAdmin}

	_, err := doRequest(h, http.MethodGet, "/appointments", "", ident)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
