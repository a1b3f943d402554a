package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/auth"
)

func newTestHandler(t *testing.T) (*Handler, *mockDoctorRepo) {
	t.Helper()
	repo := newMockDoctorRepo()
	windows := &fakeWindows{repo: repo}
	sessions := auth.NewSessions([]byte("test-secret"), time.Hour)
	svc := NewService(repo, windows, sessions)
	return NewHandler(svc, sessions), repo
}

func TestHandlerLogin_Success(t *testing.T) {
	h, repo := newTestHandler(t)
	seedDoctor(t, repo, "Dr. Mehta", Cardiology, "secret")

	e := echo.New()
	body := `{"name":"Dr. Mehta","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/doctors/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Error("expected token in response")
	}
	if resp.Specialization != Cardiology {
		t.Errorf("expected Cardiology, got %s", resp.Specialization)
	}
}

func TestHandlerLogin_BadCredentials(t *testing.T) {
	h, repo := newTestHandler(t)
	seedDoctor(t, repo, "Dr. Mehta", Cardiology, "secret")

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/doctors/login", strings.NewReader(`{"name":"Dr. Mehta","password":"nope"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Login(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestHandlerLogout(t *testing.T) {
	h, repo := newTestHandler(t)
	seeded := seedDoctor(t, repo, "Dr. Mehta", Cardiology, "secret")
	repo.doctors[seeded.ID].Available = true

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/doctors/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("doctor_id", seeded.ID)

	if err := h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "logout" {
		t.Errorf("expected logout status, got %v", resp["status"])
	}
	if repo.doctors[seeded.ID].Available {
		t.Error("expected doctor to be unavailable")
	}
}

func TestHandlerGetDoctor_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("2e9c0b6f-0000-0000-0000-000000000000")

	err := h.GetDoctor(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandlerCreateDoctor(t *testing.T) {
	h, repo := newTestHandler(t)

	e := echo.New()
	body := `{"name":"Dr. Rao","specialization":"ENT","password":"pw"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/doctors", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got, err := repo.GetByName(context.Background(), "Dr. Rao"); err != nil || got.Specialization != ENT {
		t.Errorf("expected stored ENT doctor, got %v %v", got, err)
	}
}
