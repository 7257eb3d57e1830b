package medication

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medhealth/medhealth/internal/platform/fhir"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	return h, e
}

func seedMedication(t *testing.T, h *Handler, name, at string) *Medication {
	t.Helper()
	m := &Medication{Name: name, ScheduleTime: at}
	if err := h.svc.CreateMedication(context.Background(), m); err != nil {
		t.Fatalf("seed medication: %v", err)
	}
	return m
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError %d, got %v", code, err)
	}
	if he.Code != code {
		t.Errorf("expected %d, got %d", code, he.Code)
	}
}

func TestHandler_CreateMedication(t *testing.T) {
	h, e := newTestHandler()

	body := `{"name":" Aspirin ","schedule_time":"08:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/medications", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateMedication(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "created" {
		t.Errorf("expected status created, got %v", resp["status"])
	}
	if resp["name"] != "Aspirin" {
		t.Errorf("expected trimmed name Aspirin, got %v", resp["name"])
	}
	if resp["schedule_time"] != "08:00" {
		t.Errorf("expected 08:00, got %v", resp["schedule_time"])
	}
}

func TestHandler_CreateMedication_Invalid(t *testing.T) {
	h, e := newTestHandler()

	body := `{"name":"<script>","schedule_time":"08:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/medications", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.CreateMedication(e.NewContext(req, rec))
	var ve *fhir.ValidationError
	if !errors.As(err, &ve) || ve.Field != "name" {
		t.Fatalf("expected name ValidationError, got %v", err)
	}
}

func TestHandler_GetMedication(t *testing.T) {
	h, e := newTestHandler()
	m := seedMedication(t, h, "Aspirin", "08:00")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.GetMedication(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var got Medication
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.ID != m.ID || got.Name != "Aspirin" || !got.Active {
		t.Errorf("unexpected medication %+v", got)
	}
}

func TestHandler_GetMedication_NotFound(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")

	expectHTTPError(t, h.GetMedication(c), http.StatusNotFound)
}

func TestHandler_GetMedication_InvalidID(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	expectHTTPError(t, h.GetMedication(c), http.StatusBadRequest)
}

func TestHandler_DeleteMedication(t *testing.T) {
	h, e := newTestHandler()
	seedMedication(t, h, "Aspirin", "08:00")

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.DeleteMedication(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "deleted" || resp["id"] != float64(1) {
		t.Errorf("unexpected response %v", resp)
	}
}

func TestHandler_DeleteMedication_NotFound(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("7")

	expectHTTPError(t, h.DeleteMedication(c), http.StatusNotFound)
}

func TestHandler_ListMedications(t *testing.T) {
	h, e := newTestHandler()
	seedMedication(t, h, "Aspirin", "08:00")
	seedMedication(t, h, "Vitamin D", "12:00")

	req := httptest.NewRequest(http.MethodGet, "/api/medications", nil)
	rec := httptest.NewRecorder()

	if err := h.ListMedications(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var items []Medication
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("expected JSON array: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 medications, got %d", len(items))
	}
}

func TestHandler_RecordLog(t *testing.T) {
	h, e := newTestHandler()
	seedMedication(t, h, "Aspirin", "08:00")

	body := `{"medication_id":1,"status":"taken","actual_time":"08:04","temperature":36.8,"heart_rate":71}`
	req := httptest.NewRequest(http.MethodPost, "/api/logs/medications", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.RecordLog(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var stmt map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &stmt)
	if stmt["resourceType"] != "MedicationStatement" || stmt["status"] != "completed" {
		t.Errorf("unexpected statement %v", stmt)
	}
}

func TestHandler_RecordLog_UnknownMedication(t *testing.T) {
	h, e := newTestHandler()

	body := `{"medication_id":5,"status":"missed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/logs/medications", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	expectHTTPError(t, h.RecordLog(e.NewContext(req, rec)), http.StatusNotFound)
}

func TestHandler_ListLogs(t *testing.T) {
	h, e := newTestHandler()
	m := seedMedication(t, h, "Aspirin", "08:00")
	ctx := context.Background()
	h.svc.RecordLog(ctx, &RecordLogRequest{MedicationID: m.ID, Status: "taken"})
	h.svc.RecordLog(ctx, &RecordLogRequest{MedicationID: m.ID, Status: "missed"})

	req := httptest.NewRequest(http.MethodGet, "/api/logs/medications?limit=1", nil)
	rec := httptest.NewRecorder()

	if err := h.ListLogs(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var stmts []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &stmts); err != nil {
		t.Fatalf("expected bare JSON array: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(stmts))
	}
	if stmts[0]["status"] != "not-taken" {
		t.Errorf("expected newest (missed) first, got %v", stmts[0]["status"])
	}
	med := stmts[0]["medication"].(map[string]interface{})
	if med["reference"] != "Medication/1" || med["display"] != "Aspirin" {
		t.Errorf("unexpected medication reference %v", med)
	}
}

func TestHandler_ListMedicationLogs(t *testing.T) {
	h, e := newTestHandler()
	a := seedMedication(t, h, "Aspirin", "08:00")
	d := seedMedication(t, h, "Vitamin D", "12:00")
	ctx := context.Background()
	h.svc.RecordLog(ctx, &RecordLogRequest{MedicationID: a.ID, Status: "taken"})
	h.svc.RecordLog(ctx, &RecordLogRequest{MedicationID: d.ID, Status: "taken"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("2")

	if err := h.ListMedicationLogs(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var stmts []map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &stmts)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	if stmts[0]["medication"].(map[string]interface{})["display"] != "Vitamin D" {
		t.Errorf("unexpected statement %v", stmts[0])
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, e := newTestHandler()
	h.RegisterRoutes(e.Group("/api"))

	want := map[string]bool{
		"GET /api/medications":          false,
		"POST /api/medications":         false,
		"GET /api/medications/:id":      false,
		"DELETE /api/medications/:id":   false,
		"GET /api/medications/:id/logs": false,
		"GET /api/logs/medications":     false,
		"POST /api/logs/medications":    false,
	}
	for _, r := range e.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("route %s not registered", k)
		}
	}
}
