package imagingrequest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/auth"
)

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture()
	return NewHandler(f.svc), f, echo.New()
}

func statusOf(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

const createBody = `{
	"patient_id": "P-7",
	"patient_name": "佐々木 花子",
	"patient_gender": "female",
	"patient_birthday": "2015-04-01",
	"patient_body_type": "small",
	"types": ["DENTAL", "BITEWING"],
	"selected_teeth": [16, 26],
	"bitewing_sides": ["left"],
	"scheduled_date": "2024-06-20"
}`

func TestHandler_CreateRequest(t *testing.T) {
	h, f, e := newTestHandler()
	rec := httptest.NewRecorder()

	if err := h.CreateRequest(e.NewContext(jsonRequest(http.MethodPost, createBody), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var got ImagingRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if got.Points != 96 || got.PatientAgeAtRequest != 9 || got.Status != StatusPending {
		t.Errorf("unexpected request: %+v", got)
	}
	if len(f.repo.store) != 1 {
		t.Errorf("expected 1 stored request, got %d", len(f.repo.store))
	}
}

func TestHandler_CreateRequest_Validation(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"patient_id":"P-7","patient_name":"x","patient_birthday":"2015-04-01","types":["BITEWING"]}`

	err := h.CreateRequest(e.NewContext(jsonRequest(http.MethodPost, body), httptest.NewRecorder()))
	if statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if !strings.Contains(err.Error(), "bitewing") {
		t.Errorf("expected bitewing reason, got %v", err)
	}
}

func TestHandler_ListRequests(t *testing.T) {
	h, f, e := newTestHandler()
	createPending(t, f, imaging.TypePanorama)
	createPending(t, f, imaging.TypeCT)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?status=pending&limit=1", nil), rec)
	if err := h.ListRequests(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data  []ImagingRequest `json:"data"`
		Total int              `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 1 {
		t.Errorf("expected 1 of 2, got %d of %d", len(resp.Data), resp.Total)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?status=cancelled", nil), httptest.NewRecorder())
	if statusOf(h.ListRequests(c)) != http.StatusBadRequest {
		t.Error("expected 400 for unknown status")
	}
}

func TestHandler_GetRequest_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("nope")
	if statusOf(h.GetRequest(c)) != http.StatusNotFound {
		t.Error("expected 404")
	}
}

func TestHandler_CompletionFlow(t *testing.T) {
	h, f, e := newTestHandler()
	req := createPending(t, f, imaging.TypePanorama, imaging.TypeCT)

	// Draft, defaulted from the session identity.
	draftReq := httptest.NewRequest(http.MethodPost, "/", nil)
	draftReq = draftReq.WithContext(auth.WithIdentity(draftReq.Context(), auth.Identity{ClinicID: "c1", StaffName: "伊藤"}))
	rec := httptest.NewRecorder()
	c := e.NewContext(draftReq, rec)
	c.SetParamNames("id")
	c.SetParamValues(req.ID)
	if err := h.BeginCompletion(c); err != nil {
		t.Fatalf("begin: %v", err)
	}
	var d CompletionDraft
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("failed to parse draft: %v", err)
	}
	if d.OperatorName != "伊藤" || len(d.RadiationLogs) != 2 {
		t.Fatalf("unexpected draft: %+v", d)
	}

	// Finalize with a different signature.
	payload, _ := json.Marshal(map[string]interface{}{
		"operator_name":  "高橋",
		"radiation_logs": d.RadiationLogs,
	})
	rec = httptest.NewRecorder()
	c = e.NewContext(jsonRequest(http.MethodPost, string(payload)), rec)
	c.SetParamNames("id")
	c.SetParamValues(req.ID)
	if err := h.CompleteRequest(c); err != nil {
		t.Fatalf("complete: %v", err)
	}
	stored := f.repo.store[req.ID]
	if stored.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
	for typ, l := range stored.RadiationLogs {
		if l.OperatorName != "高橋" {
			t.Errorf("%s: expected 高橋, got %q", typ, l.OperatorName)
		}
	}

	// A second completion conflicts.
	c = e.NewContext(jsonRequest(http.MethodPost, string(payload)), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(req.ID)
	if statusOf(h.CompleteRequest(c)) != http.StatusConflict {
		t.Error("expected 409 for completed request")
	}
}

func TestHandler_CompleteRequest_MissingLogs(t *testing.T) {
	h, f, e := newTestHandler()
	req := createPending(t, f, imaging.TypePanorama)

	c := e.NewContext(jsonRequest(http.MethodPost, `{"radiation_logs":{}}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(req.ID)
	if statusOf(h.CompleteRequest(c)) != http.StatusBadRequest {
		t.Error("expected 400 for missing logs")
	}
}

func TestHandler_CompleteRequest_MixedOperators(t *testing.T) {
	h, f, e := newTestHandler()
	req := createPending(t, f, imaging.TypePanorama, imaging.TypeCT)

	body := `{"radiation_logs":{
		"PANORAMA":{"kv":70,"ma":10,"sec":12,"operator_name":"佐藤"},
		"CT":{"kv":90,"ma":4,"sec":9,"operator_name":"高橋"}
	}}`
	c := e.NewContext(jsonRequest(http.MethodPost, body), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(req.ID)
	if statusOf(h.CompleteRequest(c)) != http.StatusBadRequest {
		t.Error("expected 400 for logs signed by different operators")
	}
	if f.repo.store[req.ID].Status != StatusPending {
		t.Error("request must stay pending")
	}
}
