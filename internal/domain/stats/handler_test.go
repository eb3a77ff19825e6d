package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imagingrequest"
)

type stubSource struct {
	items []*imagingrequest.ImagingRequest
}

func (s *stubSource) Snapshot(context.Context) ([]*imagingrequest.ImagingRequest, error) {
	return s.items, nil
}

func newTestHandler() (*Handler, *echo.Echo) {
	now := func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	svc := NewService(&stubSource{items: fixtureRequests()}, AttributionFirstLog, now)
	return NewHandler(svc), echo.New()
}

func statusOf(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func TestHandler_GetHistory(t *testing.T) {
	h, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?type=PANORAMA&from=2024-06-11", nil), rec)

	if err := h.GetHistory(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data  []imagingrequest.ImagingRequest `json:"data"`
		Total int                             `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if resp.Total != 1 || resp.Data[0].ID != "r2" {
		t.Errorf("expected only r2, got %+v", resp)
	}
}

func TestHandler_GetHistory_BadInput(t *testing.T) {
	h, e := newTestHandler()
	for _, url := range []string{"/?type=MRI", "/?from=2024-6-1"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, url, nil), httptest.NewRecorder())
		if statusOf(h.GetHistory(c)) != http.StatusBadRequest {
			t.Errorf("%s: expected 400", url)
		}
	}
}

func TestHandler_GetStats_Today(t *testing.T) {
	h, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?range=today", nil), rec)

	if err := h.GetStats(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var st PeriodStats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if st.TotalCount != 1 || st.PendingCount != 1 || st.TotalPeriod != 2 || st.TotalPoints != 1170 {
		t.Errorf("unexpected stats for 2024-06-15: %+v", st)
	}
}

func TestHandler_GetStats_BadRange(t *testing.T) {
	h, e := newTestHandler()
	for _, url := range []string{"/?range=decade", "/?range=custom&from=2024-06-10"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, url, nil), httptest.NewRecorder())
		if statusOf(h.GetStats(c)) != http.StatusBadRequest {
			t.Errorf("%s: expected 400", url)
		}
	}
}
