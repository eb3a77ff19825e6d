package imagingrequest

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	r := &ImagingRequest{Types: []imaging.Type{imaging.TypePanorama, imaging.TypeCT}, Points: 1572}

	m.RequestCreated(r)
	m.RequestCreated(&ImagingRequest{Types: []imaging.Type{imaging.TypePanorama}, Points: 402})
	m.RequestCompleted(r)

	if got := testutil.ToFloat64(m.created.WithLabelValues("PANORAMA")); got != 2 {
		t.Errorf("expected 2 panorama created, got %v", got)
	}
	if got := testutil.ToFloat64(m.completed.WithLabelValues("CT")); got != 1 {
		t.Errorf("expected 1 CT completed, got %v", got)
	}
	if got := testutil.ToFloat64(m.points); got != 1974 {
		t.Errorf("expected 1974 points, got %v", got)
	}
}

func TestService_RecordsMetrics(t *testing.T) {
	f := newFixture()
	m := NewMetrics(prometheus.NewRegistry())
	f.svc.SetRecorder(m)

	createPending(t, f, imaging.TypeBitewing)
	if got := testutil.ToFloat64(m.points); got != 48 {
		t.Errorf("expected 48 points (one side), got %v", got)
	}
}
