package imagingrequest

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts lifecycle events. It implements Recorder.
type Metrics struct {
	created   *prometheus.CounterVec
	completed *prometheus.CounterVec
	points    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dentx",
			Name:      "imaging_requests_created_total",
			Help:      "Imaging requests created, per requested imaging type.",
		}, []string{"type"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dentx",
			Name:      "imaging_requests_completed_total",
			Help:      "Imaging requests completed, per imaging type.",
		}, []string{"type"}),
		points: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dentx",
			Name:      "insurance_points_booked_total",
			Help:      "Insurance points of created imaging requests.",
		}),
	}
	reg.MustRegister(m.created, m.completed, m.points)
	return m
}

func (m *Metrics) RequestCreated(r *ImagingRequest) {
	for _, t := range r.Types {
		m.created.WithLabelValues(string(t)).Inc()
	}
	m.points.Add(float64(r.Points))
}

func (m *Metrics) RequestCompleted(r *ImagingRequest) {
	for _, t := range r.Types {
		m.completed.WithLabelValues(string(t)).Inc()
	}
}
