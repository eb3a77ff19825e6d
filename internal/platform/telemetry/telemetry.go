// Package telemetry exposes Prometheus metrics for the HTTP server and the
// backing services. Domain packages register their own collectors on the
// provider's registry.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dentx"

// MetricsPath is served by Handler and excluded from the HTTP metrics.
const MetricsPath = "/metrics"

var defaultDurationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

type Provider struct {
	reg *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	respSize prometheus.Histogram
}

// NewProvider creates a registry with the Go runtime and process collectors
// and the HTTP server metrics.
func NewProvider(version string) *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := &Provider{
		reg: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   defaultDurationBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "active_requests",
			Help:      "Requests currently being served.",
		}),
		respSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response body sizes.",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
		}),
	}
	reg.MustRegister(p.requests, p.duration, p.inFlight, p.respSize)

	build := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Build information of the running server.",
		ConstLabels: prometheus.Labels{"version": version},
	})
	build.Set(1)
	reg.MustRegister(build)

	return p
}

// Registerer is where domain metrics are registered.
func (p *Provider) Registerer() prometheus.Registerer {
	return p.reg
}

// Gatherer exposes the registry, mainly for tests.
func (p *Provider) Gatherer() prometheus.Gatherer {
	return p.reg
}

// Gauge registers a gauge sampled from fn at scrape time.
func (p *Provider) Gauge(name, help string, fn func() float64) {
	p.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Middleware records request count, latency and response size. Routes are
// labelled by their pattern so path parameters do not explode cardinality.
func (p *Provider) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.URL.Path == MetricsPath {
				return next(c)
			}

			p.inFlight.Inc()
			defer p.inFlight.Dec()

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				// The error handler has not written yet; report what it will.
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = 500
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			p.requests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
			p.duration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
			if size := c.Response().Size; size > 0 {
				p.respSize.Observe(float64(size))
			}
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{}))
}
