package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeServerError = "server_error"
)

// Collector bundles the planning service's Prometheus metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Requests  *prometheus.CounterVec
	Durations *prometheus.HistogramVec
	Waypoints prometheus.Histogram
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_requests_total",
		Help: "Total number of planning requests, labeled by endpoint and outcome.",
	}, []string{"endpoint", "outcome"}), "plan_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plan_request_duration_seconds",
		Help:    "Planning request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"endpoint"}), "plan_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	waypoints, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "plan_waypoints",
		Help:    "Number of waypoints per generated flight path.",
		Buckets: prometheus.ExponentialBuckets(10, 2, 10),
	}), "plan_waypoints")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:  gatherer,
		Requests:  requests,
		Durations: durations,
		Waypoints: waypoints,
	}, nil
}

// Observe records one finished request. A nil collector is a no-op.
func (c *Collector) Observe(endpoint, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(endpoint, outcome).Inc()
	c.Durations.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveWaypoints records the size of a generated flight path.
func (c *Collector) ObserveWaypoints(n int) {
	if c == nil {
		return
	}
	c.Waypoints.Observe(float64(n))
}

// OutcomeForStatus maps an HTTP status code to an outcome label.
func OutcomeForStatus(code int) string {
	switch {
	case code >= 500:
		return OutcomeServerError
	case code >= 400:
		return OutcomeClientError
	default:
		return OutcomeOK
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// register adds c to reg. When an equal collector is already registered the
// existing one is returned, so a second Collector on the same registry shares
// its series.
func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var zero T
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return zero, fmt.Errorf("register %s: %w", name, err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return zero, fmt.Errorf("register %s: existing collector has type %T", name, are.ExistingCollector)
	}
	return existing, nil
}
