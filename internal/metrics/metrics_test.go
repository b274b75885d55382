package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRecordsCountsAndDurations(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	c.Observe("flightplan", OutcomeOK, 20*time.Millisecond)
	c.Observe("flightplan", OutcomeOK, 30*time.Millisecond)
	c.Observe("flightplan", OutcomeClientError, time.Millisecond)

	if got := testutil.ToFloat64(c.Requests.WithLabelValues("flightplan", OutcomeOK)); got != 2 {
		t.Errorf("plan_requests_total{ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.Requests.WithLabelValues("flightplan", OutcomeClientError)); got != 1 {
		t.Errorf("plan_requests_total{client_error} = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(c.Durations); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestRegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("first NewCollector: %v", err)
	}
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}
	if first.Requests != second.Requests {
		t.Error("expected the already registered counter to be reused")
	}
}

func TestRegisterConflictingType(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "plan_waypoints",
		Help: "Number of waypoints per generated flight path.",
	}))
	_, err := NewCollector(reg)
	if err == nil || !strings.Contains(err.Error(), "plan_waypoints") {
		t.Fatalf("expected plan_waypoints registration error, got %v", err)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.Observe("spacing", OutcomeOK, time.Second)
	c.ObserveWaypoints(10)
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.ObserveWaypoints(42)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "plan_waypoints_count 1") {
		t.Errorf("metrics output missing plan_waypoints_count:\n%s", body)
	}
}

func TestOutcomeForStatus(t *testing.T) {
	cases := map[int]string{200: OutcomeOK, 400: OutcomeClientError, 422: OutcomeClientError, 500: OutcomeServerError}
	for code, want := range cases {
		if got := OutcomeForStatus(code); got != want {
			t.Errorf("OutcomeForStatus(%d) = %q, want %q", code, got, want)
		}
	}
}
