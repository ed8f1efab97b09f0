package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsUpdates(t *testing.T) {
	m := New()

	m.ObserveCycleDuration(2 * time.Second)
	m.SetContainersByStatus(map[string]int{"running": 3, "exited": 1})
	m.IncAlertsTotal("became-unhealthy")
	m.IncEngineErrors()
	m.IncNotificationFailures("pushover")
	m.IncNotificationFailures("pushover")
	m.IncCyclePanics()
	m.SetLastSuccessfulCycleTimestamp(time.Unix(100, 0))

	if got := testutil.ToFloat64(m.containersTotal.WithLabelValues("running")); got != 3 {
		t.Fatalf("expected running containers 3, got %v", got)
	}
	if got := testutil.ToFloat64(m.containersTotal.WithLabelValues("exited")); got != 1 {
		t.Fatalf("expected exited containers 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.alertsTotal.WithLabelValues("became-unhealthy")); got != 1 {
		t.Fatalf("expected alerts 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.engineErrorsTotal); got != 1 {
		t.Fatalf("expected engine errors 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.notificationFailuresTotal.WithLabelValues("pushover")); got != 2 {
		t.Fatalf("expected pushover failures 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.cyclePanicsTotal); got != 1 {
		t.Fatalf("expected cycle panics 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.lastSuccessfulCycleGauge); got != 100 {
		t.Fatalf("expected last successful cycle 100, got %v", got)
	}
	if count := testutil.CollectAndCount(m.cycleDurationSeconds); count == 0 {
		t.Fatalf("expected cycle duration histogram to be collected")
	}
}

func TestSetContainersByStatusDropsStaleSeries(t *testing.T) {
	m := New()

	m.SetContainersByStatus(map[string]int{"running": 2, "paused": 1})
	m.SetContainersByStatus(map[string]int{"running": 1})

	if count := testutil.CollectAndCount(m.containersTotal); count != 1 {
		t.Fatalf("expected 1 series after reset, got %d", count)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCycleDuration(time.Second)
	m.SetContainersByStatus(map[string]int{"running": 1})
	m.IncAlertsTotal("started")
	m.IncEngineErrors()
	m.IncNotificationFailures("slack")
	m.IncCyclePanics()
	m.SetLastSuccessfulCycleTimestamp(time.Now())
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.IncEngineErrors()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "container_sentinel_engine_errors_total 1") {
		t.Fatalf("expected engine errors in exposition, got %s", body)
	}
}
