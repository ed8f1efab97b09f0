package healthcheck

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthHandlerHealthy(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordCycle(150*time.Millisecond, 4, 1)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler := HealthHandler(tracker, 5*time.Second)
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.LastCycleTime == nil {
		t.Fatalf("expected last cycle time to be set")
	}
	if payload.ContainersObserved != 4 {
		t.Fatalf("expected 4 containers observed, got %d", payload.ContainersObserved)
	}
	if payload.AlertsDispatched != 1 {
		t.Fatalf("expected 1 alert dispatched, got %d", payload.AlertsDispatched)
	}
	if payload.CycleDurationMS != 150 {
		t.Fatalf("expected duration 150ms, got %d", payload.CycleDurationMS)
	}
}

func TestHealthHandlerUnhealthyWhenStale(t *testing.T) {
	tracker := NewTracker()
	tracker.now = func() time.Time { return time.Now().Add(-10 * time.Second) }
	tracker.RecordCycle(10*time.Millisecond, 1, 0)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler := HealthHandler(tracker, 3*time.Second)
	handler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHealthHandlerWithoutTracker(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(nil, time.Second)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without tracker, got %d", rec.Code)
	}
}

func TestReadyHandler(t *testing.T) {
	tracker := NewTracker()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	handler := ReadyHandler(tracker)
	handler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", rec.Code)
	}

	tracker.RecordCycle(5*time.Millisecond, 1, 0)
	rec = httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after ready, got %d", rec.Code)
	}
}

func TestTrackerFailuresResetOnSuccess(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordFailure(errors.New("engine unavailable"))
	tracker.RecordFailure(errors.New("engine unavailable"))

	snap := tracker.Snapshot()
	if snap.ConsecutiveFailures != 2 || snap.LastError != "engine unavailable" {
		t.Fatalf("unexpected snapshot after failures: %+v", snap)
	}
	if tracker.Ready() {
		t.Fatalf("failures alone must not make the tracker ready")
	}

	tracker.RecordCycle(time.Millisecond, 0, 0)
	snap = tracker.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.LastError != "" {
		t.Fatalf("expected failures to reset, got %+v", snap)
	}
}
