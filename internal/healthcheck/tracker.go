package healthcheck

import (
	"sync"
	"time"
)

// Snapshot describes the latest cycle timing details.
type Snapshot struct {
	LastCycleTime       *time.Time `json:"last_cycle_time"`
	CycleDurationMS     int64      `json:"cycle_duration_ms"`
	ContainersObserved  int        `json:"containers_observed"`
	AlertsDispatched    int        `json:"alerts_dispatched"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastError           string     `json:"last_error,omitempty"`
}

// Tracker records cycle outcomes for health endpoints. The poll loop writes
// and HTTP handlers read, so access is guarded.
type Tracker struct {
	mu                  sync.RWMutex
	now                 func() time.Time
	lastCycle           time.Time
	cycleDuration       time.Duration
	containersObserved  int
	alertsDispatched    int
	consecutiveFailures int
	lastError           string
	ready               bool
}

// NewTracker constructs a new Tracker.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// RecordCycle marks a completed cycle and makes the tracker ready.
func (t *Tracker) RecordCycle(duration time.Duration, containersObserved, alertsDispatched int) {
	if t == nil {
		return
	}
	now := t.now().UTC()
	t.mu.Lock()
	t.lastCycle = now
	t.cycleDuration = duration
	t.containersObserved = containersObserved
	t.alertsDispatched = alertsDispatched
	t.consecutiveFailures = 0
	t.lastError = ""
	t.ready = true
	t.mu.Unlock()
}

// RecordFailure notes a skipped cycle. The last successful cycle time is
// left as is so /healthz goes stale if failures persist.
func (t *Tracker) RecordFailure(err error) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.consecutiveFailures++
	if err != nil {
		t.lastError = err.Error()
	}
	t.mu.Unlock()
}

// Snapshot returns the current tracker snapshot.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	var last *time.Time
	if !t.lastCycle.IsZero() {
		value := t.lastCycle
		last = &value
	}
	return Snapshot{
		LastCycleTime:       last,
		CycleDurationMS:     int64(t.cycleDuration / time.Millisecond),
		ContainersObserved:  t.containersObserved,
		AlertsDispatched:    t.alertsDispatched,
		ConsecutiveFailures: t.consecutiveFailures,
		LastError:           t.lastError,
	}
}

// Ready reports whether at least one successful cycle has completed.
func (t *Tracker) Ready() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

// Healthy reports whether the last cycle completed within 2x the poll interval.
func (t *Tracker) Healthy(now time.Time, pollInterval time.Duration) bool {
	if t == nil {
		return false
	}
	if pollInterval <= 0 {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastCycle.IsZero() {
		return false
	}
	return now.Sub(t.lastCycle) <= 2*pollInterval
}
