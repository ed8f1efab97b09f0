package snapshot

import (
	"fmt"
	"time"
)

// Identity is the stable key for a container: its name or its engine ID.
type Identity string

// Status is the engine lifecycle state of a container.
type Status string

const (
	StatusCreated    Status = "created"
	StatusRunning    Status = "running"
	StatusPaused     Status = "paused"
	StatusRestarting Status = "restarting"
	StatusRemoving   Status = "removing"
	StatusExited     Status = "exited"
	StatusDead       Status = "dead"
)

// Health is the healthcheck state reported by the engine.
type Health string

const (
	HealthNone      Health = "none"
	HealthStarting  Health = "starting"
	HealthHealthy   Health = "healthy"
	HealthUnhealthy Health = "unhealthy"
)

// Stopped reports whether the status is terminal (exited or dead).
func (s Status) Stopped() bool {
	return s == StatusExited || s == StatusDead
}

// Valid reports whether s is a status the engine is known to report.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusRunning, StatusPaused, StatusRestarting, StatusRemoving, StatusExited, StatusDead:
		return true
	}
	return false
}

// Valid reports whether h is a known health value.
func (h Health) Valid() bool {
	switch h {
	case HealthNone, HealthStarting, HealthHealthy, HealthUnhealthy:
		return true
	}
	return false
}

// Snapshot is a point-in-time record of one container.
type Snapshot struct {
	Identity       Identity
	ID             string // engine-assigned container ID
	Name           string
	Image          string // image reference, digest stripped
	Status         Status
	Health         Health
	ExitCode       *int // set only when Status is exited or dead
	ComposeProject string
	ComposeService string
	ObservedAt     time.Time
}

// Validate rejects snapshots that cannot be keyed or classified.
func (s Snapshot) Validate() error {
	if s.Identity == "" {
		return fmt.Errorf("snapshot for container %q has no identity", s.ID)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("container %s: unknown status %q", s.Identity, s.Status)
	}
	if !s.Health.Valid() {
		return fmt.Errorf("container %s: unknown health %q", s.Identity, s.Health)
	}
	return nil
}

// ExitCodeFor returns a pointer to code when status is terminal, nil otherwise.
func ExitCodeFor(status Status, code int) *int {
	if !status.Stopped() {
		return nil
	}
	value := code
	return &value
}
