package notify

import (
	"context"
	"time"

	"github.com/nholik/container-sentinel/internal/snapshot"
	"github.com/nholik/container-sentinel/internal/transition"
)

// Event is a rendered alert. Title and Message are what a person reads;
// the remaining fields are for backends that forward structured data.
type Event struct {
	Title          string                    `json:"title"`
	Message        string                    `json:"message"`
	Identity       snapshot.Identity         `json:"identity"`
	Classification transition.Classification `json:"classification"`
	OccurredAt     time.Time                 `json:"occurred_at"`
	Host           string                    `json:"host,omitempty"`
}

// Notifier delivers events to external systems. Implementations log their
// own delivery failures; Send never reports them to the caller.
type Notifier interface {
	Send(ctx context.Context, event Event)
}

// FailureRecorder counts failed deliveries per backend.
type FailureRecorder interface {
	IncNotificationFailures(backend string)
}
