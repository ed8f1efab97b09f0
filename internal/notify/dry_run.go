package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// DryRunNotifier logs events without sending notifications.
type DryRunNotifier struct {
	logger zerolog.Logger
}

// NewDryRunNotifier returns a notifier that suppresses delivery to inner and logs instead.
func NewDryRunNotifier(logger zerolog.Logger, inner Notifier) *DryRunNotifier {
	logger.Info().
		Int("suppressed_backends", backendCount(inner)).
		Msg("dry run enabled; notifications are logged, not sent")
	return &DryRunNotifier{logger: logger}
}

// Send implements Notifier.
func (n *DryRunNotifier) Send(_ context.Context, event Event) {
	n.logger.Info().
		Str("container", string(event.Identity)).
		Str("classification", string(event.Classification)).
		Str("title", event.Title).
		Str("message", event.Message).
		Msg("[DRY-RUN] Would notify")
}

func backendCount(notifier Notifier) int {
	switch n := notifier.(type) {
	case nil:
		return 0
	case *MultiNotifier:
		return n.Len()
	default:
		return 1
	}
}
