package notify

import "context"

// MultiNotifier fans out notifications to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that dispatches to all provided notifiers.
// Nil entries are dropped.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	filtered := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier == nil {
			continue
		}
		filtered = append(filtered, notifier)
	}
	return &MultiNotifier{notifiers: filtered}
}

// Len reports how many backends receive each event.
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

// Send implements Notifier. Backends are called in order.
func (m *MultiNotifier) Send(ctx context.Context, event Event) {
	for _, notifier := range m.notifiers {
		notifier.Send(ctx, event)
	}
}
