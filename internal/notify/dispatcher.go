package notify

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/nholik/container-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

// AlertRecorder counts dispatched alerts.
type AlertRecorder interface {
	IncAlertsTotal(classification string)
}

// Dispatcher renders transitions and hands them to a Notifier.
type Dispatcher struct {
	notifier Notifier
	logger   zerolog.Logger
	location *time.Location
	host     string
	alerts   AlertRecorder
	now      func() time.Time
}

// DispatcherOption customizes Dispatcher behavior.
type DispatcherOption func(*Dispatcher)

// WithLocation sets the timezone used for timestamps in messages.
func WithLocation(loc *time.Location) DispatcherOption {
	return func(d *Dispatcher) {
		if loc != nil {
			d.location = loc
		}
	}
}

// WithHost prefixes every title with the given host name.
func WithHost(host string) DispatcherOption {
	return func(d *Dispatcher) {
		d.host = host
	}
}

// WithAlertRecorder counts every dispatched alert by classification.
func WithAlertRecorder(recorder AlertRecorder) DispatcherOption {
	return func(d *Dispatcher) {
		d.alerts = recorder
	}
}

// WithDispatchClock overrides the time source for disappearance timestamps.
func WithDispatchClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a dispatcher delivering through notifier.
func NewDispatcher(notifier Notifier, logger zerolog.Logger, opts ...DispatcherOption) *Dispatcher {
	if notifier == nil {
		notifier = &NoopNotifier{}
	}
	d := &Dispatcher{
		notifier: notifier,
		logger:   logger,
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends one notification for an alerting transition and ignores
// the rest. It never panics; a failure rendering or sending one transition
// is logged and does not affect later dispatches.
func (d *Dispatcher) Dispatch(ctx context.Context, change transition.Transition) {
	if !change.Alerting() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("container", string(change.Identity)).
				Str("classification", string(change.Classification)).
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("notification dispatch panicked")
		}
	}()

	event := Render(change, d.now(), d.location, d.host)
	d.notifier.Send(ctx, event)

	if d.alerts != nil {
		d.alerts.IncAlertsTotal(string(change.Classification))
	}

	d.logger.Info().
		Str("container", string(change.Identity)).
		Str("classification", string(change.Classification)).
		Str("title", event.Title).
		Msg("alert dispatched")
}
