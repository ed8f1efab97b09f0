package notify

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nholik/container-sentinel/internal/snapshot"
	"github.com/nholik/container-sentinel/internal/transition"
)

const timestampLayout = "2006-01-02 15:04:05 MST"

// Render turns an alerting transition into an event. at is used for the
// occurred-at time when the transition has no current snapshot.
func Render(change transition.Transition, at time.Time, loc *time.Location, host string) Event {
	if loc == nil {
		loc = time.UTC
	}
	if change.Current != nil && !change.Current.ObservedAt.IsZero() {
		at = change.Current.ObservedAt
	}
	stamp := at.In(loc).Format(timestampLayout)
	id := change.Identity

	var title, message string
	switch change.Classification {
	case transition.Started:
		title = fmt.Sprintf("Container started: %s", id)
		message = fmt.Sprintf("%s is running%s since %s.", id, describe(change.Current), stamp)
	case transition.StoppedUnexpectedly:
		title = fmt.Sprintf("Container stopped: %s", id)
		message = fmt.Sprintf("%s went from %s to %s%s at %s.",
			id, change.Previous.Status, stoppedState(change.Current), describe(change.Current), stamp)
	case transition.BecameUnhealthy:
		title = fmt.Sprintf("Container unhealthy: %s", id)
		message = fmt.Sprintf("%s health changed from %s to %s%s at %s.",
			id, change.Previous.Health, change.Current.Health, describe(change.Current), stamp)
	case transition.Recovered:
		title = fmt.Sprintf("Container recovered: %s", id)
		message = fmt.Sprintf("%s health changed from %s to %s%s at %s.",
			id, change.Previous.Health, change.Current.Health, describe(change.Current), stamp)
	case transition.Disappeared:
		title = fmt.Sprintf("Container disappeared: %s", id)
		message = fmt.Sprintf("%s is no longer listed by the engine as of %s.", id, stamp)
		if change.Previous != nil {
			message = fmt.Sprintf("%s is no longer listed by the engine as of %s. Last seen %s%s.",
				id, stamp, lastSeen(change.Previous), describe(change.Previous))
		}
	default:
		title = fmt.Sprintf("Container %s: %s", change.Classification, id)
		message = fmt.Sprintf("%s changed at %s.", id, stamp)
	}

	if host != "" {
		title = fmt.Sprintf("[%s] %s", host, title)
	}

	return Event{
		Title:          title,
		Message:        message,
		Identity:       id,
		Classification: change.Classification,
		OccurredAt:     at.UTC(),
		Host:           host,
	}
}

func stoppedState(snap *snapshot.Snapshot) string {
	if snap.ExitCode == nil {
		return string(snap.Status)
	}
	return fmt.Sprintf("%s (exit code %d)", snap.Status, *snap.ExitCode)
}

func lastSeen(snap *snapshot.Snapshot) string {
	state := string(snap.Status)
	if snap.Health != snapshot.HealthNone && snap.Health != "" {
		state += ", " + string(snap.Health)
	}
	return state
}

// describe renders image and compose details as a parenthesized suffix.
func describe(snap *snapshot.Snapshot) string {
	if snap == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	if snap.Image != "" {
		parts = append(parts, "image "+snap.Image)
	}
	switch {
	case snap.ComposeProject != "" && snap.ComposeService != "":
		parts = append(parts, fmt.Sprintf("compose %s/%s", snap.ComposeProject, snap.ComposeService))
	case snap.ComposeProject != "":
		parts = append(parts, "compose "+snap.ComposeProject)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func truncate(value string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	if limit == 1 {
		return string(runes[:1])
	}
	return string(runes[:limit-1]) + "…"
}
