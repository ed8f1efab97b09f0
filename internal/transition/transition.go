package transition

import (
	"github.com/nholik/container-sentinel/internal/snapshot"
	"github.com/nholik/container-sentinel/internal/state"
)

// Classification names the kind of change a transition represents.
type Classification string

const (
	Started             Classification = "started"
	StoppedUnexpectedly Classification = "stopped-unexpectedly"
	BecameUnhealthy     Classification = "became-unhealthy"
	Recovered           Classification = "recovered"
	Disappeared         Classification = "disappeared"
	Ignored             Classification = "ignored"
)

// Transition captures a classified change for one container between two cycles.
// Previous is nil on first observation; Current is nil when the container disappeared.
type Transition struct {
	Identity       snapshot.Identity
	Previous       *snapshot.Snapshot
	Current        *snapshot.Snapshot
	Classification Classification
}

// Alerting reports whether the transition should produce a notification.
func (t Transition) Alerting() bool {
	return t.Classification != Ignored
}

// Detect classifies every current snapshot against the store and reports
// identities that are tracked but no longer present. The store is only read.
// Transitions for current snapshots keep their input order; disappearances
// follow in identity order.
func Detect(current []snapshot.Snapshot, store state.Store) []Transition {
	transitions := make([]Transition, 0, len(current))
	seen := make(map[snapshot.Identity]struct{}, len(current))

	for i := range current {
		cur := current[i]
		seen[cur.Identity] = struct{}{}

		var prevPtr *snapshot.Snapshot
		if prev, ok := store.Get(cur.Identity); ok {
			prevPtr = &prev
		}

		transitions = append(transitions, Transition{
			Identity:       cur.Identity,
			Previous:       prevPtr,
			Current:        &cur,
			Classification: Classify(prevPtr, cur),
		})
	}

	for _, id := range store.Identities() {
		if _, ok := seen[id]; ok {
			continue
		}
		prev, _ := store.Get(id)
		transitions = append(transitions, Transition{
			Identity:       id,
			Previous:       &prev,
			Classification: Disappeared,
		})
	}

	return transitions
}

// Classify decides the classification for one observed container.
func Classify(prev *snapshot.Snapshot, cur snapshot.Snapshot) Classification {
	if prev == nil {
		if cur.Status == snapshot.StatusRunning {
			return Started
		}
		return Ignored
	}

	if prev.Status == snapshot.StatusRunning && cur.Status.Stopped() {
		return StoppedUnexpectedly
	}

	switch {
	case prev.Health != snapshot.HealthUnhealthy && cur.Health == snapshot.HealthUnhealthy:
		return BecameUnhealthy
	case prev.Health == snapshot.HealthUnhealthy &&
		(cur.Health == snapshot.HealthHealthy || cur.Health == snapshot.HealthStarting):
		return Recovered
	}

	return Ignored
}

// Apply commits one cycle to the store: every current snapshot is recorded
// and identities absent from current are dropped, so a disappearance is
// reported exactly once.
func Apply(store state.Store, current []snapshot.Snapshot) {
	present := make(map[snapshot.Identity]struct{}, len(current))
	for _, snap := range current {
		present[snap.Identity] = struct{}{}
		store.Put(snap.Identity, snap)
	}
	for _, id := range store.Identities() {
		if _, ok := present[id]; !ok {
			store.Remove(id)
		}
	}
}

// Alerts filters transitions down to those that should notify.
func Alerts(transitions []Transition) []Transition {
	out := make([]Transition, 0, len(transitions))
	for _, change := range transitions {
		if change.Alerting() {
			out = append(out, change)
		}
	}
	return out
}
