package engine

import (
	"fmt"
	"strings"
	"time"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/nholik/container-sentinel/internal/snapshot"
)

const (
	composeProjectLabel = "com.docker.compose.project"
	composeServiceLabel = "com.docker.compose.service"
)

// toSnapshot maps a list entry and its inspect payload to a Snapshot.
// A payload without state is treated as malformed.
func toSnapshot(summary dockertypes.Container, details dockertypes.ContainerJSON, mode IdentityMode, observedAt time.Time) (snapshot.Snapshot, error) {
	if details.ContainerJSONBase == nil || details.State == nil {
		return snapshot.Snapshot{}, fmt.Errorf("inspect container %s: response has no state", shortID(summary.ID))
	}

	name := containerName(summary, details)
	status := snapshot.Status(strings.ToLower(details.State.Status))
	if status == "" {
		status = snapshot.Status(strings.ToLower(summary.State))
	}

	snap := snapshot.Snapshot{
		Identity:       identityFor(mode, summary.ID, name),
		ID:             summary.ID,
		Name:           name,
		Image:          NormalizeImage(summary.Image),
		Status:         status,
		Health:         healthOf(details.State),
		ExitCode:       snapshot.ExitCodeFor(status, details.State.ExitCode),
		ComposeProject: summary.Labels[composeProjectLabel],
		ComposeService: summary.Labels[composeServiceLabel],
		ObservedAt:     observedAt,
	}
	if err := snap.Validate(); err != nil {
		return snapshot.Snapshot{}, err
	}
	return snap, nil
}

func containerName(summary dockertypes.Container, details dockertypes.ContainerJSON) string {
	for _, name := range summary.Names {
		trimmed := strings.TrimPrefix(name, "/")
		// Legacy links show up as "/other/alias"; the real name has no slash.
		if trimmed != "" && !strings.Contains(trimmed, "/") {
			return trimmed
		}
	}
	if details.ContainerJSONBase != nil {
		return strings.TrimPrefix(details.Name, "/")
	}
	return ""
}

func identityFor(mode IdentityMode, id, name string) snapshot.Identity {
	if mode == IdentityID || name == "" {
		return snapshot.Identity(id)
	}
	return snapshot.Identity(name)
}

func healthOf(state *dockertypes.ContainerState) snapshot.Health {
	if state == nil || state.Health == nil || state.Health.Status == "" {
		return snapshot.HealthNone
	}
	return snapshot.Health(strings.ToLower(state.Health.Status))
}
