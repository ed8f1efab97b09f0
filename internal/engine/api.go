package engine

import (
	"context"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// dockerAPI is the subset of the Docker SDK used by DockerClient. Tests inject
// fakes through it so no daemon is needed:
//
//	client := &DockerClient{api: &fakeDockerAPI{...}, timeout: time.Second}
type dockerAPI interface {
	Ping(ctx context.Context) (dockertypes.Ping, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]dockertypes.Container, error)
	ContainerInspect(ctx context.Context, containerID string) (dockertypes.ContainerJSON, error)
	Close() error
}

var _ dockerAPI = (*client.Client)(nil)
