package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/sockets"
	"github.com/nholik/container-sentinel/internal/snapshot"
)

const defaultAPITimeout = 10 * time.Second

// DockerClient implements Client using the official Docker Go SDK.
type DockerClient struct {
	api          dockerAPI
	timeout      time.Duration
	identityMode IdentityMode
	labelFilters []string
	now          func() time.Time
}

// Option customizes DockerClient behavior.
type Option func(*DockerClient)

// WithIdentityMode selects how containers are keyed.
func WithIdentityMode(mode IdentityMode) Option {
	return func(c *DockerClient) {
		if mode != "" {
			c.identityMode = mode
		}
	}
}

// WithLabelFilters restricts the inventory to containers matching every
// filter, each either "key" or "key=value".
func WithLabelFilters(labels []string) Option {
	return func(c *DockerClient) {
		c.labelFilters = append([]string(nil), labels...)
	}
}

// WithClock overrides the time source used for ObservedAt.
func WithClock(now func() time.Time) Option {
	return func(c *DockerClient) {
		if now != nil {
			c.now = now
		}
	}
}

// NewDockerClient initializes a Docker client for the given engine host.
// An empty host uses the SDK default socket.
func NewDockerClient(host string, timeout time.Duration, opts ...Option) (*DockerClient, error) {
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}
	if host == "" {
		host = client.DefaultDockerHost
	}

	httpClient, err := newHTTPClient(host, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}

	api, err := client.NewClientWithOpts(
		client.WithHTTPClient(httpClient),
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}

	return newDockerClient(api, timeout, opts...), nil
}

func newDockerClient(api dockerAPI, timeout time.Duration, opts ...Option) *DockerClient {
	c := &DockerClient{
		api:          api,
		timeout:      timeout,
		identityMode: IdentityName,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newHTTPClient builds a transport for unix, npipe or tcp hosts with a hard
// per-request timeout, so a hung daemon cannot stall the poll loop.
func newHTTPClient(host string, timeout time.Duration) (*http.Client, error) {
	hostURL, err := client.ParseHostURL(host)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{}
	if err := sockets.ConfigureTransport(transport, hostURL.Scheme, hostURL.Host); err != nil {
		return nil, err
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// Ping validates connectivity to the Docker daemon.
func (c *DockerClient) Ping(ctx context.Context) error {
	if c == nil || c.api == nil {
		return errors.New("docker client is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.api.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrEngineUnavailable, err)
	}
	return nil
}

// ListContainers lists every container and inspects each one for health and exit code.
// Containers removed between the list and the inspect are skipped.
func (c *DockerClient) ListContainers(ctx context.Context) ([]snapshot.Snapshot, error) {
	if c == nil || c.api == nil {
		return nil, fmt.Errorf("%w: docker client is not initialized", ErrEngineUnavailable)
	}

	listCtx, cancel := context.WithTimeout(ctx, c.timeout)
	summaries, err := c.api.ContainerList(listCtx, container.ListOptions{
		All:     true,
		Filters: c.listFilters(),
	})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: list containers: %w", ErrEngineUnavailable, err)
	}

	snapshots := make([]snapshot.Snapshot, 0, len(summaries))
	for _, summary := range summaries {
		if summary.ID == "" {
			return nil, fmt.Errorf("%w: container list entry without id", ErrEngineUnavailable)
		}

		inspectCtx, cancel := context.WithTimeout(ctx, c.timeout)
		details, err := c.api.ContainerInspect(inspectCtx, summary.ID)
		cancel()
		if err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("%w: inspect container %s: %w", ErrEngineUnavailable, shortID(summary.ID), err)
		}

		snap, err := toSnapshot(summary, details, c.identityMode, c.now().UTC())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, nil
}

// Close releases resources associated with the client.
func (c *DockerClient) Close() error {
	if c == nil || c.api == nil {
		return nil
	}
	return c.api.Close()
}

func (c *DockerClient) listFilters() filters.Args {
	args := filters.NewArgs()
	for _, label := range c.labelFilters {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		args.Add("label", label)
	}
	return args
}
