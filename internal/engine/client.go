package engine

import (
	"context"
	"errors"

	"github.com/nholik/container-sentinel/internal/snapshot"
)

// ErrEngineUnavailable marks failures to reach the engine or to make sense of its answer.
var ErrEngineUnavailable = errors.New("engine unavailable")

// IdentityMode selects which container attribute keys the state store.
type IdentityMode string

const (
	// IdentityName keys containers by name, so a recreated container keeps its history.
	IdentityName IdentityMode = "name"
	// IdentityID keys containers by engine ID.
	IdentityID IdentityMode = "id"
)

// Client defines the engine operations the poll loop depends on.
// This interface enables mocking in tests.
type Client interface {
	// Ping validates connectivity to the engine.
	Ping(ctx context.Context) error

	// ListContainers returns a snapshot for every container, running or stopped.
	// It does not retry; failures wrap ErrEngineUnavailable.
	ListContainers(ctx context.Context) ([]snapshot.Snapshot, error)

	// Close releases resources associated with the client.
	Close() error
}
