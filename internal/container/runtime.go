package container

import (
	"context"
	"time"

	"deckhand/internal/types"
)

// Runtime queries and controls individual containers on the container engine.
// Every call is bounded in time; Stop and Restart additionally grant the
// container its graceful-shutdown window before it is killed.
type Runtime interface {
	// Ping checks that the engine is reachable
	Ping(ctx context.Context) error

	// Inspect returns the current record for a container by name
	Inspect(ctx context.Context, name string) (*types.ContainerRecord, error)

	// List returns every container known to the engine, running or not
	List(ctx context.Context) ([]types.ContainerRecord, error)

	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string, grace time.Duration) error
	Restart(ctx context.Context, name string, grace time.Duration) error

	// Close releases the engine connection
	Close() error
}
