// Package interfaces holds the controller contracts shared by the HTTP
// server and the CLI. The local managers and the remote API client both
// satisfy them.
package interfaces

import (
	"context"

	"deckhand/internal/status"
	"deckhand/internal/types"
)

// GitController is the git-sync surface for the tracked repository
type GitController interface {
	GitQuery
	GitSync
}

// GitQuery handles read-only repository queries
type GitQuery interface {
	GetStatus(ctx context.Context) (*types.RepositorySnapshot, error)
	GetCommitInfo(ctx context.Context, hash string) (*types.CommitInfo, error)
	PendingCommits(ctx context.Context) ([]types.CommitInfo, error)
	RecentCommits(ctx context.Context, limit int) ([]types.CommitInfo, error)
}

// GitSync handles operations that change local refs or the worktree
type GitSync interface {
	Fetch(ctx context.Context) error
	Pull(ctx context.Context) (*types.PullOutcome, error)
}

// ContainerController is the lifecycle surface for the managed containers
type ContainerController interface {
	ContainerQuery
	ContainerLifecycle
	ContainerUpdater
}

// ContainerQuery handles container status lookups
type ContainerQuery interface {
	GetStatus(ctx context.Context, name string) (*types.ContainerRecord, error)
	GetAllStatuses(ctx context.Context) ([]types.ContainerRecord, error)
}

// ContainerLifecycle handles start, stop and restart
type ContainerLifecycle interface {
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Restart(ctx context.Context, name string) error
	StartAll(ctx context.Context) types.OperationResult
	StopAll(ctx context.Context) types.OperationResult
	RestartAll(ctx context.Context) types.OperationResult
}

// ContainerUpdater handles image refreshes through compose
type ContainerUpdater interface {
	UpdateContainer(ctx context.Context, name string) types.OperationResult
	UpdateAll(ctx context.Context) types.OperationResult
}

// StatusProvider produces the combined dashboard snapshot
type StatusProvider interface {
	GetSnapshot(ctx context.Context) *status.Snapshot
}
