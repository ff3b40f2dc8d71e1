package client

import (
	"context"

	"deckhand/internal/interfaces"
	"deckhand/internal/status"
	"deckhand/internal/types"
)

// GitControllerAdapter adapts the Client to interfaces.GitController
type GitControllerAdapter struct {
	client *Client
}

// NewGitController creates a new git controller adapter
func NewGitController(client *Client) *GitControllerAdapter {
	return &GitControllerAdapter{client: client}
}

var _ interfaces.GitController = (*GitControllerAdapter)(nil)

func (a *GitControllerAdapter) GetStatus(ctx context.Context) (*types.RepositorySnapshot, error) {
	return a.client.GitStatus(ctx)
}

func (a *GitControllerAdapter) GetCommitInfo(ctx context.Context, hash string) (*types.CommitInfo, error) {
	return a.client.CommitInfo(ctx, hash)
}

func (a *GitControllerAdapter) PendingCommits(ctx context.Context) ([]types.CommitInfo, error) {
	return a.client.PendingCommits(ctx)
}

func (a *GitControllerAdapter) RecentCommits(ctx context.Context, limit int) ([]types.CommitInfo, error) {
	return a.client.RecentCommits(ctx, limit)
}

func (a *GitControllerAdapter) Fetch(ctx context.Context) error {
	return a.client.Fetch(ctx)
}

func (a *GitControllerAdapter) Pull(ctx context.Context) (*types.PullOutcome, error) {
	return a.client.Pull(ctx)
}

// ContainerControllerAdapter adapts the Client to interfaces.ContainerController
type ContainerControllerAdapter struct {
	client *Client
}

// NewContainerController creates a new container controller adapter
func NewContainerController(client *Client) *ContainerControllerAdapter {
	return &ContainerControllerAdapter{client: client}
}

var _ interfaces.ContainerController = (*ContainerControllerAdapter)(nil)

func (a *ContainerControllerAdapter) GetStatus(ctx context.Context, name string) (*types.ContainerRecord, error) {
	return a.client.GetContainer(ctx, name)
}

func (a *ContainerControllerAdapter) GetAllStatuses(ctx context.Context) ([]types.ContainerRecord, error) {
	return a.client.ListContainers(ctx)
}

func (a *ContainerControllerAdapter) Start(ctx context.Context, name string) error {
	return a.single(ctx, name, "start")
}

func (a *ContainerControllerAdapter) Stop(ctx context.Context, name string) error {
	return a.single(ctx, name, "stop")
}

func (a *ContainerControllerAdapter) Restart(ctx context.Context, name string) error {
	return a.single(ctx, name, "restart")
}

func (a *ContainerControllerAdapter) single(ctx context.Context, name, action string) error {
	result := a.client.ContainerAction(ctx, name, action)
	if result.Success {
		return nil
	}
	return resultError(result)
}

func (a *ContainerControllerAdapter) StartAll(ctx context.Context) types.OperationResult {
	return a.client.BulkAction(ctx, "start-all")
}

func (a *ContainerControllerAdapter) StopAll(ctx context.Context) types.OperationResult {
	return a.client.BulkAction(ctx, "stop-all")
}

func (a *ContainerControllerAdapter) RestartAll(ctx context.Context) types.OperationResult {
	return a.client.BulkAction(ctx, "restart-all")
}

func (a *ContainerControllerAdapter) UpdateContainer(ctx context.Context, name string) types.OperationResult {
	return a.client.ContainerAction(ctx, name, "update")
}

func (a *ContainerControllerAdapter) UpdateAll(ctx context.Context) types.OperationResult {
	return a.client.BulkAction(ctx, "update-all")
}

// StatusAdapter adapts the Client to interfaces.StatusProvider. A failed
// request is reported on both sides of the snapshot.
type StatusAdapter struct {
	client *Client
}

// NewStatusProvider creates a new status adapter
func NewStatusProvider(client *Client) *StatusAdapter {
	return &StatusAdapter{client: client}
}

var _ interfaces.StatusProvider = (*StatusAdapter)(nil)

func (a *StatusAdapter) GetSnapshot(ctx context.Context) *status.Snapshot {
	snapshot, err := a.client.Snapshot(ctx)
	if err != nil {
		return &status.Snapshot{
			GitError:        err.Error(),
			Containers:      []types.ContainerRecord{},
			ContainersError: err.Error(),
		}
	}
	return snapshot
}
