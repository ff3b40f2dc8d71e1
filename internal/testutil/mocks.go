package testutil

import (
	"context"
	"time"

	"deckhand/internal/types"

	"github.com/stretchr/testify/mock"
)

// MockRuntime is a testify mock satisfying container.Runtime
type MockRuntime struct {
	mock.Mock
}

// NewMockRuntime creates a new mock runtime
func NewMockRuntime() *MockRuntime {
	return &MockRuntime{}
}

func (m *MockRuntime) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRuntime) Inspect(ctx context.Context, name string) (*types.ContainerRecord, error) {
	args := m.Called(ctx, name)
	record, _ := args.Get(0).(*types.ContainerRecord)
	return record, args.Error(1)
}

func (m *MockRuntime) List(ctx context.Context) ([]types.ContainerRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]types.ContainerRecord)
	return records, args.Error(1)
}

func (m *MockRuntime) Start(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockRuntime) Stop(ctx context.Context, name string, grace time.Duration) error {
	args := m.Called(ctx, name, grace)
	return args.Error(0)
}

func (m *MockRuntime) Restart(ctx context.Context, name string, grace time.Duration) error {
	args := m.Called(ctx, name, grace)
	return args.Error(0)
}

func (m *MockRuntime) Close() error {
	return nil
}

// RunningRecord builds a running container record for tests
func RunningRecord(name string) *types.ContainerRecord {
	return &types.ContainerRecord{
		ID:            name + "-id",
		Name:          name,
		State:         types.ContainerStateRunning,
		Image:         name + ":latest",
		CreatedAtUnix: 1700000000,
	}
}

// MockGitStatus is a testify mock for the git side of the status snapshot
type MockGitStatus struct {
	mock.Mock
}

func (m *MockGitStatus) GetStatus(ctx context.Context) (*types.RepositorySnapshot, error) {
	args := m.Called(ctx)
	snapshot, _ := args.Get(0).(*types.RepositorySnapshot)
	return snapshot, args.Error(1)
}

// MockContainerStatus is a testify mock for the container side of the status snapshot
type MockContainerStatus struct {
	mock.Mock
}

func (m *MockContainerStatus) GetAllStatuses(ctx context.Context) ([]types.ContainerRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]types.ContainerRecord)
	return records, args.Error(1)
}
