// Package status combines the git and container views into one snapshot for
// dashboards and pollers
package status

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"deckhand/internal/logger"
	"deckhand/internal/types"
)

// GitStatus is the git side of a snapshot
type GitStatus interface {
	GetStatus(ctx context.Context) (*types.RepositorySnapshot, error)
}

// ContainerStatus is the container side of a snapshot
type ContainerStatus interface {
	GetAllStatuses(ctx context.Context) ([]types.ContainerRecord, error)
}

// Snapshot is the combined view. A failure on one side is reported in its
// error field and never blanks the other side.
type Snapshot struct {
	Git             *types.RepositorySnapshot `json:"git"`
	GitError        string                    `json:"git_error,omitempty"`
	Containers      []types.ContainerRecord   `json:"containers"`
	ContainersError string                    `json:"containers_error,omitempty"`
	GeneratedAt     time.Time                 `json:"generated_at"`
}

// Aggregator builds snapshots. Concurrent callers share one in-flight query;
// nothing is kept once it completes.
type Aggregator struct {
	git        GitStatus
	containers ContainerStatus
	group      singleflight.Group
	now        func() time.Time
}

// NewAggregator creates a new aggregator
func NewAggregator(git GitStatus, containers ContainerStatus) *Aggregator {
	return &Aggregator{
		git:        git,
		containers: containers,
		now:        time.Now,
	}
}

// GetSnapshot queries both sides concurrently
func (a *Aggregator) GetSnapshot(ctx context.Context) *Snapshot {
	// Callers share the result, so one caller leaving must not cut it short
	shared := context.WithoutCancel(ctx)
	v, _, joined := a.group.Do("snapshot", func() (interface{}, error) {
		return a.collect(shared), nil
	})
	if joined {
		logger.WithContext(ctx).Debug("Shared in-flight status snapshot")
	}
	return v.(*Snapshot)
}

func (a *Aggregator) collect(ctx context.Context) *Snapshot {
	snapshot := &Snapshot{Containers: []types.ContainerRecord{}}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		git, err := a.git.GetStatus(ctx)
		if err != nil {
			logger.WithContext(ctx).WithError(err).Warn("Git status unavailable")
			snapshot.GitError = err.Error()
			return
		}
		snapshot.Git = git
	}()

	go func() {
		defer wg.Done()
		records, err := a.containers.GetAllStatuses(ctx)
		if err != nil {
			logger.WithContext(ctx).WithError(err).Warn("Container status unavailable")
			snapshot.ContainersError = err.Error()
			return
		}
		if records != nil {
			snapshot.Containers = records
		}
	}()

	wg.Wait()
	snapshot.GeneratedAt = a.now().UTC()
	return snapshot
}
