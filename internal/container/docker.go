package container

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/containerd/errdefs"
	dockertypes "github.com/docker/docker/api/types"
	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"deckhand/internal/constants"
	"deckhand/internal/errors"
	"deckhand/internal/logger"
	"deckhand/internal/types"
)

// dockerAPI is the subset of the Engine client used here
type dockerAPI interface {
	Ping(ctx context.Context) (dockertypes.Ping, error)
	ContainerInspect(ctx context.Context, containerID string) (dockercontainer.InspectResponse, error)
	ContainerList(ctx context.Context, options dockercontainer.ListOptions) ([]dockercontainer.Summary, error)
	ContainerStart(ctx context.Context, containerID string, options dockercontainer.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options dockercontainer.StopOptions) error
	ContainerRestart(ctx context.Context, containerID string, options dockercontainer.StopOptions) error
	Close() error
}

// DockerRuntime implements Runtime on the Docker Engine API
type DockerRuntime struct {
	api        dockerAPI
	endpoint   string
	apiTimeout time.Duration
}

// NewDockerRuntime connects lazily to the engine at endpoint, e.g.
// unix:///var/run/docker.sock
func NewDockerRuntime(endpoint string, apiTimeout time.Duration) (*DockerRuntime, error) {
	if endpoint == "" {
		endpoint = constants.DefaultDockerSocket
	}

	cli, err := client.NewClientWithOpts(
		client.WithHost(endpoint),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, errors.DaemonUnreachable(endpoint, err)
	}

	return newDockerRuntime(cli, endpoint, apiTimeout), nil
}

func newDockerRuntime(api dockerAPI, endpoint string, apiTimeout time.Duration) *DockerRuntime {
	if apiTimeout <= 0 {
		apiTimeout = constants.DefaultRuntimeAPITimeout
	}
	return &DockerRuntime{api: api, endpoint: endpoint, apiTimeout: apiTimeout}
}

// Ping checks that the daemon answers
func (r *DockerRuntime) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.apiTimeout)
	defer cancel()

	if _, err := r.api.Ping(ctx); err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return errors.OperationTimeout("ping", r.endpoint, err)
		}
		return errors.DaemonUnreachable(r.endpoint, err)
	}
	return nil
}

// Inspect returns the record for one container
func (r *DockerRuntime) Inspect(ctx context.Context, name string) (*types.ContainerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.apiTimeout)
	defer cancel()

	resp, err := r.api.ContainerInspect(ctx, name)
	if err != nil {
		return nil, r.classify("inspect", name, err)
	}
	return recordFromInspect(resp), nil
}

// List returns every container on the engine
func (r *DockerRuntime) List(ctx context.Context) ([]types.ContainerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.apiTimeout)
	defer cancel()

	summaries, err := r.api.ContainerList(ctx, dockercontainer.ListOptions{All: true})
	if err != nil {
		return nil, r.classify("list", "", err)
	}

	records := make([]types.ContainerRecord, 0, len(summaries))
	for _, s := range summaries {
		records = append(records, recordFromSummary(s))
	}
	return records, nil
}

// Start starts a stopped container
func (r *DockerRuntime) Start(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, r.apiTimeout)
	defer cancel()

	logger.WithContext(ctx).WithField("container", name).Info("Starting container")
	if err := r.api.ContainerStart(ctx, name, dockercontainer.StartOptions{}); err != nil {
		return r.classify("start", name, err)
	}
	return nil
}

// Stop stops a container, killing it after grace
func (r *DockerRuntime) Stop(ctx context.Context, name string, grace time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.apiTimeout+grace)
	defer cancel()

	logger.WithContext(ctx).WithFields(logger.Fields{"container": name, "grace": grace}).Info("Stopping container")
	if err := r.api.ContainerStop(ctx, name, stopOptions(grace)); err != nil {
		return r.classify("stop", name, err)
	}
	return nil
}

// Restart restarts a container, killing it after grace if it will not stop
func (r *DockerRuntime) Restart(ctx context.Context, name string, grace time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.apiTimeout+grace)
	defer cancel()

	logger.WithContext(ctx).WithFields(logger.Fields{"container": name, "grace": grace}).Info("Restarting container")
	if err := r.api.ContainerRestart(ctx, name, stopOptions(grace)); err != nil {
		return r.classify("restart", name, err)
	}
	return nil
}

// Close releases the client
func (r *DockerRuntime) Close() error {
	return r.api.Close()
}

func stopOptions(grace time.Duration) dockercontainer.StopOptions {
	secs := int(grace / time.Second)
	return dockercontainer.StopOptions{Timeout: &secs}
}

func (r *DockerRuntime) classify(operation, name string, err error) error {
	switch {
	case client.IsErrConnectionFailed(err):
		return errors.DaemonUnreachable(r.endpoint, err)
	case errdefs.IsNotFound(err):
		return errors.ContainerNotFound(name).WithCause(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.OperationTimeout(operation, name, err)
	default:
		return errors.ContainerOperationFailed(operation, name, err)
	}
}

func recordFromInspect(resp dockercontainer.InspectResponse) *types.ContainerRecord {
	record := &types.ContainerRecord{State: types.ContainerStateUnknown}
	if resp.ContainerJSONBase != nil {
		record.ID = resp.ID
		record.Name = strings.TrimPrefix(resp.Name, "/")
		record.Image = resp.Image
		if created, err := time.Parse(time.RFC3339Nano, resp.Created); err == nil {
			record.CreatedAtUnix = created.Unix()
		}
		if resp.State != nil {
			record.State = types.ParseContainerState(string(resp.State.Status))
		}
	}
	// Prefer the human-readable reference over the image ID
	if resp.Config != nil && resp.Config.Image != "" {
		record.Image = resp.Config.Image
	}
	return record
}

func recordFromSummary(s dockercontainer.Summary) types.ContainerRecord {
	name := ""
	if len(s.Names) > 0 {
		name = strings.TrimPrefix(s.Names[0], "/")
	}
	return types.ContainerRecord{
		ID:            s.ID,
		Name:          name,
		State:         types.ParseContainerState(string(s.State)),
		Image:         s.Image,
		CreatedAtUnix: s.Created,
	}
}
