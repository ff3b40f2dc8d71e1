package container

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deckhand/internal/config"
	"deckhand/internal/errors"
	"deckhand/internal/lock"
	"deckhand/internal/logger"
	"deckhand/internal/runner"
	"deckhand/internal/types"
	"deckhand/internal/validation"
)

// Manager handles lifecycle operations for the configured set of containers.
// Names outside that set are rejected.
type Manager struct {
	containers []string
	managed    map[string]bool
	runtime    Runtime
	compose    *Compose
	grace      time.Duration
	locks      *lock.Keyed
}

// NewManager creates a container manager. Mutating operations are serialized
// per compose file through locks.
func NewManager(cfg config.DockerConfig, rt Runtime, compose *Compose, locks *lock.Keyed) *Manager {
	if locks == nil {
		locks = lock.NewKeyed()
	}

	managed := make(map[string]bool, len(cfg.Containers))
	for _, name := range cfg.Containers {
		managed[name] = true
	}

	return &Manager{
		containers: append([]string(nil), cfg.Containers...),
		managed:    managed,
		runtime:    rt,
		compose:    compose,
		grace:      cfg.StopGrace(),
		locks:      locks,
	}
}

// Containers returns the managed names in configured order
func (m *Manager) Containers() []string {
	return append([]string(nil), m.containers...)
}

func (m *Manager) lockKey() string {
	return "compose:" + m.compose.File()
}

func (m *Manager) checkManaged(name string) error {
	if err := validation.ContainerName(name); err != nil {
		return err
	}
	if !m.managed[name] {
		return errors.ContainerNotManaged(name)
	}
	return nil
}

// GetStatus returns the record for one managed container
func (m *Manager) GetStatus(ctx context.Context, name string) (*types.ContainerRecord, error) {
	if err := m.checkManaged(name); err != nil {
		return nil, err
	}

	record, err := m.runtime.Inspect(ctx, name)
	if err != nil {
		return nil, err
	}
	record.Name = name
	return record, nil
}

// GetAllStatuses returns records for the managed containers the engine knows
// about, in configured order. Containers that cannot be inspected are left out
// with a warning; only an unreachable daemon fails the whole call.
func (m *Manager) GetAllStatuses(ctx context.Context) ([]types.ContainerRecord, error) {
	records := make([]types.ContainerRecord, 0, len(m.containers))
	for _, name := range m.containers {
		record, err := m.runtime.Inspect(ctx, name)
		if err != nil {
			if errors.HasCode(err, errors.ErrDaemonUnreachable) {
				return nil, err
			}
			logger.WithContext(ctx).WithField("container", name).WithError(err).
				Warn("Omitting container from status")
			continue
		}
		record.Name = name
		records = append(records, *record)
	}
	return records, nil
}

// Start starts one managed container
func (m *Manager) Start(ctx context.Context, name string) error {
	return m.single(ctx, name, m.start)
}

// Stop stops one managed container within the grace window
func (m *Manager) Stop(ctx context.Context, name string) error {
	return m.single(ctx, name, m.stop)
}

// Restart restarts one managed container within the grace window
func (m *Manager) Restart(ctx context.Context, name string) error {
	return m.single(ctx, name, m.restart)
}

func (m *Manager) start(ctx context.Context, name string) error {
	return m.runtime.Start(ctx, name)
}

func (m *Manager) stop(ctx context.Context, name string) error {
	return m.runtime.Stop(ctx, name, m.grace)
}

func (m *Manager) restart(ctx context.Context, name string) error {
	return m.runtime.Restart(ctx, name, m.grace)
}

func (m *Manager) single(ctx context.Context, name string, op func(context.Context, string) error) error {
	if err := m.checkManaged(name); err != nil {
		return err
	}
	_, err := lock.Run(ctx, m.locks, m.lockKey(), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx, name)
	})
	return err
}

// StartAll starts every managed container in order, stopping at the first failure
func (m *Manager) StartAll(ctx context.Context) types.OperationResult {
	return m.all(ctx, "started", m.start)
}

// StopAll stops every managed container in order, stopping at the first failure
func (m *Manager) StopAll(ctx context.Context) types.OperationResult {
	return m.all(ctx, "stopped", m.stop)
}

// RestartAll restarts every managed container in order, stopping at the first failure
func (m *Manager) RestartAll(ctx context.Context) types.OperationResult {
	return m.all(ctx, "restarted", m.restart)
}

func (m *Manager) all(ctx context.Context, verb string, op func(context.Context, string) error) types.OperationResult {
	result, err := lock.Run(ctx, m.locks, m.lockKey(), func(ctx context.Context) (types.OperationResult, error) {
		completed := make([]string, 0, len(m.containers))
		for _, name := range m.containers {
			if err := op(ctx, name); err != nil {
				logger.WithContext(ctx).WithField("container", name).WithError(err).
					Error("Bulk operation stopped")
				failed := types.Failed(fmt.Sprintf("%s %d of %d containers", verb, len(completed), len(m.containers)), err)
				failed.Container = name
				failed.Completed = completed
				return failed, nil
			}
			completed = append(completed, name)
		}
		succeeded := types.Succeeded(fmt.Sprintf("%s %d containers", verb, len(completed)))
		succeeded.Completed = completed
		return succeeded, nil
	})
	if err != nil {
		return types.Failed("", err)
	}
	return result
}

// composeStep is one docker compose invocation in an update sequence
type composeStep func(ctx context.Context) (*runner.Result, error)

// UpdateContainer pulls the newest image for one container's service and
// recreates it
func (m *Manager) UpdateContainer(ctx context.Context, name string) types.OperationResult {
	if err := m.checkManaged(name); err != nil {
		return types.Failed("", err)
	}

	service := m.serviceFor(name)
	logger.WithContext(ctx).WithFields(logger.Fields{"container": name, "service": service}).
		Info("Updating container")

	return m.runSteps(ctx, name,
		func(ctx context.Context) (*runner.Result, error) { return m.compose.Pull(ctx, service) },
		func(ctx context.Context) (*runner.Result, error) { return m.compose.Up(ctx, service) },
	)
}

// UpdateAll takes the whole project down, pulls every image and brings it
// back up
func (m *Manager) UpdateAll(ctx context.Context) types.OperationResult {
	logger.WithContext(ctx).WithField("compose_file", m.compose.File()).Info("Updating all containers")

	return m.runSteps(ctx, "",
		m.compose.Down,
		func(ctx context.Context) (*runner.Result, error) { return m.compose.Pull(ctx) },
		func(ctx context.Context) (*runner.Result, error) { return m.compose.Up(ctx) },
	)
}

func (m *Manager) runSteps(ctx context.Context, name string, steps ...composeStep) types.OperationResult {
	result, err := lock.Run(ctx, m.locks, m.lockKey(), func(ctx context.Context) (types.OperationResult, error) {
		var output strings.Builder
		for _, step := range steps {
			res, err := step(ctx)
			if err != nil {
				failed := types.Failed(output.String(), err)
				failed.Container = name
				return failed, nil
			}
			appendOutput(&output, res.Combined())
			if !res.Success() {
				stderr := res.Stderr
				if stderr == "" {
					stderr = res.Stdout
				}
				return types.OperationResult{
					Success:   false,
					Output:    output.String(),
					Error:     stderr,
					Kind:      errors.ErrComposeFailed,
					Container: name,
				}, nil
			}
		}
		return types.Succeeded(output.String()), nil
	})
	if err != nil {
		return types.Failed("", err)
	}
	return result
}

func appendOutput(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
	b.WriteString(s)
}

// serviceFor resolves the compose service behind a container name, falling
// back to the container name itself
func (m *Manager) serviceFor(name string) string {
	file, err := ReadComposeFile(m.compose.File())
	if err != nil {
		return name
	}
	return file.ServiceFor(name)
}

// Validate checks the compose file and daemon at startup. Configured
// containers the daemon does not know yet only produce warnings, since
// compose may not have created them.
func (m *Manager) Validate(ctx context.Context) error {
	file, err := ReadComposeFile(m.compose.File())
	if err != nil {
		return err
	}

	if err := m.runtime.Ping(ctx); err != nil {
		return err
	}

	existing, err := m.runtime.List(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, r := range existing {
		known[r.Name] = true
	}

	log := logger.WithContext(ctx)
	for _, name := range m.containers {
		if !file.Defines(name) {
			log.WithField("container", name).Warn("Container is not defined in the compose file")
		}
		if !known[name] {
			log.WithField("container", name).Warn("Container not found on the daemon")
		}
	}

	log.WithFields(logger.Fields{
		"compose_file": m.compose.File(),
		"containers":   len(m.containers),
	}).Info("Container manager validated")
	return nil
}
