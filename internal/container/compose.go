package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"deckhand/internal/constants"
	"deckhand/internal/errors"
	"deckhand/internal/logger"
	"deckhand/internal/runner"
)

// ComposeService represents a service from docker-compose.yml
type ComposeService struct {
	Image         string            `yaml:"image"`
	ContainerName string            `yaml:"container_name"`
	Labels        map[string]string `yaml:"labels"`
}

// ComposeFile represents the parts of a compose file deckhand reads
type ComposeFile struct {
	Name     string                    `yaml:"name"`
	Services map[string]ComposeService `yaml:"services"`
}

// ReadComposeFile reads and parses a compose file
func ReadComposeFile(path string) (*ComposeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ComposeFileNotFound(path)
		}
		return nil, errors.Wrap(errors.ErrComposeFailed, "Failed to read compose file", err)
	}

	var compose ComposeFile
	if err := yaml.Unmarshal(data, &compose); err != nil {
		return nil, errors.WrapWithDetails(errors.ErrComposeFailed, "Failed to parse compose file",
			fmt.Sprintf("Path: %s", path), err)
	}

	return &compose, nil
}

// ServiceNames returns the service keys in sorted order
func (f *ComposeFile) ServiceNames() []string {
	names := make([]string, 0, len(f.Services))
	for name := range f.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defines reports whether name is a service key or an explicit container_name
func (f *ComposeFile) Defines(name string) bool {
	if _, ok := f.Services[name]; ok {
		return true
	}
	for _, svc := range f.Services {
		if svc.ContainerName == name {
			return true
		}
	}
	return false
}

// ServiceFor maps a container name to its compose service. Names that match
// no service are returned unchanged.
func (f *ComposeFile) ServiceFor(name string) string {
	if _, ok := f.Services[name]; ok {
		return name
	}
	for svc, def := range f.Services {
		if def.ContainerName == name {
			return svc
		}
	}
	return name
}

// Compose runs docker compose against one compose file. A nonzero exit is
// returned in the Result, not as an error.
type Compose struct {
	file    string
	dir     string
	runner  runner.Runner
	timeout time.Duration
}

// NewCompose creates a Compose for file, run from the file's directory
func NewCompose(file string, r runner.Runner, timeout time.Duration) *Compose {
	if timeout <= 0 {
		timeout = constants.DefaultComposeTimeout
	}
	return &Compose{
		file:    file,
		dir:     filepath.Dir(file),
		runner:  r,
		timeout: timeout,
	}
}

// File returns the compose file path
func (c *Compose) File() string {
	return c.file
}

// Pull pulls images for services, or for every service when none are given
func (c *Compose) Pull(ctx context.Context, services ...string) (*runner.Result, error) {
	return c.run(ctx, append([]string{"pull"}, services...)...)
}

// Up creates and starts services detached. Images are never built.
func (c *Compose) Up(ctx context.Context, services ...string) (*runner.Result, error) {
	return c.run(ctx, append([]string{"up", "-d"}, services...)...)
}

// Down stops and removes the project's containers
func (c *Compose) Down(ctx context.Context) (*runner.Result, error) {
	return c.run(ctx, "down")
}

func (c *Compose) run(ctx context.Context, args ...string) (*runner.Result, error) {
	cmd := runner.Command{
		Name:    "docker",
		Args:    append([]string{"compose", "-f", c.file}, args...),
		Dir:     c.dir,
		Timeout: c.timeout,
	}

	result, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx).WithFields(logger.Fields{
		"command":   cmd.String(),
		"exit_code": result.ExitCode,
		"duration":  result.Duration,
	})
	if result.Success() {
		log.Debug("Compose command completed")
	} else {
		log.WithField("stderr", errors.Truncate(result.Stderr)).Error("Compose command failed")
	}
	return result, nil
}
