// Package config loads deckhand configuration from a TOML file and the
// process environment. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"deckhand/internal/constants"
	"deckhand/internal/errors"
	"deckhand/internal/xdg"

	"github.com/pelletier/go-toml/v2"
)

// Config is the complete deckhand configuration
type Config struct {
	Server ServerConfig `toml:"server"`
	Auth   AuthConfig   `toml:"auth"`
	Git    GitConfig    `toml:"git"`
	Docker DockerConfig `toml:"docker"`
	Log    LogConfig    `toml:"log"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type AuthConfig struct {
	Password       string `toml:"password"`
	SessionTimeout int    `toml:"session_timeout"` // seconds of inactivity
}

type GitConfig struct {
	RepoPath       string `toml:"repo_path"`
	Remote         string `toml:"remote"`
	Branch         string `toml:"branch"`
	CommandTimeout int    `toml:"command_timeout"` // seconds
}

type DockerConfig struct {
	ComposeFile    string   `toml:"compose_file"`
	Containers     []string `toml:"containers"`
	Socket         string   `toml:"socket"`
	StopTimeout    int      `toml:"stop_timeout"`    // seconds granted before kill
	ComposeTimeout int      `toml:"compose_timeout"` // seconds
	APITimeout     int      `toml:"api_timeout"`     // seconds
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Address returns host:port for the listener
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SessionExpiry returns the inactivity window for sessions
func (a AuthConfig) SessionExpiry() time.Duration {
	return seconds(a.SessionTimeout, constants.DefaultSessionTimeout)
}

// Timeout returns the bound applied to each git invocation
func (g GitConfig) Timeout() time.Duration {
	return seconds(g.CommandTimeout, constants.DefaultCommandTimeout)
}

// StopGrace returns the graceful-shutdown window for stop and restart
func (d DockerConfig) StopGrace() time.Duration {
	return seconds(d.StopTimeout, constants.DefaultStopTimeout)
}

// ComposeCommandTimeout returns the bound applied to each compose invocation
func (d DockerConfig) ComposeCommandTimeout() time.Duration {
	return seconds(d.ComposeTimeout, constants.DefaultComposeTimeout)
}

// APICallTimeout returns the bound applied to each Docker Engine API call
func (d DockerConfig) APICallTimeout() time.Duration {
	return seconds(d.APITimeout, constants.DefaultRuntimeAPITimeout)
}

// IsManaged reports whether name is in the configured container list
func (d DockerConfig) IsManaged(name string) bool {
	for _, c := range d.Containers {
		if c == name {
			return true
		}
	}
	return false
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: constants.DefaultServerHost,
			Port: constants.DefaultServerPort,
		},
		Auth: AuthConfig{
			SessionTimeout: int(constants.DefaultSessionTimeout / time.Second),
		},
		Git: GitConfig{
			Remote:         constants.DefaultGitRemote,
			Branch:         constants.DefaultGitBranch,
			CommandTimeout: int(constants.DefaultCommandTimeout / time.Second),
		},
		Docker: DockerConfig{
			Socket:         constants.DefaultDockerSocket,
			StopTimeout:    int(constants.DefaultStopTimeout / time.Second),
			ComposeTimeout: int(constants.DefaultComposeTimeout / time.Second),
			APITimeout:     int(constants.DefaultRuntimeAPITimeout / time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config file at path, or the XDG default when path is empty,
// applies environment overrides and validates the result. A missing default
// file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		defaultPath, err := xdg.ConfigFile()
		if err != nil {
			return nil, errors.Wrap(errors.ErrConfigInvalid, "Failed to resolve config directory", err)
		}
		path = defaultPath
	}

	cfg, err := loadFile(path, explicit)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return nil, errors.ConfigParseError(path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.ConfigParseError(path, err)
	}

	// Fill zero values the file left out
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := Default()
	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Auth.SessionTimeout == 0 {
		c.Auth.SessionTimeout = defaults.Auth.SessionTimeout
	}
	if c.Git.Remote == "" {
		c.Git.Remote = defaults.Git.Remote
	}
	if c.Git.Branch == "" {
		c.Git.Branch = defaults.Git.Branch
	}
	if c.Git.CommandTimeout == 0 {
		c.Git.CommandTimeout = defaults.Git.CommandTimeout
	}
	if c.Docker.Socket == "" {
		c.Docker.Socket = defaults.Docker.Socket
	}
	if c.Docker.StopTimeout == 0 {
		c.Docker.StopTimeout = defaults.Docker.StopTimeout
	}
	if c.Docker.ComposeTimeout == 0 {
		c.Docker.ComposeTimeout = defaults.Docker.ComposeTimeout
	}
	if c.Docker.APITimeout == 0 {
		c.Docker.APITimeout = defaults.Docker.APITimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.ConfigValidationError(key, "must be an integer")
		}
		*dst = n
		return nil
	}

	setString("SERVER_HOST", &c.Server.Host)
	setString("DASHBOARD_PASSWORD", &c.Auth.Password)
	setString("GIT_REPO_PATH", &c.Git.RepoPath)
	setString("GIT_REMOTE", &c.Git.Remote)
	setString("GIT_BRANCH", &c.Git.Branch)
	setString("DOCKER_COMPOSE_FILE", &c.Docker.ComposeFile)
	setString("DOCKER_SOCKET", &c.Docker.Socket)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)

	ints := []struct {
		key string
		dst *int
	}{
		{"SERVER_PORT", &c.Server.Port},
		{"SESSION_TIMEOUT", &c.Auth.SessionTimeout},
		{"COMMAND_TIMEOUT", &c.Git.CommandTimeout},
		{"DOCKER_STOP_TIMEOUT", &c.Docker.StopTimeout},
		{"COMPOSE_TIMEOUT", &c.Docker.ComposeTimeout},
	}
	for _, i := range ints {
		if err := setInt(i.key, i.dst); err != nil {
			return err
		}
	}

	if v, ok := os.LookupEnv("DOCKER_CONTAINERS"); ok && v != "" {
		c.Docker.Containers = ParseList(v)
	}
	return nil
}

// ParseList splits a comma-separated list, dropping blanks
func ParseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// expandPaths expands tilde paths in the configuration
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Git.RepoPath, &c.Docker.ComposeFile} {
		if !strings.HasPrefix(*p, "~/") {
			continue
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(errors.ErrConfigInvalid, "Failed to get home directory", err)
		}
		*p = filepath.Join(homeDir, (*p)[2:])
	}
	return nil
}

// Validate checks the configuration for values deckhand cannot run with
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.ConfigValidationError("server.port", fmt.Sprintf("invalid port: %d", c.Server.Port))
	}
	if c.Auth.Password == "" {
		return errors.ConfigValidationError("auth.password", "DASHBOARD_PASSWORD must be set")
	}
	if c.Auth.SessionTimeout <= 0 {
		return errors.ConfigValidationError("auth.session_timeout", "must be positive")
	}
	if c.Git.RepoPath == "" {
		return errors.ConfigValidationError("git.repo_path", "GIT_REPO_PATH must be set")
	}
	if c.Git.Remote == "" || c.Git.Branch == "" {
		return errors.ConfigValidationError("git", "remote and branch must be set")
	}
	if c.Docker.ComposeFile == "" {
		return errors.ConfigValidationError("docker.compose_file", "DOCKER_COMPOSE_FILE must be set")
	}
	if len(c.Docker.Containers) == 0 {
		return errors.ConfigValidationError("docker.containers", "DOCKER_CONTAINERS must list at least one container")
	}

	seen := make(map[string]bool, len(c.Docker.Containers))
	for _, name := range c.Docker.Containers {
		if seen[name] {
			return errors.ConfigValidationError("docker.containers", fmt.Sprintf("duplicate container %q", name))
		}
		seen[name] = true
	}

	timeouts := map[string]int{
		"git.command_timeout":    c.Git.CommandTimeout,
		"docker.stop_timeout":    c.Docker.StopTimeout,
		"docker.compose_timeout": c.Docker.ComposeTimeout,
		"docker.api_timeout":     c.Docker.APITimeout,
	}
	for field, v := range timeouts {
		if v < 0 {
			return errors.ConfigValidationError(field, "must not be negative")
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return errors.ConfigValidationError("log.format", fmt.Sprintf("unknown format %q", c.Log.Format))
	}
	return nil
}

// Save writes the configuration to path. The file holds the dashboard
// password, so it is created owner-only.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return os.WriteFile(path, data, constants.SecureFilePermissions)
}
