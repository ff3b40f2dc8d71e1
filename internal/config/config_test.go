package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"deckhand/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"SERVER_HOST", "SERVER_PORT", "DASHBOARD_PASSWORD", "SESSION_TIMEOUT",
	"GIT_REPO_PATH", "GIT_REMOTE", "GIT_BRANCH", "COMMAND_TIMEOUT",
	"DOCKER_COMPOSE_FILE", "DOCKER_CONTAINERS", "DOCKER_SOCKET",
	"DOCKER_STOP_TIMEOUT", "COMPOSE_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
}

// isolate points XDG at an empty directory and blanks every override
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	return dir
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DASHBOARD_PASSWORD", "hunter2")
	t.Setenv("GIT_REPO_PATH", "/srv/app")
	t.Setenv("DOCKER_COMPOSE_FILE", "/srv/app/docker-compose.yml")
	t.Setenv("DOCKER_CONTAINERS", "web, worker ,,db")
}

func TestLoadFromEnvironmentWithDefaults(t *testing.T) {
	isolate(t)
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "origin", cfg.Git.Remote)
	assert.Equal(t, "main", cfg.Git.Branch)
	assert.Equal(t, "unix:///var/run/docker.sock", cfg.Docker.Socket)
	assert.Equal(t, []string{"web", "worker", "db"}, cfg.Docker.Containers)
	assert.Equal(t, time.Hour, cfg.Auth.SessionExpiry())
	assert.Equal(t, 10*time.Second, cfg.Docker.StopGrace())
}

func TestLoadFileThenEnvironmentOverrides(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "deckhand.toml")
	content := `
[server]
host = "0.0.0.0"
port = 8080

[auth]
password = "from-file"
session_timeout = 120

[git]
repo_path = "/srv/site"
branch = "production"

[docker]
compose_file = "/srv/site/compose.yml"
containers = ["app", "cache"]
stop_timeout = 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("GIT_BRANCH", "release")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Auth.Password)
	assert.Equal(t, 2*time.Minute, cfg.Auth.SessionExpiry())
	assert.Equal(t, "release", cfg.Git.Branch)
	assert.Equal(t, "origin", cfg.Git.Remote)
	assert.Equal(t, []string{"app", "cache"}, cfg.Docker.Containers)
	assert.Equal(t, 30*time.Second, cfg.Docker.StopGrace())
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Address())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	setRequiredEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.True(t, errors.HasCode(err, errors.ErrConfigParse))
}

func TestLoadMalformedFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0600))

	_, err := Load(path)
	assert.True(t, errors.HasCode(err, errors.ErrConfigParse))
}

func TestLoadRejectsNonNumericPort(t *testing.T) {
	isolate(t)
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "http")

	_, err := Load("")
	assert.True(t, errors.HasCode(err, errors.ErrConfigValidation))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Auth.Password = "secret"
		cfg.Git.RepoPath = "/srv/app"
		cfg.Docker.ComposeFile = "/srv/app/compose.yml"
		cfg.Docker.Containers = []string{"web"}
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"missing password", func(c *Config) { c.Auth.Password = "" }},
		{"missing repo path", func(c *Config) { c.Git.RepoPath = "" }},
		{"missing compose file", func(c *Config) { c.Docker.ComposeFile = "" }},
		{"no containers", func(c *Config) { c.Docker.Containers = nil }},
		{"duplicate containers", func(c *Config) { c.Docker.Containers = []string{"web", "web"} }},
		{"negative stop timeout", func(c *Config) { c.Docker.StopTimeout = -1 }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errors.HasCode(err, errors.ErrConfigValidation), "got %v", err)
		})
	}
}

func TestIsManaged(t *testing.T) {
	d := DockerConfig{Containers: []string{"web", "db"}}
	assert.True(t, d.IsManaged("web"))
	assert.False(t, d.IsManaged("ghost"))
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Auth.Password = "secret"
	cfg.Git.RepoPath = "/srv/app"
	cfg.Docker.ComposeFile = "/srv/app/compose.yml"
	cfg.Docker.Containers = []string{"web", "db"}
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Docker.Containers, loaded.Docker.Containers)
	assert.Equal(t, cfg.Git.RepoPath, loaded.Git.RepoPath)
}
