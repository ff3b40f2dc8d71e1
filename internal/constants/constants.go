// Package constants defines application-wide constants to avoid magic numbers
package constants

import "time"

// Network and Port Constants
const (
	// DefaultServerHost is the default bind address for the deckhand API server
	DefaultServerHost = "127.0.0.1"

	// DefaultServerPort is the default port for the deckhand API server
	DefaultServerPort = 3000

	// DefaultDockerSocket is the default Docker Engine endpoint
	DefaultDockerSocket = "unix:///var/run/docker.sock"
)

// Git defaults
const (
	// DefaultGitRemote is the remote tracked when none is configured
	DefaultGitRemote = "origin"

	// DefaultGitBranch is the branch tracked when none is configured
	DefaultGitBranch = "main"

	// ShortHashLength is the length of abbreviated commit hashes shown to users
	ShortHashLength = 8

	// DefaultRecentCommits is the number of commits returned by the recent commits listing
	DefaultRecentCommits = 10

	// MaxRecentCommits caps the limit accepted by the recent commits listing
	MaxRecentCommits = 100
)

// File System Permissions
const (
	// DirPermissions is the standard directory permissions for deckhand directories
	DirPermissions = 0755

	// SecureFilePermissions is used for files containing sensitive data
	SecureFilePermissions = 0600
)

// Timeouts
const (
	// DefaultStopTimeout is the graceful-shutdown window granted to a container
	// before it is killed
	DefaultStopTimeout = 10 * time.Second

	// DefaultCommandTimeout bounds every git invocation
	DefaultCommandTimeout = 2 * time.Minute

	// DefaultComposeTimeout bounds every compose invocation (pulls can be slow)
	DefaultComposeTimeout = 10 * time.Minute

	// DefaultRuntimeAPITimeout bounds every Docker Engine API call, on top of
	// any graceful-shutdown window
	DefaultRuntimeAPITimeout = 30 * time.Second

	// DefaultSessionTimeout is the session inactivity expiry
	DefaultSessionTimeout = time.Hour

	// DefaultServerReadTimeout is the default server read timeout
	DefaultServerReadTimeout = 10 * time.Second

	// DefaultServerWriteTimeout must outlive the slowest compose operation
	DefaultServerWriteTimeout = 15 * time.Minute

	// DefaultServerShutdownTimeout is the default server graceful shutdown timeout
	DefaultServerShutdownTimeout = 30 * time.Second
)

// Logging and Output Limits
const (
	// MaxOutputLength is the maximum length for command output embedded in error strings
	MaxOutputLength = 200
)

// Session
const (
	// SessionCookieName is the cookie carrying the session token
	SessionCookieName = "deckhand_session"
)
