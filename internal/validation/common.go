// Package validation checks user-supplied identifiers before they reach a
// subprocess argument list or the Engine API
package validation

import (
	"regexp"

	"deckhand/internal/errors"
)

var (
	// containerNameRegex matches the names the Docker daemon accepts
	containerNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

	// revisionRegex matches hashes and ordinary ref names, never options
	revisionRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_./~^@{}-]*$`)
)

// ContainerName validates a container name to prevent injection
func ContainerName(name string) error {
	if name == "" {
		return errors.InvalidInput("container", "cannot be empty")
	}

	if len(name) > 255 {
		return errors.InvalidInput("container", "too long (max 255 characters)")
	}

	if !containerNameRegex.MatchString(name) {
		return errors.InvalidInput("container", "contains invalid characters")
	}

	return nil
}

// Revision validates a commit hash or ref name passed to git
func Revision(rev string) error {
	if rev == "" {
		return errors.InvalidInput("hash", "cannot be empty")
	}

	if len(rev) > 255 {
		return errors.InvalidInput("hash", "too long (max 255 characters)")
	}

	if !revisionRegex.MatchString(rev) {
		return errors.InvalidInput("hash", "not a revision")
	}

	return nil
}
