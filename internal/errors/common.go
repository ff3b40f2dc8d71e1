package errors

import "fmt"

// Configuration Errors
func ConfigInvalid(reason string) *DeckhandError {
	return NewWithDetails(ErrConfigInvalid, "Invalid configuration", reason)
}

func ConfigParseError(path string, cause error) *DeckhandError {
	return WrapWithDetails(ErrConfigParse, "Failed to parse configuration", fmt.Sprintf("Path: %s", path), cause)
}

func ConfigValidationError(field, reason string) *DeckhandError {
	return NewWithDetails(ErrConfigValidation, "Configuration validation failed",
		fmt.Sprintf("Field: %s, Reason: %s", field, reason))
}

// Git Errors
func GitFetchFailed(remote, branch, stderr string) *DeckhandError {
	return NewWithDetails(ErrGitFetchFailed, "Git fetch failed",
		fmt.Sprintf("%s/%s: %s", remote, branch, Truncate(stderr))).WithOutput(stderr)
}

func GitRemoteUnreachable(remote, stderr string) *DeckhandError {
	return NewWithDetails(ErrGitRemoteUnreachable, "Git remote unreachable",
		fmt.Sprintf("Remote: %s: %s", remote, Truncate(stderr))).WithOutput(stderr)
}

func GitPullRejectedDiverged(remote, branch, stderr string) *DeckhandError {
	return NewWithDetails(ErrGitPullRejectedDiverged,
		"Pull rejected: local history has diverged from the remote, manual resolution required",
		fmt.Sprintf("%s/%s", remote, branch)).WithOutput(stderr)
}

func GitPullFailed(remote, branch, stderr string) *DeckhandError {
	return NewWithDetails(ErrGitPullFailed, "Git pull failed",
		fmt.Sprintf("%s/%s: %s", remote, branch, Truncate(stderr))).WithOutput(stderr)
}

func GitInvalidRepository(path, reason string) *DeckhandError {
	return NewWithDetails(ErrGitInvalidRepository, "Invalid git repository",
		fmt.Sprintf("Path: %s, Reason: %s", path, reason))
}

func GitCommandFailed(args []string, stderr string) *DeckhandError {
	return NewWithDetails(ErrGitCommandFailed, "Git command failed",
		fmt.Sprintf("git %v: %s", args, Truncate(stderr))).WithOutput(stderr)
}

func GitCommitNotFound(hash string) *DeckhandError {
	return NewWithDetails(ErrGitCommitNotFound, "Commit not found", fmt.Sprintf("Hash: %s", hash))
}

// Container Errors
func DaemonUnreachable(endpoint string, cause error) *DeckhandError {
	return WrapWithDetails(ErrDaemonUnreachable, "Docker daemon unreachable",
		fmt.Sprintf("Endpoint: %s", endpoint), cause)
}

func ContainerNotFound(name string) *DeckhandError {
	return NewWithDetails(ErrContainerNotFound, "Container not found", fmt.Sprintf("Name: %s", name))
}

func ContainerNotManaged(name string) *DeckhandError {
	return NewWithDetails(ErrContainerNotManaged, "Container is not in the managed list", fmt.Sprintf("Name: %s", name))
}

func ContainerOperationFailed(operation, name string, cause error) *DeckhandError {
	return WrapWithDetails(ErrContainerOperationFailed, fmt.Sprintf("Failed to %s container", operation),
		fmt.Sprintf("Name: %s", name), cause)
}

func OperationTimeout(operation, target string, cause error) *DeckhandError {
	return WrapWithDetails(ErrOperationTimeout, "Operation timed out",
		fmt.Sprintf("Operation: %s, Target: %s", operation, target), cause)
}

func ComposeFailed(step, stderr string) *DeckhandError {
	return NewWithDetails(ErrComposeFailed, "Compose command failed",
		fmt.Sprintf("Step: %s: %s", step, Truncate(stderr))).WithOutput(stderr)
}

func ComposeFileNotFound(path string) *DeckhandError {
	return NewWithDetails(ErrComposeFileNotFound, "Compose file not found", fmt.Sprintf("Path: %s", path))
}

// Process Errors
func CommandLaunchFailed(name string, cause error) *DeckhandError {
	return WrapWithDetails(ErrCommandLaunch, "Failed to launch command", fmt.Sprintf("Command: %s", name), cause)
}

// Validation Errors
func InvalidInput(field, reason string) *DeckhandError {
	return NewWithDetails(ErrInvalidInput, "Invalid input", fmt.Sprintf("Field: %s, Reason: %s", field, reason))
}
