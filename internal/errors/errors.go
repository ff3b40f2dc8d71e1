// Package errors provides typed error definitions for deckhand.
// Every failure surfaced by the git and container controllers carries an
// ErrorCode, a human-readable message, optional details and, when a
// subprocess was involved, the captured output for display.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"deckhand/internal/constants"
)

// ErrorCode represents a unique identifier for different error types
type ErrorCode string

const (
	// Configuration errors
	ErrConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrConfigParse      ErrorCode = "CONFIG_PARSE"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Git errors
	ErrGitFetchFailed          ErrorCode = "GIT_FETCH_FAILED"
	ErrGitPullRejectedDiverged ErrorCode = "GIT_PULL_REJECTED_DIVERGED"
	ErrGitPullFailed           ErrorCode = "GIT_PULL_FAILED"
	ErrGitInvalidRepository    ErrorCode = "GIT_INVALID_REPOSITORY"
	ErrGitRemoteUnreachable    ErrorCode = "GIT_REMOTE_UNREACHABLE"
	ErrGitCommandFailed        ErrorCode = "GIT_COMMAND_FAILED"
	ErrGitCommitNotFound       ErrorCode = "GIT_COMMIT_NOT_FOUND"

	// Container errors
	ErrDaemonUnreachable        ErrorCode = "DOCKER_DAEMON_UNREACHABLE"
	ErrContainerNotFound        ErrorCode = "CONTAINER_NOT_FOUND"
	ErrContainerNotManaged      ErrorCode = "CONTAINER_NOT_MANAGED"
	ErrContainerOperationFailed ErrorCode = "CONTAINER_OPERATION_FAILED"
	ErrOperationTimeout         ErrorCode = "OPERATION_TIMEOUT"
	ErrComposeFailed            ErrorCode = "COMPOSE_FAILED"
	ErrComposeFileNotFound      ErrorCode = "COMPOSE_FILE_NOT_FOUND"

	// Process execution errors
	ErrCommandLaunch ErrorCode = "COMMAND_LAUNCH_FAILED"

	// Auth errors
	ErrAuthFailed   ErrorCode = "AUTH_FAILED"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"

	// Validation errors
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Remote client errors
	ErrServerUnreachable ErrorCode = "SERVER_UNREACHABLE"

	// Internal errors
	ErrInternal  ErrorCode = "INTERNAL_ERROR"
	ErrCancelled ErrorCode = "CANCELLED"
)

// DeckhandError represents a structured error with additional context
type DeckhandError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Output  string                 `json:"output,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *DeckhandError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Details)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause error
func (e *DeckhandError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DeckhandError) WithContext(key string, value interface{}) *DeckhandError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause adds the underlying cause error
func (e *DeckhandError) WithCause(cause error) *DeckhandError {
	e.Cause = cause
	return e
}

// WithOutput attaches captured subprocess output
func (e *DeckhandError) WithOutput(output string) *DeckhandError {
	e.Output = output
	return e
}

// Retryable reports whether the caller may reasonably retry. The core never
// retries on its own.
func (e *DeckhandError) Retryable() bool {
	switch e.Code {
	case ErrGitFetchFailed, ErrGitRemoteUnreachable, ErrDaemonUnreachable, ErrOperationTimeout, ErrComposeFailed:
		return true
	default:
		return false
	}
}

// GetHTTPStatus returns the appropriate HTTP status code for this error
func (e *DeckhandError) GetHTTPStatus() int {
	return HTTPStatus(e.Code)
}

// HTTPStatus maps an error code to the status the API answers with
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrContainerNotFound, ErrGitCommitNotFound, ErrNotFound:
		return http.StatusNotFound
	case ErrAuthFailed, ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrContainerNotManaged:
		return http.StatusForbidden
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrGitPullRejectedDiverged:
		return http.StatusConflict
	case ErrDaemonUnreachable, ErrGitRemoteUnreachable, ErrServerUnreachable:
		return http.StatusBadGateway
	case ErrOperationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new DeckhandError
func New(code ErrorCode, message string) *DeckhandError {
	return &DeckhandError{
		Code:    code,
		Message: message,
	}
}

// NewWithDetails creates a new DeckhandError with details
func NewWithDetails(code ErrorCode, message, details string) *DeckhandError {
	return &DeckhandError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap creates a new DeckhandError that wraps an existing error
func Wrap(code ErrorCode, message string, cause error) *DeckhandError {
	return &DeckhandError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetails creates a new DeckhandError with details that wraps an existing error
func WrapWithDetails(code ErrorCode, message, details string, cause error) *DeckhandError {
	return &DeckhandError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// As finds the first DeckhandError in err's chain
func As(err error) (*DeckhandError, bool) {
	var de *DeckhandError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// GetCode extracts the error code from an error, if it carries one
func GetCode(err error) ErrorCode {
	if de, ok := As(err); ok {
		return de.Code
	}
	return ""
}

// HasCode checks if an error has a specific error code
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// Truncate shortens subprocess output for inclusion in one-line messages
func Truncate(output string) string {
	output = strings.TrimSpace(output)
	if len(output) > constants.MaxOutputLength {
		return output[:constants.MaxOutputLength] + "..."
	}
	return output
}
