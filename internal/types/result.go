// Package types provides the value objects exchanged between the controllers
// and their callers. None of them are persisted.
package types

import (
	"deckhand/internal/errors"
)

// OperationResult reports the outcome of a single or bulk container operation
type OperationResult struct {
	Success bool             `json:"success"`
	Output  string           `json:"output"`
	Error   string           `json:"error,omitempty"`
	Kind    errors.ErrorCode `json:"kind,omitempty"`

	// Container names the container a bulk sequence stopped at
	Container string `json:"container,omitempty"`
	// Completed lists the containers processed before the sequence stopped
	Completed []string `json:"completed,omitempty"`
}

// Succeeded builds a successful result
func Succeeded(output string) OperationResult {
	return OperationResult{Success: true, Output: output}
}

// Failed builds a failed result from an error, keeping its code
func Failed(output string, err error) OperationResult {
	result := OperationResult{Success: false, Output: output}
	if err != nil {
		result.Error = err.Error()
		result.Kind = errors.GetCode(err)
	}
	return result
}
