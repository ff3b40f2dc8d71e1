package container

import (
	"context"

	"deckhand/internal/errors"
	"deckhand/internal/logger"
	"deckhand/internal/types"
)

// LogOperationResult logs the outcome of a lifecycle operation with
// structured fields
func LogOperationResult(ctx context.Context, operation string, result types.OperationResult) {
	fields := logger.Fields{
		"operation": operation,
		"success":   result.Success,
	}
	if result.Container != "" {
		fields["container"] = result.Container
	}
	if len(result.Completed) > 0 {
		fields["completed"] = result.Completed
	}

	entry := logger.WithContext(ctx).WithFields(fields)
	if result.Success {
		entry.Info("Container operation completed")
		return
	}

	if result.Kind != "" {
		entry = entry.WithField("error_code", string(result.Kind))
	}
	entry.WithField("error", errors.Truncate(result.Error)).Error("Container operation failed")
}
