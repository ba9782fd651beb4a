package queue

import (
	"errors"

	"avid/internal/services"
)

// FailureStatus maps a stage error to the queue status the workflow manager
// should persist after the stage fails.
//
// Validation, configuration, and not-found errors need a human to fix the
// input or the config, so they park the item in review. Everything else
// (tool crashes, timeouts, transient I/O) is a retryable failure.
func FailureStatus(err error) Status {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrConfiguration),
		errors.Is(err, services.ErrNotFound):
		return StatusReview
	default:
		return StatusFailed
	}
}
