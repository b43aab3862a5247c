// Package apperrors defines the shared error taxonomy of the pipeline.
//
// Validation failures are data, not errors: they travel in rejected-record
// lists and never abort a batch. The sentinels here cover the cases that do
// abort an invocation, so callers can map them onto exit codes or HTTP
// statuses with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a malformed request or an empty batch handed to
	// the writer. The whole invocation fails; nothing is written.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a missing partition or object key.
	ErrNotFound = errors.New("not found")

	// ErrQualityCheckFailed marks a failed gold-layer quality gate.
	ErrQualityCheckFailed = errors.New("quality checks failed")
)

// InvalidInputf wraps ErrInvalidInput with a formatted detail message.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}
