// Package researchagent - errors.go
// Defines session-specific errors and the error types tools report with.
package researchagent

import (
	"errors"
	"fmt"
)

var (
	ErrSessionClosed = errors.New("session has been closed")
	ErrNoMessage     = errors.New("no message available")
	ErrToolNotFound  = errors.New("tool not found")
)

// IgnorableError marks a tool failure the agent reports to the model
// without asking for a retry.
type IgnorableError struct {
	Message string
}

func (e *IgnorableError) Error() string {
	return e.Message
}

func NewIgnorableError(format string, args ...any) *IgnorableError {
	return &IgnorableError{Message: fmt.Sprintf(format, args...)}
}

// RetryableError marks a tool failure the model may retry, usually with
// corrected arguments.
type RetryableError struct {
	Message string
}

func (e *RetryableError) Error() string {
	return e.Message
}

func NewRetryableError(format string, args ...any) *RetryableError {
	return &RetryableError{Message: fmt.Sprintf(format, args...)}
}
