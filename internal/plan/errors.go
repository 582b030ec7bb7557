package plan

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TaskError represents a failure while executing one plan task. It keeps
// which task failed and when, on top of the underlying cause.
type TaskError struct {
	TaskType  string    // type of the task that failed
	Message   string    // human-readable error message
	Err       error     // underlying error (optional)
	Timestamp time.Time // when the error occurred
}

// NewTaskError creates a TaskError with the current timestamp.
func NewTaskError(taskType, msg string, err error) *TaskError {
	return &TaskError{
		TaskType:  taskType,
		Message:   msg,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("task %s: %s", e.TaskType, e.Message))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// IsTaskError checks if the error is or wraps a TaskError.
func IsTaskError(err error) bool {
	if err == nil {
		return false
	}
	var te *TaskError
	return errors.As(err, &te)
}
