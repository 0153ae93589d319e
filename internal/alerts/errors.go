package alerts

import (
	"errors"
	"fmt"
)

// ErrTaskLog matches any TaskLogError via errors.Is.
var ErrTaskLog = errors.New("task log write failed")

// TaskLogError is returned by Acknowledge when the alert was persisted but
// the Task Log collaborator rejected the entry. The alert write stands.
type TaskLogError struct {
	AlertID string
	Err     error
}

func (e *TaskLogError) Error() string {
	return fmt.Sprintf("record acknowledgement for alert %q: %v", e.AlertID, e.Err)
}

func (e *TaskLogError) Unwrap() error { return e.Err }

func (e *TaskLogError) Is(target error) bool { return target == ErrTaskLog }
