package tool

import (
	"fmt"
	"time"
)

type (
	// InvocationError is returned when an external tool could not be
	// started, exited unsuccessfully, or was cancelled by the caller.
	InvocationError struct {
		Tool   string
		Stderr string
		Err    error
	}

	// TimeoutError is returned when an external tool failed to
	// complete within its configured timeout.
	TimeoutError struct {
		Tool    string
		Timeout time.Duration
	}
)

func (e *InvocationError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("tool %s failed: %v (stderr: %s)", e.Tool, e.Err, e.Stderr)
	}

	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("tool %s did not complete within %s", e.Tool, e.Timeout)
}

// FailureReason returns a short label describing the
// kind of failure, suitable for use as a metric label.
func FailureReason(err error) string {
	switch err.(type) {
	case *TimeoutError:
		return "timeout"
	case *InvocationError:
		return "invocation"
	default:
		return "parse"
	}
}
