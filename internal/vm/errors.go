package vm

import (
	"context"
	"errors"
	"fmt"

	"github.com/jbweber/herd/internal/pve"
)

// FailureClass groups pipeline failures by the stage that produced them.
type FailureClass string

const (
	// ClassResolution means the kind probe answered with an unrecognized shape.
	ClassResolution FailureClass = "resolution"
	// ClassExecution means the lifecycle request was rejected or unreadable.
	ClassExecution FailureClass = "execution"
	// ClassPoll means the task finished with a failure exit status.
	ClassPoll FailureClass = "poll"
	// ClassTransport means a request never got an HTTP response.
	ClassTransport FailureClass = "transport"
	// ClassTimeout means a pipeline or poll deadline expired.
	ClassTimeout FailureClass = "timeout"
	// ClassCancelled means the batch was cancelled while the pipeline ran.
	ClassCancelled FailureClass = "cancelled"
	// ClassPanic means the pipeline panicked and was recovered.
	ClassPanic FailureClass = "panic"
)

// PipelineError is the error returned by every stage of a pipeline.
type PipelineError struct {
	Class FailureClass
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ClassOf returns the failure class of err, or "" if err did not come from a
// pipeline.
func ClassOf(err error) FailureClass {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Class
	}
	return ""
}

// classify wraps err in a PipelineError. Deadlines, cancellation and
// transport failures take precedence over the stage's own class.
func classify(stage FailureClass, err error) error {
	if err == nil {
		return nil
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return err
	}

	class := stage
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		class = ClassTimeout
	case errors.Is(err, context.Canceled):
		class = ClassCancelled
	case pve.IsTransport(err):
		class = ClassTransport
	}
	return &PipelineError{Class: class, Err: err}
}
