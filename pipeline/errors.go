package pipeline

import "fmt"

// ProtocolViolationError mirrors runspace.ProtocolViolationError for
// pipeline-local violations (spec.md §7): sending input after NoInput was
// declared, or after the input stream was closed.
type ProtocolViolationError struct {
	Reason string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("pipeline: protocol violation: %s", e.Reason)
}

// InvalidTransitionError is raised when a caller requests an operation
// illegal in the pipeline's current State.
type InvalidTransitionError struct {
	Operation string
	State     State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("pipeline: cannot %s in state %s", e.Operation, e.State)
}

// UnknownHostCallError is raised (non-fatally) when a PIPELINE_HOST_RESPONSE
// arrives for a call-id this pipeline never issued.
type UnknownHostCallError struct {
	CallID int64
}

func (e *UnknownHostCallError) Error() string {
	return fmt.Sprintf("pipeline: host response for unknown call-id %d", e.CallID)
}
