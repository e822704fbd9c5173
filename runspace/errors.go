package runspace

import "fmt"

// ProtocolViolationError is raised when a caller or peer attempts an
// operation the current state forbids (spec.md §7's ProtocolViolation,
// e.g. "input after close").
type ProtocolViolationError struct {
	Reason string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("runspace: protocol violation: %s", e.Reason)
}

// InvalidTransitionError is raised when a caller requests an operation
// illegal in the pool's current state (spec.md §7).
type InvalidTransitionError struct {
	Operation string
	State     State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("runspace: cannot %s in state %s", e.Operation, e.State)
}

// UnknownPipelineError is raised (non-fatally — the pool stays open) when an
// inbound message names a pipeline-id the pool has no record of.
type UnknownPipelineError struct {
	PipelineID string
}

func (e *UnknownPipelineError) Error() string {
	return fmt.Sprintf("runspace: unknown pipeline %s", e.PipelineID)
}

// CapabilityMismatchError is raised when a peer declares a protocol version
// this implementation does not support.
type CapabilityMismatchError struct {
	PeerProtocolVersion string
}

func (e *CapabilityMismatchError) Error() string {
	return fmt.Sprintf("runspace: unsupported peer protocol version %q", e.PeerProtocolVersion)
}
