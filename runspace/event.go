package runspace

import (
	"github.com/google/uuid"
	"github.com/smnsjas/go-psrpcore/messages"
)

// EventKind discriminates the Event union.
type EventKind int

const (
	// PoolOpened fires once, when both SESSION_CAPABILITY and
	// RUNSPACEPOOL_STATE=Opened have been received (spec.md §4.6 step 5).
	PoolOpened EventKind = iota
	// PoolStateChanged fires on every State transition, including into
	// PoolOpened's Opened state (delivered alongside PoolOpened, not instead
	// of it) and into Closed/Broken.
	PoolStateChanged
	// PoolBroken fires when the pool moves to Broken, carrying the error
	// that caused it.
	PoolBroken
	// ApplicationDataReceived fires on APPLICATION_PRIVATE_DATA.
	ApplicationDataReceived
	// KeyExchangeCompleted fires once RegisterSessionKey has been applied
	// to the pool's CryptoProvider.
	KeyExchangeCompleted
	// PipelineEvent wraps any pipeline-scoped message for the caller (or a
	// pipeline.Pipeline polling NextEvent) to apply to pipeline-local state.
	PipelineEvent
	// UnknownPipeline fires for a pipeline-scoped message whose pipeline-id
	// the pool has no record of; the pool itself is unaffected.
	UnknownPipeline
	// UnknownMessage fires for a message type this package has no concrete
	// Body for (messages.Generic), per spec.md §7's "not fatal" rule.
	UnknownMessage
	// PoolMessage fires for a pool-scoped message of a known Type that this
	// state machine does not specialize handling for (e.g.
	// RUNSPACEPOOL_INIT_DATA, GET_COMMAND_METADATA) — forwarded as-is so a
	// caller can still act on it without the pool crashing or silently
	// dropping it.
	PoolMessage
)

// Event is the tagged union NextEvent delivers. Only the fields relevant to
// Kind are populated.
type Event struct {
	Kind EventKind

	State State // PoolStateChanged, PoolOpened, PoolBroken
	Err   error // PoolBroken, UnknownPipeline

	PipelineID uuid.UUID       // PipelineEvent, UnknownPipeline
	Message    messages.Message // PipelineEvent, UnknownMessage
	Body       messages.Body    // PipelineEvent, ApplicationDataReceived
}
