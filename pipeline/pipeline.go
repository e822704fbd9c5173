package pipeline

import (
	"github.com/google/uuid"
	"github.com/smnsjas/go-psrpcore/messages"
	"github.com/smnsjas/go-psrpcore/runspace"
	"github.com/smnsjas/go-psrpcore/types"
)

// toWireState maps a local State to the wire's PipelineInvocationState. The
// two enums don't share ordinals (the wire form interleaves Stopped before
// Completed), so this is an explicit table rather than a cast.
func toWireState(s State) messages.PipelineInvocationState {
	switch s {
	case NotStarted:
		return messages.PipelineNotStarted
	case Running:
		return messages.PipelineRunning
	case Stopping:
		return messages.PipelineStopping
	case Stopped:
		return messages.PipelineStopped
	case Completed:
		return messages.PipelineCompleted
	case Failed:
		return messages.PipelineFailed
	default:
		return messages.PipelineFailed
	}
}

func fromWireState(s messages.PipelineInvocationState) State {
	switch s {
	case messages.PipelineNotStarted:
		return NotStarted
	case messages.PipelineRunning:
		return Running
	case messages.PipelineStopping:
		return Stopping
	case messages.PipelineStopped:
		return Stopped
	case messages.PipelineCompleted:
		return Completed
	case messages.PipelineFailed:
		return Failed
	default:
		return Failed
	}
}

// Pipeline is one pipeline's state machine, layered on a runspace.Pool for
// message framing (spec.md §4.7). A Pipeline is owned by exactly one pool
// and identified by a GUID unique within that pool.
type Pipeline struct {
	pool           *runspace.Pool
	runspacePoolID uuid.UUID
	id             uuid.UUID

	state State

	noInput        bool
	inputClosed    bool
	skipInvokeSend bool

	callIDs               callIDAllocator
	pendingOutboundCalls  map[int64]struct{}
	pendingInboundCalls   map[int64]int32

	events []Event
}

// NewWithID constructs a Pipeline bound to pool and pipelineID, matching
// the call shape go-psrp's powershell/runspace.go already uses
// (pipeline.NewWithID(psrpPool, c.poolID, cmdUUID)), generalized to take a
// runspace.Pool rather than a transport. It registers pipelineID with pool
// so inbound messages dispatch as PipelineEvent rather than UnknownPipeline.
func NewWithID(pool *runspace.Pool, runspacePoolID, pipelineID uuid.UUID) *Pipeline {
	pool.RegisterPipeline(pipelineID)
	return &Pipeline{
		pool:                 pool,
		runspacePoolID:       runspacePoolID,
		id:                   pipelineID,
		state:                NotStarted,
		pendingOutboundCalls: make(map[int64]struct{}),
		pendingInboundCalls:  make(map[int64]int32),
	}
}

// ID returns the pipeline's id.
func (p *Pipeline) ID() uuid.UUID { return p.id }

// State returns the pipeline's current State.
func (p *Pipeline) State() State { return p.state }

// SkipInvokeSend suppresses Start's own CREATE_PIPELINE send. go-psrp's
// WSManBackend.PreparePipeline needs this: its WSMan transport piggybacks
// CREATE_PIPELINE on the Command SOAP request body itself, so the state
// machine must still transition to Running without also emitting the
// fragment into DataToSend. Must be called before Start.
func (p *Pipeline) SkipInvokeSend() {
	p.skipInvokeSend = true
}

// Start emits CREATE_PIPELINE (unless SkipInvokeSend was called) and
// transitions the pipeline to Running (spec.md §4.7's "Creation" paragraph).
// Only valid from NotStarted.
func (p *Pipeline) Start(commands []messages.Command, noInput bool, hostInfo types.Value) error {
	if p.state != NotStarted {
		return &InvalidTransitionError{Operation: "Start", State: p.state}
	}
	p.noInput = noInput
	if !p.skipInvokeSend {
		p.pool.SendMessage(messages.CreatePipeline{
			Commands: commands,
			NoInput:  noInput,
			HostInfo: hostInfo,
		}, p.id)
	}
	p.state = Running
	p.pushEvent(Event{Kind: StateChanged, State: Running})
	return nil
}

// SendInput streams one input object to a running pipeline. Forbidden when
// the pipeline declared NoInput at Start, or after CloseInput — both raise
// ProtocolViolationError per spec.md §4.7.
func (p *Pipeline) SendInput(v types.Value) error {
	if p.state != Running {
		return &InvalidTransitionError{Operation: "SendInput", State: p.state}
	}
	if p.noInput {
		return &ProtocolViolationError{Reason: "pipeline declared no_input=true"}
	}
	if p.inputClosed {
		return &ProtocolViolationError{Reason: "input stream already closed"}
	}
	p.pool.SendMessage(messages.PipelineInput{Data: v}, p.id)
	return nil
}

// CloseInput emits END_OF_PIPELINE_INPUT, ending the input stream.
func (p *Pipeline) CloseInput() error {
	if p.state != Running {
		return &InvalidTransitionError{Operation: "CloseInput", State: p.state}
	}
	if p.inputClosed {
		return &ProtocolViolationError{Reason: "input stream already closed"}
	}
	p.pool.SendMessage(messages.EndOfPipelineInput{}, p.id)
	p.inputClosed = true
	return nil
}

// Stop marks the pipeline Stopping locally. Per spec.md §4.7, the actual
// stop signal travels at the transport layer (not as a PSRP message), so
// this only updates local bookkeeping; the caller's transport adapter is
// responsible for sending its own stop/signal request.
func (p *Pipeline) Stop() error {
	if p.state != Running {
		return &InvalidTransitionError{Operation: "Stop", State: p.state}
	}
	p.state = Stopping
	p.pushEvent(Event{Kind: StateChanged, State: Stopping})
	return nil
}

// HostResponse answers an inbound PIPELINE_HOST_CALL identified by callID.
// Exactly one of value/hostErr should be non-nil.
func (p *Pipeline) HostResponse(callID int64, value, hostErr types.Value) error {
	methodID, ok := p.pendingInboundCalls[callID]
	if !ok {
		return &UnknownHostCallError{CallID: callID}
	}
	delete(p.pendingInboundCalls, callID)
	p.pool.SendMessage(messages.PipelineHostResponse{
		CallID:      callID,
		MethodID:    methodID,
		ReturnValue: value,
		Error:       hostErr,
	}, p.id)
	return nil
}

// WriteOutput emits one PIPELINE_OUTPUT object. Server-side only.
func (p *Pipeline) WriteOutput(v types.Value) {
	p.pool.SendMessage(messages.PipelineOutput{Data: v}, p.id)
}

// WriteError emits one ERROR_RECORD. Server-side only.
func (p *Pipeline) WriteError(record types.Value) {
	p.pool.SendMessage(messages.ErrorRecord{Message: record}, p.id)
}

// WriteDebug emits one DEBUG_RECORD. Server-side only.
func (p *Pipeline) WriteDebug(record types.Value) {
	p.pool.SendMessage(messages.DebugRecord{Message: record}, p.id)
}

// WriteVerbose emits one VERBOSE_RECORD. Server-side only.
func (p *Pipeline) WriteVerbose(record types.Value) {
	p.pool.SendMessage(messages.VerboseRecord{Message: record}, p.id)
}

// WriteWarning emits one WARNING_RECORD. Server-side only.
func (p *Pipeline) WriteWarning(record types.Value) {
	p.pool.SendMessage(messages.WarningRecord{Message: record}, p.id)
}

// WriteInformation emits one INFORMATION_RECORD. Server-side only.
func (p *Pipeline) WriteInformation(record types.Value) {
	p.pool.SendMessage(messages.InformationRecord{Message: record}, p.id)
}

// WriteProgress emits one PROGRESS_RECORD. Server-side only.
func (p *Pipeline) WriteProgress(record messages.ProgressRecord) {
	p.pool.SendMessage(record, p.id)
}

// HostCall emits a PIPELINE_HOST_CALL and returns the allocated call-id a
// matching HostResponse from the peer must echo back. Server-side only.
func (p *Pipeline) HostCall(methodID int32, args []types.Value) int64 {
	callID := p.callIDs.Next()
	p.pendingOutboundCalls[callID] = struct{}{}
	p.pool.SendMessage(messages.PipelineHostCall{CallID: callID, MethodID: methodID, Args: args}, p.id)
	return callID
}

// Complete emits PIPELINE_STATE with a terminal state (spec.md §4.7's
// "Termination" paragraph) and releases the pipeline from the pool.
// Server-side only. newState must be Completed, Stopped, or Failed.
func (p *Pipeline) Complete(newState State, errRecord types.Value) error {
	if newState != Completed && newState != Stopped && newState != Failed {
		return &InvalidTransitionError{Operation: "Complete", State: newState}
	}
	p.pool.SendMessage(messages.PipelineState{State: toWireState(newState), ErrorRecord: errRecord}, p.id)
	p.state = newState
	p.pushEvent(Event{Kind: StateChanged, State: newState})
	p.pool.UnregisterPipeline(p.id)
	return nil
}

// NextEvent pops the oldest pending pipeline event, or (Event{}, false) if
// none. Populated by Apply, and by Start, Stop and Complete with the
// StateChanged event of their own local transition.
func (p *Pipeline) NextEvent() (Event, bool) {
	if len(p.events) == 0 {
		return Event{}, false
	}
	e := p.events[0]
	p.events = p.events[1:]
	return e, true
}

func (p *Pipeline) pushEvent(e Event) {
	p.events = append(p.events, e)
}

// Apply translates one runspace.Event into zero or more pipeline Events.
// It ignores events that don't belong to this pipeline (wrong id, or not a
// PipelineEvent at all) and returns false for those; true means the event
// was consumed and NextEvent now has something new to drain.
func (p *Pipeline) Apply(e runspace.Event) bool {
	if e.Kind != runspace.PipelineEvent || e.PipelineID != p.id {
		return false
	}
	switch body := e.Body.(type) {
	case messages.PipelineOutput:
		p.pushEvent(Event{Kind: Output, Data: body.Data})
	case messages.ErrorRecord:
		p.pushEvent(Event{Kind: ErrorRecordReceived, Data: body.Message})
	case messages.DebugRecord:
		p.pushEvent(Event{Kind: DebugRecordReceived, Data: body.Message})
	case messages.VerboseRecord:
		p.pushEvent(Event{Kind: VerboseRecordReceived, Data: body.Message})
	case messages.WarningRecord:
		p.pushEvent(Event{Kind: WarningRecordReceived, Data: body.Message})
	case messages.InformationRecord:
		p.pushEvent(Event{Kind: InformationRecordReceived, Data: body.Message})
	case messages.ProgressRecord:
		p.pushEvent(Event{Kind: ProgressRecordReceived, Data: body.ToValue()})
	case messages.PipelineState:
		p.state = fromWireState(body.State)
		p.pushEvent(Event{Kind: StateChanged, State: p.state, Data: body.ErrorRecord})
	case messages.PipelineHostCall:
		p.pendingInboundCalls[body.CallID] = body.MethodID
		p.pushEvent(Event{Kind: HostCallReceived, CallID: body.CallID, MethodID: body.MethodID, Args: body.Args})
	case messages.PipelineHostResponse:
		if _, ok := p.pendingOutboundCalls[body.CallID]; !ok {
			p.pushEvent(Event{Kind: UnknownHostCall, CallID: body.CallID, Err: &UnknownHostCallError{CallID: body.CallID}})
			return true
		}
		delete(p.pendingOutboundCalls, body.CallID)
		p.pushEvent(Event{
			Kind:        HostResponseReceived,
			CallID:      body.CallID,
			MethodID:    body.MethodID,
			ReturnValue: body.ReturnValue,
			HostError:   body.Error,
		})
	default:
		return false
	}
	return true
}
