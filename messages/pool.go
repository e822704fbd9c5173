package messages

import "github.com/smnsjas/go-psrpcore/types"

// PoolState mirrors the numeric RunspacePoolState values PSRP wires over
// RUNSPACEPOOL_STATE, distinct from runspace.State which is this module's
// own richer state-machine enum (spec.md §3's BeforeOpen..Broken list plus
// the optional Disconnected/Connecting states).
type PoolState int32

const (
	PoolStateBeforeOpen PoolState = iota
	PoolStateOpening
	PoolStateOpened
	PoolStateClosed
	PoolStateClosing
	PoolStateBroken
	PoolStateNegotiationSent
	PoolStateNegotiationSucceeded
	PoolStateNegotiationFailed
	PoolStateDisconnected
)

// SetMaxRunspaces adjusts a pool's upper runspace bound post-open.
type SetMaxRunspaces struct {
	MaxRunspaces int32
	CallID       int64
}

func (SetMaxRunspaces) Type() Type { return SetMaxRunspacesType }

func (m SetMaxRunspaces) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.SetMaxRunspaces")
	o.SetAdapted("MaxRunspaces", types.Int32{V: m.MaxRunspaces})
	o.SetAdapted("ci", types.Int64{V: m.CallID})
	return o
}

func parseSetMaxRunspaces(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: SetMaxRunspacesType}
	}
	return SetMaxRunspaces{MaxRunspaces: propInt32(o, "MaxRunspaces")}, nil
}

func init() { parsers[SetMaxRunspacesType] = parseSetMaxRunspaces }

// SetMinRunspaces adjusts a pool's lower runspace bound post-open.
type SetMinRunspaces struct {
	MinRunspaces int32
	CallID       int64
}

func (SetMinRunspaces) Type() Type { return SetMinRunspacesType }

func (m SetMinRunspaces) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.SetMinRunspaces")
	o.SetAdapted("MinRunspaces", types.Int32{V: m.MinRunspaces})
	o.SetAdapted("ci", types.Int64{V: m.CallID})
	return o
}

func parseSetMinRunspaces(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: SetMinRunspacesType}
	}
	return SetMinRunspaces{MinRunspaces: propInt32(o, "MinRunspaces")}, nil
}

func init() { parsers[SetMinRunspacesType] = parseSetMinRunspaces }

// GetAvailableRunspaces requests the current available-runspace count.
type GetAvailableRunspaces struct {
	CallID int64
}

func (GetAvailableRunspaces) Type() Type { return GetAvailableRunspacesType }

func (m GetAvailableRunspaces) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.GetRunspaceAvailability")
	o.SetAdapted("ci", types.Int64{V: m.CallID})
	return o
}

func parseGetAvailableRunspaces(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: GetAvailableRunspacesType}
	}
	ci, _ := o.Property("ci")
	callID, _ := ci.(types.Int64)
	return GetAvailableRunspaces{CallID: callID.V}, nil
}

func init() { parsers[GetAvailableRunspacesType] = parseGetAvailableRunspaces }

// RunspaceAvailability is the reply to GetAvailableRunspaces or to a
// SetMax/SetMinRunspaces acknowledgement.
type RunspaceAvailability struct {
	CallID    int64
	Available int64
	SetResult bool // when true, Available instead carries 0/1 as a bool-as-int ack
}

func (RunspaceAvailability) Type() Type { return RunspaceAvailabilityType }

func (m RunspaceAvailability) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.RunspaceAvailability")
	o.SetAdapted("SetMinMaxRunspacesResponse", types.Int64{V: m.Available})
	o.SetAdapted("ci", types.Int64{V: m.CallID})
	return o
}

func parseRunspaceAvailability(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: RunspaceAvailabilityType}
	}
	avail, _ := o.Property("SetMinMaxRunspacesResponse")
	i, _ := avail.(types.Int64)
	ci, _ := o.Property("ci")
	callID, _ := ci.(types.Int64)
	return RunspaceAvailability{Available: i.V, CallID: callID.V}, nil
}

func init() { parsers[RunspaceAvailabilityType] = parseRunspaceAvailability }

// RunspacePoolState announces a pool state transition, optionally carrying
// the reason when the new state is Broken.
type RunspacePoolState struct {
	State        PoolState
	ErrorRecord  types.Value
}

func (RunspacePoolState) Type() Type { return RunspacePoolStateType }

func (m RunspacePoolState) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.RunspacePoolStateInfo")
	o.SetAdapted("RunspaceState", types.Int32{V: int32(m.State)})
	if m.ErrorRecord != nil {
		o.SetAdapted("ExceptionAsErrorRecord", m.ErrorRecord)
	}
	return o
}

func parseRunspacePoolState(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: RunspacePoolStateType}
	}
	m := RunspacePoolState{State: PoolState(propInt32(o, "RunspaceState"))}
	if er, ok := o.Property("ExceptionAsErrorRecord"); ok {
		m.ErrorRecord = er
	}
	return m, nil
}

func init() { parsers[RunspacePoolStateType] = parseRunspacePoolState }

// ApplicationPrivateData is opaque host-defined data sent once at open.
type ApplicationPrivateData struct {
	Data types.Value
}

func (ApplicationPrivateData) Type() Type { return ApplicationPrivateDataType }

func (m ApplicationPrivateData) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.ApplicationPrivateData")
	if m.Data != nil {
		o.SetAdapted("ApplicationPrivateData", m.Data)
	}
	return o
}

func parseApplicationPrivateData(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: ApplicationPrivateDataType}
	}
	d, _ := o.Property("ApplicationPrivateData")
	return ApplicationPrivateData{Data: d}, nil
}

func init() { parsers[ApplicationPrivateDataType] = parseApplicationPrivateData }

// RunspacePoolInitData is sent by the server once, at open, to communicate
// the negotiated min/max runspace counts to a reconnecting client.
type RunspacePoolInitData struct {
	MinRunspaces int32
	MaxRunspaces int32
}

func (RunspacePoolInitData) Type() Type { return RunspacePoolInitDataType }

func (m RunspacePoolInitData) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.RunspacePoolInitData")
	o.SetAdapted("MinRunspaces", types.Int32{V: m.MinRunspaces})
	o.SetAdapted("MaxRunspaces", types.Int32{V: m.MaxRunspaces})
	return o
}

func parseRunspacePoolInitData(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: RunspacePoolInitDataType}
	}
	return RunspacePoolInitData{MinRunspaces: propInt32(o, "MinRunspaces"), MaxRunspaces: propInt32(o, "MaxRunspaces")}, nil
}

func init() { parsers[RunspacePoolInitDataType] = parseRunspacePoolInitData }

// ResetRunspaceState requests the server discard pipeline/runspace-local
// state and return the pool to a clean slate without closing it.
type ResetRunspaceState struct {
	CallID int64
}

func (ResetRunspaceState) Type() Type { return ResetRunspaceStateType }

func (m ResetRunspaceState) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.ResetRunspaceState")
	o.SetAdapted("ci", types.Int64{V: m.CallID})
	return o
}

func parseResetRunspaceState(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: ResetRunspaceStateType}
	}
	ci, _ := o.Property("ci")
	callID, _ := ci.(types.Int64)
	return ResetRunspaceState{CallID: callID.V}, nil
}

func init() { parsers[ResetRunspaceStateType] = parseResetRunspaceState }

// UserEvent is a host-defined event raised by the server out-of-band.
type UserEvent struct {
	EventID   int32
	SourceID  string
	Data      types.Value
}

func (UserEvent) Type() Type { return UserEventType }

func (m UserEvent) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.PSEventArgs")
	o.SetAdapted("PSEventArgs.EventIdentifier", types.Int32{V: m.EventID})
	o.SetAdapted("PSEventArgs.SourceIdentifier", types.String{V: m.SourceID})
	if m.Data != nil {
		o.SetAdapted("PSEventArgs.SourceArgs", m.Data)
	}
	return o
}

func parseUserEvent(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: UserEventType}
	}
	m := UserEvent{
		EventID:  propInt32(o, "PSEventArgs.EventIdentifier"),
		SourceID: propString(o, "PSEventArgs.SourceIdentifier"),
	}
	if d, ok := o.Property("PSEventArgs.SourceArgs"); ok {
		m.Data = d
	}
	return m, nil
}

func init() { parsers[UserEventType] = parseUserEvent }

// GetCommandMetadata requests metadata for a set of commands, used by
// Get-Command over a remoting session.
type GetCommandMetadata struct {
	Names []string
	CallID int64
}

func (GetCommandMetadata) Type() Type { return GetCommandMetadataType }

func (m GetCommandMetadata) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.GetCommandMetadata")
	names := types.NewObject("System.String[]")
	names.CollectionKind = types.List
	for _, n := range m.Names {
		names.ListItems = append(names.ListItems, types.String{V: n})
	}
	o.SetAdapted("Name", names)
	o.SetAdapted("ci", types.Int64{V: m.CallID})
	return o
}

func parseGetCommandMetadata(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: GetCommandMetadataType}
	}
	m := GetCommandMetadata{}
	if namesVal, ok := o.Property("Name"); ok {
		if namesObj, ok := namesVal.(*types.Object); ok {
			for _, item := range namesObj.Items() {
				if s, ok := item.(types.String); ok {
					m.Names = append(m.Names, s.V)
				}
			}
		}
	}
	ci, _ := o.Property("ci")
	callID, _ := ci.(types.Int64)
	m.CallID = callID.V
	return m, nil
}

func init() { parsers[GetCommandMetadataType] = parseGetCommandMetadata }

// RunspacePoolHostCall and RunspacePoolHostResponse carry pool-scoped host
// method invocations (as opposed to pipeline-scoped PipelineHostCall).
type RunspacePoolHostCall struct {
	CallID   int64
	MethodID int32
	Args     []types.Value
}

func (RunspacePoolHostCall) Type() Type { return RunspacePoolHostCallType }

func (m RunspacePoolHostCall) ToValue() types.Value {
	return encodeHostCall(m.CallID, m.MethodID, m.Args)
}

func parseRunspacePoolHostCall(v types.Value) (Body, error) {
	callID, methodID, args, err := decodeHostCall(v, RunspacePoolHostCallType)
	if err != nil {
		return nil, err
	}
	return RunspacePoolHostCall{CallID: callID, MethodID: methodID, Args: args}, nil
}

func init() { parsers[RunspacePoolHostCallType] = parseRunspacePoolHostCall }

type RunspacePoolHostResponse struct {
	CallID      int64
	MethodID    int32
	ReturnValue types.Value
	Error       types.Value
}

func (RunspacePoolHostResponse) Type() Type { return RunspacePoolHostResponseType }

func (m RunspacePoolHostResponse) ToValue() types.Value {
	return encodeHostResponse(m.CallID, m.MethodID, m.ReturnValue, m.Error)
}

func parseRunspacePoolHostResponse(v types.Value) (Body, error) {
	callID, methodID, ret, errv, err := decodeHostResponse(v, RunspacePoolHostResponseType)
	if err != nil {
		return nil, err
	}
	return RunspacePoolHostResponse{CallID: callID, MethodID: methodID, ReturnValue: ret, Error: errv}, nil
}

func init() { parsers[RunspacePoolHostResponseType] = parseRunspacePoolHostResponse }

func encodeHostCall(callID int64, methodID int32, args []types.Value) types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.RemoteHostCall")
	o.SetAdapted("ci", types.Int64{V: callID})
	o.SetAdapted("mi", types.Int32{V: methodID})
	mp := types.NewObject("System.Object[]")
	mp.CollectionKind = types.List
	mp.ListItems = args
	o.SetAdapted("mp", mp)
	return o
}

func decodeHostCall(v types.Value, t Type) (callID int64, methodID int32, args []types.Value, err error) {
	o, ok := asObject(v)
	if !ok {
		return 0, 0, nil, &UnexpectedBodyShapeError{Type: t}
	}
	ci, _ := o.Property("ci")
	if i, ok := ci.(types.Int64); ok {
		callID = i.V
	}
	methodID = propInt32(o, "mi")
	if mp, ok := o.Property("mp"); ok {
		if mpObj, ok := mp.(*types.Object); ok {
			args = mpObj.Items()
		}
	}
	return callID, methodID, args, nil
}

func encodeHostResponse(callID int64, methodID int32, ret, errv types.Value) types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.RemoteHostResponse")
	o.SetAdapted("ci", types.Int64{V: callID})
	o.SetAdapted("mi", types.Int32{V: methodID})
	if ret != nil {
		o.SetAdapted("mr", ret)
	}
	if errv != nil {
		o.SetAdapted("me", errv)
	}
	return o
}

func decodeHostResponse(v types.Value, t Type) (callID int64, methodID int32, ret, errv types.Value, err error) {
	o, ok := asObject(v)
	if !ok {
		return 0, 0, nil, nil, &UnexpectedBodyShapeError{Type: t}
	}
	ci, _ := o.Property("ci")
	if i, ok := ci.(types.Int64); ok {
		callID = i.V
	}
	methodID = propInt32(o, "mi")
	ret, _ = o.Property("mr")
	errv, _ = o.Property("me")
	return callID, methodID, ret, errv, nil
}
