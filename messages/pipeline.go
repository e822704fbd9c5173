package messages

import "github.com/smnsjas/go-psrpcore/types"

// Command is one element of a CREATE_PIPELINE invocation (spec.md §4.7:
// "command text, is-script, use-local-scope, list of parameters ... plus
// ... merge-policy for the six streams").
type Command struct {
	Text          string
	IsScript      bool
	UseLocalScope bool
	Parameters    []CommandParameter
	MergeMyResult MergePolicy
}

// CommandParameter is a single named (or positional, when Name is empty)
// argument to a Command.
type CommandParameter struct {
	Name  string
	Value types.Value
}

// MergePolicy selects which of the five non-output streams, if any, a
// command redirects into the Output stream (spec.md §4.7).
type MergePolicy int32

const (
	MergeNone MergePolicy = iota
	MergeError
	MergeWarning
	MergeVerbose
	MergeDebug
	MergeInformation
)

// CreatePipeline instantiates a new pipeline within a runspace pool
// (spec.md §4.7's "Creation" paragraph).
type CreatePipeline struct {
	Commands          []Command
	NoInput           bool
	AddToHistory      bool
	IsNested          bool
	HostInfo          types.Value
}

func (CreatePipeline) Type() Type { return CreatePipelineType }

func (m CreatePipeline) ToValue() types.Value {
	pipeline := types.NewObject("System.Management.Automation.Runspaces.PSObjectPipeline")
	cmds := types.NewObject("System.Collections.Generic.List`1")
	cmds.CollectionKind = types.List
	for _, c := range m.Commands {
		co := types.NewObject("System.Management.Automation.Runspaces.Command")
		co.SetAdapted("Cmd", types.String{V: c.Text})
		co.SetAdapted("IsScript", types.Bool{V: c.IsScript})
		co.SetAdapted("UseLocalScope", types.Bool{V: c.UseLocalScope})
		co.SetAdapted("MergeMyResult", types.Int32{V: int32(c.MergeMyResult)})
		params := types.NewObject("System.Collections.Generic.List`1")
		params.CollectionKind = types.List
		for _, p := range c.Parameters {
			po := types.NewObject("System.Management.Automation.Runspaces.CommandParameter")
			po.SetAdapted("N", types.String{V: p.Name})
			po.SetAdapted("V", p.Value)
			params.ListItems = append(params.ListItems, po)
		}
		co.SetAdapted("Args", params)
		cmds.ListItems = append(cmds.ListItems, co)
	}
	pipeline.SetAdapted("Cmds", cmds)
	pipeline.SetAdapted("IsNested", types.Bool{V: m.IsNested})
	pipeline.SetAdapted("NoInput", types.Bool{V: m.NoInput})
	pipeline.SetAdapted("AddToHistory", types.Bool{V: m.AddToHistory})
	if m.HostInfo != nil {
		pipeline.SetAdapted("HostInfo", m.HostInfo)
	}
	return pipeline
}

func parseCreatePipeline(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: CreatePipelineType}
	}
	m := CreatePipeline{
		NoInput:      propBool(o, "NoInput"),
		AddToHistory: propBool(o, "AddToHistory"),
		IsNested:     propBool(o, "IsNested"),
	}
	if hi, ok := o.Property("HostInfo"); ok {
		m.HostInfo = hi
	}
	cmdsVal, ok := o.Property("Cmds")
	if !ok {
		return m, nil
	}
	cmdsObj, ok := cmdsVal.(*types.Object)
	if !ok {
		return m, nil
	}
	for _, item := range cmdsObj.Items() {
		co, ok := item.(*types.Object)
		if !ok {
			continue
		}
		c := Command{
			Text:          propString(co, "Cmd"),
			IsScript:      propBool(co, "IsScript"),
			UseLocalScope: propBool(co, "UseLocalScope"),
			MergeMyResult: MergePolicy(propInt32(co, "MergeMyResult")),
		}
		if argsVal, ok := co.Property("Args"); ok {
			if argsObj, ok := argsVal.(*types.Object); ok {
				for _, arg := range argsObj.Items() {
					po, ok := arg.(*types.Object)
					if !ok {
						continue
					}
					val, _ := po.Property("V")
					c.Parameters = append(c.Parameters, CommandParameter{Name: propString(po, "N"), Value: val})
				}
			}
		}
		m.Commands = append(m.Commands, c)
	}
	return m, nil
}

func init() { parsers[CreatePipelineType] = parseCreatePipeline }

// PipelineInput carries one input object streamed to a running pipeline
// (spec.md §4.7's "Input streaming" paragraph).
type PipelineInput struct {
	Data types.Value
}

func (PipelineInput) Type() Type           { return PipelineInputType }
func (m PipelineInput) ToValue() types.Value { return m.Data }

func parsePipelineInput(v types.Value) (Body, error) { return PipelineInput{Data: v}, nil }

func init() { parsers[PipelineInputType] = parsePipelineInput }

// EndOfPipelineInput terminates the PIPELINE_INPUT stream for a pipeline.
type EndOfPipelineInput struct{}

func (EndOfPipelineInput) Type() Type           { return EndOfPipelineInputType }
func (EndOfPipelineInput) ToValue() types.Value { return types.Null{} }

func parseEndOfPipelineInput(types.Value) (Body, error) { return EndOfPipelineInput{}, nil }

func init() { parsers[EndOfPipelineInputType] = parseEndOfPipelineInput }

// PipelineOutput is one produced output object.
type PipelineOutput struct {
	Data types.Value
}

func (PipelineOutput) Type() Type             { return PipelineOutputType }
func (m PipelineOutput) ToValue() types.Value { return m.Data }

func parsePipelineOutput(v types.Value) (Body, error) { return PipelineOutput{Data: v}, nil }

func init() { parsers[PipelineOutputType] = parsePipelineOutput }

// PipelineInvocationState mirrors spec.md §3's pipeline state list.
type PipelineInvocationState int32

const (
	PipelineNotStarted PipelineInvocationState = iota
	PipelineRunning
	PipelineStopping
	PipelineStopped
	PipelineCompleted
	PipelineFailed
	PipelineDisconnected
)

// PipelineState announces a pipeline reaching a terminal (or Stopping)
// state, optionally with the failure's error record.
type PipelineState struct {
	State       PipelineInvocationState
	ErrorRecord types.Value
}

func (PipelineState) Type() Type { return PipelineStateType }

func (m PipelineState) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Runspaces.PipelineStateInfo")
	o.SetAdapted("PipelineState", types.Int32{V: int32(m.State)})
	if m.ErrorRecord != nil {
		o.SetAdapted("ExceptionAsErrorRecord", m.ErrorRecord)
	}
	return o
}

func parsePipelineState(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: PipelineStateType}
	}
	m := PipelineState{State: PipelineInvocationState(propInt32(o, "PipelineState"))}
	if er, ok := o.Property("ExceptionAsErrorRecord"); ok {
		m.ErrorRecord = er
	}
	return m, nil
}

func init() { parsers[PipelineStateType] = parsePipelineState }

// PipelineHostCall and PipelineHostResponse correlate a pipeline-scoped
// host method invocation with its answer (spec.md §4.7's "Host calls"
// paragraph). Call-ids are allocated by pipeline.Pipeline, not here.
type PipelineHostCall struct {
	CallID   int64
	MethodID int32
	Args     []types.Value
}

func (PipelineHostCall) Type() Type { return PipelineHostCallType }

func (m PipelineHostCall) ToValue() types.Value {
	return encodeHostCall(m.CallID, m.MethodID, m.Args)
}

func parsePipelineHostCall(v types.Value) (Body, error) {
	callID, methodID, args, err := decodeHostCall(v, PipelineHostCallType)
	if err != nil {
		return nil, err
	}
	return PipelineHostCall{CallID: callID, MethodID: methodID, Args: args}, nil
}

func init() { parsers[PipelineHostCallType] = parsePipelineHostCall }

type PipelineHostResponse struct {
	CallID      int64
	MethodID    int32
	ReturnValue types.Value
	Error       types.Value
}

func (PipelineHostResponse) Type() Type { return PipelineHostResponseType }

func (m PipelineHostResponse) ToValue() types.Value {
	return encodeHostResponse(m.CallID, m.MethodID, m.ReturnValue, m.Error)
}

func parsePipelineHostResponse(v types.Value) (Body, error) {
	callID, methodID, ret, errv, err := decodeHostResponse(v, PipelineHostResponseType)
	if err != nil {
		return nil, err
	}
	return PipelineHostResponse{CallID: callID, MethodID: methodID, ReturnValue: ret, Error: errv}, nil
}

func init() { parsers[PipelineHostResponseType] = parsePipelineHostResponse }

// record is the shared shape of the five informational/diagnostic streams
// (spec.md §4.7: "Output: server emits ... any of ERROR_RECORD /
// DEBUG_RECORD / VERBOSE_RECORD / WARNING_RECORD / PROGRESS_RECORD /
// INFORMATION_RECORD"). Each gets its own Body type so callers can type
// switch on the concrete stream, but they share one encode/decode helper.
type record struct {
	Message types.Value
}

func encodeRecord(typeName string, msg types.Value) types.Value {
	o := types.NewObject(typeName)
	o.SetAdapted("Message", msg)
	return o
}

func decodeRecord(v types.Value, t Type) (types.Value, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: t}
	}
	msg, _ := o.Property("Message")
	return msg, nil
}

type ErrorRecord struct{ Message types.Value }

func (ErrorRecord) Type() Type             { return ErrorRecordType }
func (m ErrorRecord) ToValue() types.Value { return encodeRecord("System.Management.Automation.ErrorRecord", m.Message) }

func parseErrorRecord(v types.Value) (Body, error) {
	msg, err := decodeRecord(v, ErrorRecordType)
	if err != nil {
		return nil, err
	}
	return ErrorRecord{Message: msg}, nil
}

func init() { parsers[ErrorRecordType] = parseErrorRecord }

type DebugRecord struct{ Message types.Value }

func (DebugRecord) Type() Type             { return DebugRecordType }
func (m DebugRecord) ToValue() types.Value { return encodeRecord("System.Management.Automation.DebugRecord", m.Message) }

func parseDebugRecord(v types.Value) (Body, error) {
	msg, err := decodeRecord(v, DebugRecordType)
	if err != nil {
		return nil, err
	}
	return DebugRecord{Message: msg}, nil
}

func init() { parsers[DebugRecordType] = parseDebugRecord }

type VerboseRecord struct{ Message types.Value }

func (VerboseRecord) Type() Type             { return VerboseRecordType }
func (m VerboseRecord) ToValue() types.Value { return encodeRecord("System.Management.Automation.VerboseRecord", m.Message) }

func parseVerboseRecord(v types.Value) (Body, error) {
	msg, err := decodeRecord(v, VerboseRecordType)
	if err != nil {
		return nil, err
	}
	return VerboseRecord{Message: msg}, nil
}

func init() { parsers[VerboseRecordType] = parseVerboseRecord }

type WarningRecord struct{ Message types.Value }

func (WarningRecord) Type() Type             { return WarningRecordType }
func (m WarningRecord) ToValue() types.Value { return encodeRecord("System.Management.Automation.WarningRecord", m.Message) }

func parseWarningRecord(v types.Value) (Body, error) {
	msg, err := decodeRecord(v, WarningRecordType)
	if err != nil {
		return nil, err
	}
	return WarningRecord{Message: msg}, nil
}

func init() { parsers[WarningRecordType] = parseWarningRecord }

type InformationRecord struct{ Message types.Value }

func (InformationRecord) Type() Type { return InformationRecordType }
func (m InformationRecord) ToValue() types.Value {
	return encodeRecord("System.Management.Automation.InformationRecord", m.Message)
}

func parseInformationRecord(v types.Value) (Body, error) {
	msg, err := decodeRecord(v, InformationRecordType)
	if err != nil {
		return nil, err
	}
	return InformationRecord{Message: msg}, nil
}

func init() { parsers[InformationRecordType] = parseInformationRecord }

// ProgressRecord is structurally richer than the other streams (activity
// id, description, percent complete) so it keeps its own property set
// rather than reusing the shared record{} shape.
type ProgressRecord struct {
	ActivityID        int32
	Activity          string
	StatusDescription string
	PercentComplete   int32
	RecordType        int32
}

func (ProgressRecord) Type() Type { return ProgressRecordType }

func (m ProgressRecord) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.ProgressRecord")
	o.SetAdapted("ActivityId", types.Int32{V: m.ActivityID})
	o.SetAdapted("Activity", types.String{V: m.Activity})
	o.SetAdapted("StatusDescription", types.String{V: m.StatusDescription})
	o.SetAdapted("PercentComplete", types.Int32{V: m.PercentComplete})
	o.SetAdapted("Type", types.Int32{V: m.RecordType})
	return o
}

func parseProgressRecord(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: ProgressRecordType}
	}
	return ProgressRecord{
		ActivityID:        propInt32(o, "ActivityId"),
		Activity:          propString(o, "Activity"),
		StatusDescription: propString(o, "StatusDescription"),
		PercentComplete:   propInt32(o, "PercentComplete"),
		RecordType:        propInt32(o, "Type"),
	}, nil
}

func init() { parsers[ProgressRecordType] = parseProgressRecord }
