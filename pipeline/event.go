package pipeline

import "github.com/smnsjas/go-psrpcore/types"

// EventKind discriminates the Event union a Pipeline's NextEvent delivers,
// populated by Apply from matching runspace.PipelineEvent occurrences and by
// the pipeline's own Start, Stop and Complete transitions.
type EventKind int

const (
	StateChanged EventKind = iota
	Output
	ErrorRecordReceived
	DebugRecordReceived
	VerboseRecordReceived
	WarningRecordReceived
	InformationRecordReceived
	ProgressRecordReceived
	HostCallReceived
	HostResponseReceived
	UnknownHostCall
)

// Event is the tagged union NextEvent delivers.
type Event struct {
	Kind EventKind

	State State
	Err   error

	Data types.Value // Output, *RecordReceived

	CallID      int64
	MethodID    int32
	Args        []types.Value // HostCallReceived
	ReturnValue types.Value   // HostResponseReceived
	HostError   types.Value   // HostResponseReceived
}
