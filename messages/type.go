// Package messages implements the PSRP MessageLayer: typed structs for the
// MS-PSRP message bodies, conversions to and from types.Value, and the
// 40-byte fixed message header from spec.md's wire layout section.
package messages

import "fmt"

// Type identifies one of the MS-PSRP message shapes (spec.md §4.4's
// enumeration). Values follow the grouping the MS-PSRP message type table
// uses: 0x0001_xxxx for the pool negotiation/key-exchange phase, 0x0002_1xxx
// for runspace-pool-scoped control messages, and 0x0002_2xxx for
// pipeline-scoped messages.
type Type uint32

const (
	SessionCapabilityType   Type = 0x00010002
	InitRunspacePoolType    Type = 0x00010004
	PublicKeyType           Type = 0x00010005
	EncryptedSessionKeyType Type = 0x00010006
	PublicKeyRequestType    Type = 0x00010007
	ConnectRunspacePoolType Type = 0x00010008

	SetMaxRunspacesType          Type = 0x00021002
	SetMinRunspacesType          Type = 0x00021003
	RunspaceAvailabilityType     Type = 0x00021004
	RunspacePoolStateType        Type = 0x00021005
	CreatePipelineType           Type = 0x00021006
	GetAvailableRunspacesType    Type = 0x00021007
	UserEventType                Type = 0x00021008
	ApplicationPrivateDataType   Type = 0x00021009
	GetCommandMetadataType       Type = 0x0002100A
	RunspacePoolHostCallType     Type = 0x00021010
	RunspacePoolHostResponseType Type = 0x00021011
	RunspacePoolInitDataType     Type = 0x00021012
	ResetRunspaceStateType       Type = 0x00021013
)

// Pipeline-scoped message types (0x0002_2xxx block).
const (
	PipelineInputType        Type = 0x00022001
	EndOfPipelineInputType   Type = 0x00022002
	PipelineOutputType       Type = 0x00022003
	ErrorRecordType          Type = 0x00022004
	PipelineStateType        Type = 0x00022005
	DebugRecordType          Type = 0x00022006
	PipelineHostCallType     Type = 0x00022007
	PipelineHostResponseType Type = 0x00022008
	VerboseRecordType        Type = 0x00022009
	ProgressRecordType       Type = 0x0002200A
	WarningRecordType        Type = 0x0002200B
	InformationRecordType    Type = 0x0002200C
)

// Destination identifies which side a message targets.
type Destination uint32

const (
	DestinationClient Destination = 0x00000001
	DestinationServer Destination = 0x00000002
)

// String renders a human-readable name for known types, or a hex fallback
// for anything messages.Generic would carry.
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(0x%08X)", uint32(t))
}

var typeNames = map[Type]string{
	SessionCapabilityType:        "SESSION_CAPABILITY",
	InitRunspacePoolType:         "INIT_RUNSPACEPOOL",
	PublicKeyType:                "PUBLIC_KEY",
	EncryptedSessionKeyType:      "ENCRYPTED_SESSION_KEY",
	PublicKeyRequestType:         "PUBLIC_KEY_REQUEST",
	ConnectRunspacePoolType:      "CONNECT_RUNSPACEPOOL",
	SetMaxRunspacesType:          "SET_MAX_RUNSPACES",
	SetMinRunspacesType:          "SET_MIN_RUNSPACES",
	RunspaceAvailabilityType:     "RUNSPACE_AVAILABILITY",
	RunspacePoolStateType:        "RUNSPACEPOOL_STATE",
	CreatePipelineType:           "CREATE_PIPELINE",
	GetAvailableRunspacesType:    "GET_AVAILABLE_RUNSPACES",
	UserEventType:                "USER_EVENT",
	ApplicationPrivateDataType:   "APPLICATION_PRIVATE_DATA",
	GetCommandMetadataType:       "GET_COMMAND_METADATA",
	RunspacePoolHostCallType:     "RUNSPACEPOOL_HOST_CALL",
	RunspacePoolHostResponseType: "RUNSPACEPOOL_HOST_RESPONSE",
	RunspacePoolInitDataType:     "RUNSPACEPOOL_INIT_DATA",
	ResetRunspaceStateType:       "RESET_RUNSPACE_STATE",
	PipelineInputType:            "PIPELINE_INPUT",
	EndOfPipelineInputType:       "END_OF_PIPELINE_INPUT",
	PipelineOutputType:           "PIPELINE_OUTPUT",
	ErrorRecordType:              "ERROR_RECORD",
	PipelineStateType:            "PIPELINE_STATE",
	DebugRecordType:              "DEBUG_RECORD",
	PipelineHostCallType:         "PIPELINE_HOST_CALL",
	PipelineHostResponseType:     "PIPELINE_HOST_RESPONSE",
	VerboseRecordType:            "VERBOSE_RECORD",
	ProgressRecordType:           "PROGRESS_RECORD",
	WarningRecordType:            "WARNING_RECORD",
	InformationRecordType:        "INFORMATION_RECORD",
}
