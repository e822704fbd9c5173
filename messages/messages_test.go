package messages

import (
	"testing"

	"github.com/google/uuid"
	"github.com/smnsjas/go-psrpcore/clixml"
	"github.com/smnsjas/go-psrpcore/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	poolID := uuid.New()
	pipeID := uuid.New()
	m := Message{
		Destination:    DestinationServer,
		Type:           SessionCapabilityType,
		RunspacePoolID: poolID,
		PipelineID:     pipeID,
		Body:           []byte("<Obj/>"),
	}
	b := Encode(m)
	assert.Len(t, b, HeaderSize+3+len("<Obj/>"))

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, m.Destination, got.Destination)
	assert.Equal(t, m.Type, got.Type)
	assert.Equal(t, poolID, got.RunspacePoolID)
	assert.Equal(t, pipeID, got.PipelineID)
	assert.Equal(t, m.Body, got.Body)
}

func TestHeaderDecodeStripsBOM(t *testing.T) {
	raw := Encode(Message{Type: SessionCapabilityType, Body: []byte("x")})
	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got.Body)
}

func bodyRoundTrip(t *testing.T, b Body) Body {
	t.Helper()
	s, err := clixml.Marshal(b.ToValue())
	require.NoError(t, err)
	values, err := clixml.Unmarshal(s)
	require.NoError(t, err)
	require.Len(t, values, 1)
	got, err := ParseBody(b.Type(), values[0])
	require.NoError(t, err)
	return got
}

func TestSessionCapabilityRoundTrip(t *testing.T) {
	m := SessionCapability{ProtocolVersion: "2.3", PSVersion: "5.1", SerializationVersion: "1.1.0.1"}
	got := bodyRoundTrip(t, m)
	assert.Equal(t, m, got)
}

func TestInitRunspacePoolRoundTrip(t *testing.T) {
	m := InitRunspacePool{MinRunspaces: 1, MaxRunspaces: 4}
	got, ok := bodyRoundTrip(t, m).(InitRunspacePool)
	require.True(t, ok)
	assert.Equal(t, m.MinRunspaces, got.MinRunspaces)
	assert.Equal(t, m.MaxRunspaces, got.MaxRunspaces)
}

func TestRunspacePoolStateRoundTrip(t *testing.T) {
	m := RunspacePoolState{State: PoolStateOpened}
	got := bodyRoundTrip(t, m)
	assert.Equal(t, m, got)
}

func TestCreatePipelineRoundTrip(t *testing.T) {
	m := CreatePipeline{
		Commands: []Command{{
			Text:       "Get-Process",
			IsScript:   false,
			Parameters: []CommandParameter{{Name: "Name", Value: types.String{V: "pwsh"}}},
		}},
		NoInput: true,
	}
	got, ok := bodyRoundTrip(t, m).(CreatePipeline)
	require.True(t, ok)
	require.Len(t, got.Commands, 1)
	assert.Equal(t, "Get-Process", got.Commands[0].Text)
	require.Len(t, got.Commands[0].Parameters, 1)
	assert.Equal(t, "Name", got.Commands[0].Parameters[0].Name)
	assert.True(t, got.NoInput)
}

func TestPipelineOutputRoundTrip(t *testing.T) {
	m := PipelineOutput{Data: types.String{V: "result"}}
	got, ok := bodyRoundTrip(t, m).(PipelineOutput)
	require.True(t, ok)
	assert.Equal(t, types.String{V: "result"}, got.Data)
}

func TestParseBodyUnknownTypeFallsBackToGeneric(t *testing.T) {
	v := types.String{V: "opaque"}
	got, err := ParseBody(Type(0xDEADBEEF), v)
	require.NoError(t, err)
	g, ok := got.(Generic)
	require.True(t, ok)
	assert.Equal(t, Type(0xDEADBEEF), g.RawType)
	assert.Equal(t, v, g.ToValue())
}

func TestHostCallRoundTrip(t *testing.T) {
	m := PipelineHostCall{CallID: 42, MethodID: 7, Args: []types.Value{types.String{V: "a"}, types.Int32{V: 3}}}
	got, ok := bodyRoundTrip(t, m).(PipelineHostCall)
	require.True(t, ok)
	assert.Equal(t, int64(42), got.CallID)
	assert.Equal(t, int32(7), got.MethodID)
	require.Len(t, got.Args, 2)
}
