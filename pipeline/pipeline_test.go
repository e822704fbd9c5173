package pipeline_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-psrpcore/fragment"
	"github.com/smnsjas/go-psrpcore/messages"
	"github.com/smnsjas/go-psrpcore/pipeline"
	"github.com/smnsjas/go-psrpcore/runspace"
	"github.com/smnsjas/go-psrpcore/types"
)

func newOpenPool(t *testing.T) *runspace.Pool {
	t.Helper()
	p := runspace.NewClient(runspace.Config{})
	require.NoError(t, p.Open())
	return p
}

func drainOne(t *testing.T, p *runspace.Pool) []byte {
	t.Helper()
	return p.DataToSend()
}

func decodeMessages(t *testing.T, b []byte) []messages.Message {
	t.Helper()
	var out []messages.Message
	for len(b) > 0 {
		frag, n, err := fragment.Decode(b)
		require.NoError(t, err)
		require.True(t, frag.Start && frag.End, "expected single-fragment payloads in this test")
		msg, err := messages.Decode(frag.Payload)
		require.NoError(t, err)
		out = append(out, msg)
		b = b[n:]
	}
	return out
}

func TestStartEmitsCreatePipelineAndTransitionsRunning(t *testing.T) {
	pool := newOpenPool(t)
	drainOne(t, pool) // discard the Open() handshake bytes

	pl := pipeline.NewWithID(pool, pool.ID(), uuid.New())
	err := pl.Start([]messages.Command{{Text: "Get-Process", IsScript: false}}, true, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Running, pl.State())

	msgs := decodeMessages(t, drainOne(t, pool))
	require.Len(t, msgs, 1)
	assert.Equal(t, messages.CreatePipelineType, msgs[0].Type)
	assert.Equal(t, pl.ID(), msgs[0].PipelineID)
}

func TestSkipInvokeSendSuppressesCreatePipeline(t *testing.T) {
	pool := newOpenPool(t)
	drainOne(t, pool)

	pl := pipeline.NewWithID(pool, pool.ID(), uuid.New())
	pl.SkipInvokeSend()
	require.NoError(t, pl.Start(nil, true, nil))
	assert.Equal(t, pipeline.Running, pl.State())
	assert.Empty(t, pool.DataToSend())
}

func TestSendInputRejectedWhenNoInputDeclared(t *testing.T) {
	pool := newOpenPool(t)
	drainOne(t, pool)

	pl := pipeline.NewWithID(pool, pool.ID(), uuid.New())
	require.NoError(t, pl.Start(nil, true, nil))

	err := pl.SendInput(types.String{V: "hi"})
	var violation *pipeline.ProtocolViolationError
	require.ErrorAs(t, err, &violation)
}

func TestSendInputRejectedAfterCloseInput(t *testing.T) {
	pool := newOpenPool(t)
	drainOne(t, pool)

	pl := pipeline.NewWithID(pool, pool.ID(), uuid.New())
	require.NoError(t, pl.Start(nil, false, nil))
	require.NoError(t, pl.SendInput(types.String{V: "first"}))
	require.NoError(t, pl.CloseInput())

	err := pl.SendInput(types.String{V: "second"})
	var violation *pipeline.ProtocolViolationError
	require.ErrorAs(t, err, &violation)
}

func TestApplyTranslatesPipelineOutputAndState(t *testing.T) {
	client := newOpenPool(t)
	drainOne(t, client)
	pipelineID := uuid.New()
	pl := pipeline.NewWithID(client, client.ID(), pipelineID)
	require.NoError(t, pl.Start(nil, true, nil))
	drainOne(t, client)

	server := runspace.NewServer(client.ID(), runspace.Config{})
	server.RegisterPipeline(pipelineID)
	server.SendMessage(messages.PipelineOutput{Data: types.String{V: "hello"}}, pipelineID)
	server.SendMessage(messages.PipelineState{State: messages.PipelineCompleted}, pipelineID)

	require.NoError(t, client.ReceiveData(server.DataToSend()))

	var consumed int
	for {
		ev, ok := client.NextEvent()
		if !ok {
			break
		}
		if pl.Apply(ev) {
			consumed++
		}
	}
	require.Equal(t, 2, consumed)

	startEv, ok := pl.NextEvent()
	require.True(t, ok)
	assert.Equal(t, pipeline.StateChanged, startEv.Kind)
	assert.Equal(t, pipeline.Running, startEv.State)

	e1, ok := pl.NextEvent()
	require.True(t, ok)
	assert.Equal(t, pipeline.Output, e1.Kind)
	assert.Equal(t, types.String{V: "hello"}, e1.Data)

	e2, ok := pl.NextEvent()
	require.True(t, ok)
	assert.Equal(t, pipeline.StateChanged, e2.Kind)
	assert.Equal(t, pipeline.Completed, e2.State)
	assert.Equal(t, pipeline.Completed, pl.State())
}

func TestApplyIgnoresEventsForOtherPipelines(t *testing.T) {
	client := newOpenPool(t)
	drainOne(t, client)
	ownID := uuid.New()
	otherID := uuid.New()
	pl := pipeline.NewWithID(client, client.ID(), ownID)
	_ = pl

	ev := runspace.Event{Kind: runspace.PipelineEvent, PipelineID: otherID, Body: messages.PipelineOutput{Data: types.String{V: "x"}}}
	assert.False(t, pl.Apply(ev))
}

func TestHostResponseUnknownCallID(t *testing.T) {
	pool := newOpenPool(t)
	drainOne(t, pool)
	pl := pipeline.NewWithID(pool, pool.ID(), uuid.New())

	err := pl.HostResponse(99, types.String{V: "ok"}, nil)
	var unknown *pipeline.UnknownHostCallError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, int64(99), unknown.CallID)
}

func TestApplyHostCallThenHostResponseRoundTrip(t *testing.T) {
	client := newOpenPool(t)
	drainOne(t, client)
	pipelineID := uuid.New()
	pl := pipeline.NewWithID(client, client.ID(), pipelineID)
	require.NoError(t, pl.Start(nil, true, nil))
	drainOne(t, client)

	server := runspace.NewServer(client.ID(), runspace.Config{})
	server.RegisterPipeline(pipelineID)
	server.SendMessage(messages.PipelineHostCall{CallID: 1, MethodID: 7, Args: nil}, pipelineID)

	require.NoError(t, client.ReceiveData(server.DataToSend()))
	var consumed int
	for {
		ev, ok := client.NextEvent()
		if !ok {
			break
		}
		if pl.Apply(ev) {
			consumed++
		}
	}
	require.Equal(t, 1, consumed)

	startEv, ok := pl.NextEvent()
	require.True(t, ok)
	assert.Equal(t, pipeline.StateChanged, startEv.Kind)
	assert.Equal(t, pipeline.Running, startEv.State)

	hostEv, ok := pl.NextEvent()
	require.True(t, ok)
	assert.Equal(t, pipeline.HostCallReceived, hostEv.Kind)
	assert.Equal(t, int64(1), hostEv.CallID)

	require.NoError(t, pl.HostResponse(1, types.String{V: "answer"}, nil))

	msgs := decodeMessages(t, client.DataToSend())
	require.Len(t, msgs, 1)
	assert.Equal(t, messages.PipelineHostResponseType, msgs[0].Type)
}

func TestCompleteSendsTerminalStateAndUnregisters(t *testing.T) {
	pool := newOpenPool(t)
	drainOne(t, pool)
	pipelineID := uuid.New()
	pl := pipeline.NewWithID(pool, pool.ID(), pipelineID)
	require.NoError(t, pl.Complete(pipeline.Completed, nil))
	assert.Equal(t, pipeline.Completed, pl.State())

	msgs := decodeMessages(t, pool.DataToSend())
	require.Len(t, msgs, 1)
	assert.Equal(t, messages.PipelineStateType, msgs[0].Type)

	ev, ok := pl.NextEvent()
	require.True(t, ok)
	assert.Equal(t, pipeline.StateChanged, ev.Kind)
	assert.Equal(t, pipeline.Completed, ev.State)

	server := runspace.NewServer(pool.ID(), runspace.Config{})
	server.SendMessage(messages.PipelineOutput{Data: types.String{V: "late"}}, pipelineID)
	require.NoError(t, pool.ReceiveData(server.DataToSend()))
	var sawUnknown bool
	for {
		pev, ok := pool.NextEvent()
		if !ok {
			break
		}
		if pev.Kind == runspace.UnknownPipeline && pev.PipelineID == pipelineID {
			sawUnknown = true
		}
	}
	assert.True(t, sawUnknown)
}
