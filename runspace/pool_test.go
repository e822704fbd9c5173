package runspace

import (
	"testing"

	"github.com/google/uuid"
	"github.com/smnsjas/go-psrpcore/fragment"
	"github.com/smnsjas/go-psrpcore/messages"
	"github.com/smnsjas/go-psrpcore/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenHandshakeEmitsCapabilityThenInit(t *testing.T) {
	client := NewClient(Config{MinRunspaces: 1, MaxRunspaces: 1})
	require.NoError(t, client.Open())

	data := client.DataToSend()
	require.NotEmpty(t, data)

	msgs := decodeAllMessages(t, data)
	require.Len(t, msgs, 2)
	assert.Equal(t, messages.SessionCapabilityType, msgs[0].Type)
	assert.Equal(t, messages.InitRunspacePoolType, msgs[1].Type)
	assert.Equal(t, uuid.Nil, msgs[0].PipelineID)
	assert.Equal(t, uuid.Nil, msgs[1].PipelineID)
	assert.Equal(t, NegotiationSent, client.State())
}

func TestClientBecomesOpenedAfterServerReplies(t *testing.T) {
	client := NewClient(Config{MinRunspaces: 1, MaxRunspaces: 1})
	require.NoError(t, client.Open())
	client.DataToSend()

	server := NewServer(client.ID(), Config{})
	require.NoError(t, client.ReceiveData(encodeOne(t, server, messages.SessionCapability{
		ProtocolVersion: "2.3", PSVersion: "5.1", SerializationVersion: "1.1.0.1",
	})))
	require.NoError(t, client.ReceiveData(encodeOne(t, server, messages.RunspacePoolState{State: messages.PoolStateOpened})))

	sawOpened := false
	for {
		e, ok := client.NextEvent()
		if !ok {
			break
		}
		if e.Kind == PoolOpened {
			sawOpened = true
		}
	}
	assert.True(t, sawOpened)
	assert.Equal(t, Opened, client.State())
}

func TestUnknownPipelineDoesNotBreakPool(t *testing.T) {
	client := NewClient(Config{})
	client.state = Opened

	unknown := uuid.New()
	raw := rawMessage(t, client, messages.PipelineOutput{Data: types.String{V: "x"}}, unknown)
	require.NoError(t, client.ReceiveData(raw))

	e, ok := client.NextEvent()
	require.True(t, ok)
	assert.Equal(t, UnknownPipeline, e.Kind)
	assert.Equal(t, Opened, client.State())
}

func TestRegisteredPipelineDispatchesPipelineEvent(t *testing.T) {
	client := NewClient(Config{})
	client.state = Opened

	pipelineID := uuid.New()
	client.RegisterPipeline(pipelineID)

	raw := rawMessage(t, client, messages.PipelineOutput{Data: types.String{V: "x"}}, pipelineID)
	require.NoError(t, client.ReceiveData(raw))

	e, ok := client.NextEvent()
	require.True(t, ok)
	assert.Equal(t, PipelineEvent, e.Kind)
	assert.Equal(t, pipelineID, e.PipelineID)
}

func TestKeyExchangeRoundTrip(t *testing.T) {
	client := NewClient(Config{})
	client.state = Opened
	server := NewServer(client.ID(), Config{})
	server.state = Opened

	require.NoError(t, client.ExchangeKey())
	clientOut := client.DataToSend()
	require.NotEmpty(t, clientOut)

	require.NoError(t, server.ReceiveData(clientOut))
	serverOut := server.DataToSend()
	require.NotEmpty(t, serverOut)

	require.NoError(t, client.ReceiveData(serverOut))

	var sawExchange bool
	for {
		e, ok := client.NextEvent()
		if !ok {
			break
		}
		if e.Kind == KeyExchangeCompleted {
			sawExchange = true
		}
	}
	assert.True(t, sawExchange)

	ct, err := client.Crypto().Encrypt("hunter2")
	require.NoError(t, err)
	pt, err := server.Crypto().Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pt)
}

// decodeAllMessages decodes every fragment in b assuming each carries one
// complete single-fragment message (true for fixtures this small, since
// MaxFragmentSize defaults far larger than any test payload).
func decodeAllMessages(t *testing.T, b []byte) []messages.Message {
	t.Helper()
	var out []messages.Message
	for len(b) > 0 {
		frag, n, err := fragment.Decode(b)
		require.NoError(t, err)
		require.True(t, frag.Start && frag.End, "test fixtures must fit in a single fragment")
		b = b[n:]
		msg, err := messages.Decode(frag.Payload)
		require.NoError(t, err)
		out = append(out, msg)
	}
	return out
}

// rawMessage builds a single-fragment wire message for pool pipelineID
// using pool's own writer/crypto so tests don't need to touch internals
// directly.
func rawMessage(t *testing.T, p *Pool, body messages.Body, pipelineID uuid.UUID) []byte {
	t.Helper()
	p.send(body, pipelineID)
	return p.DataToSend()
}

func encodeOne(t *testing.T, p *Pool, body messages.Body) []byte {
	t.Helper()
	return rawMessage(t, p, body, uuid.Nil)
}
