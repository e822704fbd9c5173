package runspace

import (
	"github.com/google/uuid"
	"github.com/smnsjas/go-psrpcore/messages"
)

// HandshakeFragments returns the SESSION_CAPABILITY + INIT_RUNSPACEPOOL
// bytes a client's Open would otherwise buffer into DataToSend, without
// requiring the caller to call Open and then immediately DataToSend in
// sequence. This is the seam go-psrp's WSManBackend needs to piggyback the
// pool's first bytes onto a transport-specific envelope (e.g. a WSMan
// Create request body) rather than sending them as a free-standing
// fragment write.
func (p *Pool) HandshakeFragments() ([]byte, error) {
	if err := p.Open(); err != nil {
		return nil, err
	}
	return p.DataToSend(), nil
}

// ConnectHandshakeFragments returns the CONNECT_RUNSPACEPOOL bytes for a
// client reconnecting to an already-open server-side pool, the Connect
// counterpart to HandshakeFragments.
func (p *Pool) ConnectHandshakeFragments() ([]byte, error) {
	if p.role != RoleClient {
		return nil, &InvalidTransitionError{Operation: "ConnectHandshakeFragments", State: p.state}
	}
	if p.state != BeforeOpen && p.state != Disconnected {
		return nil, &InvalidTransitionError{Operation: "ConnectHandshakeFragments", State: p.state}
	}
	p.transition(Connecting)
	p.send(messages.ConnectRunspacePool{MinRunspaces: p.cfg.MinRunspaces, MaxRunspaces: p.cfg.MaxRunspaces}, uuid.Nil)
	return p.DataToSend(), nil
}

// ProcessConnectResponse feeds the server's reply to a Connect request
// (typically a RUNSPACEPOOL_STATE=Opened plus RUNSPACEPOOL_INIT_DATA) back
// into the pool, completing the reconnect.
func (p *Pool) ProcessConnectResponse(b []byte) error {
	if p.state != Connecting {
		return &InvalidTransitionError{Operation: "ProcessConnectResponse", State: p.state}
	}
	return p.ReceiveData(b)
}

// ResumeOpened forces the pool directly into Opened without running the
// handshake, for a caller that already knows (via its own transport-layer
// session persistence) that the remote pool is open — e.g. go-psrp
// restoring a RunspacePool object across a process restart using a
// previously negotiated pool id.
func (p *Pool) ResumeOpened() {
	p.capabilityRecvd = true
	p.stateOpenedRecvd = true
	p.transition(Opened)
	p.pushEvent(Event{Kind: PoolOpened, State: Opened})
}
