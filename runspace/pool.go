package runspace

import (
	"crypto/rsa"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/smnsjas/go-psrpcore/clixml"
	"github.com/smnsjas/go-psrpcore/fragment"
	"github.com/smnsjas/go-psrpcore/internal/xlog"
	"github.com/smnsjas/go-psrpcore/messages"
	"github.com/smnsjas/go-psrpcore/psrpcrypto"
	"github.com/smnsjas/go-psrpcore/types"
)

// defaultMaxFragmentSize mirrors go-psrp's WithMaxEnvelopeSize default of
// 153600 bytes (150 KiB), the conventional WinRM envelope ceiling — there is
// no PSRP-mandated fragment size, so a caller building a config from scratch
// gets the same number the teacher's transport already assumes.
const defaultMaxFragmentSize = 153600

// Config configures a new client or server Pool.
type Config struct {
	MinRunspaces         int32
	MaxRunspaces         int32
	ApplicationArguments types.Value
	HostInfo             types.Value

	ProtocolVersion      string
	PSVersion            string
	SerializationVersion string

	MaxFragmentSize int
	Registry        *types.Registry
	Crypto          clixml.CryptoProvider
	Logger          *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxFragmentSize <= 0 {
		c.MaxFragmentSize = defaultMaxFragmentSize
	}
	if c.Registry == nil {
		c.Registry = types.DefaultRegistry()
	}
	if c.Crypto == nil {
		c.Crypto = psrpcrypto.NewAESProvider()
	}
	if c.ProtocolVersion == "" {
		c.ProtocolVersion = "2.3"
	}
	if c.PSVersion == "" {
		c.PSVersion = "5.1"
	}
	if c.SerializationVersion == "" {
		c.SerializationVersion = "1.1.0.1"
	}
	return c
}

// Pool is a client or server RunspacePool state machine (spec.md §4.6).
// Not safe for concurrent use — spec.md §5 makes the whole core
// single-threaded; callers serialise their own access.
type Pool struct {
	role Role
	id   uuid.UUID
	cfg  Config
	log  *slog.Logger

	state State

	writer      *fragment.Writer
	reassembler *fragment.Reassembler
	outbox      []byte
	events      []Event

	capabilityRecvd  bool
	stateOpenedRecvd bool

	pipelines map[uuid.UUID]struct{}

	rsaPriv *rsa.PrivateKey // client-side key-exchange state
}

// NewClient creates a client-side Pool with a freshly generated pool id.
func NewClient(cfg Config) *Pool {
	return newPool(RoleClient, uuid.New(), cfg)
}

// NewServer creates a server-side Pool bound to poolID, the id the client
// assigned when it opened the pool (the server never invents its own).
func NewServer(poolID uuid.UUID, cfg Config) *Pool {
	return newPool(RoleServer, poolID, cfg)
}

func newPool(role Role, id uuid.UUID, cfg Config) *Pool {
	cfg = cfg.withDefaults()
	return &Pool{
		role:        role,
		id:          id,
		cfg:         cfg,
		log:         xlog.WithPool(xlog.OrDefault(cfg.Logger), id.String()),
		state:       BeforeOpen,
		writer:      fragment.NewWriter(),
		reassembler: fragment.NewReassembler(),
		pipelines:   make(map[uuid.UUID]struct{}),
	}
}

// ID returns the pool's runspace-pool-id.
func (p *Pool) ID() uuid.UUID { return p.id }

// State returns the pool's current state.
func (p *Pool) State() State { return p.state }

// Crypto returns the pool's CryptoProvider so a caller (or a
// psrpcrypto.AESProvider the pool drives internally) can be inspected or
// swapped before key exchange begins.
func (p *Pool) Crypto() clixml.CryptoProvider { return p.cfg.Crypto }

// Open begins the client-side opening handshake (spec.md §4.6 steps 2-3):
// emits SESSION_CAPABILITY then INIT_RUNSPACEPOOL, both pool-scoped. Only
// valid for a client Pool in BeforeOpen.
func (p *Pool) Open() error {
	if p.role != RoleClient {
		return &InvalidTransitionError{Operation: "Open", State: p.state}
	}
	if p.state != BeforeOpen {
		return &InvalidTransitionError{Operation: "Open", State: p.state}
	}
	p.send(messages.SessionCapability{
		ProtocolVersion:      p.cfg.ProtocolVersion,
		PSVersion:            p.cfg.PSVersion,
		SerializationVersion: p.cfg.SerializationVersion,
	}, uuid.Nil)
	p.send(messages.InitRunspacePool{
		MinRunspaces:         p.cfg.MinRunspaces,
		MaxRunspaces:         p.cfg.MaxRunspaces,
		ApplicationArguments: p.cfg.ApplicationArguments,
		HostInfo:             p.cfg.HostInfo,
	}, uuid.Nil)
	p.transition(NegotiationSent)
	return nil
}

// Accept begins the server-side reply to an already-processed
// INIT_RUNSPACEPOOL (spec.md §4.6 step 4): emits SESSION_CAPABILITY, then
// RUNSPACEPOOL_STATE=Opened, then APPLICATION_PRIVATE_DATA.
func (p *Pool) Accept() error {
	if p.role != RoleServer {
		return &InvalidTransitionError{Operation: "Accept", State: p.state}
	}
	p.send(messages.SessionCapability{
		ProtocolVersion:      p.cfg.ProtocolVersion,
		PSVersion:            p.cfg.PSVersion,
		SerializationVersion: p.cfg.SerializationVersion,
	}, uuid.Nil)
	p.send(messages.RunspacePoolState{State: messages.PoolStateOpened}, uuid.Nil)
	p.send(messages.ApplicationPrivateData{Data: p.cfg.ApplicationArguments}, uuid.Nil)
	p.transition(Opened)
	p.pushEvent(Event{Kind: PoolOpened, State: Opened})
	return nil
}

// Close begins closing the pool (spec.md §4.6's "Closing" paragraph):
// transitions to Closing immediately: a caller drains DataToSend (nothing is
// sent for Closing itself — closure is a local bookkeeping transition, the
// transport signals the peer out of band) then the caller calls
// MarkClosed once the transport confirms.
func (p *Pool) Close() error {
	if p.state == Closed || p.state == Broken {
		return &InvalidTransitionError{Operation: "Close", State: p.state}
	}
	p.transition(Closing)
	return nil
}

// MarkClosed finalises a Closing pool into Closed, for a caller to call once
// its transport has confirmed the peer acknowledged closure.
func (p *Pool) MarkClosed() {
	p.transition(Closed)
}

// GetAvailableRunspaces requests the current available-runspace count.
func (p *Pool) GetAvailableRunspaces(callID int64) error {
	if p.state != Opened {
		return &InvalidTransitionError{Operation: "GetAvailableRunspaces", State: p.state}
	}
	p.send(messages.GetAvailableRunspaces{CallID: callID}, uuid.Nil)
	return nil
}

// SetMinRunspaces requests the pool's lower runspace bound change.
func (p *Pool) SetMinRunspaces(n int32) error {
	if p.state != Opened {
		return &InvalidTransitionError{Operation: "SetMinRunspaces", State: p.state}
	}
	p.send(messages.SetMinRunspaces{MinRunspaces: n}, uuid.Nil)
	return nil
}

// SetMaxRunspaces requests the pool's upper runspace bound change.
func (p *Pool) SetMaxRunspaces(n int32) error {
	if p.state != Opened {
		return &InvalidTransitionError{Operation: "SetMaxRunspaces", State: p.state}
	}
	p.send(messages.SetMaxRunspaces{MaxRunspaces: n}, uuid.Nil)
	return nil
}

// ExchangeKey initiates session-key negotiation (spec.md §4.6's "Key
// exchange" paragraph), which may happen at any time after Opened. On a
// client this generates an RSA key pair and sends PUBLIC_KEY; on a server
// it sends PUBLIC_KEY_REQUEST to force the client to (re-)initiate.
func (p *Pool) ExchangeKey() error {
	if p.state != Opened {
		return &InvalidTransitionError{Operation: "ExchangeKey", State: p.state}
	}
	if p.role == RoleServer {
		p.send(messages.PublicKeyRequest{}, uuid.Nil)
		return nil
	}
	return p.sendPublicKey()
}

func (p *Pool) sendPublicKey() error {
	priv, err := psrpcrypto.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("runspace: generate key pair: %w", err)
	}
	p.rsaPriv = priv
	p.send(messages.PublicKey{Key: psrpcrypto.EncodePublicKeyBase64(&priv.PublicKey)}, uuid.Nil)
	return nil
}

// DataToSend drains and returns any bytes buffered for the transport.
// Calling it zero or more times between actions is always safe (spec.md §5).
func (p *Pool) DataToSend() []byte {
	b := p.outbox
	p.outbox = nil
	return b
}

// NextEvent pops the oldest pending event, or (Event{}, false) if none.
func (p *Pool) NextEvent() (Event, bool) {
	if len(p.events) == 0 {
		return Event{}, false
	}
	e := p.events[0]
	p.events = p.events[1:]
	return e, true
}

// RegisterPipeline records pipelineID as known to this pool so inbound
// messages for it dispatch as PipelineEvent rather than UnknownPipeline.
// Called by pipeline.Pipeline's constructor.
func (p *Pool) RegisterPipeline(pipelineID uuid.UUID) {
	p.pipelines[pipelineID] = struct{}{}
}

// UnregisterPipeline forgets pipelineID, e.g. once it reaches a terminal
// state.
func (p *Pool) UnregisterPipeline(pipelineID uuid.UUID) {
	delete(p.pipelines, pipelineID)
}

// SendMessage encodes body as a message targeting pipelineID (uuid.Nil for
// pool-scoped) and fragments it into the outbox. Exported for
// pipeline.Pipeline to reuse the pool's framing without re-deriving it.
func (p *Pool) SendMessage(body messages.Body, pipelineID uuid.UUID) {
	p.send(body, pipelineID)
}

func (p *Pool) send(body messages.Body, pipelineID uuid.UUID) {
	enc := clixml.NewEncoder()
	enc.Crypto = p.cfg.Crypto
	var b strings.Builder
	if err := enc.Encode(&b, body.ToValue()); err != nil {
		p.log.Error("encode message body failed", "type", body.Type().String(), "error", err)
		return
	}
	dest := DestinationForRole(p.role)
	msg := messages.Message{
		Destination:    dest,
		Type:           body.Type(),
		RunspacePoolID: p.id,
		PipelineID:     pipelineID,
		Body:           []byte(b.String()),
	}
	payload := messages.Encode(msg)
	p.outbox = append(p.outbox, p.writer.EncodeAll(payload, p.cfg.MaxFragmentSize)...)
}

// DestinationForRole returns the wire Destination a message from role
// targets: a client sends messages destined for the server and vice versa.
func DestinationForRole(role Role) messages.Destination {
	if role == RoleClient {
		return messages.DestinationServer
	}
	return messages.DestinationClient
}

func (p *Pool) transition(s State) {
	if p.state == s {
		return
	}
	p.state = s
	p.pushEvent(Event{Kind: PoolStateChanged, State: s})
}

func (p *Pool) pushEvent(e Event) {
	p.events = append(p.events, e)
}

func (p *Pool) breakPool(err error) {
	p.transition(Broken)
	p.pushEvent(Event{Kind: PoolBroken, State: Broken, Err: err})
	p.log.Error("pool broken", "error", err)
}
