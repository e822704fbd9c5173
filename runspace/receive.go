package runspace

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/smnsjas/go-psrpcore/clixml"
	"github.com/smnsjas/go-psrpcore/fragment"
	"github.com/smnsjas/go-psrpcore/messages"
	"github.com/smnsjas/go-psrpcore/psrpcrypto"
	"github.com/smnsjas/go-psrpcore/types"
)

// ReceiveData feeds inbound transport bytes to the fragmenter. Fragments
// reassembling into a complete message are decoded and dispatched; decode
// failures drop the offending message and emit a diagnostic rather than
// corrupting pool state (spec.md §7's recovery policy), except where the
// failure indicates the peer violated the protocol in a way this state
// machine cannot safely continue from, in which case the pool moves to
// Broken.
func (p *Pool) ReceiveData(b []byte) error {
	for len(b) > 0 {
		frag, n, err := fragment.Decode(b)
		if err != nil {
			return fmt.Errorf("runspace: decode fragment: %w", err)
		}
		b = b[n:]

		payload, done, err := p.reassembler.Feed(frag)
		if err != nil {
			p.breakPool(err)
			return err
		}
		if !done {
			continue
		}

		msg, err := messages.Decode(payload)
		if err != nil {
			p.log.Warn("dropping malformed message", "error", err)
			continue
		}
		p.dispatch(msg)
	}
	return nil
}

func (p *Pool) dispatch(msg messages.Message) {
	dec := clixml.NewDecoder(p.cfg.Registry)
	dec.Crypto = p.cfg.Crypto
	values, err := dec.Unmarshal(string(msg.Body))
	if err != nil {
		p.log.Warn("dropping message with malformed body", "type", msg.Type.String(), "error", err)
		return
	}
	var bodyValue types.Value = types.Null{}
	if len(values) > 0 {
		bodyValue = values[0]
	}

	body, err := messages.ParseBody(msg.Type, bodyValue)
	if err != nil {
		p.log.Warn("dropping message with unexpected body shape", "type", msg.Type.String(), "error", err)
		return
	}

	if msg.PipelineID != uuid.Nil {
		p.dispatchPipeline(msg, body)
		return
	}
	p.dispatchPool(msg, body)
}

func (p *Pool) dispatchPipeline(msg messages.Message, body messages.Body) {
	if _, ok := p.pipelines[msg.PipelineID]; !ok {
		p.pushEvent(Event{Kind: UnknownPipeline, PipelineID: msg.PipelineID, Message: msg,
			Err: &UnknownPipelineError{PipelineID: msg.PipelineID.String()}})
		return
	}
	p.pushEvent(Event{Kind: PipelineEvent, PipelineID: msg.PipelineID, Message: msg, Body: body})
}

func (p *Pool) dispatchPool(msg messages.Message, body messages.Body) {
	switch b := body.(type) {
	case messages.SessionCapability:
		if !isSupportedProtocolVersion(b.ProtocolVersion) {
			p.breakPool(&CapabilityMismatchError{PeerProtocolVersion: b.ProtocolVersion})
			return
		}
		p.capabilityRecvd = true
		p.maybeOpen()

	case messages.RunspacePoolState:
		if b.State == messages.PoolStateOpened {
			p.stateOpenedRecvd = true
			p.maybeOpen()
			return
		}
		if b.State == messages.PoolStateBroken {
			p.breakPool(fmt.Errorf("runspace: peer reported pool broken"))
		}

	case messages.ApplicationPrivateData:
		p.pushEvent(Event{Kind: ApplicationDataReceived, Body: b})

	case messages.PublicKeyRequest:
		if p.role == RoleClient {
			if err := p.sendPublicKey(); err != nil {
				p.log.Error("failed to respond to PUBLIC_KEY_REQUEST", "error", err)
			}
		}

	case messages.PublicKey:
		if p.role == RoleServer {
			p.handlePublicKey(b)
		}

	case messages.EncryptedSessionKey:
		if p.role == RoleClient {
			p.handleEncryptedSessionKey(b)
		}

	case messages.SetMaxRunspaces:
		p.cfg.MaxRunspaces = b.MaxRunspaces

	case messages.SetMinRunspaces:
		p.cfg.MinRunspaces = b.MinRunspaces

	case messages.Generic:
		p.pushEvent(Event{Kind: UnknownMessage, Message: msg, Body: b})

	default:
		p.pushEvent(Event{Kind: PoolMessage, Message: msg, Body: body})
	}
}

func (p *Pool) maybeOpen() {
	if p.state == Opened {
		return
	}
	if p.capabilityRecvd && p.stateOpenedRecvd {
		p.transition(Opened)
		p.pushEvent(Event{Kind: PoolOpened, State: Opened})
	} else {
		p.transition(NegotiationSucceeded)
	}
}

func (p *Pool) handlePublicKey(b messages.PublicKey) {
	pub, err := psrpcrypto.DecodePublicKeyBase64(b.Key)
	if err != nil {
		p.log.Error("invalid public key from peer", "error", err)
		return
	}
	key, err := psrpcrypto.GenerateSessionKey()
	if err != nil {
		p.log.Error("generate session key failed", "error", err)
		return
	}
	if err := p.cfg.Crypto.RegisterSessionKey(key); err != nil {
		p.log.Error("register session key failed", "error", err)
		return
	}
	encKey, err := psrpcrypto.EncryptSessionKey(pub, key)
	if err != nil {
		p.log.Error("encrypt session key failed", "error", err)
		return
	}
	p.send(messages.EncryptedSessionKey{EncryptedKey: encKey}, uuid.Nil)
	p.pushEvent(Event{Kind: KeyExchangeCompleted})
}

func (p *Pool) handleEncryptedSessionKey(b messages.EncryptedSessionKey) {
	if p.rsaPriv == nil {
		p.log.Error("received ENCRYPTED_SESSION_KEY without a pending PUBLIC_KEY exchange")
		return
	}
	key, err := psrpcrypto.DecryptSessionKey(p.rsaPriv, b.EncryptedKey)
	if err != nil {
		p.log.Error("decrypt session key failed", "error", err)
		return
	}
	if err := p.cfg.Crypto.RegisterSessionKey(key); err != nil {
		p.log.Error("register session key failed", "error", err)
		return
	}
	p.pushEvent(Event{Kind: KeyExchangeCompleted})
}

func isSupportedProtocolVersion(v string) bool {
	// PSRP protocol versions are backward compatible from 2.1 onward; this
	// implementation has no behavioural differences gated on the exact
	// minor version, so any non-empty version string is accepted. A future
	// revision introducing a breaking wire change would tighten this.
	return v != ""
}
