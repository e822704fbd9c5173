package messages

import "github.com/smnsjas/go-psrpcore/types"

// SessionCapability is exchanged by both sides at the start of a pool's
// negotiation (spec.md §4.6 step 2/4): protocol version, PS version, and
// serialization version, each carried as version strings per MS-PSRP.
type SessionCapability struct {
	ProtocolVersion     string
	PSVersion           string
	SerializationVersion string
}

func (SessionCapability) Type() Type { return SessionCapabilityType }

func (m SessionCapability) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.RemoteSessionCapability")
	o.SetAdapted("protocolversion", types.String{V: m.ProtocolVersion})
	o.SetAdapted("PSVersion", types.String{V: m.PSVersion})
	o.SetAdapted("SerializationVersion", types.String{V: m.SerializationVersion})
	return o
}

func parseSessionCapability(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: SessionCapabilityType}
	}
	return SessionCapability{
		ProtocolVersion:      propString(o, "protocolversion"),
		PSVersion:            propString(o, "PSVersion"),
		SerializationVersion: propString(o, "SerializationVersion"),
	}, nil
}

func init() { parsers[SessionCapabilityType] = parseSessionCapability }

// InitRunspacePool is the client's pool configuration, sent immediately
// after SessionCapability during opening (spec.md §4.6 step 3).
type InitRunspacePool struct {
	MinRunspaces        int32
	MaxRunspaces        int32
	ApplicationArguments types.Value
	HostInfo            types.Value
}

func (InitRunspacePool) Type() Type { return InitRunspacePoolType }

func (m InitRunspacePool) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.RemoteSessionCapability")
	o.SetAdapted("MinRunspaces", types.Int32{V: m.MinRunspaces})
	o.SetAdapted("MaxRunspaces", types.Int32{V: m.MaxRunspaces})
	if m.ApplicationArguments != nil {
		o.SetAdapted("ApplicationArguments", m.ApplicationArguments)
	}
	if m.HostInfo != nil {
		o.SetAdapted("HostInfo", m.HostInfo)
	}
	return o
}

func parseInitRunspacePool(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: InitRunspacePoolType}
	}
	m := InitRunspacePool{
		MinRunspaces: propInt32(o, "MinRunspaces"),
		MaxRunspaces: propInt32(o, "MaxRunspaces"),
	}
	if v, ok := o.Property("ApplicationArguments"); ok {
		m.ApplicationArguments = v
	}
	if v, ok := o.Property("HostInfo"); ok {
		m.HostInfo = v
	}
	return m, nil
}

func init() { parsers[InitRunspacePoolType] = parseInitRunspacePool }

// ConnectRunspacePool is sent by a client reconnecting to an already-open
// server-side pool (spec.md's Connect/Disconnect/Reconnect supplement).
type ConnectRunspacePool struct {
	MinRunspaces int32
	MaxRunspaces int32
}

func (ConnectRunspacePool) Type() Type { return ConnectRunspacePoolType }

func (m ConnectRunspacePool) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.RemoteSessionCapability")
	if m.MinRunspaces > 0 {
		o.SetAdapted("MinRunspaces", types.Int32{V: m.MinRunspaces})
	}
	if m.MaxRunspaces > 0 {
		o.SetAdapted("MaxRunspaces", types.Int32{V: m.MaxRunspaces})
	}
	return o
}

func parseConnectRunspacePool(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: ConnectRunspacePoolType}
	}
	return ConnectRunspacePool{MinRunspaces: propInt32(o, "MinRunspaces"), MaxRunspaces: propInt32(o, "MaxRunspaces")}, nil
}

func init() { parsers[ConnectRunspacePoolType] = parseConnectRunspacePool }

// PublicKey carries the client's RSA public key (base64 PKCS#1 DER, as
// written by psrpcrypto.EncodePublicKeyBase64) during
// key exchange (spec.md §4.6's key-exchange phase).
type PublicKey struct {
	Key string
}

func (PublicKey) Type() Type { return PublicKeyType }

func (m PublicKey) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.PublicKey")
	o.SetAdapted("PublicKey", types.String{V: m.Key})
	return o
}

func parsePublicKey(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: PublicKeyType}
	}
	return PublicKey{Key: propString(o, "PublicKey")}, nil
}

func init() { parsers[PublicKeyType] = parsePublicKey }

// PublicKeyRequest is the server's request that the client send PublicKey.
type PublicKeyRequest struct{}

func (PublicKeyRequest) Type() Type           { return PublicKeyRequestType }
func (PublicKeyRequest) ToValue() types.Value { return types.NewObject("System.Management.Automation.Remoting.PublicKeyRequest") }

func parsePublicKeyRequest(types.Value) (Body, error) { return PublicKeyRequest{}, nil }

func init() { parsers[PublicKeyRequestType] = parsePublicKeyRequest }

// EncryptedSessionKey carries the AES session key, RSA-encrypted with the
// client's public key and base64-encoded.
type EncryptedSessionKey struct {
	EncryptedKey string
}

func (EncryptedSessionKey) Type() Type { return EncryptedSessionKeyType }

func (m EncryptedSessionKey) ToValue() types.Value {
	o := types.NewObject("System.Management.Automation.Remoting.EncryptedSessionKey")
	o.SetAdapted("EncryptedSessionKey", types.String{V: m.EncryptedKey})
	return o
}

func parseEncryptedSessionKey(v types.Value) (Body, error) {
	o, ok := asObject(v)
	if !ok {
		return nil, &UnexpectedBodyShapeError{Type: EncryptedSessionKeyType}
	}
	return EncryptedSessionKey{EncryptedKey: propString(o, "EncryptedSessionKey")}, nil
}

func init() { parsers[EncryptedSessionKeyType] = parseEncryptedSessionKey }

// UnexpectedBodyShapeError is returned by a ParseBody-registered parser when
// the decoded types.Value does not have the shape that type's constructor
// expects (e.g. a non-Object where an Object was required).
type UnexpectedBodyShapeError struct {
	Type Type
}

func (e *UnexpectedBodyShapeError) Error() string {
	return "messages: body for " + e.Type.String() + " has unexpected shape"
}
