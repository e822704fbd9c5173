package messages

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/smnsjas/go-psrpcore/internal/wire"
)

// HeaderSize is the fixed 40-byte message header: destination (u32),
// message type (u32), runspace-pool-id (16-byte .NET GUID), pipeline-id
// (16-byte .NET GUID, all-zero if pool-scoped).
const HeaderSize = 40

var bom = []byte{0xEF, 0xBB, 0xBF}

// Message is the wire triple from spec.md §3: a message type, the
// runspace-pool and pipeline it targets, and a CLIXML-encoded body left as
// raw bytes — the message layer never parses the body itself; that is the
// job of ParseBody and each concrete message struct's ToValue.
type Message struct {
	Destination     Destination
	Type            Type
	RunspacePoolID  uuid.UUID
	PipelineID      uuid.UUID
	Body            []byte
}

// Encode renders m as the 40-byte header followed by a BOM-prefixed body.
func Encode(m Message) []byte {
	out := make([]byte, HeaderSize+len(bom)+len(m.Body))
	binary.BigEndian.PutUint32(out[0:4], uint32(m.Destination))
	binary.BigEndian.PutUint32(out[4:8], uint32(m.Type))
	poolWire := wire.GUIDToWire(m.RunspacePoolID)
	copy(out[8:24], poolWire[:])
	pipeWire := wire.GUIDToWire(m.PipelineID)
	copy(out[24:40], pipeWire[:])
	copy(out[40:40+len(bom)], bom)
	copy(out[40+len(bom):], m.Body)
	return out
}

// Decode parses a single message from b, stripping an optional UTF-8 BOM
// from the body. b must hold exactly one message (the fragmenter has
// already reassembled and delivered a complete payload by the time Decode
// is called).
func Decode(b []byte) (Message, error) {
	if len(b) < HeaderSize {
		return Message{}, fmt.Errorf("messages: short header: need %d bytes, have %d", HeaderSize, len(b))
	}
	var poolWire, pipeWire [16]byte
	copy(poolWire[:], b[8:24])
	copy(pipeWire[:], b[24:40])

	m := Message{
		Destination:    Destination(binary.BigEndian.Uint32(b[0:4])),
		Type:           Type(binary.BigEndian.Uint32(b[4:8])),
		RunspacePoolID: wire.GUIDFromWire(poolWire),
		PipelineID:     wire.GUIDFromWire(pipeWire),
	}

	body := b[HeaderSize:]
	body = bytes.TrimPrefix(body, bom)
	if !utf8.Valid(body) {
		return Message{}, fmt.Errorf("messages: body is not valid UTF-8")
	}
	m.Body = body
	return m, nil
}
