// Package fragment implements the PSRP fragmenter: splitting an outbound
// message into length-prefixed fragments and reassembling inbound
// fragments into messages, per spec §4.5 and the wire layout in §6.
package fragment

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed size of a fragment header: object-id (u64),
// fragment-id (u64), flags (u8), length (u32).
const HeaderSize = 21

const (
	flagStart byte = 1 << 0
	flagEnd   byte = 1 << 1
)

// Fragment is one length-prefixed chunk of a logical message.
type Fragment struct {
	ObjectID   uint64
	FragmentID uint64
	Start      bool
	End        bool
	Payload    []byte
}

// Encode renders f in the 21-byte-header wire format from spec §6.
func Encode(f Fragment) []byte {
	out := make([]byte, HeaderSize+len(f.Payload))
	binary.BigEndian.PutUint64(out[0:8], f.ObjectID)
	binary.BigEndian.PutUint64(out[8:16], f.FragmentID)
	var flags byte
	if f.Start {
		flags |= flagStart
	}
	if f.End {
		flags |= flagEnd
	}
	out[16] = flags
	binary.BigEndian.PutUint32(out[17:21], uint32(len(f.Payload)))
	copy(out[21:], f.Payload)
	return out
}

// Decode parses a single fragment from the head of b, returning the
// fragment, the number of bytes consumed, and an error if b does not hold
// a complete fragment header plus payload. Decode does not require b to
// hold exactly one fragment — callers needing the "bytes remaining after
// this fragment" typically slice b[n:] and call Decode again.
func Decode(b []byte) (Fragment, int, error) {
	if len(b) < HeaderSize {
		return Fragment{}, 0, fmt.Errorf("fragment: short header: need %d bytes, have %d", HeaderSize, len(b))
	}
	f := Fragment{
		ObjectID:   binary.BigEndian.Uint64(b[0:8]),
		FragmentID: binary.BigEndian.Uint64(b[8:16]),
		Start:      b[16]&flagStart != 0,
		End:        b[16]&flagEnd != 0,
	}
	length := binary.BigEndian.Uint32(b[17:21])
	total := HeaderSize + int(length)
	if len(b) < total {
		return Fragment{}, 0, fmt.Errorf("fragment: short payload: need %d bytes, have %d", total, len(b))
	}
	f.Payload = append([]byte(nil), b[HeaderSize:total]...)
	return f, total, nil
}
