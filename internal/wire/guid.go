// Package wire holds small binary-layout helpers for the message package:
// the .NET mixed-endian GUID layout used in PSRP message headers (spec
// section on the message header byte layout).
package wire

import "github.com/google/uuid"

// GUIDToWire renders id in the .NET GUID wire layout: the first three
// fields (Data1 uint32, Data2 uint16, Data3 uint16) are little-endian: the
// remaining 8 bytes (Data4) are taken verbatim (big-endian / byte order).
// google/uuid stores the RFC 4122 big-endian layout internally, so fields
// 0..3, 4..5, 6..7 need byte-swapping; fields 8..15 pass through.
func GUIDToWire(id uuid.UUID) [16]byte {
	var out [16]byte
	// Data1: bytes 0-3, big-endian in RFC4122 -> little-endian on the wire.
	out[0], out[1], out[2], out[3] = id[3], id[2], id[1], id[0]
	// Data2: bytes 4-5.
	out[4], out[5] = id[5], id[4]
	// Data3: bytes 6-7.
	out[6], out[7] = id[7], id[6]
	// Data4: bytes 8-15, unchanged.
	copy(out[8:], id[8:])
	return out
}

// GUIDFromWire is the inverse of GUIDToWire.
func GUIDFromWire(wire [16]byte) uuid.UUID {
	var id uuid.UUID
	id[0], id[1], id[2], id[3] = wire[3], wire[2], wire[1], wire[0]
	id[4], id[5] = wire[5], wire[4]
	id[6], id[7] = wire[7], wire[6]
	copy(id[8:], wire[8:])
	return id
}

// NilGUIDWire is the all-zero GUID wire representation, used for the
// pipeline-id field of pool-scoped messages.
var NilGUIDWire [16]byte
