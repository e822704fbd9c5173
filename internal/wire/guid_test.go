package wire

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGUIDWireRoundTrip(t *testing.T) {
	id := uuid.New()
	wire := GUIDToWire(id)
	assert.Equal(t, id, GUIDFromWire(wire))
}

func TestGUIDToWireKnownValue(t *testing.T) {
	// 35e8f4a1-b2c3-4d5e-8f90-112233445566 ->
	// Data1=0x35e8f4a1 LE, Data2=0xb2c3 LE, Data3=0x4d5e LE, Data4 verbatim.
	id := uuid.MustParse("35e8f4a1-b2c3-4d5e-8f90-112233445566")
	wire := GUIDToWire(id)
	assert.Equal(t, []byte{0xa1, 0xf4, 0xe8, 0x35, 0xc3, 0xb2, 0x5e, 0x4d, 0x8f, 0x90, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}, wire[:])
}

func TestNilGUIDWire(t *testing.T) {
	assert.Equal(t, uuid.Nil, GUIDFromWire(NilGUIDWire))
}
