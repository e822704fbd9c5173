package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterSplitSingleByteFitsOneFragment(t *testing.T) {
	w := NewWriter()
	frags := w.Split([]byte{0x42}, 22)
	require.Len(t, frags, 1)
	assert.Equal(t, uint64(0), frags[0].FragmentID)
	assert.True(t, frags[0].Start)
	assert.True(t, frags[0].End)
}

func TestWriterSplitTwoFragments(t *testing.T) {
	w := NewWriter()
	payload := make([]byte, 43)
	for i := range payload {
		payload[i] = byte(i)
	}
	frags := w.Split(payload, 22)
	require.Len(t, frags, 2)

	assert.Equal(t, uint64(0), frags[0].FragmentID)
	assert.True(t, frags[0].Start)
	assert.False(t, frags[0].End)
	assert.Len(t, frags[0].Payload, 22)

	assert.Equal(t, uint64(1), frags[1].FragmentID)
	assert.False(t, frags[1].Start)
	assert.True(t, frags[1].End)
	assert.Len(t, frags[1].Payload, 21)
}

func TestWriterAssignsMonotonicObjectIDsFromOne(t *testing.T) {
	w := NewWriter()
	first := w.Split([]byte("a"), 10)
	second := w.Split([]byte("b"), 10)
	assert.Equal(t, uint64(1), first[0].ObjectID)
	assert.Equal(t, uint64(2), second[0].ObjectID)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	f := Fragment{ObjectID: 7, FragmentID: 1, Start: false, End: true, Payload: []byte("hello")}
	b := Encode(f)
	assert.Len(t, b, HeaderSize+len("hello"))

	got, n, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, len(b), n)
	assert.Equal(t, f, got)
}

func TestReassemblerSingleFragmentRoundTrip(t *testing.T) {
	w := NewWriter()
	r := NewReassembler()

	frags := w.Split([]byte("hi"), 100)
	require.Len(t, frags, 1)

	payload, done, err := r.Feed(frags[0])
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, []byte("hi"), payload)
}

func TestReassemblerMultiFragmentRoundTrip(t *testing.T) {
	w := NewWriter()
	r := NewReassembler()

	original := make([]byte, 43)
	for i := range original {
		original[i] = byte(i)
	}
	frags := w.Split(original, 22)
	require.Len(t, frags, 2)

	payload, done, err := r.Feed(frags[0])
	require.NoError(t, err)
	assert.False(t, done)
	assert.Nil(t, payload)

	payload, done, err = r.Feed(frags[1])
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, original, payload)
}

func TestReassemblerInterleavedObjectsDoNotCorrupt(t *testing.T) {
	w := NewWriter()
	r := NewReassembler()

	aFrags := w.Split([]byte("AAAA"), 2)
	bFrags := w.Split([]byte("BBBB"), 2)
	require.Len(t, aFrags, 2)
	require.Len(t, bFrags, 2)

	_, done, err := r.Feed(bFrags[0])
	require.NoError(t, err)
	assert.False(t, done)

	_, done, err = r.Feed(aFrags[0])
	require.NoError(t, err)
	assert.False(t, done)

	payload, done, err := r.Feed(aFrags[1])
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, []byte("AAAA"), payload)

	payload, done, err = r.Feed(bFrags[1])
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, []byte("BBBB"), payload)
}

func TestReassemblerMissingStart(t *testing.T) {
	r := NewReassembler()
	_, _, err := r.Feed(Fragment{ObjectID: 1, FragmentID: 1, Start: false, End: true, Payload: []byte("x")})
	require.Error(t, err)
	var target *MissingStartError
	assert.ErrorAs(t, err, &target)
}

func TestReassemblerMissingStartFragmentIDNonZero(t *testing.T) {
	r := NewReassembler()
	_, _, err := r.Feed(Fragment{ObjectID: 1, FragmentID: 2, Start: true, End: true, Payload: []byte("x")})
	require.Error(t, err)
	var target *MissingStartError
	assert.ErrorAs(t, err, &target)
}

func TestReassemblerOutOfOrder(t *testing.T) {
	r := NewReassembler()
	_, done, err := r.Feed(Fragment{ObjectID: 1, FragmentID: 0, Start: true, End: false, Payload: []byte("a")})
	require.NoError(t, err)
	assert.False(t, done)

	_, _, err = r.Feed(Fragment{ObjectID: 1, FragmentID: 2, Start: false, End: true, Payload: []byte("b")})
	require.Error(t, err)
	var target *OutOfOrderError
	assert.ErrorAs(t, err, &target)
}

func TestReassemblerRejectsDuplicateStart(t *testing.T) {
	r := NewReassembler()
	_, done, err := r.Feed(Fragment{ObjectID: 1, FragmentID: 0, Start: true, End: false, Payload: []byte("a")})
	require.NoError(t, err)
	assert.False(t, done)

	_, _, err = r.Feed(Fragment{ObjectID: 1, FragmentID: 1, Start: true, End: true, Payload: []byte("b")})
	require.Error(t, err)
	var target *OutOfOrderError
	assert.ErrorAs(t, err, &target)
}

func TestReassemblerTooManyInFlight(t *testing.T) {
	r := NewReassembler(WithMaxInFlight(2))

	for id := uint64(1); id <= 2; id++ {
		_, done, err := r.Feed(Fragment{ObjectID: id, FragmentID: 0, Start: true, End: false, Payload: []byte("a")})
		require.NoError(t, err)
		assert.False(t, done)
	}

	_, _, err := r.Feed(Fragment{ObjectID: 3, FragmentID: 0, Start: true, End: false, Payload: []byte("a")})
	require.Error(t, err)
	var target *TooManyInFlightError
	assert.ErrorAs(t, err, &target)
}

func TestReassemblerPendingObjectIDsAndDrop(t *testing.T) {
	r := NewReassembler()
	_, _, err := r.Feed(Fragment{ObjectID: 9, FragmentID: 0, Start: true, End: false, Payload: []byte("a")})
	require.NoError(t, err)
	assert.Equal(t, []uint64{9}, r.PendingObjectIDs())

	r.Drop(9)
	assert.Empty(t, r.PendingObjectIDs())
}
