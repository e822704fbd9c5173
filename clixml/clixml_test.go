package clixml

import (
	"strings"
	"testing"

	"github.com/smnsjas/go-psrpcore/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v types.Value) types.Value {
	t.Helper()
	s, err := Marshal(v)
	require.NoError(t, err)
	got, err := Unmarshal(s)
	require.NoError(t, err)
	require.Len(t, got, 1)
	return got[0]
}

func TestRoundTripPrimitives(t *testing.T) {
	assert.Equal(t, types.String{V: "hello"}, roundTrip(t, types.String{V: "hello"}))
	assert.Equal(t, types.Bool{V: true}, roundTrip(t, types.Bool{V: true}))
	assert.Equal(t, types.Int32{V: -42}, roundTrip(t, types.Int32{V: -42}))
	assert.Equal(t, types.Int64{V: 1 << 40}, roundTrip(t, types.Int64{V: 1 << 40}))
	assert.Equal(t, types.Double{V: 3.5}, roundTrip(t, types.Double{V: 3.5}))
	assert.Equal(t, types.Null{}, roundTrip(t, types.Null{}))
	assert.Equal(t, types.ByteArray{V: []byte{1, 2, 3}}, roundTrip(t, types.ByteArray{V: []byte{1, 2, 3}}))
}

func TestRoundTripObjectWithProperties(t *testing.T) {
	obj := types.NewObject("MyApp.Widget", "System.Object")
	obj.SetAdapted("Name", types.String{V: "gadget"})
	obj.SetExtended("Tag", types.Int32{V: 7})

	got := roundTrip(t, obj)
	resolved, ok := got.(*types.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"MyApp.Widget", "System.Object"}, resolved.TypeNames)

	name, ok := resolved.Property("Name")
	require.True(t, ok)
	assert.Equal(t, types.String{V: "gadget"}, name)

	tag, ok := resolved.Property("Tag")
	require.True(t, ok)
	assert.Equal(t, types.Int32{V: 7}, tag)
}

func TestEncodeDictNotReferenceDeduplicated(t *testing.T) {
	dict := types.NewObject("System.Collections.Hashtable")
	dict.CollectionKind = types.Dict
	dict.DictEntries = []types.DictEntry{{Key: types.String{V: "k"}, Value: types.String{V: "v"}}}

	list := types.NewObject("System.Object[]")
	list.CollectionKind = types.List
	list.ListItems = []types.Value{dict, dict} // same pointer twice

	s, err := Marshal(list)
	require.NoError(t, err)

	assert.Equal(t, 2, countOccurrences(s, "<"+tagDCT+">"), "dict body must be inlined twice, never reference-encoded")
	assert.NotContains(t, s, "<"+tagRef+" ")
}

func TestEncodeObjectReferenceDeduplication(t *testing.T) {
	shared := types.NewObject("MyApp.Shared")
	shared.SetAdapted("X", types.Int32{V: 1})

	outer := types.NewObject("System.Object[]")
	outer.CollectionKind = types.List
	outer.ListItems = []types.Value{shared, shared}

	s, err := Marshal(outer)
	require.NoError(t, err)
	assert.Equal(t, 1, countOccurrences(s, "MyApp.Shared"), "repeated plain object should ref-dedupe, appearing once in full")
	assert.Contains(t, s, "<"+tagRef+" ")
}

func TestSecureStringRequiresCrypto(t *testing.T) {
	enc := NewEncoder()
	_, err := enc.EncryptSecureString("hunter2")
	require.Error(t, err)
	assert.True(t, IsCryptoUnavailable(err))
}

func TestSecureStringWithCrypto(t *testing.T) {
	enc := NewEncoder()
	enc.Crypto = &fakeCrypto{}

	ss, err := enc.EncryptSecureString("hunter2")
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, enc.Encode(&b, ss))
	assert.Contains(t, b.String(), "<"+tagSecureStr+">")
}

type fakeCrypto struct{}

func (f *fakeCrypto) Encrypt(text string) (string, error)    { return "enc(" + text + ")", nil }
func (f *fakeCrypto) Decrypt(cipher string) (string, error)  { return cipher, nil }
func (f *fakeCrypto) RegisterSessionKey(key []byte) error    { return nil }

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
			i += len(substr) - 1
		}
	}
	return count
}
