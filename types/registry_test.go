package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGenericFallback(t *testing.T) {
	r := NewRegistry()
	obj := NewObject("MyApp.Widget")
	obj.SetAdapted("Name", String{V: "gadget"})

	v, err := r.Resolve(obj)
	require.NoError(t, err)

	resolved, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"Deserialized.MyApp.Widget"}, resolved.TypeNames)
	name, ok := resolved.Property("Name")
	require.True(t, ok)
	assert.Equal(t, String{V: "gadget"}, name)
}

func TestRegistryRehydrate(t *testing.T) {
	r := NewRegistry()
	type Widget struct{ Name string }
	r.Register("MyApp.Widget", true, func(obj *Object) (Value, error) {
		name, _ := obj.Property("Name")
		s, _ := name.(String)
		w := Widget{Name: s.V}
		out := NewObject(obj.TypeNames...)
		out.SetAdapted("Name", String{V: w.Name})
		return out, nil
	})

	obj := NewObject("MyApp.Widget")
	obj.SetAdapted("Name", String{V: "gadget"})

	v, err := r.Resolve(obj)
	require.NoError(t, err)
	resolved := v.(*Object)
	assert.Equal(t, []string{"MyApp.Widget"}, resolved.TypeNames)
}

func TestRegistryReRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register("X", true, func(obj *Object) (Value, error) { return String{V: "first"}, nil })
	r.Register("X", true, func(obj *Object) (Value, error) { return String{V: "second"}, nil })

	v, err := r.Resolve(NewObject("X"))
	require.NoError(t, err)
	assert.Equal(t, String{V: "second"}, v)
}

func TestPropertyExtendedShadowsAdapted(t *testing.T) {
	obj := NewObject("T")
	obj.SetAdapted("Name", String{V: "adapted"})
	obj.SetExtended("Name", String{V: "extended"})

	v, ok := obj.Property("Name")
	require.True(t, ok)
	assert.Equal(t, String{V: "extended"}, v)
}

func TestPropertyCaseSensitive(t *testing.T) {
	obj := NewObject("T")
	obj.SetAdapted("Name", String{V: "x"})

	_, ok := obj.Property("name")
	assert.False(t, ok, "lookup must be case-sensitive by default")

	v, ok := PropertyFold(obj, "name")
	require.True(t, ok)
	assert.Equal(t, String{V: "x"}, v)
}

func TestFromPromotion(t *testing.T) {
	cases := []struct {
		in   any
		want Value
	}{
		{"hi", String{V: "hi"}},
		{true, Bool{V: true}},
		{int64(5), Int32{V: 5}},
		{int64(1) << 40, Int64{V: int64(1) << 40}},
		{float32(1.5), Single{V: 1.5}},
		{[]byte{1, 2}, ByteArray{V: []byte{1, 2}}},
		{nil, Null{}},
	}
	for _, c := range cases {
		got, err := From(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}
