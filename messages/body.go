package messages

import "github.com/smnsjas/go-psrpcore/types"

// Body is implemented by every concrete message struct. ToValue renders the
// message as a types.Value ready for clixml.Marshal; the message layer never
// inspects CLIXML itself, matching spec.md §4.4's typed-constructor-per-type
// design.
type Body interface {
	Type() Type
	ToValue() types.Value
}

// UnknownTypeError describes a message Type with no registered parser.
// ParseBody does not return it: spec.md §4.4's "unknown types decode to a
// generic opaque record" rule is implemented by ParseBody returning a
// Generic for such a Type.
type UnknownTypeError struct {
	Type Type
}

func (e *UnknownTypeError) Error() string {
	return "messages: unknown message type " + e.Type.String()
}

// Generic is the opaque fallback body for a message type this package does
// not model as a concrete struct. A known type whose CLIXML body fails to
// match the expected shape is not wrapped in Generic: its parser's error
// is returned instead.
type Generic struct {
	RawType Type
	Body    types.Value
}

func (g Generic) Type() Type             { return g.RawType }
func (g Generic) ToValue() types.Value   { return g.Body }

// parsers maps a Type to the function that turns a decoded types.Value back
// into the concrete Body for that type. Each body file registers its own
// parsers from an init function next to the parser it registers.
var parsers = map[Type]func(types.Value) (Body, error){}

// ParseBody converts v (already decoded via clixml.Unmarshal) into the
// concrete Body for t, or a Generic wrapping v if t has no registered
// parser.
func ParseBody(t Type, v types.Value) (Body, error) {
	if p, ok := parsers[t]; ok {
		b, err := p(v)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return Generic{RawType: t, Body: v}, nil
}

func asObject(v types.Value) (*types.Object, bool) {
	o, ok := v.(*types.Object)
	return o, ok
}

func propString(o *types.Object, name string) string {
	v, ok := o.Property(name)
	if !ok {
		return ""
	}
	s, ok := v.(types.String)
	if !ok {
		return ""
	}
	return s.V
}

func propInt32(o *types.Object, name string) int32 {
	v, ok := o.Property(name)
	if !ok {
		return 0
	}
	i, ok := v.(types.Int32)
	if !ok {
		return 0
	}
	return i.V
}

func propBool(o *types.Object, name string) bool {
	v, ok := o.Property(name)
	if !ok {
		return false
	}
	b, ok := v.(types.Bool)
	if !ok {
		return false
	}
	return b.V
}

func propBytes(o *types.Object, name string) []byte {
	v, ok := o.Property(name)
	if !ok {
		return nil
	}
	b, ok := v.(types.ByteArray)
	if !ok {
		return nil
	}
	return b.V
}
