package types

// CollectionKind identifies which, if any, collection variant an Object
// carries. Per invariant I2 these are mutually exclusive.
type CollectionKind int

const (
	// NotACollection means the Object carries only properties.
	NotACollection CollectionKind = iota
	Dict
	Stack
	Queue
	List
	IEnumerable
)

// DictEntry is one (key, value) pair of a Dict-kind Object. Dict preserves
// insertion order and is never reference-deduplicated during encoding
// (spec: "Lists and dictionaries are never reference-encoded").
type DictEntry struct {
	Key   Value
	Value Value
}

// Object is the ETS-carrying variant of Value: an ordered .NET type-name
// chain, an optional ToString rendering, adapted/extended property maps,
// and — mutually exclusively — one collection payload.
//
// Property maps are represented as ordered slices rather than a Go map so
// that deterministic encoding (spec's byte-for-byte determinism property)
// does not depend on Go's randomized map iteration order.
type Object struct {
	// TypeNames lists .NET type names, most-derived first. Non-empty per
	// invariant I1.
	TypeNames []string

	// ToString is the object's string rendering, if the source provided
	// one. A nil pointer means no ToString element is emitted.
	ToString *string

	// Adapted holds native (adapter-surfaced) properties in encounter order.
	Adapted []Property

	// Extended holds ETS-added properties in encounter order.
	Extended []Property

	// CollectionKind selects which of the following fields, if any, is
	// populated. Exactly one of Dict/Stack/Queue/List/IEnumerable content
	// applies per CollectionKind (invariant I2).
	CollectionKind CollectionKind
	DictEntries    []DictEntry
	StackItems     []Value
	QueueItems     []Value
	ListItems      []Value
	IEnumItems     []Value

	// Primitive is set when the object extends a primitive value (an enum,
	// or a primitive type carrying extended properties). Nil otherwise.
	Primitive Value
}

// Property is one name/value pair in an Object's adapted or extended map.
// Name lookups across the whole design are case-sensitive (spec §9,
// deliberate departure from PowerShell's case-insensitive convention).
type Property struct {
	Name  string
	Value Value
}

// NewObject constructs an empty Object with the given type-name chain.
// Panics if typeNames is empty: invariant I1 requires a non-empty chain,
// and callers assemble the chain before adding properties, so failing here
// surfaces the bug at construction rather than at serialize time.
func NewObject(typeNames ...string) *Object {
	if len(typeNames) == 0 {
		panic("types: NewObject requires at least one type name")
	}
	return &Object{TypeNames: append([]string(nil), typeNames...)}
}

// SetAdapted sets (or replaces) an adapted property by name.
func (o *Object) SetAdapted(name string, v Value) {
	o.Adapted = setProperty(o.Adapted, name, v)
}

// SetExtended sets (or replaces) an extended property by name.
func (o *Object) SetExtended(name string, v Value) {
	o.Extended = setProperty(o.Extended, name, v)
}

func setProperty(props []Property, name string, v Value) []Property {
	for i := range props {
		if props[i].Name == name {
			props[i].Value = v
			return props
		}
	}
	return append(props, Property{Name: name, Value: v})
}

// Property looks up a property by exact (case-sensitive) name. Extended
// shadows adapted when both carry the same name, matching PowerShell's
// attribute-style access precedence.
func (o *Object) Property(name string) (Value, bool) {
	for _, p := range o.Extended {
		if p.Name == name {
			return p.Value, true
		}
	}
	for _, p := range o.Adapted {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// PropertyFold is a case-insensitive convenience lookup for hosts that want
// PowerShell's usual semantics despite this design's case-sensitive default
// (spec §9 calls for such a helper to be provided, not for the default to
// change).
func PropertyFold(o *Object, name string) (Value, bool) {
	for _, p := range o.Extended {
		if equalFold(p.Name, name) {
			return p.Value, true
		}
	}
	for _, p := range o.Adapted {
		if equalFold(p.Name, name) {
			return p.Value, true
		}
	}
	return nil, false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Items returns the collection payload regardless of which kind it is,
// for callers that just want to iterate contents (spec §4.2's "iterate
// collection contents" accessor). Dict entries are flattened to their
// values; use DictEntries directly to access keys.
func (o *Object) Items() []Value {
	switch o.CollectionKind {
	case Dict:
		items := make([]Value, len(o.DictEntries))
		for i, e := range o.DictEntries {
			items[i] = e.Value
		}
		return items
	case Stack:
		return o.StackItems
	case Queue:
		return o.QueueItems
	case List:
		return o.ListItems
	case IEnumerable:
		return o.IEnumItems
	default:
		return nil
	}
}

