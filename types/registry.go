package types

import "sync"

// Constructor builds a concrete Value from a decoded generic Object body.
// Implementations typically copy fields out of obj into a more specific
// shape; the registry itself never constrains what a Constructor returns,
// only which one is invoked.
type Constructor func(obj *Object) (Value, error)

// entry is one registration: the leading type name it matches on, the
// constructor to invoke, and whether rehydration is enabled for it.
type entry struct {
	leadingName string
	construct   Constructor
	rehydrate   bool
}

// Registry maps .NET type-name chains to constructors, per spec §4.1.
// Lookup matches on the first (most-derived) type name only. Registration
// is additive and idempotent per leading name: registering the same
// leading name twice replaces the prior entry. A Registry is not itself
// safe for concurrent registration and lookup without external
// synchronization beyond what its internal mutex provides for the common
// case of occasional registration alongside frequent lookup.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry returns an empty registry. Pools needing per-pool isolation
// construct their own rather than sharing DefaultRegistry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds or replaces the constructor for leadingName. rehydrate
// controls whether Resolve calls construct for an object with this leading
// name or gives it the generic "Deserialized." fallback — see Resolve.
func (r *Registry) Register(leadingName string, rehydrate bool, construct Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[leadingName] = entry{leadingName: leadingName, construct: construct, rehydrate: rehydrate}
}

// Deregister removes any registration for leadingName. No-op if absent.
func (r *Registry) Deregister(leadingName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, leadingName)
}

// Resolve implements the §4.1 lookup/construction contract: find the entry
// whose leading name equals obj's first type name. If found and
// rehydrate=true, invoke its constructor. Otherwise (not found, or found
// with rehydrate=false) return obj unchanged except that its type-name
// chain is prefixed with "Deserialized." and its ToString, if any, is
// preserved — the generic fallback path. Resolve never errors on an
// unknown type; only a registered constructor's own error propagates.
func (r *Registry) Resolve(obj *Object) (Value, error) {
	if len(obj.TypeNames) == 0 {
		return obj, nil
	}

	r.mu.RLock()
	e, ok := r.entries[obj.TypeNames[0]]
	r.mu.RUnlock()

	if !ok || !e.rehydrate {
		return genericFallback(obj), nil
	}
	return e.construct(obj)
}

// genericFallback implements the "Deserialized." prefix fallback.
func genericFallback(obj *Object) *Object {
	names := make([]string, len(obj.TypeNames))
	for i, n := range obj.TypeNames {
		names[i] = "Deserialized." + n
	}
	clone := *obj
	clone.TypeNames = names
	return &clone
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the process-wide registry pre-populated with the
// stock .NET primitive and collection type names, so decoding ordinary
// PSRP traffic needs no caller-side registration. It is a convenience, not
// a requirement: every constructor in this package that accepts a
// *Registry also accepts a fresh NewRegistry() for hosts wanting per-pool
// isolation (spec §9: "avoid mutable process-wide singletons ... implementers
// should document this" — DefaultRegistry is documented as optional, and
// nothing in this module forces its use).
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		registerStockTypes(defaultRegistry)
	})
	return defaultRegistry
}

// registerStockTypes registers the .NET type names the message layer and
// common PowerShell output rely on, all with rehydrate=false: the generic
// Object fallback already carries everything the core needs (type-name
// chain, ToString, properties, collection payload), so these registrations
// exist only to document which names are "known" rather than to attach
// bespoke constructors. A host embedding richer PowerShell semantics
// registers its own rehydrating constructors over these.
func registerStockTypes(r *Registry) {
	stock := []string{
		"System.String",
		"System.Boolean",
		"System.Char",
		"System.Byte",
		"System.SByte",
		"System.Int16",
		"System.UInt16",
		"System.Int32",
		"System.UInt32",
		"System.Int64",
		"System.UInt64",
		"System.Single",
		"System.Double",
		"System.Decimal",
		"System.DateTime",
		"System.TimeSpan",
		"System.Guid",
		"System.Uri",
		"System.Version",
		"System.Management.Automation.PSObject",
		"System.Management.Automation.PSCustomObject",
		"System.Collections.Hashtable",
		"System.Collections.ArrayList",
		"System.Collections.Generic.List`1",
		"System.Collections.Stack",
		"System.Collections.Queue",
		"System.Management.Automation.PSPrimitiveDictionary",
	}
	for _, name := range stock {
		r.Register(name, false, nil)
	}
}
