// Package types implements ValueModel: the tagged representation of every
// PSRP value (primitives, ETS objects, collections, enums) and the
// TypeRegistry that maps .NET type-name chains to constructors.
//
// Deliberately modeled as a small closed interface with one concrete struct
// per variant rather than one struct with a discriminant field — the
// ValueModel is consumed almost exclusively via type switches in the clixml
// codec and the message layer, and a closed interface makes the switch
// exhaustive-by-construction at compile time.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Value is the sans-I/O representation of every datum PSRP can carry.
// Implementations are value types (or pointers to them for the mutable
// Object/collection variants); none perform I/O.
type Value interface {
	// isValue is unexported so Value cannot be implemented outside this
	// package — the set of variants is closed per the spec's Value sum type.
	isValue()
}

// DateTimeKind distinguishes the three ways a PSRP datetime can be
// interpreted, matching the decode rules for the DT primitive tag.
type DateTimeKind int

const (
	// Unspecified is a naive datetime carrying no timezone information.
	Unspecified DateTimeKind = iota
	// UTC is a datetime anchored to UTC (encodes/decodes with a Z suffix).
	UTC
	// Local is a datetime with a fixed UTC offset (encodes as +HH:MM/-HH:MM).
	Local
)

// String is the PSString primitive.
type String struct{ V string }

// Char is a single UTF-16 code unit (not a Go rune: PSRP chars may be lone
// surrogate halves, which are not valid Go runes).
type Char struct{ V uint16 }

// Bool is the PSBool primitive.
type Bool struct{ V bool }

// Int8, Int16, Int32, Int64 are signed integers of the named width.
type Int8 struct{ V int8 }
type Int16 struct{ V int16 }
type Int32 struct{ V int32 }
type Int64 struct{ V int64 }

// UInt8, UInt16, UInt32, UInt64 are unsigned integers of the named width.
type UInt8 struct{ V uint8 }
type UInt16 struct{ V uint16 }
type UInt32 struct{ V uint32 }
type UInt64 struct{ V uint64 }

// Single is a 32-bit float (the CLIXML "Sg" tag).
type Single struct{ V float32 }

// Double is a 64-bit float (the CLIXML "Db" tag).
type Double struct{ V float64 }

// Decimal is carried as its canonical decimal string form: Go has no native
// fixed-point decimal type and PSRP decimals can exceed float64 precision,
// so round-tripping the original text is the only lossless representation.
type Decimal struct{ V string }

// DateTime is a point in time plus the timezone disposition it decoded
// with; Offset is only meaningful when Kind == Local.
type DateTime struct {
	V      time.Time
	Kind   DateTimeKind
	Offset time.Duration
}

// Duration is a signed nanosecond span (the CLIXML "TS" tag).
type Duration struct{ V time.Duration }

// ByteArray is the CLIXML "BA" tag, base64 on the wire.
type ByteArray struct{ V []byte }

// GUID is a .NET Guid value.
type GUID struct{ V uuid.UUID }

// URI is carried as its string form; PSRP does not constrain URI schemes.
type URI struct{ V string }

// Version is a 2-to-4 part .NET Version (Major.Minor[.Build[.Revision]]).
// Build and Revision are -1 when absent, matching .NET's own sentinel.
type Version struct {
	Major, Minor, Build, Revision int
}

// XMLDocument is an opaque XML document string (the CLIXML "XD" tag).
type XMLDocument struct{ V string }

// ScriptBlock is an opaque scriptblock source string (the CLIXML "SBK" tag).
type ScriptBlock struct{ V string }

// SecureString carries only ciphertext: plaintext is produced and consumed
// exclusively at the clixml.CryptoProvider boundary, never stored here.
type SecureString struct{ Ciphertext string }

// Null is the PSRP Nil value.
type Null struct{}

func (String) isValue()       {}
func (Char) isValue()         {}
func (Bool) isValue()         {}
func (Int8) isValue()         {}
func (Int16) isValue()        {}
func (Int32) isValue()        {}
func (Int64) isValue()        {}
func (UInt8) isValue()        {}
func (UInt16) isValue()       {}
func (UInt32) isValue()       {}
func (UInt64) isValue()       {}
func (Single) isValue()       {}
func (Double) isValue()       {}
func (Decimal) isValue()      {}
func (DateTime) isValue()     {}
func (Duration) isValue()     {}
func (ByteArray) isValue()    {}
func (GUID) isValue()         {}
func (URI) isValue()          {}
func (Version) isValue()      {}
func (XMLDocument) isValue()  {}
func (ScriptBlock) isValue()  {}
func (SecureString) isValue() {}
func (Null) isValue()         {}
func (*Object) isValue()      {}
func (*Enum) isValue()        {}
