package types

import (
	"fmt"
	"math"
	"time"
)

// From promotes an untyped native Go value to its default Value
// representation, per the promotion table in spec §4.2:
//
//	string -> String, bool -> Bool,
//	signed integer within the int32 range -> Int32, else -> Int64,
//	float -> Single, sequence -> List, mapping -> Dict,
//	byte buffer -> ByteArray, time.Time -> DateTime, nil -> Null.
//
// Values that are already a types.Value pass through unchanged. Anything
// else is an error: callers needing Object/Enum construction use
// NewObject/NewEnum directly rather than relying on auto-promotion, since
// those carry information (type-name chains) a bare native value cannot.
func From(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case nil:
		return Null{}, nil
	case string:
		return String{V: x}, nil
	case bool:
		return Bool{V: x}, nil
	case []byte:
		return ByteArray{V: x}, nil
	case int:
		return fromInt64(int64(x)), nil
	case int8:
		return Int32{V: int32(x)}, nil
	case int16:
		return Int32{V: int32(x)}, nil
	case int32:
		return Int32{V: x}, nil
	case int64:
		return fromInt64(x), nil
	case uint:
		return fromUint64(uint64(x)), nil
	case uint8:
		return UInt8{V: x}, nil
	case uint16:
		return UInt16{V: x}, nil
	case uint32:
		return fromUint64(uint64(x)), nil
	case uint64:
		return fromUint64(x), nil
	case float32:
		return Single{V: x}, nil
	case float64:
		return Double{V: x}, nil
	case time.Time:
		dt := DateTime{V: x, Kind: kindOf(x)}
		if dt.Kind == Local {
			_, offsetSec := x.Zone()
			dt.Offset = time.Duration(offsetSec) * time.Second
		}
		return dt, nil
	case []any:
		items := make([]Value, len(x))
		for i, e := range x {
			item, err := From(e)
			if err != nil {
				return nil, fmt.Errorf("types.From: index %d: %w", i, err)
			}
			items[i] = item
		}
		obj := NewObject("System.Object[]")
		obj.CollectionKind = List
		obj.ListItems = items
		return obj, nil
	case map[string]any:
		obj := NewObject("System.Collections.Hashtable")
		obj.CollectionKind = Dict
		for k, val := range x {
			item, err := From(val)
			if err != nil {
				return nil, fmt.Errorf("types.From: key %q: %w", k, err)
			}
			obj.DictEntries = append(obj.DictEntries, DictEntry{Key: String{V: k}, Value: item})
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("types.From: unsupported native type %T", v)
	}
}

func fromInt64(x int64) Value {
	if x >= math.MinInt32 && x <= math.MaxInt32 {
		return Int32{V: int32(x)}
	}
	return Int64{V: x}
}

func fromUint64(x uint64) Value {
	if x <= math.MaxInt32 {
		return Int32{V: int32(x)}
	}
	if x <= math.MaxInt64 {
		return Int64{V: int64(x)}
	}
	return UInt64{V: x}
}

// kindOf classifies a native time.Time for promotion. Go's time.Time always
// carries a location, so the Unspecified kind is only reachable by
// constructing types.DateTime directly (or via clixml decode of a
// timezone-less <DT>) — native promotion never produces it.
func kindOf(t time.Time) DateTimeKind {
	if t.Location() == time.UTC {
		return UTC
	}
	return Local
}
