package clixml

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/smnsjas/go-psrpcore/types"
)

// Decoder parses CLIXML text into types.Value trees, resolving <Ref> and
// <TNRef> against the per-decode tables mirrored from the encoder side
// (spec §4.3).
type Decoder struct {
	Crypto   CryptoProvider
	Registry *types.Registry

	tnTable  map[int][]string
	objTable map[int]*types.Object
}

// NewDecoder returns a Decoder with fresh, empty reference tables, using
// reg for TypeRegistry resolution (nil means objects are returned as
// generic *types.Object without rehydration).
func NewDecoder(reg *types.Registry) *Decoder {
	return &Decoder{
		Crypto:   NoCryptoProvider{},
		Registry: reg,
		tnTable:  make(map[int][]string),
		objTable: make(map[int]*types.Object),
	}
}

// Unmarshal is the top-level entry point (spec's deserialize_clixml).
// Multiple concatenated top-level elements decode to multiple values.
func Unmarshal(s string) ([]types.Value, error) {
	return NewDecoder(nil).Unmarshal(s)
}

// Unmarshal parses s, which may contain several concatenated top-level
// CLIXML elements with no enclosing envelope. A synthetic wrapper element
// is used internally since encoding/xml requires a single document root;
// the wrapper never appears in the returned values.
func (d *Decoder) Unmarshal(s string) ([]types.Value, error) {
	wrapped := "<_Root>" + s + "</_Root>"
	xd := xml.NewDecoder(strings.NewReader(wrapped))

	// Advance to the wrapper's StartElement.
	tok, err := xd.Token()
	for err == nil {
		if _, ok := tok.(xml.StartElement); ok {
			break
		}
		tok, err = xd.Token()
	}
	if err != nil {
		return nil, &MalformedXMLError{Reason: "empty document", Cause: err}
	}

	var values []types.Value
	for {
		tok, err := xd.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &MalformedXMLError{Reason: "xml parse error", Cause: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			v, err := d.decodeElement(xd, t)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		case xml.EndElement:
			if t.Name.Local == "_Root" {
				return values, nil
			}
		}
	}
	return values, nil
}

// decodeElement decodes the element start, whose StartElement has already
// been consumed from xd, dispatching on its tag name.
func (d *Decoder) decodeElement(xd *xml.Decoder, start xml.StartElement) (types.Value, error) {
	switch start.Name.Local {
	case tagString:
		s, err := d.textContent(xd, start)
		return types.String{V: decodeText(s)}, err
	case tagChar:
		s, err := d.textContent(xd, start)
		if err != nil {
			return nil, err
		}
		n, perr := strconv.Atoi(strings.TrimSpace(s))
		if perr != nil {
			return nil, &MalformedXMLError{Reason: "invalid C content: " + s}
		}
		return types.Char{V: uint16(n)}, nil
	case tagBool:
		s, err := d.textContent(xd, start)
		if err != nil {
			return nil, err
		}
		b, perr := strconv.ParseBool(strings.TrimSpace(s))
		if perr != nil {
			return nil, &MalformedXMLError{Reason: "invalid B content: " + s}
		}
		return types.Bool{V: b}, nil
	case tagByte:
		return decodeIntTag[types.UInt8](d, xd, start, 8, false)
	case tagSByte:
		return decodeIntTag[types.Int8](d, xd, start, 8, true)
	case tagUInt16:
		return decodeIntTag[types.UInt16](d, xd, start, 16, false)
	case tagInt16:
		return decodeIntTag[types.Int16](d, xd, start, 16, true)
	case tagUInt32:
		return decodeIntTag[types.UInt32](d, xd, start, 32, false)
	case tagInt32:
		return decodeIntTag[types.Int32](d, xd, start, 32, true)
	case tagUInt64:
		return decodeIntTag[types.UInt64](d, xd, start, 64, false)
	case tagInt64:
		return decodeIntTag[types.Int64](d, xd, start, 64, true)
	case tagSingle:
		s, err := d.textContent(xd, start)
		if err != nil {
			return nil, err
		}
		f, perr := strconv.ParseFloat(strings.TrimSpace(s), 32)
		if perr != nil {
			return nil, &MalformedXMLError{Reason: "invalid Sg content: " + s}
		}
		return types.Single{V: float32(f)}, nil
	case tagDouble:
		s, err := d.textContent(xd, start)
		if err != nil {
			return nil, err
		}
		f, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if perr != nil {
			return nil, &MalformedXMLError{Reason: "invalid Db content: " + s}
		}
		return types.Double{V: f}, nil
	case tagDecimal:
		s, err := d.textContent(xd, start)
		return types.Decimal{V: strings.TrimSpace(s)}, err
	case tagDateTime:
		s, err := d.textContent(xd, start)
		if err != nil {
			return nil, err
		}
		return decodeDateTime(strings.TrimSpace(s))
	case tagTimeSpan:
		s, err := d.textContent(xd, start)
		if err != nil {
			return nil, err
		}
		dur, derr := decodeDuration(strings.TrimSpace(s))
		return types.Duration{V: dur}, derr
	case tagByteArray:
		s, err := d.textContent(xd, start)
		if err != nil {
			return nil, err
		}
		raw, berr := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
		if berr != nil {
			return nil, &MalformedXMLError{Reason: "invalid BA base64", Cause: berr}
		}
		return types.ByteArray{V: raw}, nil
	case tagGUID:
		s, err := d.textContent(xd, start)
		if err != nil {
			return nil, err
		}
		id, uerr := uuid.Parse(strings.TrimSpace(s))
		if uerr != nil {
			return nil, &MalformedXMLError{Reason: "invalid G content: " + s, Cause: uerr}
		}
		return types.GUID{V: id}, nil
	case tagURI:
		s, err := d.textContent(xd, start)
		return types.URI{V: decodeText(s)}, err
	case tagVersion:
		s, err := d.textContent(xd, start)
		if err != nil {
			return nil, err
		}
		return decodeVersion(strings.TrimSpace(s))
	case tagXMLDoc:
		s, err := d.textContent(xd, start)
		return types.XMLDocument{V: decodeText(s)}, err
	case tagScriptBlock:
		s, err := d.textContent(xd, start)
		return types.ScriptBlock{V: decodeText(s)}, err
	case tagSecureStr:
		s, err := d.textContent(xd, start)
		if err != nil {
			return nil, err
		}
		return types.SecureString{Ciphertext: strings.TrimSpace(s)}, nil
	case tagNil:
		if err := skipToEnd(xd, start); err != nil {
			return nil, err
		}
		return types.Null{}, nil
	case tagRef:
		if err := skipToEnd(xd, start); err != nil {
			return nil, err
		}
		id, err := refIDAttr(start)
		if err != nil {
			return nil, err
		}
		obj, ok := d.objTable[id]
		if !ok {
			return nil, &MalformedXMLError{Reason: fmt.Sprintf("Ref to unknown RefId %d", id)}
		}
		return obj, nil
	case tagObj:
		return d.decodeObject(xd, start)
	default:
		return d.decodeUnknown(xd, start)
	}
}

func refIDAttr(start xml.StartElement) (int, error) {
	for _, a := range start.Attr {
		if a.Name.Local == attrRefID {
			id, err := strconv.Atoi(a.Value)
			if err != nil {
				return 0, &MalformedXMLError{Reason: "invalid RefId: " + a.Value}
			}
			return id, nil
		}
	}
	return 0, &MalformedXMLError{Reason: "missing RefId attribute on " + start.Name.Local}
}

func nameAttr(start xml.StartElement) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == attrName {
			return a.Value, true
		}
	}
	return "", false
}

// textContent reads CharData until start's matching EndElement, which
// must be the next non-CharData token (primitive elements have no
// children). Unknown nested elements inside a primitive tag are tolerated
// by skipping them, per the decode contract's general unknown-tag
// tolerance.
func (d *Decoder) textContent(xd *xml.Decoder, start xml.StartElement) (string, error) {
	var sb strings.Builder
	for {
		tok, err := xd.Token()
		if err != nil {
			return "", &MalformedXMLError{Reason: "unterminated " + start.Name.Local, Cause: err}
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return sb.String(), nil
			}
		case xml.StartElement:
			if err := skipToEnd(xd, t); err != nil {
				return "", err
			}
		}
	}
}

// skipToEnd consumes and discards tokens through start's matching
// EndElement, tolerating arbitrary nested unknown content.
func skipToEnd(xd *xml.Decoder, start xml.StartElement) error {
	depth := 1
	for depth > 0 {
		tok, err := xd.Token()
		if err != nil {
			return &MalformedXMLError{Reason: "unterminated " + start.Name.Local, Cause: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == start.Name.Local {
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				depth--
			}
		}
	}
	return nil
}

func decodeIntTag[T any](d *Decoder, xd *xml.Decoder, start xml.StartElement, bits int, signed bool) (types.Value, error) {
	s, err := d.textContent(xd, start)
	if err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if signed {
		n, perr := strconv.ParseInt(s, 10, bits)
		if perr != nil {
			return nil, &MalformedXMLError{Reason: fmt.Sprintf("invalid %s content: %s", start.Name.Local, s)}
		}
		return boxSigned(start.Name.Local, n), nil
	}
	n, perr := strconv.ParseUint(s, 10, bits)
	if perr != nil {
		return nil, &MalformedXMLError{Reason: fmt.Sprintf("invalid %s content: %s", start.Name.Local, s)}
	}
	return boxUnsigned(start.Name.Local, n), nil
}

func boxSigned(tag string, n int64) types.Value {
	switch tag {
	case tagSByte:
		return types.Int8{V: int8(n)}
	case tagInt16:
		return types.Int16{V: int16(n)}
	case tagInt32:
		return types.Int32{V: int32(n)}
	default:
		return types.Int64{V: n}
	}
}

func boxUnsigned(tag string, n uint64) types.Value {
	switch tag {
	case tagByte:
		return types.UInt8{V: uint8(n)}
	case tagUInt16:
		return types.UInt16{V: uint16(n)}
	case tagUInt32:
		return types.UInt32{V: uint32(n)}
	default:
		return types.UInt64{V: n}
	}
}

func decodeVersion(s string) (types.Value, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return nil, &MalformedXMLError{Reason: "invalid Version content: " + s}
	}
	v := types.Version{Build: -1, Revision: -1}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, &MalformedXMLError{Reason: "invalid Version content: " + s}
		}
		nums[i] = n
	}
	v.Major = nums[0]
	v.Minor = nums[1]
	if len(nums) > 2 {
		v.Build = nums[2]
	}
	if len(nums) > 3 {
		v.Revision = nums[3]
	}
	return v, nil
}

// decodeObject parses an <Obj> element: TN/TNRef, optional ToString,
// optional leading primitive (enum underlying value), an optional
// collection body, and optional Props/MS.
func (d *Decoder) decodeObject(xd *xml.Decoder, start xml.StartElement) (types.Value, error) {
	refID, hasRefID := -1, false
	if id, err := refIDAttr(start); err == nil {
		refID, hasRefID = id, true
	}

	obj := types.NewObject("System.Object")

	for {
		tok, err := xd.Token()
		if err != nil {
			return nil, &MalformedXMLError{Reason: "unterminated Obj", Cause: err}
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == tagObj {
				goto done
			}
		case xml.StartElement:
			switch t.Name.Local {
			case tagTN:
				names, id, err := d.decodeTN(xd, t)
				if err != nil {
					return nil, err
				}
				obj.TypeNames = names
				d.tnTable[id] = names
			case tagTNRef:
				if err := skipToEnd(xd, t); err != nil {
					return nil, err
				}
				id, err := refIDAttr(t)
				if err != nil {
					return nil, err
				}
				names, ok := d.tnTable[id]
				if !ok {
					return nil, &MalformedXMLError{Reason: fmt.Sprintf("TNRef to unknown RefId %d", id)}
				}
				obj.TypeNames = names
			case tagToString:
				s, err := d.textContent(xd, t)
				if err != nil {
					return nil, err
				}
				dec := decodeText(s)
				obj.ToString = &dec
			case tagProps:
				props, err := d.decodeProps(xd, t)
				if err != nil {
					return nil, err
				}
				obj.Adapted = props
			case tagMS:
				props, err := d.decodeProps(xd, t)
				if err != nil {
					return nil, err
				}
				obj.Extended = props
			case tagDCT:
				entries, err := d.decodeDict(xd, t)
				if err != nil {
					return nil, err
				}
				obj.CollectionKind = types.Dict
				obj.DictEntries = entries
			case tagSTK:
				items, err := d.decodeSequence(xd, t)
				if err != nil {
					return nil, err
				}
				obj.CollectionKind = types.Stack
				obj.StackItems = items
			case tagQUE:
				items, err := d.decodeSequence(xd, t)
				if err != nil {
					return nil, err
				}
				obj.CollectionKind = types.Queue
				obj.QueueItems = items
			case tagLST:
				items, err := d.decodeSequence(xd, t)
				if err != nil {
					return nil, err
				}
				obj.CollectionKind = types.List
				obj.ListItems = items
			case tagIE:
				items, err := d.decodeSequence(xd, t)
				if err != nil {
					return nil, err
				}
				obj.CollectionKind = types.IEnumerable
				obj.IEnumItems = items
			default:
				// A bare primitive tag directly under Obj is the
				// "object extends a primitive" case (spec §4.3),
				// covering enum underlying values among others.
				v, err := d.decodeElement(xd, t)
				if err != nil {
					return nil, err
				}
				obj.Primitive = v
			}
		}
	}
done:
	if hasRefID {
		d.objTable[refID] = obj
	}
	if d.Registry != nil {
		return d.Registry.Resolve(obj)
	}
	return obj, nil
}

func (d *Decoder) decodeTN(xd *xml.Decoder, start xml.StartElement) ([]string, int, error) {
	id, err := refIDAttr(start)
	if err != nil {
		return nil, 0, err
	}
	var names []string
	for {
		tok, terr := xd.Token()
		if terr != nil {
			return nil, 0, &MalformedXMLError{Reason: "unterminated TN", Cause: terr}
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == tagTN {
				return names, id, nil
			}
		case xml.StartElement:
			if t.Name.Local != tagT {
				return nil, 0, &UnexpectedTagError{Tag: t.Name.Local, Expected: tagT}
			}
			s, err := d.textContent(xd, t)
			if err != nil {
				return nil, 0, err
			}
			names = append(names, decodeText(s))
		}
	}
}

func (d *Decoder) decodeProps(xd *xml.Decoder, start xml.StartElement) ([]types.Property, error) {
	var props []types.Property
	for {
		tok, err := xd.Token()
		if err != nil {
			return nil, &MalformedXMLError{Reason: "unterminated " + start.Name.Local, Cause: err}
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return props, nil
			}
		case xml.StartElement:
			name, _ := nameAttr(t)
			v, err := d.decodeElement(xd, t)
			if err != nil {
				return nil, err
			}
			props = append(props, types.Property{Name: name, Value: v})
		}
	}
}

func (d *Decoder) decodeSequence(xd *xml.Decoder, start xml.StartElement) ([]types.Value, error) {
	var items []types.Value
	for {
		tok, err := xd.Token()
		if err != nil {
			return nil, &MalformedXMLError{Reason: "unterminated " + start.Name.Local, Cause: err}
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return items, nil
			}
		case xml.StartElement:
			v, err := d.decodeElement(xd, t)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
	}
}

func (d *Decoder) decodeDict(xd *xml.Decoder, start xml.StartElement) ([]types.DictEntry, error) {
	var entries []types.DictEntry
	for {
		tok, err := xd.Token()
		if err != nil {
			return nil, &MalformedXMLError{Reason: "unterminated DCT", Cause: err}
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == tagDCT {
				return entries, nil
			}
		case xml.StartElement:
			if t.Name.Local != tagEn {
				if err := skipToEnd(xd, t); err != nil {
					return nil, err
				}
				continue
			}
			entry, err := d.decodeEn(xd, t)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}
}

func (d *Decoder) decodeEn(xd *xml.Decoder, start xml.StartElement) (types.DictEntry, error) {
	var entry types.DictEntry
	for {
		tok, err := xd.Token()
		if err != nil {
			return entry, &MalformedXMLError{Reason: "unterminated En", Cause: err}
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == tagEn {
				return entry, nil
			}
		case xml.StartElement:
			switch t.Name.Local {
			case tagKey:
				v, err := d.decodeWrapped(xd, t)
				if err != nil {
					return entry, err
				}
				entry.Key = v
			case tagValue:
				v, err := d.decodeWrapped(xd, t)
				if err != nil {
					return entry, err
				}
				entry.Value = v
			default:
				if err := skipToEnd(xd, t); err != nil {
					return entry, err
				}
			}
		}
	}
}

// decodeWrapped decodes the single child value element inside a Key/Value
// wrapper and consumes through the wrapper's own EndElement.
func (d *Decoder) decodeWrapped(xd *xml.Decoder, wrapper xml.StartElement) (types.Value, error) {
	var result types.Value
	for {
		tok, err := xd.Token()
		if err != nil {
			return nil, &MalformedXMLError{Reason: "unterminated " + wrapper.Name.Local, Cause: err}
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == wrapper.Name.Local {
				return result, nil
			}
		case xml.StartElement:
			v, err := d.decodeElement(xd, t)
			if err != nil {
				return nil, err
			}
			result = v
		}
	}
}

// decodeUnknown tolerates any element type not in the dialect: per spec
// §4.3 "unknown tags under Obj are ignored," it is skipped and surfaced as
// a generic opaque value rather than failing the whole decode.
func (d *Decoder) decodeUnknown(xd *xml.Decoder, start xml.StartElement) (types.Value, error) {
	var buf bytes.Buffer
	depth := 1
	for depth > 0 {
		tok, err := xd.Token()
		if err != nil {
			return nil, &MalformedXMLError{Reason: "unterminated unknown tag " + start.Name.Local, Cause: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == start.Name.Local {
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				depth--
			}
		case xml.CharData:
			buf.Write(t)
		}
	}
	obj := types.NewObject("Deserialized.Unknown." + start.Name.Local)
	s := buf.String()
	obj.ToString = &s
	return obj, nil
}
