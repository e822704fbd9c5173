package clixml

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/smnsjas/go-psrpcore/types"
)

// Encoder serializes types.Value trees to CLIXML text. It owns the two
// per-encode tables spec §4.3 describes: an object-reference table keyed
// by pointer identity (for *types.Object only — Enum values are small
// enough, and collections are never reference-deduplicated per spec, so
// they never consult this table) and a type-name-list table for repeated
// TN chains.
//
// An Encoder is not safe for concurrent use; per spec §5 nothing in this
// module is.
type Encoder struct {
	Crypto CryptoProvider

	objRefs map[*types.Object]int
	tnRefs  map[string]int
	nextObj int
	nextTN  int
}

// NewEncoder returns an Encoder with fresh, empty reference tables.
func NewEncoder() *Encoder {
	return &Encoder{
		Crypto:  NoCryptoProvider{},
		objRefs: make(map[*types.Object]int),
		tnRefs:  make(map[string]int),
	}
}

// Marshal is the top-level entry point (spec's serialize_clixml):
// concatenates the CLIXML for each value with no enclosing envelope
// element.
func Marshal(values ...types.Value) (string, error) {
	enc := NewEncoder()
	var b strings.Builder
	for _, v := range values {
		if err := enc.Encode(&b, v); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// Encode writes the CLIXML for v to b.
func (e *Encoder) Encode(b *strings.Builder, v types.Value) error {
	switch x := v.(type) {
	case types.String:
		writeTextElem(b, tagString, nil, encodeText(x.V))
	case types.Char:
		writeTextElem(b, tagChar, nil, strconv.Itoa(int(x.V)))
	case types.Bool:
		writeTextElem(b, tagBool, nil, strconv.FormatBool(x.V))
	case types.Int8:
		writeTextElem(b, tagSByte, nil, strconv.Itoa(int(x.V)))
	case types.Int16:
		writeTextElem(b, tagInt16, nil, strconv.Itoa(int(x.V)))
	case types.Int32:
		writeTextElem(b, tagInt32, nil, strconv.Itoa(int(x.V)))
	case types.Int64:
		writeTextElem(b, tagInt64, nil, strconv.FormatInt(x.V, 10))
	case types.UInt8:
		writeTextElem(b, tagByte, nil, strconv.Itoa(int(x.V)))
	case types.UInt16:
		writeTextElem(b, tagUInt16, nil, strconv.Itoa(int(x.V)))
	case types.UInt32:
		writeTextElem(b, tagUInt32, nil, strconv.FormatUint(uint64(x.V), 10))
	case types.UInt64:
		writeTextElem(b, tagUInt64, nil, strconv.FormatUint(x.V, 10))
	case types.Single:
		writeTextElem(b, tagSingle, nil, strconv.FormatFloat(float64(x.V), 'G', -1, 32))
	case types.Double:
		writeTextElem(b, tagDouble, nil, strconv.FormatFloat(x.V, 'G', -1, 64))
	case types.Decimal:
		writeTextElem(b, tagDecimal, nil, x.V)
	case types.DateTime:
		writeTextElem(b, tagDateTime, nil, encodeDateTime(x))
	case types.Duration:
		writeTextElem(b, tagTimeSpan, nil, encodeDuration(x.V))
	case types.ByteArray:
		writeTextElem(b, tagByteArray, nil, base64.StdEncoding.EncodeToString(x.V))
	case types.GUID:
		writeTextElem(b, tagGUID, nil, x.V.String())
	case types.URI:
		writeTextElem(b, tagURI, nil, encodeText(x.V))
	case types.Version:
		writeTextElem(b, tagVersion, nil, encodeVersion(x))
	case types.XMLDocument:
		writeTextElem(b, tagXMLDoc, nil, encodeText(x.V))
	case types.ScriptBlock:
		writeTextElem(b, tagScriptBlock, nil, encodeText(x.V))
	case types.SecureString:
		return e.encodeSecureString(b, x)
	case types.Null:
		fmt.Fprintf(b, "<%s/>", tagNil)
	case *types.Enum:
		return e.encodeEnum(b, x)
	case *types.Object:
		return e.encodeObject(b, x)
	default:
		return &MalformedXMLError{Reason: fmt.Sprintf("unsupported value type %T", v)}
	}
	return nil
}

func (e *Encoder) encodeSecureString(b *strings.Builder, ss types.SecureString) error {
	cipher := ss.Ciphertext
	if cipher == "" {
		return &CryptoUnavailableError{Op: "serialize SecureString"}
	}
	// ss.Ciphertext is assumed already encrypted by the caller (via
	// Encoder.EncryptSecureString) — see that helper for the plaintext path.
	writeTextElem(b, tagSecureStr, nil, cipher)
	return nil
}

// EncryptSecureString is the plaintext-accepting convenience: it calls
// e.Crypto.Encrypt and wraps the result as a types.SecureString ready for
// Encode. Kept separate from Encode itself because Encode's input is
// already a types.Value — SecureString never stores plaintext per
// invariant I3, so the plaintext->ciphertext step happens before a
// SecureString value even exists.
func (e *Encoder) EncryptSecureString(plaintext string) (types.SecureString, error) {
	cipher, err := e.Crypto.Encrypt(plaintext)
	if err != nil {
		return types.SecureString{}, err
	}
	return types.SecureString{Ciphertext: cipher}, nil
}

func (e *Encoder) encodeEnum(b *strings.Builder, en *types.Enum) error {
	b.WriteString("<Obj")
	tnID, hit := e.tnRefs[tnKey(en.TypeNames)]
	if !hit {
		tnID = e.nextTN
		e.nextTN++
		e.tnRefs[tnKey(en.TypeNames)] = tnID
	}
	b.WriteString(">")
	e.writeTN(b, en.TypeNames, tnID, hit)
	writeTextElem(b, tagInt32, nil, strconv.FormatInt(en.Value, 10))
	b.WriteString("</Obj>")
	return nil
}

func (e *Encoder) encodeObject(b *strings.Builder, obj *types.Object) error {
	// Dict/Stack/Queue/List/IEnumerable bodies are never reference-encoded
	// (spec §4.3): always emit the full body, and never register this
	// pointer in the ref table (so repeat appearances of a non-collection
	// object that happens to live inside it are unaffected).
	isCollection := obj.CollectionKind != types.NotACollection

	if !isCollection {
		if id, hit := e.objRefs[obj]; hit {
			fmt.Fprintf(b, "<%s %s=%q/>", tagRef, attrRefID, strconv.Itoa(id))
			return nil
		}
	}

	id := e.nextObj
	e.nextObj++
	if !isCollection {
		e.objRefs[obj] = id
	}

	fmt.Fprintf(b, "<%s %s=%q>", tagObj, attrRefID, strconv.Itoa(id))

	tnID, hit := e.tnRefs[tnKey(obj.TypeNames)]
	if !hit {
		tnID = e.nextTN
		e.nextTN++
		e.tnRefs[tnKey(obj.TypeNames)] = tnID
	}
	e.writeTN(b, obj.TypeNames, tnID, hit)

	if obj.ToString != nil {
		writeTextElem(b, tagToString, nil, encodeText(*obj.ToString))
	}

	if obj.Primitive != nil {
		if err := e.Encode(b, obj.Primitive); err != nil {
			return err
		}
	}

	switch obj.CollectionKind {
	case types.Dict:
		b.WriteString("<" + tagDCT + ">")
		for _, entry := range obj.DictEntries {
			b.WriteString("<" + tagEn + ">")
			b.WriteString("<" + tagKey + ">")
			if err := e.Encode(b, entry.Key); err != nil {
				return err
			}
			b.WriteString("</" + tagKey + ">")
			b.WriteString("<" + tagValue + ">")
			if err := e.Encode(b, entry.Value); err != nil {
				return err
			}
			b.WriteString("</" + tagValue + ">")
			b.WriteString("</" + tagEn + ">")
		}
		b.WriteString("</" + tagDCT + ">")
	case types.Stack:
		if err := e.encodeSequence(b, tagSTK, obj.StackItems); err != nil {
			return err
		}
	case types.Queue:
		if err := e.encodeSequence(b, tagQUE, obj.QueueItems); err != nil {
			return err
		}
	case types.List:
		if err := e.encodeSequence(b, tagLST, obj.ListItems); err != nil {
			return err
		}
	case types.IEnumerable:
		if err := e.encodeSequence(b, tagIE, obj.IEnumItems); err != nil {
			return err
		}
	}

	if len(obj.Adapted) > 0 {
		if err := e.encodeProps(b, tagProps, obj.Adapted); err != nil {
			return err
		}
	}
	if len(obj.Extended) > 0 {
		if err := e.encodeProps(b, tagMS, obj.Extended); err != nil {
			return err
		}
	}

	b.WriteString("</" + tagObj + ">")
	return nil
}

// encodeSequence writes a LST/STK/QUE/IE body. Items are encoded through
// the same Encoder so that plain (non-collection) objects repeated across
// items still benefit from reference dedup; the collection-body exemption
// itself is enforced in encodeObject.
func (e *Encoder) encodeSequence(b *strings.Builder, tag string, items []types.Value) error {
	b.WriteString("<" + tag + ">")
	for _, item := range items {
		if err := e.Encode(b, item); err != nil {
			return err
		}
	}
	b.WriteString("</" + tag + ">")
	return nil
}

func (e *Encoder) encodeProps(b *strings.Builder, tag string, props []types.Property) error {
	b.WriteString("<" + tag + ">")
	for _, p := range props {
		if err := e.encodeNamed(b, p.Name, p.Value); err != nil {
			return err
		}
	}
	b.WriteString("</" + tag + ">")
	return nil
}

// encodeNamed encodes v the same way Encode does, except the produced
// element's opening tag also carries an N="name" attribute — CLIXML's
// convention for naming a property's value inside Props/MS.
func (e *Encoder) encodeNamed(b *strings.Builder, name string, v types.Value) error {
	var inner strings.Builder
	if err := e.Encode(&inner, v); err != nil {
		return err
	}
	b.WriteString(injectNameAttr(inner.String(), name))
	return nil
}

// injectNameAttr inserts N="name" as the first attribute of elem's opening
// tag. elem is always produced by Encode, so it always starts with "<tag"
// or "<tag/>"/"<tag attr=...>".
func injectNameAttr(elem, name string) string {
	gt := strings.IndexByte(elem, '>')
	if gt < 0 {
		return elem
	}
	open := elem[:gt]
	rest := elem[gt:]
	selfClose := strings.HasSuffix(open, "/")
	if selfClose {
		open = strings.TrimSuffix(open, "/")
	}
	escaped := strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;").Replace(name)
	out := open + " " + attrName + `="` + escaped + `"`
	if selfClose {
		out += "/"
	}
	return out + rest
}

func (e *Encoder) writeTN(b *strings.Builder, names []string, id int, hit bool) {
	if hit {
		fmt.Fprintf(b, "<%s %s=%q/>", tagTNRef, attrRefID, strconv.Itoa(id))
		return
	}
	fmt.Fprintf(b, "<%s %s=%q>", tagTN, attrRefID, strconv.Itoa(id))
	for _, n := range names {
		writeTextElem(b, tagT, nil, encodeText(n))
	}
	b.WriteString("</" + tagTN + ">")
}

func tnKey(names []string) string {
	return strings.Join(names, "\x00")
}

func writeTextElem(b *strings.Builder, tag string, _ map[string]string, text string) {
	if text == "" {
		fmt.Fprintf(b, "<%s></%s>", tag, tag)
		return
	}
	fmt.Fprintf(b, "<%s>%s</%s>", tag, text, tag)
}

func encodeVersion(v types.Version) string {
	s := fmt.Sprintf("%d.%d", v.Major, v.Minor)
	if v.Build >= 0 {
		s += fmt.Sprintf(".%d", v.Build)
	}
	if v.Revision >= 0 {
		s += fmt.Sprintf(".%d", v.Revision)
	}
	return s
}
