package dbus

import "fmt"

// decFrame is the decoder's container context.
type decFrame struct {
	kind     ContainerKind
	contents Signature
	items    []Value
}

// value wraps the decoded items of f into the container value f
// describes.
func (f *decFrame) value() (Value, error) {
	switch f.kind {
	case KindArray:
		items := f.items
		if items == nil {
			items = []Value{}
		}
		return Array{Elem: f.contents, Items: items}, nil
	case KindStruct:
		if len(f.items) == 0 {
			return nil, grammarErr("("+string(f.contents)+")", 0, "empty struct")
		}
		return Struct(f.items), nil
	case KindDictEntry:
		if len(f.items) != 2 {
			return nil, grammarErr("{"+string(f.contents)+"}", 0, "dict entry has %d fields, must have exactly 2", len(f.items))
		}
		if k := f.items[0].Type(); !k.IsBasic() {
			return nil, grammarErr("{"+string(f.contents)+"}", 1, "invalid dict entry key type %q, must be a basic type", k)
		}
		return DictEntry{f.items[0], f.items[1]}, nil
	case KindVariant:
		if len(f.items) != 1 {
			return nil, TypeError{Signature: f.contents, Reason: fmt.Sprintf("variant holds %d values, must hold exactly 1", len(f.items))}
		}
		return Variant{f.contents, f.items[0]}, nil
	default:
		return nil, fmt.Errorf("unknown container kind %v", f.kind)
	}
}

// Decode reads a complete message body from src, and returns its
// values.
//
// Decode trusts src to describe its own structure: it calls
// src.PeekType to learn what comes next, src.ReadBasic for basic
// values, and src.EnterContainer/src.ExitContainer around containers.
//
// On error, Decode returns no values. The returned error is a
// [SourceError] if src fails, a [DepthError] if containers nest
// deeper than 128, a [TypeError] if src returns a basic value of the
// wrong Go type, or a [GrammarError] if src reports a malformed struct
// or dict entry.
func Decode(src MessageSource) ([]Value, error) {
	var st stack[decFrame]
	cur := decFrame{}

	srcErr := func(op string, err error) error {
		return SourceError{op, cur.contents, len(cur.items), st.Len(), err}
	}

	for {
		t, contents, ok, err := src.PeekType()
		if err != nil {
			return nil, srcErr("PeekType", err)
		}

		if !ok {
			parent, ok := st.Pop()
			if !ok {
				return cur.items, nil
			}
			debugf("exit %s %q", cur.kind, cur.contents)
			if err := src.ExitContainer(); err != nil {
				return nil, srcErr("ExitContainer", err)
			}
			v, err := cur.value()
			if err != nil {
				return nil, err
			}
			parent.items = append(parent.items, v)
			cur = parent
			continue
		}

		if kind := ContainerKind(t); kind.IsValid() {
			if st.Full() {
				return nil, DepthError{"container", maxContainerDepth}
			}
			debugf("enter %s %q", kind, contents)
			if err := src.EnterContainer(kind, contents); err != nil {
				return nil, srcErr("EnterContainer", err)
			}
			if err := st.Push(cur); err != nil {
				return nil, err
			}
			cur = decFrame{kind: kind, contents: contents}
			continue
		}

		if !IsBasicType(t) {
			return nil, srcErr("PeekType", fmt.Errorf("unknown type code %q", t))
		}
		raw, err := src.ReadBasic(t)
		if err != nil {
			return nil, srcErr("ReadBasic", err)
		}
		v, err := basicValue(t, raw)
		if err != nil {
			return nil, err
		}
		debugf("read %c %v", t, v)
		cur.items = append(cur.items, v)
	}
}

// basicValue wraps raw, a Go scalar returned by a MessageSource for
// type t, into the matching Value.
func basicValue(t byte, raw any) (Value, error) {
	var (
		ret Value
		ok  bool
	)
	switch t {
	case TypeByte:
		var v uint8
		v, ok = raw.(uint8)
		ret = Byte(v)
	case TypeBool:
		var v bool
		v, ok = raw.(bool)
		ret = Bool(v)
	case TypeInt16:
		var v int16
		v, ok = raw.(int16)
		ret = Int16(v)
	case TypeUint16:
		var v uint16
		v, ok = raw.(uint16)
		ret = Uint16(v)
	case TypeInt32:
		var v int32
		v, ok = raw.(int32)
		ret = Int32(v)
	case TypeUint32:
		var v uint32
		v, ok = raw.(uint32)
		ret = Uint32(v)
	case TypeInt64:
		var v int64
		v, ok = raw.(int64)
		ret = Int64(v)
	case TypeUint64:
		var v uint64
		v, ok = raw.(uint64)
		ret = Uint64(v)
	case TypeDouble:
		var v float64
		v, ok = raw.(float64)
		ret = Double(v)
	case TypeString:
		var v string
		v, ok = raw.(string)
		ret = String(v)
	case TypeObjectPath:
		var v string
		v, ok = raw.(string)
		ret = ObjectPath(v)
	case TypeSignature:
		var v string
		v, ok = raw.(string)
		ret = Signature(v)
	case TypeUnixFD:
		var v int32
		v, ok = raw.(int32)
		ret = UnixFD(v)
	}
	if !ok {
		return nil, TypeError{Signature: Signature([]byte{t}), Reason: fmt.Sprintf("message source returned %T", raw)}
	}
	return ret, nil
}
