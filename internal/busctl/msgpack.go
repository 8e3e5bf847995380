package busctl

import (
	"bytes"
	"fmt"

	"github.com/lsdbus/dbus"
	"github.com/vmihailenco/msgpack/v5"
)

// MarshalMsgpack returns values encoded as a MessagePack array.
//
// Variants encode as their contents. Byte arrays encode as binary
// strings, and arrays of dict entries as maps in their original order.
// Structs and lone dict entries encode as arrays.
func MarshalMsgpack(values []dbus.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeArrayLen(len(values)); err != nil {
		return nil, err
	}
	for _, v := range values {
		if err := encodeMsgpack(enc, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeMsgpack(enc *msgpack.Encoder, v dbus.Value) error {
	switch v := v.(type) {
	case dbus.Byte:
		return enc.EncodeUint(uint64(v))
	case dbus.Bool:
		return enc.EncodeBool(bool(v))
	case dbus.Int16:
		return enc.EncodeInt(int64(v))
	case dbus.Uint16:
		return enc.EncodeUint(uint64(v))
	case dbus.Int32:
		return enc.EncodeInt(int64(v))
	case dbus.Uint32:
		return enc.EncodeUint(uint64(v))
	case dbus.Int64:
		return enc.EncodeInt(int64(v))
	case dbus.Uint64:
		return enc.EncodeUint(uint64(v))
	case dbus.Double:
		return enc.EncodeFloat64(float64(v))
	case dbus.String:
		return enc.EncodeString(string(v))
	case dbus.ObjectPath:
		return enc.EncodeString(string(v))
	case dbus.Signature:
		return enc.EncodeString(string(v))
	case dbus.UnixFD:
		return enc.EncodeInt(int64(v))
	case dbus.Array:
		switch {
		case v.Elem == "y":
			bs := make([]byte, 0, len(v.Items))
			for _, it := range v.Items {
				b, ok := it.(dbus.Byte)
				if !ok {
					return fmt.Errorf("byte array holds %T", it)
				}
				bs = append(bs, byte(b))
			}
			return enc.EncodeBytes(bs)
		case len(v.Elem) > 0 && v.Elem[0] == dbus.TypeDictEntryBegin:
			if err := enc.EncodeMapLen(len(v.Items)); err != nil {
				return err
			}
			for _, it := range v.Items {
				e, ok := it.(dbus.DictEntry)
				if !ok {
					return fmt.Errorf("dict array holds %T", it)
				}
				if err := encodeMsgpack(enc, e.Key); err != nil {
					return err
				}
				if err := encodeMsgpack(enc, e.Value); err != nil {
					return err
				}
			}
			return nil
		default:
			return encodeMsgpackList(enc, v.Items)
		}
	case dbus.Struct:
		return encodeMsgpackList(enc, v)
	case dbus.DictEntry:
		return encodeMsgpackList(enc, []dbus.Value{v.Key, v.Value})
	case dbus.Variant:
		return encodeMsgpack(enc, v.Value)
	default:
		return fmt.Errorf("cannot encode %T as msgpack", v)
	}
}

func encodeMsgpackList(enc *msgpack.Encoder, vs []dbus.Value) error {
	if err := enc.EncodeArrayLen(len(vs)); err != nil {
		return err
	}
	for _, v := range vs {
		if err := encodeMsgpack(enc, v); err != nil {
			return err
		}
	}
	return nil
}
