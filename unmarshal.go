package dbus

// Native converts v to plain Go values.
//
// Basic values convert to the corresponding Go type: uint8, bool,
// int16, uint16, int32, uint32, int64, uint64, float64 or string.
// [ObjectPath] and [Signature] values convert to string, and [UnixFD]
// to int32.
//
// An [Array] of dict entries converts to a map[any]any. Other arrays,
// [Struct] values and [DictEntry] values convert to []any. A
// [Variant] converts to the native form of its inner value.
//
// Native(nil) returns nil.
func Native(v Value) any {
	switch v := v.(type) {
	case nil:
		return nil
	case Byte:
		return uint8(v)
	case Bool:
		return bool(v)
	case Int16:
		return int16(v)
	case Uint16:
		return uint16(v)
	case Int32:
		return int32(v)
	case Uint32:
		return uint32(v)
	case Int64:
		return int64(v)
	case Uint64:
		return uint64(v)
	case Double:
		return float64(v)
	case String:
		return string(v)
	case ObjectPath:
		return string(v)
	case Signature:
		return string(v)
	case UnixFD:
		return int32(v)
	case Array:
		if len(v.Elem) > 0 && v.Elem[0] == TypeDictEntryBegin {
			ret := make(map[any]any, len(v.Items))
			for _, it := range v.Items {
				if e, ok := it.(DictEntry); ok {
					ret[Native(e.Key)] = Native(e.Value)
				}
			}
			return ret
		}
		ret := make([]any, 0, len(v.Items))
		for _, it := range v.Items {
			ret = append(ret, Native(it))
		}
		return ret
	case Struct:
		ret := make([]any, 0, len(v))
		for _, f := range v {
			ret = append(ret, Native(f))
		}
		return ret
	case DictEntry:
		return []any{Native(v.Key), Native(v.Value)}
	case Variant:
		return Native(v.Value)
	default:
		return v
	}
}
