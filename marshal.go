package dbus

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// ConversionError is the error returned when a Go value or type has no
// DBus representation.
type ConversionError struct {
	// Type is the Go type that could not be converted, or nil for a
	// nil interface.
	Type reflect.Type
	// Reason is the underlying problem.
	Reason error
}

func (e ConversionError) Error() string {
	if e.Type == nil {
		return fmt.Sprintf("can't convert nil to a dbus value: %s", e.Reason)
	}
	return fmt.Sprintf("can't convert %s to a dbus value: %s", e.Type, e.Reason)
}

func (e ConversionError) Unwrap() error {
	return e.Reason
}

func convErr(t reflect.Type, reason string, args ...any) error {
	return ConversionError{t, fmt.Errorf(reason, args...)}
}

var (
	valueType = reflect.TypeFor[Value]()

	// Value implementations whose type depends on their contents,
	// and that therefore have no static signature.
	dynamicValueTypes = []reflect.Type{
		reflect.TypeFor[Array](),
		reflect.TypeFor[Struct](),
		reflect.TypeFor[DictEntry](),
	}
)

func isPointer(v any) bool {
	return reflect.TypeOf(v).Kind() == reflect.Pointer
}

var typeToSignature cache[reflect.Type, Signature]

// SignatureOf returns the DBus signature of the value ValueOf(v)
// would return.
func SignatureOf(v any) (Signature, error) {
	if dv, ok := v.(Value); ok && !isPointer(v) {
		return dv.Type(), nil
	}
	if v == nil {
		return "", convErr(nil, "nil interface")
	}
	return signatureFor(reflect.TypeOf(v), nil)
}

// signatureFor returns the DBus signature of Go type t. stack is the
// chain of struct types being examined, to detect recursive types.
func signatureFor(t reflect.Type, stack []reflect.Type) (sig Signature, err error) {
	if ret, err := typeToSignature.Get(t); err == nil {
		return ret, nil
	} else if !errors.Is(err, errNotFound) {
		return "", err
	}

	if slices.Contains(stack, t) {
		return "", convErr(t, "recursive type")
	}
	stack = append(stack, t)

	// Note, defer captures the type value before we mess with it
	// below.
	defer func(t reflect.Type) {
		if err != nil {
			typeToSignature.SetErr(t, err)
		} else {
			typeToSignature.Set(t, sig)
		}
	}(t)

	t = derefType(t)

	if t.Kind() == reflect.Interface {
		return "v", nil
	}
	if t.Implements(valueType) {
		if slices.Contains(dynamicValueTypes, t) {
			return "", convErr(t, "signature depends on the value's contents")
		}
		return reflect.Zero(t).Interface().(Value).Type(), nil
	}
	if ret, ok := kindToType[t.Kind()]; ok {
		return Signature([]byte{ret}), nil
	}

	switch t.Kind() {
	case reflect.Int, reflect.Uint:
		return "", convErr(t, "int and uint aren't portable, use fixed width integers")
	case reflect.Int8:
		return "", convErr(t, "int8 has no corresponding DBus type, use uint8 instead")
	case reflect.Float32:
		return "", convErr(t, "float32 has no corresponding DBus type, use float64 instead")
	case reflect.Slice, reflect.Array:
		es, err := signatureFor(t.Elem(), stack)
		if err != nil {
			return "", err
		}
		return "a" + es, nil
	case reflect.Map:
		kt := t.Key()
		if !mapKeyKinds.Has(kt.Kind()) {
			return "", convErr(t, "invalid map key type %s", kt)
		}
		ks, err := signatureFor(kt, stack)
		if err != nil {
			return "", err
		}
		vs, err := signatureFor(t.Elem(), stack)
		if err != nil {
			return "", err
		}
		return "a{" + ks + vs + "}", nil
	case reflect.Struct:
		fs := exportedFields(t)
		if len(fs) == 0 {
			return "", convErr(t, "struct has no exported fields")
		}
		var b strings.Builder
		b.WriteByte('(')
		for _, f := range fs {
			fs, err := signatureFor(f.Type, stack)
			if err != nil {
				return "", err
			}
			b.WriteString(string(fs))
		}
		b.WriteByte(')')
		return ParseSignature(b.String())
	}

	return "", convErr(t, "no dbus mapping for type")
}

// ValueOf converts the Go value v to a DBus [Value].
//
// Values that already implement Value are returned as-is. Otherwise,
// ValueOf follows these rules:
//
// uint8, uint16, uint32, uint64, int16, int32, int64, float64, bool
// and string values, and types derived from them, convert to the
// corresponding DBus basic type.
//
// Slice and array values convert to an [Array], whose element type is
// derived from the Go element type, so that empty and nil slices have
// a well defined type.
//
// Map values convert to an Array of [DictEntry]. The map's key kind
// must be one of the basic kinds above. Entries are sorted by key.
//
// Struct values convert to a [Struct] of their exported fields, in
// declaration order. Embedded structs are flattened into the outer
// struct.
//
// Pointers convert as the value pointed to. A nil pointer converts as
// the zero value of the type pointed to.
//
// Interface-typed slots, such as the values of a map[string]any,
// convert to a [Variant] of their dynamic value.
//
// int, uint, int8, float32, complex, channel and function values have
// no DBus representation, and neither do recursive types. For these,
// ValueOf returns a [ConversionError].
func ValueOf(v any) (Value, error) {
	if dv, ok := v.(Value); ok && !isPointer(v) {
		return dv, nil
	}
	if v == nil {
		return nil, convErr(nil, "nil interface")
	}
	return valueOf(reflect.ValueOf(v), 0)
}

func valueOf(v reflect.Value, depth int) (Value, error) {
	if depth > maxContainerDepth {
		return nil, DepthError{"container", maxContainerDepth}
	}
	t := v.Type()

	if t.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, convErr(t, "nil interface")
		}
		inner, err := valueOf(v.Elem(), depth+1)
		if err != nil {
			return nil, err
		}
		if vr, ok := inner.(Variant); ok {
			return vr, nil
		}
		return NewVariant(inner), nil
	}

	if t.Kind() == reflect.Pointer {
		if v.IsNil() {
			return valueOf(reflect.Zero(t.Elem()), depth+1)
		}
		return valueOf(v.Elem(), depth+1)
	}

	if t.Implements(valueType) {
		return v.Interface().(Value), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return Bool(v.Bool()), nil
	case reflect.Uint8:
		return Byte(v.Uint()), nil
	case reflect.Int16:
		return Int16(v.Int()), nil
	case reflect.Uint16:
		return Uint16(v.Uint()), nil
	case reflect.Int32:
		return Int32(v.Int()), nil
	case reflect.Uint32:
		return Uint32(v.Uint()), nil
	case reflect.Int64:
		return Int64(v.Int()), nil
	case reflect.Uint64:
		return Uint64(v.Uint()), nil
	case reflect.Float64:
		return Double(v.Float()), nil
	case reflect.String:
		return String(v.String()), nil

	case reflect.Slice, reflect.Array:
		es, err := signatureFor(t.Elem(), nil)
		if err != nil {
			return nil, err
		}
		ret := Array{Elem: es, Items: make([]Value, 0, v.Len())}
		for i := range v.Len() {
			ev, err := valueOf(v.Index(i), depth+1)
			if err != nil {
				return nil, err
			}
			ret.Items = append(ret.Items, ev)
		}
		return ret, nil

	case reflect.Map:
		sig, err := signatureFor(t, nil)
		if err != nil {
			return nil, err
		}
		ks := v.MapKeys()
		slices.SortFunc(ks, mapKeyCmp(t.Key()))
		ret := Array{Elem: sig[1:], Items: make([]Value, 0, len(ks))}
		for _, mk := range ks {
			kv, err := valueOf(mk, depth+1)
			if err != nil {
				return nil, err
			}
			vv, err := valueOf(v.MapIndex(mk), depth+1)
			if err != nil {
				return nil, err
			}
			ret.Items = append(ret.Items, DictEntry{kv, vv})
		}
		return ret, nil

	case reflect.Struct:
		if _, err := signatureFor(t, nil); err != nil {
			return nil, err
		}
		fs := exportedFields(t)
		ret := make(Struct, 0, len(fs))
		for _, f := range fs {
			fv, err := valueOf(fieldValue(v, f), depth+1)
			if err != nil {
				return nil, err
			}
			ret = append(ret, fv)
		}
		return ret, nil
	}

	// Let signatureFor produce the appropriate error.
	if _, err := signatureFor(t, nil); err != nil {
		return nil, err
	}
	return nil, convErr(t, "no dbus mapping for type")
}
