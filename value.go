package dbus

import "strings"

// A Value is one datum of the DBus type system.
//
// The set of Values is closed: the scalar types [Byte], [Bool],
// [Int16], [Uint16], [Int32], [Uint32], [Int64], [Uint64], [Double],
// [String], [ObjectPath], [Signature] and [UnixFD], and the container
// types [Array], [Struct], [DictEntry] and [Variant].
type Value interface {
	// Type returns the signature of the value's own type, which is
	// always a single complete type.
	Type() Signature

	isValue()
}

// Byte is a DBus BYTE.
type Byte uint8

// Bool is a DBus BOOLEAN.
type Bool bool

// Int16 is a DBus INT16.
type Int16 int16

// Uint16 is a DBus UINT16.
type Uint16 uint16

// Int32 is a DBus INT32.
type Int32 int32

// Uint32 is a DBus UINT32.
type Uint32 uint32

// Int64 is a DBus INT64.
type Int64 int64

// Uint64 is a DBus UINT64.
type Uint64 uint64

// Double is a DBus DOUBLE.
type Double float64

// String is a DBus STRING.
type String string

func (Byte) Type() Signature   { return "y" }
func (Bool) Type() Signature   { return "b" }
func (Int16) Type() Signature  { return "n" }
func (Uint16) Type() Signature { return "q" }
func (Int32) Type() Signature  { return "i" }
func (Uint32) Type() Signature { return "u" }
func (Int64) Type() Signature  { return "x" }
func (Uint64) Type() Signature { return "t" }
func (Double) Type() Signature { return "d" }
func (String) Type() Signature { return "s" }

func (Byte) isValue()   {}
func (Bool) isValue()   {}
func (Int16) isValue()  {}
func (Uint16) isValue() {}
func (Int32) isValue()  {}
func (Uint32) isValue() {}
func (Int64) isValue()  {}
func (Uint64) isValue() {}
func (Double) isValue() {}
func (String) isValue() {}

// Array is a DBus ARRAY. All Items must be of type Elem.
//
// An array whose Elem is a dict entry type, such as "{sv}", is the
// DBus representation of a dictionary. Its Items must all be
// [DictEntry] values, and are kept in the order given.
type Array struct {
	// Elem is the signature of the array's elements. It must be a
	// single complete type.
	Elem  Signature
	Items []Value
}

// Type returns "a" followed by the element signature.
func (a Array) Type() Signature { return "a" + a.Elem }
func (Array) isValue()          {}

// Struct is a DBus STRUCT. Its fields are encoded in order.
type Struct []Value

// Type returns the struct signature derived from the types of the
// struct's fields.
func (s Struct) Type() Signature {
	var b strings.Builder
	b.WriteByte('(')
	for _, f := range s {
		if f == nil {
			continue
		}
		b.WriteString(string(f.Type()))
	}
	b.WriteByte(')')
	return Signature(b.String())
}
func (Struct) isValue() {}

// DictEntry is a DBus DICT_ENTRY, one key/value pair of a
// dictionary. Key must be a basic type.
type DictEntry struct {
	Key   Value
	Value Value
}

// Type returns the dict entry signature derived from the key and
// value types.
func (e DictEntry) Type() Signature {
	var k, v Signature
	if e.Key != nil {
		k = e.Key.Type()
	}
	if e.Value != nil {
		v = e.Value.Type()
	}
	return "{" + k + v + "}"
}
func (DictEntry) isValue() {}
