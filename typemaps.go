package dbus

import (
	"reflect"

	"github.com/creachadair/mds/mapset"
)

// DBus type codes, as used in signatures.
const (
	TypeByte       byte = 'y'
	TypeBool       byte = 'b'
	TypeInt16      byte = 'n'
	TypeUint16     byte = 'q'
	TypeInt32      byte = 'i'
	TypeUint32     byte = 'u'
	TypeInt64      byte = 'x'
	TypeUint64     byte = 't'
	TypeDouble     byte = 'd'
	TypeString     byte = 's'
	TypeObjectPath byte = 'o'
	TypeSignature  byte = 'g'
	TypeUnixFD     byte = 'h'
	TypeArray      byte = 'a'
	TypeVariant    byte = 'v'

	TypeStructBegin    byte = '('
	TypeStructEnd      byte = ')'
	TypeDictEntryBegin byte = '{'
	TypeDictEntryEnd   byte = '}'
)

var (
	// basicTypes is the set of type codes of the DBus basic types,
	// i.e. the types that are legal as dict entry keys.
	basicTypes = mapset.New(
		TypeByte,
		TypeBool,
		TypeInt16,
		TypeUint16,
		TypeInt32,
		TypeUint32,
		TypeInt64,
		TypeUint64,
		TypeDouble,
		TypeString,
		TypeObjectPath,
		TypeSignature,
		TypeUnixFD,
	)

	// alignments maps type codes to their wire alignment.
	alignments = map[byte]int{
		TypeByte:           1,
		TypeBool:           4,
		TypeInt16:          2,
		TypeUint16:         2,
		TypeInt32:          4,
		TypeUint32:         4,
		TypeInt64:          8,
		TypeUint64:         8,
		TypeDouble:         8,
		TypeString:         4,
		TypeObjectPath:     4,
		TypeSignature:      1,
		TypeUnixFD:         4,
		TypeArray:          4,
		TypeVariant:        1,
		TypeStructBegin:    8,
		TypeDictEntryBegin: 8,
	}

	// kindToType maps the reflect.Kinds that ValueOf converts to a
	// DBus basic type to the corresponding type code.
	kindToType = map[reflect.Kind]byte{
		reflect.Bool:    TypeBool,
		reflect.Uint8:   TypeByte,
		reflect.Int16:   TypeInt16,
		reflect.Uint16:  TypeUint16,
		reflect.Int32:   TypeInt32,
		reflect.Uint32:  TypeUint32,
		reflect.Int64:   TypeInt64,
		reflect.Uint64:  TypeUint64,
		reflect.Float64: TypeDouble,
		reflect.String:  TypeString,
	}

	// mapKeyKinds is the set of reflect.Kinds that can be in a DBus map
	// key.
	mapKeyKinds = mapset.New(
		reflect.Bool,
		reflect.Uint8,
		reflect.Int16,
		reflect.Uint16,
		reflect.Int32,
		reflect.Uint32,
		reflect.Int64,
		reflect.Uint64,
		reflect.Float64,
		reflect.String,
	)
)

// IsBasicType reports whether t is the type code of a DBus basic
// type.
func IsBasicType(t byte) bool {
	return basicTypes.Has(t)
}

// IsContainerType reports whether t is the type code that starts a
// DBus container type.
func IsContainerType(t byte) bool {
	switch t {
	case TypeArray, TypeVariant, TypeStructBegin, TypeDictEntryBegin:
		return true
	}
	return false
}

// Alignment returns the wire alignment in bytes of the type whose
// signature starts with t, or 0 if t does not start a type.
func Alignment(t byte) int {
	return alignments[t]
}
