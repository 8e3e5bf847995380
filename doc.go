// Package dbus converts between Go values and the DBus type system.
//
// The DBus type system is described by type signatures: strings of
// type codes such as "a{sv}" (a dictionary of strings to variants) or
// "(si)" (a struct of a string and an int32). The grammar of
// signatures is checked by [ParseSignature] and [ElementLength].
//
// Values are represented by the [Value] interface, with one
// implementation per DBus type: [Byte], [Bool], [Int16], [Uint16],
// [Int32], [Uint32], [Int64], [Uint64], [Double], [String],
// [ObjectPath], [Signature] and [UnixFD] for basic types, and [Array],
// [Struct], [DictEntry] and [Variant] for containers.
//
// [Encode] walks a signature and a matching list of values, and
// describes them to a [MessageSink] as a sequence of basic values and
// container boundaries. [Decode] does the reverse, reading a
// [MessageSource] and rebuilding the values it describes. Neither
// function knows how values are stored: the wire subpackage provides
// a sink and source for the DBus wire format, and the dbustest
// subpackage provides in-memory ones that record and replay events.
//
// Encode and Decode use an explicit stack of container contexts, so
// that hostile inputs cannot exhaust the goroutine stack. Signatures
// may nest at most 32 arrays and 32 structs, and a value may nest at
// most 128 containers in total, counting variants.
//
// [ValueOf] and [Native] convert between Values and ordinary Go
// values.
package dbus
