package dbus

// ContainerKind identifies a DBus container type at the
// [MessageSink] and [MessageSource] boundary.
//
// The values match the container type codes used by sd-bus.
type ContainerKind byte

const (
	KindArray     ContainerKind = 'a'
	KindStruct    ContainerKind = 'r'
	KindDictEntry ContainerKind = 'e'
	KindVariant   ContainerKind = 'v'
)

func (k ContainerKind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindDictEntry:
		return "dict entry"
	case KindVariant:
		return "variant"
	default:
		return "ContainerKind(" + string(rune(k)) + ")"
	}
}

// IsValid reports whether k is one of the four container kinds.
func (k ContainerKind) IsValid() bool {
	switch k {
	case KindArray, KindStruct, KindDictEntry, KindVariant:
		return true
	}
	return false
}

// A MessageSink builds a DBus message body. [Encode] drives a
// MessageSink in signature order.
//
// The contents signature given to OpenContainer is the array element
// type for arrays, the field types (without delimiters) for structs
// and dict entries, and the inner type for variants.
//
// A MessageSink owns the lifecycle of the message it builds. If
// Encode returns an error, containers may have been left open, and
// the caller must either close them or discard the message.
type MessageSink interface {
	// AppendBasic appends v, whose type code is t, to the current
	// container.
	AppendBasic(t byte, v Value) error
	// OpenContainer starts a new container of the given kind inside
	// the current container.
	OpenContainer(kind ContainerKind, contents Signature) error
	// CloseContainer ends the innermost open container.
	CloseContainer() error
}

// A MessageSource reads a self-describing DBus message body. [Decode]
// drives a MessageSource.
type MessageSource interface {
	// PeekType reports the type of the next element of the current
	// container, without consuming it. ok is false if the current
	// container (or, at the top level, the message) has no more
	// elements.
	//
	// Basic types are reported by their type code. Containers are
	// reported as their ContainerKind converted to a byte, with
	// contents set as described for [MessageSink].
	PeekType() (t byte, contents Signature, ok bool, err error)
	// ReadBasic consumes the next element, which must have basic
	// type t, and returns it as a uint8, bool, int16, uint16, int32,
	// uint32, int64, uint64, float64 or string. UNIX_FD handles are
	// returned as int32.
	ReadBasic(t byte) (any, error)
	// EnterContainer descends into the next element, which must be a
	// container of the given kind and contents.
	EnterContainer(kind ContainerKind, contents Signature) error
	// ExitContainer leaves the current container, which must have
	// been fully read.
	ExitContainer() error
}
