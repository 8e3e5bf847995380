package wire

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/lsdbus/dbus"
	"github.com/lsdbus/dbus/fragments"
)

// MaxMessageSize is the maximum size in bytes of a marshaled message,
// header and body included.
const MaxMessageSize = 128 << 20

// headerSignature is the signature of the fixed message header.
const headerSignature = "yyyyuua(yv)"

// protocolVersion is the major DBus protocol version.
const protocolVersion = 1

// MessageType is the type of a DBus message.
type MessageType byte

const (
	MethodCall MessageType = iota + 1
	MethodReturn
	Error
	Signal
)

func (t MessageType) String() string {
	switch t {
	case MethodCall:
		return "method_call"
	case MethodReturn:
		return "method_return"
	case Error:
		return "error"
	case Signal:
		return "signal"
	default:
		return fmt.Sprintf("MessageType(%d)", byte(t))
	}
}

// Flags are the message header flags.
type Flags byte

const (
	NoReplyExpected      Flags = 0x1
	NoAutoStart          Flags = 0x2
	AllowInteractiveAuth Flags = 0x4
)

// Header field codes.
const (
	fieldPath        = 1
	fieldInterface   = 2
	fieldMember      = 3
	fieldErrorName   = 4
	fieldReplySerial = 5
	fieldDestination = 6
	fieldSender      = 7
	fieldSignature   = 8
	fieldUnixFDs     = 9
)

// Message is a DBus message: a header and a body of values.
type Message struct {
	// Type is the message's type.
	Type MessageType
	// Flags is the message's flag byte.
	Flags Flags
	// Serial is the serial for this message. It must be non-zero.
	Serial uint32

	// Path is the target object for a call, or the source object
	// for a signal. Required for MethodCall and Signal.
	Path dbus.ObjectPath
	// Interface is the interface to target for a call, or the
	// source interface for a signal. Required for Signal.
	Interface string
	// Member is the method name for a call, or signal name for a
	// signal. Required for MethodCall and Signal.
	Member string
	// ErrorName is the name of the error that occurred. Required
	// for Error.
	ErrorName string
	// ReplySerial is the message serial to which this message is
	// replying. Required for MethodReturn and Error.
	ReplySerial uint32
	// Destination is the target for a message.
	Destination string
	// Sender is the unique name of the message sender.
	Sender string
	// Signature is the type signature of Body. If empty when
	// marshaling, it is derived from the types of Body's values.
	Signature dbus.Signature
	// UnixFDs is the number of file descriptors attached to the
	// message. It is set by ParseMessage, and computed by Marshal.
	UnixFDs uint32

	// Unknown collects header fields with codes this package does not
	// know about.
	Unknown map[uint8]dbus.Variant

	// Body is the message's payload.
	Body []dbus.Value
}

// Valid checks that the message header is valid for its message type.
func (m *Message) Valid() error {
	if m.Serial == 0 {
		return errors.New("invalid message with zero Serial")
	}
	switch m.Type {
	case 0:
		return errors.New("invalid message with Type 0")
	case MethodCall:
		if m.Path == "" {
			return errors.New("missing required header field Path")
		}
		if m.Member == "" {
			return errors.New("missing required header field Member")
		}
	case MethodReturn:
		if m.ReplySerial == 0 {
			return errors.New("missing required header field ReplySerial")
		}
	case Error:
		if m.ReplySerial == 0 {
			return errors.New("missing required header field ReplySerial")
		}
		if m.ErrorName == "" {
			return errors.New("missing required header field ErrorName")
		}
	case Signal:
		if m.Path == "" {
			return errors.New("missing required header field Path")
		}
		if m.Interface == "" {
			return errors.New("missing required header field Interface")
		}
		if m.Member == "" {
			return errors.New("missing required header field Member")
		}
	default:
		// Unknown message types are suspect, but must be gracefully
		// allowed.
	}
	return nil
}

// WantReply reports whether this message requires a response.
func (m *Message) WantReply() bool {
	return m.Type == MethodCall && m.Flags&NoReplyExpected == 0
}

// CanInteract reports whether the message's sender is prepared to
// wait for an interactive authorization prompt, if the sender lacks
// the necessary privileges for the message, and the bus or
// destination wish to trigger an interactive prompt.
func (m *Message) CanInteract() bool {
	return m.Type == MethodCall && m.Flags&AllowInteractiveAuth != 0
}

// bodySignature returns the signature to encode the body with.
func (m *Message) bodySignature() dbus.Signature {
	if m.Signature != "" {
		return m.Signature
	}
	var ret dbus.Signature
	for _, v := range m.Body {
		if v != nil {
			ret += v.Type()
		}
	}
	return ret
}

// headerFields returns the message's header fields, in field code
// order.
func (m *Message) headerFields(sig dbus.Signature, nfds int) []dbus.Value {
	var ret []dbus.Value
	add := func(code uint8, v dbus.Value) {
		ret = append(ret, dbus.Struct{dbus.Byte(code), dbus.NewVariant(v)})
	}
	if m.Path != "" {
		add(fieldPath, m.Path)
	}
	if m.Interface != "" {
		add(fieldInterface, dbus.String(m.Interface))
	}
	if m.Member != "" {
		add(fieldMember, dbus.String(m.Member))
	}
	if m.ErrorName != "" {
		add(fieldErrorName, dbus.String(m.ErrorName))
	}
	if m.ReplySerial != 0 {
		add(fieldReplySerial, dbus.Uint32(m.ReplySerial))
	}
	if m.Destination != "" {
		add(fieldDestination, dbus.String(m.Destination))
	}
	if m.Sender != "" {
		add(fieldSender, dbus.String(m.Sender))
	}
	if sig != "" {
		add(fieldSignature, sig)
	}
	if nfds > 0 {
		add(fieldUnixFDs, dbus.Uint32(nfds))
	}
	for _, code := range slices.Sorted(maps.Keys(m.Unknown)) {
		if code <= fieldUnixFDs {
			continue
		}
		ret = append(ret, dbus.Struct{dbus.Byte(code), m.Unknown[code]})
	}
	return ret
}

// Marshal returns the wire encoding of m in the given byte order, and
// the unix fd handles the message carries.
func (m *Message) Marshal(order fragments.ByteOrder) ([]byte, []int32, error) {
	if err := m.Valid(); err != nil {
		return nil, nil, err
	}

	sig := m.bodySignature()
	body := NewSink(order)
	if err := dbus.Encode(body, string(sig), m.Body); err != nil {
		return nil, nil, fmt.Errorf("encoding message body: %w", err)
	}
	fds := body.FDs()

	hdr := []dbus.Value{
		dbus.Byte(order.Flag()),
		dbus.Byte(m.Type),
		dbus.Byte(m.Flags),
		dbus.Byte(protocolVersion),
		dbus.Uint32(len(body.Bytes())),
		dbus.Uint32(m.Serial),
		dbus.Array{Elem: "(yv)", Items: m.headerFields(sig, len(fds))},
	}
	out := NewSink(order)
	if err := dbus.Encode(out, headerSignature, hdr); err != nil {
		return nil, nil, fmt.Errorf("encoding message header: %w", err)
	}
	enc := fragments.Encoder{Order: order, Out: out.Bytes()}
	enc.Pad(8)
	enc.Write(body.Bytes())
	if len(enc.Out) > MaxMessageSize {
		return nil, nil, fmt.Errorf("message size %d exceeds maximum of %d bytes", len(enc.Out), MaxMessageSize)
	}
	return enc.Out, fds, nil
}

// ParseMessage parses the wire encoding of a single complete message.
// fds are the unix fd handles that arrived with the message.
func ParseMessage(bs []byte, fds []int32) (*Message, error) {
	if len(bs) < 16 {
		return nil, fmt.Errorf("message too short (%d bytes)", len(bs))
	}
	if len(bs) > MaxMessageSize {
		return nil, fmt.Errorf("message size %d exceeds maximum of %d bytes", len(bs), MaxMessageSize)
	}
	flag := fragments.NewDecoder(fragments.NativeEndian, bs, 0)
	if err := flag.ByteOrderFlag(); err != nil {
		return nil, err
	}
	order := flag.Order

	// The header ends with an array, whose length is at a fixed
	// offset.
	fieldsLen, err := fragments.NewDecoder(order, bs, 12).Uint32()
	if err != nil {
		return nil, err
	}
	headerEnd := 16 + int64(fieldsLen)
	if headerEnd > int64(len(bs)) {
		return nil, fmt.Errorf("header fields length %d overruns message", fieldsLen)
	}

	src, err := NewSource(bs[:headerEnd], order, headerSignature, nil)
	if err != nil {
		return nil, err
	}
	hdr, err := dbus.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decoding message header: %w", err)
	}

	var (
		ret       Message
		bodyLen   uint32
		fieldVals dbus.Array
	)
	if len(hdr) != 7 {
		return nil, fmt.Errorf("decoded header has %d fields, want 7", len(hdr))
	}
	ret.Type = MessageType(hdr[1].(dbus.Byte))
	ret.Flags = Flags(hdr[2].(dbus.Byte))
	if v := hdr[3].(dbus.Byte); v != protocolVersion {
		return nil, fmt.Errorf("unsupported protocol version %d", v)
	}
	bodyLen = uint32(hdr[4].(dbus.Uint32))
	ret.Serial = uint32(hdr[5].(dbus.Uint32))
	fieldVals = hdr[6].(dbus.Array)

	for _, f := range fieldVals.Items {
		fs := f.(dbus.Struct)
		code, v := uint8(fs[0].(dbus.Byte)), fs[1].(dbus.Variant)
		if err := ret.setField(code, v); err != nil {
			return nil, err
		}
	}
	if err := ret.Valid(); err != nil {
		return nil, err
	}

	pad := fragments.NewDecoder(order, bs, int(headerEnd))
	if err := pad.Pad(8); err != nil {
		return nil, fmt.Errorf("header padding: %w", err)
	}
	bodyStart := pad.Offset()
	if want := int64(bodyStart) + int64(bodyLen); want != int64(len(bs)) {
		return nil, fmt.Errorf("message is %d bytes, header says %d", len(bs), want)
	}
	if int(ret.UnixFDs) > len(fds) {
		return nil, fmt.Errorf("message needs %d unix fds, only %d provided", ret.UnixFDs, len(fds))
	}

	body, err := NewSource(bs[bodyStart:], order, ret.Signature, fds[:ret.UnixFDs])
	if err != nil {
		return nil, err
	}
	ret.Body, err = dbus.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decoding message body: %w", err)
	}
	return &ret, nil
}

// setField sets the header field with the given code to v.
func (m *Message) setField(code uint8, v dbus.Variant) error {
	want := map[uint8]dbus.Signature{
		fieldPath:        "o",
		fieldInterface:   "s",
		fieldMember:      "s",
		fieldErrorName:   "s",
		fieldReplySerial: "u",
		fieldDestination: "s",
		fieldSender:      "s",
		fieldSignature:   "g",
		fieldUnixFDs:     "u",
	}[code]
	if want == "" {
		if m.Unknown == nil {
			m.Unknown = map[uint8]dbus.Variant{}
		}
		m.Unknown[code] = v
		return nil
	}
	if v.Signature != want {
		return fmt.Errorf("header field %d has type %q, want %q", code, v.Signature, want)
	}

	switch code {
	case fieldPath:
		m.Path = v.Value.(dbus.ObjectPath)
	case fieldInterface:
		m.Interface = string(v.Value.(dbus.String))
	case fieldMember:
		m.Member = string(v.Value.(dbus.String))
	case fieldErrorName:
		m.ErrorName = string(v.Value.(dbus.String))
	case fieldReplySerial:
		m.ReplySerial = uint32(v.Value.(dbus.Uint32))
	case fieldDestination:
		m.Destination = string(v.Value.(dbus.String))
	case fieldSender:
		m.Sender = string(v.Value.(dbus.String))
	case fieldSignature:
		m.Signature = v.Value.(dbus.Signature)
	case fieldUnixFDs:
		m.UnixFDs = uint32(v.Value.(dbus.Uint32))
	}
	return nil
}
