package wire

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/lsdbus/dbus"
	"github.com/lsdbus/dbus/fragments"
)

// maxSignatureLength is the maximum length of a message's body
// signature.
const maxSignatureLength = 255

type openContainer struct {
	kind dbus.ContainerKind
	mark fragments.ArrayMark
}

// Sink is a [dbus.MessageSink] that produces the DBus wire encoding
// of a message body.
//
// Sink is not safe for concurrent use.
type Sink struct {
	enc  fragments.Encoder
	open []openContainer
	sig  strings.Builder
	fds  []int32
}

// NewSink returns a Sink that encodes in the given byte order.
func NewSink(order fragments.ByteOrder) *Sink {
	return &Sink{
		enc: fragments.Encoder{Order: order},
	}
}

// Bytes returns the encoded body.
func (s *Sink) Bytes() []byte {
	return s.enc.Out
}

// Signature returns the signature of the values appended to the body
// so far.
func (s *Sink) Signature() dbus.Signature {
	return dbus.Signature(s.sig.String())
}

// FDs returns the unix fd handles referenced by the body. UNIX_FD
// values in the body are encoded as indices into this list.
func (s *Sink) FDs() []int32 {
	return s.fds
}

// Depth returns the number of open containers.
func (s *Sink) Depth() int {
	return len(s.open)
}

// topLevel records t in the body signature if no containers are open.
func (s *Sink) topLevel(t string) error {
	if len(s.open) > 0 {
		return nil
	}
	if s.sig.Len()+len(t) > maxSignatureLength {
		return fmt.Errorf("body signature exceeds %d bytes", maxSignatureLength)
	}
	s.sig.WriteString(t)
	return nil
}

func (s *Sink) AppendBasic(t byte, v dbus.Value) error {
	if v == nil {
		return errors.New("nil value")
	}
	if got := v.Type(); len(got) != 1 || got[0] != t {
		return fmt.Errorf("value of type %q given for type %q", got, t)
	}

	switch v := v.(type) {
	case dbus.Byte:
		s.enc.Uint8(uint8(v))
	case dbus.Bool:
		var u uint32
		if v {
			u = 1
		}
		s.enc.Uint32(u)
	case dbus.Int16:
		s.enc.Uint16(uint16(v))
	case dbus.Uint16:
		s.enc.Uint16(uint16(v))
	case dbus.Int32:
		s.enc.Uint32(uint32(v))
	case dbus.Uint32:
		s.enc.Uint32(uint32(v))
	case dbus.Int64:
		s.enc.Uint64(uint64(v))
	case dbus.Uint64:
		s.enc.Uint64(uint64(v))
	case dbus.Double:
		s.enc.Uint64(math.Float64bits(float64(v)))
	case dbus.String:
		if err := checkString(string(v)); err != nil {
			return err
		}
		s.enc.String(string(v))
	case dbus.ObjectPath:
		if !v.IsValid() {
			return fmt.Errorf("invalid object path %q", v)
		}
		s.enc.String(string(v))
	case dbus.Signature:
		if _, err := dbus.ParseSignature(string(v)); err != nil {
			return err
		}
		s.enc.Signature(string(v))
	case dbus.UnixFD:
		idx := slices.Index(s.fds, int32(v))
		if idx < 0 {
			idx = len(s.fds)
			s.fds = append(s.fds, int32(v))
		}
		s.enc.Uint32(uint32(idx))
	default:
		return fmt.Errorf("unsupported basic value %T", v)
	}

	return s.topLevel(string(t))
}

func (s *Sink) OpenContainer(kind dbus.ContainerKind, contents dbus.Signature) error {
	oc := openContainer{kind: kind}
	var top string
	switch kind {
	case dbus.KindArray:
		// Array elements may be dict entries, which IsSingle rejects.
		if n, err := dbus.ElementLength(string(contents)); err != nil || n != len(contents) {
			return fmt.Errorf("invalid array element type %q", contents)
		}
		oc.mark = s.enc.BeginArray(dbus.Alignment(contents[0]))
		top = "a" + string(contents)
	case dbus.KindStruct:
		s.enc.BeginStruct()
		top = "(" + string(contents) + ")"
	case dbus.KindDictEntry:
		s.enc.BeginStruct()
		top = "{" + string(contents) + "}"
	case dbus.KindVariant:
		if !contents.IsSingle() {
			return fmt.Errorf("invalid variant type %q", contents)
		}
		s.enc.Signature(string(contents))
		top = "v"
	default:
		return fmt.Errorf("unknown container kind %v", kind)
	}
	if err := s.topLevel(top); err != nil {
		return err
	}
	s.open = append(s.open, oc)
	return nil
}

func (s *Sink) CloseContainer() error {
	if len(s.open) == 0 {
		return errors.New("no open container to close")
	}
	oc := s.open[len(s.open)-1]
	s.open = s.open[:len(s.open)-1]
	if oc.kind == dbus.KindArray {
		return s.enc.EndArray(oc.mark)
	}
	return nil
}

func checkString(s string) error {
	if !utf8.ValidString(s) {
		return errors.New("string is not valid UTF-8")
	}
	if strings.IndexByte(s, 0) >= 0 {
		return errors.New("string contains nul byte")
	}
	return nil
}
