package wire

import (
	"errors"
	"fmt"
	"math"

	"github.com/lsdbus/dbus"
	"github.com/lsdbus/dbus/fragments"
)

// srcFrame is one level of the Source's position in the body.
type srcFrame struct {
	kind dbus.ContainerKind
	// types is the signature left to read. For arrays, it is the
	// element type, and is never consumed.
	types string
	// end is the offset at which an array's contents end.
	end int
}

// Source is a [dbus.MessageSource] that reads the DBus wire encoding
// of a message body.
//
// Source is not safe for concurrent use.
type Source struct {
	dec    *fragments.Decoder
	fds    []int32
	frames []srcFrame
}

// NewSource returns a Source that reads body, a message body of the
// given signature encoded in the given byte order. fds is the list of
// unix fd handles that UNIX_FD values in body index into.
func NewSource(body []byte, order fragments.ByteOrder, sig dbus.Signature, fds []int32) (*Source, error) {
	if _, err := dbus.ParseSignature(string(sig)); err != nil {
		return nil, err
	}
	return &Source{
		dec:    fragments.NewDecoder(order, body, 0),
		fds:    fds,
		frames: []srcFrame{{types: string(sig), end: len(body)}},
	}, nil
}

func (s *Source) top() *srcFrame {
	return &s.frames[len(s.frames)-1]
}

// next returns the complete type of the next element of the current
// container, or "" if the container has no more elements.
func (s *Source) next() (string, error) {
	f := s.top()
	if f.kind == dbus.KindArray {
		switch off := s.dec.Offset(); {
		case off == f.end:
			return "", nil
		case off > f.end:
			return "", fmt.Errorf("array element overran array end by %d bytes", off-f.end)
		}
		return f.types, nil
	}
	if f.types == "" {
		if len(s.frames) == 1 && s.dec.Remaining() > 0 {
			return "", fmt.Errorf("%d trailing bytes after message body", s.dec.Remaining())
		}
		return "", nil
	}
	n, err := dbus.ElementLength(f.types)
	if err != nil {
		return "", err
	}
	return f.types[:n], nil
}

// consume advances past the element of type elem in the current
// container.
func (s *Source) consume(elem string) {
	if f := s.top(); f.kind != dbus.KindArray {
		f.types = f.types[len(elem):]
	}
}

func (s *Source) PeekType() (t byte, contents dbus.Signature, ok bool, err error) {
	elem, err := s.next()
	if err != nil {
		return 0, "", false, err
	}
	if elem == "" {
		return 0, "", false, nil
	}

	switch c := elem[0]; c {
	case dbus.TypeArray:
		return byte(dbus.KindArray), dbus.Signature(elem[1:]), true, nil
	case dbus.TypeStructBegin:
		return byte(dbus.KindStruct), dbus.Signature(elem[1 : len(elem)-1]), true, nil
	case dbus.TypeDictEntryBegin:
		return byte(dbus.KindDictEntry), dbus.Signature(elem[1 : len(elem)-1]), true, nil
	case dbus.TypeVariant:
		peek := *s.dec
		sig, err := readVariantSignature(&peek)
		if err != nil {
			return 0, "", false, err
		}
		return byte(dbus.KindVariant), sig, true, nil
	default:
		return c, "", true, nil
	}
}

func readVariantSignature(d *fragments.Decoder) (dbus.Signature, error) {
	str, err := d.Signature()
	if err != nil {
		return "", err
	}
	sig, err := dbus.ParseSignature(str)
	if err != nil {
		return "", err
	}
	if !sig.IsSingle() {
		return "", fmt.Errorf("variant signature %q is not a single complete type", sig)
	}
	return sig, nil
}

func (s *Source) ReadBasic(t byte) (any, error) {
	elem, err := s.next()
	if err != nil {
		return nil, err
	}
	if elem == "" {
		return nil, errors.New("no more values in container")
	}
	if len(elem) != 1 || elem[0] != t {
		return nil, fmt.Errorf("next value has type %q, not %q", elem, t)
	}

	ret, err := s.readBasic(t)
	if err != nil {
		return nil, err
	}
	s.consume(elem)
	return ret, nil
}

func (s *Source) readBasic(t byte) (any, error) {
	d := s.dec
	switch t {
	case dbus.TypeByte:
		return d.Uint8()
	case dbus.TypeBool:
		u, err := d.Uint32()
		if err != nil {
			return nil, err
		}
		switch u {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return nil, fmt.Errorf("invalid boolean value %d", u)
		}
	case dbus.TypeInt16:
		u, err := d.Uint16()
		return int16(u), err
	case dbus.TypeUint16:
		return d.Uint16()
	case dbus.TypeInt32:
		u, err := d.Uint32()
		return int32(u), err
	case dbus.TypeUint32:
		return d.Uint32()
	case dbus.TypeInt64:
		u, err := d.Uint64()
		return int64(u), err
	case dbus.TypeUint64:
		return d.Uint64()
	case dbus.TypeDouble:
		u, err := d.Uint64()
		return math.Float64frombits(u), err
	case dbus.TypeString:
		return d.String()
	case dbus.TypeObjectPath:
		str, err := d.String()
		if err != nil {
			return nil, err
		}
		if !dbus.ObjectPath(str).IsValid() {
			return nil, fmt.Errorf("invalid object path %q", str)
		}
		return str, nil
	case dbus.TypeSignature:
		str, err := d.Signature()
		if err != nil {
			return nil, err
		}
		if _, err := dbus.ParseSignature(str); err != nil {
			return nil, err
		}
		return str, nil
	case dbus.TypeUnixFD:
		idx, err := d.Uint32()
		if err != nil {
			return nil, err
		}
		if int64(idx) >= int64(len(s.fds)) {
			return nil, fmt.Errorf("unix fd index %d out of range, message has %d fds", idx, len(s.fds))
		}
		return s.fds[idx], nil
	default:
		return nil, fmt.Errorf("unknown basic type %q", t)
	}
}

func (s *Source) EnterContainer(kind dbus.ContainerKind, contents dbus.Signature) error {
	t, want, ok, err := s.PeekType()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("no more values in container")
	}
	if t != byte(kind) || want != contents {
		return fmt.Errorf("next value is %v %q, not %v %q", dbus.ContainerKind(t), want, kind, contents)
	}
	elem, err := s.next()
	if err != nil {
		return err
	}

	f := srcFrame{kind: kind, types: string(contents)}
	switch kind {
	case dbus.KindArray:
		end, err := s.dec.ArrayHeader(dbus.Alignment(contents[0]))
		if err != nil {
			return err
		}
		f.end = end
	case dbus.KindStruct, dbus.KindDictEntry:
		if err := s.dec.BeginStruct(); err != nil {
			return err
		}
	case dbus.KindVariant:
		if _, err := readVariantSignature(s.dec); err != nil {
			return err
		}
	}
	s.consume(elem)
	s.frames = append(s.frames, f)
	return nil
}

func (s *Source) ExitContainer() error {
	if len(s.frames) == 1 {
		return errors.New("no open container to exit")
	}
	f := s.top()
	switch {
	case f.kind == dbus.KindArray && s.dec.Offset() != f.end:
		return fmt.Errorf("array exited at offset %d, before its end at %d", s.dec.Offset(), f.end)
	case f.kind != dbus.KindArray && f.types != "":
		return fmt.Errorf("%v exited with unread values of type %q", f.kind, f.types)
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Offset returns the current read offset.
func (s *Source) Offset() int {
	return s.dec.Offset()
}
