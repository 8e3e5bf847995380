package fragments

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/cpu"
)

type ByteOrder interface {
	byteOrder
	// Flag returns the DBus byte order flag, 'l' or 'B'.
	Flag() byte
}

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

type wrapStd struct {
	byteOrder
}

func (w wrapStd) Flag() byte {
	switch w.byteOrder {
	case binary.BigEndian:
		return 'B'
	case binary.LittleEndian:
		return 'l'
	case binary.NativeEndian:
		if cpu.IsBigEndian {
			return 'B'
		}
		return 'l'
	default:
		panic("unknown ByteOrder, how did you manage to make one of those?")
	}
}

func (w wrapStd) String() string {
	if w.Flag() == 'B' {
		return "big-endian"
	}
	return "little-endian"
}

var (
	BigEndian    = wrapStd{binary.BigEndian}
	LittleEndian = wrapStd{binary.LittleEndian}
	NativeEndian = wrapStd{binary.NativeEndian}
)

// ByteOrderFromFlag returns the ByteOrder for the DBus byte order
// flag f.
func ByteOrderFromFlag(f byte) (ByteOrder, error) {
	switch f {
	case 'B':
		return BigEndian, nil
	case 'l':
		return LittleEndian, nil
	default:
		return nil, fmt.Errorf("unknown byte order flag %q", f)
	}
}

// ParseByteOrder returns the ByteOrder named by s, one of "little",
// "big" or "native".
func ParseByteOrder(s string) (ByteOrder, error) {
	switch s {
	case "little", "l":
		return LittleEndian, nil
	case "big", "B":
		return BigEndian, nil
	case "native":
		return NativeEndian, nil
	default:
		return nil, fmt.Errorf("unknown byte order %q", s)
	}
}
