package fragments

import (
	"fmt"
)

// MaxArrayLength is the maximum size in bytes of the contents of a
// DBus array.
const MaxArrayLength = 64 << 20

// An Encoder provides utilities to write a DBus wire format message
// to a byte slice.
//
// Methods insert padding as needed to conform to DBus alignment
// rules, except for [Encoder.Write] which outputs bytes verbatim.
type Encoder struct {
	// Order is the byte order to use when encoding multi-byte values.
	Order ByteOrder
	// Out is the encoded output.
	Out []byte
}

// Pad inserts padding bytes as needed to make the message a multiple
// of align bytes. If the message is already correctly aligned, no
// padding is inserted.
func (e *Encoder) Pad(align int) {
	if align <= 1 {
		return
	}
	extra := len(e.Out) % align
	if extra == 0 {
		return
	}
	var pad [8]byte
	e.Out = append(e.Out, pad[:align-extra]...)
}

// Write writes bs as-is to the output. It is the caller's
// responsibility to ensure correct padding and encoding.
func (e *Encoder) Write(bs []byte) {
	e.Out = append(e.Out, bs...)
}

// String writes s to the output.
func (e *Encoder) String(s string) {
	e.Pad(4)
	e.Uint32(uint32(len(s)))
	e.Out = append(e.Out, s...)
	e.Out = append(e.Out, 0)
}

// Signature writes s to the output as a DBus signature: a one byte
// length, followed by s and a nul terminator. s must be at most 255
// bytes.
func (e *Encoder) Signature(s string) {
	e.Uint8(uint8(len(s)))
	e.Out = append(e.Out, s...)
	e.Out = append(e.Out, 0)
}

// Uint8 writes a uint8.
func (e *Encoder) Uint8(u8 uint8) {
	e.Out = append(e.Out, u8)
}

// Uint16 writes uint16.
func (e *Encoder) Uint16(u16 uint16) {
	e.Pad(2)
	e.Out = e.Order.AppendUint16(e.Out, u16)
}

// Uint32 writes uint32.
func (e *Encoder) Uint32(u32 uint32) {
	e.Pad(4)
	e.Out = e.Order.AppendUint32(e.Out, u32)
}

// Uint64 writes uint64.
func (e *Encoder) Uint64(u64 uint64) {
	e.Pad(8)
	e.Out = e.Order.AppendUint64(e.Out, u64)
}

// An ArrayMark records the position of an array started with
// [Encoder.BeginArray].
type ArrayMark struct {
	// lenOffset is the offset of the array's length field.
	lenOffset int
	// start is the offset of the first array element, after the
	// padding that follows the length field.
	start int
}

// BeginArray writes an array header with a placeholder length, and
// returns a mark to pass to [Encoder.EndArray] once all the array
// elements have been written.
//
// elemAlign is the alignment of the array's element type. The header
// is padded to that alignment even if the array ends up empty.
func (e *Encoder) BeginArray(elemAlign int) ArrayMark {
	e.Pad(4)
	offset := len(e.Out)
	e.Uint32(0)
	e.Pad(elemAlign)
	return ArrayMark{offset, len(e.Out)}
}

// EndArray writes the final length of the array started at m. The
// length excludes the padding between the length field and the first
// element.
func (e *Encoder) EndArray(m ArrayMark) error {
	ln := len(e.Out) - m.start
	if ln > MaxArrayLength {
		return fmt.Errorf("array length %d exceeds maximum of %d bytes", ln, MaxArrayLength)
	}
	e.Order.PutUint32(e.Out[m.lenOffset:], uint32(ln))
	return nil
}

// BeginStruct starts a struct or dict entry. Structs have no header,
// only 8-byte alignment, so there is no matching end call.
func (e *Encoder) BeginStruct() {
	e.Pad(8)
}
