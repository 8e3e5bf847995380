package fragments

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// A Decoder provides utilities to read a DBus wire format message
// from a byte slice.
//
// Methods advance the read cursor as needed to account for the
// padding required by DBus alignment rules, except for [Decoder.Read]
// which reads bytes verbatim.
//
// A Decoder is a small value. Copying it yields an independent cursor
// over the same input, which is a cheap way to look ahead.
type Decoder struct {
	// Order is the byte order to use when reading multi-byte values.
	Order ByteOrder
	// In is the input to read.
	In []byte

	// offset is the read cursor in In. Alignment is computed relative
	// to the start of In, so In must start at the beginning of the
	// message.
	offset int
}

// NewDecoder returns a Decoder that reads bs starting at offset.
func NewDecoder(order ByteOrder, bs []byte, offset int) *Decoder {
	return &Decoder{Order: order, In: bs, offset: offset}
}

// Offset returns the current read offset.
func (d *Decoder) Offset() int {
	return d.offset
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.In) - d.offset
}

// Pad consumes padding bytes as needed to make the next read happen
// at a multiple of align bytes. If the decoder is already correctly
// aligned, no bytes are consumed. Padding bytes must be zero.
func (d *Decoder) Pad(align int) error {
	if align <= 1 {
		return nil
	}
	extra := d.offset % align
	if extra == 0 {
		return nil
	}
	bs, err := d.Read(align - extra)
	if err != nil {
		return err
	}
	for _, b := range bs {
		if b != 0 {
			return fmt.Errorf("non-zero padding byte at offset %d", d.offset-len(bs))
		}
	}
	return nil
}

// Read reads n bytes, with no framing or padding. The returned slice
// aliases the decoder's input.
func (d *Decoder) Read(n int) ([]byte, error) {
	if n < 0 || n > d.Remaining() {
		return nil, io.ErrUnexpectedEOF
	}
	ret := d.In[d.offset : d.offset+n]
	d.offset += n
	return ret, nil
}

// String reads a DBus string.
func (d *Decoder) String() (string, error) {
	ln, err := d.Uint32()
	if err != nil {
		return "", err
	}
	if int64(ln) >= int64(d.Remaining()) {
		return "", io.ErrUnexpectedEOF
	}
	return d.terminated(int(ln))
}

// Signature reads a DBus signature. The returned string is not
// checked for validity as a signature.
func (d *Decoder) Signature() (string, error) {
	ln, err := d.Uint8()
	if err != nil {
		return "", err
	}
	return d.terminated(int(ln))
}

// terminated reads a string of length ln followed by a nul byte.
func (d *Decoder) terminated(ln int) (string, error) {
	bs, err := d.Read(ln + 1)
	if err != nil {
		return "", err
	}
	if bs[ln] != 0 {
		return "", errors.New("string is missing nul terminator")
	}
	bs = bs[:ln]
	for _, b := range bs {
		if b == 0 {
			return "", errors.New("string contains nul byte")
		}
	}
	if !utf8.Valid(bs) {
		return "", errors.New("string is not valid UTF-8")
	}
	return string(bs), nil
}

// Uint8 reads a uint8.
func (d *Decoder) Uint8() (uint8, error) {
	bs, err := d.Read(1)
	if err != nil {
		return 0, err
	}
	return bs[0], nil
}

// Uint16 reads a uint16.
func (d *Decoder) Uint16() (uint16, error) {
	if err := d.Pad(2); err != nil {
		return 0, err
	}
	bs, err := d.Read(2)
	if err != nil {
		return 0, err
	}
	return d.Order.Uint16(bs), nil
}

// Uint32 reads a uint32.
func (d *Decoder) Uint32() (uint32, error) {
	if err := d.Pad(4); err != nil {
		return 0, err
	}
	bs, err := d.Read(4)
	if err != nil {
		return 0, err
	}
	return d.Order.Uint32(bs), nil
}

// Uint64 reads a uint64.
func (d *Decoder) Uint64() (uint64, error) {
	if err := d.Pad(8); err != nil {
		return 0, err
	}
	bs, err := d.Read(8)
	if err != nil {
		return 0, err
	}
	return d.Order.Uint64(bs), nil
}

// ArrayHeader reads an array's length and the padding that follows
// it, and returns the offset at which the array's contents end.
//
// elemAlign is the alignment of the array's element type, so that
// the decoder consumes header padding appropriately even if the array
// is empty.
func (d *Decoder) ArrayHeader(elemAlign int) (end int, err error) {
	ln, err := d.Uint32()
	if err != nil {
		return 0, err
	}
	if ln > MaxArrayLength {
		return 0, fmt.Errorf("array length %d exceeds maximum of %d bytes", ln, MaxArrayLength)
	}
	if err := d.Pad(elemAlign); err != nil {
		return 0, err
	}
	if int(ln) > d.Remaining() {
		return 0, io.ErrUnexpectedEOF
	}
	return d.offset + int(ln), nil
}

// BeginStruct reads the padding that precedes a struct or dict entry.
func (d *Decoder) BeginStruct() error {
	return d.Pad(8)
}

// ByteOrderFlag reads a DBus byte order flag byte, and sets
// [Decoder.Order] to match it.
func (d *Decoder) ByteOrderFlag() error {
	v, err := d.Uint8()
	if err != nil {
		return err
	}
	d.Order, err = ByteOrderFromFlag(v)
	return err
}
