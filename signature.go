package dbus

import (
	"errors"
	"fmt"
)

const (
	// maxArrayDepth and maxStructDepth are the nesting limits
	// imposed by the DBus specification on signatures. They are
	// counted independently.
	maxArrayDepth  = 32
	maxStructDepth = 32
	// maxSignatureLength is the maximum length of a signature.
	maxSignatureLength = 255
)

// A Signature is a DBus type signature: a sequence of zero or more
// complete types, such as "a{sv}" or "(si)ay".
//
// Signature is also the [Value] for the DBus SIGNATURE type.
type Signature string

func (Signature) Type() Signature { return "g" }
func (Signature) isValue()        {}

// String returns the signature as a string.
func (s Signature) String() string {
	return string(s)
}

// IsZero reports whether the signature is empty. An empty signature
// describes a void value, such as a method call with no arguments.
func (s Signature) IsZero() bool {
	return s == ""
}

// IsSingle reports whether s is exactly one valid complete type.
func (s Signature) IsSingle() bool {
	if s == "" || len(s) > maxSignatureLength {
		return false
	}
	n, err := elementLength(string(s), 0, false, 0, 0)
	return err == nil && n == len(s)
}

// IsBasic reports whether s is a single basic type.
func (s Signature) IsBasic() bool {
	return len(s) == 1 && IsBasicType(s[0])
}

// Elements splits s into its complete types.
func (s Signature) Elements() ([]Signature, error) {
	if _, err := ParseSignature(string(s)); err != nil {
		return nil, err
	}
	var ret []Signature
	for rest := string(s); rest != ""; {
		n, err := elementLength(rest, 0, false, 0, 0)
		if err != nil {
			return nil, err
		}
		ret = append(ret, Signature(rest[:n]))
		rest = rest[n:]
	}
	return ret, nil
}

var signatures cache[string, Signature]

// ParseSignature checks that sig is a valid DBus signature, i.e. a
// sequence of zero or more complete types of at most 255 bytes in
// total, and returns it as a Signature.
//
// The returned error is a [GrammarError] or a [DepthError].
func ParseSignature(sig string) (Signature, error) {
	if ret, err := signatures.Get(sig); err == nil {
		return ret, nil
	} else if !errors.Is(err, errNotFound) {
		return "", err
	}

	if len(sig) > maxSignatureLength {
		err := grammarErr(sig, maxSignatureLength, "signature longer than %d bytes", maxSignatureLength)
		signatures.SetErr(sig, err)
		return "", err
	}
	for i := 0; i < len(sig); {
		n, err := elementLength(sig, i, false, 0, 0)
		if err != nil {
			signatures.SetErr(sig, err)
			return "", err
		}
		i += n
	}
	signatures.Set(sig, Signature(sig))
	return Signature(sig), nil
}

// ElementLength returns the length in bytes of the single complete
// type at the start of sig. The rest of sig is not examined.
//
// A dict entry type is accepted at the start of sig, since the caller
// may be slicing the element type out of an array signature. Dict
// entries nested anywhere else must be the immediate element of an
// array.
//
// The returned error is a [GrammarError] or a [DepthError].
func ElementLength(sig string) (int, error) {
	return elementLength(sig, 0, true, 0, 0)
}

// elementLength returns the length of the complete type starting at
// sig[i].
func elementLength(sig string, i int, allowDictEntry bool, arrayDepth, structDepth int) (int, error) {
	if i >= len(sig) {
		return 0, grammarErr(sig, i, "unexpected end of signature")
	}

	c := sig[i]
	switch {
	case IsBasicType(c) || c == TypeVariant:
		return 1, nil

	case c == TypeArray:
		if arrayDepth >= maxArrayDepth {
			return 0, DepthError{"array", maxArrayDepth}
		}
		n, err := elementLength(sig, i+1, true, arrayDepth+1, structDepth)
		if err != nil {
			return 0, err
		}
		return n + 1, nil

	case c == TypeStructBegin:
		if structDepth >= maxStructDepth {
			return 0, DepthError{"struct", maxStructDepth}
		}
		p := i + 1
		for p < len(sig) && sig[p] != TypeStructEnd {
			n, err := elementLength(sig, p, false, arrayDepth, structDepth+1)
			if err != nil {
				return 0, err
			}
			p += n
		}
		if p >= len(sig) {
			return 0, grammarErr(sig, i, "missing closing ) in struct definition")
		}
		if p == i+1 {
			return 0, grammarErr(sig, i, "empty struct")
		}
		return p - i + 1, nil

	case c == TypeDictEntryBegin:
		if !allowDictEntry {
			return 0, grammarErr(sig, i, "dict entry type found outside array")
		}
		if structDepth >= maxStructDepth {
			return 0, DepthError{"struct", maxStructDepth}
		}
		p := i + 1
		fields := 0
		for p < len(sig) && sig[p] != TypeDictEntryEnd {
			if fields == 0 && !IsBasicType(sig[p]) {
				return 0, grammarErr(sig, p, "invalid dict entry key type %q, must be a basic type", sig[p])
			}
			n, err := elementLength(sig, p, false, arrayDepth, structDepth+1)
			if err != nil {
				return 0, err
			}
			p += n
			fields++
		}
		if p >= len(sig) {
			return 0, grammarErr(sig, i, "missing closing } in dict entry definition")
		}
		if fields != 2 {
			return 0, grammarErr(sig, i, "dict entry has %d fields, must have exactly 2", fields)
		}
		return p - i + 1, nil

	default:
		return 0, grammarErr(sig, i, "unknown type specifier %q", c)
	}
}

// countElements returns the number of complete types in sig, which
// must be valid.
func countElements(sig string) int {
	ret := 0
	for i := 0; i < len(sig); ret++ {
		n, err := elementLength(sig, i, false, 0, 0)
		if err != nil {
			panic(fmt.Sprintf("counting elements of invalid signature %q: %v", sig, err))
		}
		i += n
	}
	return ret
}
