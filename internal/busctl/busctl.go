// Package busctl implements the textual argument syntax of the
// busctl(1) tool.
//
// A message body is written as a flat list of arguments, driven by its
// signature. Basic values are a single argument each. An array is its
// element count followed by its elements. A dict entry is its key
// followed by its value. A struct is its fields in order. A variant is
// the signature of its contents followed by the contents.
//
// For example, the arguments for signature "sa{sv}" might be:
//
//	org.example.Iface 2 Enabled b true Name s foo
package busctl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lsdbus/dbus"
)

// maxDepth is the deepest nesting of containers Parse accepts.
const maxDepth = 128

// Parse parses args as a list of values of the types given by sig.
//
// All of args must be consumed.
func Parse(sig string, args []string) ([]dbus.Value, error) {
	s, err := dbus.ParseSignature(sig)
	if err != nil {
		return nil, err
	}
	elems, err := s.Elements()
	if err != nil {
		return nil, err
	}

	p := parser{args: args}
	var ret []dbus.Value
	for _, elem := range elems {
		v, err := p.value(elem, 0)
		if err != nil {
			return nil, err
		}
		ret = append(ret, v)
	}
	if rest := len(p.args) - p.pos; rest > 0 {
		return nil, fmt.Errorf("%d unused arguments after signature %q: %q", rest, sig, p.args[p.pos:])
	}
	return ret, nil
}

type parser struct {
	args []string
	pos  int
}

func (p *parser) next(sig dbus.Signature) (string, error) {
	if p.pos >= len(p.args) {
		return "", fmt.Errorf("missing argument for %q", sig)
	}
	ret := p.args[p.pos]
	p.pos++
	return ret, nil
}

func (p *parser) value(sig dbus.Signature, depth int) (dbus.Value, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("values nested more than %d deep", maxDepth)
	}

	switch t := sig[0]; t {
	case dbus.TypeArray:
		tok, err := p.next(sig)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("argument %d: invalid element count %q for %q", p.pos, tok, sig)
		}
		elem := sig[1:]
		ret := dbus.Array{Elem: elem}
		for range n {
			var v dbus.Value
			if elem[0] == dbus.TypeDictEntryBegin {
				v, err = p.dictEntry(elem, depth+2)
			} else {
				v, err = p.value(elem, depth+1)
			}
			if err != nil {
				return nil, err
			}
			ret.Items = append(ret.Items, v)
		}
		return ret, nil

	case dbus.TypeStructBegin:
		fields, err := sig[1 : len(sig)-1].Elements()
		if err != nil {
			return nil, err
		}
		var ret dbus.Struct
		for _, f := range fields {
			v, err := p.value(f, depth+1)
			if err != nil {
				return nil, err
			}
			ret = append(ret, v)
		}
		return ret, nil

	case dbus.TypeVariant:
		tok, err := p.next(sig)
		if err != nil {
			return nil, err
		}
		inner, err := dbus.ParseSignature(tok)
		if err != nil {
			return nil, fmt.Errorf("argument %d: variant signature: %w", p.pos, err)
		}
		if !inner.IsSingle() {
			return nil, fmt.Errorf("argument %d: variant signature %q is not a single complete type", p.pos, tok)
		}
		v, err := p.value(inner, depth+1)
		if err != nil {
			return nil, err
		}
		return dbus.Variant{Signature: inner, Value: v}, nil

	default:
		tok, err := p.next(sig)
		if err != nil {
			return nil, err
		}
		v, err := parseBasic(t, tok)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", p.pos, err)
		}
		return v, nil
	}
}

func (p *parser) dictEntry(sig dbus.Signature, depth int) (dbus.Value, error) {
	kv := sig[1 : len(sig)-1]
	k, err := p.value(kv[:1], depth)
	if err != nil {
		return nil, err
	}
	v, err := p.value(kv[1:], depth)
	if err != nil {
		return nil, err
	}
	return dbus.DictEntry{Key: k, Value: v}, nil
}

func parseBasic(t byte, tok string) (dbus.Value, error) {
	switch t {
	case dbus.TypeByte:
		v, err := strconv.ParseUint(tok, 0, 8)
		return dbus.Byte(v), err
	case dbus.TypeBool:
		v, err := parseBool(tok)
		return dbus.Bool(v), err
	case dbus.TypeInt16:
		v, err := strconv.ParseInt(tok, 0, 16)
		return dbus.Int16(v), err
	case dbus.TypeUint16:
		v, err := strconv.ParseUint(tok, 0, 16)
		return dbus.Uint16(v), err
	case dbus.TypeInt32:
		v, err := strconv.ParseInt(tok, 0, 32)
		return dbus.Int32(v), err
	case dbus.TypeUint32:
		v, err := strconv.ParseUint(tok, 0, 32)
		return dbus.Uint32(v), err
	case dbus.TypeInt64:
		v, err := strconv.ParseInt(tok, 0, 64)
		return dbus.Int64(v), err
	case dbus.TypeUint64:
		v, err := strconv.ParseUint(tok, 0, 64)
		return dbus.Uint64(v), err
	case dbus.TypeDouble:
		v, err := strconv.ParseFloat(tok, 64)
		return dbus.Double(v), err
	case dbus.TypeString:
		return dbus.String(tok), nil
	case dbus.TypeObjectPath:
		v := dbus.ObjectPath(tok)
		if !v.IsValid() {
			return nil, fmt.Errorf("invalid object path %q", tok)
		}
		return v, nil
	case dbus.TypeSignature:
		return dbus.ParseSignature(tok)
	case dbus.TypeUnixFD:
		v, err := strconv.ParseInt(tok, 0, 32)
		if err == nil && v < 0 {
			err = errors.New("negative file descriptor")
		}
		return dbus.UnixFD(v), err
	default:
		return nil, fmt.Errorf("unknown type code %q", t)
	}
}

func parseBool(tok string) (bool, error) {
	switch strings.ToLower(tok) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", tok)
	}
}

// Tokens returns the arguments that Parse would need to produce
// values.
func Tokens(values []dbus.Value) []string {
	var f formatter
	for _, v := range values {
		f.value(v)
	}
	return f.toks
}

// Format returns values in busctl's output syntax: the arguments of
// Tokens separated by spaces, with text values quoted.
func Format(values []dbus.Value) string {
	f := formatter{quote: true}
	for _, v := range values {
		f.value(v)
	}
	return strings.Join(f.toks, " ")
}

type formatter struct {
	toks  []string
	quote bool
}

func (f *formatter) text(s string) {
	if f.quote {
		s = strconv.Quote(s)
	}
	f.toks = append(f.toks, s)
}

func (f *formatter) value(v dbus.Value) {
	switch v := v.(type) {
	case dbus.Byte, dbus.Int16, dbus.Uint16, dbus.Int32, dbus.Uint32, dbus.Int64, dbus.Uint64, dbus.UnixFD:
		f.toks = append(f.toks, fmt.Sprint(v))
	case dbus.Bool:
		f.toks = append(f.toks, strconv.FormatBool(bool(v)))
	case dbus.Double:
		f.toks = append(f.toks, strconv.FormatFloat(float64(v), 'g', -1, 64))
	case dbus.String:
		f.text(string(v))
	case dbus.ObjectPath:
		f.text(string(v))
	case dbus.Signature:
		f.text(string(v))
	case dbus.Array:
		f.toks = append(f.toks, strconv.Itoa(len(v.Items)))
		for _, it := range v.Items {
			f.value(it)
		}
	case dbus.Struct:
		for _, fv := range v {
			f.value(fv)
		}
	case dbus.DictEntry:
		f.value(v.Key)
		f.value(v.Value)
	case dbus.Variant:
		f.toks = append(f.toks, string(v.Signature))
		f.value(v.Value)
	}
}
