package dbus

import (
	"log"
)

const debugCodec = false

func debugf(msg string, args ...any) {
	if !debugCodec {
		return
	}
	log.Printf(msg, args...)
}

// unbounded is the array count of a context that is not an array.
const unbounded = -1

// encFrame is the encoder's container context.
type encFrame struct {
	// sig is the signature of the container's contents.
	sig Signature
	// types is the part of sig not yet encoded. In array contexts,
	// types is the element type and is never consumed.
	types string
	// nStruct is the number of signature bytes left to encode in
	// non-array contexts.
	nStruct int
	// nArray is the number of array elements left to encode, or
	// unbounded.
	nArray int
	// vals are the values the container's contents are taken from,
	// and next is the index of the next one.
	vals []Value
	next int
}

func (f *encFrame) take() (Value, bool) {
	if f.next >= len(f.vals) {
		return nil, false
	}
	v := f.vals[f.next]
	f.next++
	return v, true
}

// tooFew returns the error for running out of values in f.
func (f *encFrame) tooFew() error {
	return ArityError{f.sig, countElements(string(f.sig)), len(f.vals)}
}

// Encode appends values to sink, as the DBus types described by sig.
//
// sig is validated before any sink method is called. Encode then
// walks sig and values in lock-step, calling sink.AppendBasic for
// basic types and sink.OpenContainer/sink.CloseContainer around
// containers. Each container value supplies the values for its own
// contents: an [Array] supplies its Items, a [Struct] its fields, a
// [DictEntry] its key and value, and a [Variant] its inner value.
//
// The returned error is a [GrammarError] if sig or a variant's
// signature is malformed, a [TypeError] or [ArityError] if values
// don't match the signature, a [DepthError] if containers nest too
// deeply, or a [SinkError] if the sink fails. Encode stops at the
// first error and leaves any containers it opened open.
func Encode(sink MessageSink, sig string, values []Value) error {
	if _, err := ParseSignature(sig); err != nil {
		return err
	}

	var st stack[encFrame]
	cur := encFrame{
		sig:     Signature(sig),
		types:   sig,
		nStruct: len(sig),
		nArray:  unbounded,
		vals:    values,
	}

	for {
		if cur.nArray == 0 || (cur.nArray == unbounded && cur.nStruct == 0) {
			if cur.next != len(cur.vals) {
				return ArityError{cur.sig, countElements(string(cur.sig)), len(cur.vals)}
			}
			parent, ok := st.Pop()
			if !ok {
				return nil
			}
			debugf("close container %q", cur.sig)
			if err := sink.CloseContainer(); err != nil {
				return SinkError{"CloseContainer", parent.sig, len(parent.sig) - len(parent.types), st.Len(), err}
			}
			cur = parent
			continue
		}

		at := cur.types
		offset := len(cur.sig) - len(at)
		t := at[0]
		if cur.nArray != unbounded {
			cur.nArray--
		} else {
			cur.types = cur.types[1:]
			cur.nStruct--
		}

		sinkErr := func(op string, err error) error {
			return SinkError{op, cur.sig, offset, st.Len(), err}
		}

		switch {
		case IsBasicType(t):
			v, ok := cur.take()
			if !ok {
				return cur.tooFew()
			}
			if v == nil || len(v.Type()) != 1 || v.Type()[0] != t {
				return TypeError{Signature: Signature(at[:1]), Got: v}
			}
			debugf("append %c %v", t, v)
			if err := sink.AppendBasic(t, v); err != nil {
				return sinkErr("AppendBasic", err)
			}

		case t == TypeArray:
			k, err := ElementLength(at[1:])
			if err != nil {
				return err
			}
			elem := Signature(at[1 : 1+k])
			v, ok := cur.take()
			if !ok {
				return cur.tooFew()
			}
			arr, ok := v.(Array)
			if !ok {
				return TypeError{Signature: "a" + elem, Got: v}
			}
			if arr.Elem != elem {
				return TypeError{Signature: "a" + elem, Got: v, Reason: "array element type mismatch"}
			}
			if st.Full() {
				return DepthError{"container", maxContainerDepth}
			}
			if cur.nArray == unbounded {
				cur.types = cur.types[k:]
				cur.nStruct -= k
			}
			debugf("open array %q with %d elements", elem, len(arr.Items))
			if err := sink.OpenContainer(KindArray, elem); err != nil {
				return sinkErr("OpenContainer", err)
			}
			if err := st.Push(cur); err != nil {
				return err
			}
			cur = encFrame{
				sig:     elem,
				types:   string(elem),
				nStruct: k,
				nArray:  len(arr.Items),
				vals:    arr.Items,
			}

		case t == TypeVariant:
			v, ok := cur.take()
			if !ok {
				return cur.tooFew()
			}
			vr, ok := v.(Variant)
			if !ok {
				return TypeError{Signature: "v", Got: v}
			}
			if _, err := ParseSignature(string(vr.Signature)); err != nil {
				return err
			}
			if !vr.Signature.IsSingle() {
				return grammarErr(string(vr.Signature), 0, "variant signature must be a single complete type")
			}
			if vr.Value == nil {
				return TypeError{Signature: vr.Signature, Reason: "variant holds no value"}
			}
			if st.Full() {
				return DepthError{"container", maxContainerDepth}
			}
			debugf("open variant %q", vr.Signature)
			if err := sink.OpenContainer(KindVariant, vr.Signature); err != nil {
				return sinkErr("OpenContainer", err)
			}
			if err := st.Push(cur); err != nil {
				return err
			}
			cur = encFrame{
				sig:     vr.Signature,
				types:   string(vr.Signature),
				nStruct: len(vr.Signature),
				nArray:  unbounded,
				vals:    []Value{vr.Value},
			}

		case t == TypeStructBegin || t == TypeDictEntryBegin:
			k, err := ElementLength(at)
			if err != nil {
				return err
			}
			contents := Signature(at[1 : k-1])
			v, ok := cur.take()
			if !ok {
				return cur.tooFew()
			}
			var (
				kind ContainerKind
				vals []Value
			)
			if t == TypeStructBegin {
				s, ok := v.(Struct)
				if !ok {
					return TypeError{Signature: Signature(at[:k]), Got: v}
				}
				kind, vals = KindStruct, s
			} else {
				e, ok := v.(DictEntry)
				if !ok {
					return TypeError{Signature: Signature(at[:k]), Got: v}
				}
				kind, vals = KindDictEntry, []Value{e.Key, e.Value}
			}
			if st.Full() {
				return DepthError{"container", maxContainerDepth}
			}
			if cur.nArray == unbounded {
				cur.types = cur.types[k-1:]
				cur.nStruct -= k - 1
			}
			debugf("open %s %q", kind, contents)
			if err := sink.OpenContainer(kind, contents); err != nil {
				return sinkErr("OpenContainer", err)
			}
			if err := st.Push(cur); err != nil {
				return err
			}
			cur = encFrame{
				sig:     contents,
				types:   string(contents),
				nStruct: k - 2,
				nArray:  unbounded,
				vals:    vals,
			}

		default:
			return grammarErr(string(cur.sig), offset, "invalid or unexpected type specifier %q", t)
		}
	}
}
