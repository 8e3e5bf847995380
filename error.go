package dbus

import (
	"fmt"
)

// GrammarError is the error returned when a type signature is
// malformed.
type GrammarError struct {
	// Signature is the signature being analyzed.
	Signature string
	// Offset is the byte offset into Signature at which the problem
	// was found.
	Offset int
	// Reason explains what is wrong with the signature.
	Reason string
}

func (e GrammarError) Error() string {
	return fmt.Sprintf("invalid type signature %q at offset %d: %s", e.Signature, e.Offset, e.Reason)
}

func grammarErr(sig string, offset int, reason string, args ...any) error {
	return GrammarError{sig, offset, fmt.Sprintf(reason, args...)}
}

// DepthError is the error returned when values or signatures nest
// deeper than DBus allows.
type DepthError struct {
	// Dimension is the kind of nesting that overflowed: "array",
	// "struct" or "container".
	Dimension string
	// Limit is the maximum nesting depth for Dimension.
	Limit int
}

func (e DepthError) Error() string {
	return fmt.Sprintf("%s nesting exceeds maximum depth of %d", e.Dimension, e.Limit)
}

// TypeError is the error returned when a value does not match the
// type its signature calls for.
type TypeError struct {
	// Signature is the expected type.
	Signature Signature
	// Got is the offending value, or nil if there was none.
	Got Value
	// Reason is an optional further explanation.
	Reason string
}

func (e TypeError) Error() string {
	got := "nil value"
	if e.Got != nil {
		got = fmt.Sprintf("value of type %q", e.Got.Type())
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s does not match type %q: %s", got, e.Signature, e.Reason)
	}
	return fmt.Sprintf("%s does not match type %q", got, e.Signature)
}

// ArityError is the error returned when a sequence of values is
// longer or shorter than its signature requires.
type ArityError struct {
	// Signature is the signature of the value sequence: the whole
	// message signature at the top level, or the contents of a struct
	// or dict entry.
	Signature Signature
	// Want is the number of values Signature describes.
	Want int
	// Got is the number of values provided.
	Got int
}

func (e ArityError) Error() string {
	if e.Got > e.Want {
		return fmt.Sprintf("too many values for signature %q: got %d, want %d", e.Signature, e.Got, e.Want)
	}
	return fmt.Sprintf("too few values for signature %q: got %d, want %d", e.Signature, e.Got, e.Want)
}

// SinkError is the error returned when a [MessageSink] operation
// fails during encoding.
type SinkError struct {
	// Op is the name of the failed MessageSink method.
	Op string
	// Signature is the signature of the container being encoded when
	// the failure happened.
	Signature Signature
	// Offset is the position in Signature of the type being encoded.
	Offset int
	// Depth is the number of containers open at the time.
	Depth int
	// Err is the error returned by the sink.
	Err error
}

func (e SinkError) Error() string {
	return fmt.Sprintf("message sink %s failed at offset %d of %q (depth %d): %v", e.Op, e.Offset, e.Signature, e.Depth, e.Err)
}

func (e SinkError) Unwrap() error {
	return e.Err
}

// SourceError is the error returned when a [MessageSource] operation
// fails during decoding.
type SourceError struct {
	// Op is the name of the failed MessageSource method.
	Op string
	// Signature is the contents signature of the container being
	// decoded when the failure happened, empty at the top level.
	Signature Signature
	// Offset is the number of values already decoded in the
	// container.
	Offset int
	// Depth is the number of containers open at the time.
	Depth int
	// Err is the error returned by the source.
	Err error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("message source %s failed at element %d of %q (depth %d): %v", e.Op, e.Offset, e.Signature, e.Depth, e.Err)
}

func (e SourceError) Unwrap() error {
	return e.Err
}
