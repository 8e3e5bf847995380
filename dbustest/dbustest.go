// Package dbustest provides in-memory implementations of
// [dbus.MessageSink] and [dbus.MessageSource] for tests.
//
// A [Recorder] records the calls an encoder makes as a flat list of
// [Event]s, and a [Replay] plays such a list back to a decoder. Both
// can be told to fail at a chosen call, to exercise error paths.
package dbustest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lsdbus/dbus"
)

// ErrInjected is the default error returned by a Recorder or Replay
// when it reaches its FailOn call.
var ErrInjected = errors.New("injected failure")

// Op is the kind of an Event.
type Op int

const (
	OpAppend Op = iota + 1
	OpOpen
	OpClose
)

func (o Op) String() string {
	switch o {
	case OpAppend:
		return "append"
	case OpOpen:
		return "open"
	case OpClose:
		return "close"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Event is one MessageSink call.
type Event struct {
	Op Op
	// Type is the type code of an OpAppend event.
	Type byte
	// Kind and Contents describe the container of an OpOpen event.
	Kind     dbus.ContainerKind
	Contents dbus.Signature
	// Value is the value of an OpAppend event.
	Value dbus.Value
}

// Append returns an OpAppend event for v.
func Append(v dbus.Value) Event {
	return Event{Op: OpAppend, Type: v.Type()[0], Value: v}
}

// Open returns an OpOpen event.
func Open(kind dbus.ContainerKind, contents dbus.Signature) Event {
	return Event{Op: OpOpen, Kind: kind, Contents: contents}
}

// Close returns an OpClose event.
func Close() Event {
	return Event{Op: OpClose}
}

func (e Event) String() string {
	switch e.Op {
	case OpAppend:
		return fmt.Sprintf("append %c %v", e.Type, e.Value)
	case OpOpen:
		return fmt.Sprintf("open %s %q", e.Kind, e.Contents)
	case OpClose:
		return "close"
	default:
		return e.Op.String()
	}
}

// Format returns events one per line, indented by container depth.
func Format(events []Event) string {
	var b strings.Builder
	depth := 0
	for _, e := range events {
		if e.Op == OpClose && depth > 0 {
			depth--
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(e.String())
		b.WriteByte('\n')
		if e.Op == OpOpen {
			depth++
		}
	}
	return b.String()
}

// inject counts a call, and returns the error to fail it with if it
// is call number failOn.
func inject(calls *int, failOn int, err error) error {
	*calls++
	if failOn <= 0 || *calls != failOn {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrInjected
}
