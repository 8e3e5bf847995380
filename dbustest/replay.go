package dbustest

import (
	"errors"
	"fmt"

	"github.com/lsdbus/dbus"
)

// Replay is a [dbus.MessageSource] that plays back a list of events,
// as recorded by a [Recorder].
//
// A Close event, or the end of the list, reports that the current
// container has no more elements. A Close event with no open container
// is an error.
type Replay struct {
	// Logf, if set, is called with a trace of every call.
	Logf func(format string, args ...any)
	// FailOn, if positive, makes the FailOn'th call fail.
	FailOn int
	// Err is the error returned by the failing call. If nil,
	// ErrInjected is returned.
	Err error

	events []Event
	pos    int
	depth  int
	calls  int
}

// NewReplay returns a Replay of events.
func NewReplay(events []Event) *Replay {
	return &Replay{events: events}
}

// Remaining returns the number of events not yet consumed.
func (r *Replay) Remaining() int {
	return len(r.events) - r.pos
}

func (r *Replay) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}

func (r *Replay) begin(op string) error {
	if err := inject(&r.calls, r.FailOn, r.Err); err != nil {
		r.logf("call %d: %s: failed: %v", r.calls, op, err)
		return err
	}
	return nil
}

// peek returns the next event, or false if the current container is
// done.
func (r *Replay) peek() (Event, bool) {
	if r.pos >= len(r.events) {
		return Event{}, false
	}
	e := r.events[r.pos]
	if e.Op == OpClose {
		return Event{}, false
	}
	return e, true
}

func (r *Replay) PeekType() (t byte, contents dbus.Signature, ok bool, err error) {
	if err := r.begin("PeekType"); err != nil {
		return 0, "", false, err
	}
	e, ok := r.peek()
	if !ok {
		if r.depth == 0 && r.pos < len(r.events) {
			return 0, "", false, fmt.Errorf("unbalanced Close event at position %d", r.pos)
		}
		r.logf("call %d: peek: end of container", r.calls)
		return 0, "", false, nil
	}
	r.logf("call %d: peek: %v", r.calls, e)
	switch e.Op {
	case OpAppend:
		return e.Type, "", true, nil
	case OpOpen:
		return byte(e.Kind), e.Contents, true, nil
	default:
		return 0, "", false, fmt.Errorf("invalid event %v", e)
	}
}

func (r *Replay) ReadBasic(t byte) (any, error) {
	if err := r.begin("ReadBasic"); err != nil {
		return nil, err
	}
	e, ok := r.peek()
	if !ok || e.Op != OpAppend {
		return nil, fmt.Errorf("ReadBasic(%c) with no basic value next", t)
	}
	if e.Type != t {
		return nil, fmt.Errorf("ReadBasic(%c) but next value has type %c", t, e.Type)
	}
	r.pos++
	r.logf("call %d: read %v", r.calls, e.Value)
	return dbus.Native(e.Value), nil
}

func (r *Replay) EnterContainer(kind dbus.ContainerKind, contents dbus.Signature) error {
	if err := r.begin("EnterContainer"); err != nil {
		return err
	}
	e, ok := r.peek()
	if !ok || e.Op != OpOpen {
		return fmt.Errorf("EnterContainer(%v) with no container next", kind)
	}
	if e.Kind != kind || e.Contents != contents {
		return fmt.Errorf("EnterContainer(%v %q) but next container is %v %q", kind, contents, e.Kind, e.Contents)
	}
	r.pos++
	r.depth++
	r.logf("call %d: enter %v %q", r.calls, kind, contents)
	return nil
}

func (r *Replay) ExitContainer() error {
	if err := r.begin("ExitContainer"); err != nil {
		return err
	}
	if r.depth == 0 {
		return errors.New("ExitContainer with no open container")
	}
	if r.pos >= len(r.events) || r.events[r.pos].Op != OpClose {
		return errors.New("ExitContainer before end of container")
	}
	r.pos++
	r.depth--
	r.logf("call %d: exit", r.calls)
	return nil
}
