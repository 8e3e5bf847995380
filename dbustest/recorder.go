package dbustest

import (
	"errors"

	"github.com/lsdbus/dbus"
)

// Recorder is a [dbus.MessageSink] that records the calls made to it.
type Recorder struct {
	// Events are the recorded calls.
	Events []Event
	// Logf, if set, is called with a trace of every call. Tests
	// typically set it to t.Logf.
	Logf func(format string, args ...any)
	// FailOn, if positive, makes the FailOn'th call fail without
	// being recorded.
	FailOn int
	// Err is the error returned by the failing call. If nil,
	// ErrInjected is returned.
	Err error

	calls int
	depth int
}

// Depth returns the number of containers left open.
func (r *Recorder) Depth() int {
	return r.depth
}

func (r *Recorder) record(e Event) error {
	if err := inject(&r.calls, r.FailOn, r.Err); err != nil {
		r.logf("call %d: %v: failed: %v", r.calls, e, err)
		return err
	}
	r.logf("call %d: %v", r.calls, e)
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}

func (r *Recorder) AppendBasic(t byte, v dbus.Value) error {
	return r.record(Event{Op: OpAppend, Type: t, Value: v})
}

func (r *Recorder) OpenContainer(kind dbus.ContainerKind, contents dbus.Signature) error {
	if err := r.record(Open(kind, contents)); err != nil {
		return err
	}
	r.depth++
	return nil
}

func (r *Recorder) CloseContainer() error {
	if r.depth == 0 {
		return errors.New("no open container to close")
	}
	if err := r.record(Close()); err != nil {
		return err
	}
	r.depth--
	return nil
}
