package dbustest_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lsdbus/dbus"
	"github.com/lsdbus/dbus/dbustest"
)

func TestRecorder(t *testing.T) {
	r := &dbustest.Recorder{Logf: t.Logf}
	steps := []func() error{
		func() error { return r.OpenContainer(dbus.KindArray, "i") },
		func() error { return r.AppendBasic(dbus.TypeInt32, dbus.Int32(1)) },
		func() error { return r.CloseContainer() },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d got err: %v", i, err)
		}
	}
	want := []dbustest.Event{
		dbustest.Open(dbus.KindArray, "i"),
		dbustest.Append(dbus.Int32(1)),
		dbustest.Close(),
	}
	if diff := cmp.Diff(r.Events, want); diff != "" {
		t.Errorf("recorded events diff (-got+want):\n%s", diff)
	}
	if err := r.CloseContainer(); err == nil {
		t.Error("CloseContainer with nothing open succeeded")
	}
}

func TestRecorderFailOn(t *testing.T) {
	custom := errors.New("custom")
	r := &dbustest.Recorder{FailOn: 2, Err: custom}
	if err := r.OpenContainer(dbus.KindStruct, "s"); err != nil {
		t.Fatalf("first call got err: %v", err)
	}
	if err := r.AppendBasic(dbus.TypeString, dbus.String("x")); !errors.Is(err, custom) {
		t.Fatalf("second call got err %v, want %v", err, custom)
	}
	if got := len(r.Events); got != 1 {
		t.Errorf("recorder has %d events, want 1", got)
	}
	if got := r.Depth(); got != 1 {
		t.Errorf("Depth() = %d, want 1", got)
	}
}

func TestReplay(t *testing.T) {
	events := []dbustest.Event{
		dbustest.Append(dbus.ObjectPath("/a")),
		dbustest.Open(dbus.KindVariant, "u"),
		dbustest.Append(dbus.Uint32(3)),
		dbustest.Close(),
	}
	r := dbustest.NewReplay(events)
	r.Logf = t.Logf

	typ, _, ok, err := r.PeekType()
	if err != nil || !ok || typ != dbus.TypeObjectPath {
		t.Fatalf("PeekType() = %q, %v, %v, want 'o', true, nil", typ, ok, err)
	}
	if _, err := r.ReadBasic(dbus.TypeString); err == nil {
		t.Error("ReadBasic with the wrong type succeeded")
	}
	v, err := r.ReadBasic(dbus.TypeObjectPath)
	if err != nil {
		t.Fatal(err)
	}
	if v != "/a" {
		t.Errorf("ReadBasic() = %#v, want \"/a\"", v)
	}

	typ, contents, ok, err := r.PeekType()
	if err != nil || !ok || typ != byte(dbus.KindVariant) || contents != "u" {
		t.Fatalf("PeekType() = %q, %q, %v, %v, want 'v', \"u\", true, nil", typ, contents, ok, err)
	}
	if err := r.EnterContainer(dbus.KindArray, "u"); err == nil {
		t.Error("EnterContainer with the wrong kind succeeded")
	}
	if err := r.EnterContainer(dbus.KindVariant, "u"); err != nil {
		t.Fatal(err)
	}
	if err := r.ExitContainer(); err == nil {
		t.Error("ExitContainer before the end of the container succeeded")
	}
	if _, err := r.ReadBasic(dbus.TypeUint32); err != nil {
		t.Fatal(err)
	}
	if _, _, ok, err := r.PeekType(); ok || err != nil {
		t.Fatalf("PeekType() at end of variant = %v, %v, want false, nil", ok, err)
	}
	if err := r.ExitContainer(); err != nil {
		t.Fatal(err)
	}
	if got := r.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
	if err := r.ExitContainer(); err == nil {
		t.Error("ExitContainer at top level succeeded")
	}
}

func TestReplayStrayClose(t *testing.T) {
	r := dbustest.NewReplay([]dbustest.Event{
		dbustest.Append(dbus.Byte(1)),
		dbustest.Close(),
	})
	if _, err := r.ReadBasic(dbus.TypeByte); err != nil {
		t.Fatal(err)
	}
	if _, _, ok, err := r.PeekType(); ok || err == nil {
		t.Fatalf("PeekType() at top-level Close = %v, %v, want false, error", ok, err)
	}
}

func TestReplayFailOn(t *testing.T) {
	r := dbustest.NewReplay([]dbustest.Event{dbustest.Append(dbus.Byte(1))})
	r.FailOn = 1
	if _, _, _, err := r.PeekType(); !errors.Is(err, dbustest.ErrInjected) {
		t.Fatalf("PeekType got err %v, want ErrInjected", err)
	}
	if _, _, ok, err := r.PeekType(); !ok || err != nil {
		t.Fatalf("second PeekType = %v, %v, want true, nil", ok, err)
	}
}

func TestFormat(t *testing.T) {
	got := dbustest.Format([]dbustest.Event{
		dbustest.Open(dbus.KindArray, "(si)"),
		dbustest.Open(dbus.KindStruct, "si"),
		dbustest.Append(dbus.String("a")),
		dbustest.Append(dbus.Int32(1)),
		dbustest.Close(),
		dbustest.Close(),
	})
	want := strings.Join([]string{
		`open array "(si)"`,
		`  open struct "si"`,
		`    append s a`,
		`    append i 1`,
		`  close`,
		`close`,
		``,
	}, "\n")
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Format diff (-got+want):\n%s", diff)
	}
}
