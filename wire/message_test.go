package wire_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/lsdbus/dbus"
	"github.com/lsdbus/dbus/fragments"
	"github.com/lsdbus/dbus/wire"
)

func TestMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  wire.Message
	}{
		{
			"call",
			wire.Message{
				Type:        wire.MethodCall,
				Serial:      1,
				Path:        "/org/freedesktop/DBus",
				Interface:   "org.freedesktop.DBus",
				Member:      "Hello",
				Destination: "org.freedesktop.DBus",
			},
		},
		{
			"call with body",
			wire.Message{
				Type:        wire.MethodCall,
				Flags:       wire.NoAutoStart | wire.AllowInteractiveAuth,
				Serial:      42,
				Path:        "/org/freedesktop/systemd1",
				Interface:   "org.freedesktop.systemd1.Manager",
				Member:      "StartUnit",
				Destination: "org.freedesktop.systemd1",
				Signature:   "ss",
				Body:        []dbus.Value{dbus.String("foo.service"), dbus.String("replace")},
			},
		},
		{
			"return with fds",
			wire.Message{
				Type:        wire.MethodReturn,
				Serial:      7,
				ReplySerial: 3,
				Sender:      ":1.42",
				Signature:   "ha{sv}",
				UnixFDs:     1,
				Body: []dbus.Value{
					dbus.UnixFD(5),
					dbus.Array{Elem: "{sv}", Items: []dbus.Value{
						dbus.DictEntry{Key: dbus.String("k"), Value: dbus.NewVariant(dbus.Uint64(9))},
					}},
				},
			},
		},
		{
			"error",
			wire.Message{
				Type:        wire.Error,
				Serial:      8,
				ReplySerial: 2,
				ErrorName:   "org.freedesktop.DBus.Error.Failed",
				Signature:   "s",
				Body:        []dbus.Value{dbus.String("it broke")},
			},
		},
		{
			"signal with unknown field",
			wire.Message{
				Type:      wire.Signal,
				Serial:    9,
				Path:      "/",
				Interface: "org.example.Iface",
				Member:    "Changed",
				Unknown: map[uint8]dbus.Variant{
					42: dbus.NewVariant(dbus.String("extra")),
				},
			},
		},
	}

	for _, order := range []fragments.ByteOrder{fragments.LittleEndian, fragments.BigEndian} {
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				bs, fds, err := tc.msg.Marshal(order)
				if err != nil {
					t.Fatalf("Marshal got err: %v", err)
				}
				if bs[0] != order.Flag() {
					t.Errorf("byte order flag = %q, want %q", bs[0], order.Flag())
				}
				if testing.Verbose() {
					t.Logf("marshaled: % x", bs)
				}

				got, err := wire.ParseMessage(bs, fds)
				if err != nil {
					t.Fatalf("ParseMessage got err: %v", err)
				}
				if diff := cmp.Diff(*got, tc.msg, cmpopts.EquateEmpty()); diff != "" {
					t.Errorf("message round trip diff (-got+want):\n%s", diff)
				}
			})
		}
	}
}

func TestMessageInferredSignature(t *testing.T) {
	m := wire.Message{
		Type:   wire.MethodCall,
		Serial: 1,
		Path:   "/",
		Member: "Ping",
		Body:   []dbus.Value{dbus.Int32(1), dbus.Struct{dbus.String("a"), dbus.Bool(false)}},
	}
	bs, _, err := m.Marshal(fragments.LittleEndian)
	if err != nil {
		t.Fatal(err)
	}
	got, err := wire.ParseMessage(bs, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := dbus.Signature("i(sb)"); got.Signature != want {
		t.Errorf("parsed signature = %q, want %q", got.Signature, want)
	}
}

func TestMessageValid(t *testing.T) {
	tests := []struct {
		name string
		msg  wire.Message
	}{
		{"zero serial", wire.Message{Type: wire.Signal, Path: "/", Interface: "a.b", Member: "C"}},
		{"zero type", wire.Message{Serial: 1}},
		{"call without member", wire.Message{Type: wire.MethodCall, Serial: 1, Path: "/"}},
		{"return without reply serial", wire.Message{Type: wire.MethodReturn, Serial: 1}},
		{"error without name", wire.Message{Type: wire.Error, Serial: 1, ReplySerial: 1}},
		{"signal without interface", wire.Message{Type: wire.Signal, Serial: 1, Path: "/", Member: "C"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.msg.Valid(); err == nil {
				t.Error("Valid() succeeded, want error")
			}
			if _, _, err := tc.msg.Marshal(fragments.LittleEndian); err == nil {
				t.Error("Marshal() succeeded, want error")
			}
		})
	}
}

func TestMessageFlags(t *testing.T) {
	m := wire.Message{Type: wire.MethodCall}
	if !m.WantReply() {
		t.Error("call without flags does not want a reply")
	}
	if m.CanInteract() {
		t.Error("call without flags can interact")
	}
	m.Flags = wire.NoReplyExpected | wire.AllowInteractiveAuth
	if m.WantReply() {
		t.Error("call with NoReplyExpected wants a reply")
	}
	if !m.CanInteract() {
		t.Error("call with AllowInteractiveAuth cannot interact")
	}
	m.Type = wire.Signal
	if m.WantReply() || m.CanInteract() {
		t.Error("signal wants reply or can interact")
	}
}

func TestParseMessageErrors(t *testing.T) {
	good := wire.Message{
		Type:   wire.MethodCall,
		Serial: 1,
		Path:   "/",
		Member: "Ping",
		Body:   []dbus.Value{dbus.String("x")},
	}
	bs, _, err := good.Marshal(fragments.LittleEndian)
	if err != nil {
		t.Fatal(err)
	}
	mutate := func(f func([]byte) []byte) []byte {
		return f(append([]byte(nil), bs...))
	}

	tests := []struct {
		name string
		in   []byte
	}{
		{"short", bs[:10]},
		{"bad byte order", mutate(func(b []byte) []byte { b[0] = 'x'; return b })},
		{"bad version", mutate(func(b []byte) []byte { b[3] = 2; return b })},
		{"truncated body", bs[:len(bs)-1]},
		{"trailing bytes", append(append([]byte(nil), bs...), 0)},
		{"header overrun", mutate(func(b []byte) []byte { b[12] = 0xff; b[13] = 0xff; return b })},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := wire.ParseMessage(tc.in, nil); err == nil {
				t.Error("ParseMessage succeeded, want error")
			} else if testing.Verbose() {
				t.Logf("got expected error: %v", err)
			}
		})
	}
}

func TestParseMessageMissingFDs(t *testing.T) {
	m := wire.Message{
		Type:        wire.MethodReturn,
		Serial:      2,
		ReplySerial: 1,
		Body:        []dbus.Value{dbus.UnixFD(3)},
	}
	bs, fds, err := m.Marshal(fragments.LittleEndian)
	if err != nil {
		t.Fatal(err)
	}
	if len(fds) != 1 {
		t.Fatalf("Marshal returned %d fds, want 1", len(fds))
	}
	if _, err := wire.ParseMessage(bs, nil); err == nil {
		t.Error("ParseMessage without fds succeeded")
	}
}
