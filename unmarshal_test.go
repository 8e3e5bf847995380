package dbus

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNative(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want any
	}{
		{"nil", nil, nil},
		{"byte", Byte(1), uint8(1)},
		{"bool", Bool(true), true},
		{"int16", Int16(-1), int16(-1)},
		{"uint16", Uint16(1), uint16(1)},
		{"int32", Int32(-1), int32(-1)},
		{"uint32", Uint32(1), uint32(1)},
		{"int64", Int64(-1), int64(-1)},
		{"uint64", Uint64(1), uint64(1)},
		{"double", Double(0.5), 0.5},
		{"string", String("s"), "s"},
		{"object path", ObjectPath("/o"), "/o"},
		{"signature", Signature("a{sv}"), "a{sv}"},
		{"unix fd", UnixFD(4), int32(4)},
		{
			"array",
			Array{Elem: "i", Items: []Value{Int32(1), Int32(2)}},
			[]any{int32(1), int32(2)},
		},
		{
			"empty array",
			Array{Elem: "s"},
			[]any{},
		},
		{
			"dict",
			Array{Elem: "{sv}", Items: []Value{
				DictEntry{String("a"), NewVariant(Uint32(1))},
				DictEntry{String("b"), NewVariant(Array{Elem: "y", Items: []Value{Byte(9)}})},
			}},
			map[any]any{"a": uint32(1), "b": []any{uint8(9)}},
		},
		{
			"struct",
			Struct{String("x"), Struct{Bool(false)}},
			[]any{"x", []any{false}},
		},
		{
			"dict entry",
			DictEntry{Int64(1), String("one")},
			[]any{int64(1), "one"},
		},
		{
			"variant",
			NewVariant(NewVariant(Int16(3))),
			int16(3),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Native(tc.in)
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("Native(%v) diff (-got+want):\n%s", tc.in, diff)
			}
		})
	}
}

func TestNativeRoundTrip(t *testing.T) {
	in := map[string]any{
		"name":  "unit",
		"count": uint32(3),
		"tags":  []string{"a", "b"},
	}
	v, err := ValueOf(in)
	if err != nil {
		t.Fatal(err)
	}
	want := map[any]any{
		"name":  "unit",
		"count": uint32(3),
		"tags":  []any{"a", "b"},
	}
	if diff := cmp.Diff(Native(v), any(want)); diff != "" {
		t.Errorf("Native(ValueOf(...)) diff (-got+want):\n%s", diff)
	}
}
