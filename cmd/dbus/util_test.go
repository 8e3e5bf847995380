package main

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lsdbus/dbus"
)

func TestJSONValue(t *testing.T) {
	tests := []struct {
		name string
		in   dbus.Value
		want string
	}{
		{"finite double", dbus.Double(1.5), `1.5`},
		{"nan", dbus.Double(math.NaN()), `"NaN"`},
		{"positive infinity", dbus.Double(math.Inf(1)), `"+Inf"`},
		{"negative infinity", dbus.Double(math.Inf(-1)), `"-Inf"`},
		{
			"dict of doubles",
			dbus.Array{Elem: "{sd}", Items: []dbus.Value{
				dbus.DictEntry{Key: dbus.String("bad"), Value: dbus.Double(math.NaN())},
				dbus.DictEntry{Key: dbus.String("good"), Value: dbus.Double(2)},
			}},
			`{"bad":"NaN","good":2}`,
		},
		{
			"struct with infinity",
			dbus.Struct{dbus.Int32(1), dbus.Double(math.Inf(-1))},
			`[1,"-Inf"]`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bs, err := json.Marshal(jsonValue(dbus.Native(tc.in)))
			if err != nil {
				t.Fatalf("json.Marshal got err: %v", err)
			}
			if diff := cmp.Diff(string(bs), tc.want); diff != "" {
				t.Errorf("jsonValue diff (-got+want):\n%s", diff)
			}
		})
	}
}
