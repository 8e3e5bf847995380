package dbus

import "testing"

func TestTypeMaps(t *testing.T) {
	for kind, typ := range kindToType {
		if !IsBasicType(typ) {
			t.Errorf("kindToType[%v] = %q, which is not a basic type", kind, typ)
		}
		if !mapKeyKinds.Has(kind) {
			t.Errorf("kindToType[%v] has no mapKeyKinds entry", kind)
		}
	}

	for _, c := range []byte("ybnqiuxtdsogh") {
		if !IsBasicType(c) {
			t.Errorf("IsBasicType(%q) = false, want true", c)
		}
		if IsContainerType(c) {
			t.Errorf("IsContainerType(%q) = true, want false", c)
		}
		if Alignment(c) == 0 {
			t.Errorf("Alignment(%q) = 0", c)
		}
	}
	for _, c := range []byte("av({") {
		if IsBasicType(c) {
			t.Errorf("IsBasicType(%q) = true, want false", c)
		}
		if !IsContainerType(c) {
			t.Errorf("IsContainerType(%q) = false, want true", c)
		}
		if Alignment(c) == 0 {
			t.Errorf("Alignment(%q) = 0", c)
		}
	}
	for _, c := range []byte("})rez") {
		if IsBasicType(c) || IsContainerType(c) || Alignment(c) != 0 {
			t.Errorf("%q is not a type code, but is classified as one", c)
		}
	}
}

func TestValueTypes(t *testing.T) {
	tests := []struct {
		in   Value
		want Signature
	}{
		{Byte(1), "y"},
		{Bool(true), "b"},
		{Int16(1), "n"},
		{Uint16(1), "q"},
		{Int32(1), "i"},
		{Uint32(1), "u"},
		{Int64(1), "x"},
		{Uint64(1), "t"},
		{Double(1), "d"},
		{String("a"), "s"},
		{ObjectPath("/"), "o"},
		{Signature("ii"), "g"},
		{UnixFD(3), "h"},
		{Array{Elem: "s"}, "as"},
		{Array{Elem: "{sv}"}, "a{sv}"},
		{Struct{String("a"), Int32(1)}, "(si)"},
		{Struct{Struct{Byte(1)}, Array{Elem: "i"}}, "((y)ai)"},
		{DictEntry{String("a"), NewVariant(Int32(1))}, "{sv}"},
		{NewVariant(Array{Elem: "y"}), "v"},
	}
	for _, tc := range tests {
		if got := tc.in.Type(); got != tc.want {
			t.Errorf("%#v.Type() = %q, want %q", tc.in, got, tc.want)
		}
	}

	if got := NewVariant(Struct{Int16(1)}).Signature; got != "(n)" {
		t.Errorf("NewVariant signature = %q, want \"(n)\"", got)
	}
}

func TestObjectPathIsValid(t *testing.T) {
	tests := []struct {
		in   ObjectPath
		want bool
	}{
		{"/", true},
		{"/org", true},
		{"/org/freedesktop/DBus", true},
		{"/a_b/C9", true},
		{"", false},
		{"org", false},
		{"/org/", false},
		{"//org", false},
		{"/org//a", false},
		{"/org-a", false},
		{"/org.a", false},
	}
	for _, tc := range tests {
		if got := tc.in.IsValid(); got != tc.want {
			t.Errorf("ObjectPath(%q).IsValid() = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestContainerKind(t *testing.T) {
	for _, k := range []ContainerKind{KindArray, KindStruct, KindDictEntry, KindVariant} {
		if !k.IsValid() {
			t.Errorf("%v.IsValid() = false", k)
		}
	}
	if ContainerKind('i').IsValid() {
		t.Error("ContainerKind('i').IsValid() = true")
	}
	if got := KindDictEntry.String(); got != "dict entry" {
		t.Errorf("KindDictEntry.String() = %q", got)
	}
}
