package dbus

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestElementLength(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"i", 1},
		{"s", 1},
		{"v", 1},
		{"h", 1},
		{"ii", 1},
		{"ai", 2},
		{"aai", 3},
		{"a{sv}", 5},
		{"{sv}", 4},
		{"a{sa{sv}}i", 9},
		{"(si)", 4},
		{"(i(ss)a{yv})x", 12},
		{"a(si)", 5},
		{"av", 2},
	}

	for _, tc := range tests {
		got, err := ElementLength(tc.in)
		if err != nil {
			t.Errorf("ElementLength(%q) got err: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ElementLength(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestElementLengthErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		depth bool
	}{
		{"empty", "", false},
		{"unterminated struct", "(", false},
		{"unterminated struct with fields", "(ii", false},
		{"empty struct", "()", false},
		{"bare array", "a", false},
		{"unknown code", "z", false},
		{"stray close", ")", false},
		{"non-basic dict key", "a{(ii)s}", false},
		{"dict with one field", "a{s}", false},
		{"dict with three fields", "a{sss}", false},
		{"unterminated dict", "a{sv", false},
		{"dict in struct", "({sv})", false},
		{"dict in dict value", "a{s{sv}}", false},
		{"deep arrays", strings.Repeat("a", 200) + "i", true},
		{"deep structs", strings.Repeat("(", 33) + "i" + strings.Repeat(")", 33), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ElementLength(tc.in)
			if err == nil {
				t.Fatalf("ElementLength(%q) succeeded, want error", tc.in)
			}
			var ge GrammarError
			var de DepthError
			switch {
			case tc.depth && !errors.As(err, &de):
				t.Errorf("ElementLength(%q) got err %v, want DepthError", tc.in, err)
			case !tc.depth && !errors.As(err, &ge):
				t.Errorf("ElementLength(%q) got err %v, want GrammarError", tc.in, err)
			}
			if testing.Verbose() {
				t.Logf("ElementLength(%q): %v", tc.in, err)
			}
		})
	}
}

func TestDepthLimits(t *testing.T) {
	arrays := func(n int) string { return strings.Repeat("a", n) + "i" }
	structs := func(n int) string { return strings.Repeat("(", n) + "i" + strings.Repeat(")", n) }

	if _, err := ElementLength(arrays(32)); err != nil {
		t.Errorf("32 nested arrays got err: %v", err)
	}
	if _, err := ElementLength(arrays(33)); err == nil {
		t.Error("33 nested arrays succeeded")
	}
	if _, err := ElementLength(structs(32)); err != nil {
		t.Errorf("32 nested structs got err: %v", err)
	}
	if _, err := ElementLength(structs(33)); err == nil {
		t.Error("33 nested structs succeeded")
	}

	// Array and struct depth are counted separately.
	mixed := strings.Repeat("a(", 32) + "i" + strings.Repeat(")", 32)
	if _, err := ElementLength(mixed); err != nil {
		t.Errorf("32 arrays of 32 structs got err: %v", err)
	}
}

func TestParseSignature(t *testing.T) {
	valid := []string{
		"",
		"i",
		"ybnqiuxtdsogh",
		"a{sv}as(ii)",
		"a{oa{sa{sv}}}",
		"v",
		strings.Repeat("i", 255),
	}
	for _, sig := range valid {
		got, err := ParseSignature(sig)
		if err != nil {
			t.Errorf("ParseSignature(%q) got err: %v", sig, err)
			continue
		}
		if string(got) != sig {
			t.Errorf("ParseSignature(%q) = %q", sig, got)
		}
		// A second parse is served from the cache.
		if _, err := ParseSignature(sig); err != nil {
			t.Errorf("cached ParseSignature(%q) got err: %v", sig, err)
		}
	}

	invalid := []string{
		"(",
		"a",
		"{sv}",
		"a{(ii)s}",
		"ii)",
		strings.Repeat("i", 256),
	}
	for _, sig := range invalid {
		for range 2 {
			_, err := ParseSignature(sig)
			var ge GrammarError
			if !errors.As(err, &ge) {
				t.Errorf("ParseSignature(%q) got err %v, want GrammarError", sig, err)
			}
		}
	}
}

func TestSignatureElements(t *testing.T) {
	tests := []struct {
		in   Signature
		want []Signature
	}{
		{"", nil},
		{"i", []Signature{"i"}},
		{"sa{sv}(ii)v", []Signature{"s", "a{sv}", "(ii)", "v"}},
	}
	for _, tc := range tests {
		got, err := tc.in.Elements()
		if err != nil {
			t.Errorf("%q.Elements() got err: %v", tc.in, err)
			continue
		}
		if diff := cmp.Diff(got, tc.want); diff != "" {
			t.Errorf("%q.Elements() diff (-got+want):\n%s", tc.in, diff)
		}
	}

	if _, err := Signature("a").Elements(); err == nil {
		t.Error("Elements() of invalid signature succeeded")
	}
}

func TestSignatureIsSingle(t *testing.T) {
	tests := []struct {
		in   Signature
		want bool
	}{
		{"", false},
		{"i", true},
		{"ii", false},
		{"a{sv}", true},
		{"{sv}", false},
		{"(", false},
		{"(ii)", true},
		{"v", true},
	}
	for _, tc := range tests {
		if got := tc.in.IsSingle(); got != tc.want {
			t.Errorf("%q.IsSingle() = %v, want %v", tc.in, got, tc.want)
		}
	}

	if !Signature("s").IsBasic() || Signature("v").IsBasic() || Signature("ss").IsBasic() {
		t.Error("IsBasic() gave wrong answer")
	}
}

func TestCountElements(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"i", 1},
		{"a{sv}i(ss)", 3},
	}
	for _, tc := range tests {
		if got := countElements(tc.in); got != tc.want {
			t.Errorf("countElements(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
