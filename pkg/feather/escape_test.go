package feather

import (
	"errors"
	"testing"
)

func TestParseEscapeMode(t *testing.T) {
	for in, want := range map[string]EscapeMode{
		"":        EscapeNone,
		"none":    EscapeNone,
		"markup":  EscapeMarkup,
		" Markup": EscapeMarkup,
	} {
		got, err := ParseEscapeMode(in)
		if err != nil || got != want {
			t.Errorf("ParseEscapeMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseEscapeMode("html"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("html: got %v", err)
	}
}

func TestEscapers(t *testing.T) {
	cases := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"markup", EscapeHTML, `<a href="x">'&`, `&lt;a href=&#34;x&#34;&gt;&#39;&amp;`},
		{"uri", EscapeURI, "a b&c/d", "a%20b%26c%2Fd"},
		{"script", EscapeScript, `'"<`, `\'\"\u003C`},
		{"style", EscapeStyle, "a b;-_", `a\20 b\3b -_`},
		{"style unicode", EscapeStyle, "é", `\e9 `},
	}
	for _, tc := range cases {
		if got := tc.fn(tc.in); got != tc.want {
			t.Errorf("%s(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestEscapeModeString(t *testing.T) {
	if EscapeMarkup.String() != "markup" || EscapeNone.String() != "none" {
		t.Fatal("unexpected names")
	}
	if got := EscapeMode(9).String(); got != "EscapeMode(9)" {
		t.Fatalf("got %q", got)
	}
}
