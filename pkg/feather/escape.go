package feather

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"text/template"
)

// EscapeMode selects how untagged lookups ({{name}}) are escaped.
type EscapeMode int

const (
	EscapeNone EscapeMode = iota
	EscapeMarkup
)

func (m EscapeMode) String() string {
	switch m {
	case EscapeNone:
		return "none"
	case EscapeMarkup:
		return "markup"
	}
	return fmt.Sprintf("EscapeMode(%d)", int(m))
}

func (m EscapeMode) valid() bool {
	return m == EscapeNone || m == EscapeMarkup
}

// ParseEscapeMode maps a configuration name onto an EscapeMode. The empty
// string selects EscapeNone.
func ParseEscapeMode(name string) (EscapeMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return EscapeNone, nil
	case "markup":
		return EscapeMarkup, nil
	}
	return EscapeNone, fmt.Errorf("%w: unknown escape mode %q", ErrInvalidArgument, name)
}

// EscapeHTML escapes text for markup element content and attribute values.
func EscapeHTML(s string) string { return html.EscapeString(s) }

// EscapeURI escapes text for use as a URI component.
func EscapeURI(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// EscapeScript escapes text for use inside a quoted script string.
func EscapeScript(s string) string { return template.JSEscapeString(s) }

// EscapeStyle escapes text for use inside a style sheet value. Everything
// but ASCII letters, digits, '-' and '_' becomes a hex escape.
func EscapeStyle(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "\\%x ", r)
		}
	}
	return b.String()
}

// escaper is the output context of a compiled lookup.
type escaper uint8

const (
	escRaw escaper = iota
	escMarkup
	escURI
	escScript
	escStyle
)

func (e escaper) String() string {
	switch e {
	case escRaw:
		return "raw"
	case escMarkup:
		return "markup"
	case escURI:
		return "uri"
	case escScript:
		return "script"
	case escStyle:
		return "style"
	}
	return "unknown"
}

func (e escaper) apply(s string) string {
	switch e {
	case escMarkup:
		return EscapeHTML(s)
	case escURI:
		return EscapeURI(s)
	case escScript:
		return EscapeScript(s)
	case escStyle:
		return EscapeStyle(s)
	}
	return s
}

func (m EscapeMode) escaper() escaper {
	if m == EscapeMarkup {
		return escMarkup
	}
	return escRaw
}
