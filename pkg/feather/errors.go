package feather

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument is returned for unsupported option values and
	// render arguments of an unsupported shape.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrReentrant is returned when a compiled template is entered again
	// while an earlier invocation in the same render call is still running.
	ErrReentrant = errors.New("template is already executing")

	// ErrMissingVariable is reserved for a strict lookup mode. Nothing
	// returns it yet.
	ErrMissingVariable = errors.New("missing variable")
)

// ParseError reports a structural problem found while compiling a template.
type ParseError struct {
	Template string
	Pos      int
	Line     int
	Column   int
	Msg      string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.Template != "" {
		fmt.Fprintf(&b, " in %q", e.Template)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at %d:%d", e.Line, e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	return b.String()
}

func newParseError(name, src string, pos int, format string, args ...any) *ParseError {
	line, col := position(src, pos)
	return &ParseError{
		Template: name,
		Pos:      pos,
		Line:     line,
		Column:   col,
		Msg:      fmt.Sprintf(format, args...),
	}
}

// position converts a byte offset into a 1-based line and column.
func position(src string, pos int) (int, int) {
	if pos > len(src) {
		pos = len(src)
	}
	line := 1 + strings.Count(src[:pos], "\n")
	col := pos + 1
	if i := strings.LastIndexByte(src[:pos], '\n'); i >= 0 {
		col = pos - i
	}
	return line, col
}

// ErrTemplateNotFound is returned by a Loader that has nothing under Name.
type ErrTemplateNotFound struct{ Name string }

func (e ErrTemplateNotFound) Error() string { return "template not found: " + e.Name }
