package feather

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Template is a compiled-on-demand template. Only the source text and the
// escape mode define it; the compiled program is derived state, built on
// first use and reused by every later render.
//
// A Template can be rendered from several goroutines at once.
type Template struct {
	name string
	src  string
	mode EscapeMode
	lazy *lazyProgram
}

type lazyProgram struct {
	once sync.Once
	prog *program
	err  error
}

var _ Value = (*Template)(nil)

// Option configures a Template at construction.
type Option func(*options)

type options struct {
	name string
	mode EscapeMode
	err  error
}

// WithEscape selects the escape mode of untagged lookups.
func WithEscape(m EscapeMode) Option {
	return func(o *options) {
		if !m.valid() {
			o.err = fmt.Errorf("%w: unknown escape mode %v", ErrInvalidArgument, m)
			return
		}
		o.mode = m
	}
}

// WithEscapeName selects the escape mode by name ("none" or "markup").
func WithEscapeName(name string) Option {
	return func(o *options) {
		m, err := ParseEscapeMode(name)
		if err != nil {
			o.err = err
			return
		}
		o.mode = m
	}
}

// WithName names the template in errors, logs and traces.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// New returns a Template for src. Compilation is deferred to first use, so
// a malformed template is only reported when it is rendered or compiled.
func New(src string, opts ...Option) (*Template, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	return newTemplate(o.name, src, o.mode), nil
}

// NewFromReader reads the whole of r and returns a Template for it.
func NewFromReader(r io.Reader, opts ...Option) (*Template, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	return New(string(b), opts...)
}

// Parse returns a Template for src and compiles it immediately.
func Parse(src string, opts ...Option) (*Template, error) {
	t, err := New(src, opts...)
	if err != nil {
		return nil, err
	}
	if err := t.Compile(); err != nil {
		return nil, err
	}
	return t, nil
}

// Must panics if err is non-nil. It is meant for package-level variables.
func Must(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}

func newTemplate(name, src string, mode EscapeMode) *Template {
	return &Template{name: name, src: src, mode: mode, lazy: &lazyProgram{}}
}

func (t *Template) Name() string       { return t.name }
func (t *Template) Source() string     { return t.src }
func (t *Template) Escape() EscapeMode { return t.mode }

// String returns the template source.
func (t *Template) String() string { return t.src }
func (t *Template) Truth() bool    { return true }

// Compile builds the program if it has not been built yet and reports any
// parse error. The outcome, error included, is cached.
func (t *Template) Compile() error {
	_, err := t.program(context.Background())
	return err
}

func (t *Template) program(ctx context.Context) (*program, error) {
	if t.lazy == nil {
		return nil, fmt.Errorf("%w: template was not created with New", ErrInvalidArgument)
	}
	t.lazy.once.Do(func() {
		t.lazy.prog, t.lazy.err = compile(t.name, t.src, t.mode)
		if t.lazy.err != nil {
			logger(ctx).Debug("template compile failed", "template", t.name, "error", t.lazy.err)
			return
		}
		logger(ctx).Debug("template compiled", "template", t.name, "steps", len(t.lazy.prog.steps))
	})
	return t.lazy.prog, t.lazy.err
}
