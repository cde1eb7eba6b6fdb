package starlark

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twg/feather/pkg/feather"
	"go.starlark.net/starlark"
)

// Thread-local keys carrying the render state into builtins.
const (
	localContext  = "feather.context"
	localScope    = "feather.scope"
	localRegistry = "feather.registry"
)

// renderState is what a Starlark callable sees of the render that invoked it.
type renderState struct {
	ctx   context.Context
	scope feather.Value
	reg   *feather.Registry
}

func newThread(name string, st renderState) *starlark.Thread {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			slog.Default().Info(msg, "thread", name)
		},
	}
	thread.SetLocal(localContext, st.ctx)
	thread.SetLocal(localScope, st.scope)
	thread.SetLocal(localRegistry, st.reg)
	return thread
}

func stateOf(thread *starlark.Thread) renderState {
	st := renderState{ctx: context.Background(), scope: feather.NoneValue{}}
	if ctx, ok := thread.Local(localContext).(context.Context); ok && ctx != nil {
		st.ctx = ctx
	}
	if scope, ok := thread.Local(localScope).(feather.Value); ok && scope != nil {
		st.scope = scope
	}
	st.reg, _ = thread.Local(localRegistry).(*feather.Registry)
	return st
}

// Callable adapts a Starlark callable to a feather.Func. Functions declaring
// parameters receive the current scope as their only argument; functions
// without parameters are called with none. A cancelled ctx cancels the
// Starlark thread.
func Callable(fn starlark.Callable) feather.Func {
	return func(ctx context.Context, scope feather.Value, reg *feather.Registry) (string, error) {
		thread := newThread("feather:"+fn.Name(), renderState{ctx: ctx, scope: scope, reg: reg})

		var args starlark.Tuple
		if f, ok := fn.(*starlark.Function); !ok || f.NumParams() > 0 {
			args = starlark.Tuple{ConvertToStarlark(scope)}
		}

		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				thread.Cancel(ctx.Err().Error())
			case <-done:
			}
		}()

		v, err := starlark.Call(thread, fn, args, nil)
		if err != nil {
			return "", fmt.Errorf("calling %s: %w", fn.Name(), err)
		}
		return textOf(v), nil
	}
}

func textOf(v starlark.Value) string {
	switch t := v.(type) {
	case nil, starlark.NoneType:
		return ""
	case starlark.String:
		return string(t)
	}
	return v.String()
}

// callableBuiltin exposes a feather callable to Starlark code. Called with
// no arguments it sees the scope of the enclosing render.
func callableBuiltin(c feather.CallableValue) *starlark.Builtin {
	return starlark.NewBuiltin("callable", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if c.Fn == nil {
			return starlark.String(""), nil
		}
		st := stateOf(thread)
		if len(args) > 0 {
			st.scope = ConvertFromStarlark(args[0])
		}
		out, err := c.Fn(st.ctx, st.scope, st.reg)
		if err != nil {
			return nil, err
		}
		return starlark.String(out), nil
	})
}

// CreateBuiltins creates the Starlark built-in functions available to
// variable scripts and template callables.
func CreateBuiltins() starlark.StringDict {
	return starlark.StringDict{
		"partial": starlark.NewBuiltin("partial", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var name string
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &name); err != nil {
				return nil, err
			}
			st := stateOf(thread)
			v, err := st.reg.Get(st.ctx, name)
			if err != nil {
				return nil, err
			}
			out, err := feather.Text(st.ctx, v, feather.NewScope(st.scope, false), st.reg)
			if err != nil {
				return nil, fmt.Errorf("rendering partial %q: %w", name, err)
			}
			return starlark.String(out), nil
		}),

		"render": starlark.NewBuiltin("render", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var src, escape string
			var vars starlark.Value = starlark.None
			if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "source", &src, "vars?", &vars, "escape?", &escape); err != nil {
				return nil, err
			}
			tpl, err := feather.New(src, feather.WithEscapeName(escape))
			if err != nil {
				return nil, err
			}
			st := stateOf(thread)
			scope := feather.NewScope(st.scope, false)
			if vars != starlark.None {
				scope = scope.Child(ConvertFromStarlark(vars))
			}
			var templates any
			if st.reg != nil {
				templates = st.reg
			}
			out, err := tpl.RenderContext(st.ctx, scope, templates, nil)
			if err != nil {
				return nil, err
			}
			return starlark.String(out), nil
		}),

		"escape_markup": escapeBuiltin("escape_markup", feather.EscapeHTML),
		"escape_uri":    escapeBuiltin("escape_uri", feather.EscapeURI),
		"escape_script": escapeBuiltin("escape_script", feather.EscapeScript),
		"escape_style":  escapeBuiltin("escape_style", feather.EscapeStyle),
	}
}

func escapeBuiltin(name string, esc func(string) string) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var s string
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &s); err != nil {
			return nil, err
		}
		return starlark.String(esc(s)), nil
	})
}
