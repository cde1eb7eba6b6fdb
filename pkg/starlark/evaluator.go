package starlark

import (
	"context"
	"fmt"

	"github.com/twg/feather/pkg/feather"
	"go.starlark.net/starlark"
)

// Evaluator runs Starlark scripts that produce template variables. Top-level
// functions of a script become feather callables.
type Evaluator struct {
	thread   *starlark.Thread
	builtins starlark.StringDict
	globals  starlark.StringDict
}

// NewEvaluator creates a new Starlark evaluator
func NewEvaluator() *Evaluator {
	return NewEvaluatorContext(context.Background(), nil)
}

// NewEvaluatorContext creates an evaluator whose builtins resolve partials
// through reg.
func NewEvaluatorContext(ctx context.Context, reg *feather.Registry) *Evaluator {
	return &Evaluator{
		thread:   newThread("feather", renderState{ctx: ctx, scope: feather.NoneValue{}, reg: reg}),
		builtins: CreateBuiltins(),
		globals:  make(starlark.StringDict),
	}
}

// SetGlobal sets a global variable in the Starlark environment
func (e *Evaluator) SetGlobal(name string, value feather.Value) {
	e.globals[name] = ConvertToStarlark(value)
}

// SetGlobalStarlark sets a global variable using a native Starlark value
func (e *Evaluator) SetGlobalStarlark(name string, value starlark.Value) {
	e.globals[name] = value
}

func (e *Evaluator) predeclared() starlark.StringDict {
	predeclared := make(starlark.StringDict, len(e.builtins)+len(e.globals))
	for k, v := range e.builtins {
		predeclared[k] = v
	}
	for k, v := range e.globals {
		predeclared[k] = v
	}
	return predeclared
}

// Eval evaluates a Starlark expression and returns the result as a feather Value
func (e *Evaluator) Eval(expr string) (feather.Value, error) {
	val, err := starlark.Eval(e.thread, "<eval>", expr, e.predeclared())
	if err != nil {
		return nil, fmt.Errorf("starlark evaluation error: %w", err)
	}
	return ConvertFromStarlark(val), nil
}

// ExecFile executes a Starlark file and returns the globals it defined
func (e *Evaluator) ExecFile(filename string, src any) (starlark.StringDict, error) {
	globals, err := starlark.ExecFile(e.thread, filename, src, e.predeclared())
	if err != nil {
		return nil, fmt.Errorf("starlark execution error: %w", err)
	}
	for k, v := range globals {
		e.globals[k] = v
	}
	return globals, nil
}

// ExecString executes a Starlark script from a string
func (e *Evaluator) ExecString(script string) (starlark.StringDict, error) {
	return e.ExecFile("<script>", script)
}

// GetGlobal retrieves a global variable as a feather Value
func (e *Evaluator) GetGlobal(name string) (feather.Value, bool) {
	if val, ok := e.globals[name]; ok {
		return ConvertFromStarlark(val), true
	}
	return nil, false
}

// LoadVars makes every entry of vars a Starlark global.
func (e *Evaluator) LoadVars(vars feather.DictValue) {
	for key, value := range vars {
		e.SetGlobal(key, value)
	}
}

// Variables exports the current globals as template variables. Names
// starting with an underscore and builtins are skipped.
func (e *Evaluator) Variables() feather.DictValue {
	out := make(feather.DictValue)
	for key, value := range e.globals {
		if !e.isExportableKey(key) {
			continue
		}
		out[key] = ConvertFromStarlark(value)
	}
	return out
}

func (e *Evaluator) isExportableKey(key string) bool {
	if key == "" || key[0] == '_' {
		return false
	}
	_, builtin := e.builtins[key]
	return !builtin
}
