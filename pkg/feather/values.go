package feather

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Value is anything a template can read. It defines string conversion and
// truthiness semantics.
type Value interface {
	String() string
	Truth() bool
}

// LookupHook can be implemented by Value containers that answer keyed
// lookups themselves instead of being a DictValue.
type LookupHook interface {
	OnLookup(key string) (Value, bool)
}

// Func is the Go signature of a template callable. scope is the lookup
// chain active at the call site and reg the registry of the current render.
type Func func(ctx context.Context, scope Value, reg *Registry) (string, error)

// CallableValue wraps a function that produces text at render time. Its
// result is treated as already-rendered output.
type CallableValue struct {
	Fn Func
}

func (c CallableValue) String() string { return "<function>" }
func (c CallableValue) Truth() bool    { return true }

// NoneValue represents the absence of a value.
type NoneValue struct{}

func (NoneValue) String() string { return "" }
func (NoneValue) Truth() bool    { return false }

// BoolValue wraps a boolean.
type BoolValue bool

func (b BoolValue) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b BoolValue) Truth() bool { return bool(b) }

// IntValue wraps an integer (64-bit). Numbers are always truthy, zero
// included.
type IntValue int64

func (i IntValue) String() string { return fmt.Sprintf("%d", int64(i)) }
func (i IntValue) Truth() bool    { return true }

// FloatValue wraps a float (64-bit). Like IntValue it is always truthy.
type FloatValue float64

func (f FloatValue) String() string { return fmt.Sprintf("%v", float64(f)) }
func (f FloatValue) Truth() bool    { return true }

// StringValue wraps a string.
type StringValue string

func (s StringValue) String() string { return string(s) }
func (s StringValue) Truth() bool    { return len(string(s)) > 0 }

// ListValue is an ordered sequence of values.
type ListValue []Value

func (l ListValue) String() string {
	var b strings.Builder
	for _, v := range l {
		if v != nil {
			b.WriteString(v.String())
		}
	}
	return b.String()
}
func (l ListValue) Truth() bool { return len(l) > 0 }

// DictValue is a string-keyed mapping of values.
type DictValue map[string]Value

func (d DictValue) String() string { return "{...}" }
func (d DictValue) Truth() bool    { return len(d) > 0 }

func isAbsent(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(NoneValue)
	return ok
}

// FromGo converts a Go value to a Value.
func FromGo(v any) Value {
	if v == nil {
		return NoneValue{}
	}
	switch t := v.(type) {
	case Value:
		return t
	case Func:
		return CallableValue{Fn: t}
	case func(context.Context, Value, *Registry) (string, error):
		return CallableValue{Fn: t}
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int32:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case uint:
		return IntValue(int64(t))
	case uint32:
		return IntValue(int64(t))
	case float32:
		return FloatValue(float64(t))
	case float64:
		return FloatValue(t)
	case []byte:
		return StringValue(string(t))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		out := make(ListValue, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, FromGo(rv.Index(i).Interface()))
		}
		return out
	case reflect.Map:
		// Only string keys map onto DictValue.
		if rv.Type().Key().Kind() == reflect.String {
			out := DictValue{}
			it := rv.MapRange()
			for it.Next() {
				out[it.Key().String()] = FromGo(it.Value().Interface())
			}
			return out
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NoneValue{}
		}
		return FromGo(rv.Elem().Interface())
	}
	return StringValue(fmt.Sprintf("%v", v))
}

// cloneValue deep-copies lists and dicts; other values are immutable.
func cloneValue(v Value) Value {
	switch t := v.(type) {
	case ListValue:
		out := make(ListValue, len(t))
		for i, it := range t {
			out[i] = cloneValue(it)
		}
		return out
	case DictValue:
		out := make(DictValue, len(t))
		for k, it := range t {
			out[k] = cloneValue(it)
		}
		return out
	case nil:
		return NoneValue{}
	default:
		return v
	}
}

// each calls fn once per normalized element of v: every element of a list,
// or v itself when it is any other truthy value.
func each(v Value, fn func(Value) error) error {
	if v == nil || !v.Truth() {
		return nil
	}
	if l, ok := v.(ListValue); ok {
		for _, it := range l {
			if it == nil {
				it = NoneValue{}
			}
			if err := fn(it); err != nil {
				return err
			}
		}
		return nil
	}
	return fn(v)
}
