package starlark

import (
	"fmt"
	"sort"

	"github.com/twg/feather/pkg/feather"
	"go.starlark.net/starlark"
)

// ConvertToStarlark converts a feather Value to a Starlark value
func ConvertToStarlark(val feather.Value) starlark.Value {
	if val == nil {
		return starlark.None
	}

	switch v := val.(type) {
	case feather.StringValue:
		return starlark.String(string(v))
	case feather.IntValue:
		return starlark.MakeInt64(int64(v))
	case feather.FloatValue:
		return starlark.Float(float64(v))
	case feather.BoolValue:
		return starlark.Bool(bool(v))
	case feather.ListValue:
		items := make([]starlark.Value, len(v))
		for i, item := range v {
			items[i] = ConvertToStarlark(item)
		}
		return starlark.NewList(items)
	case feather.DictValue:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		dict := starlark.NewDict(len(v))
		for _, key := range keys {
			dict.SetKey(starlark.String(key), ConvertToStarlark(v[key]))
		}
		return dict
	case feather.NoneValue:
		return starlark.None
	case feather.CallableValue:
		return callableBuiltin(v)
	case *feather.Template:
		return starlark.String(v.Source())
	case feather.LookupHook:
		return &scopeValue{v: val, hook: v}
	default:
		// For unknown types, convert to string
		return starlark.String(val.String())
	}
}

// ConvertFromStarlark converts a Starlark value to a feather Value.
// Starlark functions become feather callables.
func ConvertFromStarlark(val starlark.Value) feather.Value {
	if val == nil || val == starlark.None {
		return feather.NoneValue{}
	}

	switch v := val.(type) {
	case starlark.String:
		return feather.StringValue(string(v))
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return feather.IntValue(i)
		}
		// For very large integers, convert to string
		return feather.StringValue(v.String())
	case starlark.Float:
		return feather.FloatValue(float64(v))
	case starlark.Bool:
		return feather.BoolValue(bool(v))
	case *starlark.List:
		items := make(feather.ListValue, v.Len())
		for i := 0; i < v.Len(); i++ {
			items[i] = ConvertFromStarlark(v.Index(i))
		}
		return items
	case starlark.Tuple:
		items := make(feather.ListValue, len(v))
		for i, it := range v {
			items[i] = ConvertFromStarlark(it)
		}
		return items
	case *starlark.Dict:
		dict := make(feather.DictValue)
		for _, item := range v.Items() {
			key := item[0]
			value := item[1]
			if keyStr, ok := key.(starlark.String); ok {
				dict[string(keyStr)] = ConvertFromStarlark(value)
			} else {
				dict[key.String()] = ConvertFromStarlark(value)
			}
		}
		return dict
	case *scopeValue:
		return v.v
	case starlark.Callable:
		return feather.CallableValue{Fn: Callable(v)}
	default:
		// For unknown types, convert to string
		return feather.StringValue(val.String())
	}
}

// scopeValue exposes a feather lookup chain to Starlark. Names resolve both
// as attributes (scope.name) and as keys (scope["name"]).
type scopeValue struct {
	v    feather.Value
	hook feather.LookupHook
}

var (
	_ starlark.HasAttrs = (*scopeValue)(nil)
	_ starlark.Mapping  = (*scopeValue)(nil)
)

func (s *scopeValue) String() string        { return s.v.String() }
func (s *scopeValue) Type() string          { return "scope" }
func (s *scopeValue) Freeze()               {}
func (s *scopeValue) Truth() starlark.Bool  { return starlark.Bool(s.v.Truth()) }
func (s *scopeValue) AttrNames() []string   { return nil }
func (s *scopeValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: scope") }

func (s *scopeValue) Attr(name string) (starlark.Value, error) {
	v, ok := s.hook.OnLookup(name)
	if !ok {
		// nil, nil reports a missing attribute
		return nil, nil
	}
	return ConvertToStarlark(v), nil
}

func (s *scopeValue) Get(k starlark.Value) (starlark.Value, bool, error) {
	key, ok := k.(starlark.String)
	if !ok {
		return nil, false, fmt.Errorf("scope key must be a string, got %s", k.Type())
	}
	v, found := s.hook.OnLookup(string(key))
	if !found {
		return nil, false, nil
	}
	return ConvertToStarlark(v), true, nil
}
