package feather

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Loader supplies raw registry entries by name. A Loader reports a missing
// name with ErrTemplateNotFound.
type Loader interface {
	Load(name string) (any, error)
}

// MemoryLoader serves template sources from a map.
type MemoryLoader map[string]string

func (m MemoryLoader) Load(name string) (any, error) {
	if s, ok := m[name]; ok {
		return s, nil
	}
	return nil, ErrTemplateNotFound{name}
}

// mapLoader serves arbitrary raw values from a map.
type mapLoader map[string]any

func (m mapLoader) Load(name string) (any, error) {
	if v, ok := m[name]; ok {
		return v, nil
	}
	return nil, ErrTemplateNotFound{name}
}

// Registry resolves partial and parent names to values. Raw entries are
// classified on first access and the result is memoized, so every render
// sharing a Registry sees the same *Template for a name.
//
// A Registry is safe for concurrent use.
type Registry struct {
	loader Loader
	mode   EscapeMode
	parent *Registry

	mu    sync.Mutex
	cache map[string]Value
}

// NewRegistry returns a Registry over raw. Strings containing "{{" become
// templates compiled with mode.
func NewRegistry(raw map[string]any, mode EscapeMode) *Registry {
	return NewLoaderRegistry(mapLoader(raw), mode)
}

// NewLoaderRegistry returns a Registry that pulls raw entries from l.
func NewLoaderRegistry(l Loader, mode EscapeMode) *Registry {
	return &Registry{loader: l, mode: mode, cache: map[string]Value{}}
}

// With returns a Registry that answers name with v and defers every other
// name to r.
func (r *Registry) With(name string, v Value) *Registry {
	if v == nil {
		v = NoneValue{}
	}
	return &Registry{mode: r.mode, parent: r, cache: map[string]Value{name: v}}
}

// Get resolves name. Missing names resolve to NoneValue.
func (r *Registry) Get(ctx context.Context, name string) (Value, error) {
	if r == nil {
		return NoneValue{}, nil
	}
	r.mu.Lock()
	v, ok := r.cache[name]
	r.mu.Unlock()
	if ok {
		return v, nil
	}
	if r.loader == nil {
		if r.parent != nil {
			return r.parent.Get(ctx, name)
		}
		return NoneValue{}, nil
	}

	raw, err := r.loader.Load(name)
	var nf ErrTemplateNotFound
	switch {
	case errors.As(err, &nf):
		if r.parent != nil {
			return r.parent.Get(ctx, name)
		}
		raw = nil
	case err != nil:
		return nil, fmt.Errorf("loading %q: %w", name, err)
	}
	v = r.classify(name, raw)
	logger(ctx).Debug("registry entry resolved", "name", name, "type", fmt.Sprintf("%T", v))

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.cache[name]; ok {
		return prev, nil
	}
	r.cache[name] = v
	return v, nil
}

// Names returns the names resolved so far, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.cache))
	for name := range r.cache {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// classify turns a raw loader value into a registry Value.
func (r *Registry) classify(name string, raw any) Value {
	switch t := raw.(type) {
	case nil:
		return NoneValue{}
	case *Template, CallableValue, ListValue, NoneValue:
		return t.(Value)
	case StringValue:
		return r.classifyText(name, string(t))
	case string:
		return r.classifyText(name, t)
	case []byte:
		return r.classifyText(name, string(t))
	}
	switch v := FromGo(raw).(type) {
	case CallableValue, ListValue, NoneValue:
		return v
	default:
		return StringValue(v.String())
	}
}

func (r *Registry) classifyText(name, s string) Value {
	if strings.Contains(s, "{{") {
		return newTemplate(name, s, r.mode)
	}
	return StringValue(s)
}
