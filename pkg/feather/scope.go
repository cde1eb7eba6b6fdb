package feather

// Scope is one level of the variable lookup chain. Names that the innermost
// level cannot resolve fall back to its ancestors.
type Scope struct {
	value  Value
	parent *Scope
}

var (
	_ Value      = (*Scope)(nil)
	_ LookupHook = (*Scope)(nil)
)

// NewScope builds the root of a lookup chain from render input. An existing
// *Scope is reused as is unless copy is set; with copy set, lists and dicts
// are deep-copied so the render cannot observe later caller mutations.
func NewScope(vars any, copy bool) *Scope {
	if s, ok := vars.(*Scope); ok && s != nil {
		if !copy {
			return s
		}
		return &Scope{value: cloneValue(s.value), parent: s.parent}
	}
	v := FromGo(vars)
	if copy {
		v = cloneValue(v)
	}
	return &Scope{value: v}
}

// Child returns a scope for elem whose unresolved names fall back to s.
func (s *Scope) Child(elem Value) *Scope {
	if elem == nil {
		elem = NoneValue{}
	}
	return &Scope{value: elem, parent: s}
}

// Value returns the innermost value of the chain.
func (s *Scope) Value() Value {
	if s == nil || s.value == nil {
		return NoneValue{}
	}
	return s.value
}

// Parent returns the enclosing scope, or nil at the root.
func (s *Scope) Parent() *Scope { return s.parent }

func (s *Scope) String() string { return s.Value().String() }
func (s *Scope) Truth() bool    { return s.Value().Truth() }

// OnLookup implements LookupHook over the whole chain.
func (s *Scope) OnLookup(key string) (Value, bool) {
	v := s.Lookup(key)
	return v, !isAbsent(v)
}

// Lookup resolves name by key, innermost level first.
func (s *Scope) Lookup(name string) Value {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := lookupKey(cur.value, name); ok {
			return v
		}
	}
	return NoneValue{}
}

// resolve implements the compiled lookup: the innermost level answers
// positionally when it is a list, every level answers by key.
func (s *Scope) resolve(name string, idx int) Value {
	if l, ok := s.value.(ListValue); ok && idx >= 0 && idx < len(l) && !isAbsent(l[idx]) {
		return l[idx]
	}
	return s.Lookup(name)
}

func lookupKey(v Value, name string) (Value, bool) {
	switch t := v.(type) {
	case DictValue:
		it, ok := t[name]
		if !ok {
			return nil, false
		}
		if it == nil {
			return NoneValue{}, true
		}
		return it, true
	case *Scope:
		// A scope bound as an element keeps its own chain.
		it := t.Lookup(name)
		return it, !isAbsent(it)
	case LookupHook:
		it, ok := t.OnLookup(name)
		if ok && it == nil {
			it = NoneValue{}
		}
		return it, ok
	}
	return nil, false
}
