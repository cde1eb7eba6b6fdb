package feather

import (
	"context"
	"fmt"
	"strings"
)

// activation links the programs currently executing within one render
// call. It lives on the context, so independent calls never share it.
type activation struct {
	prog *program
	next *activation
}

func activeChain(ctx context.Context) *activation {
	a, _ := ctx.Value(activeKey).(*activation)
	return a
}

// maxActive bounds the executions of one program in flight at once. It
// catches re-entry through a fresh context, which the activation chain
// cannot see.
const maxActive = 1024

// execute runs p against scope. Output is buffered and only returned once
// every step has succeeded.
func (p *program) execute(ctx context.Context, scope *Scope, reg *Registry) (string, error) {
	chain := activeChain(ctx)
	for a := chain; a != nil; a = a.next {
		if a.prog == p {
			return "", fmt.Errorf("%w: %s", ErrReentrant, p.label())
		}
	}
	if p.active.Add(1) > maxActive {
		p.active.Add(-1)
		return "", fmt.Errorf("%w: %s has more than %d executions in flight", ErrReentrant, p.label(), maxActive)
	}
	defer p.active.Add(-1)
	ctx = context.WithValue(ctx, activeKey, &activation{prog: p, next: chain})

	var buf strings.Builder
	if err := p.run(ctx, &buf, 0, len(p.steps), scope, reg); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (p *program) label() string {
	if p.name == "" {
		return "anonymous template"
	}
	return fmt.Sprintf("template %q", p.name)
}

func (p *program) run(ctx context.Context, buf *strings.Builder, from, to int, scope *Scope, reg *Registry) error {
	for pc := from; pc < to; pc++ {
		st := &p.steps[pc]
		switch st.op {
		case opText:
			buf.WriteString(st.text)
		case opLookup:
			s, err := Text(ctx, scope.resolve(st.text, st.index), scope, reg)
			if err != nil {
				return fmt.Errorf("rendering %q: %w", st.text, err)
			}
			buf.WriteString(st.esc.apply(s))
		case opSection:
			body, end := pc+1, st.end
			err := each(scope.resolve(st.text, st.index), func(elem Value) error {
				return p.run(ctx, buf, body, end, scope.Child(elem), reg)
			})
			if err != nil {
				return err
			}
			pc = end
		case opInverted:
			if !scope.resolve(st.text, st.index).Truth() {
				if err := p.run(ctx, buf, pc+1, st.end, scope, reg); err != nil {
					return err
				}
			}
			pc = st.end
		case opCond:
			if scope.Lookup(st.text).Truth() != st.negate {
				if err := p.run(ctx, buf, pc+1, st.end, scope, reg); err != nil {
					return err
				}
			}
			pc = st.end
		case opPartial:
			v, err := reg.Get(ctx, st.text)
			if err != nil {
				return err
			}
			s, err := Text(ctx, v, scope, reg)
			if err != nil {
				return fmt.Errorf("rendering partial %q: %w", st.text, err)
			}
			buf.WriteString(s)
		}
	}
	return nil
}

// Text converts v to output text in the context of scope and reg:
// callables are invoked, templates rendered, lists concatenated element by
// element and absent values yield the empty string.
func Text(ctx context.Context, v Value, scope *Scope, reg *Registry) (string, error) {
	switch t := v.(type) {
	case nil, NoneValue:
		return "", nil
	case CallableValue:
		if t.Fn == nil {
			return "", nil
		}
		return t.Fn(ctx, scope, reg)
	case *Template:
		return t.render(ctx, scope, reg, nil)
	case ListValue:
		var b strings.Builder
		for _, it := range t {
			s, err := Text(ctx, it, scope, reg)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil
	}
	return v.String(), nil
}
