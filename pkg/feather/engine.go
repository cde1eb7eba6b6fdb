package feather

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/twg/feather")

// LayoutSlot is the registry name under which a parent template finds the
// output of the template it wraps. It is the name of the empty partial tag
// {{*}}.
const LayoutSlot = ""

// Render renders t. See RenderContext.
func (t *Template) Render(vars, templates, parents any) (string, error) {
	return t.RenderContext(context.Background(), vars, templates, parents)
}

// RenderContext renders t against vars.
//
// templates resolves partials; it may be nil, a *Registry, a Loader, a
// map[string]any or a map[string]string. Anything but a *Registry is
// wrapped in a fresh Registry using t's escape mode.
//
// parents, when set, wraps the output in a layout chain: a *Template,
// CallableValue, Func or source string, or a slice of those. Each parent is
// rendered with the same vars and a registry whose LayoutSlot holds the
// output of the previous link.
//
// Re-entering a template already executing in the same call fails with
// ErrReentrant. Callables that render templates should pass on the ctx
// they receive; re-entry through a fresh context is only caught once
// the template has 1024 executions in flight.
func (t *Template) RenderContext(ctx context.Context, vars, templates, parents any) (string, error) {
	ctx, span := tracer.Start(ctx, "feather.Render", trace.WithAttributes(
		attribute.String("feather.template", t.name),
		attribute.String("feather.escape", t.mode.String()),
	))
	defer span.End()

	out, err := t.render(ctx, vars, templates, parents)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger(ctx).Debug("render failed", "template", t.name, "error", err)
		return "", err
	}
	return out, nil
}

func (t *Template) render(ctx context.Context, vars, templates, parents any) (string, error) {
	reg, err := t.registry(templates)
	if err != nil {
		return "", err
	}
	chain, err := parentChain(parents, t.mode)
	if err != nil {
		return "", err
	}
	prog, err := t.program(ctx)
	if err != nil {
		return "", err
	}
	scope := NewScope(vars, false)
	out, err := prog.execute(ctx, scope, reg)
	if err != nil {
		return "", err
	}
	if len(chain) == 0 {
		return out, nil
	}
	return renderParents(ctx, chain, scope, reg.With(LayoutSlot, StringValue(out)))
}

func renderParents(ctx context.Context, chain []Value, scope *Scope, reg *Registry) (string, error) {
	rest := chain[1:]
	switch p := chain[0].(type) {
	case *Template:
		var next any
		if len(rest) > 0 {
			next = ListValue(rest)
		}
		return p.render(ctx, scope, reg, next)
	case CallableValue:
		out, err := Text(ctx, p, scope, reg)
		if err != nil {
			return "", fmt.Errorf("rendering parent: %w", err)
		}
		if len(rest) == 0 {
			return out, nil
		}
		return renderParents(ctx, rest, scope, reg.With(LayoutSlot, StringValue(out)))
	}
	return "", fmt.Errorf("%w: unsupported parent %T", ErrInvalidArgument, chain[0])
}

func (t *Template) registry(templates any) (*Registry, error) {
	switch r := templates.(type) {
	case nil:
		return NewRegistry(nil, t.mode), nil
	case *Registry:
		return r, nil
	case Loader:
		return NewLoaderRegistry(r, t.mode), nil
	case map[string]any:
		return NewRegistry(r, t.mode), nil
	case map[string]string:
		return NewLoaderRegistry(MemoryLoader(r), t.mode), nil
	case map[string]*Template:
		raw := make(map[string]any, len(r))
		for k, v := range r {
			raw[k] = v
		}
		return NewRegistry(raw, t.mode), nil
	}
	return nil, fmt.Errorf("%w: unsupported templates argument %T", ErrInvalidArgument, templates)
}

// parentChain normalizes the parents argument into an ordered chain.
func parentChain(parents any, mode EscapeMode) ([]Value, error) {
	var items []any
	switch p := parents.(type) {
	case nil:
		return nil, nil
	case []any:
		items = p
	case []*Template:
		for _, it := range p {
			items = append(items, it)
		}
	case []string:
		for _, it := range p {
			items = append(items, it)
		}
	case ListValue:
		for _, it := range p {
			items = append(items, it)
		}
	default:
		items = []any{parents}
	}
	chain := make([]Value, 0, len(items))
	for _, it := range items {
		v, err := parentOf(it, mode)
		if err != nil {
			return nil, err
		}
		chain = append(chain, v)
	}
	return chain, nil
}

func parentOf(p any, mode EscapeMode) (Value, error) {
	switch t := p.(type) {
	case *Template:
		if t != nil {
			return t, nil
		}
	case CallableValue:
		return t, nil
	case Func:
		return CallableValue{Fn: t}, nil
	case func(context.Context, Value, *Registry) (string, error):
		return CallableValue{Fn: t}, nil
	case string:
		return newTemplate("", t, mode), nil
	case StringValue:
		return newTemplate("", string(t), mode), nil
	case []byte:
		return newTemplate("", string(t), mode), nil
	}
	return nil, fmt.Errorf("%w: unsupported parent %T", ErrInvalidArgument, p)
}
