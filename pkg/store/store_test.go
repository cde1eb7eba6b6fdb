package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/twg/feather/pkg/feather"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "templates.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	tpl := feather.Must(feather.New("<{{name}}>", feather.WithEscape(feather.EscapeMarkup)))
	if err := s.Put(ctx, "row", tpl); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "row")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name() != "row" || got.Source() != "<{{name}}>" || got.Escape() != feather.EscapeMarkup {
		t.Fatalf("unexpected template %q %q %v", got.Name(), got.Source(), got.Escape())
	}

	// Put replaces.
	if err := s.Put(ctx, "row", feather.Must(feather.New("[{{name}}]"))); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _ = s.Get(ctx, "row")
	if got.Source() != "[{{name}}]" || got.Escape() != feather.EscapeNone {
		t.Fatalf("replace failed: %q %v", got.Source(), got.Escape())
	}

	var nf feather.ErrTemplateNotFound
	if _, err := s.Get(ctx, "nope"); !errors.As(err, &nf) || nf.Name != "nope" {
		t.Fatalf("missing: got %v", err)
	}
	if err := s.Put(ctx, "", tpl); !errors.Is(err, feather.ErrInvalidArgument) {
		t.Fatalf("empty name: got %v", err)
	}
}

func TestStoreListDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	for name, src := range map[string]string{"b": "bb", "a": "a", "c": "{{x}}"} {
		if err := s.Put(ctx, name, feather.Must(feather.New(src))); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}
	if err := s.Delete(ctx, "c"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "c"); !errors.As(err, new(feather.ErrTemplateNotFound)) {
		t.Fatalf("second delete: got %v", err)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	type row struct {
		Name string
		Size int
	}
	var got []row
	for _, e := range entries {
		if e.UpdatedAt.IsZero() {
			t.Errorf("%s has no update time", e.Name)
		}
		got = append(got, row{e.Name, e.Size})
	}
	if diff := cmp.Diff([]row{{"a", 1}, {"b", 2}}, got); diff != "" {
		t.Fatalf("list (-want +got):\n%s", diff)
	}
}

func TestStoreAsLoader(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.Put(ctx, "item", feather.Must(feather.New("({{n}})"))); err != nil {
		t.Fatalf("put: %v", err)
	}

	tpl := feather.Must(feather.New("{{#xs}}{{*item}}{{/xs}}{{*missing}}"))
	reg := feather.NewLoaderRegistry(s, feather.EscapeNone)
	out, err := tpl.RenderContext(ctx, map[string]any{"xs": []any{map[string]any{"n": 1}, map[string]any{"n": 2}}}, reg, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "(1)(2)" {
		t.Fatalf("got %q", out)
	}
}

func TestStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "templates.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	src := "<p>{{&title}}</p>"
	if err := s.Put(ctx, "page", feather.Must(feather.New(src, feather.WithEscape(feather.EscapeMarkup)))); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Opening an existing database must not fail on the schema.
	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "page")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Source() != src || got.Escape() != feather.EscapeMarkup {
		t.Fatalf("got %q %v", got.Source(), got.Escape())
	}
	out, err := got.Render(map[string]any{"title": "a<b"}, nil, nil)
	if err != nil || out != "<p>a&lt;b</p>" {
		t.Fatalf("render = %q, %v", out, err)
	}
}

func TestLoaderUsesContext(t *testing.T) {
	s := openTestStore(t)
	if err := s.Put(context.Background(), "x", feather.Must(feather.New("x"))); err != nil {
		t.Fatalf("put: %v", err)
	}

	v, err := Loader{Store: s, Context: context.Background()}.Load("x")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tpl, ok := v.(*feather.Template); !ok || tpl.Source() != "x" {
		t.Fatalf("got %#v", v)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Loader{Store: s, Context: ctx}).Load("x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled load: got %v", err)
	}
}
