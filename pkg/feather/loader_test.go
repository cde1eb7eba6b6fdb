package feather

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestFSLoader(t *testing.T) {
	fsys := fstest.MapFS{
		"row.feather":      {Data: []byte("<{{name}}>")},
		"plain":            {Data: []byte("plain")},
		"dir/nested.html":  {Data: []byte("nested")},
		"dir.feather/keep": {Data: []byte("x")},
	}
	l := FSLoader{FS: fsys, Exts: []string{".feather", ".html"}}

	for name, want := range map[string]string{
		"row":         "<{{name}}>",
		"row.feather": "<{{name}}>",
		"plain":       "plain",
		"dir/nested":  "nested",
	} {
		v, err := l.Load(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if string(v.([]byte)) != want {
			t.Fatalf("%s: got %q", name, v)
		}
	}
	for _, name := range []string{"missing", "../etc/passwd", "", "dir"} {
		if _, err := l.Load(name); !errors.As(err, new(ErrTemplateNotFound)) {
			t.Fatalf("%q: got %v", name, err)
		}
	}
}

func TestChainLoader(t *testing.T) {
	boom := errors.New("boom")
	chain := ChainLoader{
		MemoryLoader{"a": "first"},
		loaderFunc(func(name string) (any, error) {
			if name == "bad" {
				return nil, boom
			}
			return nil, ErrTemplateNotFound{name}
		}),
		MemoryLoader{"a": "shadowed", "b": "second"},
	}
	for name, want := range map[string]string{"a": "first", "b": "second"} {
		v, err := chain.Load(name)
		if err != nil || v != want {
			t.Fatalf("%s: %v, %v", name, v, err)
		}
	}
	if _, err := chain.Load("bad"); !errors.Is(err, boom) {
		t.Fatalf("bad: got %v", err)
	}
	if _, err := chain.Load("none"); !errors.As(err, new(ErrTemplateNotFound)) {
		t.Fatalf("none: got %v", err)
	}

	tpl := Must(New("{{*a}}/{{*b}}/{{*none}}"))
	if got := mustRender(t, tpl, nil, chain, nil); got != "first/second/" {
		t.Fatalf("got %q", got)
	}
}

type loaderFunc func(string) (any, error)

func (f loaderFunc) Load(name string) (any, error) { return f(name) }
