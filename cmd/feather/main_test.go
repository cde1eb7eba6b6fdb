package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"feather.yaml":            "escape: markup\nglobals:\n  site: S&P\n",
		"page.feather":            "{{*header}}Hi {{title}}!{{#items}} [{{*item}}]{{/items}}",
		"partials/header.feather": "<h>{{site}}</h>",
		"partials/item.html":      "{{n}}",
		"vars.yaml":               "name: Ann\nitems:\n  - n: 1\n  - n: 2\n",
		"vars.star":               "title = name.upper()\n",
		"layout.feather":          "<body>{{*}}</body>",
	})
	out, err := runCLI(t,
		"--config", filepath.Join(dir, "feather.yaml"),
		"render", filepath.Join(dir, "page.feather"),
		"--vars", filepath.Join(dir, "vars.yaml"),
		"--vars", filepath.Join(dir, "vars.star"),
		"--partials", filepath.Join(dir, "partials"),
		"--parent", filepath.Join(dir, "layout.feather"),
	)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "<body><h>S&amp;P</h>Hi ANN! [1] [2]</body>"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}

	target := filepath.Join(dir, "out.html")
	if _, err := runCLI(t, "--config", filepath.Join(dir, "feather.yaml"),
		"render", filepath.Join(dir, "layout.feather"), "--escape", "none", "-o", target); err != nil {
		t.Fatalf("render -o: %v", err)
	}
	if b, _ := os.ReadFile(target); string(b) != "<body></body>" {
		t.Fatalf("output file = %q", b)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"bad.feather": "{{#a}}",
		"ok.feather":  "ok",
		"vars.toml":   "a = 1",
	})
	if _, err := runCLI(t, "render", filepath.Join(dir, "bad.feather")); err == nil || !strings.Contains(err.Error(), "unclosed section") {
		t.Fatalf("bad template: got %v", err)
	}
	if _, err := runCLI(t, "render", filepath.Join(dir, "ok.feather"), "--vars", filepath.Join(dir, "vars.toml")); err == nil {
		t.Fatal("expected unsupported vars error")
	}
	if _, err := runCLI(t, "render", filepath.Join(dir, "ok.feather"), "--escape", "latex"); err == nil {
		t.Fatal("expected escape error")
	}
	if _, err := runCLI(t, "--config", filepath.Join(dir, "missing.yaml"), "render", filepath.Join(dir, "ok.feather")); err == nil {
		t.Fatal("expected missing explicit config error")
	}
}

func TestInspectCommand(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"t.feather": "{{title}}{{#items}}{{name}}{{*row}}{{/items}}"})

	out, err := runCLI(t, "inspect", filepath.Join(dir, "t.feather"))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"variables:", "- items", "partials:", "- row", "sections:", "slots:"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "inspect", "--dump", filepath.Join(dir, "t.feather"))
	if err != nil {
		t.Fatalf("inspect --dump: %v", err)
	}
	if !strings.Contains(out, "0001 section items slot=1 end=4") || !strings.Contains(out, `  partial "row"`) {
		t.Fatalf("dump:\n%s", out)
	}
}

func TestEncodeDecodeCommands(t *testing.T) {
	dir := t.TempDir()
	src := "<{{name}}>"
	writeFiles(t, dir, map[string]string{"t.feather": src})

	for _, name := range []string{"t.bin", "t.json", "t.yaml"} {
		target := filepath.Join(dir, name)
		if _, err := runCLI(t, "encode", filepath.Join(dir, "t.feather"), "--escape", "markup", "-o", target); err != nil {
			t.Fatalf("encode %s: %v", name, err)
		}
		out, err := runCLI(t, "decode", target)
		if err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		if out != src {
			t.Fatalf("%s: decoded %q", name, out)
		}
	}

	b, _ := os.ReadFile(filepath.Join(dir, "t.json"))
	if !strings.Contains(string(b), `"escape": "markup"`) {
		t.Fatalf("json encoding lost the escape mode: %s", b)
	}
	if _, err := runCLI(t, "encode", filepath.Join(dir, "t.feather")); err == nil {
		t.Fatal("encode without -o should fail")
	}
}

func TestStoreCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "templates.db")
	writeFiles(t, dir, map[string]string{
		"row.feather":  "({{n}})",
		"page.feather": "{{#xs}}{{*row}}{{/xs}}",
		"vars.json":    `{"xs": [{"n": 1}, {"n": 2}]}`,
	})

	if _, err := runCLI(t, "store", "put", "row", filepath.Join(dir, "row.feather")); err == nil {
		t.Fatal("put without a store should fail")
	}
	if _, err := runCLI(t, "--store", db, "store", "put", "row", filepath.Join(dir, "row.feather"), "--escape", "markup"); err != nil {
		t.Fatalf("put: %v", err)
	}
	out, err := runCLI(t, "--store", db, "store", "ls")
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	if !strings.Contains(out, "NAME") || !strings.Contains(out, "row") || !strings.Contains(out, "markup") {
		t.Fatalf("ls:\n%s", out)
	}
	if out, err := runCLI(t, "--store", db, "store", "get", "row"); err != nil || out != "({{n}})" {
		t.Fatalf("get = %q, %v", out, err)
	}

	out, err = runCLI(t, "--store", db, "render", filepath.Join(dir, "page.feather"), "--vars", filepath.Join(dir, "vars.json"))
	if err != nil || out != "(1)(2)" {
		t.Fatalf("render from store = %q, %v", out, err)
	}

	if _, err := runCLI(t, "--store", db, "store", "rm", "row"); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if _, err := runCLI(t, "--store", db, "store", "get", "row"); err == nil {
		t.Fatal("get after rm should fail")
	}
}
