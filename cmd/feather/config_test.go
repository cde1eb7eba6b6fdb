package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/twg/feather/pkg/feather"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"ok.yaml": `template_dirs: [partials, /abs]
escape: markup
store: data/t.db
remote_base: https://example.com/templates/
log_level: debug
globals:
  site: docs
`,
		"empty.yaml":     "",
		"unknown.yaml":   "template_dir: x\n",
		"escape.yaml":    "escape: latex\n",
		"dups.yaml":      "template_dirs: [a, a]\n",
		"remote.yaml":    "remote_base: ftp://example.com\n",
		"globalkey.yaml": "globals:\n  \"{{x}}\": y\n",
	})

	cfg, err := loadConfig(filepath.Join(dir, "ok.yaml"), true)
	if err != nil {
		t.Fatalf("ok: %v", err)
	}
	want := featherConfig{
		TemplateDirs: []string{filepath.Join(dir, "partials"), "/abs"},
		Escape:       "markup",
		Store:        filepath.Join(dir, "data/t.db"),
		RemoteBase:   "https://example.com/templates/",
		LogLevel:     "debug",
		Globals:      map[string]string{"site": "docs"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config (-want +got):\n%s", diff)
	}
	if cfg.escapeMode() != feather.EscapeMarkup || slogLevel(cfg.LogLevel) != slog.LevelDebug {
		t.Fatalf("derived settings: %v %v", cfg.escapeMode(), slogLevel(cfg.LogLevel))
	}

	if _, err := loadConfig(filepath.Join(dir, "empty.yaml"), true); err != nil {
		t.Fatalf("empty: %v", err)
	}
	if _, err := loadConfig(filepath.Join(dir, "absent.yaml"), false); err != nil {
		t.Fatalf("absent optional: %v", err)
	}
	if _, err := loadConfig(filepath.Join(dir, "absent.yaml"), true); err == nil {
		t.Fatal("absent required: expected error")
	}
	for name, want := range map[string]string{
		"unknown.yaml":   "field template_dir not found",
		"escape.yaml":    "escape must be one of",
		"dups.yaml":      "duplicate value",
		"remote.yaml":    "http or https",
		"globalkey.yaml": "must not contain template tags",
	} {
		_, err := loadConfig(filepath.Join(dir, name), true)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("%s: got %v, want %q", name, err, want)
		}
	}
}

func TestLoadVarsMerges(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.json": `{"a": 1, "b": "json"}`,
		"b.yml":  "b: yaml\nc: [x, y]\n",
		"c.star": "d = b + '!'\n_skip = 1\n",
	})
	base := feather.DictValue{"a": feather.StringValue("base"), "z": feather.StringValue("kept")}
	vars, err := loadVars(context.Background(), base,
		[]string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.yml"), filepath.Join(dir, "c.star")})
	if err != nil {
		t.Fatalf("loadVars: %v", err)
	}
	got := map[string]string{}
	for k, v := range vars {
		got[k] = v.String()
	}
	want := map[string]string{"a": "1", "b": "yaml", "c": "xy", "d": "yaml!", "z": "kept"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("vars (-want +got):\n%s", diff)
	}
	if base["a"].String() != "base" {
		t.Fatal("base was modified")
	}
}
