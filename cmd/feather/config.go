package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/twg/feather/pkg/feather"
	"github.com/twg/feather/pkg/validator"
	"gopkg.in/yaml.v3"
)

type featherConfig struct {
	TemplateDirs []string          `yaml:"template_dirs"`
	Escape       string            `yaml:"escape,omitempty"`
	Store        string            `yaml:"store,omitempty"`
	CacheDir     string            `yaml:"cache_dir,omitempty"`
	RemoteBase   string            `yaml:"remote_base,omitempty"`
	LogLevel     string            `yaml:"log_level,omitempty"`
	Globals      map[string]string `yaml:"globals,omitempty"`
}

// loadConfig reads path. A missing file is only an error when required.
// Relative template_dirs, store and cache_dir resolve against the config
// file's directory.
func loadConfig(path string, required bool) (featherConfig, error) {
	var cfg featherConfig
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decoding config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i, dir := range cfg.TemplateDirs {
		cfg.TemplateDirs[i] = resolve(base, dir)
	}
	if cfg.Store != "" && !strings.HasPrefix(cfg.Store, "file:") {
		cfg.Store = resolve(base, cfg.Store)
	}
	if cfg.CacheDir != "" {
		cfg.CacheDir = resolve(base, cfg.CacheDir)
	}
	return cfg, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

var logLevels = []string{"", "debug", "info", "warn", "error"}

func (c featherConfig) Validate() error {
	return validator.All(
		validator.Map(c.TemplateDirs, validator.NotEmpty, "template_dirs"),
		validator.NoDuplicates(c.TemplateDirs, "template_dirs"),
		validator.MatchesAllowed(strings.ToLower(c.Escape), []string{"", "none", "markup"}, "escape"),
		validator.MatchesAllowed(strings.ToLower(c.LogLevel), logLevels, "log_level"),
		validator.HTTPURL(c.RemoteBase, "remote_base"),
		validator.MapDict(c.Globals, func(key, _ string) error {
			return validator.All(
				validator.NotEmpty(key, "globals key"),
				validator.HasNoTags(key, "globals key "+key),
			)
		}),
	)
}

func (c featherConfig) escapeMode() feather.EscapeMode {
	m, _ := feather.ParseEscapeMode(c.Escape)
	return m
}

func (c featherConfig) cacheDir() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "feather")
	}
	return filepath.Join(os.TempDir(), "feather-cache")
}

func (c featherConfig) globals() feather.DictValue {
	out := make(feather.DictValue, len(c.Globals))
	for k, v := range c.Globals {
		out[k] = feather.StringValue(v)
	}
	return out
}

func slogLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
